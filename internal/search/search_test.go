package search

import (
	"testing"

	"github.com/GerlachSG/Cruciflix/internal/domain"
	"github.com/stretchr/testify/assert"
)

func titles(items []domain.Content) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.GetTitle()
	}
	return out
}

func catalog() []domain.Content {
	return []domain.Content{
		&domain.Movie{ID: "1", Title: "A Paixão de Cristo", Description: "As últimas horas de Jesus"},
		&domain.Series{ID: "2", Title: "The Chosen", Description: "A vida de Jesus pelos olhos dos discípulos"},
		&domain.Movie{ID: "3", Title: "Paixão", Description: "Curta-metragem"},
		&domain.Movie{ID: "4", Title: "Ben-Hur", Description: "Um príncipe judeu"},
	}
}

func TestSearch_TitleAndDescription(t *testing.T) {
	got := New().Search("jesus", catalog())
	assert.Equal(t, []string{"A Paixão de Cristo", "The Chosen"}, titles(got))
}

func TestSearch_RanksExactThenPrefixThenContains(t *testing.T) {
	got := New().Search("paixao", catalog())
	assert.Equal(t, []string{"Paixão", "A Paixão de Cristo"}, titles(got))
}

func TestSearch_CaseAndAccentInsensitive(t *testing.T) {
	got := New().Search("BEN-HUR", catalog())
	assert.Equal(t, []string{"Ben-Hur"}, titles(got))

	got = New().Search("príncipe", catalog())
	assert.Equal(t, []string{"Ben-Hur"}, titles(got))
}

func TestSearch_TypoTolerance(t *testing.T) {
	got := New().Search("chozen", catalog())
	assert.Equal(t, []string{"The Chosen"}, titles(got))
}

func TestSearch_EmptyQueryReturnsAll(t *testing.T) {
	items := catalog()
	assert.Len(t, New().Search("  ", items), len(items))
}

func TestSearch_NoMatch(t *testing.T) {
	assert.Empty(t, New().Search("zzzz", catalog()))
}

func TestFold(t *testing.T) {
	assert.Equal(t, "fe e coracao", Fold("Fé e Coração"))
}
