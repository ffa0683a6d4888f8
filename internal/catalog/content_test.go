package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GerlachSG/Cruciflix/internal/domain"
)

func seedContent(t *testing.T, svc *Service) (movieID, seriesID string) {
	t.Helper()
	ctx := adminCtx()
	movieID = mustCreateMovie(t, svc, domain.Movie{
		Title: "Ben-Hur", Description: "Um príncipe judeu", Tags: []string{"Drama"}, IsFeatured: true,
	})
	res := svc.CreateSeries(ctx, domain.Series{
		Title: "Superbook", Description: "Aventuras bíblicas", Tags: []string{"Kids"}, IsKidsSafe: true,
	})
	require.True(t, res.Success)
	return movieID, res.ID
}

func contentTitles(items []domain.Content) []string {
	out := make([]string, len(items))
	for i, c := range items {
		out[i] = c.GetTitle()
	}
	return out
}

func TestAllContent_MergedNewestFirst(t *testing.T) {
	svc, _ := newTestService(t)
	seedContent(t, svc)

	all, err := svc.AllContent(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Superbook", "Ben-Hur"}, contentTitles(all))
	assert.Equal(t, domain.ContentSeries, all[0].GetContentType())
}

func TestContentFilters(t *testing.T) {
	svc, _ := newTestService(t)
	seedContent(t, svc)
	ctx := context.Background()

	featured, err := svc.FeaturedContent(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Ben-Hur"}, contentTitles(featured))

	kids, err := svc.KidsContent(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Superbook"}, contentTitles(kids))

	tagged, err := svc.ContentByTags(ctx, []string{"Kids", "Fé"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Superbook"}, contentTitles(tagged))

	all, err := svc.ContentByTags(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	found, err := svc.SearchContent(ctx, "principe")
	require.NoError(t, err)
	assert.Equal(t, []string{"Ben-Hur"}, contentTitles(found))
}

func TestContentByID_DetectsType(t *testing.T) {
	svc, _ := newTestService(t)
	movieID, seriesID := seedContent(t, svc)
	ctx := context.Background()

	c, err := svc.ContentByID(ctx, seriesID, "")
	require.NoError(t, err)
	assert.Equal(t, domain.ContentSeries, c.GetContentType())

	c, err = svc.ContentByID(ctx, movieID, "")
	require.NoError(t, err)
	assert.Equal(t, domain.ContentMovie, c.GetContentType())

	_, err = svc.ContentByID(ctx, seriesID, domain.ContentMovie)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.ContentByID(ctx, "missing", "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestIncrementViewCount(t *testing.T) {
	svc, _ := newTestService(t)
	movieID, _ := seedContent(t, svc)
	ctx := context.Background()

	require.NoError(t, svc.IncrementViewCount(ctx, domain.ContentMovie, movieID))
	require.NoError(t, svc.IncrementViewCount(ctx, domain.ContentMovie, movieID))

	m, err := svc.MovieByID(ctx, movieID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), m.ViewCount)

	assert.Error(t, svc.IncrementViewCount(ctx, domain.ContentSeries, movieID))
}
