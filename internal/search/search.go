// Package search ranks catalog content against free-text queries.
package search

import (
	"sort"
	"strings"
	"unicode"

	lfuzzy "github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/sahilm/fuzzy"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/GerlachSG/Cruciflix/internal/domain"
)

// Match scores (lower = better)
const (
	scoreExact       = 0
	scoreTitlePrefix = 10
	scoreTitle       = 50
	scoreDescription = 100
	scoreTypo        = 150
)

// Result is a ranked match with highlight positions in the folded title
type Result struct {
	Content        domain.Content
	Score          int
	MatchedIndexes []int
}

// titleIndex implements sahilm/fuzzy.Source over pre-folded titles
type titleIndex []string

func (idx titleIndex) String(i int) string { return idx[i] }
func (idx titleIndex) Len() int            { return len(idx) }

// Searcher implements domain.Searcher
type Searcher struct{}

var _ domain.Searcher = Searcher{}

func New() Searcher { return Searcher{} }

// Search returns the items whose title or description contains the query,
// ignoring case and accents, best matches first. Titles within a couple of
// typos of the query are included after exact hits. An empty query returns
// every item unchanged.
func (Searcher) Search(query string, items []domain.Content) []domain.Content {
	ranked := Rank(query, items)
	out := make([]domain.Content, len(ranked))
	for i, r := range ranked {
		out[i] = r.Content
	}
	return out
}

// Rank scores every item against the query. Ties keep input order.
func Rank(query string, items []domain.Content) []Result {
	q := Fold(strings.TrimSpace(query))
	if q == "" {
		out := make([]Result, len(items))
		for i, item := range items {
			out[i] = Result{Content: item, Score: scoreExact}
		}
		return out
	}

	titles := make(titleIndex, len(items))
	for i, item := range items {
		titles[i] = Fold(item.GetTitle())
	}

	highlights := make(map[int][]int)
	for _, m := range fuzzy.FindFrom(q, titles) {
		highlights[m.Index] = m.MatchedIndexes
	}

	var results []Result
	for i, item := range items {
		score, ok := score(q, titles[i], Fold(item.GetDescription()))
		if !ok {
			continue
		}
		results = append(results, Result{
			Content:        item,
			Score:          score,
			MatchedIndexes: highlights[i],
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score < results[j].Score
	})
	return results
}

func score(q, title, description string) (int, bool) {
	switch {
	case title == q:
		return scoreExact, true
	case strings.HasPrefix(title, q):
		return scoreTitlePrefix, true
	case strings.Contains(title, q):
		return scoreTitle, true
	case strings.Contains(description, q):
		return scoreDescription, true
	}

	// Typo tolerance on single title words
	maxTypos := allowedTypos(len([]rune(q)))
	if maxTypos == 0 {
		return 0, false
	}
	best := -1
	for _, word := range strings.FieldsFunc(title, isSeparator) {
		d := lfuzzy.LevenshteinDistance(q, word)
		if d <= maxTypos && (best < 0 || d < best) {
			best = d
		}
	}
	if best < 0 {
		return 0, false
	}
	return scoreTypo + best*20, true
}

// allowedTypos: 1-3 chars = 0, 4-6 chars = 1, 7+ chars = 2
func allowedTypos(length int) int {
	switch {
	case length <= 3:
		return 0
	case length <= 6:
		return 1
	default:
		return 2
	}
}

func isSeparator(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

// Fold lowercases s and strips diacritics ("Fé" -> "fe")
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}
