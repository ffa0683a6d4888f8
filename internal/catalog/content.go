package catalog

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"

	"github.com/sourcegraph/conc"

	"github.com/GerlachSG/Cruciflix/internal/docstore"
	"github.com/GerlachSG/Cruciflix/internal/domain"
)

// AllContent returns movies and series merged, newest first. The two lists
// are loaded concurrently; a failure on one side still returns the other.
func (s *Service) AllContent(ctx context.Context) ([]domain.Content, error) {
	var (
		movies            []*domain.Movie
		series            []*domain.Series
		moviesErr, serErr error
	)

	var wg conc.WaitGroup
	wg.Go(func() { movies, moviesErr = s.Movies(ctx, false) })
	wg.Go(func() { series, serErr = s.Series(ctx, false) })
	wg.Wait()

	combined := make([]domain.Content, 0, len(movies)+len(series))
	for _, m := range movies {
		combined = append(combined, m)
	}
	for _, sr := range series {
		combined = append(combined, sr)
	}

	sort.SliceStable(combined, func(i, j int) bool {
		return combined[i].GetCreatedAt() > combined[j].GetCreatedAt()
	})
	return combined, errors.Join(moviesErr, serErr)
}

// FeaturedContent returns content flagged for the home banner
func (s *Service) FeaturedContent(ctx context.Context) ([]domain.Content, error) {
	return s.filterContent(ctx, domain.Content.Featured)
}

// KidsContent returns content safe for kids profiles
func (s *Service) KidsContent(ctx context.Context) ([]domain.Content, error) {
	return s.filterContent(ctx, domain.Content.KidsSafe)
}

// ContentByTags returns content carrying at least one of tags.
// No tags returns everything.
func (s *Service) ContentByTags(ctx context.Context, tags []string) ([]domain.Content, error) {
	if len(tags) == 0 {
		return s.AllContent(ctx)
	}
	return s.filterContent(ctx, func(c domain.Content) bool {
		return slices.ContainsFunc(tags, func(tag string) bool {
			return slices.Contains(c.GetTags(), tag)
		})
	})
}

// SearchContent matches query against titles and descriptions
func (s *Service) SearchContent(ctx context.Context, query string) ([]domain.Content, error) {
	content, err := s.AllContent(ctx)
	return s.searcher.Search(query, content), err
}

func (s *Service) filterContent(ctx context.Context, keep func(domain.Content) bool) ([]domain.Content, error) {
	content, err := s.AllContent(ctx)
	out := make([]domain.Content, 0, len(content))
	for _, c := range content {
		if keep(c) {
			out = append(out, c)
		}
	}
	return out, err
}

// ContentByID loads a movie or series. With an empty type the movie
// collection is tried first.
func (s *Service) ContentByID(ctx context.Context, id string, contentType domain.ContentType) (domain.Content, error) {
	if contentType != domain.ContentSeries {
		movie, err := s.MovieByID(ctx, id)
		if err == nil {
			return movie, nil
		}
		if contentType == domain.ContentMovie || !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
	}

	series, err := s.SeriesByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return series, nil
}

// IncrementViewCount adds one view to a movie or series
func (s *Service) IncrementViewCount(ctx context.Context, contentType domain.ContentType, id string) error {
	collection := docstore.CollectionSeries
	if contentType == domain.ContentMovie {
		collection = docstore.CollectionMovies
	}
	if err := s.store.Increment(ctx, collection, id, "viewCount", 1); err != nil {
		s.logger.Error("failed to increment view count", "collection", collection, "id", id, "error", err)
		return fmt.Errorf("failed to increment view count: %w", err)
	}
	return nil
}

var _ domain.ViewCounter = (*Service)(nil)
