// Package analytics computes the admin dashboard totals.
package analytics

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sourcegraph/conc/pool"

	"github.com/GerlachSG/Cruciflix/internal/docstore"
	"github.com/GerlachSG/Cruciflix/internal/domain"
)

// Catalog lists the playable content
type Catalog interface {
	Movies(ctx context.Context, forceRefresh bool) ([]*domain.Movie, error)
	Series(ctx context.Context, forceRefresh bool) ([]*domain.Series, error)
}

// PendingCounter counts comments awaiting moderation
type PendingCounter interface {
	PendingCount(ctx context.Context) (int, error)
}

type Service struct {
	catalog  Catalog
	comments PendingCounter
	store    docstore.Store
	logger   *slog.Logger
}

func NewService(catalog Catalog, comments PendingCounter, store docstore.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{catalog: catalog, comments: comments, store: store, logger: logger}
}

// Totals loads every figure concurrently. Content lists are force-refreshed
// so the dashboard never shows a stale snapshot.
func (s *Service) Totals(ctx context.Context) (domain.Analytics, error) {
	var out domain.Analytics
	var movieViews, seriesViews int64

	p := pool.New().WithErrors().WithContext(ctx)
	p.Go(func(ctx context.Context) error {
		movies, err := s.catalog.Movies(ctx, true)
		if err != nil {
			return fmt.Errorf("movies: %w", err)
		}
		out.TotalMovies = len(movies)
		for _, m := range movies {
			movieViews += m.ViewCount
		}
		return nil
	})
	p.Go(func(ctx context.Context) error {
		series, err := s.catalog.Series(ctx, true)
		if err != nil {
			return fmt.Errorf("series: %w", err)
		}
		out.TotalSeries = len(series)
		for _, sr := range series {
			seriesViews += sr.ViewCount
		}
		return nil
	})
	p.Go(func(ctx context.Context) error {
		users, err := s.store.Find(ctx, docstore.Collection(docstore.CollectionUsers))
		if err != nil {
			return fmt.Errorf("users: %w", err)
		}
		out.TotalUsers = len(users)
		return nil
	})
	p.Go(func(ctx context.Context) error {
		n, err := s.comments.PendingCount(ctx)
		if err != nil {
			return fmt.Errorf("comments: %w", err)
		}
		out.PendingComments = n
		return nil
	})

	if err := p.Wait(); err != nil {
		s.logger.Error("failed to compute analytics", "error", err)
		return domain.Analytics{}, fmt.Errorf("failed to compute analytics: %w", err)
	}
	out.TotalViews = movieViews + seriesViews
	return out, nil
}

// TotalVideos is movies plus series
func TotalVideos(a domain.Analytics) int {
	return a.TotalMovies + a.TotalSeries
}
