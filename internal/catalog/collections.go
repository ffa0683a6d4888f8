package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/GerlachSG/Cruciflix/internal/cache"
	"github.com/GerlachSG/Cruciflix/internal/docstore"
	"github.com/GerlachSG/Cruciflix/internal/domain"
	"github.com/GerlachSG/Cruciflix/internal/notify"
)

// entityPtr constrains P to *T implementing domain.Entity
type entityPtr[T any] interface {
	*T
	domain.Entity
}

// source describes one cached collection
type source struct {
	kind       domain.EntityType
	collection string
	order      docstore.Order
	skip       func(docstore.Document) bool // Drop foreign documents
}

var (
	moviesSource = source{
		kind:       domain.EntityMovies,
		collection: docstore.CollectionMovies,
		order:      docstore.Order{Field: "createdAt", Direction: docstore.Desc},
		skip: func(doc docstore.Document) bool {
			t, _ := doc.Data["type"].(string)
			return t == "EPISODE" || t == "SERIES"
		},
	}
	seriesSource = source{
		kind:       domain.EntitySeries,
		collection: docstore.CollectionSeries,
		order:      docstore.Order{Field: "createdAt", Direction: docstore.Desc},
	}
	tagsSource = source{
		kind:       domain.EntityTags,
		collection: docstore.CollectionTags,
		order:      docstore.Order{Field: "name", Direction: docstore.Asc},
	}
)

// getAll serves the cached list when one exists and refreshes it in the
// background; otherwise it fetches synchronously. Failures yield an empty
// list and the logged error.
func getAll[T any, P entityPtr[T]](ctx context.Context, s *Service, src source, force bool) ([]P, error) {
	key := cache.KeyFor(src.kind)

	if !force {
		var stale []P
		if s.cache.ReadStale(key, &stale) {
			s.logger.Debug("serving cached list", "entityType", string(src.kind), "count", len(stale))
			scheduleRevalidation[T, P](s, src, stale)
			return stale, nil
		}
	}

	gen := s.generation(key)
	fresh, err := fetchAll[T, P](ctx, s, src)
	if err != nil {
		s.logger.Error("failed to fetch list", "entityType", string(src.kind), "error", err)
		return []P{}, err
	}
	if !s.writeIfCurrent(key, gen, fresh) {
		s.logger.Debug("list changed during fetch, not cached", "entityType", string(src.kind))
	}
	s.logger.Debug("fetched list", "entityType", string(src.kind), "count", len(fresh))
	return fresh, nil
}

func fetchAll[T any, P entityPtr[T]](ctx context.Context, s *Service, src source) ([]P, error) {
	q := docstore.Collection(src.collection).OrderBy(src.order.Field, src.order.Direction)
	docs, err := s.store.Find(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", src.collection, err)
	}

	if src.skip != nil {
		kept := docs[:0]
		for _, doc := range docs {
			if !src.skip(doc) {
				kept = append(kept, doc)
			}
		}
		docs = kept
	}

	decoded, skipped := docstore.DecodeAll[T](docs)
	if len(skipped) > 0 {
		s.logger.Warn("skipped undecodable documents", "collection", src.collection, "ids", skipped)
	}

	out := make([]P, len(decoded))
	for i, v := range decoded {
		out[i] = P(v)
	}
	return out, nil
}

// scheduleRevalidation refetches src after the revalidate delay, writes the
// result to the cache and publishes it if it differs from stale. A mutation
// during the fetch discards the result.
func scheduleRevalidation[T any, P entityPtr[T]](s *Service, src source, stale []P) {
	key := cache.KeyFor(src.kind)
	gen := s.generation(key)
	s.goBackground(func() {
		if s.revalidateDelay > 0 {
			timer := time.NewTimer(s.revalidateDelay)
			defer timer.Stop()
			select {
			case <-s.ctx.Done():
				return
			case <-timer.C:
			}
		}
		if s.ctx.Err() != nil {
			return
		}

		fresh, err := fetchAll[T, P](s.ctx, s, src)
		if err != nil {
			s.logger.Warn("background revalidation failed", "entityType", string(src.kind), "error", err)
			return
		}

		if !s.writeIfCurrent(key, gen, fresh) {
			s.logger.Debug("revalidation superseded by a mutation", "entityType", string(src.kind))
			return
		}

		if notify.Changed(stale, true, fresh) {
			s.logger.Debug("revalidation detected changes", "entityType", string(src.kind), "count", len(fresh))
			s.notifier.Publish(src.kind, notify.Entities(fresh))
		}
	})
}

// Movies returns all movies, newest first
func (s *Service) Movies(ctx context.Context, forceRefresh bool) ([]*domain.Movie, error) {
	return getAll[domain.Movie](ctx, s, moviesSource, forceRefresh)
}

// Series returns all series, newest first
func (s *Service) Series(ctx context.Context, forceRefresh bool) ([]*domain.Series, error) {
	return getAll[domain.Series](ctx, s, seriesSource, forceRefresh)
}

// Tags returns all tags ordered by name
func (s *Service) Tags(ctx context.Context, forceRefresh bool) ([]*domain.Tag, error) {
	return getAll[domain.Tag](ctx, s, tagsSource, forceRefresh)
}

// Invalidate evicts the cached list for kind, or every list when kind is empty
func (s *Service) Invalidate(kind domain.EntityType) {
	if kind == "" {
		s.evict()
		s.logger.Info("invalidated all cache")
		return
	}
	s.evict(cache.KeyFor(kind))
	s.logger.Info("invalidated cache", "entityType", string(kind))
}
