package catalog

import (
	"context"
	"fmt"

	"github.com/GerlachSG/Cruciflix/internal/cache"
	"github.com/GerlachSG/Cruciflix/internal/docstore"
	"github.com/GerlachSG/Cruciflix/internal/domain"
)

// MovieByID reads a movie directly from the store (never cached)
func (s *Service) MovieByID(ctx context.Context, id string) (*domain.Movie, error) {
	return getByID[domain.Movie](ctx, s, docstore.CollectionMovies, id)
}

// CreateMovie stores a new movie uploaded by the actor in ctx
func (s *Service) CreateMovie(ctx context.Context, m domain.Movie) domain.Result {
	actor, ok := domain.ActorFromContext(ctx)
	if !ok {
		return domain.Failed(domain.ErrNotAuthenticated)
	}
	if err := m.Validate(); err != nil {
		return domain.Failed(err)
	}

	m.ID = ""
	if m.Tags == nil {
		m.Tags = []string{}
	}
	if m.Year == 0 {
		m.Year = s.now().Year()
	}
	if m.Rating == "" {
		m.Rating = domain.DefaultRating
	}
	if m.SubscriptionLevel == "" {
		m.SubscriptionLevel = domain.LevelFree
	}
	m.UploadedBy = actor.UserID
	m.CreatedAt = s.nowMillis()
	m.UpdatedAt = 0
	m.ViewCount = 0

	return s.add(ctx, docstore.CollectionMovies, cache.KeyMovies, m)
}

// UpdateMovie merges fields into an existing movie
func (s *Service) UpdateMovie(ctx context.Context, id string, fields domain.Fields) domain.Result {
	return s.update(ctx, docstore.CollectionMovies, cache.KeyMovies, id, fields, "title")
}

// DeleteMovie removes a movie
func (s *Service) DeleteMovie(ctx context.Context, id string) domain.Result {
	return s.remove(ctx, docstore.CollectionMovies, cache.KeyMovies, id)
}

// === Shared mutation helpers ===

func getByID[T any](ctx context.Context, s *Service, collection, id string) (*T, error) {
	doc, err := s.store.Get(ctx, collection, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s %s: %w", collection, id, err)
	}
	return docstore.Decode[T](doc)
}

func (s *Service) add(ctx context.Context, collection, cacheKey string, v any) domain.Result {
	data, err := docstore.Encode(v)
	if err != nil {
		return domain.Failed(err)
	}
	id, err := s.store.Add(ctx, collection, data)
	if err != nil {
		s.logger.Error("failed to create document", "collection", collection, "error", err)
		return domain.Failed(err)
	}
	s.evict(cacheKey)
	s.logger.Info("created document", "collection", collection, "id", id)
	return domain.Succeeded(id)
}

func (s *Service) update(ctx context.Context, collection, cacheKey, id string, fields domain.Fields, required ...string) domain.Result {
	for _, name := range required {
		if v, ok := fields[name]; ok {
			if str, isStr := v.(string); !isStr || str == "" {
				return domain.Failed(fmt.Errorf("%w: %s is required", domain.ErrValidation, name))
			}
		}
	}

	if err := s.store.Update(ctx, collection, id, s.stamp(fields)); err != nil {
		s.logger.Error("failed to update document", "collection", collection, "id", id, "error", err)
		return domain.Failed(err)
	}
	s.evict(cacheKey)
	return domain.Succeeded(id)
}

func (s *Service) remove(ctx context.Context, collection, cacheKey, id string) domain.Result {
	if err := s.store.Delete(ctx, collection, id); err != nil {
		s.logger.Error("failed to delete document", "collection", collection, "id", id, "error", err)
		return domain.Failed(err)
	}
	s.evict(cacheKey)
	s.logger.Info("deleted document", "collection", collection, "id", id)
	return domain.Succeeded(id)
}
