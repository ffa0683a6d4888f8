package catalog

import (
	"context"

	"github.com/GerlachSG/Cruciflix/internal/cache"
	"github.com/GerlachSG/Cruciflix/internal/docstore"
	"github.com/GerlachSG/Cruciflix/internal/domain"
)

// SeriesByID reads a series directly from the store (never cached)
func (s *Service) SeriesByID(ctx context.Context, id string) (*domain.Series, error) {
	return getByID[domain.Series](ctx, s, docstore.CollectionSeries, id)
}

// CreateSeries stores a new series uploaded by the actor in ctx
func (s *Service) CreateSeries(ctx context.Context, sr domain.Series) domain.Result {
	actor, ok := domain.ActorFromContext(ctx)
	if !ok {
		return domain.Failed(domain.ErrNotAuthenticated)
	}
	if err := sr.Validate(); err != nil {
		return domain.Failed(err)
	}

	sr.ID = ""
	if sr.Tags == nil {
		sr.Tags = []string{}
	}
	if sr.Year == 0 {
		sr.Year = s.now().Year()
	}
	if sr.Rating == "" {
		sr.Rating = domain.DefaultRating
	}
	if sr.TotalSeasons == 0 {
		sr.TotalSeasons = 1
	}
	sr.EpisodeCount = 0
	sr.UploadedBy = actor.UserID
	sr.CreatedAt = s.nowMillis()
	sr.UpdatedAt = 0
	sr.ViewCount = 0

	return s.add(ctx, docstore.CollectionSeries, cache.KeySeries, sr)
}

// UpdateSeries merges fields into an existing series
func (s *Service) UpdateSeries(ctx context.Context, id string, fields domain.Fields) domain.Result {
	return s.update(ctx, docstore.CollectionSeries, cache.KeySeries, id, fields, "title")
}

// DeleteSeries removes a series and all of its episodes in one batch.
// If the batch fails nothing is deleted.
func (s *Service) DeleteSeries(ctx context.Context, id string) domain.Result {
	docs, err := s.store.Find(ctx, docstore.Collection(docstore.CollectionEpisodes).
		Where("seriesId", docstore.OpEqual, id))
	if err != nil {
		s.logger.Error("failed to list episodes for delete", "seriesID", id, "error", err)
		return domain.Failed(err)
	}

	refs := make([]docstore.Ref, 0, len(docs)+1)
	for _, doc := range docs {
		refs = append(refs, docstore.Ref{Collection: docstore.CollectionEpisodes, ID: doc.ID})
	}
	refs = append(refs, docstore.Ref{Collection: docstore.CollectionSeries, ID: id})

	if err := s.store.DeleteBatch(ctx, refs); err != nil {
		s.logger.Error("failed to delete series", "seriesID", id, "episodes", len(docs), "error", err)
		return domain.Failed(err)
	}

	s.evict(cache.KeySeries)
	s.logger.Info("deleted series", "seriesID", id, "episodes", len(docs))
	return domain.Succeeded(id)
}
