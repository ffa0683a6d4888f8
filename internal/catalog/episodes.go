package catalog

import (
	"context"
	"fmt"
	"sort"

	"github.com/GerlachSG/Cruciflix/internal/cache"
	"github.com/GerlachSG/Cruciflix/internal/docstore"
	"github.com/GerlachSG/Cruciflix/internal/domain"
)

// Episodes returns every episode of a series ordered by season then number
func (s *Service) Episodes(ctx context.Context, seriesID string) ([]*domain.Episode, error) {
	docs, err := s.store.Find(ctx, docstore.Collection(docstore.CollectionEpisodes).
		Where("seriesId", docstore.OpEqual, seriesID))
	if err != nil {
		s.logger.Error("failed to fetch episodes", "seriesID", seriesID, "error", err)
		return []*domain.Episode{}, fmt.Errorf("failed to fetch episodes: %w", err)
	}

	episodes, skipped := docstore.DecodeAll[domain.Episode](docs)
	if len(skipped) > 0 {
		s.logger.Warn("skipped undecodable episodes", "seriesID", seriesID, "ids", skipped)
	}

	sort.SliceStable(episodes, func(i, j int) bool {
		if episodes[i].Season != episodes[j].Season {
			return episodes[i].Season < episodes[j].Season
		}
		return episodes[i].EpisodeNumber < episodes[j].EpisodeNumber
	})
	return episodes, nil
}

// EpisodesBySeason returns one season of a series ordered by episode number
func (s *Service) EpisodesBySeason(ctx context.Context, seriesID string, season int) ([]*domain.Episode, error) {
	docs, err := s.store.Find(ctx, docstore.Collection(docstore.CollectionEpisodes).
		Where("seriesId", docstore.OpEqual, seriesID).
		Where("season", docstore.OpEqual, season).
		OrderBy("episodeNumber", docstore.Asc))
	if err != nil {
		s.logger.Error("failed to fetch season", "seriesID", seriesID, "season", season, "error", err)
		return []*domain.Episode{}, fmt.Errorf("failed to fetch season: %w", err)
	}
	episodes, _ := docstore.DecodeAll[domain.Episode](docs)
	return episodes, nil
}

// EpisodeByID reads an episode directly from the store
func (s *Service) EpisodeByID(ctx context.Context, id string) (*domain.Episode, error) {
	return getByID[domain.Episode](ctx, s, docstore.CollectionEpisodes, id)
}

// CreateEpisode stores a new episode and refreshes the series episode count
func (s *Service) CreateEpisode(ctx context.Context, e domain.Episode) domain.Result {
	if err := e.Validate(); err != nil {
		return domain.Failed(err)
	}

	e.ID = ""
	if e.Season == 0 {
		e.Season = 1
	}
	if e.EpisodeNumber == 0 {
		e.EpisodeNumber = 1
	}
	if e.VideoURL == "" {
		e.VideoURL = e.HLSURL
	}
	if e.SubscriptionLevel == "" {
		e.SubscriptionLevel = domain.LevelFree
	}
	e.CreatedAt = s.nowMillis()
	e.UpdatedAt = 0

	data, err := docstore.Encode(e)
	if err != nil {
		return domain.Failed(err)
	}
	data["type"] = "EPISODE"

	id, err := s.store.Add(ctx, docstore.CollectionEpisodes, data)
	if err != nil {
		s.logger.Error("failed to create episode", "seriesID", e.SeriesID, "error", err)
		return domain.Failed(err)
	}

	s.recountEpisodes(ctx, e.SeriesID)
	return domain.Succeeded(id)
}

// UpdateEpisode merges fields into an existing episode and recounts the
// series it belongs to, plus the one it left when seriesId changed
func (s *Service) UpdateEpisode(ctx context.Context, id string, fields domain.Fields) domain.Result {
	prev, prevErr := s.EpisodeByID(ctx, id)

	res := s.update(ctx, docstore.CollectionEpisodes, cache.KeySeries, id, fields, "title", "seriesId")
	if !res.Success {
		return res
	}

	ep, err := s.EpisodeByID(ctx, id)
	if err == nil && ep.SeriesID != "" {
		s.recountEpisodes(ctx, ep.SeriesID)
	}
	if prevErr == nil && prev.SeriesID != "" && (err != nil || prev.SeriesID != ep.SeriesID) {
		s.recountEpisodes(ctx, prev.SeriesID)
	}
	return res
}

// DeleteEpisode removes an episode and refreshes the series episode count
func (s *Service) DeleteEpisode(ctx context.Context, id string) domain.Result {
	ep, lookupErr := s.EpisodeByID(ctx, id)

	if err := s.store.Delete(ctx, docstore.CollectionEpisodes, id); err != nil {
		s.logger.Error("failed to delete episode", "episodeID", id, "error", err)
		return domain.Failed(err)
	}

	if lookupErr == nil && ep.SeriesID != "" {
		s.recountEpisodes(ctx, ep.SeriesID)
	}
	return domain.Succeeded(id)
}

// recountEpisodes stores the current episode total on the series.
// Failures are logged only.
func (s *Service) recountEpisodes(ctx context.Context, seriesID string) {
	episodes, err := s.Episodes(ctx, seriesID)
	if err != nil {
		return
	}
	err = s.store.Update(ctx, docstore.CollectionSeries, seriesID, map[string]any{
		"episodeCount": len(episodes),
	})
	if err != nil {
		s.logger.Error("failed to update episode count", "seriesID", seriesID, "error", err)
		return
	}
	s.evict(cache.KeySeries)
}
