// Package progress persists how far each profile watched each title.
package progress

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/GerlachSG/Cruciflix/internal/docstore"
	"github.com/GerlachSG/Cruciflix/internal/domain"
)

// ContinueWatchingLimit caps the continue-watching row
const ContinueWatchingLimit = 10

// ContentResolver loads the title a record points at
type ContentResolver interface {
	ContentByID(ctx context.Context, id string, contentType domain.ContentType) (domain.Content, error)
}

// Service reads and writes progress documents
type Service struct {
	store   docstore.Store
	content ContentResolver
	logger  *slog.Logger
	now     func() time.Time
}

var _ domain.ProgressStore = (*Service)(nil)

// NewService creates a new progress service.
func NewService(store docstore.Store, content ContentResolver, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, content: content, logger: logger, now: time.Now}
}

// Save merges a progress snapshot. Completion is derived from the watched
// fraction of duration.
func (s *Service) Save(ctx context.Context, key domain.ProgressKey, contentType domain.ContentType, watchTime, duration float64) error {
	if key.UserID == "" {
		return domain.ErrNotAuthenticated
	}

	data := map[string]any{
		"userId":      key.UserID,
		"profileId":   key.Profile(),
		"contentId":   key.ContentID,
		"episodeId":   nil,
		"watchTime":   watchTime,
		"duration":    duration,
		"completed":   domain.IsCompleted(watchTime, duration),
		"lastWatched": s.now().UnixMilli(),
	}
	if key.EpisodeID != "" {
		data["episodeId"] = key.EpisodeID
	}
	if contentType != "" {
		data["contentType"] = string(contentType)
	}

	if err := s.store.Set(ctx, docstore.CollectionProgress, key.DocID(), data, true); err != nil {
		s.logger.Error("failed to save progress", "docID", key.DocID(), "error", err)
		return fmt.Errorf("failed to save progress: %w", err)
	}
	s.logger.Debug("saved progress", "docID", key.DocID(), "watchTime", watchTime)
	return nil
}

// Get returns the saved record, or nil when the title was never watched
func (s *Service) Get(ctx context.Context, key domain.ProgressKey) (*domain.ProgressRecord, error) {
	if key.UserID == "" {
		return nil, domain.ErrNotAuthenticated
	}
	doc, err := s.store.Get(ctx, docstore.CollectionProgress, key.DocID())
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		s.logger.Error("failed to fetch progress", "docID", key.DocID(), "error", err)
		return nil, fmt.Errorf("failed to fetch progress: %w", err)
	}
	return docstore.Decode[domain.ProgressRecord](doc)
}

// ContinueWatching returns unfinished titles for a profile, most recent
// first. Records whose content no longer exists are skipped.
func (s *Service) ContinueWatching(ctx context.Context, userID, profileID string) ([]domain.ContinueWatchingItem, error) {
	if userID == "" {
		return nil, domain.ErrNotAuthenticated
	}
	key := domain.ProgressKey{UserID: userID, ProfileID: profileID}

	docs, err := s.store.Find(ctx, docstore.Collection(docstore.CollectionProgress).
		Where("userId", docstore.OpEqual, userID).
		Where("profileId", docstore.OpEqual, key.Profile()).
		Where("completed", docstore.OpEqual, false).
		OrderBy("lastWatched", docstore.Desc).
		Limit(ContinueWatchingLimit))
	if err != nil {
		s.logger.Error("failed to fetch continue watching", "userID", userID, "error", err)
		return []domain.ContinueWatchingItem{}, fmt.Errorf("failed to fetch continue watching: %w", err)
	}

	records, _ := docstore.DecodeAll[domain.ProgressRecord](docs)
	items := make([]domain.ContinueWatchingItem, 0, len(records))
	for _, r := range records {
		c, err := s.content.ContentByID(ctx, r.ContentID, r.ContentType)
		if err != nil {
			s.logger.Debug("skipping progress for missing content", "contentID", r.ContentID, "error", err)
			continue
		}
		items = append(items, domain.ContinueWatchingItem{Progress: *r, Content: c})
	}
	return items, nil
}
