// Package watchlist manages the titles a profile saved for later.
package watchlist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/GerlachSG/Cruciflix/internal/docstore"
	"github.com/GerlachSG/Cruciflix/internal/domain"
)

// ContentResolver loads the title an entry points at
type ContentResolver interface {
	ContentByID(ctx context.Context, id string, contentType domain.ContentType) (domain.Content, error)
}

// Item is a watchlist entry with its resolved content
type Item struct {
	Entry   domain.WatchlistEntry
	Content domain.Content
}

type Service struct {
	store   docstore.Store
	content ContentResolver
	logger  *slog.Logger
	now     func() time.Time
}

func NewService(store docstore.Store, content ContentResolver, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, content: content, logger: logger, now: time.Now}
}

func keyFor(ctx context.Context, contentID string) (domain.ProgressKey, error) {
	actor, ok := domain.ActorFromContext(ctx)
	if !ok {
		return domain.ProgressKey{}, domain.ErrNotAuthenticated
	}
	if actor.ProfileID == "" {
		return domain.ProgressKey{}, domain.ErrNoProfile
	}
	return domain.ProgressKey{UserID: actor.UserID, ProfileID: actor.ProfileID, ContentID: contentID}, nil
}

// Add saves a title for the current profile. Adding twice is a no-op.
func (s *Service) Add(ctx context.Context, contentID string, contentType domain.ContentType) domain.Result {
	key, err := keyFor(ctx, contentID)
	if err != nil {
		return domain.Failed(err)
	}
	entry := domain.WatchlistEntry{
		UserID:      key.UserID,
		ProfileID:   key.ProfileID,
		ContentID:   contentID,
		ContentType: contentType,
		AddedAt:     s.now().UnixMilli(),
	}
	data, err := docstore.Encode(entry)
	if err != nil {
		return domain.Failed(err)
	}
	if err := s.store.Set(ctx, docstore.CollectionWatchlist, key.DocID(), data, false); err != nil {
		s.logger.Error("failed to add to watchlist", "docID", key.DocID(), "error", err)
		return domain.Failed(err)
	}
	return domain.Succeeded(key.DocID())
}

func (s *Service) Remove(ctx context.Context, contentID string) domain.Result {
	key, err := keyFor(ctx, contentID)
	if err != nil {
		return domain.Failed(err)
	}
	if err := s.store.Delete(ctx, docstore.CollectionWatchlist, key.DocID()); err != nil {
		s.logger.Error("failed to remove from watchlist", "docID", key.DocID(), "error", err)
		return domain.Failed(err)
	}
	return domain.Succeeded(key.DocID())
}

// Contains reports whether the current profile saved the title
func (s *Service) Contains(ctx context.Context, contentID string) (bool, error) {
	key, err := keyFor(ctx, contentID)
	if err != nil {
		return false, err
	}
	_, err = s.store.Get(ctx, docstore.CollectionWatchlist, key.DocID())
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check watchlist: %w", err)
	}
	return true, nil
}

// List returns the profile's watchlist, most recently added first
func (s *Service) List(ctx context.Context) ([]Item, error) {
	key, err := keyFor(ctx, "")
	if err != nil {
		return nil, err
	}
	docs, err := s.store.Find(ctx, docstore.Collection(docstore.CollectionWatchlist).
		Where("userId", docstore.OpEqual, key.UserID).
		Where("profileId", docstore.OpEqual, key.ProfileID).
		OrderBy("addedAt", docstore.Desc))
	if err != nil {
		s.logger.Error("failed to fetch watchlist", "userID", key.UserID, "error", err)
		return []Item{}, fmt.Errorf("failed to fetch watchlist: %w", err)
	}

	entries, _ := docstore.DecodeAll[domain.WatchlistEntry](docs)
	items := make([]Item, 0, len(entries))
	for _, e := range entries {
		c, err := s.content.ContentByID(ctx, e.ContentID, e.ContentType)
		if err != nil {
			s.logger.Debug("skipping watchlist entry", "contentID", e.ContentID, "error", err)
			continue
		}
		items = append(items, Item{Entry: *e, Content: c})
	}
	return items, nil
}
