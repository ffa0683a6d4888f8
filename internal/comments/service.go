// Package comments stores viewer comments and their moderation state.
package comments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/GerlachSG/Cruciflix/internal/docstore"
	"github.com/GerlachSG/Cruciflix/internal/domain"
)

type Service struct {
	store  docstore.Store
	logger *slog.Logger
	now    func() time.Time
}

func NewService(store docstore.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger, now: time.Now}
}

// Add posts a comment by the current user. New comments wait for approval.
func (s *Service) Add(ctx context.Context, videoID, text string) domain.Result {
	actor, ok := domain.ActorFromContext(ctx)
	if !ok {
		return domain.Failed(domain.ErrNotAuthenticated)
	}
	if strings.TrimSpace(text) == "" {
		return domain.Failed(fmt.Errorf("%w: comment text is required", domain.ErrValidation))
	}

	c := domain.Comment{
		VideoID:    videoID,
		UserID:     actor.UserID,
		UserName:   s.displayName(ctx, actor),
		Text:       text,
		IsApproved: false,
		CreatedAt:  s.now().UnixMilli(),
	}
	data, err := docstore.Encode(c)
	if err != nil {
		return domain.Failed(err)
	}
	id, err := s.store.Add(ctx, docstore.CollectionComments, data)
	if err != nil {
		s.logger.Error("failed to add comment", "videoID", videoID, "error", err)
		return domain.Failed(err)
	}
	return domain.Succeeded(id)
}

func (s *Service) displayName(ctx context.Context, actor domain.Actor) string {
	doc, err := s.store.Get(ctx, docstore.CollectionUsers, actor.UserID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Warn("failed to load commenter", "userID", actor.UserID, "error", err)
		}
		return actor.Email
	}
	if name, ok := doc.Data["displayName"].(string); ok && name != "" {
		return name
	}
	return actor.Email
}

// ForVideo returns the approved comments on a video, newest first
func (s *Service) ForVideo(ctx context.Context, videoID string) ([]*domain.Comment, error) {
	return s.find(ctx, docstore.Collection(docstore.CollectionComments).
		Where("videoId", docstore.OpEqual, videoID).
		Where("approved", docstore.OpEqual, true).
		OrderBy("createdAt", docstore.Desc))
}

// All returns every comment for moderation, newest first
func (s *Service) All(ctx context.Context) ([]*domain.Comment, error) {
	return s.find(ctx, docstore.Collection(docstore.CollectionComments).
		OrderBy("createdAt", docstore.Desc))
}

// PendingCount counts comments awaiting approval
func (s *Service) PendingCount(ctx context.Context) (int, error) {
	docs, err := s.store.Find(ctx, docstore.Collection(docstore.CollectionComments).
		Where("approved", docstore.OpEqual, false))
	if err != nil {
		return 0, fmt.Errorf("failed to count pending comments: %w", err)
	}
	return len(docs), nil
}

func (s *Service) Approve(ctx context.Context, id string) domain.Result {
	if err := s.store.Update(ctx, docstore.CollectionComments, id, map[string]any{"approved": true}); err != nil {
		s.logger.Error("failed to approve comment", "commentID", id, "error", err)
		return domain.Failed(err)
	}
	return domain.Succeeded(id)
}

func (s *Service) Delete(ctx context.Context, id string) domain.Result {
	if err := s.store.Delete(ctx, docstore.CollectionComments, id); err != nil {
		s.logger.Error("failed to delete comment", "commentID", id, "error", err)
		return domain.Failed(err)
	}
	return domain.Succeeded(id)
}

func (s *Service) find(ctx context.Context, q docstore.Query) ([]*domain.Comment, error) {
	docs, err := s.store.Find(ctx, q)
	if err != nil {
		s.logger.Error("failed to fetch comments", "error", err)
		return []*domain.Comment{}, fmt.Errorf("failed to fetch comments: %w", err)
	}
	comments, skipped := docstore.DecodeAll[domain.Comment](docs)
	if len(skipped) > 0 {
		s.logger.Warn("skipped malformed comments", "ids", skipped)
	}
	return comments, nil
}
