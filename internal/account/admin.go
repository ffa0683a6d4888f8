package account

import (
	"context"
	"errors"
	"fmt"

	"github.com/GerlachSG/Cruciflix/internal/docstore"
	"github.com/GerlachSG/Cruciflix/internal/domain"
)

// IsAdmin reports whether the user holds the admin role. A missing user is
// not an admin; any other read failure yields ErrRoleUnknown.
func (s *Service) IsAdmin(ctx context.Context, uid string) (bool, error) {
	user, err := s.User(ctx, uid)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		s.logger.Error("failed to check admin role", "userID", uid, "error", err)
		return false, fmt.Errorf("%w: %v", domain.ErrRoleUnknown, err)
	}
	return user.IsAdmin(), nil
}

// RequireAdmin fails unless the caller is a confirmed admin
func (s *Service) RequireAdmin(ctx context.Context) error {
	actor, ok := domain.ActorFromContext(ctx)
	if !ok {
		return domain.ErrNotAuthenticated
	}
	admin, err := s.IsAdmin(ctx, actor.UserID)
	if err != nil {
		return err
	}
	if !admin {
		return domain.ErrForbidden
	}
	return nil
}

// Users lists every account, newest first
func (s *Service) Users(ctx context.Context) ([]*domain.User, error) {
	if err := s.RequireAdmin(ctx); err != nil {
		return nil, err
	}
	docs, err := s.store.Find(ctx, docstore.Collection(docstore.CollectionUsers).
		OrderBy("createdAt", docstore.Desc))
	if err != nil {
		s.logger.Error("failed to fetch users", "error", err)
		return []*domain.User{}, fmt.Errorf("failed to fetch users: %w", err)
	}
	users, _ := docstore.DecodeAll[domain.User](docs)
	return users, nil
}

// ToggleRole flips a user between admin and user
func (s *Service) ToggleRole(ctx context.Context, uid string) domain.Result {
	if err := s.RequireAdmin(ctx); err != nil {
		return domain.Failed(err)
	}
	user, err := s.User(ctx, uid)
	if err != nil {
		return domain.Failed(err)
	}
	role := domain.RoleAdmin
	if user.IsAdmin() {
		role = domain.RoleUser
	}
	if err := s.store.Update(ctx, docstore.CollectionUsers, uid, map[string]any{"role": role}); err != nil {
		s.logger.Error("failed to toggle role", "userID", uid, "error", err)
		return domain.Failed(err)
	}
	s.logger.Info("changed user role", "userID", uid, "role", role)
	return domain.Succeeded(uid)
}

// DeleteUser removes the user document and its credentials
func (s *Service) DeleteUser(ctx context.Context, uid string) domain.Result {
	if err := s.RequireAdmin(ctx); err != nil {
		return domain.Failed(err)
	}
	user, err := s.User(ctx, uid)
	if err != nil {
		return domain.Failed(err)
	}
	profiles, err := s.profiles(ctx, uid)
	if err != nil {
		return domain.Failed(err)
	}

	refs := []docstore.Ref{
		{Collection: docstore.CollectionCredentials, ID: normalizeEmail(user.Email)},
		{Collection: docstore.CollectionUsers, ID: uid},
	}
	for _, p := range profiles {
		refs = append(refs, docstore.Ref{Collection: profilesOf(uid), ID: p.ID})
	}
	if err := s.store.DeleteBatch(ctx, refs); err != nil {
		s.logger.Error("failed to delete user", "userID", uid, "error", err)
		return domain.Failed(err)
	}
	return domain.Succeeded(uid)
}
