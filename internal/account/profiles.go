package account

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/GerlachSG/Cruciflix/internal/docstore"
	"github.com/GerlachSG/Cruciflix/internal/domain"
)

func profilesOf(uid string) string {
	return docstore.SubCollection(docstore.CollectionUsers, uid, "profiles")
}

// Profiles lists the caller's profiles, oldest first
func (s *Service) Profiles(ctx context.Context) ([]*domain.Profile, error) {
	actor, ok := domain.ActorFromContext(ctx)
	if !ok {
		return nil, domain.ErrNotAuthenticated
	}
	return s.profiles(ctx, actor.UserID)
}

func (s *Service) profiles(ctx context.Context, uid string) ([]*domain.Profile, error) {
	docs, err := s.store.Find(ctx, docstore.Collection(profilesOf(uid)).
		OrderBy("createdAt", docstore.Asc))
	if err != nil {
		s.logger.Error("failed to fetch profiles", "userID", uid, "error", err)
		return []*domain.Profile{}, fmt.Errorf("failed to fetch profiles: %w", err)
	}
	profiles, _ := docstore.DecodeAll[domain.Profile](docs)
	return profiles, nil
}

// CreateProfile adds a profile unless the account is at MaxProfiles
func (s *Service) CreateProfile(ctx context.Context, p domain.Profile) domain.Result {
	actor, ok := domain.ActorFromContext(ctx)
	if !ok {
		return domain.Failed(domain.ErrNotAuthenticated)
	}
	if strings.TrimSpace(p.Name) == "" {
		return domain.Failed(fmt.Errorf("%w: profile name is required", domain.ErrValidation))
	}
	existing, err := s.profiles(ctx, actor.UserID)
	if err != nil {
		return domain.Failed(err)
	}
	if len(existing) >= domain.MaxProfiles {
		return domain.Failed(domain.ErrProfileLimit)
	}
	if p.Avatar == "" {
		p.Avatar = domain.Avatars[0].URL
	}
	id, err := s.addProfile(ctx, actor.UserID, p)
	if err != nil {
		return domain.Failed(err)
	}
	return domain.Succeeded(id)
}

func (s *Service) addProfile(ctx context.Context, uid string, p domain.Profile) (string, error) {
	p.CreatedAt = s.now().UnixMilli()
	data, err := docstore.Encode(p)
	if err != nil {
		return "", err
	}
	id, err := s.store.Add(ctx, profilesOf(uid), data)
	if err != nil {
		return "", fmt.Errorf("failed to create profile: %w", err)
	}
	return id, nil
}

// UpdateProfile merges fields into one of the caller's profiles
func (s *Service) UpdateProfile(ctx context.Context, id string, fields domain.Fields) domain.Result {
	actor, ok := domain.ActorFromContext(ctx)
	if !ok {
		return domain.Failed(domain.ErrNotAuthenticated)
	}
	data := make(map[string]any, len(fields))
	for k, v := range fields {
		if k != "id" {
			data[k] = v
		}
	}
	if err := s.store.Update(ctx, profilesOf(actor.UserID), id, data); err != nil {
		s.logger.Error("failed to update profile", "profileID", id, "error", err)
		return domain.Failed(err)
	}
	return domain.Succeeded(id)
}

// DeleteProfile removes a profile. The last remaining profile is kept.
func (s *Service) DeleteProfile(ctx context.Context, id string) domain.Result {
	actor, ok := domain.ActorFromContext(ctx)
	if !ok {
		return domain.Failed(domain.ErrNotAuthenticated)
	}
	existing, err := s.profiles(ctx, actor.UserID)
	if err != nil {
		return domain.Failed(err)
	}
	if len(existing) <= 1 {
		return domain.Failed(domain.ErrLastProfile)
	}
	if err := s.store.Delete(ctx, profilesOf(actor.UserID), id); err != nil {
		s.logger.Error("failed to delete profile", "profileID", id, "error", err)
		return domain.Failed(err)
	}
	return domain.Succeeded(id)
}

// Profile loads one of the caller's profiles
func (s *Service) Profile(ctx context.Context, id string) (*domain.Profile, error) {
	actor, ok := domain.ActorFromContext(ctx)
	if !ok {
		return nil, domain.ErrNotAuthenticated
	}
	doc, err := s.store.Get(ctx, profilesOf(actor.UserID), id)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile %s: %w", id, err)
	}
	return docstore.Decode[domain.Profile](doc)
}

// VerifyKidsPIN compares pin with the profile's stored PIN.
// Any failure to load the profile reports false.
func (s *Service) VerifyKidsPIN(ctx context.Context, profileID, pin string) bool {
	p, err := s.Profile(ctx, profileID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) && !errors.Is(err, domain.ErrNotAuthenticated) {
			s.logger.Error("failed to verify PIN", "profileID", profileID, "error", err)
		}
		return false
	}
	return p.PIN == pin
}

// AvatarsFor returns the selectable avatars; kids profiles get the kids set
func AvatarsFor(kids bool) []domain.Avatar {
	if !kids {
		return domain.Avatars
	}
	out := make([]domain.Avatar, 0, len(domain.Avatars))
	for _, a := range domain.Avatars {
		if strings.HasPrefix(a.ID, "kids") {
			out = append(out, a)
		}
	}
	return out
}
