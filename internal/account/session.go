package account

import (
	"context"
	"sync"

	"github.com/GerlachSG/Cruciflix/internal/domain"
)

// Session holds the signed-in user and the selected profile for one client
type Session struct {
	mu      sync.RWMutex
	token   string
	user    *domain.User
	profile *domain.Profile
}

func NewSession() *Session {
	return &Session{}
}

// SignIn replaces the session user and clears the selected profile
func (s *Session) SignIn(token string, user *domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.user = user
	s.profile = nil
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) User() *domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// SelectProfile sets the current profile
func (s *Session) SelectProfile(p *domain.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = p
}

func (s *Session) Profile() *domain.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile
}

// ClearProfile returns to the profile picker
func (s *Session) ClearProfile() {
	s.SelectProfile(nil)
}

// Clear signs out
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.user = nil
	s.profile = nil
}

// Context attaches the session's actor to ctx. Without a user ctx is returned
// unchanged.
func (s *Session) Context(ctx context.Context) context.Context {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return ctx
	}
	actor := domain.Actor{UserID: s.user.ID, Email: s.user.Email}
	if s.profile != nil {
		actor.ProfileID = s.profile.ID
	}
	return domain.ContextWithActor(ctx, actor)
}
