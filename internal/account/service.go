// Package account handles sign-up, sign-in, profiles and subscriptions.
package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/GerlachSG/Cruciflix/internal/docstore"
	"github.com/GerlachSG/Cruciflix/internal/domain"
)

// MinPasswordLength is the shortest accepted password
const MinPasswordLength = 6

// credential is stored under credentials/{email}
type credential struct {
	UID          string `json:"uid"`
	PasswordHash string `json:"passwordHash"`
}

// Service manages accounts stored in the document database
type Service struct {
	store    docstore.Store
	tokens   *Tokens
	mailer   Mailer
	resetURL string
	cost     int
	logger   *slog.Logger
	now      func() time.Time
}

type Option func(*Service)

// WithResetURL sets the page password reset links point at
func WithResetURL(u string) Option {
	return func(s *Service) { s.resetURL = u }
}

// WithBcryptCost overrides the hashing cost
func WithBcryptCost(cost int) Option {
	return func(s *Service) { s.cost = cost }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
		s.tokens.now = now
	}
}

func NewService(store docstore.Store, tokens *Tokens, mailer Mailer, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if mailer == nil {
		mailer = NewLogMailer(logger)
	}
	s := &Service{
		store:    store,
		tokens:   tokens,
		mailer:   mailer,
		resetURL: "http://localhost:8080/reset-password",
		cost:     bcrypt.DefaultCost,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Tokens returns the token signer used for sessions
func (s *Service) Tokens() *Tokens {
	return s.tokens
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates the credentials, user document and a default profile
func (s *Service) Register(ctx context.Context, email, password, displayName string) (*domain.User, error) {
	email = normalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: a valid email is required", domain.ErrValidation)
	}
	if len(password) < MinPasswordLength {
		return nil, fmt.Errorf("%w: password must have at least %d characters", domain.ErrValidation, MinPasswordLength)
	}

	_, err := s.store.Get(ctx, docstore.CollectionCredentials, email)
	switch {
	case err == nil:
		return nil, domain.ErrEmailTaken
	case !errors.Is(err, domain.ErrNotFound):
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	uid := docstore.NewID()
	now := s.now().UnixMilli()
	if displayName == "" {
		displayName = strings.SplitN(email, "@", 2)[0]
	}

	credData, err := docstore.Encode(credential{UID: uid, PasswordHash: string(hash)})
	if err != nil {
		return nil, err
	}
	if err := s.store.Set(ctx, docstore.CollectionCredentials, email, credData, false); err != nil {
		return nil, fmt.Errorf("failed to store credentials: %w", err)
	}

	user := domain.User{
		ID:           uid,
		UID:          uid,
		Email:        email,
		DisplayName:  displayName,
		Role:         domain.RoleUser,
		Subscription: domain.Subscription{Plan: domain.PlanFree, StartDate: now},
		CreatedAt:    now,
	}
	userData, err := docstore.Encode(user)
	if err != nil {
		return nil, err
	}
	if err := s.store.Set(ctx, docstore.CollectionUsers, uid, userData, false); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if _, err := s.addProfile(ctx, uid, domain.Profile{Name: displayName, Avatar: domain.Avatars[0].URL}); err != nil {
		s.logger.Error("failed to create default profile", "userID", uid, "error", err)
		return nil, err
	}

	s.logger.Info("registered user", "userID", uid)
	return &user, nil
}

// Login verifies the password and returns a session token with the user
func (s *Service) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	email = normalizeEmail(email)
	doc, err := s.store.Get(ctx, docstore.CollectionCredentials, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword([]byte("$2a$10$dummy"), []byte(password))
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("failed to load credentials: %w", err)
	}
	cred, err := docstore.Decode[credential](doc)
	if err != nil {
		return "", nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)); err != nil {
		return "", nil, domain.ErrInvalidCredentials
	}

	user, err := s.User(ctx, cred.UID)
	if err != nil {
		return "", nil, err
	}
	token, err := s.tokens.Issue(user.ID, user.Email, user.Role)
	if err != nil {
		return "", nil, err
	}
	s.logger.Info("user logged in", "userID", user.ID)
	return token, user, nil
}

// Logout ends the session
func (s *Service) Logout(session *Session) {
	if session == nil {
		return
	}
	if u := session.User(); u != nil {
		s.logger.Info("user logged out", "userID", u.ID)
	}
	session.Clear()
}

// Authenticate resolves a session token to its claims
func (s *Service) Authenticate(token string) (*Claims, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, domain.ErrNotAuthenticated
	}
	return claims, nil
}

// User loads a user document
func (s *Service) User(ctx context.Context, uid string) (*domain.User, error) {
	doc, err := s.store.Get(ctx, docstore.CollectionUsers, uid)
	if err != nil {
		return nil, fmt.Errorf("failed to load user %s: %w", uid, err)
	}
	return docstore.Decode[domain.User](doc)
}

// ResetPassword mails a reset link. Unknown addresses succeed silently.
func (s *Service) ResetPassword(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	doc, err := s.store.Get(ctx, docstore.CollectionCredentials, email)
	if errors.Is(err, domain.ErrNotFound) {
		s.logger.Debug("password reset for unknown email")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load credentials: %w", err)
	}
	cred, err := docstore.Decode[credential](doc)
	if err != nil {
		return err
	}

	token, err := s.tokens.sign(cred.UID, email, "", purposeReset, ResetTokenTTL)
	if err != nil {
		return err
	}
	link := s.resetURL + "?token=" + url.QueryEscape(token)
	if err := s.mailer.SendPasswordReset(ctx, email, link); err != nil {
		s.logger.Error("failed to send password reset", "error", err)
		return err
	}
	return nil
}

// ConfirmPasswordReset sets a new password using a token from ResetPassword
func (s *Service) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	claims, err := s.tokens.parse(token, purposeReset)
	if err != nil {
		return domain.ErrNotAuthenticated
	}
	if len(newPassword) < MinPasswordLength {
		return fmt.Errorf("%w: password must have at least %d characters", domain.ErrValidation, MinPasswordLength)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	err = s.store.Update(ctx, docstore.CollectionCredentials, claims.Email, map[string]any{"passwordHash": string(hash)})
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// UpdateUserProfile changes the signed-in user's display name
func (s *Service) UpdateUserProfile(ctx context.Context, displayName string) domain.Result {
	actor, ok := domain.ActorFromContext(ctx)
	if !ok {
		return domain.Failed(domain.ErrNotAuthenticated)
	}
	if strings.TrimSpace(displayName) == "" {
		return domain.Failed(fmt.Errorf("%w: display name is required", domain.ErrValidation))
	}
	err := s.store.Update(ctx, docstore.CollectionUsers, actor.UserID, map[string]any{
		"displayName": displayName,
		"updatedAt":   s.now().UnixMilli(),
	})
	if err != nil {
		s.logger.Error("failed to update user profile", "userID", actor.UserID, "error", err)
		return domain.Failed(err)
	}
	return domain.Succeeded(actor.UserID)
}
