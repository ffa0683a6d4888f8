package account

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token purposes
const (
	purposeSession = "session"
	purposeReset   = "reset"
)

// ResetTokenTTL bounds how long a password reset link stays valid
const ResetTokenTTL = time.Hour

// Claims identify the bearer of a token
type Claims struct {
	UserID string
	Email  string
	Role   string
}

type jwtClaims struct {
	UserID  string `json:"uid"`
	Email   string `json:"email"`
	Role    string `json:"role"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// Tokens signs and verifies HS256 tokens
type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokens(secret string, ttl time.Duration) *Tokens {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Tokens{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue creates a session token for the user
func (t *Tokens) Issue(userID, email, role string) (string, error) {
	return t.sign(userID, email, role, purposeSession, t.ttl)
}

// Parse validates a session token
func (t *Tokens) Parse(token string) (*Claims, error) {
	return t.parse(token, purposeSession)
}

func (t *Tokens) sign(userID, email, role, purpose string, ttl time.Duration) (string, error) {
	now := t.now()
	claims := jwtClaims{
		UserID:  userID,
		Email:   email,
		Role:    role,
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (t *Tokens) parse(token, purpose string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwtClaims{}, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	c, ok := parsed.Claims.(*jwtClaims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}
	if c.Purpose != purpose {
		return nil, fmt.Errorf("token is not a %s token", purpose)
	}
	return &Claims{UserID: c.UserID, Email: c.Email, Role: c.Role}, nil
}
