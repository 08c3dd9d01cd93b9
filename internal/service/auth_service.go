package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/stemsi/rollbook/internal/config"
	"github.com/stemsi/rollbook/internal/identity"
	"github.com/stemsi/rollbook/internal/session"
)

// Common auth errors.
var (
	ErrInvalidCredentials = identity.ErrInvalidCredentials
	ErrNoSession          = errors.New("no active session")
	ErrSessionInvalidated = errors.New("session invalidated")
)

// IdentityProvider authenticates teachers.
type IdentityProvider interface {
	SignInWithPassword(ctx context.Context, email, password string) (*identity.Teacher, error)
	VerifyIDToken(ctx context.Context, idToken string) (*identity.Teacher, error)
}

// Claims extends JWT standard claims with the teacher's profile.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// LoginResult is returned to the client after a successful sign-in.
type LoginResult struct {
	Token     string           `json:"token"`
	ExpiresAt time.Time        `json:"expires_at"`
	Teacher   identity.Teacher `json:"teacher"`
}

// AuthService handles sign-in, JWT issuing and session tracking.
type AuthService struct {
	cfg      *config.Config
	identity IdentityProvider
	sessions session.Store
	now      func() time.Time
}

// NewAuthService creates a new AuthService.
func NewAuthService(cfg *config.Config, idp IdentityProvider, sessions session.Store) *AuthService {
	return &AuthService{cfg: cfg, identity: idp, sessions: sessions, now: time.Now}
}

// Login signs in with email and password.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	teacher, err := s.identity.SignInWithPassword(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return s.issue(ctx, teacher)
}

// LoginWithIDToken signs in with an ID token obtained by the browser (Google).
func (s *AuthService) LoginWithIDToken(ctx context.Context, idToken string) (*LoginResult, error) {
	teacher, err := s.identity.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, err
	}
	return s.issue(ctx, teacher)
}

// issue signs a token and makes it the teacher's only live session. A login
// from another device replaces the previous session.
func (s *AuthService) issue(ctx context.Context, teacher *identity.Teacher) (*LoginResult, error) {
	jti := uuid.New().String()
	now := s.now()
	expires := now.Add(s.cfg.JWTExpiry)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   teacher.UID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
		Email: teacher.Email,
		Name:  teacher.DisplayName,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	if err := s.sessions.Set(ctx, teacher.UID, jti, s.cfg.JWTExpiry); err != nil {
		return nil, err
	}

	return &LoginResult{Token: signed, ExpiresAt: expires, Teacher: *teacher}, nil
}

// ValidateToken parses and validates a JWT, returning the claims.
func (s *AuthService) ValidateToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

// ValidateSession checks that the token's JTI is the teacher's live session.
func (s *AuthService) ValidateSession(ctx context.Context, uid, jti string) error {
	stored, err := s.sessions.Get(ctx, uid)
	if errors.Is(err, session.ErrNotFound) {
		return ErrNoSession
	}
	if err != nil {
		return fmt.Errorf("check session: %w", err)
	}
	if stored != jti {
		return ErrSessionInvalidated
	}
	return nil
}

// Logout ends the teacher's session.
func (s *AuthService) Logout(ctx context.Context, uid string) error {
	return s.sessions.Delete(ctx, uid)
}
