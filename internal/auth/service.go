package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/timmy/thumblify/internal/domain"
	"github.com/timmy/thumblify/internal/logger"
	"github.com/timmy/thumblify/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrEmailTaken is returned when registering an email that already exists.
	ErrEmailTaken = errors.New("user already exists")

	// ErrInvalidCredentials is returned on a failed login. The same error
	// covers unknown email and wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrInvalidSession is returned when a session token is missing, unknown,
	// or expired.
	ErrInvalidSession = errors.New("invalid or expired session")
)

// Service implements registration, login, and session resolution.
type Service struct {
	users      *repository.UserRepository
	sessions   *repository.SessionRepository
	sessionTTL time.Duration
}

// NewService creates an auth service backed by the given repositories.
func NewService(users *repository.UserRepository, sessions *repository.SessionRepository, sessionTTL time.Duration) *Service {
	if sessionTTL <= 0 {
		sessionTTL = 7 * 24 * time.Hour
	}
	return &Service{
		users:      users,
		sessions:   sessions,
		sessionTTL: sessionTTL,
	}
}

// Register creates a new user account and an initial session.
func (s *Service) Register(ctx context.Context, name, email, password string) (*domain.User, *domain.Session, error) {
	if name == "" || email == "" || password == "" {
		return nil, nil, errors.New("name, email and password are required")
	}

	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if exists {
		return nil, nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		ID:           uuid.New().String(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, nil, fmt.Errorf("failed to create user: %w", err)
	}

	session, err := s.createSession(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}

	logger.CtxInfo(ctx, "User registered: user_id=%s", user.ID)
	return user, session, nil
}

// Login verifies credentials and creates a new session.
func (s *Service) Login(ctx context.Context, email, password string) (*domain.User, *domain.Session, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	session, err := s.createSession(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}

	logger.CtxInfo(ctx, "User logged in: user_id=%s", user.ID)
	return user, session, nil
}

// Logout deletes the session for the given token. Unknown tokens are ignored.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.sessions.Delete(ctx, token)
}

// Resolve maps a session token to the CurrentUser capability. Expired
// sessions are deleted opportunistically.
func (s *Service) Resolve(ctx context.Context, token string) (CurrentUser, error) {
	if token == "" {
		return CurrentUser{}, ErrInvalidSession
	}

	session, err := s.sessions.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return CurrentUser{}, ErrInvalidSession
		}
		return CurrentUser{}, fmt.Errorf("failed to look up session: %w", err)
	}

	if session.Expired(time.Now()) {
		_ = s.sessions.Delete(ctx, token)
		return CurrentUser{}, ErrInvalidSession
	}

	return CurrentUser{ID: session.UserID}, nil
}

// GetUser returns the account backing a capability.
func (s *Service) GetUser(ctx context.Context, user CurrentUser) (*domain.User, error) {
	return s.users.GetByID(ctx, user.ID)
}

// PurgeExpired deletes all sessions past their expiry. Resolve already drops
// expired sessions it touches; this sweeps the ones nobody presents again.
func (s *Service) PurgeExpired(ctx context.Context) error {
	return s.sessions.DeleteExpired(ctx, time.Now())
}

// SessionTTL returns the configured session lifetime; the HTTP layer uses it
// for cookie expiry.
func (s *Service) SessionTTL() time.Duration {
	return s.sessionTTL
}

func (s *Service) createSession(ctx context.Context, userID string) (*domain.Session, error) {
	session := &domain.Session{
		Token:     uuid.New().String(),
		UserID:    userID,
		ExpiresAt: time.Now().Add(s.sessionTTL),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}
