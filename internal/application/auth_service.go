package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/team-calendar/internal/persistence"
)

// UserDirectory exposes the user lookups required for identity resolution.
type UserDirectory interface {
	GetUser(ctx context.Context, id string) (persistence.User, error)
	GetUserByEmail(ctx context.Context, email string) (persistence.User, error)
}

// PasswordVerifier compares a stored hash with a candidate password.
type PasswordVerifier func(hashedPassword, password string) error

// LoginParams captures the data required to establish a session.
type LoginParams struct {
	Email    string
	Password string
}

// LoginResult captures the outcome of a successful login.
type LoginResult struct {
	User      User
	Token     string
	ExpiresAt time.Time
}

// AuthService resolves identities from session tokens and issues new ones.
// It is the single place that knows how a token maps to a user.
type AuthService struct {
	users          UserDirectory
	codec          TokenCodec
	verifyPassword PasswordVerifier
	now            func() time.Time
	ttl            time.Duration
	logger         *slog.Logger
}

// NewAuthService wires dependencies for the auth service.
func NewAuthService(users UserDirectory, codec TokenCodec, verify PasswordVerifier, now func() time.Time, ttl time.Duration, logger *slog.Logger) *AuthService {
	if verify == nil {
		verify = VerifyPassword
	}
	if now == nil {
		now = time.Now
	}
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &AuthService{
		users:          users,
		codec:          codec,
		verifyPassword: verify,
		now:            now,
		ttl:            ttl,
		logger:         defaultLogger(logger),
	}
}

// TTL returns the configured session lifetime.
func (s *AuthService) TTL() time.Duration {
	if s == nil {
		return 0
	}
	return s.ttl
}

func (s *AuthService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AuthService", operation, attrs...)
}

// Login resolves the email to a user and issues a session token. Accounts
// that carry a password hash must present the matching password; accounts
// without one authenticate by email alone.
func (s *AuthService) Login(ctx context.Context, params LoginParams) (result LoginResult, err error) {
	if s == nil || s.users == nil || s.codec == nil {
		err = fmt.Errorf("auth service not configured")
		return
	}

	email := strings.TrimSpace(strings.ToLower(params.Email))
	logger := s.loggerWith(ctx, "Login", "email", email)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "login failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("user_id", result.User.ID, "role", result.User.Role).InfoContext(ctx, "login succeeded")
	}()

	if email == "" {
		vErr := &ValidationError{}
		vErr.add("email", "email is required")
		err = vErr
		return
	}

	record, lookupErr := s.users.GetUserByEmail(ctx, email)
	if lookupErr != nil {
		if errors.Is(lookupErr, persistence.ErrNotFound) {
			err = ErrNotFound
			return
		}
		err = storageFailure("user lookup", lookupErr)
		return
	}

	if record.PasswordHash != nil {
		if verifyErr := s.verifyPassword(*record.PasswordHash, params.Password); verifyErr != nil {
			err = ErrInvalidCredentials
			return
		}
	}

	now := s.now()
	token, encodeErr := s.codec.Encode(record.ID, now)
	if encodeErr != nil {
		err = fmt.Errorf("failed to issue session token: %w", encodeErr)
		return
	}

	result = LoginResult{User: toUser(record), Token: token, ExpiresAt: now.Add(s.ttl)}
	return
}

// CurrentUser resolves a session token to its user. A missing, invalid, or
// expired token, or a token for a user that no longer exists, resolves to
// (nil, nil): not logged in is not an error. A persistence failure is
// surfaced as a *StorageError so callers can tell the two apart.
func (s *AuthService) CurrentUser(ctx context.Context, token string) (*User, error) {
	if s == nil || s.users == nil || s.codec == nil {
		return nil, fmt.Errorf("auth service not configured")
	}

	userID, ok := s.codec.Decode(strings.TrimSpace(token), s.now())
	if !ok {
		return nil, nil
	}

	record, err := s.users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return nil, nil
		}
		s.loggerWith(ctx, "CurrentUser", "user_id", userID).
			ErrorContext(ctx, "identity lookup failed", "error", err)
		return nil, storageFailure("identity resolution", err)
	}

	user := toUser(record)
	return &user, nil
}

// RequireAuth resolves the token and fails with ErrUnauthorized when no
// identity is present. Storage failures propagate unchanged.
func (s *AuthService) RequireAuth(ctx context.Context, token string) (User, error) {
	user, err := s.CurrentUser(ctx, token)
	if err != nil {
		return User{}, err
	}
	if user == nil {
		return User{}, ErrUnauthorized
	}
	return *user, nil
}

// RequireAdmin resolves the token and fails with ErrForbidden when the
// identity does not hold the administrator role.
func (s *AuthService) RequireAdmin(ctx context.Context, token string) (User, error) {
	user, err := s.RequireAuth(ctx, token)
	if err != nil {
		return User{}, err
	}
	if !user.IsAdmin() {
		return User{}, ErrForbidden
	}
	return user, nil
}

// ValidateSession verifies the token and returns the principal it belongs
// to. The session middleware calls this once per request.
func (s *AuthService) ValidateSession(ctx context.Context, token string) (Principal, error) {
	user, err := s.RequireAuth(ctx, token)
	if err != nil {
		return Principal{}, err
	}
	return Principal{UserID: user.ID, IsAdmin: user.IsAdmin()}, nil
}
