package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/example/team-calendar/internal/persistence"
)

// UserStore captures the persistence interactions for accounts.
type UserStore interface {
	CreateUser(ctx context.Context, user persistence.User) error
	GetUser(ctx context.Context, id string) (persistence.User, error)
	GetUserByEmail(ctx context.Context, email string) (persistence.User, error)
	ListUsers(ctx context.Context) ([]persistence.User, error)
}

// CreateUserParams carries the fields for a new account. Password is
// optional; accounts without one authenticate by email alone.
type CreateUserParams struct {
	Name     string
	Email    string
	Role     Role
	Password string
}

// PasswordHasher turns a plain password into a stored hash.
type PasswordHasher func(password string) (string, error)

// UserService exposes the account directory. Accounts are created by seed
// tooling rather than a request flow, so Create takes no principal.
type UserService struct {
	users        UserStore
	hashPassword PasswordHasher
	now          func() time.Time
	idGenerator  func() string
	logger       *slog.Logger
}

// NewUserService wires dependencies for the user service.
func NewUserService(users UserStore, hashPassword PasswordHasher, now func() time.Time, idGenerator func() string, logger *slog.Logger) *UserService {
	if hashPassword == nil {
		hashPassword = func(password string) (string, error) {
			return CreatePasswordHash(password, DefaultArgon2idParams)
		}
	}
	if now == nil {
		now = time.Now
	}
	return &UserService{
		users:        users,
		hashPassword: hashPassword,
		now:          now,
		idGenerator:  idGenerator,
		logger:       defaultLogger(logger),
	}
}

func (s *UserService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "UserService", operation, attrs...)
}

// List returns every account ordered by name.
func (s *UserService) List(ctx context.Context, principal Principal) ([]User, error) {
	if s == nil || s.users == nil {
		return nil, fmt.Errorf("user service not configured")
	}

	if err := requireIdentity(principal); err != nil {
		return nil, err
	}

	records, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, storageFailure("user listing", err)
	}

	users := make([]User, 0, len(records))
	for _, record := range records {
		users = append(users, toUser(record))
	}
	return users, nil
}

// Create stores a new account. Duplicate emails map to ErrConflict.
func (s *UserService) Create(ctx context.Context, params CreateUserParams) (user User, err error) {
	if s == nil || s.users == nil || s.idGenerator == nil {
		return User{}, fmt.Errorf("user service not configured")
	}

	logger := s.loggerWith(ctx, "Create", "email", params.Email)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "user create failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "user created", "user_id", user.ID)
	}()

	params.Name = strings.TrimSpace(params.Name)
	params.Email = strings.ToLower(strings.TrimSpace(params.Email))
	if params.Role == "" {
		params.Role = RoleUser
	}

	if vErr := validateCreateUser(params); vErr.HasErrors() {
		err = vErr
		return User{}, err
	}

	var passwordHash *string
	if params.Password != "" {
		hash, hashErr := s.hashPassword(params.Password)
		if hashErr != nil {
			err = fmt.Errorf("hash password: %w", hashErr)
			return User{}, err
		}
		passwordHash = &hash
	}

	now := s.now()
	record := persistence.User{
		ID:           s.idGenerator(),
		Name:         params.Name,
		Email:        params.Email,
		Role:         string(params.Role),
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if createErr := s.users.CreateUser(ctx, record); createErr != nil {
		if errors.Is(createErr, persistence.ErrDuplicate) {
			err = ErrConflict
			return User{}, err
		}
		err = storageFailure("user create", createErr)
		return User{}, err
	}

	return toUser(record), nil
}

func validateCreateUser(params CreateUserParams) *ValidationError {
	vErr := &ValidationError{}
	if params.Name == "" {
		vErr.add("name", "name is required")
	}
	if params.Email == "" {
		vErr.add("email", "email is required")
	} else if _, parseErr := mail.ParseAddress(params.Email); parseErr != nil {
		vErr.add("email", "email is not a valid address")
	}
	if !params.Role.Valid() {
		vErr.add("role", "role must be one of ADMIN, USER")
	}
	return vErr
}
