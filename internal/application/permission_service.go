package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/example/team-calendar/internal/persistence"
)

// PermissionStore captures the persistence interactions for per-module
// access levels.
type PermissionStore interface {
	ListPermissions(ctx context.Context, userID string) ([]persistence.UserPermission, error)
	ListAllPermissions(ctx context.Context) ([]persistence.UserPermission, error)
	UpsertPermission(ctx context.Context, permission persistence.UserPermission) (persistence.UserPermission, error)
}

// UserLister lists all accounts for directory-style reads.
type UserLister interface {
	ListUsers(ctx context.Context) ([]persistence.User, error)
}

// SetPermissionsParams wraps the data required to update a user's access.
type SetPermissionsParams struct {
	Principal   Principal
	UserID      string
	Permissions []ModulePermission
}

// PermissionService resolves and persists the two-axis module access levels.
// The my/all axes stay independent: a user can hold EDIT over records they
// created while holding only VIEW over everyone else's.
type PermissionService struct {
	permissions PermissionStore
	users       UserDirectory
	allUsers    UserLister
	now         func() time.Time
	logger      *slog.Logger
}

// NewPermissionService wires dependencies for the permission service.
func NewPermissionService(permissions PermissionStore, users UserDirectory, allUsers UserLister, now func() time.Time, logger *slog.Logger) *PermissionService {
	if now == nil {
		now = time.Now
	}
	return &PermissionService{
		permissions: permissions,
		users:       users,
		allUsers:    allUsers,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *PermissionService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "PermissionService", operation, attrs...)
}

// GetPermissions returns exactly one entry per declared module for the user,
// resolving absent records to the NONE/NONE safe default.
func (s *PermissionService) GetPermissions(ctx context.Context, userID string) ([]ModulePermission, error) {
	if s == nil || s.permissions == nil {
		return nil, fmt.Errorf("permission service not configured")
	}

	stored, err := s.permissions.ListPermissions(ctx, userID)
	if err != nil {
		return nil, storageFailure("permission lookup", err)
	}

	return resolveModulePermissions(stored), nil
}

// SetPermissions upserts the provided entries keyed by (userID, module).
// Modules omitted from the list are left unchanged. Applying the same list
// twice yields the same stored state.
func (s *PermissionService) SetPermissions(ctx context.Context, params SetPermissionsParams) (updated []ModulePermission, err error) {
	if s == nil || s.permissions == nil || s.users == nil {
		return nil, fmt.Errorf("permission service not configured")
	}

	logger := s.loggerWith(ctx, "SetPermissions", "target_user_id", params.UserID, "entries", len(params.Permissions))
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "permission update failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "permissions updated")
	}()

	if err = requireAdmin(params.Principal); err != nil {
		return nil, err
	}

	if vErr := validatePermissionEntries(params.UserID, params.Permissions); vErr.HasErrors() {
		err = vErr
		return nil, err
	}

	if _, lookupErr := s.users.GetUser(ctx, params.UserID); lookupErr != nil {
		if errors.Is(lookupErr, persistence.ErrNotFound) {
			err = ErrNotFound
			return nil, err
		}
		err = storageFailure("user lookup", lookupErr)
		return nil, err
	}

	now := s.now()
	updated = make([]ModulePermission, 0, len(params.Permissions))
	for _, entry := range params.Permissions {
		record, upsertErr := s.permissions.UpsertPermission(ctx, persistence.UserPermission{
			UserID:    params.UserID,
			Module:    string(entry.Module),
			MyLevel:   string(entry.MyLevel),
			AllLevel:  string(entry.AllLevel),
			UpdatedAt: now,
		})
		if upsertErr != nil {
			err = storageFailure("permission upsert", upsertErr)
			return nil, err
		}
		updated = append(updated, toModulePermission(record))
	}

	return updated, nil
}

// ListUserAccess returns every user with their fully resolved permission
// set, ordered by name, for the administrator access page.
func (s *PermissionService) ListUserAccess(ctx context.Context, principal Principal) ([]UserAccess, error) {
	if s == nil || s.permissions == nil || s.allUsers == nil {
		return nil, fmt.Errorf("permission service not configured")
	}

	if err := requireAdmin(principal); err != nil {
		return nil, err
	}

	users, err := s.allUsers.ListUsers(ctx)
	if err != nil {
		return nil, storageFailure("user listing", err)
	}

	stored, err := s.permissions.ListAllPermissions(ctx)
	if err != nil {
		return nil, storageFailure("permission listing", err)
	}

	byUser := make(map[string][]persistence.UserPermission, len(users))
	for _, record := range stored {
		byUser[record.UserID] = append(byUser[record.UserID], record)
	}

	access := make([]UserAccess, 0, len(users))
	for _, record := range users {
		access = append(access, UserAccess{
			User:        toUser(record),
			Permissions: resolveModulePermissions(byUser[record.ID]),
		})
	}

	sort.Slice(access, func(i, j int) bool {
		if strings.EqualFold(access[i].User.Name, access[j].User.Name) {
			return access[i].User.ID < access[j].User.ID
		}
		return strings.ToLower(access[i].User.Name) < strings.ToLower(access[j].User.Name)
	})

	return access, nil
}

// resolveModulePermissions fills the declared module list from stored
// records, defaulting unset modules to NONE/NONE.
func resolveModulePermissions(stored []persistence.UserPermission) []ModulePermission {
	byModule := make(map[Module]persistence.UserPermission, len(stored))
	for _, record := range stored {
		byModule[Module(record.Module)] = record
	}

	resolved := make([]ModulePermission, 0, len(Modules()))
	for _, module := range Modules() {
		if record, ok := byModule[module]; ok {
			resolved = append(resolved, toModulePermission(record))
			continue
		}
		resolved = append(resolved, ModulePermission{Module: module, MyLevel: LevelNone, AllLevel: LevelNone})
	}
	return resolved
}

func validatePermissionEntries(userID string, entries []ModulePermission) *ValidationError {
	vErr := &ValidationError{}

	if strings.TrimSpace(userID) == "" {
		vErr.add("userId", "user id is required")
	}

	for i, entry := range entries {
		if !entry.Module.Valid() {
			vErr.add(fmt.Sprintf("permissions[%d].module", i), "module must be one of meetings, deadlines, schedule")
		}
		if !entry.MyLevel.Valid() {
			vErr.add(fmt.Sprintf("permissions[%d].myLevel", i), "level must be one of NONE, VIEW, EDIT")
		}
		if !entry.AllLevel.Valid() {
			vErr.add(fmt.Sprintf("permissions[%d].allLevel", i), "level must be one of NONE, VIEW, EDIT")
		}
	}

	return vErr
}
