package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/team-calendar/internal/persistence"
)

// PermissionRepository implements persistence.PermissionRepository on SQLite.
type PermissionRepository struct {
	pool *ConnectionPool
}

// NewPermissionRepository constructs a permission repository on the pool.
func NewPermissionRepository(pool *ConnectionPool) *PermissionRepository {
	return &PermissionRepository{pool: pool}
}

const permissionColumns = `user_id, module, my_level, all_level, created_at, updated_at`

// ListPermissions returns the stored permission records for one user.
func (r *PermissionRepository) ListPermissions(ctx context.Context, userID string) ([]persistence.UserPermission, error) {
	rows, err := r.pool.db.QueryContext(ctx,
		`SELECT `+permissionColumns+` FROM user_permissions WHERE user_id = ? ORDER BY module`, userID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()
	return collectPermissions(rows)
}

// ListAllPermissions returns every stored permission record.
func (r *PermissionRepository) ListAllPermissions(ctx context.Context) ([]persistence.UserPermission, error) {
	rows, err := r.pool.db.QueryContext(ctx,
		`SELECT `+permissionColumns+` FROM user_permissions ORDER BY user_id, module`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()
	return collectPermissions(rows)
}

// UpsertPermission inserts or replaces the record keyed by (user_id, module).
// ON CONFLICT keeps the original created_at so the row records first grant
// and latest change.
func (r *PermissionRepository) UpsertPermission(ctx context.Context, permission persistence.UserPermission) (persistence.UserPermission, error) {
	if permission.CreatedAt.IsZero() {
		permission.CreatedAt = permission.UpdatedAt
	}

	query := `
		INSERT INTO user_permissions (user_id, module, my_level, all_level, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, module) DO UPDATE SET
			my_level = excluded.my_level,
			all_level = excluded.all_level,
			updated_at = excluded.updated_at
	`
	_, err := r.pool.db.ExecContext(ctx, query,
		permission.UserID,
		permission.Module,
		permission.MyLevel,
		permission.AllLevel,
		formatTime(permission.CreatedAt),
		formatTime(permission.UpdatedAt),
	)
	if err != nil {
		return persistence.UserPermission{}, mapError(err)
	}

	row := r.pool.db.QueryRowContext(ctx,
		`SELECT `+permissionColumns+` FROM user_permissions WHERE user_id = ? AND module = ?`,
		permission.UserID, permission.Module)
	return scanPermission(row)
}

func collectPermissions(rows *sql.Rows) ([]persistence.UserPermission, error) {
	var permissions []persistence.UserPermission
	for rows.Next() {
		permission, err := scanPermission(rows)
		if err != nil {
			return nil, err
		}
		permissions = append(permissions, permission)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return permissions, nil
}

func scanPermission(row rowScanner) (persistence.UserPermission, error) {
	var (
		permission persistence.UserPermission
		createdAt  string
		updatedAt  string
	)
	if err := row.Scan(&permission.UserID, &permission.Module, &permission.MyLevel, &permission.AllLevel, &createdAt, &updatedAt); err != nil {
		return persistence.UserPermission{}, mapError(err)
	}

	var err error
	if permission.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.UserPermission{}, fmt.Errorf("sqlite: parse permission created_at: %w", err)
	}
	if permission.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.UserPermission{}, fmt.Errorf("sqlite: parse permission updated_at: %w", err)
	}
	return permission, nil
}
