package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/team-calendar/internal/persistence"
)

// ScheduleEntryRepository implements persistence.ScheduleEntryRepository on
// SQLite.
type ScheduleEntryRepository struct {
	pool *ConnectionPool
}

// NewScheduleEntryRepository constructs a schedule entry repository on the
// pool.
func NewScheduleEntryRepository(pool *ConnectionPool) *ScheduleEntryRepository {
	return &ScheduleEntryRepository{pool: pool}
}

const scheduleEntrySelect = `
	SELECT e.id, e.date, e.user_id, e.start_time, e.end_time, e.note,
	       e.created_by_id, e.created_at, e.updated_at,
	       u.name, u.email,
	       c.name, c.email
	FROM schedule_entries e
	JOIN users u ON u.id = e.user_id
	JOIN users c ON c.id = e.created_by_id
`

// CreateScheduleEntry inserts a new entry. The UNIQUE (user_id, date) index
// backs the one entry per user per day rule.
func (r *ScheduleEntryRepository) CreateScheduleEntry(ctx context.Context, entry persistence.ScheduleEntry) error {
	if entry.ID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO schedule_entries (id, date, user_id, start_time, end_time, note, created_by_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.pool.db.ExecContext(ctx, query,
		entry.ID,
		formatDate(entry.Date),
		entry.UserID,
		entry.StartTime,
		entry.EndTime,
		nullableString(entry.Note),
		entry.CreatedByID,
		formatTime(entry.CreatedAt),
		formatTime(entry.UpdatedAt),
	)
	return mapError(err)
}

// GetScheduleEntry returns the entry with its user summaries.
func (r *ScheduleEntryRepository) GetScheduleEntry(ctx context.Context, id string) (persistence.ScheduleEntry, error) {
	if id == "" {
		return persistence.ScheduleEntry{}, persistence.ErrNotFound
	}

	row := r.pool.db.QueryRowContext(ctx, scheduleEntrySelect+` WHERE e.id = ?`, id)
	return scanScheduleEntry(row)
}

// UpdateScheduleEntry replaces the stored entry.
func (r *ScheduleEntryRepository) UpdateScheduleEntry(ctx context.Context, entry persistence.ScheduleEntry) error {
	query := `
		UPDATE schedule_entries
		SET date = ?, user_id = ?, start_time = ?, end_time = ?, note = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := r.pool.db.ExecContext(ctx, query,
		formatDate(entry.Date),
		entry.UserID,
		entry.StartTime,
		entry.EndTime,
		nullableString(entry.Note),
		formatTime(entry.UpdatedAt),
		entry.ID,
	)
	if err != nil {
		return mapError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// DeleteScheduleEntry removes the entry.
func (r *ScheduleEntryRepository) DeleteScheduleEntry(ctx context.Context, id string) error {
	result, err := r.pool.db.ExecContext(ctx, `DELETE FROM schedule_entries WHERE id = ?`, id)
	if err != nil {
		return mapError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// ListScheduleEntriesByDate returns the day's entries ordered by start time,
// ties broken by user name.
func (r *ScheduleEntryRepository) ListScheduleEntriesByDate(ctx context.Context, date time.Time) ([]persistence.ScheduleEntry, error) {
	rows, err := r.pool.db.QueryContext(ctx,
		scheduleEntrySelect+` WHERE e.date = ? ORDER BY e.start_time, u.name, e.id`,
		formatDate(date))
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var entries []persistence.ScheduleEntry
	for rows.Next() {
		entry, scanErr := scanScheduleEntry(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return entries, nil
}

// FindEntryForUserDate returns the entry occupying the (user, day) slot,
// skipping the entry with excludeID.
func (r *ScheduleEntryRepository) FindEntryForUserDate(ctx context.Context, userID string, date time.Time, excludeID string) (persistence.ScheduleEntry, error) {
	row := r.pool.db.QueryRowContext(ctx,
		scheduleEntrySelect+` WHERE e.user_id = ? AND e.date = ? AND e.id != ?`,
		userID, formatDate(date), excludeID)
	return scanScheduleEntry(row)
}

func scanScheduleEntry(row rowScanner) (persistence.ScheduleEntry, error) {
	var (
		entry     persistence.ScheduleEntry
		date      string
		note      sql.NullString
		createdAt string
		updatedAt string
	)
	err := row.Scan(
		&entry.ID, &date, &entry.UserID, &entry.StartTime, &entry.EndTime, &note,
		&entry.CreatedByID, &createdAt, &updatedAt,
		&entry.User.Name, &entry.User.Email,
		&entry.CreatedBy.Name, &entry.CreatedBy.Email,
	)
	if err != nil {
		return persistence.ScheduleEntry{}, mapError(err)
	}
	entry.User.ID = entry.UserID
	entry.CreatedBy.ID = entry.CreatedByID
	entry.Note = stringPtr(note)

	if entry.Date, err = parseDate(date); err != nil {
		return persistence.ScheduleEntry{}, fmt.Errorf("sqlite: parse entry date: %w", err)
	}
	if entry.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.ScheduleEntry{}, fmt.Errorf("sqlite: parse entry created_at: %w", err)
	}
	if entry.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.ScheduleEntry{}, fmt.Errorf("sqlite: parse entry updated_at: %w", err)
	}
	return entry, nil
}
