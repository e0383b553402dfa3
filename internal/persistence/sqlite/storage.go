package sqlite

import (
	"context"
	"database/sql"
	"time"
)

// Storage bundles every repository behind one handle so callers can open a
// single database and hand the pieces to the services that need them.
type Storage struct {
	*UserRepository
	*PermissionRepository
	*CalendarItemRepository
	*ScheduleEntryRepository

	pool *ConnectionPool
}

// Open opens (creating if necessary) the database file at path and returns
// the repository bundle. The schema is not touched; call Migrate before
// serving requests.
func Open(path string) (*Storage, error) {
	pool, err := NewConnectionPool(Config{Path: path})
	if err != nil {
		return nil, err
	}
	return &Storage{
		UserRepository:          NewUserRepository(pool),
		PermissionRepository:    NewPermissionRepository(pool),
		CalendarItemRepository:  NewCalendarItemRepository(pool),
		ScheduleEntryRepository: NewScheduleEntryRepository(pool),
		pool:                    pool,
	}, nil
}

// Migrate applies pending schema migrations.
func (s *Storage) Migrate(ctx context.Context) error {
	return s.pool.Migrate(ctx)
}

// Close releases the underlying database handle.
func (s *Storage) Close() error {
	return s.pool.Close()
}

// Ping tests the database connection.
func (s *Storage) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Timestamps are stored as RFC3339 in UTC and dates as bare days, so
// lexicographic comparison in SQL matches chronological order.
const dateLayout = "2006-01-02"

// Fixed second precision keeps string comparison consistent; variable
// fraction digits would break range queries.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(value string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, value)
}

func formatDate(t time.Time) string {
	return t.Format(dateLayout)
}

func parseDate(value string) (time.Time, error) {
	return time.Parse(dateLayout, value)
}

func nullableString(value *string) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *value, Valid: true}
}

func stringPtr(value sql.NullString) *string {
	if !value.Valid {
		return nil
	}
	clone := value.String
	return &clone
}

func nullableTime(value *time.Time) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*value), Valid: true}
}

func timePtr(value sql.NullString) (*time.Time, error) {
	if !value.Valid {
		return nil, nil
	}
	parsed, err := parseTime(value.String)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}
