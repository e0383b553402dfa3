package persistence

import (
	"context"
	"time"
)

// UserRepository exposes the user operations the calendar core needs. Users
// are created by seed or admin tooling and never deleted by the request
// flows, so no delete operation is exposed here.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
}

// PermissionRepository stores per-user, per-module access levels with upsert
// semantics keyed by (UserID, Module).
type PermissionRepository interface {
	ListPermissions(ctx context.Context, userID string) ([]UserPermission, error)
	ListAllPermissions(ctx context.Context) ([]UserPermission, error)
	UpsertPermission(ctx context.Context, permission UserPermission) (UserPermission, error)
}

// CalendarItemRepository stores calendar items with their participants.
// Participants on update are replaced wholesale when replaceParticipants is
// set; otherwise the stored participant rows are left untouched.
type CalendarItemRepository interface {
	CreateCalendarItem(ctx context.Context, item CalendarItem) error
	GetCalendarItem(ctx context.Context, id string) (CalendarItem, error)
	UpdateCalendarItem(ctx context.Context, item CalendarItem, replaceParticipants bool) error
	ListCalendarItems(ctx context.Context, filter CalendarItemFilter) ([]CalendarItem, error)
	DeleteCalendarItem(ctx context.Context, id string) error
}

// ScheduleEntryRepository stores day-granularity schedule entries. The
// storage layer carries a uniqueness constraint on (UserID, Date) so a
// concurrent create racing past FindEntryForUserDate still surfaces
// ErrDuplicate from CreateScheduleEntry.
type ScheduleEntryRepository interface {
	CreateScheduleEntry(ctx context.Context, entry ScheduleEntry) error
	GetScheduleEntry(ctx context.Context, id string) (ScheduleEntry, error)
	UpdateScheduleEntry(ctx context.Context, entry ScheduleEntry) error
	DeleteScheduleEntry(ctx context.Context, id string) error
	ListScheduleEntriesByDate(ctx context.Context, date time.Time) ([]ScheduleEntry, error)
	FindEntryForUserDate(ctx context.Context, userID string, date time.Time, excludeID string) (ScheduleEntry, error)
}
