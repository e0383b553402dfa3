package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/team-calendar/internal/persistence"
)

var (
	userCounter  uint64
	itemCounter  uint64
	entryCounter uint64
)

var referenceTime = time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ReferenceDate returns the canonical day fixtures schedule against.
func ReferenceDate() time.Time {
	return time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)
}

// UserOption configures a generated user fixture.
type UserOption func(*persistence.User)

// NewUserFixture returns a deterministic user record with optional overrides.
func NewUserFixture(opts ...UserOption) persistence.User {
	idx := atomic.AddUint64(&userCounter, 1)
	id := fmt.Sprintf("user-%03d", idx)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	user := persistence.User{
		ID:        id,
		Name:      fmt.Sprintf("User %03d", idx),
		Email:     fmt.Sprintf("%s@example.com", id),
		Role:      "USER",
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, opt := range opts {
		opt(&user)
	}
	return user
}

// WithUserID overrides the generated user ID.
func WithUserID(id string) UserOption {
	return func(u *persistence.User) {
		u.ID = id
	}
}

// WithUserName overrides the generated display name.
func WithUserName(name string) UserOption {
	return func(u *persistence.User) {
		u.Name = name
	}
}

// WithUserEmail overrides the generated email address.
func WithUserEmail(email string) UserOption {
	return func(u *persistence.User) {
		u.Email = email
	}
}

// WithAdminRole marks the user as an administrator.
func WithAdminRole() UserOption {
	return func(u *persistence.User) {
		u.Role = "ADMIN"
	}
}

// WithPasswordHash attaches a stored password hash to the user.
func WithPasswordHash(hash string) UserOption {
	return func(u *persistence.User) {
		u.PasswordHash = &hash
	}
}

// CalendarItemOption configures a generated calendar item fixture.
type CalendarItemOption func(*persistence.CalendarItem)

// NewCalendarItemFixture returns a deterministic calendar item record with
// optional overrides.
func NewCalendarItemFixture(opts ...CalendarItemOption) persistence.CalendarItem {
	idx := atomic.AddUint64(&itemCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	item := persistence.CalendarItem{
		ID:          fmt.Sprintf("item-%03d", idx),
		Type:        "MEETING",
		Title:       fmt.Sprintf("Meeting %03d", idx),
		StartAt:     referenceTime.Add(time.Duration(idx) * time.Hour),
		Status:      "CONFIRMED",
		CreatedByID: "user-001",
		CreatedAt:   created,
		UpdatedAt:   created,
	}
	for _, opt := range opts {
		opt(&item)
	}
	return item
}

// WithItemID overrides the generated item ID.
func WithItemID(id string) CalendarItemOption {
	return func(i *persistence.CalendarItem) {
		i.ID = id
	}
}

// WithItemTitle overrides the generated title.
func WithItemTitle(title string) CalendarItemOption {
	return func(i *persistence.CalendarItem) {
		i.Title = title
	}
}

// WithItemType overrides the item type.
func WithItemType(itemType string) CalendarItemOption {
	return func(i *persistence.CalendarItem) {
		i.Type = itemType
	}
}

// WithItemStatus overrides the item status.
func WithItemStatus(status string) CalendarItemOption {
	return func(i *persistence.CalendarItem) {
		i.Status = status
	}
}

// WithItemStartAt overrides the start timestamp.
func WithItemStartAt(startAt time.Time) CalendarItemOption {
	return func(i *persistence.CalendarItem) {
		i.StartAt = startAt
	}
}

// WithItemCreatedBy overrides the owner ID.
func WithItemCreatedBy(userID string) CalendarItemOption {
	return func(i *persistence.CalendarItem) {
		i.CreatedByID = userID
	}
}

// WithItemParticipants attaches participant rows to the item.
func WithItemParticipants(participants ...persistence.CalendarItemParticipant) CalendarItemOption {
	return func(i *persistence.CalendarItem) {
		i.Participants = participants
	}
}

// ScheduleEntryOption configures a generated schedule entry fixture.
type ScheduleEntryOption func(*persistence.ScheduleEntry)

// NewScheduleEntryFixture returns a deterministic schedule entry record with
// optional overrides.
func NewScheduleEntryFixture(opts ...ScheduleEntryOption) persistence.ScheduleEntry {
	idx := atomic.AddUint64(&entryCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	entry := persistence.ScheduleEntry{
		ID:          fmt.Sprintf("entry-%03d", idx),
		Date:        ReferenceDate(),
		UserID:      "user-001",
		StartTime:   9 * 60,
		EndTime:     17 * 60,
		CreatedByID: "user-001",
		CreatedAt:   created,
		UpdatedAt:   created,
	}
	for _, opt := range opts {
		opt(&entry)
	}
	return entry
}

// WithEntryID overrides the generated entry ID.
func WithEntryID(id string) ScheduleEntryOption {
	return func(e *persistence.ScheduleEntry) {
		e.ID = id
	}
}

// WithEntryUser overrides the user the entry belongs to.
func WithEntryUser(userID string) ScheduleEntryOption {
	return func(e *persistence.ScheduleEntry) {
		e.UserID = userID
	}
}

// WithEntryDate overrides the entry day.
func WithEntryDate(date time.Time) ScheduleEntryOption {
	return func(e *persistence.ScheduleEntry) {
		e.Date = date
	}
}

// WithEntryWindow overrides the start and end minutes.
func WithEntryWindow(startTime, endTime int) ScheduleEntryOption {
	return func(e *persistence.ScheduleEntry) {
		e.StartTime = startTime
		e.EndTime = endTime
	}
}

// WithEntryNote attaches a note to the entry.
func WithEntryNote(note string) ScheduleEntryOption {
	return func(e *persistence.ScheduleEntry) {
		e.Note = &note
	}
}
