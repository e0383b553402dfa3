package persistence

import "time"

// User represents an account in the team calendar domain. PasswordHash is nil
// for accounts that authenticate by email alone.
type User struct {
	ID           string
	Name         string
	Email        string
	Role         string
	PasswordHash *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserRef is the embedded user summary returned alongside schedule entries and
// calendar item participants.
type UserRef struct {
	ID    string
	Name  string
	Email string
}

// UserPermission stores the two access levels granted to a user for one
// feature module. At most one record exists per (UserID, Module) pair.
type UserPermission struct {
	UserID    string
	Module    string
	MyLevel   string
	AllLevel  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CalendarItem represents a meeting or deadline stored in persistence.
type CalendarItem struct {
	ID           string
	Type         string
	Title        string
	Description  *string
	StartAt      time.Time
	EndAt        *time.Time
	AllDay       bool
	Status       string
	Location     *string
	CreatedByID  string
	CreatedBy    UserRef
	Participants []CalendarItemParticipant
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CalendarItemParticipant joins a user to a calendar item. Position preserves
// the order participants were supplied in.
type CalendarItemParticipant struct {
	ItemID   string
	UserID   string
	Role     string
	RSVP     *string
	Position int
	User     UserRef
}

// CalendarItemFilter narrows ListCalendarItems results. From and To are
// inclusive bounds against StartAt. TitleSearch is a case-sensitive substring
// match.
type CalendarItemFilter struct {
	From        *time.Time
	To          *time.Time
	Type        string
	Status      string
	TitleSearch string
}

// ScheduleEntry represents a single user's working window on one calendar
// day. Date carries day granularity only; StartTime and EndTime are minutes
// from midnight.
type ScheduleEntry struct {
	ID          string
	Date        time.Time
	UserID      string
	StartTime   int
	EndTime     int
	Note        *string
	CreatedByID string
	User        UserRef
	CreatedBy   UserRef
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
