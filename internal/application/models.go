package application

import "time"

// Role distinguishes administrators from regular accounts.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// Valid reports whether the role is one of the declared values.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// Module names a feature area subject to independent permission
// configuration.
type Module string

const (
	ModuleMeetings  Module = "meetings"
	ModuleDeadlines Module = "deadlines"
	ModuleSchedule  Module = "schedule"
)

// Modules returns the declared modules in presentation order. Permission
// lookups resolve exactly one entry per element of this slice.
func Modules() []Module {
	return []Module{ModuleMeetings, ModuleDeadlines, ModuleSchedule}
}

// Valid reports whether the module is one of the declared values.
func (m Module) Valid() bool {
	switch m {
	case ModuleMeetings, ModuleDeadlines, ModuleSchedule:
		return true
	}
	return false
}

// Level is a permission level, totally ordered NONE < VIEW < EDIT.
type Level string

const (
	LevelNone Level = "NONE"
	LevelView Level = "VIEW"
	LevelEdit Level = "EDIT"
)

// Valid reports whether the level is one of the declared values.
func (l Level) Valid() bool {
	switch l {
	case LevelNone, LevelView, LevelEdit:
		return true
	}
	return false
}

func (l Level) rank() int {
	switch l {
	case LevelView:
		return 1
	case LevelEdit:
		return 2
	}
	return 0
}

// AtLeast reports whether l grants at least the access of other. Undeclared
// values rank as NONE.
func (l Level) AtLeast(other Level) bool {
	return l.rank() >= other.rank()
}

// ItemType distinguishes meetings from deadlines.
type ItemType string

const (
	ItemTypeMeeting  ItemType = "MEETING"
	ItemTypeDeadline ItemType = "DEADLINE"
)

// Valid reports whether the item type is one of the declared values.
func (t ItemType) Valid() bool {
	return t == ItemTypeMeeting || t == ItemTypeDeadline
}

// ItemStatus tracks a calendar item through its lifecycle.
type ItemStatus string

const (
	ItemStatusDraft     ItemStatus = "DRAFT"
	ItemStatusConfirmed ItemStatus = "CONFIRMED"
	ItemStatusDone      ItemStatus = "DONE"
	ItemStatusCanceled  ItemStatus = "CANCELED"
)

// Valid reports whether the status is one of the declared values.
func (s ItemStatus) Valid() bool {
	switch s {
	case ItemStatusDraft, ItemStatusConfirmed, ItemStatusDone, ItemStatusCanceled:
		return true
	}
	return false
}

// ParticipantRole describes how a user relates to a calendar item.
type ParticipantRole string

const (
	ParticipantRoleOwner       ParticipantRole = "OWNER"
	ParticipantRoleParticipant ParticipantRole = "PARTICIPANT"
	ParticipantRoleResponsible ParticipantRole = "RESPONSIBLE"
)

// Valid reports whether the participant role is one of the declared values.
func (r ParticipantRole) Valid() bool {
	switch r {
	case ParticipantRoleOwner, ParticipantRoleParticipant, ParticipantRoleResponsible:
		return true
	}
	return false
}

// RSVP is a participant's response status to a calendar item.
type RSVP string

const (
	RSVPYes   RSVP = "YES"
	RSVPNo    RSVP = "NO"
	RSVPMaybe RSVP = "MAYBE"
)

// Valid reports whether the rsvp is one of the declared values.
func (r RSVP) Valid() bool {
	return r == RSVPYes || r == RSVPNo || r == RSVPMaybe
}

// User is the identity record exposed by the application services.
type User struct {
	ID    string
	Name  string
	Email string
	Role  Role
}

// IsAdmin reports whether the user holds the administrator role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Principal represents the authenticated user invoking a service method.
type Principal struct {
	UserID  string
	IsAdmin bool
}

// UserRef is the embedded user summary carried by entries and participants.
type UserRef struct {
	ID    string
	Name  string
	Email string
}

// ModulePermission is one resolved (module, myLevel, allLevel) triple.
type ModulePermission struct {
	Module   Module
	MyLevel  Level
	AllLevel Level
}

// UserAccess pairs a user with their fully resolved permission set, one
// entry per declared module.
type UserAccess struct {
	User        User
	Permissions []ModulePermission
}

// Participant describes a user attached to a calendar item.
type Participant struct {
	UserID string
	Role   ParticipantRole
	RSVP   *RSVP
	User   UserRef
}

// ParticipantInput captures a caller supplied participant.
type ParticipantInput struct {
	UserID string
	Role   ParticipantRole
	RSVP   *RSVP
}

// CalendarItem represents a meeting or deadline on the team calendar.
type CalendarItem struct {
	ID           string
	Type         ItemType
	Title        string
	Description  *string
	StartAt      time.Time
	EndAt        *time.Time
	AllDay       bool
	Status       ItemStatus
	Location     *string
	CreatedByID  string
	CreatedBy    UserRef
	Participants []Participant
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CalendarItemInput captures caller provided calendar item fields for create.
type CalendarItemInput struct {
	Type         ItemType
	Title        string
	Description  *string
	StartAt      time.Time
	EndAt        *time.Time
	AllDay       bool
	Status       ItemStatus
	Location     *string
	Participants []ParticipantInput
}

// CalendarItemPatch captures a partial update. Nil pointers leave the stored
// value unchanged; the *Set flags distinguish an explicit null (clear) from
// an omitted field for nullable columns.
type CalendarItemPatch struct {
	Type            *ItemType
	Title           *string
	Description     *string
	DescriptionSet  bool
	StartAt         *time.Time
	EndAt           *time.Time
	EndAtSet        bool
	AllDay          *bool
	Status          *ItemStatus
	Location        *string
	LocationSet     bool
	Participants    []ParticipantInput
	ParticipantsSet bool
}

// CalendarItemFilter narrows item listings. From and To are inclusive bounds
// against StartAt; Search is a case-sensitive title substring match.
type CalendarItemFilter struct {
	From   *time.Time
	To     *time.Time
	Type   ItemType
	Status ItemStatus
	Search string
}

// ScheduleEntry represents one user's working window on one day.
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

// ScheduleEntryInput captures caller provided schedule entry fields.
type ScheduleEntryInput struct {
	Date      time.Time
	UserID    string
	StartTime int
	EndTime   int
	Note      *string
}

// ScheduleEntryPatch captures a partial schedule entry update.
type ScheduleEntryPatch struct {
	Date      *time.Time
	UserID    *string
	StartTime *int
	EndTime   *int
	Note      *string
	NoteSet   bool
}
