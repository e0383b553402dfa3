package http

import (
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/example/team-calendar/internal/application"
)

const dateLayout = "2006-01-02"

// requestValidator checks request DTO shape before the payload reaches the
// services. Field names in violation messages use the JSON tag so the
// response matches what the client actually sent.
var requestValidator = newRequestValidator()

func newRequestValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		tag := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if tag == "" || tag == "-" {
			return field.Name
		}
		return tag
	})
	return v
}

// validateRequest returns per-field violation messages, or nil when the
// value passes its struct tags.
func validateRequest(v any) map[string]string {
	err := requestValidator.Struct(v)
	if err == nil {
		return nil
	}

	violations, ok := err.(validator.ValidationErrors)
	if !ok {
		return map[string]string{"request": err.Error()}
	}

	details := make(map[string]string, len(violations))
	for _, violation := range violations {
		field := violation.Field()
		switch violation.Tag() {
		case "required":
			details[field] = field + " is required"
		case "email":
			details[field] = field + " must be a valid email address"
		default:
			details[field] = field + " is invalid"
		}
	}
	return details
}

type userDTO struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func toUserDTO(user application.User) userDTO {
	return userDTO{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Role:  string(user.Role),
	}
}

func toUserDTOs(users []application.User) []userDTO {
	out := make([]userDTO, 0, len(users))
	for _, user := range users {
		out = append(out, toUserDTO(user))
	}
	return out
}

type userRefDTO struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func toUserRefDTO(ref application.UserRef) userRefDTO {
	return userRefDTO{ID: ref.ID, Name: ref.Name, Email: ref.Email}
}

type permissionDTO struct {
	Module   string `json:"module"`
	MyLevel  string `json:"myLevel"`
	AllLevel string `json:"allLevel"`
}

func toPermissionDTOs(permissions []application.ModulePermission) []permissionDTO {
	out := make([]permissionDTO, 0, len(permissions))
	for _, permission := range permissions {
		out = append(out, permissionDTO{
			Module:   string(permission.Module),
			MyLevel:  string(permission.MyLevel),
			AllLevel: string(permission.AllLevel),
		})
	}
	return out
}

type participantDTO struct {
	UserID string     `json:"userId"`
	Role   string     `json:"role"`
	RSVP   *string    `json:"rsvp"`
	User   userRefDTO `json:"user"`
}

func toParticipantDTOs(participants []application.Participant) []participantDTO {
	out := make([]participantDTO, 0, len(participants))
	for _, participant := range participants {
		dto := participantDTO{
			UserID: participant.UserID,
			Role:   string(participant.Role),
			User:   toUserRefDTO(participant.User),
		}
		if participant.RSVP != nil {
			rsvp := string(*participant.RSVP)
			dto.RSVP = &rsvp
		}
		out = append(out, dto)
	}
	return out
}

type calendarItemDTO struct {
	ID           string           `json:"id"`
	Type         string           `json:"type"`
	Title        string           `json:"title"`
	Description  *string          `json:"description"`
	StartAt      string           `json:"startAt"`
	EndAt        *string          `json:"endAt"`
	AllDay       bool             `json:"allDay"`
	Status       string           `json:"status"`
	Location     *string          `json:"location"`
	CreatedBy    userRefDTO       `json:"createdBy"`
	Participants []participantDTO `json:"participants"`
	CreatedAt    string           `json:"createdAt"`
	UpdatedAt    string           `json:"updatedAt"`
}

func toCalendarItemDTO(item application.CalendarItem) calendarItemDTO {
	dto := calendarItemDTO{
		ID:           item.ID,
		Type:         string(item.Type),
		Title:        item.Title,
		Description:  item.Description,
		StartAt:      formatTimestamp(item.StartAt),
		AllDay:       item.AllDay,
		Status:       string(item.Status),
		Location:     item.Location,
		CreatedBy:    toUserRefDTO(item.CreatedBy),
		Participants: toParticipantDTOs(item.Participants),
		CreatedAt:    formatTimestamp(item.CreatedAt),
		UpdatedAt:    formatTimestamp(item.UpdatedAt),
	}
	if item.EndAt != nil {
		endAt := formatTimestamp(*item.EndAt)
		dto.EndAt = &endAt
	}
	return dto
}

func toCalendarItemDTOs(items []application.CalendarItem) []calendarItemDTO {
	out := make([]calendarItemDTO, 0, len(items))
	for _, item := range items {
		out = append(out, toCalendarItemDTO(item))
	}
	return out
}

type scheduleEntryDTO struct {
	ID        string     `json:"id"`
	Date      string     `json:"date"`
	UserID    string     `json:"userId"`
	StartTime int        `json:"startTime"`
	EndTime   int        `json:"endTime"`
	Note      *string    `json:"note"`
	User      userRefDTO `json:"user"`
	CreatedBy userRefDTO `json:"createdBy"`
	CreatedAt string     `json:"createdAt"`
	UpdatedAt string     `json:"updatedAt"`
}

func toScheduleEntryDTO(entry application.ScheduleEntry) scheduleEntryDTO {
	return scheduleEntryDTO{
		ID:        entry.ID,
		Date:      entry.Date.UTC().Format(dateLayout),
		UserID:    entry.UserID,
		StartTime: entry.StartTime,
		EndTime:   entry.EndTime,
		Note:      entry.Note,
		User:      toUserRefDTO(entry.User),
		CreatedBy: toUserRefDTO(entry.CreatedBy),
		CreatedAt: formatTimestamp(entry.CreatedAt),
		UpdatedAt: formatTimestamp(entry.UpdatedAt),
	}
}

func toScheduleEntryDTOs(entries []application.ScheduleEntry) []scheduleEntryDTO {
	out := make([]scheduleEntryDTO, 0, len(entries))
	for _, entry := range entries {
		out = append(out, toScheduleEntryDTO(entry))
	}
	return out
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ts, nil
	}
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, errInvalidTimestamp
	}
	return ts, nil
}

func parseDate(value string) (time.Time, error) {
	ts, err := time.Parse(dateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, errInvalidDate
	}
	return ts, nil
}
