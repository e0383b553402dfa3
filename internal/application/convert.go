package application

import (
	"time"

	"github.com/example/team-calendar/internal/persistence"
)

func cloneStringPtr(value *string) *string {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}

func cloneTimePtr(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}

func toUser(record persistence.User) User {
	return User{
		ID:    record.ID,
		Name:  record.Name,
		Email: record.Email,
		Role:  Role(record.Role),
	}
}

func toUserRef(record persistence.UserRef) UserRef {
	return UserRef{ID: record.ID, Name: record.Name, Email: record.Email}
}

func toModulePermission(record persistence.UserPermission) ModulePermission {
	return ModulePermission{
		Module:   Module(record.Module),
		MyLevel:  Level(record.MyLevel),
		AllLevel: Level(record.AllLevel),
	}
}

func toScheduleEntry(record persistence.ScheduleEntry) ScheduleEntry {
	return ScheduleEntry{
		ID:          record.ID,
		Date:        record.Date,
		UserID:      record.UserID,
		StartTime:   record.StartTime,
		EndTime:     record.EndTime,
		Note:        cloneStringPtr(record.Note),
		CreatedByID: record.CreatedByID,
		User:        toUserRef(record.User),
		CreatedBy:   toUserRef(record.CreatedBy),
		CreatedAt:   record.CreatedAt,
		UpdatedAt:   record.UpdatedAt,
	}
}

func toScheduleEntries(records []persistence.ScheduleEntry) []ScheduleEntry {
	out := make([]ScheduleEntry, 0, len(records))
	for _, record := range records {
		out = append(out, toScheduleEntry(record))
	}
	return out
}

func toCalendarItem(record persistence.CalendarItem) CalendarItem {
	participants := make([]Participant, 0, len(record.Participants))
	for _, p := range record.Participants {
		var rsvp *RSVP
		if p.RSVP != nil {
			value := RSVP(*p.RSVP)
			rsvp = &value
		}
		participants = append(participants, Participant{
			UserID: p.UserID,
			Role:   ParticipantRole(p.Role),
			RSVP:   rsvp,
			User:   toUserRef(p.User),
		})
	}

	return CalendarItem{
		ID:           record.ID,
		Type:         ItemType(record.Type),
		Title:        record.Title,
		Description:  cloneStringPtr(record.Description),
		StartAt:      record.StartAt,
		EndAt:        cloneTimePtr(record.EndAt),
		AllDay:       record.AllDay,
		Status:       ItemStatus(record.Status),
		Location:     cloneStringPtr(record.Location),
		CreatedByID:  record.CreatedByID,
		CreatedBy:    toUserRef(record.CreatedBy),
		Participants: participants,
		CreatedAt:    record.CreatedAt,
		UpdatedAt:    record.UpdatedAt,
	}
}

func toCalendarItems(records []persistence.CalendarItem) []CalendarItem {
	out := make([]CalendarItem, 0, len(records))
	for _, record := range records {
		out = append(out, toCalendarItem(record))
	}
	return out
}
