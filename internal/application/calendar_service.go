package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/team-calendar/internal/persistence"
)

const (
	maxTitleLength       = 255
	maxDescriptionLength = 1000
	maxLocationLength    = 255
)

// CalendarItemStore captures the persistence interactions for calendar
// items and their participants.
type CalendarItemStore interface {
	CreateCalendarItem(ctx context.Context, item persistence.CalendarItem) error
	GetCalendarItem(ctx context.Context, id string) (persistence.CalendarItem, error)
	UpdateCalendarItem(ctx context.Context, item persistence.CalendarItem, replaceParticipants bool) error
	ListCalendarItems(ctx context.Context, filter persistence.CalendarItemFilter) ([]persistence.CalendarItem, error)
	DeleteCalendarItem(ctx context.Context, id string) error
}

// CreateCalendarItemParams wraps a calendar item create request.
type CreateCalendarItemParams struct {
	Principal Principal
	Input     CalendarItemInput
}

// UpdateCalendarItemParams wraps a partial calendar item update.
type UpdateCalendarItemParams struct {
	Principal Principal
	ItemID    string
	Patch     CalendarItemPatch
}

// CalendarItemService manages meetings and deadlines together with their
// participant lists.
type CalendarItemService struct {
	items       CalendarItemStore
	users       UserDirectory
	now         func() time.Time
	idGenerator func() string
	logger      *slog.Logger
}

// NewCalendarItemService wires dependencies for the calendar item service.
func NewCalendarItemService(items CalendarItemStore, users UserDirectory, now func() time.Time, idGenerator func() string, logger *slog.Logger) *CalendarItemService {
	if now == nil {
		now = time.Now
	}
	return &CalendarItemService{
		items:       items,
		users:       users,
		now:         now,
		idGenerator: idGenerator,
		logger:      defaultLogger(logger),
	}
}

func (s *CalendarItemService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "CalendarItemService", operation, attrs...)
}

// Create stores a new calendar item. The acting administrator becomes the
// owner, and the supplied participants are written atomically with the item
// in their given order. Status defaults to DRAFT and participant roles to
// PARTICIPANT when unset.
func (s *CalendarItemService) Create(ctx context.Context, params CreateCalendarItemParams) (item CalendarItem, err error) {
	if s == nil || s.items == nil || s.idGenerator == nil {
		return CalendarItem{}, fmt.Errorf("calendar item service not configured")
	}

	logger := s.loggerWith(ctx, "Create", "item_type", string(params.Input.Type))
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "calendar item create failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "calendar item created", "item_id", item.ID)
	}()

	if err = requireAdmin(params.Principal); err != nil {
		return CalendarItem{}, err
	}

	input := params.Input
	if input.Status == "" {
		input.Status = ItemStatusDraft
	}

	if vErr := validateCalendarItemCreate(input); vErr.HasErrors() {
		err = vErr
		return CalendarItem{}, err
	}

	if err = s.ensureParticipantsExist(ctx, input.Participants); err != nil {
		return CalendarItem{}, err
	}

	now := s.now()
	record := persistence.CalendarItem{
		ID:           s.idGenerator(),
		Type:         string(input.Type),
		Title:        input.Title,
		Description:  cloneStringPtr(input.Description),
		StartAt:      input.StartAt,
		EndAt:        cloneTimePtr(input.EndAt),
		AllDay:       input.AllDay,
		Status:       string(input.Status),
		Location:     cloneStringPtr(input.Location),
		CreatedByID:  params.Principal.UserID,
		Participants: toParticipantRecords("", input.Participants),
	}
	record.CreatedAt = now
	record.UpdatedAt = now
	for i := range record.Participants {
		record.Participants[i].ItemID = record.ID
	}

	if createErr := s.items.CreateCalendarItem(ctx, record); createErr != nil {
		if errors.Is(createErr, persistence.ErrForeignKeyViolation) {
			vErr := &ValidationError{}
			vErr.add("participants", "participant user does not exist")
			err = vErr
			return CalendarItem{}, err
		}
		err = storageFailure("calendar item create", createErr)
		return CalendarItem{}, err
	}

	return s.reload(ctx, record.ID)
}

// Update applies a partial update. A participant list in the patch replaces
// the stored list wholesale; omitting it leaves the stored participants
// untouched.
func (s *CalendarItemService) Update(ctx context.Context, params UpdateCalendarItemParams) (item CalendarItem, err error) {
	if s == nil || s.items == nil {
		return CalendarItem{}, fmt.Errorf("calendar item service not configured")
	}

	logger := s.loggerWith(ctx, "Update", "item_id", params.ItemID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "calendar item update failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "calendar item updated")
	}()

	if err = requireAdmin(params.Principal); err != nil {
		return CalendarItem{}, err
	}

	existing, getErr := s.items.GetCalendarItem(ctx, params.ItemID)
	if getErr != nil {
		if errors.Is(getErr, persistence.ErrNotFound) {
			err = ErrNotFound
			return CalendarItem{}, err
		}
		err = storageFailure("calendar item lookup", getErr)
		return CalendarItem{}, err
	}

	merged := existing
	patch := params.Patch
	if patch.Type != nil {
		merged.Type = string(*patch.Type)
	}
	if patch.Title != nil {
		merged.Title = *patch.Title
	}
	if patch.DescriptionSet {
		merged.Description = cloneStringPtr(patch.Description)
	}
	if patch.StartAt != nil {
		merged.StartAt = *patch.StartAt
	}
	if patch.EndAtSet {
		merged.EndAt = cloneTimePtr(patch.EndAt)
	}
	if patch.AllDay != nil {
		merged.AllDay = *patch.AllDay
	}
	if patch.Status != nil {
		merged.Status = string(*patch.Status)
	}
	if patch.LocationSet {
		merged.Location = cloneStringPtr(patch.Location)
	}

	if vErr := validateCalendarItemMerged(merged, patch); vErr.HasErrors() {
		err = vErr
		return CalendarItem{}, err
	}

	if patch.ParticipantsSet {
		if err = s.ensureParticipantsExist(ctx, patch.Participants); err != nil {
			return CalendarItem{}, err
		}
		merged.Participants = toParticipantRecords(merged.ID, patch.Participants)
	}

	merged.UpdatedAt = s.now()
	if updateErr := s.items.UpdateCalendarItem(ctx, merged, patch.ParticipantsSet); updateErr != nil {
		if errors.Is(updateErr, persistence.ErrNotFound) {
			err = ErrNotFound
			return CalendarItem{}, err
		}
		if errors.Is(updateErr, persistence.ErrForeignKeyViolation) {
			vErr := &ValidationError{}
			vErr.add("participants", "participant user does not exist")
			err = vErr
			return CalendarItem{}, err
		}
		err = storageFailure("calendar item update", updateErr)
		return CalendarItem{}, err
	}

	return s.reload(ctx, merged.ID)
}

// Delete removes the item; stored participants cascade with it.
func (s *CalendarItemService) Delete(ctx context.Context, principal Principal, itemID string) (err error) {
	if s == nil || s.items == nil {
		return fmt.Errorf("calendar item service not configured")
	}

	logger := s.loggerWith(ctx, "Delete", "item_id", itemID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "calendar item delete failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "calendar item deleted")
	}()

	if err = requireAdmin(principal); err != nil {
		return err
	}

	if deleteErr := s.items.DeleteCalendarItem(ctx, itemID); deleteErr != nil {
		if errors.Is(deleteErr, persistence.ErrNotFound) {
			err = ErrNotFound
			return err
		}
		err = storageFailure("calendar item delete", deleteErr)
		return err
	}
	return nil
}

// List returns items matching the filter ordered by start time ascending.
// From and To bound StartAt inclusively; Search matches title substrings
// case-sensitively.
func (s *CalendarItemService) List(ctx context.Context, principal Principal, filter CalendarItemFilter) ([]CalendarItem, error) {
	if s == nil || s.items == nil {
		return nil, fmt.Errorf("calendar item service not configured")
	}

	if err := requireIdentity(principal); err != nil {
		return nil, err
	}

	vErr := &ValidationError{}
	if filter.Type != "" && !filter.Type.Valid() {
		vErr.add("type", "type must be one of MEETING, DEADLINE")
	}
	if filter.Status != "" && !filter.Status.Valid() {
		vErr.add("status", "status must be one of DRAFT, CONFIRMED, DONE, CANCELED")
	}
	if vErr.HasErrors() {
		return nil, vErr
	}

	records, err := s.items.ListCalendarItems(ctx, persistence.CalendarItemFilter{
		From:        cloneTimePtr(filter.From),
		To:          cloneTimePtr(filter.To),
		Type:        string(filter.Type),
		Status:      string(filter.Status),
		TitleSearch: filter.Search,
	})
	if err != nil {
		return nil, storageFailure("calendar item listing", err)
	}
	return toCalendarItems(records), nil
}

func (s *CalendarItemService) reload(ctx context.Context, id string) (CalendarItem, error) {
	record, getErr := s.items.GetCalendarItem(ctx, id)
	if getErr != nil {
		return CalendarItem{}, storageFailure("calendar item reload", getErr)
	}
	return toCalendarItem(record), nil
}

// ensureParticipantsExist rejects participant lists referencing unknown
// users or repeating a user.
func (s *CalendarItemService) ensureParticipantsExist(ctx context.Context, participants []ParticipantInput) error {
	if s.users == nil || len(participants) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(participants))
	for i, participant := range participants {
		if seen[participant.UserID] {
			vErr := &ValidationError{}
			vErr.add(fmt.Sprintf("participants[%d].userId", i), "participant listed more than once")
			return vErr
		}
		seen[participant.UserID] = true
		if _, err := s.users.GetUser(ctx, participant.UserID); err != nil {
			if errors.Is(err, persistence.ErrNotFound) {
				vErr := &ValidationError{}
				vErr.add(fmt.Sprintf("participants[%d].userId", i), "user does not exist")
				return vErr
			}
			return storageFailure("participant lookup", err)
		}
	}
	return nil
}

// toParticipantRecords converts caller supplied participants to storage
// rows, preserving order via the position column and defaulting the role to
// PARTICIPANT.
func toParticipantRecords(itemID string, participants []ParticipantInput) []persistence.CalendarItemParticipant {
	if len(participants) == 0 {
		return nil
	}
	records := make([]persistence.CalendarItemParticipant, 0, len(participants))
	for i, participant := range participants {
		role := participant.Role
		if role == "" {
			role = ParticipantRoleParticipant
		}
		var rsvp *string
		if participant.RSVP != nil {
			value := string(*participant.RSVP)
			rsvp = &value
		}
		records = append(records, persistence.CalendarItemParticipant{
			ItemID:   itemID,
			UserID:   participant.UserID,
			Role:     string(role),
			RSVP:     rsvp,
			Position: i,
		})
	}
	return records
}

func validateCalendarItemCreate(input CalendarItemInput) *ValidationError {
	vErr := &ValidationError{}
	if !input.Type.Valid() {
		vErr.add("type", "type must be one of MEETING, DEADLINE")
	}
	validateTitle(vErr, input.Title)
	if input.StartAt.IsZero() {
		vErr.add("startAt", "start time is required")
	}
	if !input.Status.Valid() {
		vErr.add("status", "status must be one of DRAFT, CONFIRMED, DONE, CANCELED")
	}
	validateOptionalText(vErr, "description", input.Description, maxDescriptionLength)
	validateOptionalText(vErr, "location", input.Location, maxLocationLength)
	validateParticipantInputs(vErr, input.Participants)
	return vErr
}

func validateCalendarItemMerged(merged persistence.CalendarItem, patch CalendarItemPatch) *ValidationError {
	vErr := &ValidationError{}
	if !ItemType(merged.Type).Valid() {
		vErr.add("type", "type must be one of MEETING, DEADLINE")
	}
	validateTitle(vErr, merged.Title)
	if merged.StartAt.IsZero() {
		vErr.add("startAt", "start time is required")
	}
	if !ItemStatus(merged.Status).Valid() {
		vErr.add("status", "status must be one of DRAFT, CONFIRMED, DONE, CANCELED")
	}
	validateOptionalText(vErr, "description", merged.Description, maxDescriptionLength)
	validateOptionalText(vErr, "location", merged.Location, maxLocationLength)
	if patch.ParticipantsSet {
		validateParticipantInputs(vErr, patch.Participants)
	}
	return vErr
}

func validateTitle(vErr *ValidationError, title string) {
	if title == "" {
		vErr.add("title", "title is required")
		return
	}
	if len(title) > maxTitleLength {
		vErr.add("title", fmt.Sprintf("title must be at most %d characters", maxTitleLength))
	}
}

func validateOptionalText(vErr *ValidationError, field string, value *string, maxLength int) {
	if value != nil && len(*value) > maxLength {
		vErr.add(field, fmt.Sprintf("%s must be at most %d characters", field, maxLength))
	}
}

func validateParticipantInputs(vErr *ValidationError, participants []ParticipantInput) {
	for i, participant := range participants {
		if participant.UserID == "" {
			vErr.add(fmt.Sprintf("participants[%d].userId", i), "user id is required")
		}
		if participant.Role != "" && !participant.Role.Valid() {
			vErr.add(fmt.Sprintf("participants[%d].role", i), "role must be one of OWNER, PARTICIPANT, RESPONSIBLE")
		}
		if participant.RSVP != nil && !participant.RSVP.Valid() {
			vErr.add(fmt.Sprintf("participants[%d].rsvp", i), "rsvp must be one of YES, NO, MAYBE")
		}
	}
}
