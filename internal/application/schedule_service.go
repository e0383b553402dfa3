package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/team-calendar/internal/persistence"
)

// minutesPerDay bounds the start/end minute fields; 1439 is 23:59.
const minutesPerDay = 1440

// ScheduleEntryStore captures the persistence interactions for schedule
// entries.
type ScheduleEntryStore interface {
	CreateScheduleEntry(ctx context.Context, entry persistence.ScheduleEntry) error
	GetScheduleEntry(ctx context.Context, id string) (persistence.ScheduleEntry, error)
	UpdateScheduleEntry(ctx context.Context, entry persistence.ScheduleEntry) error
	DeleteScheduleEntry(ctx context.Context, id string) error
	ListScheduleEntriesByDate(ctx context.Context, date time.Time) ([]persistence.ScheduleEntry, error)
	FindEntryForUserDate(ctx context.Context, userID string, date time.Time, excludeID string) (persistence.ScheduleEntry, error)
}

// CreateScheduleEntryParams wraps a schedule entry create request.
type CreateScheduleEntryParams struct {
	Principal Principal
	Input     ScheduleEntryInput
}

// UpdateScheduleEntryParams wraps a partial schedule entry update.
type UpdateScheduleEntryParams struct {
	Principal Principal
	EntryID   string
	Patch     ScheduleEntryPatch
}

// ScheduleEntryService manages the one-entry-per-user-per-day working
// windows shown on the day view.
type ScheduleEntryService struct {
	entries     ScheduleEntryStore
	users       UserDirectory
	now         func() time.Time
	idGenerator func() string
	logger      *slog.Logger
}

// NewScheduleEntryService wires dependencies for the schedule entry service.
func NewScheduleEntryService(entries ScheduleEntryStore, users UserDirectory, now func() time.Time, idGenerator func() string, logger *slog.Logger) *ScheduleEntryService {
	if now == nil {
		now = time.Now
	}
	return &ScheduleEntryService{
		entries:     entries,
		users:       users,
		now:         now,
		idGenerator: idGenerator,
		logger:      defaultLogger(logger),
	}
}

func (s *ScheduleEntryService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ScheduleEntryService", operation, attrs...)
}

// Create stores a new schedule entry after enforcing the single entry per
// (user, day) rule. A concurrent create racing past the pre-check still
// surfaces as ErrConflict via the storage uniqueness constraint.
func (s *ScheduleEntryService) Create(ctx context.Context, params CreateScheduleEntryParams) (entry ScheduleEntry, err error) {
	if s == nil || s.entries == nil || s.users == nil || s.idGenerator == nil {
		return ScheduleEntry{}, fmt.Errorf("schedule entry service not configured")
	}

	logger := s.loggerWith(ctx, "Create", "target_user_id", params.Input.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "schedule entry create failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "schedule entry created", "entry_id", entry.ID)
	}()

	if err = requireAdmin(params.Principal); err != nil {
		return ScheduleEntry{}, err
	}

	if vErr := validateScheduleEntryFields(params.Input.Date, params.Input.UserID, params.Input.StartTime, params.Input.EndTime); vErr.HasErrors() {
		err = vErr
		return ScheduleEntry{}, err
	}

	if _, lookupErr := s.users.GetUser(ctx, params.Input.UserID); lookupErr != nil {
		if errors.Is(lookupErr, persistence.ErrNotFound) {
			vErr := &ValidationError{}
			vErr.add("userId", "user does not exist")
			err = vErr
			return ScheduleEntry{}, err
		}
		err = storageFailure("user lookup", lookupErr)
		return ScheduleEntry{}, err
	}

	date := dayOf(params.Input.Date)
	if err = s.ensureDayFree(ctx, params.Input.UserID, date, ""); err != nil {
		return ScheduleEntry{}, err
	}

	now := s.now()
	record := persistence.ScheduleEntry{
		ID:          s.idGenerator(),
		Date:        date,
		UserID:      params.Input.UserID,
		StartTime:   params.Input.StartTime,
		EndTime:     params.Input.EndTime,
		Note:        cloneStringPtr(params.Input.Note),
		CreatedByID: params.Principal.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if createErr := s.entries.CreateScheduleEntry(ctx, record); createErr != nil {
		if errors.Is(createErr, persistence.ErrDuplicate) {
			err = ErrConflict
			return ScheduleEntry{}, err
		}
		err = storageFailure("schedule entry create", createErr)
		return ScheduleEntry{}, err
	}

	return s.reload(ctx, record.ID)
}

// Update applies a partial update. Ordering is re-validated against the
// merged fields, and uniqueness is re-checked only when the date or user
// changes; an update touching just the note skips both checks.
func (s *ScheduleEntryService) Update(ctx context.Context, params UpdateScheduleEntryParams) (entry ScheduleEntry, err error) {
	if s == nil || s.entries == nil {
		return ScheduleEntry{}, fmt.Errorf("schedule entry service not configured")
	}

	logger := s.loggerWith(ctx, "Update", "entry_id", params.EntryID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "schedule entry update failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "schedule entry updated")
	}()

	if err = requireAdmin(params.Principal); err != nil {
		return ScheduleEntry{}, err
	}

	existing, getErr := s.entries.GetScheduleEntry(ctx, params.EntryID)
	if getErr != nil {
		if errors.Is(getErr, persistence.ErrNotFound) {
			err = ErrNotFound
			return ScheduleEntry{}, err
		}
		err = storageFailure("schedule entry lookup", getErr)
		return ScheduleEntry{}, err
	}

	merged := existing
	patch := params.Patch
	keyOrWindowChanged := false
	if patch.Date != nil {
		merged.Date = dayOf(*patch.Date)
		keyOrWindowChanged = true
	}
	if patch.UserID != nil {
		merged.UserID = *patch.UserID
		keyOrWindowChanged = true
	}
	if patch.StartTime != nil {
		merged.StartTime = *patch.StartTime
		keyOrWindowChanged = true
	}
	if patch.EndTime != nil {
		merged.EndTime = *patch.EndTime
		keyOrWindowChanged = true
	}
	if patch.NoteSet {
		merged.Note = cloneStringPtr(patch.Note)
	}

	if keyOrWindowChanged {
		if vErr := validateScheduleEntryFields(merged.Date, merged.UserID, merged.StartTime, merged.EndTime); vErr.HasErrors() {
			err = vErr
			return ScheduleEntry{}, err
		}
	}

	if patch.UserID != nil && merged.UserID != existing.UserID && s.users != nil {
		if _, lookupErr := s.users.GetUser(ctx, merged.UserID); lookupErr != nil {
			if errors.Is(lookupErr, persistence.ErrNotFound) {
				vErr := &ValidationError{}
				vErr.add("userId", "user does not exist")
				err = vErr
				return ScheduleEntry{}, err
			}
			err = storageFailure("user lookup", lookupErr)
			return ScheduleEntry{}, err
		}
	}

	if merged.UserID != existing.UserID || !merged.Date.Equal(existing.Date) {
		if err = s.ensureDayFree(ctx, merged.UserID, merged.Date, merged.ID); err != nil {
			return ScheduleEntry{}, err
		}
	}

	merged.UpdatedAt = s.now()
	if updateErr := s.entries.UpdateScheduleEntry(ctx, merged); updateErr != nil {
		if errors.Is(updateErr, persistence.ErrDuplicate) {
			err = ErrConflict
			return ScheduleEntry{}, err
		}
		if errors.Is(updateErr, persistence.ErrNotFound) {
			err = ErrNotFound
			return ScheduleEntry{}, err
		}
		err = storageFailure("schedule entry update", updateErr)
		return ScheduleEntry{}, err
	}

	return s.reload(ctx, merged.ID)
}

// Delete removes the entry permanently.
func (s *ScheduleEntryService) Delete(ctx context.Context, principal Principal, entryID string) (err error) {
	if s == nil || s.entries == nil {
		return fmt.Errorf("schedule entry service not configured")
	}

	logger := s.loggerWith(ctx, "Delete", "entry_id", entryID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "schedule entry delete failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "schedule entry deleted")
	}()

	if err = requireAdmin(principal); err != nil {
		return err
	}

	if deleteErr := s.entries.DeleteScheduleEntry(ctx, entryID); deleteErr != nil {
		if errors.Is(deleteErr, persistence.ErrNotFound) {
			err = ErrNotFound
			return err
		}
		err = storageFailure("schedule entry delete", deleteErr)
		return err
	}
	return nil
}

// ListByDate returns every entry for the day ordered by start time, then by
// user name.
func (s *ScheduleEntryService) ListByDate(ctx context.Context, principal Principal, date time.Time) ([]ScheduleEntry, error) {
	if s == nil || s.entries == nil {
		return nil, fmt.Errorf("schedule entry service not configured")
	}

	if err := requireIdentity(principal); err != nil {
		return nil, err
	}

	if date.IsZero() {
		vErr := &ValidationError{}
		vErr.add("date", "date is required")
		return nil, vErr
	}

	records, err := s.entries.ListScheduleEntriesByDate(ctx, dayOf(date))
	if err != nil {
		return nil, storageFailure("schedule entry listing", err)
	}
	return toScheduleEntries(records), nil
}

// ensureDayFree reports ErrConflict when another entry already occupies the
// (user, day) slot.
func (s *ScheduleEntryService) ensureDayFree(ctx context.Context, userID string, date time.Time, excludeID string) error {
	_, findErr := s.entries.FindEntryForUserDate(ctx, userID, date, excludeID)
	if findErr == nil {
		return ErrConflict
	}
	if errors.Is(findErr, persistence.ErrNotFound) {
		return nil
	}
	return storageFailure("schedule entry uniqueness check", findErr)
}

// reload fetches the stored record so callers receive the embedded user
// summaries populated by the repository joins.
func (s *ScheduleEntryService) reload(ctx context.Context, id string) (ScheduleEntry, error) {
	record, getErr := s.entries.GetScheduleEntry(ctx, id)
	if getErr != nil {
		return ScheduleEntry{}, storageFailure("schedule entry reload", getErr)
	}
	return toScheduleEntry(record), nil
}

func validateScheduleEntryFields(date time.Time, userID string, startTime, endTime int) *ValidationError {
	vErr := &ValidationError{}
	if date.IsZero() {
		vErr.add("date", "date is required")
	}
	if userID == "" {
		vErr.add("userId", "user id is required")
	}
	if startTime < 0 || startTime >= minutesPerDay {
		vErr.add("startTime", "start time must be between 0 and 1439 minutes")
	}
	if endTime < 0 || endTime >= minutesPerDay {
		vErr.add("endTime", "end time must be between 0 and 1439 minutes")
	}
	if !vErr.HasErrors() && startTime >= endTime {
		vErr.add("startTime", "start time must be before end time")
	}
	return vErr
}

// dayOf truncates a timestamp to midnight UTC, the granularity schedule
// entries are stored at.
func dayOf(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
