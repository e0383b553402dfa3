package testfixtures

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/example/team-calendar/internal/persistence"
)

// MemoryStore is an in-memory implementation of the persistence repositories
// for service level tests. It mirrors the storage layer's contract:
// sentinel errors, uniqueness rules, embedded user summaries, and listing
// order.
type MemoryStore struct {
	mu          sync.Mutex
	users       map[string]persistence.User
	permissions map[string]map[string]persistence.UserPermission
	items       map[string]persistence.CalendarItem
	entries     map[string]persistence.ScheduleEntry

	// Err, when set, is returned by every operation. Tests use it to
	// exercise storage failure paths.
	Err error
}

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:       make(map[string]persistence.User),
		permissions: make(map[string]map[string]persistence.UserPermission),
		items:       make(map[string]persistence.CalendarItem),
		entries:     make(map[string]persistence.ScheduleEntry),
	}
}

// SeedUsers inserts the given users directly, bypassing uniqueness checks.
func (s *MemoryStore) SeedUsers(users ...persistence.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range users {
		s.users[user.ID] = user
	}
}

// SeedCalendarItems inserts the given items directly.
func (s *MemoryStore) SeedCalendarItems(items ...persistence.CalendarItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range items {
		s.items[item.ID] = item
	}
}

// SeedScheduleEntries inserts the given entries directly.
func (s *MemoryStore) SeedScheduleEntries(entries ...persistence.ScheduleEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, entry := range entries {
		s.entries[entry.ID] = entry
	}
}

// ----------------------------- users -----------------------------

// CreateUser stores a new user, rejecting duplicate IDs and emails.
func (s *MemoryStore) CreateUser(_ context.Context, user persistence.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if _, exists := s.users[user.ID]; exists {
		return persistence.ErrDuplicate
	}
	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return persistence.ErrDuplicate
		}
	}
	s.users[user.ID] = user
	return nil
}

// GetUser returns the user with the given ID.
func (s *MemoryStore) GetUser(_ context.Context, id string) (persistence.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return persistence.User{}, s.Err
	}
	user, ok := s.users[id]
	if !ok {
		return persistence.User{}, persistence.ErrNotFound
	}
	return user, nil
}

// GetUserByEmail returns the user with the given email, compared
// case-insensitively.
func (s *MemoryStore) GetUserByEmail(_ context.Context, email string) (persistence.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return persistence.User{}, s.Err
	}
	for _, user := range s.users {
		if strings.EqualFold(user.Email, email) {
			return user, nil
		}
	}
	return persistence.User{}, persistence.ErrNotFound
}

// ListUsers returns every user ordered by name.
func (s *MemoryStore) ListUsers(_ context.Context) ([]persistence.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	users := make([]persistence.User, 0, len(s.users))
	for _, user := range s.users {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].Name == users[j].Name {
			return users[i].ID < users[j].ID
		}
		return users[i].Name < users[j].Name
	})
	return users, nil
}

// ----------------------------- permissions -----------------------------

// ListPermissions returns the stored permission records for one user.
func (s *MemoryStore) ListPermissions(_ context.Context, userID string) ([]persistence.UserPermission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	byModule := s.permissions[userID]
	records := make([]persistence.UserPermission, 0, len(byModule))
	for _, record := range byModule {
		records = append(records, record)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Module < records[j].Module })
	return records, nil
}

// ListAllPermissions returns every stored permission record.
func (s *MemoryStore) ListAllPermissions(_ context.Context) ([]persistence.UserPermission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	var records []persistence.UserPermission
	for _, byModule := range s.permissions {
		for _, record := range byModule {
			records = append(records, record)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].UserID == records[j].UserID {
			return records[i].Module < records[j].Module
		}
		return records[i].UserID < records[j].UserID
	})
	return records, nil
}

// UpsertPermission inserts or replaces the record keyed by (UserID, Module),
// preserving the original CreatedAt on replacement.
func (s *MemoryStore) UpsertPermission(_ context.Context, permission persistence.UserPermission) (persistence.UserPermission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return persistence.UserPermission{}, s.Err
	}
	byModule, ok := s.permissions[permission.UserID]
	if !ok {
		byModule = make(map[string]persistence.UserPermission)
		s.permissions[permission.UserID] = byModule
	}
	if existing, exists := byModule[permission.Module]; exists {
		permission.CreatedAt = existing.CreatedAt
	} else if permission.CreatedAt.IsZero() {
		permission.CreatedAt = permission.UpdatedAt
	}
	byModule[permission.Module] = permission
	return permission, nil
}

// ----------------------------- calendar items -----------------------------

// CreateCalendarItem stores a new item with its participants, rejecting
// participant rows that reference unknown users.
func (s *MemoryStore) CreateCalendarItem(_ context.Context, item persistence.CalendarItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if _, exists := s.items[item.ID]; exists {
		return persistence.ErrDuplicate
	}
	for _, participant := range item.Participants {
		if _, ok := s.users[participant.UserID]; !ok {
			return persistence.ErrForeignKeyViolation
		}
	}
	s.items[item.ID] = item
	return nil
}

// GetCalendarItem returns the item with embedded user summaries populated.
func (s *MemoryStore) GetCalendarItem(_ context.Context, id string) (persistence.CalendarItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return persistence.CalendarItem{}, s.Err
	}
	item, ok := s.items[id]
	if !ok {
		return persistence.CalendarItem{}, persistence.ErrNotFound
	}
	return s.hydrateItem(item), nil
}

// UpdateCalendarItem replaces the stored item. Participants are replaced
// only when replaceParticipants is set.
func (s *MemoryStore) UpdateCalendarItem(_ context.Context, item persistence.CalendarItem, replaceParticipants bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	existing, ok := s.items[item.ID]
	if !ok {
		return persistence.ErrNotFound
	}
	if replaceParticipants {
		for _, participant := range item.Participants {
			if _, userOK := s.users[participant.UserID]; !userOK {
				return persistence.ErrForeignKeyViolation
			}
		}
	} else {
		item.Participants = existing.Participants
	}
	s.items[item.ID] = item
	return nil
}

// ListCalendarItems returns items matching the filter ordered by start time.
func (s *MemoryStore) ListCalendarItems(_ context.Context, filter persistence.CalendarItemFilter) ([]persistence.CalendarItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	var items []persistence.CalendarItem
	for _, item := range s.items {
		if filter.From != nil && item.StartAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && item.StartAt.After(*filter.To) {
			continue
		}
		if filter.Type != "" && item.Type != filter.Type {
			continue
		}
		if filter.Status != "" && item.Status != filter.Status {
			continue
		}
		if filter.TitleSearch != "" && !strings.Contains(item.Title, filter.TitleSearch) {
			continue
		}
		items = append(items, s.hydrateItem(item))
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].StartAt.Equal(items[j].StartAt) {
			return items[i].ID < items[j].ID
		}
		return items[i].StartAt.Before(items[j].StartAt)
	})
	return items, nil
}

// DeleteCalendarItem removes the item and its participants.
func (s *MemoryStore) DeleteCalendarItem(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if _, ok := s.items[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.items, id)
	return nil
}

// ----------------------------- schedule entries -----------------------------

// CreateScheduleEntry stores a new entry, enforcing one entry per user per
// day.
func (s *MemoryStore) CreateScheduleEntry(_ context.Context, entry persistence.ScheduleEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if _, exists := s.entries[entry.ID]; exists {
		return persistence.ErrDuplicate
	}
	if _, ok := s.users[entry.UserID]; !ok {
		return persistence.ErrForeignKeyViolation
	}
	for _, existing := range s.entries {
		if existing.UserID == entry.UserID && sameDay(existing.Date, entry.Date) {
			return persistence.ErrDuplicate
		}
	}
	s.entries[entry.ID] = entry
	return nil
}

// GetScheduleEntry returns the entry with embedded user summaries populated.
func (s *MemoryStore) GetScheduleEntry(_ context.Context, id string) (persistence.ScheduleEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return persistence.ScheduleEntry{}, s.Err
	}
	entry, ok := s.entries[id]
	if !ok {
		return persistence.ScheduleEntry{}, persistence.ErrNotFound
	}
	return s.hydrateEntry(entry), nil
}

// UpdateScheduleEntry replaces the stored entry, re-checking the one entry
// per user per day rule against all other entries.
func (s *MemoryStore) UpdateScheduleEntry(_ context.Context, entry persistence.ScheduleEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if _, ok := s.entries[entry.ID]; !ok {
		return persistence.ErrNotFound
	}
	for id, existing := range s.entries {
		if id == entry.ID {
			continue
		}
		if existing.UserID == entry.UserID && sameDay(existing.Date, entry.Date) {
			return persistence.ErrDuplicate
		}
	}
	s.entries[entry.ID] = entry
	return nil
}

// DeleteScheduleEntry removes the entry.
func (s *MemoryStore) DeleteScheduleEntry(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if _, ok := s.entries[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.entries, id)
	return nil
}

// ListScheduleEntriesByDate returns the day's entries ordered by start time,
// ties broken by user name.
func (s *MemoryStore) ListScheduleEntriesByDate(_ context.Context, date time.Time) ([]persistence.ScheduleEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	var entries []persistence.ScheduleEntry
	for _, entry := range s.entries {
		if sameDay(entry.Date, date) {
			entries = append(entries, s.hydrateEntry(entry))
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].StartTime != entries[j].StartTime {
			return entries[i].StartTime < entries[j].StartTime
		}
		if entries[i].User.Name != entries[j].User.Name {
			return entries[i].User.Name < entries[j].User.Name
		}
		return entries[i].ID < entries[j].ID
	})
	return entries, nil
}

// FindEntryForUserDate returns the entry occupying the (user, day) slot,
// skipping the entry with excludeID.
func (s *MemoryStore) FindEntryForUserDate(_ context.Context, userID string, date time.Time, excludeID string) (persistence.ScheduleEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return persistence.ScheduleEntry{}, s.Err
	}
	for id, entry := range s.entries {
		if excludeID != "" && id == excludeID {
			continue
		}
		if entry.UserID == userID && sameDay(entry.Date, date) {
			return s.hydrateEntry(entry), nil
		}
	}
	return persistence.ScheduleEntry{}, persistence.ErrNotFound
}

func (s *MemoryStore) userRef(id string) persistence.UserRef {
	if user, ok := s.users[id]; ok {
		return persistence.UserRef{ID: user.ID, Name: user.Name, Email: user.Email}
	}
	return persistence.UserRef{ID: id}
}

func (s *MemoryStore) hydrateItem(item persistence.CalendarItem) persistence.CalendarItem {
	item.CreatedBy = s.userRef(item.CreatedByID)
	participants := make([]persistence.CalendarItemParticipant, len(item.Participants))
	copy(participants, item.Participants)
	sort.Slice(participants, func(i, j int) bool { return participants[i].Position < participants[j].Position })
	for i := range participants {
		participants[i].User = s.userRef(participants[i].UserID)
	}
	item.Participants = participants
	return item
}

func (s *MemoryStore) hydrateEntry(entry persistence.ScheduleEntry) persistence.ScheduleEntry {
	entry.User = s.userRef(entry.UserID)
	entry.CreatedBy = s.userRef(entry.CreatedByID)
	return entry
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
