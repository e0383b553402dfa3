package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/team-calendar/internal/persistence"
	"github.com/example/team-calendar/internal/testfixtures"
)

// scheduleStoreSpy counts uniqueness probes so tests can assert which update
// shapes trigger them.
type scheduleStoreSpy struct {
	*testfixtures.MemoryStore
	findCalls int
}

func (s *scheduleStoreSpy) FindEntryForUserDate(ctx context.Context, userID string, date time.Time, excludeID string) (persistence.ScheduleEntry, error) {
	s.findCalls++
	return s.MemoryStore.FindEntryForUserDate(ctx, userID, date, excludeID)
}

func newTestScheduleService(store ScheduleEntryStore, users UserDirectory) *ScheduleEntryService {
	clock := testfixtures.NewClock(time.Time{})
	ids := testfixtures.NewIDGenerator("entry")
	return NewScheduleEntryService(store, users, clock.NowFunc(), ids.NextFunc(), nil)
}

func TestScheduleEntryService_Create(t *testing.T) {
	t.Parallel()

	t.Run("stores a valid entry with embedded user summaries", func(t *testing.T) {
		t.Parallel()

		store := testfixtures.NewMemoryStore()
		user := testfixtures.NewUserFixture(testfixtures.WithUserName("Alice"))
		store.SeedUsers(user)
		svc := newTestScheduleService(store, store)

		entry, err := svc.Create(context.Background(), CreateScheduleEntryParams{
			Principal: adminPrincipal,
			Input: ScheduleEntryInput{
				Date:      testfixtures.ReferenceDate(),
				UserID:    user.ID,
				StartTime: 9 * 60,
				EndTime:   17 * 60,
			},
		})
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if entry.ID == "" {
			t.Fatal("expected a generated id")
		}
		if entry.User.Name != "Alice" {
			t.Fatalf("expected the user summary to be embedded, got %+v", entry.User)
		}
		if entry.CreatedByID != adminPrincipal.UserID {
			t.Fatalf("expected the acting admin as creator, got %s", entry.CreatedByID)
		}
	})

	t.Run("rejects a second entry for the same user and day", func(t *testing.T) {
		t.Parallel()

		store := testfixtures.NewMemoryStore()
		user := testfixtures.NewUserFixture()
		store.SeedUsers(user)
		svc := newTestScheduleService(store, store)

		input := ScheduleEntryInput{
			Date:      testfixtures.ReferenceDate(),
			UserID:    user.ID,
			StartTime: 9 * 60,
			EndTime:   12 * 60,
		}
		if _, err := svc.Create(context.Background(), CreateScheduleEntryParams{Principal: adminPrincipal, Input: input}); err != nil {
			t.Fatalf("first Create failed: %v", err)
		}

		input.StartTime = 13 * 60
		input.EndTime = 18 * 60
		if _, err := svc.Create(context.Background(), CreateScheduleEntryParams{Principal: adminPrincipal, Input: input}); !errors.Is(err, ErrConflict) {
			t.Fatalf("expected ErrConflict, got %v", err)
		}

		input.Date = testfixtures.ReferenceDate().AddDate(0, 0, 1)
		if _, err := svc.Create(context.Background(), CreateScheduleEntryParams{Principal: adminPrincipal, Input: input}); err != nil {
			t.Fatalf("Create on the next day failed: %v", err)
		}
	})

	t.Run("validates the time window", func(t *testing.T) {
		t.Parallel()

		store := testfixtures.NewMemoryStore()
		user := testfixtures.NewUserFixture()
		store.SeedUsers(user)
		svc := newTestScheduleService(store, store)

		cases := []struct {
			name  string
			start int
			end   int
			field string
		}{
			{"start after end", 17 * 60, 9 * 60, "startTime"},
			{"start equals end", 9 * 60, 9 * 60, "startTime"},
			{"negative start", -1, 9 * 60, "startTime"},
			{"end past midnight", 9 * 60, 1440, "endTime"},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				_, err := svc.Create(context.Background(), CreateScheduleEntryParams{
					Principal: adminPrincipal,
					Input: ScheduleEntryInput{
						Date:      testfixtures.ReferenceDate(),
						UserID:    user.ID,
						StartTime: tc.start,
						EndTime:   tc.end,
					},
				})
				var vErr *ValidationError
				if !errors.As(err, &vErr) {
					t.Fatalf("expected a validation error, got %v", err)
				}
				if _, ok := vErr.FieldErrors[tc.field]; !ok {
					t.Fatalf("expected an error on %s, got %v", tc.field, vErr.FieldErrors)
				}
			})
		}
	})

	t.Run("rejects an unknown user", func(t *testing.T) {
		t.Parallel()

		store := testfixtures.NewMemoryStore()
		svc := newTestScheduleService(store, store)

		_, err := svc.Create(context.Background(), CreateScheduleEntryParams{
			Principal: adminPrincipal,
			Input: ScheduleEntryInput{
				Date:      testfixtures.ReferenceDate(),
				UserID:    "user-missing",
				StartTime: 9 * 60,
				EndTime:   17 * 60,
			},
		})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected a validation error, got %v", err)
		}
	})

	t.Run("requires the administrator role", func(t *testing.T) {
		t.Parallel()

		store := testfixtures.NewMemoryStore()
		svc := newTestScheduleService(store, store)

		if _, err := svc.Create(context.Background(), CreateScheduleEntryParams{Principal: memberPrincipal}); !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
		if _, err := svc.Create(context.Background(), CreateScheduleEntryParams{}); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})
}

func TestScheduleEntryService_Update(t *testing.T) {
	t.Parallel()

	seedEntry := func(store *testfixtures.MemoryStore, user persistence.User, day time.Time) persistence.ScheduleEntry {
		entry := testfixtures.NewScheduleEntryFixture(
			testfixtures.WithEntryUser(user.ID),
			testfixtures.WithEntryDate(day),
		)
		store.SeedScheduleEntries(entry)
		return entry
	}

	t.Run("a note-only update skips ordering and uniqueness checks", func(t *testing.T) {
		t.Parallel()

		store := testfixtures.NewMemoryStore()
		user := testfixtures.NewUserFixture()
		store.SeedUsers(user)
		entry := seedEntry(store, user, testfixtures.ReferenceDate())
		spy := &scheduleStoreSpy{MemoryStore: store}
		svc := newTestScheduleService(spy, store)

		note := "standup moved"
		updated, err := svc.Update(context.Background(), UpdateScheduleEntryParams{
			Principal: adminPrincipal,
			EntryID:   entry.ID,
			Patch:     ScheduleEntryPatch{Note: &note, NoteSet: true},
		})
		if err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		if updated.Note == nil || *updated.Note != note {
			t.Fatalf("expected the note to be stored, got %v", updated.Note)
		}
		if spy.findCalls != 0 {
			t.Fatalf("expected no uniqueness probe for a note-only update, got %d", spy.findCalls)
		}
	})

	t.Run("clearing the note with an explicit null", func(t *testing.T) {
		t.Parallel()

		store := testfixtures.NewMemoryStore()
		user := testfixtures.NewUserFixture()
		store.SeedUsers(user)
		entry := testfixtures.NewScheduleEntryFixture(
			testfixtures.WithEntryUser(user.ID),
			testfixtures.WithEntryNote("obsolete"),
		)
		store.SeedScheduleEntries(entry)
		svc := newTestScheduleService(store, store)

		updated, err := svc.Update(context.Background(), UpdateScheduleEntryParams{
			Principal: adminPrincipal,
			EntryID:   entry.ID,
			Patch:     ScheduleEntryPatch{NoteSet: true},
		})
		if err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		if updated.Note != nil {
			t.Fatalf("expected the note to be cleared, got %q", *updated.Note)
		}
	})

	t.Run("validates ordering against merged fields", func(t *testing.T) {
		t.Parallel()

		store := testfixtures.NewMemoryStore()
		user := testfixtures.NewUserFixture()
		store.SeedUsers(user)
		entry := testfixtures.NewScheduleEntryFixture(
			testfixtures.WithEntryUser(user.ID),
			testfixtures.WithEntryWindow(9*60, 17*60),
		)
		store.SeedScheduleEntries(entry)
		svc := newTestScheduleService(store, store)

		// New end below the stored start must fail even though the patch
		// alone looks harmless.
		badEnd := 8 * 60
		_, err := svc.Update(context.Background(), UpdateScheduleEntryParams{
			Principal: adminPrincipal,
			EntryID:   entry.ID,
			Patch:     ScheduleEntryPatch{EndTime: &badEnd},
		})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected a validation error, got %v", err)
		}
	})

	t.Run("moving onto an occupied day conflicts", func(t *testing.T) {
		t.Parallel()

		store := testfixtures.NewMemoryStore()
		user := testfixtures.NewUserFixture()
		store.SeedUsers(user)
		monday := testfixtures.ReferenceDate()
		tuesday := monday.AddDate(0, 0, 1)
		seedEntry(store, user, monday)
		moving := seedEntry(store, user, tuesday)
		svc := newTestScheduleService(store, store)

		_, err := svc.Update(context.Background(), UpdateScheduleEntryParams{
			Principal: adminPrincipal,
			EntryID:   moving.ID,
			Patch:     ScheduleEntryPatch{Date: &monday},
		})
		if !errors.Is(err, ErrConflict) {
			t.Fatalf("expected ErrConflict, got %v", err)
		}

		wednesday := monday.AddDate(0, 0, 2)
		if _, err := svc.Update(context.Background(), UpdateScheduleEntryParams{
			Principal: adminPrincipal,
			EntryID:   moving.ID,
			Patch:     ScheduleEntryPatch{Date: &wednesday},
		}); err != nil {
			t.Fatalf("Update to a free day failed: %v", err)
		}
	})

	t.Run("reports an unknown entry as not found", func(t *testing.T) {
		t.Parallel()

		store := testfixtures.NewMemoryStore()
		svc := newTestScheduleService(store, store)

		_, err := svc.Update(context.Background(), UpdateScheduleEntryParams{
			Principal: adminPrincipal,
			EntryID:   "entry-missing",
		})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestScheduleEntryService_Delete(t *testing.T) {
	t.Parallel()

	t.Run("removes the entry", func(t *testing.T) {
		t.Parallel()

		store := testfixtures.NewMemoryStore()
		user := testfixtures.NewUserFixture()
		store.SeedUsers(user)
		entry := testfixtures.NewScheduleEntryFixture(testfixtures.WithEntryUser(user.ID))
		store.SeedScheduleEntries(entry)
		svc := newTestScheduleService(store, store)

		if err := svc.Delete(context.Background(), adminPrincipal, entry.ID); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if err := svc.Delete(context.Background(), adminPrincipal, entry.ID); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound on second delete, got %v", err)
		}
	})

	t.Run("requires the administrator role", func(t *testing.T) {
		t.Parallel()

		store := testfixtures.NewMemoryStore()
		svc := newTestScheduleService(store, store)

		if err := svc.Delete(context.Background(), memberPrincipal, "entry"); !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
	})
}

func TestScheduleEntryService_ListByDate(t *testing.T) {
	t.Parallel()

	t.Run("orders by start time then user name", func(t *testing.T) {
		t.Parallel()

		store := testfixtures.NewMemoryStore()
		zoe := testfixtures.NewUserFixture(testfixtures.WithUserName("Zoe"))
		amir := testfixtures.NewUserFixture(testfixtures.WithUserName("Amir"))
		late := testfixtures.NewUserFixture(testfixtures.WithUserName("Noor"))
		store.SeedUsers(zoe, amir, late)

		day := testfixtures.ReferenceDate()
		store.SeedScheduleEntries(
			testfixtures.NewScheduleEntryFixture(
				testfixtures.WithEntryUser(zoe.ID),
				testfixtures.WithEntryDate(day),
				testfixtures.WithEntryWindow(9*60, 17*60),
			),
			testfixtures.NewScheduleEntryFixture(
				testfixtures.WithEntryUser(amir.ID),
				testfixtures.WithEntryDate(day),
				testfixtures.WithEntryWindow(9*60, 12*60),
			),
			testfixtures.NewScheduleEntryFixture(
				testfixtures.WithEntryUser(late.ID),
				testfixtures.WithEntryDate(day),
				testfixtures.WithEntryWindow(13*60, 18*60),
			),
			testfixtures.NewScheduleEntryFixture(
				testfixtures.WithEntryUser(zoe.ID),
				testfixtures.WithEntryDate(day.AddDate(0, 0, 1)),
			),
		)
		svc := newTestScheduleService(store, store)

		entries, err := svc.ListByDate(context.Background(), memberPrincipal, day)
		if err != nil {
			t.Fatalf("ListByDate failed: %v", err)
		}
		if len(entries) != 3 {
			t.Fatalf("expected 3 entries for the day, got %d", len(entries))
		}
		gotNames := []string{entries[0].User.Name, entries[1].User.Name, entries[2].User.Name}
		wantNames := []string{"Amir", "Zoe", "Noor"}
		for i := range wantNames {
			if gotNames[i] != wantNames[i] {
				t.Fatalf("expected order %v, got %v", wantNames, gotNames)
			}
		}
	})

	t.Run("requires an authenticated identity", func(t *testing.T) {
		t.Parallel()

		store := testfixtures.NewMemoryStore()
		svc := newTestScheduleService(store, store)

		if _, err := svc.ListByDate(context.Background(), Principal{}, testfixtures.ReferenceDate()); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("requires a date", func(t *testing.T) {
		t.Parallel()

		store := testfixtures.NewMemoryStore()
		svc := newTestScheduleService(store, store)

		_, err := svc.ListByDate(context.Background(), memberPrincipal, time.Time{})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected a validation error, got %v", err)
		}
	})
}
