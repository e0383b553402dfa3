package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/team-calendar/internal/persistence"
	"github.com/example/team-calendar/internal/testfixtures"
)

func newTestCalendarService(store *testfixtures.MemoryStore) *CalendarItemService {
	clock := testfixtures.NewClock(time.Time{})
	ids := testfixtures.NewIDGenerator("item")
	return NewCalendarItemService(store, store, clock.NowFunc(), ids.NextFunc(), nil)
}

func TestCalendarItemService_Create(t *testing.T) {
	t.Parallel()

	t.Run("stores the item with the acting admin as owner", func(t *testing.T) {
		t.Parallel()

		store := testfixtures.NewMemoryStore()
		owner := testfixtures.NewUserFixture(testfixtures.WithUserID(adminPrincipal.UserID))
		attendee := testfixtures.NewUserFixture(testfixtures.WithUserName("Attendee"))
		store.SeedUsers(owner, attendee)
		svc := newTestCalendarService(store)

		item, err := svc.Create(context.Background(), CreateCalendarItemParams{
			Principal: adminPrincipal,
			Input: CalendarItemInput{
				Type:    ItemTypeMeeting,
				Title:   "Sprint review",
				StartAt: testfixtures.ReferenceTime(),
				Participants: []ParticipantInput{
					{UserID: attendee.ID},
				},
			},
		})
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if item.CreatedByID != adminPrincipal.UserID {
			t.Fatalf("expected the acting admin as owner, got %s", item.CreatedByID)
		}
		if item.Status != ItemStatusDraft {
			t.Fatalf("expected status to default to DRAFT, got %s", item.Status)
		}
		if len(item.Participants) != 1 {
			t.Fatalf("expected one participant, got %d", len(item.Participants))
		}
		if item.Participants[0].Role != ParticipantRoleParticipant {
			t.Fatalf("expected the role to default to PARTICIPANT, got %s", item.Participants[0].Role)
		}
		if item.Participants[0].User.Name != "Attendee" {
			t.Fatalf("expected the participant summary to be embedded, got %+v", item.Participants[0].User)
		}
	})

	t.Run("preserves participant order", func(t *testing.T) {
		t.Parallel()

		store := testfixtures.NewMemoryStore()
		first := testfixtures.NewUserFixture(testfixtures.WithUserName("Zoe"))
		second := testfixtures.NewUserFixture(testfixtures.WithUserName("Amir"))
		store.SeedUsers(first, second)
		svc := newTestCalendarService(store)

		item, err := svc.Create(context.Background(), CreateCalendarItemParams{
			Principal: adminPrincipal,
			Input: CalendarItemInput{
				Type:    ItemTypeMeeting,
				Title:   "Planning",
				StartAt: testfixtures.ReferenceTime(),
				Participants: []ParticipantInput{
					{UserID: first.ID, Role: ParticipantRoleOwner},
					{UserID: second.ID},
				},
			},
		})
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if item.Participants[0].UserID != first.ID || item.Participants[1].UserID != second.ID {
			t.Fatalf("expected supplied order to be preserved, got %+v", item.Participants)
		}
	})

	t.Run("accepts an end before the start", func(t *testing.T) {
		t.Parallel()

		// Range ordering between startAt and endAt is intentionally not
		// checked; callers may store a reversed window.
		store := testfixtures.NewMemoryStore()
		svc := newTestCalendarService(store)

		endAt := testfixtures.ReferenceTime().Add(-time.Hour)
		_, err := svc.Create(context.Background(), CreateCalendarItemParams{
			Principal: adminPrincipal,
			Input: CalendarItemInput{
				Type:    ItemTypeDeadline,
				Title:   "Backdated",
				StartAt: testfixtures.ReferenceTime(),
				EndAt:   &endAt,
			},
		})
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	})

	t.Run("validates fields", func(t *testing.T) {
		t.Parallel()

		store := testfixtures.NewMemoryStore()
		svc := newTestCalendarService(store)

		_, err := svc.Create(context.Background(), CreateCalendarItemParams{
			Principal: adminPrincipal,
			Input: CalendarItemInput{
				Type:   "REMINDER",
				Title:  "",
				Status: "PENDING",
			},
		})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected a validation error, got %v", err)
		}
		for _, field := range []string{"type", "title", "startAt", "status"} {
			if _, ok := vErr.FieldErrors[field]; !ok {
				t.Fatalf("expected an error on %s, got %v", field, vErr.FieldErrors)
			}
		}
	})

	t.Run("rejects unknown participants", func(t *testing.T) {
		t.Parallel()

		store := testfixtures.NewMemoryStore()
		svc := newTestCalendarService(store)

		_, err := svc.Create(context.Background(), CreateCalendarItemParams{
			Principal: adminPrincipal,
			Input: CalendarItemInput{
				Type:    ItemTypeMeeting,
				Title:   "Ghost meeting",
				StartAt: testfixtures.ReferenceTime(),
				Participants: []ParticipantInput{
					{UserID: "user-missing"},
				},
			},
		})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected a validation error, got %v", err)
		}
	})

	t.Run("requires the administrator role", func(t *testing.T) {
		t.Parallel()

		svc := newTestCalendarService(testfixtures.NewMemoryStore())

		if _, err := svc.Create(context.Background(), CreateCalendarItemParams{Principal: memberPrincipal}); !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
	})
}

func TestCalendarItemService_Update(t *testing.T) {
	t.Parallel()

	t.Run("clears nullable fields on explicit null", func(t *testing.T) {
		t.Parallel()

		store := testfixtures.NewMemoryStore()
		description := "old words"
		item := testfixtures.NewCalendarItemFixture()
		item.Description = &description
		store.SeedCalendarItems(item)
		svc := newTestCalendarService(store)

		updated, err := svc.Update(context.Background(), UpdateCalendarItemParams{
			Principal: adminPrincipal,
			ItemID:    item.ID,
			Patch:     CalendarItemPatch{DescriptionSet: true},
		})
		if err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		if updated.Description != nil {
			t.Fatalf("expected the description to be cleared, got %q", *updated.Description)
		}
	})

	t.Run("leaves participants untouched when omitted", func(t *testing.T) {
		t.Parallel()

		store := testfixtures.NewMemoryStore()
		attendee := testfixtures.NewUserFixture()
		store.SeedUsers(attendee)
		item := testfixtures.NewCalendarItemFixture(testfixtures.WithItemParticipants(
			persistence.CalendarItemParticipant{UserID: attendee.ID, Role: "PARTICIPANT", Position: 0},
		))
		store.SeedCalendarItems(item)
		svc := newTestCalendarService(store)

		title := "Renamed"
		updated, err := svc.Update(context.Background(), UpdateCalendarItemParams{
			Principal: adminPrincipal,
			ItemID:    item.ID,
			Patch:     CalendarItemPatch{Title: &title},
		})
		if err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		if updated.Title != "Renamed" {
			t.Fatalf("expected the title to change, got %q", updated.Title)
		}
		if len(updated.Participants) != 1 || updated.Participants[0].UserID != attendee.ID {
			t.Fatalf("expected participants to be preserved, got %+v", updated.Participants)
		}
	})

	t.Run("replaces participants wholesale when supplied", func(t *testing.T) {
		t.Parallel()

		store := testfixtures.NewMemoryStore()
		old := testfixtures.NewUserFixture()
		replacement := testfixtures.NewUserFixture()
		store.SeedUsers(old, replacement)
		item := testfixtures.NewCalendarItemFixture(testfixtures.WithItemParticipants(
			persistence.CalendarItemParticipant{UserID: old.ID, Role: "OWNER", Position: 0},
		))
		store.SeedCalendarItems(item)
		svc := newTestCalendarService(store)

		rsvp := RSVPYes
		updated, err := svc.Update(context.Background(), UpdateCalendarItemParams{
			Principal: adminPrincipal,
			ItemID:    item.ID,
			Patch: CalendarItemPatch{
				Participants:    []ParticipantInput{{UserID: replacement.ID, RSVP: &rsvp}},
				ParticipantsSet: true,
			},
		})
		if err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		if len(updated.Participants) != 1 || updated.Participants[0].UserID != replacement.ID {
			t.Fatalf("expected the participant list to be replaced, got %+v", updated.Participants)
		}
		if updated.Participants[0].RSVP == nil || *updated.Participants[0].RSVP != RSVPYes {
			t.Fatalf("expected the rsvp to be stored, got %v", updated.Participants[0].RSVP)
		}
	})

	t.Run("empties the participant list on an explicit empty array", func(t *testing.T) {
		t.Parallel()

		store := testfixtures.NewMemoryStore()
		attendee := testfixtures.NewUserFixture()
		store.SeedUsers(attendee)
		item := testfixtures.NewCalendarItemFixture(testfixtures.WithItemParticipants(
			persistence.CalendarItemParticipant{UserID: attendee.ID, Role: "PARTICIPANT", Position: 0},
		))
		store.SeedCalendarItems(item)
		svc := newTestCalendarService(store)

		updated, err := svc.Update(context.Background(), UpdateCalendarItemParams{
			Principal: adminPrincipal,
			ItemID:    item.ID,
			Patch:     CalendarItemPatch{ParticipantsSet: true},
		})
		if err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		if len(updated.Participants) != 0 {
			t.Fatalf("expected no participants, got %+v", updated.Participants)
		}
	})

	t.Run("reports an unknown item as not found", func(t *testing.T) {
		t.Parallel()

		svc := newTestCalendarService(testfixtures.NewMemoryStore())

		_, err := svc.Update(context.Background(), UpdateCalendarItemParams{
			Principal: adminPrincipal,
			ItemID:    "item-missing",
		})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("validates merged fields", func(t *testing.T) {
		t.Parallel()

		store := testfixtures.NewMemoryStore()
		item := testfixtures.NewCalendarItemFixture()
		store.SeedCalendarItems(item)
		svc := newTestCalendarService(store)

		empty := ""
		_, err := svc.Update(context.Background(), UpdateCalendarItemParams{
			Principal: adminPrincipal,
			ItemID:    item.ID,
			Patch:     CalendarItemPatch{Title: &empty},
		})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected a validation error, got %v", err)
		}
	})
}

func TestCalendarItemService_Delete(t *testing.T) {
	t.Parallel()

	t.Run("removes the item and its participants", func(t *testing.T) {
		t.Parallel()

		store := testfixtures.NewMemoryStore()
		attendee := testfixtures.NewUserFixture()
		store.SeedUsers(attendee)
		item := testfixtures.NewCalendarItemFixture(testfixtures.WithItemParticipants(
			persistence.CalendarItemParticipant{UserID: attendee.ID, Role: "PARTICIPANT", Position: 0},
		))
		store.SeedCalendarItems(item)
		svc := newTestCalendarService(store)

		if err := svc.Delete(context.Background(), adminPrincipal, item.ID); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if err := svc.Delete(context.Background(), adminPrincipal, item.ID); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound on second delete, got %v", err)
		}
	})
}

func TestCalendarItemService_List(t *testing.T) {
	t.Parallel()

	day := func(offset int) time.Time {
		return testfixtures.ReferenceTime().AddDate(0, 0, offset)
	}

	seedItems := func(store *testfixtures.MemoryStore) {
		store.SeedCalendarItems(
			testfixtures.NewCalendarItemFixture(
				testfixtures.WithItemTitle("Weekly sync"),
				testfixtures.WithItemStartAt(day(0)),
				testfixtures.WithItemType("MEETING"),
				testfixtures.WithItemStatus("CONFIRMED"),
			),
			testfixtures.NewCalendarItemFixture(
				testfixtures.WithItemTitle("Release deadline"),
				testfixtures.WithItemStartAt(day(2)),
				testfixtures.WithItemType("DEADLINE"),
				testfixtures.WithItemStatus("DRAFT"),
			),
			testfixtures.NewCalendarItemFixture(
				testfixtures.WithItemTitle("weekly retro"),
				testfixtures.WithItemStartAt(day(5)),
				testfixtures.WithItemType("MEETING"),
				testfixtures.WithItemStatus("CONFIRMED"),
			),
		)
	}

	t.Run("range bounds are inclusive on the start time", func(t *testing.T) {
		t.Parallel()

		store := testfixtures.NewMemoryStore()
		seedItems(store)
		svc := newTestCalendarService(store)

		from := day(0)
		to := day(2)
		items, err := svc.List(context.Background(), memberPrincipal, CalendarItemFilter{From: &from, To: &to})
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(items) != 2 {
			t.Fatalf("expected 2 items inside the inclusive range, got %d", len(items))
		}
		if !items[0].StartAt.Before(items[1].StartAt) {
			t.Fatalf("expected ascending start order, got %s then %s", items[0].StartAt, items[1].StartAt)
		}
	})

	t.Run("filters by type and status", func(t *testing.T) {
		t.Parallel()

		store := testfixtures.NewMemoryStore()
		seedItems(store)
		svc := newTestCalendarService(store)

		items, err := svc.List(context.Background(), memberPrincipal, CalendarItemFilter{
			Type:   ItemTypeMeeting,
			Status: ItemStatusConfirmed,
		})
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(items) != 2 {
			t.Fatalf("expected 2 confirmed meetings, got %d", len(items))
		}
	})

	t.Run("title search is a case-sensitive substring match", func(t *testing.T) {
		t.Parallel()

		store := testfixtures.NewMemoryStore()
		seedItems(store)
		svc := newTestCalendarService(store)

		items, err := svc.List(context.Background(), memberPrincipal, CalendarItemFilter{Search: "Weekly"})
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(items) != 1 || items[0].Title != "Weekly sync" {
			t.Fatalf("expected only the capitalised title to match, got %+v", items)
		}
	})

	t.Run("rejects invalid filter enums", func(t *testing.T) {
		t.Parallel()

		svc := newTestCalendarService(testfixtures.NewMemoryStore())

		_, err := svc.List(context.Background(), memberPrincipal, CalendarItemFilter{Type: "REMINDER"})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected a validation error, got %v", err)
		}
	})

	t.Run("requires an authenticated identity", func(t *testing.T) {
		t.Parallel()

		svc := newTestCalendarService(testfixtures.NewMemoryStore())

		if _, err := svc.List(context.Background(), Principal{}, CalendarItemFilter{}); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})
}
