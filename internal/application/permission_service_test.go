package application

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/example/team-calendar/internal/testfixtures"
)

func newTestPermissionService(store *testfixtures.MemoryStore, clock *testfixtures.Clock) *PermissionService {
	return NewPermissionService(store, store, store, clock.NowFunc(), nil)
}

var adminPrincipal = Principal{UserID: "acting-admin", IsAdmin: true}
var memberPrincipal = Principal{UserID: "acting-member"}

func TestPermissionService_GetPermissions(t *testing.T) {
	t.Parallel()

	t.Run("defaults every module to NONE for an unconfigured user", func(t *testing.T) {
		t.Parallel()

		store := testfixtures.NewMemoryStore()
		svc := newTestPermissionService(store, testfixtures.NewClock(time.Time{}))

		permissions, err := svc.GetPermissions(context.Background(), "user-unknown")
		if err != nil {
			t.Fatalf("GetPermissions failed: %v", err)
		}

		want := []ModulePermission{
			{Module: ModuleMeetings, MyLevel: LevelNone, AllLevel: LevelNone},
			{Module: ModuleDeadlines, MyLevel: LevelNone, AllLevel: LevelNone},
			{Module: ModuleSchedule, MyLevel: LevelNone, AllLevel: LevelNone},
		}
		if !reflect.DeepEqual(permissions, want) {
			t.Fatalf("unexpected permissions: %+v", permissions)
		}
	})

	t.Run("merges stored records with defaults", func(t *testing.T) {
		t.Parallel()

		store := testfixtures.NewMemoryStore()
		user := testfixtures.NewUserFixture()
		store.SeedUsers(user)
		svc := newTestPermissionService(store, testfixtures.NewClock(time.Time{}))

		if _, err := svc.SetPermissions(context.Background(), SetPermissionsParams{
			Principal: adminPrincipal,
			UserID:    user.ID,
			Permissions: []ModulePermission{
				{Module: ModuleSchedule, MyLevel: LevelEdit, AllLevel: LevelView},
			},
		}); err != nil {
			t.Fatalf("SetPermissions failed: %v", err)
		}

		permissions, err := svc.GetPermissions(context.Background(), user.ID)
		if err != nil {
			t.Fatalf("GetPermissions failed: %v", err)
		}
		want := []ModulePermission{
			{Module: ModuleMeetings, MyLevel: LevelNone, AllLevel: LevelNone},
			{Module: ModuleDeadlines, MyLevel: LevelNone, AllLevel: LevelNone},
			{Module: ModuleSchedule, MyLevel: LevelEdit, AllLevel: LevelView},
		}
		if !reflect.DeepEqual(permissions, want) {
			t.Fatalf("unexpected permissions: %+v", permissions)
		}
	})
}

func TestPermissionService_SetPermissions(t *testing.T) {
	t.Parallel()

	t.Run("is idempotent", func(t *testing.T) {
		t.Parallel()

		store := testfixtures.NewMemoryStore()
		user := testfixtures.NewUserFixture()
		store.SeedUsers(user)
		svc := newTestPermissionService(store, testfixtures.NewClock(time.Time{}))

		params := SetPermissionsParams{
			Principal: adminPrincipal,
			UserID:    user.ID,
			Permissions: []ModulePermission{
				{Module: ModuleMeetings, MyLevel: LevelView, AllLevel: LevelNone},
				{Module: ModuleDeadlines, MyLevel: LevelEdit, AllLevel: LevelEdit},
			},
		}
		first, err := svc.SetPermissions(context.Background(), params)
		if err != nil {
			t.Fatalf("first SetPermissions failed: %v", err)
		}
		second, err := svc.SetPermissions(context.Background(), params)
		if err != nil {
			t.Fatalf("second SetPermissions failed: %v", err)
		}
		if !reflect.DeepEqual(first, second) {
			t.Fatalf("expected identical results, got %+v then %+v", first, second)
		}
	})

	t.Run("leaves omitted modules unchanged", func(t *testing.T) {
		t.Parallel()

		store := testfixtures.NewMemoryStore()
		user := testfixtures.NewUserFixture()
		store.SeedUsers(user)
		svc := newTestPermissionService(store, testfixtures.NewClock(time.Time{}))

		seed := SetPermissionsParams{
			Principal: adminPrincipal,
			UserID:    user.ID,
			Permissions: []ModulePermission{
				{Module: ModuleMeetings, MyLevel: LevelEdit, AllLevel: LevelEdit},
			},
		}
		if _, err := svc.SetPermissions(context.Background(), seed); err != nil {
			t.Fatalf("seed SetPermissions failed: %v", err)
		}

		partial := SetPermissionsParams{
			Principal: adminPrincipal,
			UserID:    user.ID,
			Permissions: []ModulePermission{
				{Module: ModuleSchedule, MyLevel: LevelView, AllLevel: LevelView},
			},
		}
		if _, err := svc.SetPermissions(context.Background(), partial); err != nil {
			t.Fatalf("partial SetPermissions failed: %v", err)
		}

		permissions, err := svc.GetPermissions(context.Background(), user.ID)
		if err != nil {
			t.Fatalf("GetPermissions failed: %v", err)
		}
		want := []ModulePermission{
			{Module: ModuleMeetings, MyLevel: LevelEdit, AllLevel: LevelEdit},
			{Module: ModuleDeadlines, MyLevel: LevelNone, AllLevel: LevelNone},
			{Module: ModuleSchedule, MyLevel: LevelView, AllLevel: LevelView},
		}
		if !reflect.DeepEqual(permissions, want) {
			t.Fatalf("unexpected permissions: %+v", permissions)
		}
	})

	t.Run("rejects undeclared modules and levels", func(t *testing.T) {
		t.Parallel()

		store := testfixtures.NewMemoryStore()
		user := testfixtures.NewUserFixture()
		store.SeedUsers(user)
		svc := newTestPermissionService(store, testfixtures.NewClock(time.Time{}))

		_, err := svc.SetPermissions(context.Background(), SetPermissionsParams{
			Principal: adminPrincipal,
			UserID:    user.ID,
			Permissions: []ModulePermission{
				{Module: "billing", MyLevel: LevelView, AllLevel: "SUPER"},
			},
		})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected a validation error, got %v", err)
		}
		if len(vErr.FieldErrors) != 2 {
			t.Fatalf("expected module and level errors, got %v", vErr.FieldErrors)
		}
	})

	t.Run("reports an unknown user as not found", func(t *testing.T) {
		t.Parallel()

		svc := newTestPermissionService(testfixtures.NewMemoryStore(), testfixtures.NewClock(time.Time{}))

		_, err := svc.SetPermissions(context.Background(), SetPermissionsParams{
			Principal: adminPrincipal,
			UserID:    "user-missing",
			Permissions: []ModulePermission{
				{Module: ModuleMeetings, MyLevel: LevelView, AllLevel: LevelNone},
			},
		})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("requires the administrator role", func(t *testing.T) {
		t.Parallel()

		svc := newTestPermissionService(testfixtures.NewMemoryStore(), testfixtures.NewClock(time.Time{}))

		_, err := svc.SetPermissions(context.Background(), SetPermissionsParams{Principal: memberPrincipal, UserID: "user"})
		if !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}

		_, err = svc.SetPermissions(context.Background(), SetPermissionsParams{UserID: "user"})
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})
}

func TestPermissionService_ListUserAccess(t *testing.T) {
	t.Parallel()

	t.Run("returns every user ordered by name with resolved permissions", func(t *testing.T) {
		t.Parallel()

		store := testfixtures.NewMemoryStore()
		zoe := testfixtures.NewUserFixture(testfixtures.WithUserName("Zoe"))
		amir := testfixtures.NewUserFixture(testfixtures.WithUserName("Amir"))
		store.SeedUsers(zoe, amir)
		svc := newTestPermissionService(store, testfixtures.NewClock(time.Time{}))

		if _, err := svc.SetPermissions(context.Background(), SetPermissionsParams{
			Principal: adminPrincipal,
			UserID:    zoe.ID,
			Permissions: []ModulePermission{
				{Module: ModuleMeetings, MyLevel: LevelEdit, AllLevel: LevelView},
			},
		}); err != nil {
			t.Fatalf("SetPermissions failed: %v", err)
		}

		access, err := svc.ListUserAccess(context.Background(), adminPrincipal)
		if err != nil {
			t.Fatalf("ListUserAccess failed: %v", err)
		}
		if len(access) != 2 {
			t.Fatalf("expected 2 users, got %d", len(access))
		}
		if access[0].User.Name != "Amir" || access[1].User.Name != "Zoe" {
			t.Fatalf("expected name ordering, got %s then %s", access[0].User.Name, access[1].User.Name)
		}
		for _, entry := range access {
			if len(entry.Permissions) != len(Modules()) {
				t.Fatalf("expected one permission per module for %s, got %d", entry.User.Name, len(entry.Permissions))
			}
		}
		if access[1].Permissions[0].MyLevel != LevelEdit {
			t.Fatalf("expected Zoe's meetings level to be EDIT, got %s", access[1].Permissions[0].MyLevel)
		}
	})

	t.Run("requires the administrator role", func(t *testing.T) {
		t.Parallel()

		svc := newTestPermissionService(testfixtures.NewMemoryStore(), testfixtures.NewClock(time.Time{}))

		if _, err := svc.ListUserAccess(context.Background(), memberPrincipal); !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
	})
}

func TestLevel_AtLeast(t *testing.T) {
	t.Parallel()

	cases := []struct {
		level Level
		other Level
		want  bool
	}{
		{LevelNone, LevelNone, true},
		{LevelNone, LevelView, false},
		{LevelView, LevelNone, true},
		{LevelView, LevelEdit, false},
		{LevelEdit, LevelView, true},
		{LevelEdit, LevelEdit, true},
		{"BOGUS", LevelNone, true},
		{"BOGUS", LevelView, false},
	}
	for _, tc := range cases {
		if got := tc.level.AtLeast(tc.other); got != tc.want {
			t.Errorf("%s.AtLeast(%s) = %v, want %v", tc.level, tc.other, got, tc.want)
		}
	}
}
