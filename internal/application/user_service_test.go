package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/team-calendar/internal/testfixtures"
)

func newTestUserService(store *testfixtures.MemoryStore) *UserService {
	clock := testfixtures.NewClock(time.Time{})
	ids := testfixtures.NewIDGenerator("user")
	hash := func(password string) (string, error) {
		return CreatePasswordHash(password, fastArgon2idParams)
	}
	return NewUserService(store, hash, clock.NowFunc(), ids.NextFunc(), nil)
}

func TestUserService_Create(t *testing.T) {
	t.Parallel()

	t.Run("stores an account without a password", func(t *testing.T) {
		t.Parallel()

		store := testfixtures.NewMemoryStore()
		svc := newTestUserService(store)

		user, err := svc.Create(context.Background(), CreateUserParams{
			Name:  "Alice",
			Email: " Alice@Example.com ",
		})
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if user.Email != "alice@example.com" {
			t.Fatalf("expected the email to be normalised, got %q", user.Email)
		}
		if user.Role != RoleUser {
			t.Fatalf("expected the role to default to USER, got %s", user.Role)
		}

		stored, err := store.GetUser(context.Background(), user.ID)
		if err != nil {
			t.Fatalf("GetUser failed: %v", err)
		}
		if stored.PasswordHash != nil {
			t.Fatal("expected no stored password hash")
		}
	})

	t.Run("hashes the password when one is given", func(t *testing.T) {
		t.Parallel()

		store := testfixtures.NewMemoryStore()
		svc := newTestUserService(store)

		user, err := svc.Create(context.Background(), CreateUserParams{
			Name:     "Bob",
			Email:    "bob@example.com",
			Role:     RoleAdmin,
			Password: "s3cret",
		})
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}

		stored, err := store.GetUser(context.Background(), user.ID)
		if err != nil {
			t.Fatalf("GetUser failed: %v", err)
		}
		if stored.PasswordHash == nil {
			t.Fatal("expected a stored password hash")
		}
		if err := VerifyPassword(*stored.PasswordHash, "s3cret"); err != nil {
			t.Fatalf("expected the stored hash to verify, got %v", err)
		}
	})

	t.Run("rejects a duplicate email", func(t *testing.T) {
		t.Parallel()

		store := testfixtures.NewMemoryStore()
		svc := newTestUserService(store)

		params := CreateUserParams{Name: "Carol", Email: "carol@example.com"}
		if _, err := svc.Create(context.Background(), params); err != nil {
			t.Fatalf("first Create failed: %v", err)
		}
		if _, err := svc.Create(context.Background(), params); !errors.Is(err, ErrConflict) {
			t.Fatalf("expected ErrConflict, got %v", err)
		}
	})

	t.Run("validates fields", func(t *testing.T) {
		t.Parallel()

		svc := newTestUserService(testfixtures.NewMemoryStore())

		_, err := svc.Create(context.Background(), CreateUserParams{Name: " ", Email: "not-an-address", Role: "ROOT"})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected a validation error, got %v", err)
		}
		for _, field := range []string{"name", "email", "role"} {
			if _, ok := vErr.FieldErrors[field]; !ok {
				t.Fatalf("expected an error on %s, got %v", field, vErr.FieldErrors)
			}
		}
	})
}

func TestUserService_List(t *testing.T) {
	t.Parallel()

	t.Run("orders users by name", func(t *testing.T) {
		t.Parallel()

		store := testfixtures.NewMemoryStore()
		store.SeedUsers(
			testfixtures.NewUserFixture(testfixtures.WithUserName("Zoe")),
			testfixtures.NewUserFixture(testfixtures.WithUserName("Amir")),
			testfixtures.NewUserFixture(testfixtures.WithUserName("Noor")),
		)
		svc := newTestUserService(store)

		users, err := svc.List(context.Background(), memberPrincipal)
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(users) != 3 {
			t.Fatalf("expected 3 users, got %d", len(users))
		}
		if users[0].Name != "Amir" || users[1].Name != "Noor" || users[2].Name != "Zoe" {
			t.Fatalf("expected name ordering, got %s, %s, %s", users[0].Name, users[1].Name, users[2].Name)
		}
	})

	t.Run("requires an authenticated identity", func(t *testing.T) {
		t.Parallel()

		svc := newTestUserService(testfixtures.NewMemoryStore())

		if _, err := svc.List(context.Background(), Principal{}); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})
}
