package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/devmarket/internal/apperror"
	"github.com/sakif/devmarket/internal/model"
)

func createTestUser(t *testing.T, db *DB, email string, role model.Role) *model.User {
	t.Helper()
	u := &model.User{Email: email, Name: "Test " + string(role), Role: role, Active: true, PasswordHash: "$2a$04$hash"}
	if err := db.Users().Create(context.Background(), u); err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// =========================================================================
// CREATE
// =========================================================================

func TestUserCreate(t *testing.T) {
	db := newTestDB(t)

	u := createTestUser(t, db, "dev@example.com", model.RoleDeveloper)

	if u.ID == "" {
		t.Error("Create() did not set ID")
	}
	if u.CreatedAt.IsZero() || u.UpdatedAt.IsZero() {
		t.Error("Create() did not set timestamps")
	}
}

func TestUserCreate_DuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "dup@example.com", model.RoleBuyer)

	err := db.Users().Create(context.Background(), &model.User{Email: "dup@example.com", Role: model.RoleDeveloper})
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("Create() error = %v, want ErrConflict", err)
	}
}

// =========================================================================
// READ
// =========================================================================

func TestUserGetByID_PreservesPasswordHash(t *testing.T) {
	db := newTestDB(t)
	created := createTestUser(t, db, "a@example.com", model.RoleAdmin)

	got, err := db.Users().GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Email != "a@example.com" || got.Role != model.RoleAdmin || !got.Active {
		t.Errorf("GetByID() = %+v", got)
	}
	if got.PasswordHash != "$2a$04$hash" {
		t.Errorf("PasswordHash = %q, want the stored hash", got.PasswordHash)
	}
}

func TestUserGetByID_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.Users().GetByID(context.Background(), "missing")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("GetByID() error = %v, want ErrNotFound", err)
	}
}

func TestUserGetByEmail(t *testing.T) {
	db := newTestDB(t)
	created := createTestUser(t, db, "b@example.com", model.RoleBuyer)

	got, err := db.Users().GetByEmail(context.Background(), "b@example.com")
	if err != nil {
		t.Fatalf("GetByEmail() error = %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("GetByEmail() ID = %q, want %q", got.ID, created.ID)
	}

	if _, err := db.Users().GetByEmail(context.Background(), "nobody@example.com"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByEmail(unknown) error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// UPDATE / LIST
// =========================================================================

func TestUserUpdate(t *testing.T) {
	db := newTestDB(t)
	u := createTestUser(t, db, "c@example.com", model.RoleDeveloper)

	u.Name = "Renamed"
	u.Active = false
	if err := db.Users().Update(context.Background(), u); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, _ := db.Users().GetByID(context.Background(), u.ID)
	if got.Name != "Renamed" || got.Active {
		t.Errorf("after Update() = %+v", got)
	}
}

func TestUserUpdate_NotFound(t *testing.T) {
	db := newTestDB(t)

	err := db.Users().Update(context.Background(), &model.User{ID: "ghost", Email: "ghost@example.com", Role: model.RoleBuyer})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("Update() error = %v, want ErrNotFound", err)
	}
}

func TestUserListByRole(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "d1@example.com", model.RoleDeveloper)
	createTestUser(t, db, "b1@example.com", model.RoleBuyer)
	createTestUser(t, db, "d2@example.com", model.RoleDeveloper)

	devs, err := db.Users().ListByRole(context.Background(), model.RoleDeveloper)
	if err != nil {
		t.Fatalf("ListByRole() error = %v", err)
	}
	if len(devs) != 2 {
		t.Fatalf("ListByRole(DEVELOPER) returned %d users, want 2", len(devs))
	}
	for _, d := range devs {
		if d.Role != model.RoleDeveloper {
			t.Errorf("ListByRole(DEVELOPER) returned a %s", d.Role)
		}
	}

	admins, err := db.Users().ListByRole(context.Background(), model.RoleAdmin)
	if err != nil {
		t.Fatalf("ListByRole() error = %v", err)
	}
	if admins == nil || len(admins) != 0 {
		t.Errorf("ListByRole(ADMIN) = %v, want empty non-nil slice", admins)
	}
}
