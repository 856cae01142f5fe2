package userstore_test

import (
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	userstore "github.com/dalemusser/carline/internal/app/store/users"
	"github.com/dalemusser/carline/internal/domain/models"
	"github.com/dalemusser/carline/internal/testutil"
)

func TestStore_Create_Admin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db, "")
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user := models.User{
		SchoolID: primitive.NewObjectID(),
		Name:     "Pat Admin",
		Email:    "PAT@Oak.EDU",
		Role:     "admin",
	}

	created, err := store.Create(ctx, user)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if created.ID == primitive.NilObjectID {
		t.Error("expected ID to be assigned")
	}
	if created.Email != "pat@oak.edu" {
		t.Errorf("email not normalized: %q", created.Email)
	}
	if created.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}
}

func TestStore_Create_BadRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db, "")
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := store.Create(ctx, models.User{
		SchoolID: primitive.NewObjectID(),
		Name:     "Bad Role",
		Email:    "bad@oak.edu",
		Role:     "superuser",
	})
	if err == nil {
		t.Error("expected error for invalid role")
	}
}

func TestStore_GetByEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db, "")
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	sch := fixtures.CreateSchool(ctx, "Oak Elementary")
	fixtures.CreateUser(ctx, sch.ID, "Pat Admin", "pat@oak.edu", "admin")

	got, err := store.GetByEmail(ctx, "Pat@Oak.EDU")
	if err != nil {
		t.Fatalf("GetByEmail failed: %v", err)
	}
	if got.Name != "Pat Admin" {
		t.Errorf("name = %q", got.Name)
	}

	_, err = store.GetByEmail(ctx, "nobody@oak.edu")
	if !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("expected ErrNoDocuments, got %v", err)
	}
}

func TestStore_ListBySchool_Scoped(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db, "")
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	oak := fixtures.CreateSchool(ctx, "Oak Elementary")
	pine := fixtures.CreateSchool(ctx, "Pine Elementary")
	fixtures.CreateUser(ctx, oak.ID, "Pat Admin", "pat@oak.edu", "admin")
	fixtures.CreateUser(ctx, oak.ID, "Lee Teacher", "lee@oak.edu", "teacher")
	fixtures.CreateUser(ctx, pine.ID, "Other Admin", "admin@pine.edu", "admin")

	users, err := store.ListBySchool(ctx, oak.ID)
	if err != nil {
		t.Fatalf("ListBySchool failed: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("got %d users, want 2", len(users))
	}
	for _, u := range users {
		if u.SchoolID != oak.ID {
			t.Errorf("user %q leaked from another school", u.Email)
		}
	}
}

func TestStore_CountAdmins(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db, "")
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	sch := fixtures.CreateSchool(ctx, "Oak Elementary")
	fixtures.CreateUser(ctx, sch.ID, "Pat Admin", "pat@oak.edu", "admin")
	fixtures.CreateUser(ctx, sch.ID, "Lee Teacher", "lee@oak.edu", "teacher")

	n, err := store.CountAdmins(ctx, sch.ID)
	if err != nil {
		t.Fatalf("CountAdmins failed: %v", err)
	}
	if n != 1 {
		t.Errorf("admins = %d, want 1", n)
	}
}

func TestStore_UpdateRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db, "")
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	sch := fixtures.CreateSchool(ctx, "Oak Elementary")
	u := fixtures.CreateUser(ctx, sch.ID, "Lee Teacher", "lee@oak.edu", "teacher")

	matched, err := store.UpdateRole(ctx, sch.ID, u.ID, "admin")
	if err != nil {
		t.Fatalf("UpdateRole failed: %v", err)
	}
	if matched != 1 {
		t.Fatalf("matched = %d, want 1", matched)
	}

	got, err := store.GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Role != models.RoleAdmin {
		t.Errorf("role = %q, want admin", got.Role)
	}

	// Wrong school matches nothing.
	matched, err = store.UpdateRole(ctx, primitive.NewObjectID(), u.ID, "teacher")
	if err != nil {
		t.Fatalf("UpdateRole (wrong school) failed: %v", err)
	}
	if matched != 0 {
		t.Errorf("cross-school update matched %d documents", matched)
	}
}

func TestStore_Delete_Scoped(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db, "")
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	sch := fixtures.CreateSchool(ctx, "Oak Elementary")
	u := fixtures.CreateUser(ctx, sch.ID, "Lee Teacher", "lee@oak.edu", "teacher")

	deleted, err := store.Delete(ctx, primitive.NewObjectID(), u.ID)
	if err != nil {
		t.Fatalf("Delete (wrong school) failed: %v", err)
	}
	if deleted != 0 {
		t.Error("cross-school delete should match nothing")
	}

	deleted, err = store.Delete(ctx, sch.ID, u.ID)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}
}
