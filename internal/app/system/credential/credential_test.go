package credential

import (
	"context"
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/dalemusser/carline/internal/domain/models"
)

type fakeUsers struct {
	byEmail map[string]*models.User
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	if u, ok := f.byEmail[email]; ok {
		return u, nil
	}
	return nil, mongo.ErrNoDocuments
}

type fakeSchools struct {
	byID map[primitive.ObjectID]*models.School
}

func (f *fakeSchools) GetByID(_ context.Context, id primitive.ObjectID) (*models.School, error) {
	if s, ok := f.byID[id]; ok {
		return s, nil
	}
	return nil, mongo.ErrNoDocuments
}

func TestHashAndCheck(t *testing.T) {
	hash, err := Hash("car-line-2026")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "car-line-2026" {
		t.Fatal("hash should not equal plaintext")
	}

	if err := Check(hash, "car-line-2026"); err != nil {
		t.Errorf("correct password rejected: %v", err)
	}
	if err := Check(hash, "wrong"); !errors.Is(err, ErrWrongPassword) {
		t.Errorf("wrong password: got %v, want ErrWrongPassword", err)
	}
}

func newTestVerifier(t *testing.T) (*Verifier, primitive.ObjectID) {
	t.Helper()

	hash, err := Hash("oak-pass")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	schoolID := primitive.NewObjectID()
	v := &Verifier{
		Users: &fakeUsers{byEmail: map[string]*models.User{
			"pat@oak.edu": {
				ID:       primitive.NewObjectID(),
				SchoolID: schoolID,
				Name:     "Pat Admin",
				Email:    "pat@oak.edu",
				Role:     models.RoleAdmin,
			},
			"orphan@oak.edu": {
				ID:       primitive.NewObjectID(),
				SchoolID: primitive.NewObjectID(), // no such school
				Email:    "orphan@oak.edu",
				Role:     models.RoleTeacher,
			},
		}},
		Schools: &fakeSchools{byID: map[primitive.ObjectID]*models.School{
			schoolID: {ID: schoolID, Name: "Oak Elementary", PasswordHash: hash},
		}},
	}
	return v, schoolID
}

func TestVerify_Success(t *testing.T) {
	v, schoolID := newTestVerifier(t)

	u, sch, err := v.Verify(context.Background(), "pat@oak.edu", "oak-pass")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if u.Email != "pat@oak.edu" {
		t.Errorf("user email = %q", u.Email)
	}
	if sch.ID != schoolID {
		t.Errorf("school id = %v, want %v", sch.ID, schoolID)
	}
}

func TestVerify_UnknownEmail(t *testing.T) {
	v, _ := newTestVerifier(t)

	_, _, err := v.Verify(context.Background(), "nobody@oak.edu", "oak-pass")
	if !errors.Is(err, ErrUnknownEmail) {
		t.Errorf("got %v, want ErrUnknownEmail", err)
	}
}

func TestVerify_WrongPassword(t *testing.T) {
	v, _ := newTestVerifier(t)

	_, _, err := v.Verify(context.Background(), "pat@oak.edu", "bad-pass")
	if !errors.Is(err, ErrWrongPassword) {
		t.Errorf("got %v, want ErrWrongPassword", err)
	}
}

func TestVerify_SchoolMissing(t *testing.T) {
	v, _ := newTestVerifier(t)

	_, _, err := v.Verify(context.Background(), "orphan@oak.edu", "oak-pass")
	if !errors.Is(err, ErrSchoolMissing) {
		t.Errorf("got %v, want ErrSchoolMissing", err)
	}
}
