package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/dalemusser/carline/internal/domain/models"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateSchool inserts a test school and returns it with its generated ID.
// The password hash is a placeholder; tests exercising login hash their own.
func (f *Fixtures) CreateSchool(ctx context.Context, name string) models.School {
	f.t.Helper()

	sch := models.School{
		ID:           primitive.NewObjectID(),
		Name:         name,
		PasswordHash: "test-hash",
		CreatedAt:    time.Now().UTC(),
	}

	if _, err := f.db.Collection("schools").InsertOne(ctx, sch); err != nil {
		f.t.Fatalf("failed to create test school: %v", err)
	}
	return sch
}

// CreateUser inserts a staff account for a school.
func (f *Fixtures) CreateUser(ctx context.Context, schoolID primitive.ObjectID, name, email, role string) models.User {
	f.t.Helper()

	u := models.User{
		ID:        primitive.NewObjectID(),
		SchoolID:  schoolID,
		Name:      name,
		Email:     email,
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}

	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// CreateStudent inserts a student for a school.
func (f *Fixtures) CreateStudent(ctx context.Context, schoolID primitive.ObjectID, name, tag, teacher string) models.Student {
	f.t.Helper()

	st := models.Student{
		ID:        primitive.NewObjectID(),
		SchoolID:  schoolID,
		Name:      name,
		Tag:       tag,
		Teacher:   teacher,
		CreatedAt: time.Now().UTC(),
	}

	if _, err := f.db.Collection("students").InsertOne(ctx, st); err != nil {
		f.t.Fatalf("failed to create test student: %v", err)
	}
	return st
}

// CreateCall inserts a waiting call for a school.
func (f *Fixtures) CreateCall(ctx context.Context, schoolID primitive.ObjectID, tag string, studentCount int) models.Call {
	f.t.Helper()

	c := models.Call{
		ID:           primitive.NewObjectID(),
		SchoolID:     schoolID,
		Tag:          tag,
		CalledAt:     time.Now().UTC(),
		Status:       models.CallWaiting,
		StudentCount: studentCount,
	}

	if _, err := f.db.Collection("calls").InsertOne(ctx, c); err != nil {
		f.t.Fatalf("failed to create test call: %v", err)
	}
	return c
}
