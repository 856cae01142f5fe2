package testutil

import (
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/dalemusser/carline/internal/app/system/auth"
	"github.com/dalemusser/carline/internal/domain/models"
)

// TestUser represents user data for testing HTTP handlers.
type TestUser struct {
	ID       string
	Name     string
	Email    string
	Role     string
	SchoolID string
}

// AdminUser returns a TestUser with admin role for the given school.
func AdminUser(schoolID primitive.ObjectID) TestUser {
	return TestUser{
		ID:       primitive.NewObjectID().Hex(),
		Name:     "Test Admin",
		Email:    "admin@test.com",
		Role:     models.RoleAdmin,
		SchoolID: schoolID.Hex(),
	}
}

// TeacherUser returns a TestUser with teacher role for the given school.
func TeacherUser(schoolID primitive.ObjectID) TestUser {
	return TestUser{
		ID:       primitive.NewObjectID().Hex(),
		Name:     "Test Teacher",
		Email:    "teacher@test.com",
		Role:     models.RoleTeacher,
		SchoolID: schoolID.Hex(),
	}
}

// WithUser adds a user to the request context for testing authenticated
// handlers. This bypasses the session middleware and injects the user
// directly.
func WithUser(r *http.Request, user TestUser) *http.Request {
	return auth.WithUser(r, &auth.SessionUser{
		ID:       user.ID,
		Name:     user.Name,
		Email:    user.Email,
		Role:     user.Role,
		SchoolID: user.SchoolID,
	})
}
