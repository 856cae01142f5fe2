// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Valid user roles.
const (
	RoleAdmin   = "admin"
	RoleTeacher = "teacher"
)

// User is a staff account scoped to a school. Email is the login identity
// and is unique (case-insensitively) across the whole system; the password
// lives on the School, not here.
//
// Invariant: every school keeps at least one admin at all times. Both
// deletion and role downgrade of the last admin are rejected.
type User struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SchoolID primitive.ObjectID `bson:"school_id" json:"school_id"`
	Name     string             `bson:"name" json:"name"`
	Email    string             `bson:"email" json:"email"` // stored normalized lowercase
	Role     string             `bson:"role" json:"role"`   // admin | teacher

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }
