// internal/domain/models/school.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// School is one registered school. All staff of a school share a single
// login password (stored hashed); the school name is fixed at registration.
type School struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	PasswordHash string             `bson:"password_hash" json:"-"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
