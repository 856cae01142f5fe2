// internal/domain/models/student.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Student is one enrolled child. Tag identifies the family car, not the
// student, so several siblings may carry the same tag; tag equality is
// always exact string comparison.
type Student struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SchoolID primitive.ObjectID `bson:"school_id" json:"school_id"`
	Name     string             `bson:"name" json:"name"`
	Tag      string             `bson:"tag" json:"tag"`
	Teacher  string             `bson:"teacher" json:"teacher"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
