// internal/domain/models/call.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Call status values. A call transitions exactly once, waiting -> departed.
const (
	CallWaiting  = "waiting"
	CallDeparted = "departed"
)

// Call records one car tag entered at the caller station. It represents a
// pickup request for zero or more students sharing that tag.
//
// StudentCount is a snapshot of how many students matched the tag at submit
// time; it is never recomputed afterwards.
type Call struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SchoolID primitive.ObjectID `bson:"school_id" json:"school_id"`
	Tag      string             `bson:"tag" json:"tag"`
	CalledAt time.Time          `bson:"called_at" json:"called_at"`
	Status   string             `bson:"status" json:"status"` // waiting | departed

	StudentCount int        `bson:"student_count" json:"student_count"`
	DepartedAt   *time.Time `bson:"departed_at,omitempty" json:"departed_at,omitempty"`
}

// Departed reports whether the call has reached its terminal state.
func (c *Call) Departed() bool { return c.Status == CallDeparted }
