// internal/app/dismissal/engine.go

// Package dismissal holds the pickup call lifecycle and the dashboard
// roster projection. The engine owns the waiting -> departed transition;
// the projection turns raw calls and students into the paged view the
// dashboard renders.
package dismissal

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/dalemusser/carline/internal/app/system/metrics"
	"github.com/dalemusser/carline/internal/app/system/normalize"
	"github.com/dalemusser/carline/internal/domain/models"
)

// ErrEmptyTag rejects a call submission whose tag is blank after trimming.
var ErrEmptyTag = errors.New("tag must not be empty")

// StudentCounter counts roster students matching a tag at submit time.
type StudentCounter interface {
	CountByTag(ctx context.Context, schoolID primitive.ObjectID, tag string) (int64, error)
}

// CallRecorder persists calls and their single status transition.
type CallRecorder interface {
	Create(ctx context.Context, c models.Call) (models.Call, error)
	MarkDeparted(ctx context.Context, id primitive.ObjectID, at time.Time) (int64, error)
}

// Engine runs the call lifecycle.
type Engine struct {
	Students StudentCounter
	Calls    CallRecorder
	Log      *zap.Logger
	Metrics  *metrics.Collector
}

// Submit records a pickup call for a tag. The student count is snapshotted
// at submit time; the call keeps that count even if the roster changes
// afterwards. A tag with no matching students is still a valid call.
func (e *Engine) Submit(ctx context.Context, schoolID primitive.ObjectID, tag string) (models.Call, error) {
	tag = normalize.Tag(tag)
	if tag == "" {
		return models.Call{}, ErrEmptyTag
	}

	count, err := e.Students.CountByTag(ctx, schoolID, tag)
	if err != nil {
		return models.Call{}, err
	}

	call, err := e.Calls.Create(ctx, models.Call{
		SchoolID:     schoolID,
		Tag:          tag,
		CalledAt:     time.Now(),
		Status:       models.CallWaiting,
		StudentCount: int(count),
	})
	if err != nil {
		return models.Call{}, err
	}

	e.Log.Info("call submitted",
		zap.String("school_id", schoolID.Hex()),
		zap.String("tag", tag),
		zap.Int("student_count", call.StudentCount))
	e.Metrics.RecordCallSubmitted()

	return call, nil
}

// Depart marks a waiting call departed. It reports whether this invocation
// performed the transition; false means the call was already departed or
// does not exist, which callers treat as success.
func (e *Engine) Depart(ctx context.Context, callID primitive.ObjectID) (bool, error) {
	modified, err := e.Calls.MarkDeparted(ctx, callID, time.Now())
	if err != nil {
		return false, err
	}
	if modified == 0 {
		return false, nil
	}

	e.Log.Info("call departed", zap.String("call_id", callID.Hex()))
	e.Metrics.RecordCallDeparted()
	return true, nil
}
