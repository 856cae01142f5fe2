// internal/app/mirror/watcher.go
package mirror

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// DefaultPollInterval is used when a Watcher is not given one.
const DefaultPollInterval = 5 * time.Second

// Watcher keeps one collection mirrored. It prefers MongoDB change streams
// and falls back to interval polling when the deployment doesn't support
// them (standalone servers, for instance). Every trigger causes a full
// re-list; the mirror's replace semantics make that correct regardless of
// which document changed.
type Watcher[T any] struct {
	Name string // collection name, for logs

	// Coll is watched for change events. May be nil in tests; Run then polls.
	Coll *mongo.Collection

	// List fetches the current snapshot across schools.
	List func(ctx context.Context) ([]T, error)
	// Key extracts the owning school from an item.
	Key func(T) primitive.ObjectID
	// Apply replaces one school's snapshot in the mirror.
	Apply func(schoolID primitive.ObjectID, items []T)
	// Notify is called after a school's snapshot changed. Optional.
	Notify func(schoolID primitive.ObjectID)

	PollInterval time.Duration
	Log          *zap.Logger

	// schools seen in the previous refresh, so emptied schools get an
	// explicit empty replace.
	prev map[primitive.ObjectID]struct{}
}

// Run blocks until ctx is canceled. It refreshes once at start so the
// mirror is warm before the first request arrives.
func (w *Watcher[T]) Run(ctx context.Context) {
	if w.PollInterval <= 0 {
		w.PollInterval = DefaultPollInterval
	}

	if err := w.refresh(ctx); err != nil {
		w.Log.Warn("initial mirror refresh failed",
			zap.String("collection", w.Name), zap.Error(err))
	}

	if w.Coll != nil {
		if w.runChangeStream(ctx) {
			return
		}
		// Change streams unavailable; fall through to polling.
	}
	w.poll(ctx)
}

// runChangeStream consumes change events until ctx ends. It returns false
// if the stream could not be opened or died, signaling the caller to poll.
func (w *Watcher[T]) runChangeStream(ctx context.Context) bool {
	cs, err := w.Coll.Watch(ctx, mongo.Pipeline{})
	if err != nil {
		w.Log.Info("change streams unavailable; polling instead",
			zap.String("collection", w.Name), zap.Error(err))
		return false
	}
	defer cs.Close(ctx)

	w.Log.Info("watching collection via change stream",
		zap.String("collection", w.Name))

	for cs.Next(ctx) {
		if err := w.refresh(ctx); err != nil {
			w.Log.Warn("mirror refresh failed",
				zap.String("collection", w.Name), zap.Error(err))
		}
	}

	if ctx.Err() != nil {
		return true
	}
	w.Log.Warn("change stream ended; polling instead",
		zap.String("collection", w.Name), zap.Error(cs.Err()))
	return false
}

func (w *Watcher[T]) poll(ctx context.Context) {
	ticker := time.NewTicker(w.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.refresh(ctx); err != nil {
				w.Log.Warn("mirror refresh failed",
					zap.String("collection", w.Name), zap.Error(err))
			}
		}
	}
}

// refresh re-lists the collection, replaces every school's snapshot, and
// clears schools that vanished since the previous pass.
func (w *Watcher[T]) refresh(ctx context.Context) error {
	items, err := w.List(ctx)
	if err != nil {
		return err
	}

	grouped := make(map[primitive.ObjectID][]T)
	for _, item := range items {
		id := w.Key(item)
		grouped[id] = append(grouped[id], item)
	}

	for id, group := range grouped {
		w.Apply(id, group)
	}
	for id := range w.prev {
		if _, still := grouped[id]; !still {
			w.Apply(id, nil)
		}
	}

	// Notify the union of old and new schools.
	notified := make(map[primitive.ObjectID]struct{}, len(grouped))
	if w.Notify != nil {
		for id := range grouped {
			w.Notify(id)
			notified[id] = struct{}{}
		}
		for id := range w.prev {
			if _, done := notified[id]; !done {
				w.Notify(id)
			}
		}
	}

	w.prev = make(map[primitive.ObjectID]struct{}, len(grouped))
	for id := range grouped {
		w.prev[id] = struct{}{}
	}
	return nil
}
