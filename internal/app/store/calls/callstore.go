package callstore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dalemusser/carline/internal/app/system/namespace"
	"github.com/dalemusser/carline/internal/app/system/normalize"
	"github.com/dalemusser/carline/internal/domain/models"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database, ns string) *Store {
	return &Store{c: db.Collection(namespace.Qualify(ns, "calls"))}
}

// Collection exposes the underlying collection for change-stream watchers.
func (s *Store) Collection() *mongo.Collection { return s.c }

// Create inserts a pickup call. CalledAt defaults to now and Status to
// waiting when unset, so callers only have to fill in Tag, SchoolID and the
// student count snapshot.
func (s *Store) Create(ctx context.Context, c models.Call) (models.Call, error) {
	c.ID = primitive.NewObjectID()
	c.Tag = normalize.Tag(c.Tag)
	if c.CalledAt.IsZero() {
		c.CalledAt = time.Now()
	}
	if c.Status == "" {
		c.Status = models.CallWaiting
	}

	if _, err := s.c.InsertOne(ctx, c); err != nil {
		return models.Call{}, err
	}
	return c, nil
}

// MarkDeparted transitions a waiting call to departed, recording the
// departure time. The filter includes the waiting status, so repeating the
// operation on an already-departed call matches nothing and changes nothing.
// Returns the number of documents modified (0 or 1).
func (s *Store) MarkDeparted(ctx context.Context, id primitive.ObjectID, at time.Time) (int64, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.CallWaiting},
		bson.M{"$set": bson.M{"status": models.CallDeparted, "departed_at": at}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// GetByID loads a call by ObjectID. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Call, error) {
	var c models.Call
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

// ListBySchool returns every call for a school, newest first. Clear-history
// uses this to find what to delete.
func (s *Store) ListBySchool(ctx context.Context, schoolID primitive.ObjectID) ([]models.Call, error) {
	return s.list(ctx, bson.M{"school_id": schoolID})
}

// ListForSchoolSince returns the school's calls with CalledAt at or after
// cutoff, newest first. The dashboard mirror loads the current day this way.
func (s *Store) ListForSchoolSince(ctx context.Context, schoolID primitive.ObjectID, cutoff time.Time) ([]models.Call, error) {
	return s.list(ctx, bson.M{
		"school_id": schoolID,
		"called_at": bson.M{"$gte": cutoff},
	})
}

// ListSince returns calls across all schools with CalledAt at or after
// cutoff. The dashboard mirror refreshes from this.
func (s *Store) ListSince(ctx context.Context, cutoff time.Time) ([]models.Call, error) {
	return s.list(ctx, bson.M{"called_at": bson.M{"$gte": cutoff}})
}

// ListRecent returns the most recent calls for a school, newest first,
// limited to n.
func (s *Store) ListRecent(ctx context.Context, schoolID primitive.ObjectID, n int64) ([]models.Call, error) {
	cur, err := s.c.Find(ctx, bson.M{"school_id": schoolID},
		options.Find().
			SetSort(bson.D{{Key: "called_at", Value: -1}}).
			SetLimit(n))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var calls []models.Call
	if err := cur.All(ctx, &calls); err != nil {
		return nil, err
	}
	return calls, nil
}

// Delete removes a single call, scoped to the school.
// Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, schoolID, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id, "school_id": schoolID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (s *Store) list(ctx context.Context, filter bson.M) ([]models.Call, error) {
	cur, err := s.c.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "called_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var calls []models.Call
	if err := cur.All(ctx, &calls); err != nil {
		return nil, err
	}
	return calls, nil
}
