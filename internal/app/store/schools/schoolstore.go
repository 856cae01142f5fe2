package schoolstore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/dalemusser/carline/internal/app/system/namespace"
	"github.com/dalemusser/carline/internal/app/system/normalize"
	"github.com/dalemusser/carline/internal/domain/models"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database, ns string) *Store {
	return &Store{c: db.Collection(namespace.Qualify(ns, "schools"))}
}

// Create inserts a new school. PasswordHash must already be hashed; this
// store never sees plaintext passwords.
func (s *Store) Create(ctx context.Context, sch models.School) (models.School, error) {
	sch.ID = primitive.NewObjectID()
	sch.Name = normalize.Name(sch.Name)
	sch.CreatedAt = time.Now()

	if _, err := s.c.InsertOne(ctx, sch); err != nil {
		return models.School{}, err
	}
	return sch, nil
}

// GetByID loads a school by ObjectID. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.School, error) {
	var sch models.School
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&sch); err != nil {
		return nil, err
	}
	return &sch, nil
}

// UpdatePassword replaces the school's password hash.
// Returns the number of documents matched (0 or 1).
func (s *Store) UpdatePassword(ctx context.Context, id primitive.ObjectID, passwordHash string) (int64, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"password_hash": passwordHash}})
	if err != nil {
		return 0, err
	}
	return res.MatchedCount, nil
}

// Delete removes a school by ID. Used to compensate when registration fails
// after the school document was inserted.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
