package userstore

import (
	"context"
	"errors"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
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
	return &Store{c: db.Collection(namespace.Qualify(ns, "users"))}
}

var (
	// ErrDuplicateEmail is returned when attempting to create a user with an email that already exists.
	ErrDuplicateEmail = errors.New("a user with this email already exists")
	errBadRole        = errors.New(`role must be "admin"|"teacher"`)
)

// Create inserts a new staff account after normalizing & validating fields.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	u.ID = primitive.NewObjectID()
	u.Name = normalize.Name(u.Name)
	u.Email = normalize.Email(u.Email)
	u.Role = normalize.Role(u.Role)

	switch u.Role {
	case models.RoleAdmin, models.RoleTeacher:
		// ok
	default:
		return models.User{}, errBadRole
	}

	u.CreatedAt = time.Now()

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return u, nil
}

// GetByID loads a user by ObjectID. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail looks up a user by normalized email. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// ListBySchool returns all staff for a school, sorted by name.
func (s *Store) ListBySchool(ctx context.Context, schoolID primitive.ObjectID) ([]models.User, error) {
	cur, err := s.c.Find(ctx, bson.M{"school_id": schoolID},
		options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// CountAdmins returns how many admin accounts the school has. The last-admin
// guards depend on this count.
func (s *Store) CountAdmins(ctx context.Context, schoolID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"school_id": schoolID, "role": models.RoleAdmin})
}

// UpdateRole changes a user's role, scoped to the school so one school's
// admin cannot touch another school's staff.
// Returns the number of documents matched (0 or 1).
func (s *Store) UpdateRole(ctx context.Context, schoolID, id primitive.ObjectID, role string) (int64, error) {
	role = normalize.Role(role)
	if role != models.RoleAdmin && role != models.RoleTeacher {
		return 0, errBadRole
	}

	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "school_id": schoolID},
		bson.M{"$set": bson.M{"role": role}})
	if err != nil {
		return 0, err
	}
	return res.MatchedCount, nil
}

// Delete removes a user, scoped to the school.
// Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, schoolID, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id, "school_id": schoolID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
