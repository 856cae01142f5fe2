package studentstore

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
	return &Store{c: db.Collection(namespace.Qualify(ns, "students"))}
}

// Collection exposes the underlying collection for change-stream watchers.
func (s *Store) Collection() *mongo.Collection { return s.c }

// Create inserts one student after normalizing fields. Tags are not unique;
// siblings ride in the same car and share a tag.
func (s *Store) Create(ctx context.Context, st models.Student) (models.Student, error) {
	st.ID = primitive.NewObjectID()
	st.Name = normalize.Name(st.Name)
	st.Tag = normalize.Tag(st.Tag)
	st.Teacher = normalize.Name(st.Teacher)
	st.CreatedAt = time.Now()

	if _, err := s.c.InsertOne(ctx, st); err != nil {
		return models.Student{}, err
	}
	return st, nil
}

// InsertMany inserts a batch of students unordered, so one bad document does
// not abort the rest of a roster import. Returns the number inserted.
func (s *Store) InsertMany(ctx context.Context, schoolID primitive.ObjectID, rows []models.Student) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	now := time.Now()
	docs := make([]any, 0, len(rows))
	for _, st := range rows {
		st.ID = primitive.NewObjectID()
		st.SchoolID = schoolID
		st.Name = normalize.Name(st.Name)
		st.Tag = normalize.Tag(st.Tag)
		st.Teacher = normalize.Name(st.Teacher)
		st.CreatedAt = now
		docs = append(docs, st)
	}

	res, err := s.c.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	if res != nil && len(res.InsertedIDs) > 0 {
		// Partial success still counts the documents that landed.
		return len(res.InsertedIDs), err
	}
	return 0, err
}

// ListBySchool returns all students for a school, sorted by name.
func (s *Store) ListBySchool(ctx context.Context, schoolID primitive.ObjectID) ([]models.Student, error) {
	cur, err := s.c.Find(ctx, bson.M{"school_id": schoolID},
		options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var students []models.Student
	if err := cur.All(ctx, &students); err != nil {
		return nil, err
	}
	return students, nil
}

// ListAll returns every student across schools. The dashboard mirror uses
// this for its snapshot refresh.
func (s *Store) ListAll(ctx context.Context) ([]models.Student, error) {
	cur, err := s.c.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var students []models.Student
	if err := cur.All(ctx, &students); err != nil {
		return nil, err
	}
	return students, nil
}

// CountByTag counts students whose tag matches exactly, scoped to the
// school. Call submission snapshots this count.
func (s *Store) CountByTag(ctx context.Context, schoolID primitive.ObjectID, tag string) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"school_id": schoolID, "tag": normalize.Tag(tag)})
}

// Delete removes a student, scoped to the school.
// Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, schoolID, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id, "school_id": schoolID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
