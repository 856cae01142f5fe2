// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/dalemusser/carline/internal/app/system/namespace"
)

/*
EnsureAll is called at startup. Each ensure* function is idempotent.
We aggregate errors so any problem is visible and startup can fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database, ns string, logger *zap.Logger) error {
	var problems []string

	if err := ensureUsers(ctx, db, ns, logger); err != nil {
		problems = append(problems, "users: "+err.Error())
	}
	if err := ensureStudents(ctx, db, ns, logger); err != nil {
		problems = append(problems, "students: "+err.Error())
	}
	if err := ensureCalls(ctx, db, ns, logger); err != nil {
		problems = append(problems, "calls: "+err.Error())
	}

	if len(problems) > 0 {
		return fmt.Errorf("index setup failed: %s", strings.Join(problems, "; "))
	}
	return nil
}

// ensureUsers indexes the staff accounts. Email is the login identity and is
// unique system-wide; school_id serves staff lists and admin counting.
func ensureUsers(ctx context.Context, db *mongo.Database, ns string, logger *zap.Logger) error {
	coll := db.Collection(namespace.Qualify(ns, "users"))
	return ensureIndexSet(ctx, coll, logger, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("uniq_email").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "school_id", Value: 1}},
			Options: options.Index().SetName("by_school"),
		},
	})
}

// ensureStudents indexes the roster. Tag counting at call submit time and
// teacher filtering both read by school first.
func ensureStudents(ctx context.Context, db *mongo.Database, ns string, logger *zap.Logger) error {
	coll := db.Collection(namespace.Qualify(ns, "students"))
	return ensureIndexSet(ctx, coll, logger, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "school_id", Value: 1}, {Key: "tag", Value: 1}},
			Options: options.Index().SetName("by_school_tag"),
		},
	})
}

// ensureCalls indexes the call log. Dashboards list a school's calls newest
// first; the mirror lists everything past a cutoff.
func ensureCalls(ctx context.Context, db *mongo.Database, ns string, logger *zap.Logger) error {
	coll := db.Collection(namespace.Qualify(ns, "calls"))
	return ensureIndexSet(ctx, coll, logger, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "school_id", Value: 1}, {Key: "called_at", Value: -1}},
			Options: options.Index().SetName("by_school_called_at"),
		},
		{
			Keys:    bson.D{{Key: "called_at", Value: 1}},
			Options: options.Index().SetName("by_called_at"),
		},
	})
}

/* -------------------------------------------------------------------------- */
/* Core helper: reconcile a set of desired indexes for one collection         */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name string `bson:"name"`
	Key  bson.D `bson:"key"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, logger *zap.Logger, models []mongo.IndexModel) error {
	existing, err := listIndexSigs(ctx, coll)
	if err != nil {
		return err
	}

	var errs []string
	for _, m := range models {
		sig := keySig(m.Keys.(bson.D))
		if name, ok := existing[sig]; ok {
			logger.Debug("reusing existing index",
				zap.String("collection", coll.Name()),
				zap.String("name", name),
				zap.String("keys", sig))
			continue
		}

		if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
			errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), sig, err))
			continue
		}
		logger.Info("created index",
			zap.String("collection", coll.Name()),
			zap.String("keys", sig))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func listIndexSigs(ctx context.Context, coll *mongo.Collection) (map[string]string, error) {
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	sigs := make(map[string]string)
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			continue
		}
		sigs[keySig(idx.Key)] = idx.Name
	}
	return sigs, cur.Err()
}
