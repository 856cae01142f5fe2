package indexes_test

import (
	"testing"

	"go.uber.org/zap"

	"github.com/dalemusser/carline/internal/app/system/indexes"
	"github.com/dalemusser/carline/internal/testutil"
)

func TestEnsureAll(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db, "", zap.NewNop()); err != nil {
		t.Fatalf("first EnsureAll: %v", err)
	}

	// Second run must reuse every index without error.
	if err := indexes.EnsureAll(ctx, db, "", zap.NewNop()); err != nil {
		t.Fatalf("second EnsureAll: %v", err)
	}

	cur, err := db.Collection("users").Indexes().List(ctx)
	if err != nil {
		t.Fatalf("list user indexes: %v", err)
	}
	defer cur.Close(ctx)

	found := map[string]bool{}
	for cur.Next(ctx) {
		var idx struct {
			Name string `bson:"name"`
		}
		if err := cur.Decode(&idx); err != nil {
			t.Fatalf("decode index: %v", err)
		}
		found[idx.Name] = true
	}
	if !found["uniq_email"] {
		t.Error("missing uniq_email index on users")
	}
	if !found["by_school"] {
		t.Error("missing by_school index on users")
	}
}

func TestEnsureAllWithNamespace(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db, "oak-v1", zap.NewNop()); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}

	cur, err := db.Collection("oak-v1.calls").Indexes().List(ctx)
	if err != nil {
		t.Fatalf("list call indexes: %v", err)
	}
	defer cur.Close(ctx)

	n := 0
	for cur.Next(ctx) {
		n++
	}
	// _id plus the two call indexes.
	if n != 3 {
		t.Errorf("index count = %d, want 3", n)
	}
}
