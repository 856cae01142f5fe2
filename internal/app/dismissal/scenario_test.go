package dismissal

import (
	"context"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/dalemusser/carline/internal/domain/models"
)

// TestAfternoonPickupFlow walks one school through an afternoon: roster in
// place, cars arrive, calls are submitted, some depart, and the dashboard
// view reflects each step.
func TestAfternoonPickupFlow(t *testing.T) {
	schoolID := primitive.NewObjectID()
	students := []models.Student{
		student("Avery Hill", "101", "Ms. Lee"),
		student("Aiden Hill", "101", "Mr. Fox"),
		student("Blake Ortiz", "102", "Ms. Lee"),
		student("Casey Reed", "103", "Mr. Fox"),
	}

	counts := make(map[string]int64)
	for _, st := range students {
		counts[st.Tag]++
	}

	rec := &fakeRecorder{}
	engine := newTestEngine(&fakeCounter{counts: counts}, rec)
	ctx := context.Background()

	// Three cars pull up; one visitor tag has no roster match.
	tags := []string{"101", "102", "VISITOR"}
	for _, tag := range tags {
		if _, err := engine.Submit(ctx, schoolID, tag); err != nil {
			t.Fatalf("submit %q: %v", tag, err)
		}
	}

	if rec.created[0].StudentCount != 2 {
		t.Errorf("tag 101 snapshot = %d, want 2 siblings", rec.created[0].StudentCount)
	}
	if rec.created[2].StudentCount != 0 {
		t.Errorf("visitor tag snapshot = %d, want 0", rec.created[2].StudentCount)
	}

	// The dashboard shows all three calls.
	r := ProjectRoster(rec.created, students, RosterFilter{HideDeparted: true, Page: 1})
	if len(r.Entries) != 3 {
		t.Fatalf("dashboard shows %d calls, want 3", len(r.Entries))
	}

	// Car 101 leaves.
	did, err := engine.Depart(ctx, rec.created[0].ID)
	if err != nil || !did {
		t.Fatalf("depart: did=%v err=%v", did, err)
	}
	rec.created[0].Status = models.CallDeparted

	r = ProjectRoster(rec.created, students, RosterFilter{HideDeparted: true, Page: 1})
	if len(r.Entries) != 2 {
		t.Fatalf("after departure dashboard shows %d calls, want 2", len(r.Entries))
	}
	for _, e := range r.Entries {
		if e.Call.Tag == "101" {
			t.Error("departed call still visible with hideDeparted on")
		}
	}

	// Ms. Lee filters to her class; only Blake's call remains waiting.
	filter := DefaultTeacherFilter("Ms. Lee", models.RoleTeacher, students)
	if filter != "Ms. Lee" {
		t.Fatalf("default filter = %q", filter)
	}
	r = ProjectRoster(rec.created, students, RosterFilter{
		HideDeparted: true,
		Teacher:      filter,
		Page:         1,
	})
	if len(r.Entries) != 1 || r.Entries[0].Call.Tag != "102" {
		t.Fatalf("teacher view: got %d entries", len(r.Entries))
	}

	// A double tap on the departed button changes nothing.
	did, err = engine.Depart(ctx, rec.created[0].ID)
	if err != nil {
		t.Fatalf("repeat depart: %v", err)
	}
	if did {
		t.Error("repeat depart should be a no-op")
	}
}
