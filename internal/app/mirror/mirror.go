// internal/app/mirror/mirror.go

// Package mirror keeps an in-memory copy of the roster and the current
// day's calls, refreshed from MongoDB by watchers. Dashboard reads are
// served from the mirror so a room full of screens doesn't turn every
// update into a query storm.
package mirror

import (
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/dalemusser/carline/internal/domain/models"
)

// Mirror holds per-school snapshots. Writes replace a school's slice
// wholesale; there is no per-document patching.
type Mirror struct {
	mu       sync.RWMutex
	students map[primitive.ObjectID][]models.Student
	calls    map[primitive.ObjectID][]models.Call

	now func() time.Time
}

func New() *Mirror {
	return &Mirror{
		students: make(map[primitive.ObjectID][]models.Student),
		calls:    make(map[primitive.ObjectID][]models.Call),
		now:      time.Now,
	}
}

// ReplaceStudents swaps in a school's full student snapshot.
func (m *Mirror) ReplaceStudents(schoolID primitive.ObjectID, students []models.Student) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(students) == 0 {
		delete(m.students, schoolID)
		return
	}
	m.students[schoolID] = students
}

// ReplaceCalls swaps in a school's full call snapshot.
func (m *Mirror) ReplaceCalls(schoolID primitive.ObjectID, calls []models.Call) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(calls) == 0 {
		delete(m.calls, schoolID)
		return
	}
	m.calls[schoolID] = calls
}

// Students returns a copy of the school's student snapshot.
func (m *Mirror) Students(schoolID primitive.ObjectID) []models.Student {
	m.mu.RLock()
	defer m.mu.RUnlock()
	src := m.students[schoolID]
	out := make([]models.Student, len(src))
	copy(out, src)
	return out
}

// Calls returns a copy of the school's calls restricted to the current
// local calendar day. Yesterday's calls age out of the view at midnight
// without any write happening.
func (m *Mirror) Calls(schoolID primitive.ObjectID) []models.Call {
	m.mu.RLock()
	defer m.mu.RUnlock()

	today := m.now()
	var out []models.Call
	for _, c := range m.calls[schoolID] {
		if sameLocalDay(c.CalledAt, today) {
			out = append(out, c)
		}
	}
	return out
}

// sameLocalDay reports whether two instants fall on the same calendar day
// in local time.
func sameLocalDay(a, b time.Time) bool {
	ay, am, ad := a.Local().Date()
	by, bm, bd := b.Local().Date()
	return ay == by && am == bm && ad == bd
}
