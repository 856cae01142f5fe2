package caller_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/dalemusser/carline/internal/app/dismissal"
	"github.com/dalemusser/carline/internal/app/features/caller"
	callstore "github.com/dalemusser/carline/internal/app/store/calls"
	studentstore "github.com/dalemusser/carline/internal/app/store/students"
	"github.com/dalemusser/carline/internal/domain/models"
	"github.com/dalemusser/carline/internal/testutil"
)

func newTestHandler(t *testing.T) (*caller.Handler, *testutil.Fixtures, *callstore.Store) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	calls := callstore.New(db, "")
	students := studentstore.New(db, "")
	engine := &dismissal.Engine{
		Students: students,
		Calls:    calls,
		Log:      zap.NewNop(),
	}
	return caller.NewHandler(engine, calls, nil, zap.NewNop()), testutil.NewFixtures(t, db), calls
}

func TestHandleSubmit(t *testing.T) {
	h, fixtures, _ := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	sch := fixtures.CreateSchool(ctx, "Oak Elementary")
	fixtures.CreateStudent(ctx, sch.ID, "Avery Hill", "101", "Ms. Lee")
	fixtures.CreateStudent(ctx, sch.ID, "Aiden Hill", "101", "Mr. Fox")

	req := httptest.NewRequest("POST", "/calls", strings.NewReader(`{"tag":" 101 "}`))
	req = testutil.WithUser(req, testutil.TeacherUser(sch.ID))
	rec := httptest.NewRecorder()
	h.HandleSubmit(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var call models.Call
	if err := json.Unmarshal(rec.Body.Bytes(), &call); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if call.Tag != "101" {
		t.Errorf("tag = %q, want trimmed %q", call.Tag, "101")
	}
	if call.StudentCount != 2 {
		t.Errorf("student_count = %d, want 2", call.StudentCount)
	}
	if call.Status != models.CallWaiting {
		t.Errorf("status = %q, want waiting", call.Status)
	}
}

func TestHandleSubmit_EmptyTag(t *testing.T) {
	h, fixtures, _ := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	sch := fixtures.CreateSchool(ctx, "Oak Elementary")

	req := httptest.NewRequest("POST", "/calls", strings.NewReader(`{"tag":"   "}`))
	req = testutil.WithUser(req, testutil.TeacherUser(sch.ID))
	rec := httptest.NewRecorder()
	h.HandleSubmit(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleSubmit_UnknownTagStillRecords(t *testing.T) {
	h, fixtures, _ := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	sch := fixtures.CreateSchool(ctx, "Oak Elementary")

	req := httptest.NewRequest("POST", "/calls", strings.NewReader(`{"tag":"999"}`))
	req = testutil.WithUser(req, testutil.TeacherUser(sch.ID))
	rec := httptest.NewRecorder()
	h.HandleSubmit(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var call models.Call
	if err := json.Unmarshal(rec.Body.Bytes(), &call); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if call.StudentCount != 0 {
		t.Errorf("student_count = %d, want 0 for unknown tag", call.StudentCount)
	}
}

func TestHandleRecent(t *testing.T) {
	h, fixtures, _ := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	sch := fixtures.CreateSchool(ctx, "Oak Elementary")
	for i := 0; i < 25; i++ {
		fixtures.CreateCall(ctx, sch.ID, "101", 1)
	}

	req := httptest.NewRequest("GET", "/calls/recent", nil)
	req = testutil.WithUser(req, testutil.TeacherUser(sch.ID))
	rec := httptest.NewRecorder()
	h.HandleRecent(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var calls []models.Call
	if err := json.Unmarshal(rec.Body.Bytes(), &calls); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(calls) != 5 {
		t.Errorf("len = %d, want 5 (default limit)", len(calls))
	}
}

func TestHandleRecent_BadLimit(t *testing.T) {
	h, fixtures, _ := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	sch := fixtures.CreateSchool(ctx, "Oak Elementary")

	for _, limit := range []string{"0", "-3", "6", "100", "abc"} {
		req := httptest.NewRequest("GET", "/calls/recent?limit="+limit, nil)
		req = testutil.WithUser(req, testutil.TeacherUser(sch.ID))
		rec := httptest.NewRecorder()
		h.HandleRecent(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("limit=%s: status = %d, want 400", limit, rec.Code)
		}
	}
}
