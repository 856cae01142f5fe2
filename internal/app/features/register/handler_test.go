package register_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/dalemusser/carline/internal/app/features/register"
	schoolstore "github.com/dalemusser/carline/internal/app/store/schools"
	userstore "github.com/dalemusser/carline/internal/app/store/users"
	"github.com/dalemusser/carline/internal/testutil"
)

func newTestHandler(t *testing.T) (*register.Handler, *schoolstore.Store, *userstore.Store) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	schools := schoolstore.New(db, "")
	users := userstore.New(db, "")
	return register.NewHandler(schools, users, zap.NewNop()), schools, users
}

func postRegister(h *register.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", "/register", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.HandleRegister(rec, req)
	return rec
}

func TestHandleRegister_Success(t *testing.T) {
	h, schools, users := newTestHandler(t)

	rec := postRegister(h, `{
		"school_name": "Oak Elementary",
		"admin_name":  "Pat Admin",
		"email":       "Pat@Oak.EDU",
		"password":    "oak123"
	}`)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		SchoolID string `json:"school_id"`
		UserID   string `json:"user_id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}

	ctx, cancel := testutil.TestContext()
	defer cancel()

	u, err := users.GetByEmail(ctx, "pat@oak.edu")
	if err != nil {
		t.Fatalf("admin not created: %v", err)
	}
	if u.Role != "admin" {
		t.Errorf("role = %q, want admin", u.Role)
	}

	sch, err := schools.GetByID(ctx, u.SchoolID)
	if err != nil {
		t.Fatalf("school not created: %v", err)
	}
	if sch.Name != "Oak Elementary" {
		t.Errorf("school name = %q", sch.Name)
	}
	if sch.PasswordHash == "" || sch.PasswordHash == "oak123" {
		t.Error("password must be stored hashed")
	}
}

func TestHandleRegister_DuplicateEmail(t *testing.T) {
	h, _, _ := newTestHandler(t)

	body := `{
		"school_name": "Oak Elementary",
		"admin_name":  "Pat Admin",
		"email":       "pat@oak.edu",
		"password":    "car-line-2026"
	}`
	if rec := postRegister(h, body); rec.Code != http.StatusCreated {
		t.Fatalf("first registration failed: %d", rec.Code)
	}

	rec := postRegister(h, `{
		"school_name": "Pine Elementary",
		"admin_name":  "Other Admin",
		"email":       "pat@oak.edu",
		"password":    "other-pass-1"
	}`)
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusConflict)
	}
}

func TestHandleRegister_Validation(t *testing.T) {
	h, _, _ := newTestHandler(t)

	tests := []struct {
		name string
		body string
	}{
		{"missing school name", `{"admin_name":"A","email":"a@b.c","password":"oak123"}`},
		{"missing admin name", `{"school_name":"S","email":"a@b.c","password":"oak123"}`},
		{"missing email", `{"school_name":"S","admin_name":"A","password":"oak123"}`},
		{"empty password", `{"school_name":"S","admin_name":"A","email":"a@b.c","password":""}`},
		{"bad json", `{`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postRegister(h, tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
			}
		})
	}
}
