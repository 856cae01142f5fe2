// internal/app/features/dashboard/handler.go
package dashboard

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/dalemusser/carline/internal/app/dismissal"
	"github.com/dalemusser/carline/internal/app/live"
	"github.com/dalemusser/carline/internal/app/mirror"
	"github.com/dalemusser/carline/internal/app/system/auth"
	"github.com/dalemusser/carline/internal/app/system/httpx"
	"github.com/dalemusser/carline/internal/app/system/timeouts"
)

type Handler struct {
	Mirror *mirror.Mirror
	Engine *dismissal.Engine
	Hub    *live.Hub
	Log    *zap.Logger
}

func NewHandler(m *mirror.Mirror, engine *dismissal.Engine, hub *live.Hub, logger *zap.Logger) *Handler {
	return &Handler{Mirror: m, Engine: engine, Hub: hub, Log: logger}
}

func sessionScope(w http.ResponseWriter, r *http.Request) (*auth.SessionUser, primitive.ObjectID, bool) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		httpx.Error(w, http.StatusUnauthorized, "sign in required")
		return nil, primitive.NilObjectID, false
	}
	id, err := u.SchoolObjectID()
	if err != nil {
		httpx.Error(w, http.StatusUnauthorized, "session is missing a school")
		return nil, primitive.NilObjectID, false
	}
	return u, id, true
}

type rosterResponse struct {
	Roster   dismissal.Roster `json:"roster"`
	Teachers []string         `json:"teachers"`
	Teacher  string           `json:"teacher"`
}

// HandleRoster renders the dashboard view from the in-memory mirror.
// Departed calls are hidden unless hide_departed=false is passed explicitly.
// The teacher filter defaults per viewer: teacher-role users whose name
// matches a roster teacher start on their own class.
func (h *Handler) HandleRoster(w http.ResponseWriter, r *http.Request) {
	u, schoolID, ok := sessionScope(w, r)
	if !ok {
		return
	}

	students := h.Mirror.Students(schoolID)
	calls := h.Mirror.Calls(schoolID)

	q := r.URL.Query()

	teacher := q.Get("teacher")
	if teacher == "" {
		teacher = dismissal.DefaultTeacherFilter(u.Name, u.Role, students)
	}

	f := dismissal.RosterFilter{
		HideDeparted: q.Get("hide_departed") != "false",
		Teacher:      teacher,
		Page:         1,
	}
	if raw := q.Get("page"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			f.Page = n
		}
	}

	httpx.JSON(w, http.StatusOK, rosterResponse{
		Roster:   dismissal.ProjectRoster(calls, students, f),
		Teachers: dismissal.TeacherNames(students),
		Teacher:  teacher,
	})
}

// HandleDepart marks a call departed and wakes the school's dashboards.
// A call already departed, or gone, is reported as success so two teachers
// tapping the same card do not see an error.
func (h *Handler) HandleDepart(w http.ResponseWriter, r *http.Request) {
	_, schoolID, ok := sessionScope(w, r)
	if !ok {
		return
	}

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid call id")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "depart call")
	defer cancel()

	transitioned, err := h.Engine.Depart(ctx, id)
	if err != nil {
		h.Log.Error("depart failed", zap.Error(err))
		httpx.Error(w, http.StatusInternalServerError, "could not mark departed")
		return
	}
	if !transitioned {
		h.Log.Info("depart was a no-op", zap.String("call_id", id.Hex()))
	}

	if h.Hub != nil {
		h.Hub.Notify(schoolID)
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "departed"})
}

// HandleWS upgrades to a websocket and streams roster snapshots. The initial
// filter mirrors HandleRoster's defaults; clients adjust it with filter
// messages.
func (h *Handler) HandleWS(w http.ResponseWriter, r *http.Request) {
	u, schoolID, ok := sessionScope(w, r)
	if !ok {
		return
	}

	students := h.Mirror.Students(schoolID)
	initial := dismissal.RosterFilter{
		HideDeparted: true,
		Teacher:      dismissal.DefaultTeacherFilter(u.Name, u.Role, students),
		Page:         1,
	}

	h.Hub.ServeWS(w, r, schoolID, initial)
}
