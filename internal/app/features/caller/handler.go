// internal/app/features/caller/handler.go
package caller

import (
	"errors"
	"net/http"
	"strconv"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/dalemusser/carline/internal/app/dismissal"
	"github.com/dalemusser/carline/internal/app/live"
	callstore "github.com/dalemusser/carline/internal/app/store/calls"
	"github.com/dalemusser/carline/internal/app/system/auth"
	"github.com/dalemusser/carline/internal/app/system/httpx"
	"github.com/dalemusser/carline/internal/app/system/timeouts"
	"github.com/dalemusser/carline/internal/domain/models"
)

// defaultRecent is how many calls the recent list shows unless the request
// asks for fewer.
const defaultRecent = 5

type Handler struct {
	Engine *dismissal.Engine
	Calls  *callstore.Store
	Hub    *live.Hub
	Log    *zap.Logger
}

func NewHandler(engine *dismissal.Engine, calls *callstore.Store, hub *live.Hub, logger *zap.Logger) *Handler {
	return &Handler{Engine: engine, Calls: calls, Hub: hub, Log: logger}
}

func schoolScope(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		httpx.Error(w, http.StatusUnauthorized, "sign in required")
		return primitive.NilObjectID, false
	}
	id, err := u.SchoolObjectID()
	if err != nil {
		httpx.Error(w, http.StatusUnauthorized, "session is missing a school")
		return primitive.NilObjectID, false
	}
	return id, true
}

type submitCallRequest struct {
	Tag string `json:"tag"`
}

// HandleSubmit records a pickup call for a car tag and wakes the school's
// dashboards.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	schoolID, ok := schoolScope(w, r)
	if !ok {
		return
	}

	var req submitCallRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "submit call")
	defer cancel()

	call, err := h.Engine.Submit(ctx, schoolID, req.Tag)
	if errors.Is(err, dismissal.ErrEmptyTag) {
		httpx.Error(w, http.StatusBadRequest, "tag must not be empty")
		return
	}
	if err != nil {
		h.Log.Error("submit call failed", zap.Error(err))
		httpx.Error(w, http.StatusInternalServerError, "could not submit call")
		return
	}

	if h.Hub != nil {
		h.Hub.Notify(schoolID)
	}
	httpx.JSON(w, http.StatusCreated, call)
}

// HandleRecent returns the school's most recent calls, newest first, so the
// caller station can show what it just sent.
func (h *Handler) HandleRecent(w http.ResponseWriter, r *http.Request) {
	schoolID, ok := schoolScope(w, r)
	if !ok {
		return
	}

	limit := int64(defaultRecent)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 1 || n > defaultRecent {
			httpx.Error(w, http.StatusBadRequest, "limit must be between 1 and 5")
			return
		}
		limit = n
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list recent calls")
	defer cancel()

	calls, err := h.Calls.ListRecent(ctx, schoolID, limit)
	if err != nil {
		h.Log.Error("list recent calls failed", zap.Error(err))
		httpx.Error(w, http.StatusInternalServerError, "could not load recent calls")
		return
	}
	if calls == nil {
		calls = []models.Call{}
	}
	httpx.JSON(w, http.StatusOK, calls)
}
