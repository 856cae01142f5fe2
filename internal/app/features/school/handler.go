// internal/app/features/school/handler.go
package school

import (
	"net/http"
	"sync"
	"sync/atomic"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	callstore "github.com/dalemusser/carline/internal/app/store/calls"
	schoolstore "github.com/dalemusser/carline/internal/app/store/schools"
	"github.com/dalemusser/carline/internal/app/system/auth"
	"github.com/dalemusser/carline/internal/app/system/credential"
	"github.com/dalemusser/carline/internal/app/system/httpx"
	"github.com/dalemusser/carline/internal/app/system/metrics"
	"github.com/dalemusser/carline/internal/app/system/timeouts"
)

// clearWorkers bounds the concurrent deletes during a history clear.
const clearWorkers = 8

type Handler struct {
	Schools *schoolstore.Store
	Calls   *callstore.Store
	Metrics *metrics.Collector
	Log     *zap.Logger
}

func NewHandler(schools *schoolstore.Store, calls *callstore.Store, collector *metrics.Collector, logger *zap.Logger) *Handler {
	return &Handler{Schools: schools, Calls: calls, Metrics: collector, Log: logger}
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

type changePasswordRequest struct {
	Password string `json:"password"`
}

// HandleChangePassword replaces the school's shared password. Every staff
// member signs in with the new one from the next login on; existing sessions
// stay valid.
func (h *Handler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	schoolID, ok := schoolScope(w, r)
	if !ok {
		return
	}

	var req changePasswordRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Password == "" {
		httpx.Error(w, http.StatusBadRequest, "password is required")
		return
	}

	hash, err := credential.Hash(req.Password)
	if err != nil {
		h.Log.Error("password hash failed", zap.Error(err))
		httpx.Error(w, http.StatusInternalServerError, "could not update password")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "change school password")
	defer cancel()

	matched, err := h.Schools.UpdatePassword(ctx, schoolID, hash)
	if err != nil {
		h.Log.Error("password update failed", zap.Error(err))
		httpx.Error(w, http.StatusInternalServerError, "could not update password")
		return
	}
	if matched == 0 {
		httpx.Error(w, http.StatusNotFound, "school not found")
		return
	}

	h.Log.Info("school password changed", zap.String("school_id", schoolID.Hex()))
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

type clearHistoryResponse struct {
	Cleared int `json:"cleared"`
	Failed  int `json:"failed"`
}

// HandleClearHistory deletes every call record the school has, waiting and
// departed alike. Deletes run on a small worker pool and a failure of one
// call does not stop the rest.
func (h *Handler) HandleClearHistory(w http.ResponseWriter, r *http.Request) {
	schoolID, ok := schoolScope(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Batch(), h.Log, "clear call history")
	defer cancel()

	calls, err := h.Calls.ListBySchool(ctx, schoolID)
	if err != nil {
		h.Log.Error("list calls failed", zap.Error(err))
		httpx.Error(w, http.StatusInternalServerError, "could not clear history")
		return
	}

	var cleared, failed atomic.Int64
	var wg sync.WaitGroup
	sem := make(chan struct{}, clearWorkers)

	for _, c := range calls {
		wg.Add(1)
		sem <- struct{}{}
		go func(id primitive.ObjectID) {
			defer wg.Done()
			defer func() { <-sem }()

			n, err := h.Calls.Delete(ctx, schoolID, id)
			if err != nil {
				failed.Add(1)
				h.Log.Warn("call delete failed", zap.String("call_id", id.Hex()), zap.Error(err))
				return
			}
			cleared.Add(n)
		}(c.ID)
	}
	wg.Wait()

	h.Metrics.RecordHistoryCleared(int(cleared.Load()))
	h.Log.Info("call history cleared",
		zap.String("school_id", schoolID.Hex()),
		zap.Int64("cleared", cleared.Load()),
		zap.Int64("failed", failed.Load()))

	httpx.JSON(w, http.StatusOK, clearHistoryResponse{
		Cleared: int(cleared.Load()),
		Failed:  int(failed.Load()),
	})
}
