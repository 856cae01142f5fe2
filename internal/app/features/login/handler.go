// internal/app/features/login/handler.go
package login

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/dalemusser/carline/internal/app/system/auth"
	"github.com/dalemusser/carline/internal/app/system/credential"
	"github.com/dalemusser/carline/internal/app/system/httpx"
	"github.com/dalemusser/carline/internal/app/system/metrics"
	"github.com/dalemusser/carline/internal/app/system/normalize"
	"github.com/dalemusser/carline/internal/app/system/ratelimit"
	"github.com/dalemusser/carline/internal/app/system/timeouts"
)

type Handler struct {
	Verifier   *credential.Verifier
	SessionMgr *auth.SessionManager
	Limiter    *ratelimit.LoginLimiter
	Metrics    *metrics.Collector
	Log        *zap.Logger
}

func NewHandler(verifier *credential.Verifier, sm *auth.SessionManager, limiter *ratelimit.LoginLimiter, collector *metrics.Collector, logger *zap.Logger) *Handler {
	return &Handler{
		Verifier:   verifier,
		SessionMgr: sm,
		Limiter:    limiter,
		Metrics:    collector,
		Log:        logger,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	UserID     string `json:"user_id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	SchoolID   string `json:"school_id"`
	SchoolName string `json:"school_name"`
}

// HandleLogin verifies credentials and establishes a session cookie.
// Failures all produce the same 401 message; the specific cause only goes
// to the log so callers can't probe which emails exist.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Email = normalize.Email(req.Email)
	if req.Email == "" || req.Password == "" {
		httpx.Error(w, http.StatusBadRequest, "email and password are required")
		return
	}

	if allowed, reason := h.Limiter.Check(r, req.Email); !allowed {
		h.Metrics.RecordLogin("rate_limited")
		httpx.Error(w, http.StatusTooManyRequests, reason)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "login")
	defer cancel()

	user, school, err := h.Verifier.Verify(ctx, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, credential.ErrUnknownEmail),
			errors.Is(err, credential.ErrWrongPassword),
			errors.Is(err, credential.ErrSchoolMissing):
			h.Log.Info("login rejected",
				zap.String("email", req.Email), zap.Error(err))
			h.Metrics.RecordLogin("failure")
			httpx.Error(w, http.StatusUnauthorized, "invalid email or password")
		default:
			h.Log.Error("login failed", zap.Error(err))
			httpx.Error(w, http.StatusInternalServerError, "login failed")
		}
		return
	}

	h.Limiter.ResetEmail(req.Email)

	err = h.SessionMgr.SignIn(w, r, &auth.SessionUser{
		ID:       user.ID.Hex(),
		Name:     user.Name,
		Email:    user.Email,
		Role:     user.Role,
		SchoolID: user.SchoolID.Hex(),
	})
	if err != nil {
		h.Log.Error("login: save session failed", zap.Error(err))
		httpx.Error(w, http.StatusInternalServerError, "login failed")
		return
	}

	h.Metrics.RecordLogin("success")
	h.Log.Info("user signed in",
		zap.String("user_id", user.ID.Hex()),
		zap.String("school_id", user.SchoolID.Hex()),
		zap.String("role", user.Role))

	httpx.JSON(w, http.StatusOK, loginResponse{
		UserID:     user.ID.Hex(),
		Name:       user.Name,
		Email:      user.Email,
		Role:       user.Role,
		SchoolID:   user.SchoolID.Hex(),
		SchoolName: school.Name,
	})
}
