// internal/app/features/logout/handler.go
package logout

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/dalemusser/carline/internal/app/system/auth"
	"github.com/dalemusser/carline/internal/app/system/httpx"
)

type Handler struct {
	SessionMgr *auth.SessionManager
	Log        *zap.Logger
}

func NewHandler(sm *auth.SessionManager, logger *zap.Logger) *Handler {
	return &Handler{SessionMgr: sm, Log: logger}
}

// HandleLogout expires the session cookie. Signing out while already signed
// out succeeds; there is nothing useful to report about it.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if u, ok := auth.CurrentUser(r); ok {
		h.Log.Info("user signed out", zap.String("user_id", u.ID))
	}
	if err := h.SessionMgr.SignOut(w, r); err != nil {
		h.Log.Error("logout: save session failed", zap.Error(err))
		httpx.Error(w, http.StatusInternalServerError, "logout failed")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "signed_out"})
}
