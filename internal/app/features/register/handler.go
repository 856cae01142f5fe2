// internal/app/features/register/handler.go
package register

import (
	"errors"
	"net/http"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	schoolstore "github.com/dalemusser/carline/internal/app/store/schools"
	userstore "github.com/dalemusser/carline/internal/app/store/users"
	"github.com/dalemusser/carline/internal/app/system/credential"
	"github.com/dalemusser/carline/internal/app/system/httpx"
	"github.com/dalemusser/carline/internal/app/system/normalize"
	"github.com/dalemusser/carline/internal/app/system/timeouts"
	"github.com/dalemusser/carline/internal/domain/models"
)

type Handler struct {
	Schools *schoolstore.Store
	Users   *userstore.Store
	Log     *zap.Logger
}

func NewHandler(schools *schoolstore.Store, users *userstore.Store, logger *zap.Logger) *Handler {
	return &Handler{Schools: schools, Users: users, Log: logger}
}

type registerRequest struct {
	SchoolName string `json:"school_name"`
	AdminName  string `json:"admin_name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
}

type registerResponse struct {
	SchoolID string `json:"school_id"`
	UserID   string `json:"user_id"`
}

// HandleRegister creates a school and its first admin account in one step.
//
// The two inserts are not atomic. If the admin insert fails, the school
// document is deleted again so a failed registration leaves nothing behind
// and the name can be retried.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.SchoolName = normalize.Name(req.SchoolName)
	req.AdminName = normalize.Name(req.AdminName)
	req.Email = normalize.Email(req.Email)

	switch {
	case req.SchoolName == "":
		httpx.Error(w, http.StatusBadRequest, "school name is required")
		return
	case req.AdminName == "":
		httpx.Error(w, http.StatusBadRequest, "admin name is required")
		return
	case req.Email == "":
		httpx.Error(w, http.StatusBadRequest, "email is required")
		return
	case req.Password == "":
		httpx.Error(w, http.StatusBadRequest, "password is required")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "school registration")
	defer cancel()

	// Friendly precheck; the unique index on email is the real guard.
	if _, err := h.Users.GetByEmail(ctx, req.Email); err == nil {
		httpx.Error(w, http.StatusConflict, "an account with this email already exists")
		return
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		h.Log.Error("register: email lookup failed", zap.Error(err))
		httpx.Error(w, http.StatusInternalServerError, "registration failed")
		return
	}

	hash, err := credential.Hash(req.Password)
	if err != nil {
		h.Log.Error("register: hash password failed", zap.Error(err))
		httpx.Error(w, http.StatusInternalServerError, "registration failed")
		return
	}

	sch, err := h.Schools.Create(ctx, models.School{
		Name:         req.SchoolName,
		PasswordHash: hash,
	})
	if err != nil {
		h.Log.Error("register: create school failed", zap.Error(err))
		httpx.Error(w, http.StatusInternalServerError, "registration failed")
		return
	}

	admin, err := h.Users.Create(ctx, models.User{
		SchoolID: sch.ID,
		Name:     req.AdminName,
		Email:    req.Email,
		Role:     models.RoleAdmin,
	})
	if err != nil {
		// Compensate: a school without any admin is unreachable.
		if _, delErr := h.Schools.Delete(ctx, sch.ID); delErr != nil {
			h.Log.Error("register: orphaned school left behind",
				zap.String("school_id", sch.ID.Hex()), zap.Error(delErr))
		}
		if errors.Is(err, userstore.ErrDuplicateEmail) {
			httpx.Error(w, http.StatusConflict, "an account with this email already exists")
			return
		}
		h.Log.Error("register: create admin failed", zap.Error(err))
		httpx.Error(w, http.StatusInternalServerError, "registration failed")
		return
	}

	h.Log.Info("school registered",
		zap.String("school_id", sch.ID.Hex()),
		zap.String("school", sch.Name))

	httpx.JSON(w, http.StatusCreated, registerResponse{
		SchoolID: sch.ID.Hex(),
		UserID:   admin.ID.Hex(),
	})
}
