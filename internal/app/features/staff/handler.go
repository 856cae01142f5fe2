// internal/app/features/staff/handler.go
package staff

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	userstore "github.com/dalemusser/carline/internal/app/store/users"
	"github.com/dalemusser/carline/internal/app/system/auth"
	"github.com/dalemusser/carline/internal/app/system/httpx"
	"github.com/dalemusser/carline/internal/app/system/normalize"
	"github.com/dalemusser/carline/internal/app/system/timeouts"
	"github.com/dalemusser/carline/internal/domain/models"
)

type Handler struct {
	Users *userstore.Store
	Log   *zap.Logger
}

func NewHandler(users *userstore.Store, logger *zap.Logger) *Handler {
	return &Handler{Users: users, Log: logger}
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

// HandleList returns the school's staff accounts.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	schoolID, ok := schoolScope(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list staff")
	defer cancel()

	users, err := h.Users.ListBySchool(ctx, schoolID)
	if err != nil {
		h.Log.Error("list staff failed", zap.Error(err))
		httpx.Error(w, http.StatusInternalServerError, "could not load staff")
		return
	}
	if users == nil {
		users = []models.User{}
	}
	httpx.JSON(w, http.StatusOK, users)
}

type createStaffRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// HandleCreate adds a staff account to the school.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	schoolID, ok := schoolScope(w, r)
	if !ok {
		return
	}

	var req createStaffRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if normalize.Name(req.Name) == "" || normalize.Email(req.Email) == "" {
		httpx.Error(w, http.StatusBadRequest, "name and email are required")
		return
	}

	role := normalize.Role(req.Role)
	if role != models.RoleAdmin && role != models.RoleTeacher {
		httpx.Error(w, http.StatusBadRequest, `role must be "admin" or "teacher"`)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "create staff")
	defer cancel()

	created, err := h.Users.Create(ctx, models.User{
		SchoolID: schoolID,
		Name:     req.Name,
		Email:    req.Email,
		Role:     role,
	})
	if errors.Is(err, userstore.ErrDuplicateEmail) {
		httpx.Error(w, http.StatusConflict, "a user with this email already exists")
		return
	}
	if err != nil {
		h.Log.Error("create staff failed", zap.Error(err))
		httpx.Error(w, http.StatusInternalServerError, "could not create user")
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

// HandleDelete removes a staff account. Deleting a school's only admin is
// rejected so the school can never lock itself out.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	schoolID, ok := schoolScope(w, r)
	if !ok {
		return
	}

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid user id")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "delete staff")
	defer cancel()

	target, err := h.Users.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) || (err == nil && target.SchoolID != schoolID) {
		httpx.Error(w, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		h.Log.Error("load staff failed", zap.Error(err))
		httpx.Error(w, http.StatusInternalServerError, "could not delete user")
		return
	}

	if target.IsAdmin() {
		blocked, err := h.lastAdmin(ctx, schoolID)
		if err != nil {
			h.Log.Error("admin count failed", zap.Error(err))
			httpx.Error(w, http.StatusInternalServerError, "could not delete user")
			return
		}
		if blocked {
			httpx.Error(w, http.StatusConflict, "cannot remove the school's only admin")
			return
		}
	}

	deleted, err := h.Users.Delete(ctx, schoolID, id)
	if err != nil {
		h.Log.Error("delete staff failed", zap.Error(err))
		httpx.Error(w, http.StatusInternalServerError, "could not delete user")
		return
	}
	if deleted == 0 {
		httpx.Error(w, http.StatusNotFound, "user not found")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type updateRoleRequest struct {
	Role string `json:"role"`
}

// HandleUpdateRole changes a staff account's role. Demoting a school's only
// admin is rejected, same as deletion.
func (h *Handler) HandleUpdateRole(w http.ResponseWriter, r *http.Request) {
	schoolID, ok := schoolScope(w, r)
	if !ok {
		return
	}

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req updateRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	role := normalize.Role(req.Role)
	if role != models.RoleAdmin && role != models.RoleTeacher {
		httpx.Error(w, http.StatusBadRequest, `role must be "admin" or "teacher"`)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "update staff role")
	defer cancel()

	target, err := h.Users.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) || (err == nil && target.SchoolID != schoolID) {
		httpx.Error(w, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		h.Log.Error("load staff failed", zap.Error(err))
		httpx.Error(w, http.StatusInternalServerError, "could not update role")
		return
	}

	if target.IsAdmin() && role == models.RoleTeacher {
		blocked, err := h.lastAdmin(ctx, schoolID)
		if err != nil {
			h.Log.Error("admin count failed", zap.Error(err))
			httpx.Error(w, http.StatusInternalServerError, "could not update role")
			return
		}
		if blocked {
			httpx.Error(w, http.StatusConflict, "cannot demote the school's only admin")
			return
		}
	}

	matched, err := h.Users.UpdateRole(ctx, schoolID, id, role)
	if err != nil {
		h.Log.Error("update role failed", zap.Error(err))
		httpx.Error(w, http.StatusInternalServerError, "could not update role")
		return
	}
	if matched == 0 {
		httpx.Error(w, http.StatusNotFound, "user not found")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "updated", "role": role})
}

// lastAdmin reports whether the school is down to a single admin.
func (h *Handler) lastAdmin(ctx context.Context, schoolID primitive.ObjectID) (bool, error) {
	n, err := h.Users.CountAdmins(ctx, schoolID)
	if err != nil {
		return false, err
	}
	return n <= 1, nil
}
