// internal/app/features/students/handler.go
package students

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	studentstore "github.com/dalemusser/carline/internal/app/store/students"
	"github.com/dalemusser/carline/internal/app/system/auth"
	"github.com/dalemusser/carline/internal/app/system/csvutil"
	"github.com/dalemusser/carline/internal/app/system/httpx"
	"github.com/dalemusser/carline/internal/app/system/metrics"
	"github.com/dalemusser/carline/internal/app/system/normalize"
	"github.com/dalemusser/carline/internal/app/system/timeouts"
	"github.com/dalemusser/carline/internal/domain/models"
)

type Handler struct {
	Students *studentstore.Store
	Metrics  *metrics.Collector
	Log      *zap.Logger
}

func NewHandler(students *studentstore.Store, collector *metrics.Collector, logger *zap.Logger) *Handler {
	return &Handler{Students: students, Metrics: collector, Log: logger}
}

// schoolScope resolves the signed-in user's school or writes an error.
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

// HandleList returns the school's full roster.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	schoolID, ok := schoolScope(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list students")
	defer cancel()

	students, err := h.Students.ListBySchool(ctx, schoolID)
	if err != nil {
		h.Log.Error("list students failed", zap.Error(err))
		httpx.Error(w, http.StatusInternalServerError, "could not load students")
		return
	}
	if students == nil {
		students = []models.Student{}
	}
	httpx.JSON(w, http.StatusOK, students)
}

type createStudentRequest struct {
	Name    string `json:"name"`
	Tag     string `json:"tag"`
	Teacher string `json:"teacher"`
}

// HandleCreate adds one student to the roster.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	schoolID, ok := schoolScope(w, r)
	if !ok {
		return
	}

	var req createStudentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if normalize.Name(req.Name) == "" || normalize.Tag(req.Tag) == "" || normalize.Name(req.Teacher) == "" {
		httpx.Error(w, http.StatusBadRequest, "name, tag and teacher are required")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "create student")
	defer cancel()

	created, err := h.Students.Create(ctx, models.Student{
		SchoolID: schoolID,
		Name:     req.Name,
		Tag:      req.Tag,
		Teacher:  req.Teacher,
	})
	if err != nil {
		h.Log.Error("create student failed", zap.Error(err))
		httpx.Error(w, http.StatusInternalServerError, "could not create student")
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

// HandleDelete removes one student from the roster.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	schoolID, ok := schoolScope(w, r)
	if !ok {
		return
	}

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid student id")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "delete student")
	defer cancel()

	deleted, err := h.Students.Delete(ctx, schoolID, id)
	if err != nil {
		h.Log.Error("delete student failed", zap.Error(err))
		httpx.Error(w, http.StatusInternalServerError, "could not delete student")
		return
	}
	if deleted == 0 {
		httpx.Error(w, http.StatusNotFound, "student not found")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type importResponse struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// HandleImport bulk-loads students from an uploaded CSV. Rows with missing
// fields are skipped and reported, not fatal.
func (h *Handler) HandleImport(w http.ResponseWriter, r *http.Request) {
	schoolID, ok := schoolScope(w, r)
	if !ok {
		return
	}

	body, err := importReader(r)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "csv upload is required")
		return
	}
	defer body.Close()

	res, err := csvutil.ParseStudentsCSV(io.LimitReader(body, csvutil.MaxUploadSize))
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "could not parse csv: "+err.Error())
		return
	}

	rows := make([]models.Student, 0, len(res.Rows))
	for _, row := range res.Rows {
		rows = append(rows, models.Student{
			Name:    row.Name,
			Tag:     row.Tag,
			Teacher: row.Teacher,
		})
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Batch(), h.Log, "student csv import")
	defer cancel()

	inserted, err := h.Students.InsertMany(ctx, schoolID, rows)
	if err != nil && inserted == 0 {
		h.Log.Error("student import failed", zap.Error(err))
		httpx.Error(w, http.StatusInternalServerError, "import failed")
		return
	}
	if err != nil {
		// Unordered insert: some rows landed, some did not.
		h.Log.Warn("student import partially failed",
			zap.Int("inserted", inserted),
			zap.Int("attempted", len(rows)),
			zap.Error(err))
	}

	h.Metrics.RecordStudentsImported(inserted)
	h.Log.Info("students imported",
		zap.String("school_id", schoolID.Hex()),
		zap.Int("imported", inserted),
		zap.Int("skipped", res.Skipped))

	httpx.JSON(w, http.StatusOK, importResponse{
		Imported: inserted,
		Skipped:  res.Skipped + (len(rows) - inserted),
	})
}

// importReader accepts either a multipart upload under "file" or a raw CSV
// body.
func importReader(r *http.Request) (io.ReadCloser, error) {
	if f, _, err := r.FormFile("file"); err == nil {
		return f, nil
	}
	if r.Body == nil {
		return nil, io.EOF
	}
	return r.Body, nil
}
