package timetables

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/fsp-portal/fsp-portal/internal/batches"
	"github.com/fsp-portal/fsp-portal/internal/shared"
	"github.com/fsp-portal/fsp-portal/internal/view"
)

// BatchDirectory supplies the batches the schedule editor can target.
type BatchDirectory interface {
	List(ctx context.Context) ([]batches.Batch, error)
}

// Handler wires HTTP endpoints for timetable management.
type Handler struct {
	logger      *slog.Logger
	service     *Service
	directory   BatchDirectory
	templates   *view.Engine
	csrfManager *shared.CSRFManager
	validator   *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, directory BatchDirectory, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	return &Handler{
		logger:      logger,
		service:     service,
		directory:   directory,
		templates:   templates,
		csrfManager: csrf,
		validator:   validator.New(),
	}
}

// MountRoutes registers the staff timetable routes. The admin and teacher
// mounts share the handler; only admins may create entries.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/new", h.showForm)
	r.Post("/new", h.handleCreate)
}

// MountStudentRoutes registers the student's read-only view of their
// batch timetable.
func (h *Handler) MountStudentRoutes(r chi.Router) {
	r.Get("/", h.studentList)
}

type entryForm struct {
	BatchID   string `validate:"required,number"`
	Day       string `validate:"required"`
	StartTime string `validate:"required,datetime=15:04"`
	EndTime   string `validate:"required,datetime=15:04"`
	Subject   string `validate:"required,min=2"`
	Faculty   string
}

func (h *Handler) basePath(sc *shared.SessionContext) string {
	return "/" + sc.Role + "/dashboard/timetables"
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	sc := shared.SessionFromContext(r.Context())
	if sc == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	batchList, err := h.directory.List(r.Context())
	if err != nil {
		h.logger.Error("list batches", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	var selected int64
	if raw := r.URL.Query().Get("batch_id"); raw != "" {
		selected, _ = strconv.ParseInt(raw, 10, 64)
	} else if len(batchList) > 0 {
		selected = batchList[0].ID
	}
	var entries []Entry
	if selected != 0 {
		entries, err = h.service.ForBatch(r.Context(), selected)
		if err != nil {
			h.logger.Error("list timetable", slog.Int64("batch_id", selected), slog.Any("error", err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
	}
	h.render(w, r, "pages/timetables.html", "Timetables", sc, map[string]any{
		"Entries":       entries,
		"Batches":       batchList,
		"SelectedBatch": selected,
		"CanEdit":       sc.Role == "admin",
		"BasePath":      h.basePath(sc),
	})
}

func (h *Handler) studentList(w http.ResponseWriter, r *http.Request) {
	sc := shared.SessionFromContext(r.Context())
	if sc == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	entries, err := h.service.ForStudent(r.Context(), sc.Subject)
	if err != nil {
		h.logger.Error("student timetable", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/timetables.html", "My Timetable", sc, map[string]any{
		"Entries":  entries,
		"CanEdit":  false,
		"BasePath": h.basePath(sc),
	})
}

func (h *Handler) showForm(w http.ResponseWriter, r *http.Request) {
	sc := shared.SessionFromContext(r.Context())
	if sc == nil || sc.Role != "admin" {
		http.Redirect(w, r, "/forbidden", http.StatusSeeOther)
		return
	}
	batchList, err := h.directory.List(r.Context())
	if err != nil {
		h.logger.Error("list batches", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/timetable_form.html", "New Timetable Entry", sc, map[string]any{
		"Form":     entryForm{},
		"Errors":   map[string]string{},
		"Batches":  batchList,
		"Days":     Weekdays,
		"BasePath": h.basePath(sc),
	})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	sc := shared.SessionFromContext(r.Context())
	if sc == nil || sc.Role != "admin" {
		http.Redirect(w, r, "/forbidden", http.StatusSeeOther)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := entryForm{
		BatchID:   r.PostFormValue("batch_id"),
		Day:       r.PostFormValue("day"),
		StartTime: r.PostFormValue("start_time"),
		EndTime:   r.PostFormValue("end_time"),
		Subject:   r.PostFormValue("subject"),
		Faculty:   r.PostFormValue("faculty"),
	}
	formErrors := make(map[string]string)
	if err := h.validator.Struct(form); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				formErrors[fe.Field()] = "Invalid value"
			}
		}
	}

	if len(formErrors) == 0 {
		batchID, _ := strconv.ParseInt(form.BatchID, 10, 64)
		start, _ := ParseClock(form.StartTime)
		end, _ := ParseClock(form.EndTime)
		_, err := h.service.Create(r.Context(), Entry{
			BatchID: batchID,
			Day:     Weekday(form.Day),
			Start:   start,
			End:     end,
			Subject: form.Subject,
			Faculty: form.Faculty,
		})
		switch {
		case err == nil:
			shared.SetFlash(w, shared.FlashMessage{Kind: "success", Message: "Timetable entry created."})
			http.Redirect(w, r, h.basePath(sc)+"?batch_id="+form.BatchID, http.StatusSeeOther)
			return
		case errors.Is(err, ErrInvalidSlot):
			formErrors["EndTime"] = "End time must be after the start time"
		case errors.Is(err, ErrOverlap):
			formErrors["EndTime"] = "This slot overlaps an existing entry for the batch"
		default:
			h.logger.Error("create timetable entry", slog.Any("error", err))
			formErrors["general"] = "Could not create the entry. Please try again."
		}
	}

	batchList, err := h.directory.List(r.Context())
	if err != nil {
		h.logger.Error("list batches", slog.Any("error", err))
		batchList = nil
	}
	w.WriteHeader(http.StatusBadRequest)
	h.render(w, r, "pages/timetable_form.html", "New Timetable Entry", sc, map[string]any{
		"Form":     form,
		"Errors":   formErrors,
		"Batches":  batchList,
		"Days":     Weekdays,
		"BasePath": h.basePath(sc),
	})
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, page, title string, sc *shared.SessionContext, data any) {
	csrfToken, _ := h.csrfManager.EnsureToken(w, r)
	if err := h.templates.Render(w, page, view.TemplateData{
		Title:       title,
		CSRFToken:   csrfToken,
		CurrentPath: r.URL.Path,
		Session:     sc,
		Flash:       shared.PopFlash(w, r),
		Data:        data,
	}); err != nil {
		h.logger.Error("render "+page, slog.Any("error", err))
	}
}
