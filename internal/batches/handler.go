package batches

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/fsp-portal/fsp-portal/internal/shared"
	"github.com/fsp-portal/fsp-portal/internal/view"
)

// Handler wires HTTP endpoints for batch management.
type Handler struct {
	logger      *slog.Logger
	service     *Service
	templates   *view.Engine
	csrfManager *shared.CSRFManager
	validator   *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	return &Handler{
		logger:      logger,
		service:     service,
		templates:   templates,
		csrfManager: csrf,
		validator:   validator.New(),
	}
}

// MountRoutes registers batch routes on the provided router. The same
// handler serves the admin and teacher mounts; write access follows the
// session's verified role.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/new", h.showForm)
	r.Post("/new", h.handleCreate)
}

// MountAssignRoutes registers the teacher student-assignment page.
func (h *Handler) MountAssignRoutes(r chi.Router) {
	r.Get("/", h.showAssign)
	r.Post("/", h.handleAssign)
}

type batchForm struct {
	Name      string `validate:"required,min=2"`
	Topic     string `validate:"required"`
	StartDate string `validate:"required,datetime=2006-01-02"`
	EndDate   string `validate:"required,datetime=2006-01-02"`
}

func (h *Handler) basePath(sc *shared.SessionContext) string {
	return "/" + sc.Role + "/dashboard/batches"
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	sc := shared.SessionFromContext(r.Context())
	if sc == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	items, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list batches", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/batches.html", "Batches", sc, map[string]any{
		"Batches":  items,
		"CanEdit":  sc.Role == "admin",
		"BasePath": h.basePath(sc),
	})
}

func (h *Handler) showForm(w http.ResponseWriter, r *http.Request) {
	sc := shared.SessionFromContext(r.Context())
	if sc == nil || sc.Role != "admin" {
		http.Redirect(w, r, "/forbidden", http.StatusSeeOther)
		return
	}
	h.render(w, r, "pages/batch_form.html", "New Batch", sc, map[string]any{
		"Form":     batchForm{},
		"Errors":   map[string]string{},
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
	form := batchForm{
		Name:      r.PostFormValue("name"),
		Topic:     r.PostFormValue("topic"),
		StartDate: r.PostFormValue("start_date"),
		EndDate:   r.PostFormValue("end_date"),
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
		start, _ := time.Parse("2006-01-02", form.StartDate)
		end, _ := time.Parse("2006-01-02", form.EndDate)
		_, err := h.service.Create(r.Context(), form.Name, form.Topic, start, end)
		switch {
		case err == nil:
			shared.SetFlash(w, shared.FlashMessage{Kind: "success", Message: "Batch created."})
			http.Redirect(w, r, h.basePath(sc), http.StatusSeeOther)
			return
		case errors.Is(err, ErrInvalidDates):
			formErrors["EndDate"] = "End date must not be before the start date"
		default:
			h.logger.Error("create batch", slog.Any("error", err))
			formErrors["general"] = "Could not create the batch. Please try again."
		}
	}

	w.WriteHeader(http.StatusBadRequest)
	h.render(w, r, "pages/batch_form.html", "New Batch", sc, map[string]any{
		"Form":     form,
		"Errors":   formErrors,
		"BasePath": h.basePath(sc),
	})
}

func (h *Handler) showAssign(w http.ResponseWriter, r *http.Request) {
	sc := shared.SessionFromContext(r.Context())
	if sc == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	batchesList, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list batches", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	students, err := h.service.AllStudents(r.Context())
	if err != nil {
		h.logger.Error("list students", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/assign_students.html", "Assign Students", sc, map[string]any{
		"Batches":  batchesList,
		"Students": students,
		"Errors":   map[string]string{},
		"BasePath": "/" + sc.Role + "/dashboard/assign-students",
	})
}

func (h *Handler) handleAssign(w http.ResponseWriter, r *http.Request) {
	sc := shared.SessionFromContext(r.Context())
	if sc == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	batchID, err := strconv.ParseInt(r.PostFormValue("batch_id"), 10, 64)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	accountIDs := r.PostForm["account_id"]
	if len(accountIDs) > 0 {
		if err := h.service.Assign(r.Context(), batchID, accountIDs); err != nil {
			h.logger.Error("assign students", slog.Any("error", err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
	}
	shared.SetFlash(w, shared.FlashMessage{Kind: "success", Message: "Students assigned."})
	http.Redirect(w, r, "/"+sc.Role+"/dashboard/assign-students", http.StatusSeeOther)
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
