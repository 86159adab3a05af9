package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/fsp-portal/fsp-portal/internal/batches"
	"github.com/fsp-portal/fsp-portal/internal/shared"
	"github.com/fsp-portal/fsp-portal/internal/timetables"
	"github.com/fsp-portal/fsp-portal/internal/view"
)

// BatchSummary supplies the aggregates shown on the dashboard home pages.
type BatchSummary interface {
	Count(ctx context.Context) (int, error)
	AllStudents(ctx context.Context) ([]batches.Member, error)
	ForStudent(ctx context.Context, accountID string) (*batches.Batch, error)
}

// ScheduleSource supplies a student's weekly timetable.
type ScheduleSource interface {
	ForStudent(ctx context.Context, accountID string) ([]timetables.Entry, error)
}

// Handler renders the per-role dashboard home pages.
type Handler struct {
	logger      *slog.Logger
	summary     BatchSummary
	schedule    ScheduleSource
	templates   *view.Engine
	csrfManager *shared.CSRFManager
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, summary BatchSummary, schedule ScheduleSource, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	return &Handler{
		logger:      logger,
		summary:     summary,
		schedule:    schedule,
		templates:   templates,
		csrfManager: csrf,
	}
}

// AdminHome renders the admin dashboard with headline counts.
func (h *Handler) AdminHome(w http.ResponseWriter, r *http.Request) {
	sc := shared.SessionFromContext(r.Context())
	if sc == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	batchCount, err := h.summary.Count(r.Context())
	if err != nil {
		h.logger.Error("count batches", slog.Any("error", err))
	}
	students, err := h.summary.AllStudents(r.Context())
	if err != nil {
		h.logger.Error("list students", slog.Any("error", err))
	}
	h.render(w, r, "pages/dashboard_admin.html", "Admin Dashboard", sc, map[string]any{
		"BatchCount":   batchCount,
		"StudentCount": len(students),
	})
}

// TeacherHome renders the teacher dashboard.
func (h *Handler) TeacherHome(w http.ResponseWriter, r *http.Request) {
	sc := shared.SessionFromContext(r.Context())
	if sc == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	h.render(w, r, "pages/dashboard_teacher.html", "Teacher Dashboard", sc, nil)
}

// StudentHome renders the student dashboard with their batch, if any.
func (h *Handler) StudentHome(w http.ResponseWriter, r *http.Request) {
	sc := shared.SessionFromContext(r.Context())
	if sc == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	batch, err := h.summary.ForStudent(r.Context(), sc.Subject)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		h.logger.Error("student batch", slog.Any("error", err))
	}
	h.render(w, r, "pages/dashboard_student.html", "Student Dashboard", sc, map[string]any{
		"Batch": batch,
	})
}

// StudentBatch renders the student's batch detail with its weekly schedule.
func (h *Handler) StudentBatch(w http.ResponseWriter, r *http.Request) {
	sc := shared.SessionFromContext(r.Context())
	if sc == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	batch, err := h.summary.ForStudent(r.Context(), sc.Subject)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		h.logger.Error("student batch", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	var entries []timetables.Entry
	if batch != nil {
		entries, err = h.schedule.ForStudent(r.Context(), sc.Subject)
		if err != nil {
			h.logger.Error("student timetable", slog.Any("error", err))
		}
	}
	h.render(w, r, "pages/batch_detail.html", "My Batch", sc, map[string]any{
		"Batch":   batch,
		"Entries": entries,
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
