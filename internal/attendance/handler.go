package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fsp-portal/fsp-portal/internal/batches"
	"github.com/fsp-portal/fsp-portal/internal/shared"
	"github.com/fsp-portal/fsp-portal/internal/view"
)

// BatchDirectory supplies batch listings and rosters for the marking UI.
type BatchDirectory interface {
	List(ctx context.Context) ([]batches.Batch, error)
	Members(ctx context.Context, batchID int64) ([]batches.Member, error)
}

// PDFRenderer converts report HTML into a PDF document.
type PDFRenderer interface {
	RenderHTML(ctx context.Context, html string) ([]byte, error)
}

// Handler wires HTTP endpoints for attendance marking and reporting.
type Handler struct {
	logger      *slog.Logger
	service     *Service
	directory   BatchDirectory
	pdf         PDFRenderer
	templates   *view.Engine
	csrfManager *shared.CSRFManager
}

// NewHandler constructs a Handler instance. pdf may be nil, which
// disables the PDF export endpoint.
func NewHandler(logger *slog.Logger, service *Service, directory BatchDirectory, pdf PDFRenderer, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	return &Handler{
		logger:      logger,
		service:     service,
		directory:   directory,
		pdf:         pdf,
		templates:   templates,
		csrfManager: csrf,
	}
}

// MountMarkRoutes registers the teacher marking page.
func (h *Handler) MountMarkRoutes(r chi.Router) {
	r.Get("/", h.showMark)
	r.Post("/", h.handleMark)
}

// MountReportRoutes registers the per-batch report page and PDF export.
func (h *Handler) MountReportRoutes(r chi.Router) {
	r.Get("/", h.showReport)
	r.Get("/export", h.exportReport)
}

// MountStudentRoutes registers the student's own attendance view.
func (h *Handler) MountStudentRoutes(r chi.Router) {
	r.Get("/", h.studentView)
}

func (h *Handler) selectBatch(r *http.Request, batchList []batches.Batch) int64 {
	if raw := r.URL.Query().Get("batch_id"); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return id
		}
	}
	if len(batchList) > 0 {
		return batchList[0].ID
	}
	return 0
}

func (h *Handler) showMark(w http.ResponseWriter, r *http.Request) {
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
	selected := h.selectBatch(r, batchList)
	var students []batches.Member
	if selected != 0 {
		students, err = h.directory.Members(r.Context(), selected)
		if err != nil {
			h.logger.Error("list members", slog.Int64("batch_id", selected), slog.Any("error", err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
	}
	h.render(w, r, "pages/attendance_mark.html", "Mark Attendance", sc, map[string]any{
		"Batches":       batchList,
		"SelectedBatch": selected,
		"Students":      students,
		"Date":          time.Now().Format("2006-01-02"),
		"BasePath":      "/" + sc.Role + "/dashboard/attendance",
	})
}

func (h *Handler) handleMark(w http.ResponseWriter, r *http.Request) {
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
	day, err := time.Parse("2006-01-02", r.PostFormValue("date"))
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	presentIDs := r.PostForm["present"]
	if err := h.service.MarkDay(r.Context(), batchID, day, sc.Subject, presentIDs); err != nil {
		if errors.Is(err, ErrNoDate) {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		h.logger.Error("mark attendance", slog.Int64("batch_id", batchID), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	shared.SetFlash(w, shared.FlashMessage{Kind: "success", Message: "Attendance saved."})
	http.Redirect(w, r, "/"+sc.Role+"/dashboard/attendance?batch_id="+strconv.FormatInt(batchID, 10), http.StatusSeeOther)
}

func (h *Handler) showReport(w http.ResponseWriter, r *http.Request) {
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
	selected := h.selectBatch(r, batchList)
	var reportRows []ReportRow
	if selected != 0 {
		reportRows, err = h.service.Report(r.Context(), selected)
		if err != nil {
			h.logger.Error("build report", slog.Int64("batch_id", selected), slog.Any("error", err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
	}
	h.render(w, r, "pages/attendance_report.html", "Attendance Report", sc, map[string]any{
		"Batches":       batchList,
		"SelectedBatch": selected,
		"Rows":          reportRows,
		"BasePath":      "/" + sc.Role + "/dashboard/attendance-report",
	})
}

func (h *Handler) exportReport(w http.ResponseWriter, r *http.Request) {
	sc := shared.SessionFromContext(r.Context())
	if sc == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if h.pdf == nil {
		http.Error(w, "PDF export is not configured", http.StatusServiceUnavailable)
		return
	}
	batchID, err := strconv.ParseInt(r.URL.Query().Get("batch_id"), 10, 64)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	reportRows, err := h.service.Report(r.Context(), batchID)
	if err != nil {
		h.logger.Error("build report", slog.Int64("batch_id", batchID), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	pdfBytes, err := h.pdf.RenderHTML(r.Context(), reportHTML(batchID, reportRows, time.Now()))
	if err != nil {
		h.logger.Error("render report pdf", slog.Int64("batch_id", batchID), slog.Any("error", err))
		http.Error(w, "PDF renderer unavailable", http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=attendance-batch-%d.pdf", batchID))
	_, _ = w.Write(pdfBytes)
}

func (h *Handler) studentView(w http.ResponseWriter, r *http.Request) {
	sc := shared.SessionFromContext(r.Context())
	if sc == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	records, summary, err := h.service.ForStudent(r.Context(), sc.Subject)
	if err != nil {
		h.logger.Error("student attendance", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/attendance_student.html", "My Attendance", sc, map[string]any{
		"Records": records,
		"Summary": summary,
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
