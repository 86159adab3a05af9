package app

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/fsp-portal/fsp-portal/internal/attendance"
	"github.com/fsp-portal/fsp-portal/internal/auth"
	"github.com/fsp-portal/fsp-portal/internal/batches"
	"github.com/fsp-portal/fsp-portal/internal/dashboard"
	"github.com/fsp-portal/fsp-portal/internal/identity"
	"github.com/fsp-portal/fsp-portal/internal/observability"
	"github.com/fsp-portal/fsp-portal/internal/shared"
	"github.com/fsp-portal/fsp-portal/internal/students"
	"github.com/fsp-portal/fsp-portal/internal/timetables"
	"github.com/fsp-portal/fsp-portal/internal/view"
	"github.com/fsp-portal/fsp-portal/jobs"
	"github.com/fsp-portal/fsp-portal/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger      *slog.Logger
	Config      *Config
	Templates   *view.Engine
	CSRFManager *shared.CSRFManager

	Guard auth.Guard
	Shell *dashboard.Shell

	AuthHandler       *auth.Handler
	SecureInfoHandler *auth.SecureInfoHandler
	DashboardHandler  *dashboard.Handler
	StudentsHandler   *students.Handler
	BatchesHandler    *batches.Handler
	TimetablesHandler *timetables.Handler
	AttendanceHandler *attendance.Handler
	JobHandler        *jobs.Handler

	Metrics *observability.Metrics
}

// NewRouter constructs the chi.Router for the portal.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:      params.Logger,
		Config:      params.Config,
		CSRFManager: params.CSRFManager,
		Metrics:     params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)
	r.Use(params.Guard.Middleware)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		renderPublic(params, w, r, "pages/landing.html", "Finishing School Program")
	})
	r.Get("/forbidden", func(w http.ResponseWriter, r *http.Request) {
		renderPublic(params, w, r, "pages/forbidden.html", "Access Denied")
	})

	params.AuthHandler.MountRoutes(r)
	params.StudentsHandler.MountPublicRoutes(r)

	r.Route(identity.RoleAdmin.DashboardPath(), func(r chi.Router) {
		r.Use(params.Shell.Require(identity.RoleAdmin))
		r.Get("/", params.DashboardHandler.AdminHome)
		r.Route("/batches", params.BatchesHandler.MountRoutes)
		r.Route("/assign-students", params.BatchesHandler.MountAssignRoutes)
		r.Route("/timetables", params.TimetablesHandler.MountRoutes)
		r.Route("/attendance", params.AttendanceHandler.MountMarkRoutes)
		r.Route("/attendance-report", params.AttendanceHandler.MountReportRoutes)
		r.Route("/register-user", params.StudentsHandler.MountAdminRoutes)
		r.Route("/settings", params.StudentsHandler.MountSettingsRoutes)
	})

	r.Route(identity.RoleTeacher.DashboardPath(), func(r chi.Router) {
		r.Use(params.Shell.Require(identity.RoleTeacher))
		r.Get("/", params.DashboardHandler.TeacherHome)
		r.Route("/batches", params.BatchesHandler.MountRoutes)
		r.Route("/assign-students", params.BatchesHandler.MountAssignRoutes)
		r.Route("/timetables", params.TimetablesHandler.MountRoutes)
		r.Route("/attendance", params.AttendanceHandler.MountMarkRoutes)
		r.Route("/attendance-report", params.AttendanceHandler.MountReportRoutes)
		r.Route("/settings", params.StudentsHandler.MountSettingsRoutes)
	})

	r.Route(identity.RoleStudent.DashboardPath(), func(r chi.Router) {
		r.Use(params.Shell.Require(identity.RoleStudent))
		r.Get("/", params.DashboardHandler.StudentHome)
		r.Get("/batch", params.DashboardHandler.StudentBatch)
		r.Route("/timetables", params.TimetablesHandler.MountStudentRoutes)
		r.Route("/attendance", params.AttendanceHandler.MountStudentRoutes)
		r.Route("/settings", params.StudentsHandler.MountSettingsRoutes)
	})

	if params.SecureInfoHandler != nil {
		r.Method(http.MethodGet, "/api/secure-info", params.SecureInfoHandler)
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	return r
}

func renderPublic(params RouterParams, w http.ResponseWriter, r *http.Request, page, title string) {
	csrfToken, _ := params.CSRFManager.EnsureToken(w, r)
	data := view.TemplateData{
		Title:       title,
		CSRFToken:   csrfToken,
		CurrentPath: r.URL.Path,
		Flash:       shared.PopFlash(w, r),
	}
	if err := params.Templates.Render(w, page, data); err != nil {
		params.Logger.Error("render "+page, slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// staticCacheHandler wraps a file server with Cache-Control headers so
// browsers keep assets for an hour.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
