package students

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/fsp-portal/fsp-portal/internal/identity"
	"github.com/fsp-portal/fsp-portal/internal/shared"
	"github.com/fsp-portal/fsp-portal/internal/view"
)

// Handler wires registration and account-settings endpoints.
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

// MountPublicRoutes registers the unauthenticated student self-registration
// page.
func (h *Handler) MountPublicRoutes(r chi.Router) {
	r.Get("/student/register", h.showStudentRegister)
	r.Post("/student/register", h.handleStudentRegister)
}

// MountAdminRoutes registers the admin staff-registration page.
func (h *Handler) MountAdminRoutes(r chi.Router) {
	r.Get("/", h.showStaffRegister)
	r.Post("/", h.handleStaffRegister)
}

// MountSettingsRoutes registers the per-role settings page.
func (h *Handler) MountSettingsRoutes(r chi.Router) {
	r.Get("/", h.showSettings)
	r.Post("/", h.handleChangePassword)
}

type studentForm struct {
	StudentID string `validate:"required,alphanum,min=4,max=20"`
	Name      string `validate:"required,min=2"`
	Email     string `validate:"required,email"`
	Password  string `validate:"required,min=8"`
}

type staffForm struct {
	Name     string `validate:"required,min=2"`
	Email    string `validate:"required,email"`
	Role     string `validate:"required,oneof=teacher admin"`
	Password string `validate:"required,min=8"`
}

type passwordForm struct {
	CurrentPassword string `validate:"required"`
	NewPassword     string `validate:"required,min=8"`
}

func (h *Handler) showStudentRegister(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/register_student.html", "Student Registration", nil, map[string]any{
		"Form":   studentForm{},
		"Errors": map[string]string{},
	})
}

func (h *Handler) handleStudentRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := studentForm{
		StudentID: r.PostFormValue("student_id"),
		Name:      r.PostFormValue("name"),
		Email:     r.PostFormValue("email"),
		Password:  r.PostFormValue("password"),
	}
	formErrors := h.validate(form)
	if len(formErrors) == 0 {
		_, err := h.service.RegisterStudent(r.Context(), form.StudentID, form.Name, form.Email, form.Password)
		switch {
		case err == nil:
			shared.SetFlash(w, shared.FlashMessage{Kind: "success", Message: "Account created. Please sign in."})
			http.Redirect(w, r, identity.RoleStudent.LoginPath(), http.StatusSeeOther)
			return
		case errors.Is(err, ErrDuplicate):
			formErrors["StudentID"] = "An account with this student ID or email already exists"
		default:
			h.logger.Error("register student", slog.Any("error", err))
			formErrors["general"] = "Registration failed. Please try again."
		}
	}
	form.Password = ""
	w.WriteHeader(http.StatusBadRequest)
	h.render(w, r, "pages/register_student.html", "Student Registration", nil, map[string]any{
		"Form":   form,
		"Errors": formErrors,
	})
}

func (h *Handler) showStaffRegister(w http.ResponseWriter, r *http.Request) {
	sc := shared.SessionFromContext(r.Context())
	if sc == nil || sc.Role != "admin" {
		http.Redirect(w, r, "/forbidden", http.StatusSeeOther)
		return
	}
	h.render(w, r, "pages/register_user.html", "Register Staff Account", sc, map[string]any{
		"Form":   staffForm{Role: "teacher"},
		"Errors": map[string]string{},
	})
}

func (h *Handler) handleStaffRegister(w http.ResponseWriter, r *http.Request) {
	sc := shared.SessionFromContext(r.Context())
	if sc == nil || sc.Role != "admin" {
		http.Redirect(w, r, "/forbidden", http.StatusSeeOther)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := staffForm{
		Name:     r.PostFormValue("name"),
		Email:    r.PostFormValue("email"),
		Role:     r.PostFormValue("role"),
		Password: r.PostFormValue("password"),
	}
	formErrors := h.validate(form)
	if len(formErrors) == 0 {
		role, _ := identity.ParseRole(form.Role)
		_, err := h.service.RegisterStaff(r.Context(), role, form.Name, form.Email, form.Password)
		switch {
		case err == nil:
			shared.SetFlash(w, shared.FlashMessage{Kind: "success", Message: "Account created."})
			http.Redirect(w, r, "/admin/dashboard", http.StatusSeeOther)
			return
		case errors.Is(err, ErrDuplicate):
			formErrors["Email"] = "An account with this email already exists"
		case errors.Is(err, shared.ErrRoleMismatch):
			formErrors["Role"] = "Invalid role"
		default:
			h.logger.Error("register staff", slog.Any("error", err))
			formErrors["general"] = "Registration failed. Please try again."
		}
	}
	form.Password = ""
	w.WriteHeader(http.StatusBadRequest)
	h.render(w, r, "pages/register_user.html", "Register Staff Account", sc, map[string]any{
		"Form":   form,
		"Errors": formErrors,
	})
}

func (h *Handler) showSettings(w http.ResponseWriter, r *http.Request) {
	sc := shared.SessionFromContext(r.Context())
	if sc == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	h.render(w, r, "pages/settings.html", "Settings", sc, map[string]any{
		"Errors":   map[string]string{},
		"BasePath": "/" + sc.Role + "/dashboard/settings",
	})
}

func (h *Handler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	sc := shared.SessionFromContext(r.Context())
	if sc == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := passwordForm{
		CurrentPassword: r.PostFormValue("current_password"),
		NewPassword:     r.PostFormValue("new_password"),
	}
	formErrors := h.validate(form)
	if len(formErrors) == 0 {
		err := h.service.ChangePassword(r.Context(), sc.Subject, form.CurrentPassword, form.NewPassword)
		switch {
		case err == nil:
			shared.SetFlash(w, shared.FlashMessage{Kind: "success", Message: "Password updated."})
			http.Redirect(w, r, "/"+sc.Role+"/dashboard/settings", http.StatusSeeOther)
			return
		case errors.Is(err, shared.ErrInvalidCredentials):
			formErrors["CurrentPassword"] = "Current password is incorrect"
		default:
			h.logger.Error("change password", slog.Any("error", err))
			formErrors["general"] = "Could not update the password. Please try again."
		}
	}
	w.WriteHeader(http.StatusBadRequest)
	h.render(w, r, "pages/settings.html", "Settings", sc, map[string]any{
		"Errors":   formErrors,
		"BasePath": "/" + sc.Role + "/dashboard/settings",
	})
}

func (h *Handler) validate(form any) map[string]string {
	formErrors := make(map[string]string)
	if err := h.validator.Struct(form); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				formErrors[fe.Field()] = "Invalid value"
			}
		}
	}
	return formErrors
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
