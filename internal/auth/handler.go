package auth

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

// invalidCredentialsMessage is the single user-visible login failure text.
// Identical for unknown identifier, wrong password, and wrong role, so the
// response cannot be used to probe which accounts exist.
const invalidCredentialsMessage = "Invalid credentials"

const providerUnavailableMessage = "Sign-in is temporarily unavailable. Please try again."

// Handler wires HTTP endpoints for the login and logout flows.
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

// MountRoutes registers the role login pages and the logout endpoint.
func (h *Handler) MountRoutes(r chi.Router) {
	for _, role := range []identity.Role{identity.RoleStudent, identity.RoleTeacher, identity.RoleAdmin} {
		role := role
		r.Get(role.LoginPath(), func(w http.ResponseWriter, req *http.Request) {
			h.showLogin(w, req, role)
		})
		r.Post(role.LoginPath(), func(w http.ResponseWriter, req *http.Request) {
			h.handleLogin(w, req, role)
		})
	}
	r.Post("/logout", h.handleLogout)
}

type loginForm struct {
	Identifier string `validate:"required"`
	Password   string `validate:"required"`
}

type loginPageData struct {
	RoleTitle       string
	IdentifierLabel string
	Form            loginForm
	Errors          map[string]string
}

func newLoginPageData(role identity.Role) loginPageData {
	data := loginPageData{
		RoleTitle:       "Staff",
		IdentifierLabel: "Email",
		Errors:          map[string]string{},
	}
	switch role {
	case identity.RoleStudent:
		data.RoleTitle = "Student"
		data.IdentifierLabel = "Student ID"
	case identity.RoleTeacher:
		data.RoleTitle = "Teacher"
	case identity.RoleAdmin:
		data.RoleTitle = "Admin"
	}
	return data
}

func (h *Handler) showLogin(w http.ResponseWriter, r *http.Request, role identity.Role) {
	csrfToken, _ := h.csrfManager.EnsureToken(w, r)
	h.render(w, r, http.StatusOK, view.TemplateData{
		Title:       newLoginPageData(role).RoleTitle + " Login",
		CSRFToken:   csrfToken,
		CurrentPath: r.URL.Path,
		Flash:       shared.PopFlash(w, r),
		Data:        newLoginPageData(role),
	})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request, role identity.Role) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	csrfToken, _ := h.csrfManager.EnsureToken(w, r)

	data := newLoginPageData(role)
	data.Form = loginForm{
		Identifier: r.PostFormValue("identifier"),
		Password:   r.PostFormValue("password"),
	}

	if err := h.validator.Struct(data.Form); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				data.Errors[fe.Field()] = "This field is required"
			}
		}
	}

	if len(data.Errors) == 0 {
		result, err := h.service.Login(r.Context(), w, LoginInput{
			Identifier: data.Form.Identifier,
			Password:   data.Form.Password,
			Role:       role,
			RemoteAddr: r.RemoteAddr,
			UserAgent:  r.UserAgent(),
		})
		switch {
		case err == nil:
			http.Redirect(w, r, result.RedirectTo, http.StatusSeeOther)
			return
		case errors.Is(err, shared.ErrProviderUnavailable):
			data.Errors["general"] = providerUnavailableMessage
		default:
			data.Errors["general"] = invalidCredentialsMessage
		}
	}

	data.Form.Password = ""
	h.render(w, r, http.StatusUnauthorized, view.TemplateData{
		Title:       data.RoleTitle + " Login",
		CSRFToken:   csrfToken,
		CurrentPath: r.URL.Path,
		Data:        data,
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Logout(r.Context(), w, r); err != nil {
		h.logger.Warn("logout", slog.Any("error", err))
	}
	shared.SetFlash(w, shared.FlashMessage{Kind: "success", Message: "You have been signed out."})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, data view.TemplateData) {
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	if err := h.templates.Render(w, "pages/login.html", data); err != nil {
		h.logger.Error("render login", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
