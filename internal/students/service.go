package students

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/fsp-portal/fsp-portal/internal/identity"
	"github.com/fsp-portal/fsp-portal/internal/shared"
)

// ErrDuplicate indicates a registration that collides with an existing
// account's student ID or email.
var ErrDuplicate = errors.New("students: account already exists")

const pgUniqueViolation = "23505"

// Mailer enqueues the welcome mail after a successful registration.
// Delivery failures never fail the registration itself.
type Mailer interface {
	EnqueueWelcome(ctx context.Context, to, name string) error
}

var nameCaser = cases.Title(language.English)

// NormalizeName trims and title-cases a person's name for storage, so
// "riya  sharma" and "RIYA SHARMA" record the same display name.
func NormalizeName(raw string) string {
	return nameCaser.String(strings.Join(strings.Fields(raw), " "))
}

// Service wraps account registration and password management on top of
// the credential store.
type Service struct {
	provider identity.Provider
	mailer   Mailer
}

// NewService constructs a Service. mailer may be nil.
func NewService(provider identity.Provider, mailer Mailer) *Service {
	return &Service{provider: provider, mailer: mailer}
}

// RegisterStudent creates a student account. The role claim is fixed to
// student here and cannot be supplied by the caller.
func (s *Service) RegisterStudent(ctx context.Context, studentID, name, email, password string) (identity.Identity, error) {
	return s.register(ctx, identity.NewAccount{
		Role:      identity.RoleStudent,
		StudentID: strings.ToUpper(strings.TrimSpace(studentID)),
		Name:      NormalizeName(name),
		Email:     email,
		Password:  password,
	})
}

// RegisterStaff creates a teacher or admin account. Only those two roles
// are accepted; student accounts go through self-registration.
func (s *Service) RegisterStaff(ctx context.Context, role identity.Role, name, email, password string) (identity.Identity, error) {
	if role != identity.RoleTeacher && role != identity.RoleAdmin {
		return identity.Identity{}, shared.ErrRoleMismatch
	}
	return s.register(ctx, identity.NewAccount{
		Role:     role,
		Name:     NormalizeName(name),
		Email:    email,
		Password: password,
	})
}

func (s *Service) register(ctx context.Context, acct identity.NewAccount) (identity.Identity, error) {
	id, err := s.provider.CreateAccount(ctx, acct)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return identity.Identity{}, ErrDuplicate
		}
		return identity.Identity{}, err
	}
	if s.mailer != nil {
		// Best effort: the account exists either way.
		_ = s.mailer.EnqueueWelcome(ctx, id.Email, id.Name)
	}
	return id, nil
}

// ChangePassword verifies the current password before storing a new one.
func (s *Service) ChangePassword(ctx context.Context, subject, current, next string) error {
	if err := s.provider.CheckPassword(ctx, subject, current); err != nil {
		return err
	}
	return s.provider.SetPassword(ctx, subject, next)
}
