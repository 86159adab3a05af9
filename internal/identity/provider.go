package identity

import (
	"context"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/fsp-portal/fsp-portal/internal/shared"
)

// Provider is the credential store boundary: it holds account records and
// authenticates identifier/password pairs. Role scopes the lookup, so
// students are found by student ID and staff by email. The returned identity
// carries the role stored at account creation.
type Provider interface {
	Authenticate(ctx context.Context, identifier, password string, role Role) (Identity, error)
	CreateAccount(ctx context.Context, acct NewAccount) (Identity, error)
	CheckPassword(ctx context.Context, subject, password string) error
	SetPassword(ctx context.Context, subject, password string) error
}

// AccountRepository is the persistence surface the store provider needs.
type AccountRepository interface {
	FindByIdentifier(ctx context.Context, identifier string, role Role) (*Account, error)
	FindBySubject(ctx context.Context, subject string) (*Account, error)
	Create(ctx context.Context, acct Account) error
	UpdatePasswordHash(ctx context.Context, subject, hash string) error
}

// Store implements Provider over bcrypt-hashed credentials in a repository.
type Store struct {
	repo AccountRepository
}

// NewStore constructs a Store.
func NewStore(repo AccountRepository) *Store {
	return &Store{repo: repo}
}

// Authenticate validates credentials for the role's identifier scheme.
func (s *Store) Authenticate(ctx context.Context, identifier, password string, role Role) (Identity, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" || !role.Valid() {
		return Identity{}, shared.ErrInvalidCredentials
	}
	acct, err := s.repo.FindByIdentifier(ctx, identifier, role)
	if err != nil {
		if ctx.Err() != nil {
			return Identity{}, shared.ErrProviderUnavailable
		}
		return Identity{}, shared.ErrInvalidCredentials
	}
	if !acct.IsActive || acct.Role != role {
		return Identity{}, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)); err != nil {
		return Identity{}, shared.ErrInvalidCredentials
	}
	return Identity{
		Subject: acct.ID,
		Name:    acct.Name,
		Email:   acct.Email,
		Role:    acct.Role,
	}, nil
}

// CreateAccount hashes the password and persists a new account. The role is
// fixed here; tokens issued later assert it as a signed claim.
func (s *Store) CreateAccount(ctx context.Context, acct NewAccount) (Identity, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(acct.Password), bcrypt.DefaultCost)
	if err != nil {
		return Identity{}, err
	}
	record := Account{
		ID:           newSubjectID(acct.Role),
		Role:         acct.Role,
		StudentID:    strings.TrimSpace(acct.StudentID),
		Email:        strings.ToLower(strings.TrimSpace(acct.Email)),
		Name:         strings.TrimSpace(acct.Name),
		PasswordHash: string(hash),
		IsActive:     true,
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return Identity{}, err
	}
	return Identity{
		Subject: record.ID,
		Name:    record.Name,
		Email:   record.Email,
		Role:    record.Role,
	}, nil
}

// CheckPassword verifies the current password for a subject.
func (s *Store) CheckPassword(ctx context.Context, subject, password string) error {
	acct, err := s.repo.FindBySubject(ctx, subject)
	if err != nil {
		return shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)); err != nil {
		return shared.ErrInvalidCredentials
	}
	return nil
}

// SetPassword replaces the stored hash for a subject.
func (s *Store) SetPassword(ctx context.Context, subject, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.repo.UpdatePasswordHash(ctx, subject, string(hash))
}

var _ Provider = (*Store)(nil)
