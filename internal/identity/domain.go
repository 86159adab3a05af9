package identity

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Role is the closed set of portal roles. Authorization checks compare Role
// values taken from verified token claims, never from caller-supplied input.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
)

// ParseRole validates a raw role string.
func ParseRole(raw string) (Role, error) {
	switch Role(raw) {
	case RoleStudent, RoleTeacher, RoleAdmin:
		return Role(raw), nil
	}
	return "", fmt.Errorf("identity: unknown role %q", raw)
}

// Valid reports whether the role is one of the three known roles.
func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

// String returns the wire form of the role.
func (r Role) String() string { return string(r) }

// DashboardPath returns the dashboard root for the role.
func (r Role) DashboardPath() string {
	return "/" + string(r) + "/dashboard"
}

// LoginPath returns the login page for the role.
func (r Role) LoginPath() string {
	return "/" + string(r) + "/login"
}

// Identity is the authenticated subject returned by the credential store.
// A fresh Identity is issued per login; it is read-only afterwards.
type Identity struct {
	Subject string
	Name    string
	Email   string
	Role    Role
}

// Account is a credential record held by the credential store.
type Account struct {
	ID           string
	Role         Role
	StudentID    string
	Email        string
	Name         string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewAccount carries the fields needed to create an account. The role is
// fixed at creation time and becomes a signed claim on every token issued
// for the account.
type NewAccount struct {
	Role      Role
	StudentID string
	Email     string
	Name      string
	Password  string
}

func newSubjectID(role Role) string {
	return string(role) + "_" + uuid.NewString()
}

// Identifier returns the login identifier for the account's role: students
// sign in with their student ID, staff with email.
func (a Account) Identifier() string {
	if a.Role == RoleStudent {
		return a.StudentID
	}
	return a.Email
}
