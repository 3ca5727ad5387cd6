package identity

import (
	"context"
	"errors"

	"github.com/visitdesk/visitdesk/internal/platform/auth"
)

var (
	ErrNotFound           = errors.New("account not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// Repository stores clinician and patient accounts.
type Repository interface {
	ClinicianByEmail(ctx context.Context, email string) (*Clinician, error)
	PatientByEmail(ctx context.Context, email string) (*Patient, error)
	GetClinician(ctx context.Context, id int64) (*Clinician, error)
	GetPatient(ctx context.Context, id int64) (*Patient, error)
	// UpdateClinician writes the profile columns and, when passwordHash is
	// non-empty, the password.
	UpdateClinician(ctx context.Context, c *Clinician, passwordHash string) error
	UpdatePatient(ctx context.Context, p *Patient, passwordHash string) error
	ListPatientOptions(ctx context.Context) ([]PatientOption, error)
	AccountExists(ctx context.Context, role auth.Role, id int64) (bool, error)
}
