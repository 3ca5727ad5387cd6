package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/visitdesk/visitdesk/internal/platform/auth"
	"github.com/visitdesk/visitdesk/internal/platform/db"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn() db.Querier { return r.pool }

// =========== Clinicians ===========

const clinicianCols = `id, name, mobile, email, password, image, website, address,
	operating_hours, emergency_mobile, total_doctor, total_staff, license_number,
	description, specialties, created_at, updated_at`

func scanClinician(row pgx.Row) (*Clinician, error) {
	var c Clinician
	err := row.Scan(&c.ID, &c.Name, &c.Mobile, &c.Email, &c.PasswordHash, &c.Image, &c.Website, &c.Address,
		&c.OperatingHours, &c.EmergencyMobile, &c.TotalDoctor, &c.TotalStaff, &c.LicenseNumber,
		&c.Description, &c.Specialties, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *repoPG) ClinicianByEmail(ctx context.Context, email string) (*Clinician, error) {
	return scanClinician(r.conn().QueryRow(ctx,
		`SELECT `+clinicianCols+` FROM clinicians WHERE lower(email) = lower($1)`, email))
}

func (r *repoPG) GetClinician(ctx context.Context, id int64) (*Clinician, error) {
	return scanClinician(r.conn().QueryRow(ctx,
		`SELECT `+clinicianCols+` FROM clinicians WHERE id = $1`, id))
}

func (r *repoPG) UpdateClinician(ctx context.Context, c *Clinician, passwordHash string) error {
	updated, err := scanClinician(r.conn().QueryRow(ctx, `
		UPDATE clinicians SET name=$2, mobile=$3, email=$4, image=$5, website=$6, address=$7,
			operating_hours=$8, emergency_mobile=$9, total_doctor=$10, total_staff=$11,
			license_number=$12, description=$13, specialties=$14,
			password=COALESCE(NULLIF($15, ''), password), updated_at=NOW()
		WHERE id = $1
		RETURNING `+clinicianCols,
		c.ID, c.Name, c.Mobile, c.Email, c.Image, c.Website, c.Address,
		c.OperatingHours, c.EmergencyMobile, c.TotalDoctor, c.TotalStaff,
		c.LicenseNumber, c.Description, c.Specialties, passwordHash))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return fmt.Errorf("update clinician %d: %w", c.ID, err)
	}
	*c = *updated
	return nil
}

// =========== Patients ===========

const patientCols = `id, first_name, last_name, mobile, dob, address, emergency_mobile,
	allergies, current_medication, medical_history, email, password, image, created_at, updated_at`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	var dob pgtype.Date
	err := row.Scan(&p.ID, &p.FirstName, &p.LastName, &p.Mobile, &dob, &p.Address, &p.EmergencyMobile,
		&p.Allergies, &p.CurrentMedication, &p.MedicalHistory, &p.Email, &p.PasswordHash, &p.Image,
		&p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if dob.Valid {
		s := dob.Time.Format(dateLayout)
		p.DOB = &s
	}
	return &p, nil
}

const dateLayout = "2006-01-02"

func dobToPG(s *string) (pgtype.Date, error) {
	if s == nil || *s == "" {
		return pgtype.Date{}, nil
	}
	t, err := time.Parse(dateLayout, *s)
	if err != nil {
		return pgtype.Date{}, fmt.Errorf("dob: %w", err)
	}
	return pgtype.Date{Time: t, Valid: true}, nil
}

func (r *repoPG) PatientByEmail(ctx context.Context, email string) (*Patient, error) {
	return scanPatient(r.conn().QueryRow(ctx,
		`SELECT `+patientCols+` FROM patients WHERE lower(email) = lower($1)`, email))
}

func (r *repoPG) GetPatient(ctx context.Context, id int64) (*Patient, error) {
	return scanPatient(r.conn().QueryRow(ctx,
		`SELECT `+patientCols+` FROM patients WHERE id = $1`, id))
}

func (r *repoPG) UpdatePatient(ctx context.Context, p *Patient, passwordHash string) error {
	dob, err := dobToPG(p.DOB)
	if err != nil {
		return err
	}
	updated, err := scanPatient(r.conn().QueryRow(ctx, `
		UPDATE patients SET first_name=$2, last_name=$3, mobile=$4, dob=$5, address=$6,
			emergency_mobile=$7, allergies=$8, current_medication=$9, medical_history=$10,
			email=$11, image=$12, password=COALESCE(NULLIF($13, ''), password), updated_at=NOW()
		WHERE id = $1
		RETURNING `+patientCols,
		p.ID, p.FirstName, p.LastName, p.Mobile, dob, p.Address,
		p.EmergencyMobile, p.Allergies, p.CurrentMedication, p.MedicalHistory,
		p.Email, p.Image, passwordHash))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return fmt.Errorf("update patient %d: %w", p.ID, err)
	}
	*p = *updated
	return nil
}

func (r *repoPG) ListPatientOptions(ctx context.Context) ([]PatientOption, error) {
	rows, err := r.conn().Query(ctx,
		`SELECT id, first_name, last_name FROM patients ORDER BY last_name, first_name, id`)
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	defer rows.Close()

	out := []PatientOption{}
	for rows.Next() {
		var o PatientOption
		if err := rows.Scan(&o.ID, &o.FirstName, &o.LastName); err != nil {
			return nil, fmt.Errorf("scan patient: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// =========== Account checks ===========

func (r *repoPG) AccountExists(ctx context.Context, role auth.Role, id int64) (bool, error) {
	var table string
	switch role {
	case auth.RoleClinician:
		table = "clinicians"
	case auth.RolePatient:
		table = "patients"
	default:
		return false, nil
	}
	var exists bool
	err := r.conn().QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM `+table+` WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check %s %d: %w", role, id, err)
	}
	return exists, nil
}
