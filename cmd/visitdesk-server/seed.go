package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/visitdesk/visitdesk/internal/domain/visit"
	"github.com/visitdesk/visitdesk/internal/platform/auth"
	"github.com/visitdesk/visitdesk/internal/platform/db"
)

// demoPassword is shared by every seeded account.
const demoPassword = "12345678"

type demoClinician struct {
	Name, Email, Mobile                     string
	Website, Address, OperatingHours        string
	EmergencyMobile                         string
	TotalDoctor, TotalStaff                 int
	LicenseNumber, Description, Specialties string
}

type demoPatient struct {
	FirstName, LastName, Email, Mobile, DOB string
	Address, EmergencyMobile                string
	Allergies, CurrentMedication, History   string
}

// demoVisit links a visit to its accounts by email, since ids are assigned on insert.
type demoVisit struct {
	ClinicianEmail string
	PatientEmail   string
	Visit          visit.Visit
}

var demoClinicians = []demoClinician{
	{
		Name: "General Medical Center", Email: "johndoe@gmail.com", Mobile: "9898989765",
		Website: "https://drjohndoeclinic.com", Address: "123 Main Street, Springfield",
		OperatingHours: "Mon-Fri 9AM-6PM", EmergencyMobile: "1234567890",
		TotalDoctor: 5, TotalStaff: 10, LicenseNumber: "CLN-12345",
		Description: "Specialist in general medicine and emergency care.",
		Specialties: "General Medicine, Emergency",
	},
	{
		Name: "Heal Medical Center", Email: "janesmith@gmail.com", Mobile: "9564989765",
		Website: "https://drjanesmithclinic.com", Address: "456 Elm Street, Metropolis",
		OperatingHours: "Tue-Sat 10AM-5PM", EmergencyMobile: "9876543210",
		TotalDoctor: 3, TotalStaff: 8, LicenseNumber: "CLN-67890",
		Description: "Expert in pediatrics and adolescent health.",
		Specialties: "Pediatrics, Adolescent Medicine",
	},
}

var demoPatients = []demoPatient{
	{
		FirstName: "Alice", LastName: "Johnson", Email: "alice@gmail.com", Mobile: "9564989765",
		DOB: "1990-05-10", Address: "123 Main St, New York, NY", EmergencyMobile: "9876543210",
		Allergies: "Peanuts", CurrentMedication: "Ibuprofen", History: "Asthma",
	},
	{
		FirstName: "Bob", LastName: "Williams", Email: "bob@gmail.com", Mobile: "9564983546",
		DOB: "1985-11-22", Address: "456 Elm St, Los Angeles, CA", EmergencyMobile: "8765432109",
		Allergies: "None", CurrentMedication: "Paracetamol", History: "Hypertension",
	},
}

// demoVisits builds one pending visit today and one confirmed follow-up tomorrow.
func demoVisits(today visit.Date) []demoVisit {
	tomorrow := today.AddDays(1)
	nine := visit.ClockTime{Hour: 9}
	noon := visit.ClockTime{Hour: 12}
	consultNotes := "Initial consultation regarding general health."
	followNotes := "Follow-up on recent lab results."

	return []demoVisit{
		{
			ClinicianEmail: "johndoe@gmail.com",
			PatientEmail:   "alice@gmail.com",
			Visit: visit.Visit{
				DoctorName:      "Dr. Michael Chen",
				Type:            visit.TypeConsult,
				Notes:           &consultNotes,
				AppointmentDate: &today,
				AppointmentTime: &nine,
				Status:          visit.StatusPending,
			},
		},
		{
			ClinicianEmail: "janesmith@gmail.com",
			PatientEmail:   "bob@gmail.com",
			Visit: visit.Visit{
				DoctorName:      "Dr. Emily Roberts",
				Type:            visit.TypeFollowUp,
				Notes:           &followNotes,
				AppointmentDate: &tomorrow,
				AppointmentTime: &noon,
				Status:          visit.StatusConfirm,
			},
		},
	}
}

// seed inserts the demo data in one transaction. Accounts that already exist
// are left alone, and visits are only added for clinicians that have none.
func seed(ctx context.Context, pool *pgxpool.Pool, today visit.Date) (int, error) {
	hash, err := auth.HashPassword(demoPassword)
	if err != nil {
		return 0, err
	}

	inserted := 0
	err = db.WithTx(ctx, pool, func(tx pgx.Tx) error {
		clinicianIDs := make(map[string]int64, len(demoClinicians))
		for _, c := range demoClinicians {
			_, err := tx.Exec(ctx, `INSERT INTO clinicians (name, email, mobile, password, website, address,
				operating_hours, emergency_mobile, total_doctor, total_staff, license_number, description, specialties)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
				ON CONFLICT (email) DO NOTHING`,
				c.Name, c.Email, c.Mobile, hash, c.Website, c.Address, c.OperatingHours,
				c.EmergencyMobile, c.TotalDoctor, c.TotalStaff, c.LicenseNumber, c.Description, c.Specialties)
			if err != nil {
				return fmt.Errorf("insert clinician %s: %w", c.Email, err)
			}
			var id int64
			if err := tx.QueryRow(ctx, `SELECT id FROM clinicians WHERE email = $1`, c.Email).Scan(&id); err != nil {
				return fmt.Errorf("lookup clinician %s: %w", c.Email, err)
			}
			clinicianIDs[c.Email] = id
		}

		patientIDs := make(map[string]int64, len(demoPatients))
		for _, p := range demoPatients {
			_, err := tx.Exec(ctx, `INSERT INTO patients (first_name, last_name, email, mobile, password, dob,
				address, emergency_mobile, allergies, current_medication, medical_history)
				VALUES ($1, $2, $3, $4, $5, $6::date, $7, $8, $9, $10, $11)
				ON CONFLICT (email) DO NOTHING`,
				p.FirstName, p.LastName, p.Email, p.Mobile, hash, p.DOB,
				p.Address, p.EmergencyMobile, p.Allergies, p.CurrentMedication, p.History)
			if err != nil {
				return fmt.Errorf("insert patient %s: %w", p.Email, err)
			}
			var id int64
			if err := tx.QueryRow(ctx, `SELECT id FROM patients WHERE email = $1`, p.Email).Scan(&id); err != nil {
				return fmt.Errorf("lookup patient %s: %w", p.Email, err)
			}
			patientIDs[p.Email] = id
		}

		for _, d := range demoVisits(today) {
			clinicianID := clinicianIDs[d.ClinicianEmail]
			var existing int
			if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM visits WHERE clinician_id = $1`, clinicianID).Scan(&existing); err != nil {
				return fmt.Errorf("count visits: %w", err)
			}
			if existing > 0 {
				continue
			}
			v := d.Visit
			_, err := tx.Exec(ctx, `INSERT INTO visits (clinician_id, patient_id, doctor_name, type, notes,
				appointment_date, appointment_time, status)
				VALUES ($1, $2, $3, $4, $5, $6::date, $7::time, $8)`,
				clinicianID, patientIDs[d.PatientEmail], v.DoctorName, string(v.Type), v.Notes,
				v.AppointmentDate.String(), v.AppointmentTime.String(), string(v.Status))
			if err != nil {
				return fmt.Errorf("insert visit for %s: %w", d.ClinicianEmail, err)
			}
			inserted++
		}
		return nil
	})
	return inserted, err
}
