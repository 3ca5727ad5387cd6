package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/visitdesk/visitdesk/internal/config"
	"github.com/visitdesk/visitdesk/internal/domain/identity"
	"github.com/visitdesk/visitdesk/internal/domain/visit"
	"github.com/visitdesk/visitdesk/internal/platform/blobstore"
	"github.com/visitdesk/visitdesk/internal/platform/db"
	"github.com/visitdesk/visitdesk/internal/platform/response"
)

func TestMigrationFiles_Embedded(t *testing.T) {
	migrator := db.NewMigratorFS(nil, migrationFiles(""), zerolog.Nop())
	migrations, err := migrator.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := []string{"001_clinicians.sql", "002_patients.sql", "003_visits.sql"}
	if len(migrations) != len(want) {
		t.Fatalf("expected %d embedded migrations, got %d", len(want), len(migrations))
	}
	for i, m := range migrations {
		if m.Version != i+1 || m.Name != want[i] {
			t.Errorf("migration %d = %d %s, want %d %s", i, m.Version, m.Name, i+1, want[i])
		}
	}
}

func TestMigrationFiles_Directory(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "001_only.sql"), []byte("SELECT 1;"), 0o644); err != nil {
		t.Fatal(err)
	}
	migrations, err := db.NewMigratorFS(nil, migrationFiles(dir), zerolog.Nop()).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(migrations) != 1 || migrations[0].Name != "001_only.sql" {
		t.Errorf("expected the directory migration only, got %+v", migrations)
	}
}

func TestNewBlobStore(t *testing.T) {
	store, err := newBlobStore("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := store.(*blobstore.MemoryStore); !ok {
		t.Errorf("expected a memory store for an empty dir, got %T", store)
	}

	store, err = newBlobStore(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := store.(*blobstore.FileStore); !ok {
		t.Errorf("expected a file store, got %T", store)
	}
}

func TestRateLimitConfig(t *testing.T) {
	rl := rateLimitConfig(&config.Config{RateLimitRPS: 5, RateLimitBurst: 7})
	if rl.RequestsPerSecond != 5 || rl.BurstSize != 7 {
		t.Errorf("expected configured limits, got %+v", rl)
	}

	rl = rateLimitConfig(&config.Config{})
	if rl.RequestsPerSecond != 100 || rl.BurstSize != 200 {
		t.Errorf("expected default limits, got %+v", rl)
	}
}

func TestNewValidator_RegistersDomainTags(t *testing.T) {
	v, err := newValidator()
	if err != nil {
		t.Fatalf("newValidator: %v", err)
	}

	in := visit.Input{
		PatientID:       visit.FlexInt{Value: 1, Set: true},
		DoctorName:      "Dr. Chen",
		Type:            visit.TypeConsult,
		AppointmentDate: "2024-03-15",
		AppointmentTime: "25:00",
		Status:          visit.StatusPending,
	}
	assertField(t, v.Validate(in), "appointmentTime")

	profile := identity.PatientProfileInput{
		FirstName: "Alice",
		LastName:  "Johnson",
		DOB:       "1990-05-10",
		Mobile:    "12345",
		Email:     "alice@gmail.com",
		Address:   "123 Main St",
	}
	assertField(t, v.Validate(profile), "mobile")
}

func assertField(t *testing.T, err error, field string) {
	t.Helper()
	var verr *response.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(verr.Fields) != 1 || verr.Fields[0].Field != field {
		t.Errorf("expected a single %s error, got %+v", field, verr.Fields)
	}
}

func TestDemoVisits(t *testing.T) {
	today := visit.DateOf(time.Date(2024, 2, 29, 18, 0, 0, 0, time.UTC))
	visits := demoVisits(today)
	if len(visits) != 2 {
		t.Fatalf("expected 2 demo visits, got %d", len(visits))
	}

	first, second := visits[0].Visit, visits[1].Visit
	if first.AppointmentDate.String() != "2024-02-29" {
		t.Errorf("first visit date = %s, want 2024-02-29", first.AppointmentDate)
	}
	if second.AppointmentDate.String() != "2024-03-01" {
		t.Errorf("second visit date = %s, want 2024-03-01", second.AppointmentDate)
	}
	if first.Status != visit.StatusPending || second.Status != visit.StatusConfirm {
		t.Errorf("unexpected statuses %s, %s", first.Status, second.Status)
	}
	if got := visit.Format12h(second.AppointmentTime); got != "12:00 PM" {
		t.Errorf("second visit time = %q, want 12:00 PM", got)
	}
}

func TestDemoVisits_ReferenceSeededAccounts(t *testing.T) {
	clinicians := map[string]bool{}
	for _, c := range demoClinicians {
		clinicians[c.Email] = true
	}
	patients := map[string]bool{}
	for _, p := range demoPatients {
		patients[p.Email] = true
	}
	for _, d := range demoVisits(visit.DateOf(time.Now())) {
		if !clinicians[d.ClinicianEmail] {
			t.Errorf("visit references unknown clinician %s", d.ClinicianEmail)
		}
		if !patients[d.PatientEmail] {
			t.Errorf("visit references unknown patient %s", d.PatientEmail)
		}
		if !d.Visit.Type.Valid() {
			t.Errorf("invalid visit type %q", d.Visit.Type)
		}
	}
}
