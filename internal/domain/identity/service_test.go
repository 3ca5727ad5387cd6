package identity

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/visitdesk/visitdesk/internal/platform/auth"
	"github.com/visitdesk/visitdesk/internal/platform/blobstore"
)

// -- Mock Repository --

type mockRepo struct {
	clinicians map[int64]*Clinician
	patients   map[int64]*Patient
}

func newMockRepo(t *testing.T) *mockRepo {
	t.Helper()
	hash, err := auth.HashPassword("12345678")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	website := "https://clinic.example"
	return &mockRepo{
		clinicians: map[int64]*Clinician{
			1: {ID: 1, Name: "General Medical Center", Mobile: "9898989765", Email: "johndoe@gmail.com", PasswordHash: hash, Website: &website},
		},
		patients: map[int64]*Patient{
			1: {ID: 1, FirstName: "Alice", LastName: "Johnson", Mobile: "9564989765", Email: "alice@gmail.com", PasswordHash: hash},
			2: {ID: 2, FirstName: "Bob", LastName: "Williams", Mobile: "9564983546", Email: "bob@gmail.com", PasswordHash: hash},
		},
	}
}

func (m *mockRepo) ClinicianByEmail(_ context.Context, email string) (*Clinician, error) {
	for _, c := range m.clinicians {
		if strings.EqualFold(c.Email, email) {
			cp := *c
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepo) PatientByEmail(_ context.Context, email string) (*Patient, error) {
	for _, p := range m.patients {
		if strings.EqualFold(p.Email, email) {
			cp := *p
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepo) GetClinician(_ context.Context, id int64) (*Clinician, error) {
	c, ok := m.clinicians[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *mockRepo) GetPatient(_ context.Context, id int64) (*Patient, error) {
	p, ok := m.patients[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockRepo) UpdateClinician(_ context.Context, c *Clinician, passwordHash string) error {
	cur, ok := m.clinicians[c.ID]
	if !ok {
		return ErrNotFound
	}
	if passwordHash != "" {
		c.PasswordHash = passwordHash
	} else {
		c.PasswordHash = cur.PasswordHash
	}
	c.UpdatedAt = time.Now()
	cp := *c
	m.clinicians[c.ID] = &cp
	return nil
}

func (m *mockRepo) UpdatePatient(_ context.Context, p *Patient, passwordHash string) error {
	cur, ok := m.patients[p.ID]
	if !ok {
		return ErrNotFound
	}
	if passwordHash != "" {
		p.PasswordHash = passwordHash
	} else {
		p.PasswordHash = cur.PasswordHash
	}
	cp := *p
	m.patients[p.ID] = &cp
	return nil
}

func (m *mockRepo) ListPatientOptions(context.Context) ([]PatientOption, error) {
	out := []PatientOption{}
	for _, id := range []int64{1, 2} {
		if p, ok := m.patients[id]; ok {
			out = append(out, PatientOption{ID: p.ID, FirstName: p.FirstName, LastName: p.LastName})
		}
	}
	return out, nil
}

func (m *mockRepo) AccountExists(_ context.Context, role auth.Role, id int64) (bool, error) {
	switch role {
	case auth.RoleClinician:
		_, ok := m.clinicians[id]
		return ok, nil
	case auth.RolePatient:
		_, ok := m.patients[id]
		return ok, nil
	}
	return false, nil
}

var (
	testTokens = auth.NewTokenIssuer("test-secret", time.Hour)
	pngBytes   = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), bytes.Repeat([]byte{0}, 32)...)
)

func newTestService(t *testing.T) (*Service, *mockRepo, *blobstore.MemoryStore) {
	t.Helper()
	repo := newMockRepo(t)
	blobs := blobstore.NewMemoryStore()
	return NewService(repo, testTokens, blobs, zerolog.Nop()), repo, blobs
}

func TestService_Login(t *testing.T) {
	svc, _, _ := newTestService(t)

	session, err := svc.Login(context.Background(), LoginRequest{Email: " JohnDoe@gmail.com", Password: "12345678", Type: auth.RoleClinician})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	id, err := testTokens.Parse(session.Token)
	if err != nil {
		t.Fatalf("parse issued token: %v", err)
	}
	if id.ID != 1 || id.Role != auth.RoleClinician {
		t.Errorf("unexpected token identity %+v", id)
	}
	if c, ok := session.Account.(*Clinician); !ok || c.ID != 1 {
		t.Errorf("expected clinician account, got %T", session.Account)
	}
}

func TestService_LoginPatient(t *testing.T) {
	svc, _, _ := newTestService(t)
	session, err := svc.Login(context.Background(), LoginRequest{Email: "bob@gmail.com", Password: "12345678", Type: auth.RolePatient})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	id, _ := testTokens.Parse(session.Token)
	if id.ID != 2 || id.Role != auth.RolePatient {
		t.Errorf("unexpected token identity %+v", id)
	}
}

func TestService_LoginRejected(t *testing.T) {
	svc, _, _ := newTestService(t)
	tests := []struct {
		name string
		req  LoginRequest
	}{
		{"wrong password", LoginRequest{Email: "alice@gmail.com", Password: "nope", Type: auth.RolePatient}},
		{"unknown email", LoginRequest{Email: "ghost@gmail.com", Password: "12345678", Type: auth.RolePatient}},
		{"wrong account type", LoginRequest{Email: "alice@gmail.com", Password: "12345678", Type: auth.RoleClinician}},
		{"unknown type", LoginRequest{Email: "alice@gmail.com", Password: "12345678", Type: "admin"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Login(context.Background(), tt.req); !errors.Is(err, ErrInvalidCredentials) {
				t.Errorf("expected ErrInvalidCredentials, got %v", err)
			}
		})
	}
}

func TestService_UpdateClinicianProfile(t *testing.T) {
	svc, repo, _ := newTestService(t)
	oldHash := repo.clinicians[1].PasswordHash

	in := ClinicianProfileInput{
		Name:        "  Heal Medical Center ",
		Mobile:      "9876543210",
		Email:       "Heal@Example.com",
		TotalDoctor: Count{Value: 4, Set: true},
		Specialties: "Pediatrics",
	}
	c, err := svc.UpdateClinicianProfile(context.Background(), 1, in, nil)
	if err != nil {
		t.Fatalf("UpdateClinicianProfile: %v", err)
	}
	if c.Name != "Heal Medical Center" || c.Email != "heal@example.com" {
		t.Errorf("unexpected name/email %q %q", c.Name, c.Email)
	}
	if c.TotalDoctor == nil || *c.TotalDoctor != 4 || c.TotalStaff != nil {
		t.Errorf("unexpected totals %v %v", c.TotalDoctor, c.TotalStaff)
	}
	if c.Website == nil || *c.Website != "https://clinic.example" {
		t.Error("expected omitted website to be kept")
	}
	if repo.clinicians[1].PasswordHash != oldHash {
		t.Error("expected password to be unchanged")
	}
}

func TestService_UpdateClinicianPassword(t *testing.T) {
	svc, repo, _ := newTestService(t)
	in := ClinicianProfileInput{Name: "GMC", Mobile: "9876543210", Email: "johndoe@gmail.com", Password: "new-password"}
	if _, err := svc.UpdateClinicianProfile(context.Background(), 1, in, nil); err != nil {
		t.Fatalf("UpdateClinicianProfile: %v", err)
	}
	ok, err := auth.CheckPassword(repo.clinicians[1].PasswordHash, "new-password")
	if err != nil || !ok {
		t.Errorf("expected new password to verify, got %v (%v)", ok, err)
	}
}

func TestService_UpdatePatientProfileWithImage(t *testing.T) {
	svc, repo, blobs := newTestService(t)
	in := PatientProfileInput{
		FirstName: "Alice", LastName: "Smith", DOB: "1990-05-10",
		Mobile: "9564989765", Email: "alice@gmail.com", Address: "1 Main St",
		Allergies: "Peanuts",
	}

	p, err := svc.UpdatePatientProfile(context.Background(), 1, in, &Image{FileName: "me.png", Content: bytes.NewReader(pngBytes)})
	if err != nil {
		t.Fatalf("UpdatePatientProfile: %v", err)
	}
	if p.Image == nil || !strings.HasPrefix(*p.Image, blobstore.URLPrefix+"patients/") {
		t.Fatalf("expected stored image URL, got %v", p.Image)
	}
	first := *p.Image

	p, err = svc.UpdatePatientProfile(context.Background(), 1, in, &Image{FileName: "me2.png", Content: bytes.NewReader(pngBytes)})
	if err != nil {
		t.Fatalf("second update: %v", err)
	}
	key, _ := blobstore.KeyFromURL(first)
	if _, _, err := blobs.Open(context.Background(), key); !errors.Is(err, blobstore.ErrNotFound) {
		t.Errorf("expected replaced image to be removed, got %v", err)
	}
	if *repo.patients[1].Image != *p.Image || repo.patients[1].LastName != "Smith" {
		t.Errorf("unexpected stored patient %+v", repo.patients[1])
	}
}

func TestService_UpdateProfileRejectsBadImage(t *testing.T) {
	svc, repo, _ := newTestService(t)
	in := PatientProfileInput{FirstName: "Alice", LastName: "X", DOB: "1990-05-10", Mobile: "9564989765", Email: "alice@gmail.com", Address: "a"}

	_, err := svc.UpdatePatientProfile(context.Background(), 1, in, &Image{FileName: "cv.pdf", Content: strings.NewReader("%PDF-1.4")})
	if !errors.Is(err, blobstore.ErrInvalidContentType) {
		t.Errorf("expected ErrInvalidContentType, got %v", err)
	}
	if repo.patients[1].LastName != "Johnson" {
		t.Error("expected profile to be untouched after a rejected upload")
	}
}

func TestService_UpdateProfileUnknownAccount(t *testing.T) {
	svc, _, _ := newTestService(t)
	if _, err := svc.UpdatePatientProfile(context.Background(), 99, PatientProfileInput{}, nil); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestService_AccountExists(t *testing.T) {
	svc, _, _ := newTestService(t)
	var checker auth.AccountChecker = svc

	if ok, _ := checker.AccountExists(context.Background(), auth.RolePatient, 2); !ok {
		t.Error("expected patient 2 to exist")
	}
	if ok, _ := checker.AccountExists(context.Background(), auth.RoleClinician, 2); ok {
		t.Error("expected clinician 2 not to exist")
	}
}
