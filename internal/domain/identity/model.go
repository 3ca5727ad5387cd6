package identity

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/visitdesk/visitdesk/internal/platform/auth"
)

// Clinician is a facility account that owns visits.
type Clinician struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	Mobile          string    `json:"mobile"`
	Email           string    `json:"email"`
	PasswordHash    string    `json:"-"`
	Image           *string   `json:"image"`
	Website         *string   `json:"website"`
	Address         *string   `json:"address"`
	OperatingHours  *string   `json:"operatingHours"`
	EmergencyMobile *string   `json:"emergencyMobile"`
	TotalDoctor     *int      `json:"totalDoctor"`
	TotalStaff      *int      `json:"totalStaff"`
	LicenseNumber   *string   `json:"licenseNumber"`
	Description     *string   `json:"description"`
	Specialties     *string   `json:"specialties"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

type Patient struct {
	ID                int64     `json:"id"`
	FirstName         string    `json:"firstName"`
	LastName          string    `json:"lastName"`
	Mobile            string    `json:"mobile"`
	DOB               *string   `json:"dob"`
	Address           *string   `json:"address"`
	EmergencyMobile   *string   `json:"emergencyMobile"`
	Allergies         *string   `json:"allergies"`
	CurrentMedication *string   `json:"currentMedication"`
	MedicalHistory    *string   `json:"medicalHistory"`
	Email             string    `json:"email"`
	PasswordHash      string    `json:"-"`
	Image             *string   `json:"image"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// PatientOption is one entry of the clinician's patient picker.
type PatientOption struct {
	ID        int64  `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type LoginRequest struct {
	Email    string    `json:"email" validate:"required,email"`
	Password string    `json:"password" validate:"required"`
	Type     auth.Role `json:"type" validate:"required,oneof=patient clinician"`
}

// Count is a non-negative integer profile field. Multipart forms send it as
// text and JSON clients as a number; absence leaves Set false.
type Count struct {
	Value int
	Set   bool
}

func (n *Count) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "null" {
		*n = Count{}
		return nil
	}
	return n.UnmarshalParam(s)
}

// UnmarshalParam implements echo.BindUnmarshaler for form fields.
func (n *Count) UnmarshalParam(param string) error {
	s := strings.TrimSpace(param)
	if s == "" {
		*n = Count{}
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("%q is not a number", param)
	}
	*n = Count{Value: v, Set: true}
	return nil
}

// ClinicianProfileInput is the clinician profile update. Optional fields left
// empty keep their stored value.
type ClinicianProfileInput struct {
	Name            string `json:"name" form:"name" validate:"required,max=255"`
	Mobile          string `json:"mobile" form:"mobile" validate:"required,mobile"`
	Email           string `json:"email" form:"email" validate:"required,email,max=255"`
	Password        string `json:"password" form:"password" validate:"omitempty,min=8,max=72"`
	Website         string `json:"website" form:"website" validate:"max=255"`
	Address         string `json:"address" form:"address" validate:"max=255"`
	OperatingHours  string `json:"operatingHours" form:"operatingHours" validate:"max=255"`
	EmergencyMobile string `json:"emergencyMobile" form:"emergencyMobile" validate:"max=255"`
	TotalDoctor     Count  `json:"totalDoctor" form:"totalDoctor" validate:"omitempty,min=0"`
	TotalStaff      Count  `json:"totalStaff" form:"totalStaff" validate:"omitempty,min=0"`
	LicenseNumber   string `json:"licenseNumber" form:"licenseNumber" validate:"max=255"`
	Description     string `json:"description" form:"description"`
	Specialties     string `json:"specialties" form:"specialties" validate:"max=255"`
}

func (in ClinicianProfileInput) apply(c *Clinician) {
	c.Name = strings.TrimSpace(in.Name)
	c.Mobile = strings.TrimSpace(in.Mobile)
	c.Email = normalizeEmail(in.Email)
	setIfPresent(&c.Website, in.Website)
	setIfPresent(&c.Address, in.Address)
	setIfPresent(&c.OperatingHours, in.OperatingHours)
	setIfPresent(&c.EmergencyMobile, in.EmergencyMobile)
	setIfPresent(&c.LicenseNumber, in.LicenseNumber)
	setIfPresent(&c.Description, in.Description)
	setIfPresent(&c.Specialties, in.Specialties)
	if in.TotalDoctor.Set {
		v := in.TotalDoctor.Value
		c.TotalDoctor = &v
	}
	if in.TotalStaff.Set {
		v := in.TotalStaff.Value
		c.TotalStaff = &v
	}
}

// PatientProfileInput is the patient profile update.
type PatientProfileInput struct {
	FirstName         string `json:"firstName" form:"firstName" validate:"required,max=255"`
	LastName          string `json:"lastName" form:"lastName" validate:"required,max=255"`
	DOB               string `json:"dob" form:"dob" validate:"required,datetime=2006-01-02"`
	Mobile            string `json:"mobile" form:"mobile" validate:"required,mobile"`
	Email             string `json:"email" form:"email" validate:"required,email,max=255"`
	Address           string `json:"address" form:"address" validate:"required,max=255"`
	Allergies         string `json:"allergies" form:"allergies"`
	CurrentMedication string `json:"currentMedication" form:"currentMedication"`
	MedicalHistory    string `json:"medicalHistory" form:"medicalHistory"`
	EmergencyMobile   string `json:"emergencyMobile" form:"emergencyMobile" validate:"max=255"`
}

func (in PatientProfileInput) apply(p *Patient) {
	p.FirstName = strings.TrimSpace(in.FirstName)
	p.LastName = strings.TrimSpace(in.LastName)
	dob := strings.TrimSpace(in.DOB)
	p.DOB = &dob
	p.Mobile = strings.TrimSpace(in.Mobile)
	p.Email = normalizeEmail(in.Email)
	address := strings.TrimSpace(in.Address)
	p.Address = &address
	setIfPresent(&p.Allergies, in.Allergies)
	setIfPresent(&p.CurrentMedication, in.CurrentMedication)
	setIfPresent(&p.MedicalHistory, in.MedicalHistory)
	setIfPresent(&p.EmergencyMobile, in.EmergencyMobile)
}

func setIfPresent(dst **string, v string) {
	s := strings.TrimSpace(v)
	if s == "" {
		return
	}
	*dst = &s
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
