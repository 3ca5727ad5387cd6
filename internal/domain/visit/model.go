package visit

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// VisitType is the category of a visit.
type VisitType string

const (
	TypeConsult   VisitType = "consult"
	TypeFollowUp  VisitType = "followUp"
	TypeCheckup   VisitType = "checkup"
	TypeEmergency VisitType = "emergency"
)

var validTypes = map[VisitType]bool{
	TypeConsult: true, TypeFollowUp: true, TypeCheckup: true, TypeEmergency: true,
}

func (t VisitType) Valid() bool { return validTypes[t] }

// VisitStatus is the lifecycle state of a visit.
type VisitStatus string

const (
	StatusPending  VisitStatus = "pending"
	StatusConfirm  VisitStatus = "confirm"
	StatusComplete VisitStatus = "complete"
	StatusCancel   VisitStatus = "cancel"
)

// Statuses lists every status in display order.
var Statuses = []VisitStatus{StatusPending, StatusConfirm, StatusComplete, StatusCancel}

func (s VisitStatus) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// Date is a calendar date with no time of day or zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

const dateLayout = "2006-01-02"

func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate accepts YYYY-MM-DD or an RFC 3339 timestamp, whose date part is used.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(dateLayout, s); err == nil {
		return DateOf(t), nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return DateOf(t), nil
	}
	return Date{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
}

func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func (d Date) AddDays(n int) Date {
	return DateOf(d.Time().AddDate(0, 0, n))
}

func (d Date) Before(o Date) bool { return d.Time().Before(o.Time()) }

func (d Date) String() string { return d.Time().Format(dateLayout) }

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ClockTime is a time of day with minute precision.
type ClockTime struct {
	Hour   int
	Minute int
}

// ParseClockTime accepts HH:MM or HH:MM:SS in 24-hour form. Seconds are dropped.
func ParseClockTime(s string) (ClockTime, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return ClockTime{Hour: t.Hour(), Minute: t.Minute()}, nil
		}
	}
	return ClockTime{}, fmt.Errorf("invalid time %q, expected HH:MM", s)
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// Format12h renders the time as H:MM AM/PM, e.g. 00:00 -> 12:00 AM, 13:05 -> 1:05 PM.
func (c ClockTime) Format12h() string {
	suffix := "AM"
	if c.Hour >= 12 {
		suffix = "PM"
	}
	h := c.Hour % 12
	if h == 0 {
		h = 12
	}
	return fmt.Sprintf("%d:%02d %s", h, c.Minute, suffix)
}

func (c ClockTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *ClockTime) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("time must be a string: %w", err)
	}
	parsed, err := ParseClockTime(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Format12h is the display form of an optional appointment time; nil gives "".
func Format12h(t *ClockTime) string {
	if t == nil {
		return ""
	}
	return t.Format12h()
}

type Visit struct {
	ID              int64       `json:"id"`
	ClinicianID     int64       `json:"clinicianId"`
	PatientID       int64       `json:"patientId"`
	DoctorName      string      `json:"doctorName"`
	Type            VisitType   `json:"type"`
	Notes           *string     `json:"notes"`
	AppointmentDate *Date       `json:"appointmentDate"`
	AppointmentTime *ClockTime  `json:"appointmentTime"`
	Status          VisitStatus `json:"status"`
	CreatedAt       time.Time   `json:"createdAt"`
	UpdatedAt       time.Time   `json:"updatedAt"`
}

// ClinicianSummary is the clinician projection joined onto listed visits.
type ClinicianSummary struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Mobile string `json:"mobile"`
}

// PatientSummary is the patient projection joined onto listed visits.
type PatientSummary struct {
	ID        int64  `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Mobile    string `json:"mobile"`
}

// Detail is a listed visit: the stored record, its joins and the derived
// 12-hour time. Nothing in it beyond Visit is persisted.
type Detail struct {
	Visit
	Time      string            `json:"time"`
	Clinician *ClinicianSummary `json:"Clinician,omitempty"`
	Patient   *PatientSummary   `json:"Patient,omitempty"`
}

// pgx conversions for the nullable date and time columns.

func dateToPG(d *Date) pgtype.Date {
	if d == nil {
		return pgtype.Date{}
	}
	return pgtype.Date{Time: d.Time(), Valid: true}
}

func dateFromPG(v pgtype.Date) *Date {
	if !v.Valid || v.InfinityModifier != pgtype.Finite {
		return nil
	}
	d := DateOf(v.Time)
	return &d
}

func clockToPG(c *ClockTime) pgtype.Time {
	if c == nil {
		return pgtype.Time{}
	}
	us := (int64(c.Hour)*60 + int64(c.Minute)) * int64(time.Minute/time.Microsecond)
	return pgtype.Time{Microseconds: us, Valid: true}
}

func clockFromPG(v pgtype.Time) *ClockTime {
	if !v.Valid {
		return nil
	}
	minutes := v.Microseconds / int64(time.Minute/time.Microsecond)
	return &ClockTime{Hour: int(minutes/60) % 24, Minute: int(minutes % 60)}
}
