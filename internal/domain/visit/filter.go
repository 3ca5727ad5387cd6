package visit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DoctorAll is the doctor filter value that disables doctor filtering.
const DoctorAll = "all"

// Scope restricts a predicate to one clinician's or one patient's visits.
type Scope struct {
	ClinicianID int64
	PatientID   int64
}

func ClinicianScope(id int64) Scope { return Scope{ClinicianID: id} }

func PatientScope(id int64) Scope { return Scope{PatientID: id} }

// DateRange bounds appointment_date. To is exclusive unless ToInclusive is set.
type DateRange struct {
	From        Date
	To          Date
	ToInclusive bool
}

func (r DateRange) Contains(d Date) bool {
	if d.Before(r.From) {
		return false
	}
	if r.ToInclusive {
		return !r.To.Before(d)
	}
	return d.Before(r.To)
}

// Predicate is a normalized visit filter. Every non-zero field is AND-ed.
type Predicate struct {
	Scope  Scope
	Status VisitStatus
	Doctor string
	Search string
	Dates  *DateRange
}

// Matches evaluates the predicate against one visit with the same semantics
// the SQL rendering has: exact status and doctor, case-insensitive substring
// search over doctor name and notes, and no match for an unscheduled visit
// when a date range is set.
func (p Predicate) Matches(v *Visit) bool {
	if p.Scope.ClinicianID != 0 && v.ClinicianID != p.Scope.ClinicianID {
		return false
	}
	if p.Scope.PatientID != 0 && v.PatientID != p.Scope.PatientID {
		return false
	}
	if p.Status != "" && v.Status != p.Status {
		return false
	}
	if p.Doctor != "" && v.DoctorName != p.Doctor {
		return false
	}
	if p.Search != "" {
		needle := strings.ToLower(p.Search)
		inNotes := v.Notes != nil && strings.Contains(strings.ToLower(*v.Notes), needle)
		if !strings.Contains(strings.ToLower(v.DoctorName), needle) && !inNotes {
			return false
		}
	}
	if p.Dates != nil && (v.AppointmentDate == nil || !p.Dates.Contains(*v.AppointmentDate)) {
		return false
	}
	return true
}

// Filters are the listing criteria a client may send.
type Filters struct {
	Search    string
	Status    VisitStatus
	Today     bool
	ThisMonth bool
	Month     int
	Year      int
	Doctor    string
}

// FilterBuilder turns Filters into a Predicate. "Today" and "this month" are
// evaluated in loc.
type FilterBuilder struct {
	loc *time.Location
	now func() time.Time
}

func NewFilterBuilder(loc *time.Location) *FilterBuilder {
	if loc == nil {
		loc = time.Local
	}
	return &FilterBuilder{loc: loc, now: time.Now}
}

// Build never fails. Date filters are exclusive and applied in the order
// today, thisMonth, month+year; a month/year pair that is not a real
// calendar month adds no date constraint.
func (b *FilterBuilder) Build(scope Scope, f Filters) Predicate {
	p := Predicate{
		Scope:  scope,
		Status: f.Status,
		Search: strings.TrimSpace(f.Search),
	}
	if d := strings.TrimSpace(f.Doctor); d != "" && d != DoctorAll {
		p.Doctor = d
	}

	today := DateOf(b.now().In(b.loc))
	switch {
	case f.Today:
		p.Dates = &DateRange{From: today, To: today.AddDays(1)}
	case f.ThisMonth:
		p.Dates = monthRange(today.Year, today.Month)
	case f.Month != 0 && f.Year != 0:
		if f.Month >= 1 && f.Month <= 12 && f.Year >= 1 && f.Year <= 9999 {
			p.Dates = monthRange(f.Year, time.Month(f.Month))
		}
	}
	return p
}

func monthRange(year int, month time.Month) *DateRange {
	first := Date{Year: year, Month: month, Day: 1}
	last := DateOf(first.Time().AddDate(0, 1, -1))
	return &DateRange{From: first, To: last, ToInclusive: true}
}

// FlexInt is an integer request field that also accepts a numeric string,
// as form-driven clients send. null, "" and absence leave it unset.
type FlexInt struct {
	Value int
	Set   bool
}

func (n *FlexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*n = FlexInt{}
		return nil
	}
	var raw interface{}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case float64:
		if v != float64(int(v)) {
			return fmt.Errorf("%v is not an integer", v)
		}
		*n = FlexInt{Value: int(v), Set: true}
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			*n = FlexInt{}
			return nil
		}
		i, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("%q is not an integer", v)
		}
		*n = FlexInt{Value: i, Set: true}
	default:
		return fmt.Errorf("expected an integer, got %s", string(b))
	}
	return nil
}

func (n FlexInt) MarshalJSON() ([]byte, error) {
	if !n.Set {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

// Flag is a boolean request field that also accepts 1/0 and their string forms.
type Flag bool

func (f *Flag) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	var raw interface{}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case nil:
		*f = false
	case bool:
		*f = Flag(v)
	case float64:
		switch v {
		case 0:
			*f = false
		case 1:
			*f = true
		default:
			return fmt.Errorf("expected 0 or 1, got %v", v)
		}
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "", "0", "false":
			*f = false
		case "1", "true":
			*f = true
		default:
			return fmt.Errorf("expected a boolean, got %q", v)
		}
	default:
		return fmt.Errorf("expected a boolean, got %s", string(b))
	}
	return nil
}

// ListRequest is the body of the visit listing endpoints.
type ListRequest struct {
	Page      FlexInt     `json:"page"`
	PageSize  FlexInt     `json:"pageSize"`
	Search    string      `json:"search" validate:"max=255"`
	Status    VisitStatus `json:"status" validate:"omitempty,oneof=pending confirm complete cancel"`
	ThisMonth Flag        `json:"thisMonth"`
	Today     Flag        `json:"today"`
	Month     FlexInt     `json:"month"`
	Year      FlexInt     `json:"year"`
	Doctor    string      `json:"doctor" validate:"max=255"`
}

func (r ListRequest) Filters() Filters {
	return Filters{
		Search:    r.Search,
		Status:    r.Status,
		Today:     bool(r.Today),
		ThisMonth: bool(r.ThisMonth),
		Month:     r.Month.Value,
		Year:      r.Year.Value,
		Doctor:    r.Doctor,
	}
}
