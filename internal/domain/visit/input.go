package visit

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Input is the create/update payload. A client-sent clinicianId is not part
// of it and is therefore ignored.
type Input struct {
	PatientID       FlexInt     `json:"patientId" validate:"required,gt=0"`
	DoctorName      string      `json:"doctorName" validate:"required,max=255"`
	Type            VisitType   `json:"type" validate:"required,oneof=consult followUp checkup emergency"`
	Notes           *string     `json:"notes" validate:"omitempty,max=255"`
	AppointmentDate string      `json:"appointmentDate" validate:"required,visitdate"`
	AppointmentTime string      `json:"appointmentTime" validate:"required,clocktime"`
	Status          VisitStatus `json:"status" validate:"required,oneof=pending confirm complete cancel"`
}

// StatusInput is the body of the status-only transition.
type StatusInput struct {
	Status VisitStatus `json:"status" validate:"required,oneof=pending confirm complete cancel"`
}

// Apply copies a validated Input onto v. Every mutable field is overwritten;
// absent or blank notes become NULL.
func (in Input) Apply(v *Visit) error {
	date, err := ParseDate(in.AppointmentDate)
	if err != nil {
		return err
	}
	clock, err := ParseClockTime(in.AppointmentTime)
	if err != nil {
		return err
	}

	var notes *string
	if in.Notes != nil {
		if n := strings.TrimSpace(*in.Notes); n != "" {
			notes = &n
		}
	}

	v.PatientID = int64(in.PatientID.Value)
	v.DoctorName = strings.TrimSpace(in.DoctorName)
	v.Type = in.Type
	v.Notes = notes
	v.AppointmentDate = &date
	v.AppointmentTime = &clock
	v.Status = in.Status
	return nil
}

// ValidatorRegistry is satisfied by the shared request validator.
type ValidatorRegistry interface {
	RegisterValidation(tag string, fn validator.Func) error
	RegisterCustomTypeFunc(fn validator.CustomTypeFunc, types ...interface{})
}

// RegisterValidations installs the visitdate and clocktime tags and teaches
// the validator to see FlexInt as a plain int.
func RegisterValidations(v ValidatorRegistry) error {
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		n, ok := field.Interface().(FlexInt)
		if !ok || !n.Set {
			return nil
		}
		return n.Value
	}, FlexInt{})

	if err := v.RegisterValidation("visitdate", func(fl validator.FieldLevel) bool {
		_, err := ParseDate(fl.Field().String())
		return err == nil
	}); err != nil {
		return err
	}
	return v.RegisterValidation("clocktime", func(fl validator.FieldLevel) bool {
		_, err := ParseClockTime(fl.Field().String())
		return err == nil
	})
}
