package response

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator adapts go-playground/validator to echo.Validator and turns its
// errors into a ValidationError keyed by JSON field name.
type Validator struct {
	v *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			name, _, _ = strings.Cut(fld.Tag.Get("form"), ",")
		}
		return name
	})
	return &Validator{v: v}
}

// RegisterValidation adds a custom tag.
func (cv *Validator) RegisterValidation(tag string, fn validator.Func) error {
	return cv.v.RegisterValidation(tag, fn)
}

// RegisterCustomTypeFunc lets wrapper types be validated as the value fn returns.
func (cv *Validator) RegisterCustomTypeFunc(fn validator.CustomTypeFunc, types ...interface{}) {
	cv.v.RegisterCustomTypeFunc(fn, types...)
}

func (cv *Validator) Validate(i interface{}) error {
	err := cv.v.Struct(i)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
	}
	return NewValidationError(fields...)
}

func fieldMessage(fe validator.FieldError) string {
	f := fe.Field()
	switch fe.Tag() {
	case "required":
		return f + " is required"
	case "email":
		return f + " must be a valid email"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", f, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s length must be at least %s characters long", f, fe.Param())
		}
		return fmt.Sprintf("%s must be greater than or equal to %s", f, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s length must be less than or equal to %s characters long", f, fe.Param())
		}
		return fmt.Sprintf("%s must be less than or equal to %s", f, fe.Param())
	case "len":
		return fmt.Sprintf("%s length must be %s characters long", f, fe.Param())
	case "numeric":
		return f + " must contain only digits"
	case "datetime", "visitdate":
		return f + " must be a valid date"
	case "mobile":
		return "Invalid mobile no, Please enter 10 digit"
	case "clocktime":
		return f + " must be a time in HH:MM format"
	case "url":
		return f + " must be a valid uri"
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", f, fe.Param())
	default:
		return fmt.Sprintf("%s failed on the '%s' rule", f, fe.Tag())
	}
}
