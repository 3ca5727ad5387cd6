package identity

import (
	"reflect"

	"github.com/go-playground/validator/v10"
)

// ValidatorRegistry is satisfied by the shared request validator.
type ValidatorRegistry interface {
	RegisterValidation(tag string, fn validator.Func) error
	RegisterCustomTypeFunc(fn validator.CustomTypeFunc, types ...interface{})
}

// RegisterValidations installs the mobile tag (exactly ten digits) and
// exposes Count to the validator as a plain int.
func RegisterValidations(v ValidatorRegistry) error {
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		n, ok := field.Interface().(Count)
		if !ok || !n.Set {
			return nil
		}
		return n.Value
	}, Count{})

	return v.RegisterValidation("mobile", func(fl validator.FieldLevel) bool {
		return isMobile(fl.Field().String())
	})
}

func isMobile(s string) bool {
	if len(s) != 10 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
