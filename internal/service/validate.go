package service

import (
	"reflect"

	"github.com/go-playground/validator/v10"

	"github.com/daylistapp/daylist-server/internal/errors"
)

// validate is a shared validator instance for request validation.
var validate = func() *validator.Validate {
	v := validator.New()
	// Report field names as their JSON tags.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := fld.Tag.Get("json")
		if name == "" {
			return fld.Name
		}
		for i := range len(name) {
			if name[i] == ',' {
				return name[:i]
			}
		}
		return name
	})
	return v
}()

// formatValidationError converts validator errors to user-facing
// domain errors.
func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		for _, e := range validationErrs {
			field := e.Field()
			switch e.Tag() {
			case "required":
				return errors.Validationf("%s is required", field)
			case "email":
				return errors.Validationf("%s must be a valid email address", field)
			case "min":
				return errors.Validationf("%s must be at least %s characters", field, e.Param())
			case "max":
				return errors.Validationf("%s exceeds maximum length of %s characters", field, e.Param())
			default:
				return errors.Validationf("%s is invalid", field)
			}
		}
	}
	return err
}
