package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/berai-dev/berai/internal/apperr"
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON name so messages line up with request bodies
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	return v
}

// Struct validates s against its `validate` tags and converts failures into
// an *apperr.ValidationError keyed by JSON field name.
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	fields := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		if _, seen := fields[fe.Field()]; seen {
			continue
		}
		fields[fe.Field()] = message(fe)
	}

	return &apperr.ValidationError{Fields: fields}
}

func message(fe validator.FieldError) string {
	attr := strings.ReplaceAll(fe.Field(), "_", " ")

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required.", attr)
	case "max":
		return fmt.Sprintf("The %s field must not be greater than %s characters.", attr, fe.Param())
	case "min":
		return fmt.Sprintf("The %s field must be at least %s characters.", attr, fe.Param())
	case "email":
		return fmt.Sprintf("The %s field must be a valid email address.", attr)
	}

	return fmt.Sprintf("The %s field is invalid.", attr)
}
