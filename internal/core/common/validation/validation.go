package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/travelcrm/travel-crm/internal"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func instance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(fieldName)
	})
	return validate
}

// fieldName reports errors under the wire name: form tag, then json tag, then the Go name.
func fieldName(fld reflect.StructField) string {
	for _, tag := range []string{"form", "json"} {
		name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
		if name != "" && name != "-" {
			return name
		}
	}
	return strings.ToLower(fld.Name)
}

// Struct validates v against its `validate` tags. The returned error is an
// *internal.AppError listing every failing field, or nil.
func Struct(v interface{}) error {
	err := instance().Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed)
	}

	details := internal.ValidationErrors{Errors: make([]internal.ValidationError, 0, len(verrs))}
	for _, fe := range verrs {
		details.Errors = append(details.Errors, internal.ValidationError{
			Field:   fe.Field(),
			Message: message(fe),
			Code:    strings.ToUpper(fe.Tag()),
		})
	}

	return internal.NewValidationError("Validation failed", internal.ErrCodeValidationFailed).WithDetails(details)
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", fe.Field())
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	case "eqfield":
		return fmt.Sprintf("%s must match %s", fe.Field(), strings.ToLower(fe.Param()))
	case "len":
		return fmt.Sprintf("%s must be exactly %s characters", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}
