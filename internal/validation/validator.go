package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"study-mitra/internal/domain"

	"github.com/go-playground/validator/v10"
)

// Validator checks request DTOs against their `validate` tags and reports
// failures as domain.ValidationErrors keyed by JSON field name.
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
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
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = v.RegisterValidation("question_count", func(fl validator.FieldLevel) bool {
		n := int(fl.Field().Int())
		for _, allowed := range domain.AllowedQuestionCounts {
			if n == allowed {
				return true
			}
		}
		return false
	})
	_ = v.RegisterValidation("subject", func(fl validator.FieldLevel) bool {
		return domain.IsKnownSubject(fl.Field().String())
	})
	return &Validator{validate: v}
}

// Struct returns nil when s is valid.
func (v *Validator) Struct(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return domain.NewInvalidInputError(err.Error())
	}

	out := make(domain.ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, toValidationError(fe))
	}
	return out
}

func toValidationError(fe validator.FieldError) domain.ValidationError {
	field := fe.Field()
	switch fe.Tag() {
	case "required", "required_if", "notblank":
		return domain.NewMissingFieldError(field)
	case "min", "max", "len":
		// Value is omitted so secrets like passwords never reach the response.
		return domain.ValidationError{Field: field, Code: domain.CodeOutOfRange, Message: boundMessage(fe)}
	case "oneof":
		return domain.NewOutOfRangeError(field, fe.Value(), strings.ReplaceAll(fe.Param(), " ", ", "))
	case "question_count":
		return domain.NewOutOfRangeError(field, fe.Value(), allowedCounts())
	default:
		return domain.NewInvalidFormatError(field, fe.Value())
	}
}

func allowedCounts() string {
	parts := make([]string, 0, len(domain.AllowedQuestionCounts))
	for _, n := range domain.AllowedQuestionCounts {
		parts = append(parts, fmt.Sprint(n))
	}
	return strings.Join(parts, ", ")
}

func boundMessage(fe validator.FieldError) string {
	unit := ""
	if fe.Kind() == reflect.String || fe.Kind() == reflect.Slice {
		unit = " characters"
		if fe.Kind() == reflect.Slice {
			unit = " items"
		}
	}
	switch fe.Tag() {
	case "min":
		return fmt.Sprintf("must be at least %s%s", fe.Param(), unit)
	case "max":
		return fmt.Sprintf("must be at most %s%s", fe.Param(), unit)
	default:
		return fmt.Sprintf("must be exactly %s%s", fe.Param(), unit)
	}
}
