package dto

import (
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/spec-kit/team-hierarchy-service/pkg/util/errorutil"
)

var validate = validator.New()

// ValidateStruct checks struct tags and reports failures as a field -> messages
// map suitable for inline form display.
func ValidateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	fields := make(map[string][]string, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		var msg string
		switch fe.Tag() {
		case "required":
			msg = field + " is required"
		case "max":
			msg = field + " must be at most " + fe.Param() + " characters"
		case "min":
			msg = field + " must be at least " + fe.Param() + " characters"
		default:
			msg = field + " is invalid"
		}
		fields[field] = append(fields[field], msg)
	}
	return apperrors.NewFieldValidationError(fields)
}
