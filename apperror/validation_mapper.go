package apperror

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

// MapValidationError turns the first binding failure into a field-level AppError.
func MapValidationError(err error) *AppError {
	var errs validator.ValidationErrors
	if errors.As(err, &errs) && len(errs) > 0 {
		e := errs[0]
		if e.Tag() == "required" {
			return RequiredField(e.Field())
		}
		return InvalidField(e.Field())
	}
	return Wrap(err, CodeInvalidInput, "Invalid request body", ErrInvalidInput.HTTPStatus)
}
