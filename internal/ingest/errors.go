package ingest

import (
	"errors"
	"fmt"

	"github.com/SamuelPereira26/Finhouse/internal/importer"
	"github.com/SamuelPereira26/Finhouse/internal/normalize"
)

// ErrValidation is wrapped by every error caused by caller input.
var ErrValidation = errors.New("validation failed")

// ValidationError names the offending field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err was caused by bad input, including
// unreadable import files and unparseable dates.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, importer.ErrInvalidFile) ||
		errors.Is(err, normalize.ErrInvalidDate)
}
