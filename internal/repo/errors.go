package repo

import "errors"

var (
	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("forbidden")
)

// ValidationError — отклонение входных данных с человекочитаемой
// причиной (уходит клиенту как 400).
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

func Invalid(reason string) error { return &ValidationError{Reason: reason} }

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
