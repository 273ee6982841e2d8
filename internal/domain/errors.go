package domain

import "errors"

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrMealNotFound      = errors.New("meal not found")
	ErrCourierNotFound   = errors.New("courier not found")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrConflict          = errors.New("order status changed concurrently")
	ErrNotDelivered      = errors.New("can only rate delivered orders")
	ErrAlreadyRated      = errors.New("order already rated")
)

// ValidationError describes a single rejected input field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// ValidationErrors aggregates field-level failures so callers can report
// the whole payload at once instead of the first offending field.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	msg := e[0].Error()
	for _, ve := range e[1:] {
		msg += "; " + ve.Error()
	}
	return msg
}

// AsValidationErrors unwraps err into ValidationErrors if possible.
func AsValidationErrors(err error) (ValidationErrors, bool) {
	var ves ValidationErrors
	if errors.As(err, &ves) {
		return ves, true
	}
	var ve ValidationError
	if errors.As(err, &ve) {
		return ValidationErrors{ve}, true
	}
	return nil, false
}
