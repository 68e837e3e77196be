package core

import "github.com/pkg/errors"

// ErrBusy is returned when an action is triggered while its previous run is still in flight.
var ErrBusy = errors.New("la acción ya está en curso")

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		if len(err.Fields) > 0 {
			return err.Fields[0].Field + ": " + err.Fields[0].Error
		}
		return ""
	}
	return err.Err.Error()
}

// FieldMap returns the field errors keyed by field name.
func (err ValidationError) FieldMap() map[string]string {
	flds := make(map[string]string, len(err.Fields))
	for _, fErr := range err.Fields {
		flds[fErr.Field] = fErr.Error
	}
	return flds
}

// AsValidationError unwraps err down to a *ValidationError, if any.
func AsValidationError(err error) (*ValidationError, bool) {
	vErr, ok := errors.Cause(err).(*ValidationError)
	return vErr, ok
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}

// UserMessage returns the text of err meant for end users, if it carries one,
// or fallback otherwise.
func UserMessage(err error, fallback string) string {
	if um, ok := errors.Cause(err).(interface{ UserMessage() string }); ok {
		if msg := um.UserMessage(); msg != "" {
			return msg
		}
	}
	if vErr, ok := AsValidationError(err); ok {
		return vErr.Error()
	}
	return fallback
}
