package apisvc

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/pkg/errors"
)

// Error is a non-2xx answer from the backend.
type Error struct {
	Status  int
	Message string // backend provided, shown to users verbatim
	Method  string
	Path    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, e.Message)
}

// UserMessage is the backend's message, fit to show as a notification.
func (e *Error) UserMessage() string {
	if e.Transient() {
		return "El servidor no está disponible en este momento, intente más tarde"
	}
	return e.Message
}

// Auth reports whether the backend rejected the credentials (401/403).
func (e *Error) Auth() bool {
	return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
}

// Transient reports whether the failure is on the server side and worth retrying.
func (e *Error) Transient() bool {
	return e.Status >= http.StatusInternalServerError
}

// AsError unwraps err down to an *Error, if any.
func AsError(err error) (*Error, bool) {
	apiErr, ok := errors.Cause(err).(*Error)
	return apiErr, ok
}

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func newError(call *Call, status int, body []byte) *Error {
	apiErr := &Error{Status: status, Method: call.Method, Path: call.Path}

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		switch {
		case eb.Message != "":
			apiErr.Message = eb.Message
		case eb.Error != "":
			apiErr.Message = eb.Error
		}
	} else if text := strings.TrimSpace(string(body)); text != "" && len(text) < 512 {
		apiErr.Message = text
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}
