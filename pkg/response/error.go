package response

import (
	"fmt"
	"net/http"
)

const (
	CodeBadRequest   = 400
	CodeUnauthorized = 401
	CodeNotFound     = 404
)

// Error holds an error code, message and error itself
type Error struct {
	Code     int
	Message  interface{}
	Internal error
}

func NewError(code int, message interface{}) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

func (e *Error) SetInternal(err error) *Error {
	e.Internal = err
	return e
}

// Status maps the code to an http status, unknown codes become 400.
func (e *Error) Status() int {
	if http.StatusText(e.Code) == "" {
		return http.StatusBadRequest
	}
	return e.Code
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d: %v", e.Code, e.Message)
}

// Unwrap exposes the internal error to errors.Is and errors.As.
func (e *Error) Unwrap() error {
	return e.Internal
}
