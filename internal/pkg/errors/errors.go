// Package errors provides the structured application error returned by the
// Tracehub HTTP layer.
package errors

import (
	"errors"
	"net/http"
	"strings"
)

// AppError is an error the API reports to clients as a coded JSON body.
type AppError struct {
	Code        string         `json:"code"`
	Message     string         `json:"message"`
	Params      map[string]any `json:"params,omitempty"`
	FieldErrors []FieldError   `json:"field_errors,omitempty"`

	// HTTPStatus is the response status. Zero means 500.
	HTTPStatus int `json:"-"`
	// Err is the cause; it is logged, never serialized.
	Err error `json:"-"`
}

// FieldError names one request field that failed validation.
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

func (e *AppError) Error() string {
	var b strings.Builder
	b.WriteString(e.Code)
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *AppError) Unwrap() error { return e.Err }

// Is matches another AppError by code, so a code-only target works with
// errors.Is.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code != "" && t.Code == e.Code
}

// Status returns the HTTP status to respond with.
func (e *AppError) Status() int {
	if e.HTTPStatus == 0 {
		return http.StatusInternalServerError
	}
	return e.HTTPStatus
}

// WithParams sets interpolation params for the client. Empty params leave
// existing ones in place.
func (e *AppError) WithParams(params map[string]any) *AppError {
	if e != nil && len(params) > 0 {
		e.Params = params
	}
	return e
}

// WithFieldErrors appends field-level details.
func (e *AppError) WithFieldErrors(fieldErrors []FieldError) *AppError {
	if e != nil && len(fieldErrors) > 0 {
		e.FieldErrors = append(e.FieldErrors, fieldErrors...)
	}
	return e
}

// New creates an AppError.
func New(code, message string, httpStatus int) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: httpStatus}
}

// Wrap creates an AppError caused by err.
func Wrap(err error, code, message string, httpStatus int) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: httpStatus, Err: err}
}

func NotFound(code, message string) *AppError {
	return New(code, message, http.StatusNotFound)
}

func BadRequest(code, message string) *AppError {
	return New(code, message, http.StatusBadRequest)
}

func Unauthorized(code, message string) *AppError {
	return New(code, message, http.StatusUnauthorized)
}

func Forbidden(code, message string) *AppError {
	return New(code, message, http.StatusForbidden)
}

// As returns the first AppError in err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Internal is the response for errors that carry no AppError. The cause is
// kept for logging only.
func Internal(err error) *AppError {
	return Wrap(err, CodeInternal, "an internal error occurred", http.StatusInternalServerError)
}
