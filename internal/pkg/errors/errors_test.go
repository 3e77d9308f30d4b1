package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "code and message",
			err:  ErrNotificationNotFound("n-1"),
			want: "NOTIFICATION_NOT_FOUND: notification not found",
		},
		{
			name: "with cause",
			err:  Wrap(fmt.Errorf("signature is invalid"), CodeTokenInvalid, "invalid token", http.StatusUnauthorized),
			want: "TOKEN_INVALID: invalid token: signature is invalid",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAppError_IsAndUnwrap(t *testing.T) {
	cause := fmt.Errorf("token is expired")
	err := fmt.Errorf("auth: %w", Wrap(cause, CodeTokenExpired, "token expired", http.StatusUnauthorized))

	if !errors.Is(err, cause) {
		t.Error("errors.Is should reach the cause")
	}
	if !errors.Is(err, &AppError{Code: CodeTokenExpired}) {
		t.Error("errors.Is should match by code")
	}
	if errors.Is(err, &AppError{Code: CodeTokenInvalid}) {
		t.Error("errors.Is matched a different code")
	}
	if errors.Is(err, &AppError{}) {
		t.Error("an empty code must not match")
	}
}

func TestAs(t *testing.T) {
	got, ok := As(fmt.Errorf("handler: %w", ErrTenantRequired()))
	if !ok {
		t.Fatal("As should find a wrapped AppError")
	}
	if got.Code != CodeTenantRequired {
		t.Errorf("Code = %q, want %q", got.Code, CodeTenantRequired)
	}

	if _, ok := As(fmt.Errorf("plain")); ok {
		t.Error("As found an AppError in a plain error")
	}
}

func TestStatus(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want int
	}{
		{"not found", ErrNotificationNotFound("n-1"), http.StatusNotFound},
		{"tenant required", ErrTenantRequired(), http.StatusBadRequest},
		{"unauthorized", Unauthorized(CodeUnauthorized, "missing authorization header"), http.StatusUnauthorized},
		{"forbidden", Forbidden(CodeTenantForbidden, "not a member"), http.StatusForbidden},
		{"internal", Internal(fmt.Errorf("boom")), http.StatusInternalServerError},
		{"unset status", &AppError{Code: "X"}, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Status(); got != tt.want {
				t.Errorf("Status() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestErrMarkReadSelector(t *testing.T) {
	err := ErrMarkReadSelector()
	if err.HTTPStatus != http.StatusBadRequest {
		t.Fatalf("HTTPStatus = %d, want 400", err.HTTPStatus)
	}
	if err.Code != CodeValidationFailed {
		t.Fatalf("Code = %q, want %q", err.Code, CodeValidationFailed)
	}
	if len(err.FieldErrors) != 2 {
		t.Fatalf("FieldErrors = %v, want ids and all", err.FieldErrors)
	}
}

func TestErrInvalidRequestField(t *testing.T) {
	err := ErrInvalidRequestField("limit", "must be between 1 and 100").
		WithFieldErrors([]FieldError{{Field: "offset", Code: CodeInvalidRequestField}})

	if len(err.FieldErrors) != 2 || err.FieldErrors[0].Field != "limit" {
		t.Fatalf("FieldErrors = %v, want limit then offset", err.FieldErrors)
	}
}

func TestWithParams_EmptyIsNoop(t *testing.T) {
	err := ErrNotificationNotFound("n-1").WithParams(nil)
	if got := err.Params["notification_id"]; got != "n-1" {
		t.Fatalf("Params[notification_id] = %v, want n-1", got)
	}
}
