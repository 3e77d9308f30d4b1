package errors

import "net/http"

// Error codes are stable identifiers; the frontend owns the translated text.
// Backend messages are English only.

// Notification error codes.
const (
	CodeNotificationNotFound = "NOTIFICATION_NOT_FOUND"
)

// Tenant error codes.
const (
	CodeTenantRequired  = "TENANT_REQUIRED"
	CodeTenantForbidden = "TENANT_FORBIDDEN"
)

// Auth error codes.
const (
	CodeUnauthorized = "UNAUTHORIZED"
	CodeTokenExpired = "TOKEN_EXPIRED"
	CodeTokenInvalid = "TOKEN_INVALID"
)

// Validation error codes.
const (
	CodeInvalidRequestField = "INVALID_REQUEST_FIELD"
	CodeValidationFailed    = "VALIDATION_FAILED"
)

// CodeInternal hides the cause of an unexpected failure.
const CodeInternal = "INTERNAL_ERROR"

// ErrNotificationNotFound creates a notification not found error.
func ErrNotificationNotFound(notificationID string) *AppError {
	return NotFound(CodeNotificationNotFound, "notification not found").
		WithParams(map[string]any{"notification_id": notificationID})
}

// ErrTenantRequired is returned when a tenant-scoped route is hit without a tenant.
func ErrTenantRequired() *AppError {
	return BadRequest(CodeTenantRequired, "X-Tenant-ID header is required")
}

// ErrMarkReadSelector is the mark-read body error: exactly one of ids or all.
func ErrMarkReadSelector() *AppError {
	return BadRequest(CodeValidationFailed, "provide either ids or all=true, not both and not neither").
		WithFieldErrors([]FieldError{
			{Field: "ids", Code: CodeValidationFailed},
			{Field: "all", Code: CodeValidationFailed},
		})
}

// ErrInvalidRequestField creates a bad request error for a malformed field.
func ErrInvalidRequestField(fieldName, message string) *AppError {
	return &AppError{
		Code:       CodeInvalidRequestField,
		Message:    "invalid request field: " + fieldName,
		HTTPStatus: http.StatusBadRequest,
		FieldErrors: []FieldError{
			{Field: fieldName, Code: CodeInvalidRequestField, Message: message},
		},
	}
}
