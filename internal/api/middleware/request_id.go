package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// RequestIDHeader carries the request id in both directions.
	RequestIDHeader = "X-Request-ID"
	// TenantHeader selects the tenant a request acts in.
	TenantHeader = "X-Tenant-ID"

	maxRequestIDLen = 64

	ctxKeyClaims = "jwt_claims"
)

type ctxKey int

const (
	ctxKeyRequestID ctxKey = iota
	ctxKeyUserID
	ctxKeyTenantID
)

// RequestID tags the request with an id, echoed in the response header and
// attached to every error log. A caller-supplied id is kept when it is short
// and made of token characters; anything else is replaced so it cannot forge
// log fields.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(RequestIDHeader)
		if !validRequestID(rid) {
			rid = newRequestID()
		}
		c.Writer.Header().Set(RequestIDHeader, rid)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), ctxKeyRequestID, rid))
		c.Next()
	}
}

func newRequestID() string {
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}
	return uuid.NewString()
}

func validRequestID(rid string) bool {
	if rid == "" || len(rid) > maxRequestIDLen {
		return false
	}
	for _, r := range rid {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_', r == '.':
		default:
			return false
		}
	}
	return true
}

func stringValue(ctx context.Context, key ctxKey) string {
	v, _ := ctx.Value(key).(string)
	return v
}

// GetRequestID returns the request id, or "" outside a request.
func GetRequestID(ctx context.Context) string { return stringValue(ctx, ctxKeyRequestID) }

// SetUserContext stores the authenticated user.
func SetUserContext(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ctxKeyUserID, userID)
}

// GetUserID returns the authenticated user, or "".
func GetUserID(ctx context.Context) string { return stringValue(ctx, ctxKeyUserID) }

// SetTenantContext stores the tenant the request acts in.
func SetTenantContext(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, ctxKeyTenantID, tenantID)
}

// GetTenantID returns the current tenant. Empty means the request is not
// acting in any tenant.
func GetTenantID(ctx context.Context) string { return stringValue(ctx, ctxKeyTenantID) }
