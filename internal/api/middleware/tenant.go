package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "tracehub.io/tracehub/internal/pkg/errors"
	"tracehub.io/tracehub/internal/pkg/idcodec"
	"tracehub.io/tracehub/internal/pkg/logger"
)

// Tenant resolves X-Tenant-ID against the JWT claims. It must run after
// JWTAuth. A missing header leaves the request tenant-less.
func Tenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(TenantHeader))
		if raw == "" {
			c.Next()
			return
		}
		tenantID, err := idcodec.Decode(raw)
		if err != nil {
			abort(c, apperrors.ErrInvalidRequestField(TenantHeader, err.Error()))
			return
		}

		claims := claimsFrom(c)
		if claims == nil || !claims.MemberOf(tenantID) {
			logger.Warn("tenant access denied",
				zap.String("user_id", GetUserID(c.Request.Context())),
				zap.String("tenant_id", tenantID),
			)
			abort(c, apperrors.Forbidden(apperrors.CodeTenantForbidden, "not a member of the requested tenant"))
			return
		}

		c.Request = c.Request.WithContext(SetTenantContext(c.Request.Context(), tenantID))
		c.Next()
	}
}
