package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tracehub.io/tracehub/internal/pkg/logger"
)

// Toucher records that a user was just seen.
type Toucher interface {
	Touch(ctx context.Context, userID string) error
}

// Activity records last-seen for authenticated callers. It must run after
// JWTAuth. A failed touch never fails the request.
func Activity(toucher Toucher) gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID := GetUserID(c.Request.Context()); userID != "" && toucher != nil {
			if err := toucher.Touch(c.Request.Context(), userID); err != nil {
				logger.Debug("failed to record user activity",
					zap.String("user_id", userID),
					zap.Error(err),
				)
			}
		}
		c.Next()
	}
}
