// Package middleware provides the HTTP middleware chain for the Tracehub API.
package middleware

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "tracehub.io/tracehub/internal/pkg/errors"
	"tracehub.io/tracehub/internal/pkg/logger"
)

// ErrorHandler renders the last error a handler attached with c.Error as an
// AppError body. Anything that is not an AppError is logged and reported as
// INTERNAL_ERROR. Responses a handler already wrote are left alone.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		requestID := GetRequestID(c.Request.Context())

		appErr, ok := apperrors.As(err)
		if ok {
			logger.Warn("request failed",
				zap.String("code", appErr.Code),
				zap.Int("status", appErr.Status()),
				zap.String("path", c.FullPath()),
				zap.String("request_id", requestID),
				zap.Error(appErr.Err),
			)
		} else {
			appErr = apperrors.Internal(err)
			logger.Error("unhandled request error",
				zap.String("path", c.FullPath()),
				zap.String("request_id", requestID),
				zap.Error(err),
			)
		}
		c.JSON(appErr.Status(), appErr)
	}
}
