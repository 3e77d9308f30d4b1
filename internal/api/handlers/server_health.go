package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tracehub.io/tracehub/internal/pkg/logger"
)

// Health is the probe response body.
type Health struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// GetLiveness handles GET /health/live.
func (s *Server) GetLiveness(c *gin.Context) {
	c.JSON(http.StatusOK, Health{Status: "ok"})
}

// GetReadiness handles GET /health/ready.
func (s *Server) GetReadiness(c *gin.Context) {
	checks := map[string]string{"database": "ok"}
	if s.db == nil {
		checks["database"] = "error"
	} else if err := s.db.Ping(c.Request.Context()); err != nil {
		logger.Warn("readiness: database ping failed", zap.Error(err))
		checks["database"] = "error"
	}

	if checks["database"] != "ok" {
		c.JSON(http.StatusServiceUnavailable, Health{Status: "degraded", Checks: checks})
		return
	}
	c.JSON(http.StatusOK, Health{Status: "ok", Checks: checks})
}
