// Package handlers implements the /api/v1 HTTP surface. Routes are listed in
// RegisterRoutes and mirror internal/api/openapi/openapi.yaml.
package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"tracehub.io/tracehub/internal/notification"
)

// Pinger reports database reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server holds the handler dependencies.
type Server struct {
	inbox notification.Inbox
	db    Pinger
	now   func() time.Time
}

// ServerDeps holds all dependencies for creating a Server.
type ServerDeps struct {
	Inbox notification.Inbox
	DB    Pinger
}

// NewServer creates a new Server.
func NewServer(deps ServerDeps) *Server {
	return &Server{
		inbox: deps.Inbox,
		db:    deps.DB,
		now:   time.Now,
	}
}

// RegisterRoutes mounts every handler under r, which is expected to carry the
// /api/v1 prefix.
func (s *Server) RegisterRoutes(r gin.IRouter) {
	r.GET("/notifications/summary", s.GetNotificationSummary)
	r.GET("/notifications", s.ListNotifications)
	r.PATCH("/notifications/read", s.MarkNotificationsRead)
}

// RegisterHealthRoutes mounts the unauthenticated probes.
func (s *Server) RegisterHealthRoutes(r gin.IRouter) {
	r.GET("/health/live", s.GetLiveness)
	r.GET("/health/ready", s.GetReadiness)
}
