package app

import (
	"slices"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"tracehub.io/tracehub/internal/api/handlers"
	"tracehub.io/tracehub/internal/api/middleware"
	"tracehub.io/tracehub/internal/config"
	"tracehub.io/tracehub/internal/metrics"
)

const apiBasePath = "/api/v1"

// defaultAllowedOrigins are the local frontend dev servers.
var defaultAllowedOrigins = []string{
	"http://localhost:3000",
	"http://localhost:5173",
}

func newRouter(cfg *config.Config, server *handlers.Server, jwtCfg middleware.JWTConfig, toucher middleware.Toucher) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(), cors.New(buildCORSConfig(cfg)))
	// The validator sits outside ErrorHandler so rendered errors are checked too.
	if cfg.Server.ValidateContract {
		router.Use(middleware.MustOpenAPIValidator(apiBasePath))
	}
	router.Use(middleware.ErrorHandler())

	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := router.Group(apiBasePath)
	server.RegisterHealthRoutes(api)

	authed := api.Group("", middleware.JWTAuth(jwtCfg), middleware.Tenant())
	if toucher != nil {
		authed.Use(middleware.Activity(toucher))
	}
	server.RegisterRoutes(authed)
	return router
}

// buildCORSConfig turns the server settings into a cors.Config. A bare "*"
// only takes effect with unsafe_allow_all_origins, which also drops
// credentials.
func buildCORSConfig(cfg *config.Config) cors.Config {
	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", middleware.RequestIDHeader, middleware.TenantHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader},
		AllowCredentials: cfg.Server.AllowCredentials,
		MaxAge:           12 * time.Hour,
	}

	if cfg.Server.UnsafeAllowAllOrigins {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
		return corsCfg
	}

	origins := make([]string, 0, len(cfg.Server.AllowedOrigins))
	for _, origin := range cfg.Server.AllowedOrigins {
		origin = strings.TrimSpace(origin)
		if origin == "" || origin == "*" || slices.Contains(origins, origin) {
			continue
		}
		origins = append(origins, origin)
	}
	if len(origins) == 0 {
		origins = slices.Clone(defaultAllowedOrigins)
	}
	corsCfg.AllowOrigins = origins
	return corsCfg
}
