package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"registration-portal/internal/shared/config"
	"registration-portal/internal/shared/metrics"
	"registration-portal/internal/shared/server/middleware"
	"registration-portal/internal/shared/server/respond"
)

// RouterDeps carries the feature handlers wired into the router.
type RouterDeps struct {
	Config     config.Config
	OCRHandler RouteRegistrar
	RegHandler RouteRegistrar
}

// RouteRegistrar is implemented by feature handlers.
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	api := r.Group("/api")
	api.GET("/", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"message": "Registration Module API", "status": "active"})
	})
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})
	if deps.OCRHandler != nil {
		deps.OCRHandler.RegisterRoutes(api)
	}
	if deps.RegHandler != nil {
		deps.RegHandler.RegisterRoutes(api)
	}

	r.GET("/metrics", metrics.Handler())

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
