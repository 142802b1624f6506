package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"projectsmanager/internal/handler"
)

// ReadinessCheck reports whether a dependency can serve traffic.
type ReadinessCheck func(ctx context.Context) error

type Dependencies struct {
	Auth        *handler.AuthHandler
	Projects    *handler.ProjectHandler
	Tasks       *handler.TaskHandler
	Verifier    SessionVerifier
	Ready       map[string]ReadinessCheck
	CORSOrigins []string
	Logger      *zap.Logger
}

// NewRouter mounts the API at the root and again under /api.
func NewRouter(deps Dependencies) *gin.Engine {
	r := gin.New()
	r.Use(
		gin.Recovery(),
		TraceMiddleware(),
		RequestLogger(deps.Logger),
		MetricsMiddleware(),
		CORSMiddleware(deps.CORSOrigins),
	)

	// Health endpoints (放在最前面)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.HEAD("/healthz", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	r.GET("/readyz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 1*time.Second)
		defer cancel()

		for name, check := range deps.Ready {
			if err := check(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": name + "_not_ready", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	mountAPI(r.Group(""), deps)
	mountAPI(r.Group("/api"), deps)
	return r
}

func mountAPI(g *gin.RouterGroup, deps Dependencies) {
	// Public
	g.POST("/auth/register", deps.Auth.Register)
	g.POST("/auth/login", deps.Auth.Login)

	// Protected
	auth := g.Group("")
	auth.Use(AuthMiddleware(deps.Verifier, deps.Logger))
	{
		auth.GET("/projects", deps.Projects.List)
		auth.POST("/projects", deps.Projects.Create)
		auth.GET("/projects/:id", deps.Projects.Get)
		auth.DELETE("/projects/:id", deps.Projects.Delete)

		auth.GET("/projects/:id/tasks", deps.Tasks.List)
		auth.POST("/projects/:id/tasks", deps.Tasks.Create)
		auth.PATCH("/tasks/:id/toggle", deps.Tasks.Toggle)
		auth.DELETE("/tasks/:id", deps.Tasks.Delete)
	}
}
