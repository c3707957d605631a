package cmd

import (
	"net/http"

	"event-management/internal/handlers"
	"event-management/models"
	"event-management/monitoring"
	"event-management/security"
	"event-management/utils"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

type apiRoutes struct {
	events        *handlers.EventHandler
	registrations *handlers.RegistrationHandler
	auth          *handlers.AuthHandler
	uploads       *handlers.UploadHandler
	posts         *handlers.PostHandler
	loginLimiter  *security.RateLimiter
	redis         *redis.Client
	enableMetrics bool
}

func (r apiRoutes) register(se *core.ServeEvent) {
	managers := handlers.RequireRoles(models.RoleEditor, models.RoleAdmin)

	v1 := se.Router.Group("/api/v1")
	v1.BindFunc(monitoring.RequestMetrics)

	// Event endpoints
	v1.GET("/events", r.events.List)
	v1.POST("/events", r.events.Create).BindFunc(managers)
	v1.GET("/events/admin", r.events.ListAdmin).BindFunc(managers)
	v1.GET("/events/stats", r.events.Stats).BindFunc(managers)
	v1.GET("/events/{id}", r.events.Get)
	v1.PATCH("/events/{id}", r.events.Update).BindFunc(managers)
	v1.DELETE("/events/{id}", r.events.Delete).BindFunc(managers)

	// Registration endpoints
	v1.POST("/events/{id}/registrations", r.registrations.Register).Bind(apis.RequireAuth())
	v1.DELETE("/events/{id}/registrations", r.registrations.Cancel).Bind(apis.RequireAuth())

	// Auth endpoints
	login := v1.POST("/auth/login", r.auth.Login)
	if r.loginLimiter != nil {
		login.BindFunc(r.loginLimiter.Middleware)
	}
	v1.GET("/auth/me", r.auth.Me).Bind(apis.RequireAuth())

	// Upload endpoints
	v1.POST("/uploads", r.uploads.Upload).Bind(apis.RequireAuth())

	// Post endpoints
	v1.GET("/posts", r.posts.List)
	v1.GET("/posts/{id}", r.posts.Get)
	v1.POST("/posts", r.posts.Create).Bind(apis.RequireAuth())
	v1.PATCH("/posts/{id}", r.posts.Update).Bind(apis.RequireAuth())
	v1.DELETE("/posts/{id}", r.posts.Delete).Bind(apis.RequireAuth())

	// Health check
	se.Router.GET("/health", r.health)

	if r.enableMetrics {
		se.Router.GET("/metrics", apis.WrapStdHandler(promhttp.Handler()))
	}
}

func (r apiRoutes) health(e *core.RequestEvent) error {
	if r.redis == nil {
		return e.JSON(http.StatusOK, map[string]string{"status": "healthy", "redis": "disabled"})
	}
	if err := utils.RedisHealthCheck(r.redis); err != nil {
		return e.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "unhealthy",
			"error":  err.Error(),
		})
	}
	return e.JSON(http.StatusOK, map[string]string{"status": "healthy"})
}
