package http

import (
	"context"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/taskcal/taskcal/internal/auth"
	"github.com/taskcal/taskcal/internal/config"
	"github.com/taskcal/taskcal/internal/domain/user"
	"github.com/taskcal/taskcal/internal/http/handlers"
	"github.com/taskcal/taskcal/internal/http/middlewares"
	"github.com/taskcal/taskcal/internal/observability"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const maxBodyBytes = 1 << 20 // 1 MiB

type TasksStore interface {
	handlers.TasksStore
	CountAll(ctx context.Context) (int, error)
}

type SharesStore interface {
	handlers.SharesStore
	CountAll(ctx context.Context) (int, error)
}

type UsersStore interface {
	handlers.UsersStore
	handlers.AdminUsersStore
}

// Deps is everything the router wires into handlers. Prom, Registry
// and Enqueuer may be nil, which disables the respective feature;
// tests use that.
type Deps struct {
	Users    UsersStore
	Tasks    TasksStore
	Shares   SharesStore
	JWT      *auth.Manager
	Enqueuer handlers.Enqueuer
	Ping     func(ctx context.Context) error
	Prom     *observability.Prom
	Registry *prometheus.Registry
}

func NewRouter(log *slog.Logger, cfg config.Config, deps Deps) *gin.Engine {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.CORSOrigins))
	r.Use(middlewares.MaxBodyBytes(maxBodyBytes))
	r.Use(middlewares.RequireJSON())
	r.Use(otelgin.Middleware("taskcal-api"))

	if deps.Prom != nil {
		r.Use(deps.Prom.GinHandleMiddleware())
	}

	health := handlers.NewHealthHandler(deps.Ping)
	r.GET("/healthz", health.Healthz)
	r.GET("/readyz", health.Readyz)

	if deps.Registry != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{})))
	}

	authHandler := handlers.NewAuthHandler(deps.Users, deps.JWT)
	tasksHandler := handlers.NewTasksHandler(deps.Tasks)
	shareHandler := handlers.NewShareHandler(deps.Shares, deps.Enqueuer, deps.Prom)
	adminHandler := handlers.NewAdminHandler(deps.Users, deps.Tasks, deps.Shares)

	authMW := middlewares.NewAuthMiddleware(deps.JWT)
	limiter := middlewares.NewRateLimiter(cfg.RateLimit, cfg.RateLimitWindow)

	api := r.Group("/api")

	// credentials endpoints are limited per IP, everything behind
	// auth per user
	api.POST("/auth/register", limiter.RateLimiterMiddleware(middlewares.KeyByIP), authHandler.Register)
	api.POST("/auth/login", limiter.RateLimiterMiddleware(middlewares.KeyByIP), authHandler.Login)

	authed := api.Group("")
	authed.Use(authMW.RequireAuth())
	authed.Use(limiter.RateLimiterMiddleware(middlewares.KeyByUserOrIP))

	authed.GET("/tasks", tasksHandler.ListTasks)
	authed.POST("/tasks", tasksHandler.CreateTask)
	authed.PUT("/tasks/:id", tasksHandler.UpdateTask)
	authed.DELETE("/tasks/:id", tasksHandler.DeleteTask)

	authed.POST("/share", shareHandler.Share)
	authed.GET("/shared", shareHandler.ListShared)

	admin := authed.Group("/admin")
	admin.Use(authMW.RequireRole(user.RoleAdmin))

	admin.GET("/users", adminHandler.ListUsers)
	admin.PUT("/users/:id/role", adminHandler.UpdateRole)
	admin.DELETE("/users/:id", adminHandler.DeleteUser)
	admin.GET("/stats", adminHandler.Stats)

	log.Debug("router configured", "routes", len(r.Routes()))

	return r
}
