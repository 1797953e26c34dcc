package routes

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/srCredoftn/dao-dash/internal/infra/config"
	"github.com/srCredoftn/dao-dash/internal/transport/http/handlers"
	"github.com/srCredoftn/dao-dash/internal/transport/http/middleware"
	"github.com/srCredoftn/dao-dash/internal/usecase"
)

// ServiceSet groups the services the HTTP layer depends on.
type ServiceSet struct {
	Auth          *usecase.AuthService
	Users         *usecase.UserService
	PasswordReset *usecase.PasswordResetService
	Dossiers      *usecase.DossierService
}

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config   *config.AppConfig
	Logger   *zap.Logger
	Metrics  *middleware.HTTPMetrics
	Services ServiceSet
	Database DatabaseChecker
	Cache    CacheChecker
}

// DatabaseChecker exposes readiness behaviour for database connections.
type DatabaseChecker interface {
	Ping(ctx context.Context) error
}

// CacheChecker exposes readiness behaviour for cache backends.
type CacheChecker interface {
	HealthCheck(ctx context.Context) error
}

// Register configures the Gin engine with routes and middleware.
func Register(deps Dependencies) *gin.Engine {
	if deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.CORS(deps.Config.App.CORSOrigins))
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Handler())
	}

	healthOptions := make([]handlers.HealthOption, 0, 2)
	if deps.Database != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("database", deps.Database.Ping))
	}
	if deps.Cache != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("redis", deps.Cache.HealthCheck))
	}

	healthHandler := handlers.NewHealthHandler(healthOptions...)

	r.GET("/healthz", healthHandler.Status)
	r.GET("/readyz", healthHandler.Readiness)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		handlers.NewAuthHandler(deps.Services.Auth).RegisterRoutes(authGroup)

		handlers.NewPasswordHandler(deps.Services.Auth, deps.Services.Users, deps.Services.PasswordReset).RegisterRoutes(authGroup)

		handlers.NewUserHandler(deps.Services.Auth, deps.Services.Users).RegisterRoutes(api)

		handlers.NewDossierHandler(deps.Services.Auth, deps.Services.Dossiers).RegisterRoutes(api)
	}

	return r
}
