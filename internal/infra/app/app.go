package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/srCredoftn/dao-dash/internal/core/port"
	"github.com/srCredoftn/dao-dash/internal/infra/config"
	"github.com/srCredoftn/dao-dash/internal/infra/database"
	kafkainfra "github.com/srCredoftn/dao-dash/internal/infra/kafka"
	"github.com/srCredoftn/dao-dash/internal/infra/logger"
	"github.com/srCredoftn/dao-dash/internal/infra/mail"
	redisinfra "github.com/srCredoftn/dao-dash/internal/infra/redis"
	"github.com/srCredoftn/dao-dash/internal/infra/security"
	memoryrepo "github.com/srCredoftn/dao-dash/internal/repository/memory"
	postgresrepo "github.com/srCredoftn/dao-dash/internal/repository/postgres"
	redisrepo "github.com/srCredoftn/dao-dash/internal/repository/redis"
	"github.com/srCredoftn/dao-dash/internal/transport/http/middleware"
	"github.com/srCredoftn/dao-dash/internal/transport/http/routes"
	"github.com/srCredoftn/dao-dash/internal/usecase"
)

// Application wires configuration, storage, messaging, and the HTTP server.
type Application struct {
	cfg      *config.AppConfig
	engine   *gin.Engine
	logger   *zap.Logger
	pool     *pgxpool.Pool
	redis    *redisinfra.Client
	producer *kafkainfra.Producer
}

// New builds the application from configuration.
func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	if err := security.ConfigureArgon2(security.Argon2Config{
		Memory:      cfg.Argon2.Memory,
		Iterations:  cfg.Argon2.Iterations,
		Parallelism: cfg.Argon2.Parallelism,
		SaltLength:  cfg.Argon2.SaltLength,
		KeyLength:   cfg.Argon2.KeyLength,
	}); err != nil {
		return nil, fmt.Errorf("configure argon2: %w", err)
	}

	app := &Application{cfg: cfg, logger: log}

	var (
		users    port.UserRepository
		dossiers port.DossierRepository
	)
	switch cfg.Store.Backend {
	case config.StoreBackendPostgres:
		pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
		if err != nil {
			return nil, fmt.Errorf("init postgres: %w", err)
		}
		app.pool = pool
		repos := postgresrepo.NewRepositories(pool)
		users = repos.Users
		dossiers = repos.Dossiers
	case config.StoreBackendMemory:
		log.Warn("using in-memory store, data is lost on restart")
		users = memoryrepo.NewUserRepository()
		dossiers = memoryrepo.NewDossierRepository()
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}

	var issuer *security.TokenIssuer
	if cfg.Auth.SigningSecret != "" {
		issuer, err = security.NewTokenIssuer(cfg.Auth.SigningSecret, cfg.App.Name, cfg.Auth.TokenTTL)
		if err != nil {
			app.closePartial()
			return nil, fmt.Errorf("init token issuer: %w", err)
		}
	}

	var sessions port.SessionStore
	if cfg.Auth.SessionMode == config.SessionModeStateful {
		switch cfg.Auth.SessionBackend {
		case config.SessionBackendRedis:
			redisClient, err := redisinfra.NewClient(cfg.Redis, log)
			if err != nil {
				app.closePartial()
				return nil, fmt.Errorf("init redis: %w", err)
			}
			app.redis = redisClient
			sessions = redisrepo.NewSessionStore(redisClient.Client(), cfg.Redis.SessionPrefix)
		case config.SessionBackendMemory:
			sessions = memoryrepo.NewSessionStore()
		default:
			app.closePartial()
			return nil, fmt.Errorf("unknown session backend %q", cfg.Auth.SessionBackend)
		}
	}

	mailer, err := mail.NewMailer(cfg.SMTP, log)
	if err != nil {
		app.closePartial()
		return nil, fmt.Errorf("init mailer: %w", err)
	}

	var events port.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := kafkainfra.NewProducer(cfg.Kafka, log)
		if err != nil {
			log.Warn("failed to init kafka producer, using stub publisher", zap.Error(err))
			events = kafkainfra.NewStubPublisher(log)
		} else {
			app.producer = producer
			events = kafkainfra.NewEventPublisher(producer, log)
		}
	} else {
		log.Info("kafka brokers not configured, using stub publisher")
		events = kafkainfra.NewStubPublisher(log)
	}

	validator := security.DefaultPasswordValidator()

	authService, err := usecase.NewAuthService(users, issuer, sessions, log)
	if err != nil {
		app.closePartial()
		return nil, fmt.Errorf("init auth service: %w", err)
	}
	authService.WithSessionTTL(cfg.Auth.TokenTTL)

	userService, err := usecase.NewUserService(users, sessions, mailer, events, validator, log)
	if err != nil {
		app.closePartial()
		return nil, fmt.Errorf("init user service: %w", err)
	}
	userService.WithTempPasswordTTL(cfg.Auth.TempPasswordTTL)

	resetService, err := usecase.NewPasswordResetService(users, sessions, mailer, events, validator, log)
	if err != nil {
		app.closePartial()
		return nil, fmt.Errorf("init password reset service: %w", err)
	}
	resetService.WithCodeTTL(cfg.Auth.ResetCodeTTL)

	dossierService, err := usecase.NewDossierService(dossiers, users, log)
	if err != nil {
		app.closePartial()
		return nil, fmt.Errorf("init dossier service: %w", err)
	}

	metrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{})
	if err != nil {
		app.closePartial()
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	deps := routes.Dependencies{
		Config:  cfg,
		Logger:  log,
		Metrics: metrics,
		Services: routes.ServiceSet{
			Auth:          authService,
			Users:         userService,
			PasswordReset: resetService,
			Dossiers:      dossierService,
		},
	}
	if app.pool != nil {
		deps.Database = app.pool
	}
	if app.redis != nil {
		deps.Cache = app.redis
	}

	app.engine = routes.Register(deps)

	return app, nil
}

func (a *Application) closePartial() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.pool != nil {
		a.pool.Close()
	}
}

// Run starts the HTTP server and blocks until the context is cancelled or the
// server fails.
func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()
	defer func() {
		if a.pool != nil {
			a.pool.Close()
		}
	}()
	defer func() {
		if a.redis != nil {
			_ = a.redis.Close()
		}
	}()
	defer func() {
		if a.producer != nil {
			_ = a.producer.Close()
		}
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting DAO dashboard API",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
		zap.String("store_backend", a.cfg.Store.Backend),
		zap.String("session_mode", a.cfg.Auth.SessionMode),
	)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("run server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-serverErrCh:
		return err
	}
}
