package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/eventflow-api/internal/config"
	"github.com/jwalitptl/eventflow-api/internal/email"
	adminHandler "github.com/jwalitptl/eventflow-api/internal/handler/admin"
	authHandler "github.com/jwalitptl/eventflow-api/internal/handler/auth"
	eventHandler "github.com/jwalitptl/eventflow-api/internal/handler/event"
	"github.com/jwalitptl/eventflow-api/internal/handler/health"
	notificationHandler "github.com/jwalitptl/eventflow-api/internal/handler/notification"
	promHandler "github.com/jwalitptl/eventflow-api/internal/handler/prometheus"
	userHandler "github.com/jwalitptl/eventflow-api/internal/handler/user"
	"github.com/jwalitptl/eventflow-api/internal/lifecycle"
	"github.com/jwalitptl/eventflow-api/internal/middleware"
	"github.com/jwalitptl/eventflow-api/internal/model"
	"github.com/jwalitptl/eventflow-api/internal/repository"
	"github.com/jwalitptl/eventflow-api/internal/repository/memory"
	"github.com/jwalitptl/eventflow-api/internal/repository/postgres"
	"github.com/jwalitptl/eventflow-api/internal/router"
	analyticsService "github.com/jwalitptl/eventflow-api/internal/service/analytics"
	authService "github.com/jwalitptl/eventflow-api/internal/service/auth"
	eventService "github.com/jwalitptl/eventflow-api/internal/service/event"
	notificationService "github.com/jwalitptl/eventflow-api/internal/service/notification"
	userService "github.com/jwalitptl/eventflow-api/internal/service/user"
	cleanup "github.com/jwalitptl/eventflow-api/internal/worker"
	"github.com/jwalitptl/eventflow-api/pkg/auth"
	"github.com/jwalitptl/eventflow-api/pkg/logger"
	"github.com/jwalitptl/eventflow-api/pkg/messaging/redis"
	"github.com/jwalitptl/eventflow-api/pkg/metrics"
	"github.com/jwalitptl/eventflow-api/pkg/security"
	"github.com/jwalitptl/eventflow-api/pkg/worker"
)

type repositories struct {
	events        repository.EventRepository
	notifications repository.NotificationRepository
	users         repository.UserRepository
	outbox        repository.OutboxRepository
	checks        map[string]health.Pinger
	close         func() error
}

func openRepositories(ctx context.Context, cfg config.DatabaseConfig) (*repositories, error) {
	if cfg.Driver == config.DriverMemory {
		store := memory.NewStore()
		return &repositories{
			events:        memory.NewEventRepository(store),
			notifications: memory.NewNotificationRepository(store),
			users:         memory.NewUserRepository(store),
			outbox:        memory.NewOutboxRepository(store),
			checks:        map[string]health.Pinger{},
			close:         func() error { return nil },
		}, nil
	}

	db, err := postgres.NewDB(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.AutoMigrate {
		if err := postgres.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
	}

	base := postgres.NewBaseRepository(db)
	return &repositories{
		events:        postgres.NewEventRepository(base),
		notifications: postgres.NewNotificationRepository(base),
		users:         postgres.NewUserRepository(base),
		outbox:        postgres.NewOutboxRepository(base),
		checks:        map[string]health.Pinger{"database": db},
		close:         db.Close,
	}, nil
}

func main() {
	configPath := flag.String("config", os.Getenv("EVENTFLOW_CONFIG"), "path to config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(&logger.Config{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Format: cfg.Log.Format,
	})
	logger.SetGlobal(appLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repos, err := openRepositories(ctx, cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize storage")
	}
	defer repos.close()

	registry := prometheus.NewRegistry()
	m := metrics.NewMetrics(registry, "eventflow")

	// Services
	authSvc := authService.NewService(
		repos.users,
		auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.Expiry()),
		security.NewBcryptHasher(bcrypt.DefaultCost),
		appLogger,
	)
	if cfg.Admin.Email != "" {
		_, created, err := authSvc.SeedAdmin(ctx, cfg.Admin.Name, cfg.Admin.Email, cfg.Admin.Password)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to seed admin user")
		}
		if created {
			log.Info().Str("email", cfg.Admin.Email).Msg("admin user created")
		}
	}

	notificationSvc := notificationService.NewService(repos.notifications, repos.users, repos.outbox, appLogger, m)
	analyticsSvc := analyticsService.NewService(repos.events, cfg.Analytics.CacheTTL, appLogger, m)
	eventSvc := eventService.NewService(repos.events, lifecycle.NewEngine(), notificationSvc, analyticsSvc, appLogger, m)
	userSvc := userService.NewService(repos.users, repos.events)

	// Outbox delivery
	var sender email.Service
	if cfg.Email.Enabled {
		sender = email.NewSMTPService(cfg.Email)
	} else {
		sender = email.NewLogService(appLogger.Zerolog())
	}

	processor, err := worker.NewOutboxProcessor(repos.outbox, worker.OutboxProcessorConfig{
		BatchSize:     cfg.Outbox.BatchSize,
		PollInterval:  cfg.Outbox.PollInterval,
		RetryAttempts: cfg.Outbox.RetryAttempts,
		RetryDelay:    cfg.Outbox.RetryDelay,
	}, appLogger, m)
	if err != nil && cfg.Outbox.Enabled {
		log.Fatal().Err(err).Msg("invalid outbox configuration")
	}
	if processor != nil {
		processor.Register(model.OutboxNotificationCreated, worker.NewEmailHandler(sender))
	}

	if cfg.Redis.Enabled {
		broker, err := redis.NewRedisBroker(ctx, redis.Config{
			URL:          cfg.Redis.URL,
			MaxRetries:   cfg.Redis.MaxRetries,
			RetryBackoff: cfg.Redis.RetryBackoff,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
		}, m, appLogger.Zerolog())
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer broker.Close()

		repos.checks["redis"] = health.PingFunc(broker.Ping)
		if processor != nil {
			processor.Register(model.OutboxNotificationCreated, worker.NewBrokerHandler(broker, cfg.Redis.Channel))
		}
	}

	if cfg.Outbox.Enabled {
		go processor.Start(ctx)
		go cleanup.NewOutboxCleanupWorker(repos.outbox, cfg.Outbox.Retention, cfg.Outbox.CleanupInterval, appLogger, m).Start(ctx)
	}

	// HTTP
	r := router.NewRouter(middleware.NewAuthMiddleware(authSvc), router.Handlers{
		Auth:         authHandler.NewHandler(authSvc),
		Events:       eventHandler.NewHandler(eventSvc),
		Admin:        adminHandler.NewHandler(eventSvc, analyticsSvc, userSvc),
		Notification: notificationHandler.NewHandler(notificationSvc),
		Users:        userHandler.NewHandler(userSvc),
		Health:       health.NewHandler(repos.checks),
		Metrics:      promHandler.New(registry),
	}, router.RouterConfig{
		RateLimitEnabled: cfg.RateLimit.Enabled,
		RateLimit:        rate.Limit(cfg.RateLimit.RequestsPerSecond),
		RateBurst:        cfg.RateLimit.Burst,
		RequestTimeout:   cfg.Server.RequestTimeout,
		CORSConfig:       middleware.DefaultCORSConfig(cfg.Server.AllowedOrigins...),
		MaxBodySize:      cfg.Server.MaxBodyBytes,
		Metrics:          m,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Str("driver", cfg.Database.Driver).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited")
}
