package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/eventflow-api/internal/config"
	"github.com/jwalitptl/eventflow-api/internal/email"
	"github.com/jwalitptl/eventflow-api/internal/model"
	"github.com/jwalitptl/eventflow-api/internal/repository/postgres"
	cleanup "github.com/jwalitptl/eventflow-api/internal/worker"
	"github.com/jwalitptl/eventflow-api/pkg/logger"
	"github.com/jwalitptl/eventflow-api/pkg/messaging/redis"
	"github.com/jwalitptl/eventflow-api/pkg/metrics"
	"github.com/jwalitptl/eventflow-api/pkg/worker"
)

// The worker drains the outbox written by the API. Run the API with
// outbox.enabled=false when this process is deployed alongside it.
func main() {
	configPath := flag.String("config", os.Getenv("EVENTFLOW_CONFIG"), "path to config file")
	healthAddr := flag.String("health-addr", ":8081", "address for the health and metrics listener")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	if cfg.Database.Driver != config.DriverPostgres {
		log.Fatal().Str("driver", cfg.Database.Driver).Msg("the outbox worker requires the postgres driver")
	}

	appLogger := logger.NewLogger(&logger.Config{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Format: cfg.Log.Format,
	})
	logger.SetGlobal(appLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	m := metrics.NewMetrics(registry, "eventflow")

	outboxRepo := postgres.NewOutboxRepository(postgres.NewBaseRepository(db))

	processor, err := worker.NewOutboxProcessor(outboxRepo, worker.OutboxProcessorConfig{
		BatchSize:     cfg.Outbox.BatchSize,
		PollInterval:  cfg.Outbox.PollInterval,
		RetryAttempts: cfg.Outbox.RetryAttempts,
		RetryDelay:    cfg.Outbox.RetryDelay,
	}, appLogger, m)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid outbox configuration")
	}

	var sender email.Service
	if cfg.Email.Enabled {
		sender = email.NewSMTPService(cfg.Email)
	} else {
		sender = email.NewLogService(appLogger.Zerolog())
	}
	processor.Register(model.OutboxNotificationCreated, worker.NewEmailHandler(sender))

	var broker *redis.RedisBroker
	if cfg.Redis.Enabled {
		broker, err = redis.NewRedisBroker(ctx, redis.Config{
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
		processor.Register(model.OutboxNotificationCreated, worker.NewBrokerHandler(broker, cfg.Redis.Channel))
	}

	go processor.Start(ctx)
	go cleanup.NewOutboxCleanupWorker(outboxRepo, cfg.Outbox.Retention, cfg.Outbox.CleanupInterval, appLogger, m).Start(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		pingCtx, pingCancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer pingCancel()

		if err := db.PingContext(pingCtx); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		if broker != nil {
			if err := broker.Ping(pingCtx); err != nil {
				http.Error(w, "redis unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              *healthAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("health server failed")
		}
	}()

	log.Info().
		Int("batch_size", cfg.Outbox.BatchSize).
		Dur("poll_interval", cfg.Outbox.PollInterval).
		Bool("redis", broker != nil).
		Msg("outbox worker started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info().Msg("shutting down worker...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server shutdown failed")
	}

	log.Info().Msg("worker exited")
}
