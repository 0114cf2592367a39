// cmd/worker-manager/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"matching-workers/internal/api"
	"matching-workers/internal/bootstrap"
	"matching-workers/internal/common/camunda"
	"matching-workers/internal/common/config"
	"matching-workers/internal/common/logger"
	"matching-workers/internal/common/observability"

	cms "matching-workers/internal/workers/matching/calculate-matching-scores"
)

func main() {
	zapLog := logger.New("info", "console")
	zapLog.Info("Starting worker manager...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog = logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output).
		With(zap.String("service", cfg.App.Name), zap.String("environment", cfg.App.Environment))
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	obs := observability.New(cfg.App.Name, log)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init PostgreSQL and Redis with retry ---
	infra, err := bootstrap.Connect(ctx, cfg, bootstrap.ConnectOptions{MaxRetries: 15, InitialDelay: 2 * time.Second}, zapLog)
	if err != nil {
		zapLog.Fatal("datastores unavailable after retries", zap.Error(err), zap.NamedError("cause", errors.Unwrap(err)))
	}
	defer infra.Close()

	if err := bootstrap.Migrate(cfg, zapLog); err != nil {
		zapLog.Fatal("database migration failed", zap.Error(err))
	}

	svc := bootstrap.NewMatchingService(cfg, infra, obs, log)

	readiness := []api.ReadinessCheck{
		{Name: "postgres", Check: infra.Postgres.Ping},
	}
	if infra.Redis != nil {
		readiness = append(readiness, api.ReadinessCheck{Name: "redis", Check: infra.Redis.Ping})
	}

	// --- Init Zeebe client and register the matching worker ---
	var (
		zeebe   *camunda.Client
		workers []*camunda.CamundaWorker
	)
	if cfg.Camunda.Enabled {
		err = bootstrap.RetryWithBackoff(ctx, func() error {
			var err error
			zeebe, err = camunda.NewClient(ctx, cfg.Camunda.BrokerAddress)
			return err
		}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
		if err != nil {
			zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
		}
		zapLog.Info("Zeebe client connected successfully")
		readiness = append(readiness, api.ReadinessCheck{Name: "zeebe", Check: zeebe.HealthCheck})

		handler, err := cms.NewHandler(cms.ConfigFromApp(cfg), svc, log)
		if err != nil {
			zapLog.Fatal("failed to create calculate-matching-scores handler", zap.Error(err))
		}
		if handler.IsEnabled() {
			workers = append(workers, camunda.NewWorker(zeebe.GetClient(), cms.TaskType, camunda.WorkerOptions{
				MaxJobsActive: handler.MaxJobsActive(),
				Timeout:       handler.Timeout(),
				Name:          cms.TaskType + "-worker",
			}, handler, log))
		} else {
			zapLog.Info("worker disabled", zap.String("taskType", cms.TaskType))
		}
	} else {
		zapLog.Info("Camunda disabled, serving HTTP API only")
	}

	// --- HTTP API, health & metrics ---
	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      api.SetupRouter(cfg.Server.Mode, svc, readiness, log),
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}
	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.Server.Address))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down HTTP server", zap.Error(err))
	}

	for _, w := range workers {
		w.Stop()
	}
	if zeebe != nil {
		if err := zeebe.Close(); err != nil {
			zapLog.Error("Error closing Zeebe client", zap.Error(err))
		}
	}

	zapLog.Info("Worker manager stopped gracefully")
}
