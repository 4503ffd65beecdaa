// Command alpine serves championship standings over HTTP and ingests
// uploaded result files in the background.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/alpine/internal/adapters/http/api"
	service "github.com/okian/alpine/internal/app"
	"github.com/okian/alpine/internal/config"
	"github.com/okian/alpine/pkg/logger"
	"github.com/okian/alpine/pkg/metrics"
)

const (
	shutdownTimeout        = 30 * time.Second
	serviceMetricsInterval = 5 * time.Second
)

func main() {
	if err := run(); err != nil {
		os.Stderr.WriteString("alpine: " + err.Error() + "\n")
		os.Exit(1)
	}
}

func run() error {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	if err := initLogger(cfg); err != nil {
		return err
	}
	log := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	opts, err := service.OptionsFromConfig(ctx, cfg, log.Named("service"))
	if err != nil {
		return err
	}
	svc := service.New(opts...)
	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := svc.Stop(stopCtx); err != nil {
			log.Error(stopCtx, "service stop failed", logger.Error(err))
		}
	}()

	metrics.UpdateQueueCapacity(cfg.UploadQueueSize)
	go startServiceMetricsUpdater(ctx, svc)

	server := api.NewServer(svc, svc,
		api.WithCORSOrigins(cfg.Origins()),
		api.WithMaxUploadBytes(int64(cfg.MaxUploadBytes)),
		api.WithLogger(log.Named("api")),
	)
	if err := server.Serve(ctx, cfg.Addr, shutdownTimeout); err != nil {
		return err
	}
	log.Info(ctx, "server stopped")
	return nil
}

func initLogger(cfg *config.Config) error {
	var opts []logger.Option
	if cfg.LogFormat == "json" {
		opts = append(opts, logger.WithJSON())
	}
	return logger.Init(opts...)
}

// startServiceMetricsUpdater refreshes gauges derived from service stats
// until ctx ends.
func startServiceMetricsUpdater(ctx context.Context, svc *service.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(ctx, svc)
		}
	}
}

// updateServiceMetrics refreshes the upload queue gauge from the service stats.
func updateServiceMetrics(ctx context.Context, svc *service.Service) {
	stats := svc.GetStats(ctx)
	if queueLen, ok := stats["queueLength"].(int); ok {
		metrics.UpdateQueueSize(queueLen)
	}
}
