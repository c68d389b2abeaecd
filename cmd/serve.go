package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/spf13/cobra"

	"github.com/vitazok/exercise-analyzer-backend/internal/adapters/http/api"
	"github.com/vitazok/exercise-analyzer-backend/internal/adapters/http/swagger"
	"github.com/vitazok/exercise-analyzer-backend/internal/adapters/notify"
	service "github.com/vitazok/exercise-analyzer-backend/internal/app"
	"github.com/vitazok/exercise-analyzer-backend/internal/config"
	"github.com/vitazok/exercise-analyzer-backend/internal/domain/standards"
	"github.com/vitazok/exercise-analyzer-backend/pkg/logger"
	"github.com/vitazok/exercise-analyzer-backend/pkg/metrics"
)

// HTTP server timeout constants. Uploads stream through /analyze, so the
// read and write limits are wider than a plain JSON API would need.
const (
	readTimeout               = 5 * time.Minute
	writeTimeout              = 5 * time.Minute
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	serviceMetricsInterval    = 5 * time.Second
	natsReadyTimeout          = 5 * time.Second
	embeddedNATS              = "embedded"
	nanosecondsPerMillisecond = 1e6
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP analysis service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cmd)
		},
	}
}

func serve(ctx context.Context, cmd *cobra.Command) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	if err := initLogger(cmd, cfg.LogFormat, cfg.LogLevel); err != nil {
		return fmt.Errorf("initialize logging: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Get()

	opts := []service.Option{
		service.WithLogger(log),
		service.WithWorkerCount(cfg.WorkerCount),
		service.WithQueueSize(cfg.QueueSize),
		service.WithDedupeSize(cfg.DedupeSize),
		service.WithDirs(cfg.UploadDir, cfg.ProcessedDir),
		service.WithDetectorCommand(cfg.DetectorCommand),
		service.WithMinVisibility(cfg.MinVisibility),
		service.WithTopFeedback(cfg.TopFeedback),
		service.WithOverlay(cfg.OverlayEnabled),
		service.WithJobTimeout(cfg.JobTimeout()),
		service.WithRetention(cfg.JobRetention()),
	}

	if cfg.StandardsFile != "" {
		table, err := standards.LoadFile(cfg.StandardsFile)
		if err != nil {
			return err
		}
		log.Info(ctx, "loaded form standards", logger.String("file", cfg.StandardsFile))
		opts = append(opts, service.WithStandards(table))
	}

	publisher, ns, err := openNotifier(cfg, log)
	if err != nil {
		return err
	}
	if ns != nil {
		defer ns.Shutdown()
	}
	opts = append(opts, service.WithNotifier(publisher))

	svc := service.New(opts...)
	if err := svc.Start(ctx); err != nil {
		_ = publisher.Close()
		return fmt.Errorf("start service: %w", err)
	}

	go startSystemMetricsUpdater(ctx)
	go startServiceMetricsUpdater(ctx, svc)

	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc, cfg.MaxUploadBytes()).Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-serveErr:
		if runErr != nil {
			log.Error(ctx, "HTTP server failed", logger.Error(runErr))
		}
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "server shutdown failed", logger.Error(err))
	}
	if err := svc.Stop(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "service shutdown incomplete", logger.Error(err))
	}

	log.Info(shutdownCtx, "server stopped")
	return runErr
}

// openNotifier picks the job event publisher. "embedded" also returns the
// in-process server, which the caller shuts down after the service stops.
func openNotifier(cfg *config.Config, log logger.Logger) (notify.Publisher, *server.Server, error) {
	url := cfg.NATSURL
	if url == "" {
		return notify.Nop{}, nil, nil
	}

	var ns *server.Server
	if url == embeddedNATS {
		var err error
		if ns, err = notify.StartEmbedded(natsReadyTimeout); err != nil {
			return nil, nil, err
		}
		url = ns.ClientURL()
	}

	pub, err := notify.Connect(url,
		notify.WithSubject(cfg.NATSSubject),
		notify.WithLogger(log.Named("notify")),
	)
	if err != nil {
		if ns != nil {
			ns.Shutdown()
		}
		return nil, nil, err
	}
	return pub, ns, nil
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// startServiceMetricsUpdater refreshes queue and worker gauges. GetStats
// records them as a side effect.
func startServiceMetricsUpdater(ctx context.Context, svc *service.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = svc.GetStats(ctx)
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)

	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
