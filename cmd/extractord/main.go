package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/joseph-ayodele/entity-extractor/internal/async"
	"github.com/joseph-ayodele/entity-extractor/internal/auditlog"
	"github.com/joseph-ayodele/entity-extractor/internal/cleanup"
	"github.com/joseph-ayodele/entity-extractor/internal/common"
	"github.com/joseph-ayodele/entity-extractor/internal/export"
	"github.com/joseph-ayodele/entity-extractor/internal/extract"
	"github.com/joseph-ayodele/entity-extractor/internal/ingest"
	"github.com/joseph-ayodele/entity-extractor/internal/metrics"
	"github.com/joseph-ayodele/entity-extractor/internal/pipeline"
	repo "github.com/joseph-ayodele/entity-extractor/internal/repository"
	"github.com/joseph-ayodele/entity-extractor/internal/rpc"
	"github.com/joseph-ayodele/entity-extractor/internal/server"
	"github.com/joseph-ayodele/entity-extractor/internal/textract"
)

const (
	shutdownTimeout = 15 * time.Second
	metricsInterval = 15 * time.Second
)

func main() {
	envFile := flag.String("env", ".env", "dotenv file loaded before reading the environment")
	flag.Parse()

	if err := common.LoadDotEnv(*envFile); err != nil {
		slog.Error("failed to load env file", "error", err)
		os.Exit(2)
	}
	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	logger, closer := common.NewLogger(cfg.Log)
	defer closer.Close()
	slog.SetDefault(logger)
	if common.ParseLevel(cfg.Log.Level) > slog.LevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	prompts, err := common.LoadPrompts(cfg.Extraction.PromptsFile)
	if err != nil {
		logger.Error("failed to load prompts", "error", err)
		os.Exit(1)
	}

	drv, pool, err := repo.InitDatabase(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("failed to initialize database", "driver", cfg.Database.Driver, "error", err)
		os.Exit(1)
	}
	defer repo.Close(drv, pool, logger)

	if err := repo.HealthCheck(ctx, drv, 5*time.Second, logger); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}

	logsRepo := repo.NewExtractionLogRepository(drv, logger)
	feedbackRepo := repo.NewFeedbackRepository(drv, logger)

	processor := pipeline.NewProcessor(
		textract.NewExtractor(textract.Config{Pdftotext: cfg.Extraction.Pdftotext}, logger),
		extract.New(cfg, prompts, logger),
		export.NewExporter(logger),
		cfg.Storage.OutputDir,
		logger,
		pipeline.WithAudit(auditlog.New(cfg.Storage.AuditLogDir, logger)),
		pipeline.WithExtractionLogs(logsRepo),
	)

	// HTTP
	api := server.NewServer(server.Deps{
		Processor:   processor,
		Logs:        logsRepo,
		Feedback:    feedbackRepo,
		DB:          drv,
		UploadDir:   cfg.Storage.UploadDir,
		MaxUploadMB: cfg.Server.MaxUploadMB,
		Logger:      logger,
	})
	httpServer := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           api.SetupRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("http listening", "addr", cfg.Server.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve error", "error", err)
			stop()
		}
	}()

	// gRPC
	grpcServer, healthServer := rpc.NewServer(logsRepo, logger)
	if cfg.Server.GRPCAddr != "" {
		lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
		if err != nil {
			logger.Error("failed to listen on address", "addr", cfg.Server.GRPCAddr, "error", err)
			os.Exit(1)
		}
		go func() {
			logger.Info("grpc listening", "addr", cfg.Server.GRPCAddr)
			if err := grpcServer.Serve(lis); err != nil {
				logger.Error("gRPC serve error", "error", err)
				stop()
			}
		}()
	}

	// Expired uploads and outputs
	for _, dir := range []string{cfg.Storage.OutputDir, cfg.Storage.UploadDir} {
		if dir == "" {
			continue
		}
		go cleanup.NewSweeper(dir, cfg.Cleanup.Expiry, cfg.Cleanup.Interval, logger).Run(ctx)
	}

	go func() {
		t := time.NewTicker(metricsInterval)
		defer t.Stop()
		for {
			metrics.UpdateSystemMetrics()
			select {
			case <-ctx.Done():
				return
			case <-t.C:
			}
		}
	}()

	var queue *async.BatchQueue
	if cfg.Watch.Dir != "" {
		queue = startWatchQueue(ctx, cfg.Watch, processor, logger)
	}

	<-ctx.Done()
	logger.Info("shutting down")
	healthServer.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "error", err)
	}
	grpcServer.GracefulStop()
	if queue != nil {
		queue.Shutdown(shutdownCtx)
	}
	logger.Info("stopped")
}

// startWatchQueue processes documents dropped into the watch directory in
// the background. Each debounced group of paths becomes one batch.
func startWatchQueue(ctx context.Context, cfg common.WatchConfig, processor *pipeline.Processor, logger *slog.Logger) *async.BatchQueue {
	queue := async.NewBatchQueue(processor, logger,
		async.WithWorkers(cfg.Workers),
		async.WithResultHandler(func(job async.Job, outcome *pipeline.BatchOutcome, err error) {
			if err != nil {
				logger.Warn("watch.batch.failed", "batch_id", job.Batch.ID, "error", err)
				return
			}
			logger.Info("watch.batch.ok",
				"batch_id", outcome.BatchID,
				"files", outcome.Summary.FilesProcessed,
				"downloads", outcome.Downloads,
			)
		}),
	)

	paths, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Roots:       []string{cfg.Dir},
		InitialScan: true,
		Debounce:    cfg.Debounce,
		SkipHidden:  true,
	}, logger)
	if err != nil {
		logger.Error("watcher disabled", "dir", cfg.Dir, "error", err)
		return queue
	}
	go ingest.FeedQueue(ctx, paths, queue, logger)
	go func() {
		for err := range errs {
			logger.Warn("watcher error", "error", err)
		}
	}()
	logger.Info("watching", "dir", cfg.Dir, "workers", cfg.Workers)
	return queue
}
