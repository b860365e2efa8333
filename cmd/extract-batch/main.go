package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/entity-extractor/internal/auditlog"
	"github.com/joseph-ayodele/entity-extractor/internal/common"
	"github.com/joseph-ayodele/entity-extractor/internal/export"
	"github.com/joseph-ayodele/entity-extractor/internal/extract"
	"github.com/joseph-ayodele/entity-extractor/internal/ingest"
	"github.com/joseph-ayodele/entity-extractor/internal/pipeline"
	repo "github.com/joseph-ayodele/entity-extractor/internal/repository"
	"github.com/joseph-ayodele/entity-extractor/internal/textract"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		dir     = flag.String("dir", "", "directory of documents to process as one batch (required)")
		out     = flag.String("out", "", "output directory (defaults to OUTPUT_DIR)")
		inmem   = flag.Bool("inmem", false, "log extractions to an in-memory SQLite database")
		nodb    = flag.Bool("nodb", false, "do not log extractions to a database")
		envFile = flag.String("env", ".env", "dotenv file loaded before reading the environment")
	)
	flag.Parse()

	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(1)
	}
	if err := common.LoadDotEnv(*envFile); err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}
	cfg := common.LoadConfig()
	if *out != "" {
		cfg.Storage.OutputDir = *out
	}
	if *inmem {
		cfg.Database.Driver = "sqlite"
		cfg.Database.DSN = "file:" + uuid.NewString() + "?mode=memory&cache=shared&_pragma=foreign_keys(1)"
	}
	if err := cfg.Validate(); err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}

	// Logs go to stderr so stdout carries only the JSON outcome.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: common.ParseLevel(cfg.Log.Level),
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	prompts, err := common.LoadPrompts(cfg.Extraction.PromptsFile)
	if err != nil {
		logger.Error("failed to load prompts", "error", err)
		os.Exit(1)
	}

	opts := []pipeline.Option{pipeline.WithAudit(auditlog.New(cfg.Storage.AuditLogDir, logger))}
	if !*nodb {
		drv, pool, err := repo.InitDatabase(ctx, cfg.Database, logger)
		if err != nil {
			logger.Error("failed to initialize database", "error", err)
			os.Exit(1)
		}
		defer repo.Close(drv, pool, logger)
		opts = append(opts, pipeline.WithExtractionLogs(repo.NewExtractionLogRepository(drv, logger)))
	}

	processor := pipeline.NewProcessor(
		textract.NewExtractor(textract.Config{Pdftotext: cfg.Extraction.Pdftotext}, logger),
		extract.New(cfg, prompts, logger),
		export.NewExporter(logger),
		cfg.Storage.OutputDir,
		logger,
		opts...,
	)

	files, walked, stats, err := ingest.CollectDirectory(ctx, *dir, true)
	if err != nil {
		logger.Error("failed to scan directory", "dir", *dir, "error", err)
		os.Exit(1)
	}
	for _, r := range walked {
		if r.Err != "" {
			logger.Warn("file skipped", "path", r.Path, "reason", r.Err)
		}
	}
	logger.Info("scan complete",
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"succeeded", stats.Succeeded,
		"failed", stats.Failed,
		"deduplicated", stats.Deduplicated)

	outcome, err := processor.ProcessBatch(ctx, pipeline.Batch{Files: files})
	if outcome != nil {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(outcome); encErr != nil {
			logger.Error("failed to write outcome", "error", encErr)
		}
	}
	if err != nil {
		printError("Error: %s\n", common.UserMessage(err))
		os.Exit(1)
	}
}
