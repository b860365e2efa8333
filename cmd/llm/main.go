package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/entity-extractor/internal/common"
	"github.com/joseph-ayodele/entity-extractor/internal/extract"
	"github.com/joseph-ayodele/entity-extractor/internal/llm/openai"
	"github.com/joseph-ayodele/entity-extractor/internal/report"
	"github.com/joseph-ayodele/entity-extractor/internal/textract"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	times := flag.Int("times", 1, "number of times to run the extraction on the same document")
	envFile := flag.String("env", ".env", "dotenv file loaded before reading the environment")
	flag.Parse()

	if flag.NArg() != 1 {
		logger.Error("usage: llm [-times n] <file.pdf|file.docx|file.txt>")
		os.Exit(2)
	}
	path := flag.Arg(0)

	if err := common.LoadDotEnv(*envFile); err != nil {
		logger.Error("load env", "error", err)
		os.Exit(2)
	}
	cfg := common.LoadConfig()
	if cfg.LLM.APIKey == "" {
		logger.Error("OPENAI_API_KEY env var is required")
		os.Exit(2)
	}
	prompts, err := common.LoadPrompts(cfg.Extraction.PromptsFile)
	if err != nil {
		logger.Error("load prompts", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	reader := textract.NewExtractor(textract.Config{Pdftotext: cfg.Extraction.Pdftotext}, logger)
	doc, err := reader.Read(ctx, path)
	if err != nil {
		logger.Error("read document", "path", path, "error", err)
		os.Exit(1)
	}

	// No fallback: a model failure should be visible here.
	gpt := extract.NewGPTExtractor(openai.NewClient(openai.FromAppConfig(cfg.LLM, prompts), logger), nil, logger)

	base := filepath.Base(path)
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	failures := 0
	for i := 1; i <= *times; i++ {
		start := time.Now()
		logger.Info("llm.run.start", "iter", i, "basename", base, "chars", len(doc.Text))

		res, err := gpt.Extract(ctx, doc.Text)
		if err != nil {
			failures++
			logger.Error("llm.run.error", "iter", i, "error", err)
			continue
		}
		logger.Info("llm.run.ok", "iter", i, "elapsed_ms", time.Since(start).Milliseconds())
		if err := enc.Encode(report.BuildRow(res, path, "", logger)); err != nil {
			logger.Error("write row", "error", err)
		}
	}

	logger.Info("done", "file", base, "times", *times, "failures", failures)
	if failures == *times {
		os.Exit(1)
	}
}
