package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joseph-ayodele/entity-extractor/internal/common"
	"github.com/joseph-ayodele/entity-extractor/internal/textract"
)

func main() {
	pdftotext := flag.String("pdftotext", "pdftotext", "fallback PDF text binary; empty disables it")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if flag.NArg() != 1 {
		logger.Error("usage", "cmd", "extract-text [-pdftotext bin] <file.pdf|file.docx|file.txt>")
		os.Exit(2)
	}
	path := flag.Arg(0)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	reader := textract.NewExtractor(textract.Config{Pdftotext: *pdftotext}, logger)

	start := time.Now()
	res, err := reader.Read(ctx, path)
	dur := time.Since(start)
	if err != nil {
		logger.Error("text extraction failed", "path", path, "error", common.UserMessage(err), "duration_ms", dur.Milliseconds())
		os.Exit(1)
	}

	logger.Info("text extraction OK",
		"path", path,
		"method", res.Method,
		"pages", res.Pages,
		"chars", len(res.Text),
		"warnings", res.Warnings,
		"duration_ms", dur.Milliseconds(),
	)
	fmt.Println(res.Text)
}
