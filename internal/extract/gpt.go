package extract

import (
	"context"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/entity-extractor/constants"
	"github.com/joseph-ayodele/entity-extractor/internal/entities"
	"github.com/joseph-ayodele/entity-extractor/internal/llm"
)

// GPTExtractor delegates to a chat model. When a fallback is set, model
// failures are logged and the fallback's result is returned instead.
type GPTExtractor struct {
	client   llm.EntityClient
	fallback Extractor
	logger   *slog.Logger
}

func NewGPTExtractor(client llm.EntityClient, fallback Extractor, logger *slog.Logger) *GPTExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &GPTExtractor{client: client, fallback: fallback, logger: logger}
}

func (e *GPTExtractor) Source() string { return constants.SourceGPT }

func (e *GPTExtractor) Extract(ctx context.Context, text string) (entities.ExtractionResult, error) {
	start := time.Now()
	raw, err := e.client.ExtractEntities(ctx, llm.EntityRequest{Text: text})
	if err == nil {
		var res entities.ExtractionResult
		res, err = entities.DecodeResult(raw)
		if err == nil {
			res.Source = constants.SourceGPT
			e.logger.Debug("extract.gpt.ok",
				"names", len(res.Person),
				"orgs", len(res.Organization),
				"emails", len(res.Email),
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return res, nil
		}
	}

	if e.fallback == nil || ctx.Err() != nil {
		e.logger.Error("extract.gpt.failed", "error", err)
		return entities.ExtractionResult{}, err
	}
	e.logger.Warn("extract.gpt.fallback", "error", err, "fallback", e.fallback.Source())
	return e.fallback.Extract(ctx, text)
}
