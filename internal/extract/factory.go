package extract

import (
	"log/slog"

	"github.com/joseph-ayodele/entity-extractor/internal/common"
	"github.com/joseph-ayodele/entity-extractor/internal/llm/openai"
)

// New picks the extractor for cfg. GPT needs an API key; without one the
// local tagger is used and a warning is logged.
func New(cfg *common.Config, prompts common.Prompts, logger *slog.Logger) Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	ner := NewNERExtractor(logger)
	if !cfg.Extraction.UseGPT {
		logger.Info("extract.mode", "source", ner.Source())
		return ner
	}
	if cfg.LLM.APIKey == "" {
		logger.Warn("extract.mode.gpt_unavailable", "reason", "OPENAI_API_KEY not set", "source", ner.Source())
		return ner
	}
	client := openai.NewClient(openai.FromAppConfig(cfg.LLM, prompts), logger)
	logger.Info("extract.mode", "source", "gpt", "model", cfg.LLM.Model)
	return NewGPTExtractor(client, ner, logger)
}
