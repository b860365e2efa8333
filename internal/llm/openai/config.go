package openai

import (
	"log/slog"
	"os"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/joseph-ayodele/entity-extractor/internal/common"
	"github.com/joseph-ayodele/entity-extractor/internal/llm"
)

// Config for the OpenAI client.
type Config struct {
	APIKey          string        // if empty, falls back to env OPENAI_API_KEY
	BaseURL         string        // default https://api.openai.com/v1
	Model           string        // e.g., "gpt-4o-mini"
	Temperature     float32       // 0..2
	MaxTokens       int           // completion cap
	Timeout         time.Duration // per-request timeout
	MaxPromptTokens int           // document budget, 0 disables truncation
	Prompts         common.Prompts
}

type Client struct {
	cfg       Config
	api       *goopenai.Client
	prompts   llm.PromptBuilder
	truncator *llm.Truncator
	log       *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 500
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	apiCfg := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}

	return &Client{
		cfg:       cfg,
		api:       goopenai.NewClientWithConfig(apiCfg),
		prompts:   llm.NewPromptBuilder(cfg.Prompts),
		truncator: llm.NewTruncator(cfg.MaxPromptTokens, logger),
		log:       logger,
	}
}

// FromAppConfig maps the application LLM settings onto a client Config.
func FromAppConfig(c common.LLMConfig, prompts common.Prompts) Config {
	return Config{
		APIKey:          c.APIKey,
		BaseURL:         c.BaseURL,
		Model:           c.Model,
		Temperature:     c.Temperature,
		Timeout:         c.Timeout,
		MaxPromptTokens: c.MaxPromptTokens,
		Prompts:         prompts,
	}
}
