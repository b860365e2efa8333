package llm

import (
	"log/slog"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

const (
	defaultEncoding = "cl100k_base"
	// approximate chars per token when the encoding cannot be loaded
	charsPerToken = 4
)

// Truncator caps document text to a token budget before it is sent to the
// model. A zero budget disables truncation.
type Truncator struct {
	maxTokens int
	enc       *tiktoken.Tiktoken
	logger    *slog.Logger
}

func NewTruncator(maxTokens int, logger *slog.Logger) *Truncator {
	if logger == nil {
		logger = slog.Default()
	}
	t := &Truncator{maxTokens: maxTokens, logger: logger}
	if maxTokens <= 0 {
		return t
	}
	enc, err := tiktoken.GetEncoding(defaultEncoding)
	if err != nil {
		logger.Warn("llm.tokens.encoding_unavailable", "encoding", defaultEncoding, "error", err)
		return t
	}
	t.enc = enc
	return t
}

// Truncate returns text cut to the budget and whether it was cut.
func (t *Truncator) Truncate(text string) (string, bool) {
	if t == nil || t.maxTokens <= 0 {
		return text, false
	}
	if t.enc == nil {
		limit := t.maxTokens * charsPerToken
		if utf8.RuneCountInString(text) <= limit {
			return text, false
		}
		return string([]rune(text)[:limit]), true
	}
	tokens := t.enc.Encode(text, nil, nil)
	if len(tokens) <= t.maxTokens {
		return text, false
	}
	t.logger.Debug("llm.tokens.truncated", "tokens", len(tokens), "max", t.maxTokens)
	return t.enc.Decode(tokens[:t.maxTokens]), true
}
