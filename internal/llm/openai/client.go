package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	goopenai "github.com/sashabaranov/go-openai"

	"github.com/joseph-ayodele/entity-extractor/internal/llm"
)

var _ llm.EntityClient = (*Client)(nil)

// ExtractEntities asks the chat model for person, organization and email
// lists in JSON mode, then normalizes and validates the answer.
func (c *Client) ExtractEntities(ctx context.Context, req llm.EntityRequest) ([]byte, error) {
	rid := uuid.New().String()
	start := time.Now()

	text, truncated := c.truncator.Truncate(req.Text)
	req.Text = text

	c.log.Info("llm.extract.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"text_len", len(text),
		"truncated", truncated,
		"filename", req.FilenameHint,
	)

	schema := llm.BuildEntityJSONSchema()
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	resp, err := c.api.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model:       c.cfg.Model,
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
		ResponseFormat: &goopenai.ChatCompletionResponseFormat{
			Type: goopenai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: c.prompts.System()},
			{Role: goopenai.ChatMessageRoleUser, Content: c.prompts.User(req)},
			{Role: goopenai.ChatMessageRoleSystem, Content: "JSON Schema:\n" + mustJSON(schema)},
		},
	})
	if err != nil {
		c.log.Error("llm.extract.api_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		c.log.Error("llm.extract.no_choices",
			"req_id", rid,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, fmt.Errorf("no choices in openai response")
	}

	content := []byte(llm.StripCodeFence(resp.Choices[0].Message.Content))
	cleaned, _, err := llm.NormalizeEntityJSON(content, c.log)
	if err != nil {
		c.log.Error("llm.extract.sanitize_failed",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return content, fmt.Errorf("sanitize failed: %w", err)
	}
	if err := llm.ValidateJSONAgainstSchema(schema, cleaned); err != nil {
		c.log.Error("llm.extract.schema_validation_failed",
			"req_id", rid, "error", err, "content", string(content),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return cleaned, fmt.Errorf("schema validation failed: %w", err)
	}

	c.log.Info("llm.extract.ok",
		"req_id", rid,
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return cleaned, nil
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return strings.TrimSpace(string(b))
}
