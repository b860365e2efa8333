package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/entity-extractor/internal/llm"
)

func chatServer(t *testing.T, content string, captured *map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		if captured != nil {
			_ = json.NewDecoder(r.Body).Decode(captured)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   "gpt-4o-mini",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			}},
			"usage": map[string]any{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
		})
	}))
}

func TestExtractEntities_OK(t *testing.T) {
	var body map[string]any
	srv := chatServer(t, "```json\n{\"names\":[\"Jane Doe\"],\"organization\":[\"Acme\"],\"email\":[]}\n```", &body)
	defer srv.Close()

	c := NewClient(Config{APIKey: "test", BaseURL: srv.URL}, nil)
	raw, err := c.ExtractEntities(context.Background(), llm.EntityRequest{Text: "Jane Doe works at Acme."})
	require.NoError(t, err)
	assert.JSONEq(t, `{"person":["Jane Doe"],"organization":["Acme"],"email":[]}`, string(raw))

	assert.Equal(t, "gpt-4o-mini", body["model"])
	rf, _ := body["response_format"].(map[string]any)
	assert.Equal(t, "json_object", rf["type"])
}

func TestExtractEntities_SchemaFailure(t *testing.T) {
	srv := chatServer(t, `{"person":["Jane"]}`, nil)
	defer srv.Close()

	c := NewClient(Config{APIKey: "test", BaseURL: srv.URL}, nil)
	_, err := c.ExtractEntities(context.Background(), llm.EntityRequest{Text: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema validation failed")
}

func TestExtractEntities_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "bad", BaseURL: srv.URL}, nil)
	_, err := c.ExtractEntities(context.Background(), llm.EntityRequest{Text: "x"})
	assert.Error(t, err)
}
