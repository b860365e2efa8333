package llm

import "context"

// EntityRequest is one document sent for entity extraction.
type EntityRequest struct {
	Text         string
	FilenameHint string
}

// EntityClient is what the GPT extractor depends on. It returns the model's
// JSON document, already validated against EntitySchema.
type EntityClient interface {
	ExtractEntities(ctx context.Context, req EntityRequest) ([]byte, error)
}
