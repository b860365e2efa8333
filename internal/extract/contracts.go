package extract

import (
	"context"

	"github.com/joseph-ayodele/entity-extractor/internal/entities"
)

// Extractor turns document text into raw person, organization and email
// candidates. Results are not yet normalized or filtered.
type Extractor interface {
	Extract(ctx context.Context, text string) (entities.ExtractionResult, error)
	// Source names the model behind the extractor ("prose", "gpt", ...).
	Source() string
}

// Tagger finds labelled spans in text.
type Tagger interface {
	Tag(text string) ([]entities.RawEntity, error)
}
