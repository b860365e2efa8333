package entities

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/joseph-ayodele/entity-extractor/internal/common"
)

// Label is the entity class attached to a span.
type Label string

const (
	LabelPerson Label = "PERSON"
	LabelOrg    Label = "ORG"
	LabelEmail  Label = "EMAIL"
)

// Valid reports whether l is one of the three known labels.
func (l Label) Valid() bool {
	return l == LabelPerson || l == LabelOrg || l == LabelEmail
}

// RawEntity is one span produced by an extractor.
type RawEntity struct {
	Text       string   `json:"text"`
	Label      Label    `json:"label"`
	Confidence *float64 `json:"confidence,omitempty"`
}

// ConfidenceEntry is a confidence record as received from an extractor. Label
// and Confidence stay loosely typed so bad entries can be skipped rather than
// failing the whole result.
type ConfidenceEntry struct {
	Text       string `json:"text"`
	Label      any    `json:"label"`
	Confidence any    `json:"confidence"`
}

// NewConfidenceEntry builds a well-formed entry.
func NewConfidenceEntry(text string, label Label, score float64) ConfidenceEntry {
	return ConfidenceEntry{Text: text, Label: string(label), Confidence: score}
}

// ExtractionResult is one file's raw extractor output.
type ExtractionResult struct {
	Person           []string          `json:"person"`
	Organization     []string          `json:"organization"`
	Email            []string          `json:"email"`
	ConfidenceScores []ConfidenceEntry `json:"confidence_scores,omitempty"`
	Source           string            `json:"source,omitempty"`
}

// DecodeResult parses a raw extractor payload. The payload must be a JSON
// object with person, organization and email arrays of strings; anything else
// is ErrMalformedInput.
func DecodeResult(raw []byte) (ExtractionResult, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return ExtractionResult{}, malformed("result is not an object", err)
	}
	for _, key := range []string{"person", "organization", "email"} {
		v, ok := probe[key]
		if !ok {
			return ExtractionResult{}, malformed(fmt.Sprintf("missing %q", key), nil)
		}
		if bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			return ExtractionResult{}, malformed(fmt.Sprintf("%q is null", key), nil)
		}
	}

	var out ExtractionResult
	if err := json.Unmarshal(raw, &out); err != nil {
		return ExtractionResult{}, malformed("unexpected field types", err)
	}
	return out, nil
}

func malformed(msg string, cause error) error {
	if cause == nil {
		cause = common.ErrMalformedInput
	} else {
		cause = fmt.Errorf("%w: %v", common.ErrMalformedInput, cause)
	}
	return common.NewAppError(common.CodeMalformedInput, msg, cause)
}
