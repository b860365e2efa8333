package llm

import (
	"strings"

	"github.com/joseph-ayodele/entity-extractor/internal/common"
)

const (
	defaultSystemPrompt = "You extract structured data from unstructured text. " +
		"Return ONLY a JSON object that matches the provided JSON Schema."

	defaultUserPrompt = `From the following document, extract all PERSON names, ORGANIZATIONS, and EMAILS.
Return them in JSON format like this:
{"person": ["Name1"], "organization": ["Org1"], "email": ["email1@example.com"],
 "confidence_scores": [{"text": "Name1", "label": "PERSON", "confidence": 0.93}]}
Use the labels PERSON, ORG and EMAIL in confidence_scores and give one entry per extracted value.
Copy names exactly as written. Do not invent values; use empty arrays when nothing is found.

Document:
%s`
)

// PromptBuilder renders the system and user messages. Blank overrides keep
// the built-in prompts; a user override must contain one %s for the document.
type PromptBuilder struct {
	system string
	user   string
}

func NewPromptBuilder(p common.Prompts) PromptBuilder {
	b := PromptBuilder{system: defaultSystemPrompt, user: defaultUserPrompt}
	if s := strings.TrimSpace(p.System); s != "" {
		b.system = s
	}
	if u := strings.TrimSpace(p.User); u != "" && strings.Count(u, "%s") == 1 {
		b.user = u
	}
	return b
}

// System returns the system message.
func (b PromptBuilder) System() string {
	return b.system
}

// User returns the user message for req.
func (b PromptBuilder) User(req EntityRequest) string {
	doc := strings.TrimSpace(req.Text)
	if f := strings.TrimSpace(req.FilenameHint); f != "" {
		doc = "Filename: " + f + "\n\n" + doc
	}
	return strings.Replace(b.user, "%s", doc, 1)
}
