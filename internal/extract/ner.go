package extract

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/jdkato/prose/v2"

	"github.com/joseph-ayodele/entity-extractor/constants"
	"github.com/joseph-ayodele/entity-extractor/internal/entities"
)

var emailPattern = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Z|a-z]{2,7}\b`)

// FindEmails returns every email-shaped match in text, in order.
func FindEmails(text string) []string {
	return emailPattern.FindAllString(text, -1)
}

// proseTagger maps prose's entity labels onto ours. prose ships PERSON and
// GPE; GPE and ORG both land in organizations.
type proseTagger struct{}

func (proseTagger) Tag(text string) ([]entities.RawEntity, error) {
	doc, err := prose.NewDocument(text, prose.WithSegmentation(false))
	if err != nil {
		return nil, fmt.Errorf("prose document: %w", err)
	}
	out := make([]entities.RawEntity, 0, len(doc.Entities()))
	for _, ent := range doc.Entities() {
		switch ent.Label {
		case "PERSON":
			out = append(out, entities.RawEntity{Text: ent.Text, Label: entities.LabelPerson})
		case "GPE", "ORG":
			out = append(out, entities.RawEntity{Text: ent.Text, Label: entities.LabelOrg})
		}
	}
	return out, nil
}

// NERExtractor runs a local statistical tagger plus an email regex.
type NERExtractor struct {
	tagger Tagger
	source string
	logger *slog.Logger
}

type NEROption func(*NERExtractor)

// WithTagger replaces the prose tagger, e.g. with a custom-trained model.
func WithTagger(t Tagger, source string) NEROption {
	return func(e *NERExtractor) {
		e.tagger = t
		if source != "" {
			e.source = source
		}
	}
}

func NewNERExtractor(logger *slog.Logger, opts ...NEROption) *NERExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	e := &NERExtractor{tagger: proseTagger{}, source: constants.SourceProse, logger: logger}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *NERExtractor) Source() string { return e.source }

func (e *NERExtractor) Extract(ctx context.Context, text string) (entities.ExtractionResult, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return entities.ExtractionResult{}, err
	}

	emails := FindEmails(text)
	spans, err := e.tagger.Tag(text)
	if err != nil {
		e.logger.Error("extract.ner.failed", "error", err)
		return entities.ExtractionResult{}, err
	}

	res := entities.ExtractionResult{
		Person:       []string{},
		Organization: []string{},
		Email:        emails,
		Source:       e.source,
	}
	if res.Email == nil {
		res.Email = []string{}
	}
	for _, s := range spans {
		switch s.Label {
		case entities.LabelPerson:
			res.Person = append(res.Person, s.Text)
		case entities.LabelOrg:
			res.Organization = append(res.Organization, s.Text)
		default:
			continue
		}
		if s.Confidence != nil {
			res.ConfidenceScores = append(res.ConfidenceScores,
				entities.NewConfidenceEntry(s.Text, s.Label, *s.Confidence))
		}
	}
	for _, m := range emails {
		res.ConfidenceScores = append(res.ConfidenceScores,
			entities.NewConfidenceEntry(m, entities.LabelEmail, 1.0))
	}

	e.logger.Debug("extract.ner.ok",
		"names", len(res.Person),
		"orgs", len(res.Organization),
		"emails", len(res.Email),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}
