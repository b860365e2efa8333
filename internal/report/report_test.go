package report

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/entity-extractor/internal/entities"
)

func TestBuildRowDeduplicatesOrganizations(t *testing.T) {
	res := entities.ExtractionResult{
		Person:       []string{"NASA is not a person"},
		Organization: []string{"NASA", "NASA"},
		Email:        []string{"a@b.com"},
	}
	row := BuildRow(res, "f.txt", "", nil)

	assert.Equal(t, "NASA", row.Organizations)
	assert.Equal(t, "NASA is not a person", row.Names)
	assert.Equal(t, "a@b.com", row.Emails)
	assert.Equal(t, "f.txt", row.Filename)
	assert.Equal(t, ".txt", row.SourceType)
	assert.Equal(t, "unknown", row.ModelSource)
}

func TestBuildRowFormatsAndSorts(t *testing.T) {
	res := entities.ExtractionResult{
		Person:       []string{"Zoe Adams.", "Bob Stone", "the", "Zoe Adams"},
		Organization: []string{"Acme Corp,", "12345"},
		Email:        []string{"z@x.io", "a@x.io", "z@x.io", "Not An Email"},
		ConfidenceScores: []entities.ConfidenceEntry{
			entities.NewConfidenceEntry("Zoe Adams", entities.LabelPerson, 0.876),
			entities.NewConfidenceEntry("Bob Stone", entities.LabelPerson, 0.5),
			{Text: "Acme", Label: "ORG", Confidence: "high"},
			entities.NewConfidenceEntry("a@x.io", entities.LabelEmail, 1),
		},
		Source: "gpt",
	}
	row := BuildRow(res, "/tmp/in/Report.PDF", "", nil)

	assert.Equal(t, "Report.PDF", row.Filename)
	assert.Equal(t, ".pdf", row.SourceType)
	assert.Equal(t, "Bob Stone, Zoe Adams", row.Names)
	assert.Equal(t, "0.88, 0.50", row.NameConfidences)
	assert.Equal(t, "Acme Corp", row.Organizations)
	assert.Equal(t, "", row.OrgConfidences)
	// emails bypass the noise filter
	assert.Equal(t, "Not An Email, a@x.io, z@x.io", row.Emails)
	assert.Equal(t, "1.00", row.EmailConfidences)
	assert.Equal(t, "gpt", row.ModelSource)
}

func TestBuildRowModelSourceOverride(t *testing.T) {
	row := BuildRow(entities.ExtractionResult{Source: "gpt"}, "a.docx", "prose", nil)
	assert.Equal(t, "prose", row.ModelSource)
	assert.Equal(t, "", row.Names)
}

func TestRecordFollowsColumns(t *testing.T) {
	row := ExtractionRow{Filename: "a.txt", Names: "Alice", ModelSource: "prose"}
	rec := row.Record()
	assert.Equal(t, Columns, rec.Keys())
	v, ok := rec.Get(ColNames)
	require.True(t, ok)
	assert.Equal(t, "Alice", v)
}

func TestSummarizeDoubleCountsAcrossFiles(t *testing.T) {
	rows := []ExtractionRow{
		{Filename: "a.txt", Names: "Alice, Bob"},
		{Filename: "b.txt", Names: "Alice, Bob", Emails: "x@y.io", Organizations: ""},
	}
	s := Summarize(rows, 2)
	assert.Equal(t, 4, s.NamesExtracted)
	assert.Equal(t, 1, s.EmailsExtracted)
	assert.Equal(t, 0, s.OrgsExtracted)
	assert.Equal(t, 2, s.FilesProcessed)
	assert.Len(t, s.Results, 2)
}

func TestSummarizeKeepsUploadedCount(t *testing.T) {
	s := Summarize([]ExtractionRow{{Filename: "a.txt", Organizations: "Acme"}}, 3)
	assert.Equal(t, 3, s.FilesProcessed)
	assert.Len(t, s.Results, 1)
	assert.Equal(t, 1, s.OrgsExtracted)
}

func TestSummaryJSONShape(t *testing.T) {
	s := Summarize([]ExtractionRow{{Filename: "a.txt", Names: "Alice"}}, 1)
	b, err := json.Marshal(s)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	for _, k := range []string{"files_processed", "names_extracted", "emails_extracted", "orgs_extracted", "results"} {
		assert.Contains(t, m, k)
	}
	results := m["results"].([]any)
	first := results[0].(map[string]any)
	assert.Equal(t, "Alice", first["Names"])
	assert.Contains(t, first, "Source Type")
	assert.Contains(t, first, "Model Source")

	empty, err := json.Marshal(Summarize(nil, 0))
	require.NoError(t, err)
	assert.Contains(t, string(empty), `"results":[]`)
}

func TestBuildPreview(t *testing.T) {
	s := BatchSummary{Results: []ExtractionRow{
		{Names: "A1, A2, A3, A4, A5, A6", Emails: "e1@x.io"},
		{Names: "B1, B2, B3, B4, B5, B6", Organizations: "Acme"},
	}}
	p := BuildPreview(s, 0)
	assert.Len(t, p.Names, 10)
	assert.Equal(t, "A1", p.Names[0])
	assert.Equal(t, "B4", p.Names[9])
	assert.Equal(t, []string{"e1@x.io"}, p.Emails)
	assert.Equal(t, []string{"Acme"}, p.Organizations)
}
