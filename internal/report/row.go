package report

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/entity-extractor/internal/entities"
	"github.com/joseph-ayodele/entity-extractor/internal/export"
)

const (
	joinSep       = ", "
	unknownSource = "unknown"
)

// Column headers, in export order.
const (
	ColFilename         = "Filename"
	ColSourceType       = "Source Type"
	ColNames            = "Names"
	ColNameConfidences  = "Name Confidences"
	ColEmails           = "Emails"
	ColEmailConfidences = "Email Confidences"
	ColOrganizations    = "Organizations"
	ColOrgConfidences   = "Org Confidences"
	ColModelSource      = "Model Source"
)

// Columns lists the headers of an ExtractionRow in order.
var Columns = []string{
	ColFilename, ColSourceType,
	ColNames, ColNameConfidences,
	ColEmails, ColEmailConfidences,
	ColOrganizations, ColOrgConfidences,
	ColModelSource,
}

// ExtractionRow is the per-file report line. Multi-valued fields are already
// joined with ", ".
type ExtractionRow struct {
	Filename         string `json:"Filename"`
	SourceType       string `json:"Source Type"`
	Names            string `json:"Names"`
	NameConfidences  string `json:"Name Confidences"`
	Emails           string `json:"Emails"`
	EmailConfidences string `json:"Email Confidences"`
	Organizations    string `json:"Organizations"`
	OrgConfidences   string `json:"Org Confidences"`
	ModelSource      string `json:"Model Source"`
}

// BuildRow turns one file's extraction result into a row. Persons and
// organizations are normalized, filtered and deduplicated; emails are a plain
// set union since they were regex-matched upstream. Sets are sorted so output
// is reproducible. modelSource overrides res.Source when non-empty.
func BuildRow(res entities.ExtractionResult, filename, modelSource string, logger *slog.Logger) ExtractionRow {
	names := entities.Sorted(entities.Deduplicate(res.Person, entities.LabelPerson))
	orgs := entities.Sorted(entities.Deduplicate(res.Organization, entities.LabelOrg))
	emails := entities.Sorted(entities.UnionRaw(res.Email))
	conf := entities.AggregateConfidences(res.ConfidenceScores, logger)

	source := modelSource
	if source == "" {
		source = res.Source
	}
	if source == "" {
		source = unknownSource
	}

	return ExtractionRow{
		Filename:         filepath.Base(filename),
		SourceType:       strings.ToLower(filepath.Ext(filename)),
		Names:            strings.Join(names, joinSep),
		NameConfidences:  formatScores(conf[entities.LabelPerson]),
		Emails:           strings.Join(emails, joinSep),
		EmailConfidences: formatScores(conf[entities.LabelEmail]),
		Organizations:    strings.Join(orgs, joinSep),
		OrgConfidences:   formatScores(conf[entities.LabelOrg]),
		ModelSource:      source,
	}
}

// Values returns the row's cells in Columns order.
func (r ExtractionRow) Values() []string {
	return []string{
		r.Filename, r.SourceType,
		r.Names, r.NameConfidences,
		r.Emails, r.EmailConfidences,
		r.Organizations, r.OrgConfidences,
		r.ModelSource,
	}
}

// Record converts the row into an ordered key/value record for the exporter.
func (r ExtractionRow) Record() export.Record {
	vals := r.Values()
	rec := make(export.Record, len(Columns))
	for i, col := range Columns {
		rec[i] = export.Field{Key: col, Value: vals[i]}
	}
	return rec
}

// Records converts rows for the exporter.
func Records(rows []ExtractionRow) []export.Record {
	out := make([]export.Record, len(rows))
	for i, r := range rows {
		out[i] = r.Record()
	}
	return out
}

func formatScores(scores []float64) string {
	parts := make([]string, len(scores))
	for i, s := range scores {
		parts[i] = fmt.Sprintf("%.2f", s)
	}
	return strings.Join(parts, joinSep)
}

// SplitField splits a joined field back into its non-empty tokens.
func SplitField(s string) []string {
	var out []string
	for _, tok := range strings.Split(s, ",") {
		if tok = strings.TrimSpace(tok); tok != "" {
			out = append(out, tok)
		}
	}
	return out
}
