package report

// BatchSummary is the persisted record of one upload batch.
type BatchSummary struct {
	FilesProcessed  int             `json:"files_processed"`
	NamesExtracted  int             `json:"names_extracted"`
	EmailsExtracted int             `json:"emails_extracted"`
	OrgsExtracted   int             `json:"orgs_extracted"`
	Results         []ExtractionRow `json:"results"`
}

// Summarize totals a batch. uploaded is the number of files submitted,
// including any that were skipped, so FilesProcessed can exceed len(rows).
// Counts add up each row's tokens: an entity found in two files counts twice.
func Summarize(rows []ExtractionRow, uploaded int) BatchSummary {
	s := BatchSummary{
		FilesProcessed: uploaded,
		Results:        make([]ExtractionRow, len(rows)),
	}
	copy(s.Results, rows)
	for _, r := range rows {
		s.NamesExtracted += len(SplitField(r.Names))
		s.EmailsExtracted += len(SplitField(r.Emails))
		s.OrgsExtracted += len(SplitField(r.Organizations))
	}
	return s
}
