package report

// DefaultPreviewLimit is how many entities of each kind the results view shows.
const DefaultPreviewLimit = 10

// Preview is a flattened sample of a batch for display.
type Preview struct {
	Names         []string `json:"names"`
	Emails        []string `json:"emails"`
	Organizations []string `json:"organizations"`
}

// BuildPreview flattens every row's entities in row order and keeps the first
// limit of each kind. Repeats across files are kept, as in the summary counts.
func BuildPreview(s BatchSummary, limit int) Preview {
	if limit <= 0 {
		limit = DefaultPreviewLimit
	}
	p := Preview{Names: []string{}, Emails: []string{}, Organizations: []string{}}
	for _, r := range s.Results {
		p.Names = appendUpTo(p.Names, SplitField(r.Names), limit)
		p.Emails = appendUpTo(p.Emails, SplitField(r.Emails), limit)
		p.Organizations = appendUpTo(p.Organizations, SplitField(r.Organizations), limit)
	}
	return p
}

func appendUpTo(dst, src []string, limit int) []string {
	for _, s := range src {
		if len(dst) >= limit {
			break
		}
		dst = append(dst, s)
	}
	return dst
}
