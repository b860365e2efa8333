package entities

import (
	"log/slog"
	"math"
	"strings"
)

// ConfidenceBucket maps a label to its scores in extraction order.
type ConfidenceBucket map[Label][]float64

// AggregateConfidences groups scores by label. Only labels that actually occur
// get a key. Entries with an unknown label or a non-numeric score are skipped
// with a warning.
func AggregateConfidences(entries []ConfidenceEntry, logger *slog.Logger) ConfidenceBucket {
	if logger == nil {
		logger = slog.Default()
	}
	out := ConfidenceBucket{}
	for i, e := range entries {
		label, ok := parseLabel(e.Label)
		if !ok {
			logger.Warn("entities.confidence.malformed", "index", i, "text", e.Text, "label", e.Label, "reason", "label")
			continue
		}
		score, ok := parseScore(e.Confidence)
		if !ok {
			logger.Warn("entities.confidence.malformed", "index", i, "text", e.Text, "confidence", e.Confidence, "reason", "confidence")
			continue
		}
		out[label] = append(out[label], score)
	}
	return out
}

func parseLabel(v any) (Label, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	l := Label(strings.TrimSpace(s))
	return l, l.Valid()
}

// parseScore accepts JSON numbers only; numeric strings like "0.9" are treated
// as malformed, matching the upstream contract.
func parseScore(v any) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
