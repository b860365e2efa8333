package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tidwall/gjson"
)

var keySynonyms = map[string][]string{
	"person":            {"persons", "people", "names", "person_names"},
	"organization":      {"organizations", "organisations", "orgs", "companies"},
	"email":             {"emails", "email_addresses"},
	"confidence_scores": {"confidences", "scores"},
}

// StripCodeFence removes a surrounding ```json fence some models add even in
// JSON mode.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// NormalizeEntityJSON rewrites model output into the canonical shape:
//   - renames synonym keys (names -> person, orgs -> organization, ...)
//   - wraps a bare string into a one-element list
//   - drops non-string list items
//   - drops unknown top-level keys
//
// Required keys that are absent stay absent so schema validation rejects them.
func NormalizeEntityJSON(raw []byte, logger *slog.Logger) ([]byte, []string, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if !gjson.ValidBytes(raw) {
		return nil, nil, fmt.Errorf("sanitize: invalid json")
	}
	doc := gjson.ParseBytes(raw)
	if !doc.IsObject() {
		return nil, nil, fmt.Errorf("sanitize: top-level value is not an object")
	}

	out := make(map[string]any, 4)
	changes := make([]string, 0, 4)

	for canonical, synonyms := range keySynonyms {
		val := doc.Get(canonical)
		if !val.Exists() {
			for _, syn := range synonyms {
				if v := doc.Get(syn); v.Exists() {
					val = v
					changes = append(changes, syn+"->"+canonical)
					break
				}
			}
		}
		if !val.Exists() {
			continue
		}
		if canonical == "confidence_scores" {
			out[canonical] = confidenceList(val, &changes)
			continue
		}
		out[canonical] = stringList(canonical, val, &changes)
	}

	doc.ForEach(func(key, _ gjson.Result) bool {
		k := key.String()
		if _, ok := keySynonyms[k]; ok {
			return true
		}
		if isSynonym(k) {
			return true
		}
		changes = append(changes, k+"(unknown)")
		return true
	})

	b, err := json.Marshal(out)
	if err != nil {
		return nil, changes, fmt.Errorf("sanitize: encode: %w", err)
	}
	if len(changes) > 0 {
		logger.Warn("llm.extract.normalize_sanitize", "changes", changes)
	}
	return b, changes, nil
}

func stringList(key string, val gjson.Result, changes *[]string) any {
	switch {
	case val.Type == gjson.Null:
		// keep null so the schema rejects it
		return nil
	case val.Type == gjson.String:
		*changes = append(*changes, key+"(wrapped)")
		return []string{val.String()}
	case !val.IsArray():
		return val.Value()
	}
	items := make([]string, 0, len(val.Array()))
	for _, it := range val.Array() {
		if it.Type != gjson.String {
			*changes = append(*changes, key+"(non-string item)")
			continue
		}
		items = append(items, it.String())
	}
	return items
}

// confidenceList keeps entries untouched apart from dropping non-objects;
// malformed confidence values are judged downstream.
func confidenceList(val gjson.Result, changes *[]string) any {
	if !val.IsArray() {
		*changes = append(*changes, "confidence_scores(dropped)")
		return []any{}
	}
	items := make([]any, 0, len(val.Array()))
	for _, it := range val.Array() {
		if !it.IsObject() {
			*changes = append(*changes, "confidence_scores(non-object item)")
			continue
		}
		items = append(items, json.RawMessage(it.Raw))
	}
	return items
}

func isSynonym(k string) bool {
	for _, syns := range keySynonyms {
		for _, s := range syns {
			if s == k {
				return true
			}
		}
	}
	return false
}
