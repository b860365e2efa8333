package entities

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	mapset "github.com/deckarep/golang-set/v2"
)

const (
	minEntityLen = 3
	maxEntityLen = 100
)

var reSymbolsOnly = regexp.MustCompile(`^[\W\d\s]+$`)

// noiseWords are single tokens the NER models routinely mislabel as entities
// (CV headings, grading scales, bullets).
var noiseWords = mapset.NewThreadUnsafeSet(
	"and", "or", "of", "the", "in", "on", "to", "with",
	"a", "an", "ba", "as", "•", "gpa", "scale", "-",
)

// IsValid reports whether a normalized entity should be kept. The label is
// accepted so per-type rules can be added, but every label is currently
// filtered the same way.
func IsValid(entity string, _ Label) bool {
	if !hasLetter(entity) || reSymbolsOnly.MatchString(entity) {
		return false
	}
	if !strings.Contains(entity, " ") && noiseWords.Contains(strings.ToLower(entity)) {
		return false
	}
	n := utf8.RuneCountInString(entity)
	return n >= minEntityLen && n <= maxEntityLen
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
