package entities

import (
	"regexp"
	"strings"
	"unicode"
)

var reWhitespace = regexp.MustCompile(`[\s\v\p{Z}]+`)

// Normalize trims surrounding whitespace, strips a trailing run of . , ; :
// and collapses internal whitespace to single spaces. Whitespace caught inside
// the trailing run ("Acme Inc. ,") goes with it, which keeps Normalize idempotent.
func Normalize(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimRightFunc(s, func(r rune) bool {
		return isTrailingPunct(r) || unicode.IsSpace(r)
	})
	return reWhitespace.ReplaceAllString(s, " ")
}

func isTrailingPunct(r rune) bool {
	return r == '.' || r == ',' || r == ';' || r == ':'
}
