package entities

import (
	"slices"

	mapset "github.com/deckarep/golang-set/v2"
)

// Deduplicate normalizes and filters raw spans and returns the unique
// survivors. Matching is exact, so "NASA" and "Nasa" stay distinct.
func Deduplicate(raw []string, label Label) mapset.Set[string] {
	out := mapset.NewThreadUnsafeSet[string]()
	for _, r := range raw {
		n := Normalize(r)
		if IsValid(n, label) {
			out.Add(n)
		}
	}
	return out
}

// UnionRaw collects values into a set without normalizing or filtering.
// Empty strings are dropped.
func UnionRaw(raw []string) mapset.Set[string] {
	out := mapset.NewThreadUnsafeSetWithSize[string](len(raw))
	for _, r := range raw {
		if r != "" {
			out.Add(r)
		}
	}
	return out
}

// Sorted returns the members of s in ascending order.
func Sorted(s mapset.Set[string]) []string {
	items := s.ToSlice()
	slices.Sort(items)
	return items
}
