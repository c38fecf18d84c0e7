// Package formula extracts cell and range references from spreadsheet
// formula text.
//
// The extractor is purely lexical: it recognizes A1-style references
// (optionally $-anchored) and colon-joined ranges, without evaluating the
// formula or resolving names. Malformed or empty input is recovered to an
// empty result rather than an error, so callers can feed raw user text
// straight through.
package formula

import (
	"regexp"
	"slices"
	"strings"
)

// Refs holds the references found in one formula. Both slices are
// lexicographically sorted and duplicate-free, and never nil. Range
// endpoints are also included individually in Cells.
type Refs struct {
	Cells  []string `json:"cells"`
	Ranges []string `json:"ranges"`
}

var (
	// rangeRe matches A1:B2-style ranges, with optional $ anchors.
	rangeRe = regexp.MustCompile(`\$?[A-Z]{1,3}\$?[0-9]+:\$?[A-Z]{1,3}\$?[0-9]+`)
	// cellRe matches a single A1-style reference.
	cellRe = regexp.MustCompile(`\b\$?[A-Z]{1,3}\$?[0-9]+\b`)
)

// ExtractCellsAndRanges parses formula text and returns the single-cell
// and range references it contains. For "=SUM(A1:B2) + C3" the cells are
// [A1 B2 C3] and the ranges [A1:B2]. Empty input yields empty (non-nil)
// slices.
func ExtractCellsAndRanges(text string) Refs {
	refs := Refs{Cells: []string{}, Ranges: []string{}}
	if text == "" {
		return refs
	}

	cellSet := make(map[string]struct{})
	rangeSet := make(map[string]struct{})

	remainder := rangeRe.ReplaceAllStringFunc(text, func(rng string) string {
		rangeSet[normalize(rng)] = struct{}{}
		// Endpoints count as cells too.
		from, to, _ := strings.Cut(rng, ":")
		cellSet[normalize(from)] = struct{}{}
		cellSet[normalize(to)] = struct{}{}
		return strings.Repeat(" ", len(rng))
	})

	for _, cell := range cellRe.FindAllString(remainder, -1) {
		cellSet[normalize(cell)] = struct{}{}
	}

	for c := range cellSet {
		refs.Cells = append(refs.Cells, c)
	}
	for r := range rangeSet {
		refs.Ranges = append(refs.Ranges, r)
	}
	slices.Sort(refs.Cells)
	slices.Sort(refs.Ranges)
	return refs
}

// normalize strips $ anchors so A$1 and A1 collapse to one reference.
func normalize(cell string) string {
	return strings.ReplaceAll(cell, "$", "")
}
