package errors

import (
	"strings"
	"unicode"
)

// maxNodeIDLength bounds node identifiers accepted at API boundaries.
const maxNodeIDLength = 256

// ValidateNodeID validates a node identifier arriving from an external
// surface (CLI argument, HTTP request). The graph core accepts any string;
// this gate exists so serialized documents and rendered diagrams stay
// unambiguous.
//
// The rules are intentionally conservative:
//   - No empty IDs
//   - No control characters
//   - No "->" (reserved as the edge-table key separator)
//   - Maximum length of 256 characters
func ValidateNodeID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidNodeID, "node ID cannot be empty")
	}

	if len(id) > maxNodeIDLength {
		return New(ErrCodeInvalidNodeID, "node ID too long (max %d characters)", maxNodeIDLength)
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidNodeID, "node ID contains control characters")
		}
	}

	if strings.Contains(id, "->") {
		return New(ErrCodeInvalidNodeID, "node ID contains reserved sequence %q", "->")
	}

	return nil
}

// ValidateEdgeType validates an edge type tag from an external surface.
// Empty is allowed (untyped edge); control characters are not.
func ValidateEdgeType(edgeType string) error {
	for _, r := range edgeType {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "edge type contains control characters")
		}
	}
	return nil
}
