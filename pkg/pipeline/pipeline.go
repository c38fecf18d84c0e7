// Package pipeline runs the load -> analyze -> render pipeline over
// serialized cell graphs, with caching of the expensive stages.
//
// Both the CLI and the HTTP API drive their work through [Runner] so the
// caching, logging, and hook wiring live in one place.
package pipeline

import (
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/cellgraph/pkg/errors"
	"github.com/matzehuels/cellgraph/pkg/graph"
)

// Output formats accepted in Options.Formats.
const (
	FormatMermaid = "mermaid"
	FormatDOT     = "dot"
	FormatSVG     = "svg"
	FormatPNG     = "png"
)

// validFormats lists every accepted output format.
var validFormats = []string{FormatMermaid, FormatDOT, FormatSVG, FormatPNG}

// Options configures one pipeline run.
type Options struct {
	// Formats selects the artifacts to render. Empty means analysis only.
	Formats []string

	// EdgeTypes filters the cycle analysis. Empty means all edges.
	EdgeTypes []string

	// Detailed adds edge-type labels to DOT-derived artifacts.
	Detailed bool

	// Refresh bypasses the cache for this run.
	Refresh bool

	// Logger overrides the runner's logger for this run.
	Logger *log.Logger
}

// ValidateAndSetDefaults checks the options and normalizes them.
func (o *Options) ValidateAndSetDefaults() error {
	for _, f := range o.Formats {
		if !slices.Contains(validFormats, f) {
			return errors.New(errors.ErrCodeInvalidFormat, "unknown format %q (valid: %v)", f, validFormats)
		}
	}
	return nil
}

// Analysis holds the structural analysis of a graph.
type Analysis struct {
	NodeCount int      `json:"node_count"`
	EdgeCount int      `json:"edge_count"`
	Cyclic    bool     `json:"cyclic"`
	Cycle     []string `json:"cycle,omitempty"`
	Sources   []string `json:"sources,omitempty"`
	Sinks     []string `json:"sinks,omitempty"`
}

// Stats records per-stage timing for one run.
type Stats struct {
	LoadTime    time.Duration
	AnalyzeTime time.Duration
	RenderTime  time.Duration
}

// CacheInfo reports which stages were served from cache.
type CacheInfo struct {
	AnalysisHit bool
	RenderHit   bool
}

// Result is the outcome of a pipeline run.
type Result struct {
	Graph     *graph.Graph
	GraphHash string
	Analysis  Analysis
	Artifacts map[string][]byte
	Stats     Stats
	CacheInfo CacheInfo
}
