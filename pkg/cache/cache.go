// Package cache provides pluggable byte caching for expensive pipeline
// stages (analysis results, rendered artifacts).
//
// Three backends are provided:
//   - FileCache: directory-backed, for CLI usage
//   - RedisCache: shared cache for multi-instance serving
//   - NullCache: disables caching
//
// Keys are produced by a [Keyer] so all call sites agree on key shape, and
// every key embeds a sha256 hash of its inputs to keep keys bounded.
package cache

import (
	"context"
	"time"
)

// Cache TTLs per content class. Analysis of a given serialized graph is
// immutable, but bounded TTLs keep backends from accumulating entries for
// graphs nobody asks about anymore.
const (
	// TTLAnalysis applies to cycle/traversal analysis results.
	TTLAnalysis = 24 * time.Hour
	// TTLArtifact applies to rendered artifacts (mermaid, dot, svg, png).
	TTLArtifact = 7 * 24 * time.Hour
)

// Cache stores opaque byte values with per-entry expiration.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get retrieves the value for key. The second return reports whether
	// the key was present and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A non-positive ttl stores without
	// expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// AnalysisKeyOpts feeds the analysis cache key.
type AnalysisKeyOpts struct {
	// EdgeTypes is the filter the analysis ran under.
	EdgeTypes []string
}

// ArtifactKeyOpts feeds the artifact cache key.
type ArtifactKeyOpts struct {
	// Format is the output format ("mermaid", "dot", "svg", "png").
	Format string
	// Detailed mirrors render.Options.Detailed.
	Detailed bool
}

// Keyer generates cache keys for the pipeline's content classes.
type Keyer interface {
	// AnalysisKey keys a cycle/structure analysis of the graph whose
	// serialized form hashes to graphHash.
	AnalysisKey(graphHash string, opts AnalysisKeyOpts) string

	// ArtifactKey keys a rendered artifact of that graph.
	ArtifactKey(graphHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer is the standard key scheme: "class:sha256(inputs)".
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer { return &DefaultKeyer{} }

// AnalysisKey generates a key for an analysis result.
func (k *DefaultKeyer) AnalysisKey(graphHash string, opts AnalysisKeyOpts) string {
	return hashKey("analysis", graphHash, opts.EdgeTypes)
}

// ArtifactKey generates a key for a rendered artifact.
func (k *DefaultKeyer) ArtifactKey(graphHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", graphHash, opts.Format, opts.Detailed)
}

// ScopedKeyer wraps a Keyer with a prefix for namespace isolation, e.g.
// when several services share one redis instance.
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer that prepends prefix to all keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// AnalysisKey generates a prefixed analysis key.
func (k *ScopedKeyer) AnalysisKey(graphHash string, opts AnalysisKeyOpts) string {
	return k.prefix + k.inner.AnalysisKey(graphHash, opts)
}

// ArtifactKey generates a prefixed artifact key.
func (k *ScopedKeyer) ArtifactKey(graphHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(graphHash, opts)
}
