package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/cellgraph/pkg/cache"
	"github.com/matzehuels/cellgraph/pkg/graph"
	"github.com/matzehuels/cellgraph/pkg/observability"
	"github.com/matzehuels/cellgraph/pkg/render"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store run results. Multiple goroutines can safely use the same Runner
// with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Keyer: keyer, Logger: logger}
}

// Execute runs the complete load -> analyze -> render pipeline over a
// serialized graph document.
func (r *Runner) Execute(ctx context.Context, data []byte, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	logger := r.logger(opts)

	result := &Result{Artifacts: make(map[string][]byte)}

	// Stage 1: Load
	loadStart := time.Now()
	observability.Pipeline().OnLoadStart(ctx, "document")
	g, err := graph.UnmarshalGraph(data)
	result.Stats.LoadTime = time.Since(loadStart)
	observability.Pipeline().OnLoadComplete(ctx, "document", nodeCount(g), edgeCount(g), result.Stats.LoadTime, err)
	if err != nil {
		return nil, err
	}
	result.Graph = g
	result.GraphHash = cache.Hash(data)

	logger.Info("loaded graph",
		"nodes", g.NodeCount(),
		"edges", g.EdgeCount(),
		"duration", result.Stats.LoadTime)

	// Stage 2: Analyze
	analyzeStart := time.Now()
	analysis, analysisHit, err := r.analyzeWithCache(ctx, g, result.GraphHash, opts)
	result.Stats.AnalyzeTime = time.Since(analyzeStart)
	if err != nil {
		return nil, err
	}
	result.Analysis = analysis
	result.CacheInfo.AnalysisHit = analysisHit

	logger.Info("analyzed graph",
		"cyclic", analysis.Cyclic,
		"cached", analysisHit,
		"duration", result.Stats.AnalyzeTime)

	// Stage 3: Render
	if len(opts.Formats) > 0 {
		renderStart := time.Now()
		artifacts, renderHit, err := r.renderWithCache(ctx, g, result.GraphHash, opts)
		result.Stats.RenderTime = time.Since(renderStart)
		if err != nil {
			return nil, err
		}
		result.Artifacts = artifacts
		result.CacheInfo.RenderHit = renderHit

		logger.Info("rendered outputs",
			"formats", opts.Formats,
			"cached", renderHit,
			"duration", result.Stats.RenderTime)
	}

	return result, nil
}

// Analyze computes the structural analysis of a graph without caching.
func Analyze(g *graph.Graph, edgeTypes []string) Analysis {
	opts := graph.Options{EdgeTypes: edgeTypes}
	analysis := Analysis{
		NodeCount: g.NodeCount(),
		EdgeCount: g.EdgeCount(),
		Sources:   g.Sources(),
		Sinks:     g.Sinks(),
	}
	if cycle := g.FindCycle(opts); cycle != nil {
		analysis.Cyclic = true
		analysis.Cycle = cycle
	}
	return analysis
}

// analyzeWithCache runs Analyze with caching and returns cache hit info.
func (r *Runner) analyzeWithCache(ctx context.Context, g *graph.Graph, graphHash string, opts Options) (Analysis, bool, error) {
	observability.Pipeline().OnAnalyzeStart(ctx, g.NodeCount())
	start := time.Now()

	key := r.Keyer.AnalysisKey(graphHash, cache.AnalysisKeyOpts{EdgeTypes: opts.EdgeTypes})
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			var cached Analysis
			if err := json.Unmarshal(data, &cached); err == nil {
				observability.Cache().OnCacheHit(ctx, "analysis")
				observability.Pipeline().OnAnalyzeComplete(ctx, cached.Cyclic, time.Since(start), nil)
				return cached, true, nil
			}
		}
		observability.Cache().OnCacheMiss(ctx, "analysis")
	}

	analysis := Analyze(g, opts.EdgeTypes)

	if data, err := json.Marshal(analysis); err == nil {
		_ = r.Cache.Set(ctx, key, data, cache.TTLAnalysis)
		observability.Cache().OnCacheSet(ctx, "analysis", len(data))
	}

	observability.Pipeline().OnAnalyzeComplete(ctx, analysis.Cyclic, time.Since(start), nil)
	return analysis, false, nil
}

// renderWithCache renders every requested format, serving from cache when
// every artifact is present and recomputing all of them otherwise.
func (r *Runner) renderWithCache(ctx context.Context, g *graph.Graph, graphHash string, opts Options) (map[string][]byte, bool, error) {
	observability.Pipeline().OnRenderStart(ctx, opts.Formats)
	start := time.Now()

	artifacts := make(map[string][]byte)
	if !opts.Refresh {
		allCached := true
		for _, format := range opts.Formats {
			key := r.Keyer.ArtifactKey(graphHash, cache.ArtifactKeyOpts{Format: format, Detailed: opts.Detailed})
			data, hit, err := r.Cache.Get(ctx, key)
			if err != nil || !hit {
				allCached = false
				break
			}
			artifacts[format] = data
		}
		if allCached && len(artifacts) == len(opts.Formats) {
			observability.Cache().OnCacheHit(ctx, "artifact")
			observability.Pipeline().OnRenderComplete(ctx, opts.Formats, time.Since(start), nil)
			return artifacts, true, nil
		}
		observability.Cache().OnCacheMiss(ctx, "artifact")
	}

	rendered, err := renderFormats(g, opts)
	if err != nil {
		observability.Pipeline().OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
		return nil, false, err
	}

	for format, data := range rendered {
		key := r.Keyer.ArtifactKey(graphHash, cache.ArtifactKeyOpts{Format: format, Detailed: opts.Detailed})
		_ = r.Cache.Set(ctx, key, data, cache.TTLArtifact)
		observability.Cache().OnCacheSet(ctx, "artifact", len(data))
	}

	observability.Pipeline().OnRenderComplete(ctx, opts.Formats, time.Since(start), nil)
	return rendered, false, nil
}

// renderFormats produces every requested artifact. SVG and PNG share one
// DOT conversion.
func renderFormats(g *graph.Graph, opts Options) (map[string][]byte, error) {
	artifacts := make(map[string][]byte, len(opts.Formats))
	renderOpts := render.Options{Detailed: opts.Detailed}

	for _, format := range opts.Formats {
		switch format {
		case FormatMermaid:
			artifacts[format] = []byte(render.ToMermaid(g))
		case FormatDOT:
			artifacts[format] = []byte(render.ToDOT(g, renderOpts))
		case FormatSVG:
			svg, err := render.RenderSVG(render.ToDOT(g, renderOpts))
			if err != nil {
				return nil, err
			}
			artifacts[format] = svg
		case FormatPNG:
			png, err := render.RenderPNG(render.ToDOT(g, renderOpts))
			if err != nil {
				return nil, err
			}
			artifacts[format] = png
		}
	}
	return artifacts, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) logger(opts Options) *log.Logger {
	if opts.Logger != nil {
		return opts.Logger
	}
	return r.Logger
}

func nodeCount(g *graph.Graph) int {
	if g == nil {
		return 0
	}
	return g.NodeCount()
}

func edgeCount(g *graph.Graph) int {
	if g == nil {
		return 0
	}
	return g.EdgeCount()
}
