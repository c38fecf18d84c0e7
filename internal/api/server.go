// Package api exposes the graph engine over HTTP.
//
// Clients upload a graph document, receive an opaque handle, and run
// traversals, analyses, and renders against it until the handle
// expires. The server keeps graphs in memory; nothing is persisted.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/cellgraph/pkg/errors"
	"github.com/matzehuels/cellgraph/pkg/formula"
	"github.com/matzehuels/cellgraph/pkg/graph"
	"github.com/matzehuels/cellgraph/pkg/pipeline"
	"github.com/matzehuels/cellgraph/pkg/render"
)

// Config controls server construction.
type Config struct {
	// GraphTTL is how long uploaded graphs stay resident. Zero means
	// DefaultGraphTTL.
	GraphTTL time.Duration

	// Logger receives request-level logs. Nil means the default logger.
	Logger *log.Logger
}

// Server serves the graph HTTP API.
type Server struct {
	registry *Registry
	logger   *log.Logger
	router   chi.Router
}

// NewServer builds a server with its own graph registry.
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		registry: NewRegistry(cfg.GraphTTL),
		logger:   logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Post("/graphs", s.handleCreateGraph)
	r.Route("/graphs/{id}", func(r chi.Router) {
		r.Get("/", s.handleGetGraph)
		r.Delete("/", s.handleDeleteGraph)
		r.Get("/analysis", s.handleAnalysis)
		r.Get("/traverse", s.handleTraverse)
		r.Get("/dependents", s.handleDependents)
		r.Get("/dependencies", s.handleDependencies)
		r.Get("/tree", s.handleTree)
		r.Get("/cycle", s.handleCycle)
		r.Get("/mermaid", s.handleMermaid)
		r.Get("/svg", s.handleSVG)
	})
	r.Post("/formula/extract", s.handleFormulaExtract)
	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close releases server resources.
func (s *Server) Close() {
	s.registry.Stop()
}

// maxGraphBytes caps uploaded graph documents at 16 MiB.
const maxGraphBytes = 16 << 20

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCreateGraph(w http.ResponseWriter, r *http.Request) {
	g, err := graph.ReadJSON(http.MaxBytesReader(w, r.Body, maxGraphBytes))
	if err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid graph document"))
		return
	}
	id := s.registry.Put(g)
	s.logger.Info("graph registered", "id", id, "nodes", g.NodeCount(), "edges", g.EdgeCount())
	s.writeJSON(w, http.StatusCreated, map[string]any{
		"id":        id,
		"nodeCount": g.NodeCount(),
		"edgeCount": g.EdgeCount(),
	})
}

func (s *Server) handleGetGraph(w http.ResponseWriter, r *http.Request) {
	g, ok := s.lookup(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := g.WriteJSON(w); err != nil {
		s.logger.Error("write graph", "error", err)
	}
}

func (s *Server) handleDeleteGraph(w http.ResponseWriter, r *http.Request) {
	s.registry.Delete(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	g, ok := s.lookup(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, pipeline.Analyze(g, r.URL.Query()["type"]))
}

func (s *Server) handleTraverse(w http.ResponseWriter, r *http.Request) {
	g, ok := s.lookup(w, r)
	if !ok {
		return
	}
	start, opts, err := traversalParams(r, true)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"nodes": g.Traverse(start, opts)})
}

func (s *Server) handleDependents(w http.ResponseWriter, r *http.Request) {
	s.neighborhood(w, r, (*graph.Graph).Dependents)
}

func (s *Server) handleDependencies(w http.ResponseWriter, r *http.Request) {
	s.neighborhood(w, r, (*graph.Graph).Dependencies)
}

func (s *Server) neighborhood(w http.ResponseWriter, r *http.Request, fn func(*graph.Graph, string, graph.Options) []string) {
	g, ok := s.lookup(w, r)
	if !ok {
		return
	}
	start, opts, err := traversalParams(r, false)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"nodes": fn(g, start, opts)})
}

func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	g, ok := s.lookup(w, r)
	if !ok {
		return
	}
	start, opts, err := traversalParams(r, true)
	if err != nil {
		s.writeError(w, err)
		return
	}
	tree := g.Tree(start, opts)
	if tree == nil {
		s.writeError(w, errors.New(errors.ErrCodeNodeNotFound, "node not found: %s", start))
		return
	}
	s.writeJSON(w, http.StatusOK, tree)
}

func (s *Server) handleCycle(w http.ResponseWriter, r *http.Request) {
	g, ok := s.lookup(w, r)
	if !ok {
		return
	}
	opts := graph.Options{EdgeTypes: r.URL.Query()["type"]}
	cycle := g.FindCycle(opts)
	s.writeJSON(w, http.StatusOK, map[string]any{
		"cyclic": cycle != nil,
		"cycle":  cycle,
	})
}

func (s *Server) handleMermaid(w http.ResponseWriter, r *http.Request) {
	g, ok := s.lookup(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(render.ToMermaid(g)))
}

func (s *Server) handleSVG(w http.ResponseWriter, r *http.Request) {
	g, ok := s.lookup(w, r)
	if !ok {
		return
	}
	detailed := r.URL.Query().Get("detailed") == "true"
	svg, err := render.RenderSVG(render.ToDOT(g, render.Options{Detailed: detailed}))
	if err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInternal, err, "svg render failed"))
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	_, _ = w.Write(svg)
}

func (s *Server) handleFormulaExtract(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Formula string `json:"formula"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid request body"))
		return
	}
	s.writeJSON(w, http.StatusOK, formula.ExtractCellsAndRanges(req.Formula))
}

// lookup resolves the {id} handle to a graph, writing the error
// response itself on failure.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*graph.Graph, bool) {
	g, err := s.registry.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return nil, false
	}
	return g, true
}

// traversalParams parses the shared query parameters of the traversal
// endpoints. requireStart rejects requests without a start node.
func traversalParams(r *http.Request, requireStart bool) (string, graph.Options, error) {
	q := r.URL.Query()
	start := q.Get("start")
	if requireStart && start == "" {
		return "", graph.Options{}, errors.New(errors.ErrCodeInvalidInput, "missing required query parameter: start")
	}
	if !requireStart && start == "" {
		start = q.Get("node")
	}
	opts := graph.Options{EdgeTypes: q["type"]}
	switch q.Get("direction") {
	case "", "outgoing":
		opts.Direction = graph.DirectionOutgoing
	case "incoming":
		opts.Direction = graph.DirectionIncoming
	default:
		return "", graph.Options{}, errors.New(errors.ErrCodeInvalidOptions, "direction must be outgoing or incoming")
	}
	switch q.Get("strategy") {
	case "", "bfs":
		opts.Strategy = graph.StrategyBFS
	case "dfs":
		opts.Strategy = graph.StrategyDFS
	default:
		return "", graph.Options{}, errors.New(errors.ErrCodeInvalidOptions, "strategy must be bfs or dfs")
	}
	return start, opts, nil
}

// errorResponse is the JSON envelope for API errors.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	status := http.StatusInternalServerError
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidOptions, errors.ErrCodeInvalidNodeID, errors.ErrCodeInvalidFormat:
		status = http.StatusBadRequest
	case errors.ErrCodeNotFound, errors.ErrCodeNodeNotFound, errors.ErrCodeGraphNotFound, errors.ErrCodeFileNotFound:
		status = http.StatusNotFound
	}
	s.writeJSON(w, status, errorResponse{Error: errors.UserMessage(err), Code: string(code)})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", "error", err)
	}
}
