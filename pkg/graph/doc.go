// Package graph provides a typed directed graph for modeling dependency
// relationships between spreadsheet cells.
//
// # Overview
//
// Cellgraph tracks which cells feed which formulas. This package provides
// the core data structure: a node set plus two adjacency indices (outgoing
// and incoming) kept in lockstep, and an edge table storing a type tag and
// an optional payload per ordered (from, to) pair. Edge insertion
// auto-creates missing endpoints, and node removal cascades to every edge
// touching the node, so the indices never dangle.
//
// # Basic Usage
//
// Create a graph with [New], then connect cells with [Graph.AddEdge]:
//
//	g := graph.New()
//	g.AddEdge("A1", "C3", "formula", graph.Payload{"expr": "=A1*2"})
//	g.AddEdge("B2", "C3", "formula", nil)
//
// Query reachability with [Graph.Traverse], [Graph.Dependents], and
// [Graph.Dependencies]; all three accept a direction, an edge-type filter,
// and a BFS/DFS strategy via [Options]. [Graph.Tree] builds a rooted,
// deduplicated tree of everything reachable from a cell, and
// [Graph.HasCycle] / [Graph.FindCycle] detect circular references.
//
// # Serialization
//
// [Graph.WriteJSON] and [ReadJSON] round-trip the full store state (node
// set, both adjacency indices, edge table) through a JSON document;
// [ExportJSON] and [ImportJSON] are file-path conveniences.
//
// # Concurrency
//
// Graph performs no internal locking. Mutations are synchronous and
// callers sharing a graph across goroutines must provide their own
// exclusion. The asynchronous execution engine lives in the exec
// subpackage and never mutates the graph.
package graph
