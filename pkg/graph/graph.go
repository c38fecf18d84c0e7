package graph

import (
	"slices"
)

// Payload stores arbitrary key-value data attached to an edge. It is
// commonly used to carry formula metadata (the referencing expression, a
// sheet name, a weight). Payload maps on stored edges are never nil - they
// are initialized to empty maps when the edge is added.
type Payload map[string]any

// Edge represents a directed, typed connection between two nodes.
// Edge identity is the ordered (From, To) pair: only one edge may exist
// per ordered pair, and re-adding it overwrites Type and Payload.
type Edge struct {
	From    string
	To      string
	Type    string
	Payload Payload
}

type edgeKey struct {
	from string
	to   string
}

// Graph is a typed directed graph for modeling dependency relationships,
// such as spreadsheet cell dependencies. It maintains two adjacency indices
// (outgoing and incoming) that are kept in lockstep by every mutating
// operation, plus an edge table holding type and payload per ordered pair.
//
// Adjacency lists and the node set preserve insertion order, so traversals
// and cycle searches are deterministic for a fixed sequence of mutations.
//
// The zero value is not usable - use New. Graph is not safe for concurrent
// mutation without external synchronization.
type Graph struct {
	nodes    map[string]struct{}
	order    []string            // node IDs in insertion order
	outgoing map[string][]string // nodeID -> neighbor IDs reachable forward
	incoming map[string][]string // nodeID -> neighbor IDs reaching this node
	edges    map[edgeKey]*Edge
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		nodes:    make(map[string]struct{}),
		outgoing: make(map[string][]string),
		incoming: make(map[string][]string),
		edges:    make(map[edgeKey]*Edge),
	}
}

// AddNode inserts a node and reports whether it was newly added.
// Adding an existing node is a no-op returning false.
func (g *Graph) AddNode(id string) bool {
	if _, exists := g.nodes[id]; exists {
		return false
	}
	g.nodes[id] = struct{}{}
	g.order = append(g.order, id)
	return true
}

// HasNode reports whether the node exists in the graph.
func (g *Graph) HasNode(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// RemoveNode deletes the node and every edge touching it in either
// direction, keeping both adjacency indices consistent. Removing a missing
// node is a no-op returning false.
func (g *Graph) RemoveNode(id string) bool {
	if _, exists := g.nodes[id]; !exists {
		return false
	}

	for _, to := range g.outgoing[id] {
		delete(g.edges, edgeKey{from: id, to: to})
		g.incoming[to] = slices.DeleteFunc(g.incoming[to], func(s string) bool { return s == id })
	}
	for _, from := range g.incoming[id] {
		delete(g.edges, edgeKey{from: from, to: id})
		g.outgoing[from] = slices.DeleteFunc(g.outgoing[from], func(s string) bool { return s == id })
	}

	delete(g.outgoing, id)
	delete(g.incoming, id)
	delete(g.nodes, id)
	g.order = slices.DeleteFunc(g.order, func(s string) bool { return s == id })
	return true
}

// AddEdge adds a directed edge from->to with the given type, creating
// either endpoint that does not exist yet. If the edge already exists its
// type and payload are overwritten; no parallel edge is created. A nil
// payload is stored as an empty map.
func (g *Graph) AddEdge(from, to, edgeType string, payload Payload) {
	g.AddNode(from)
	g.AddNode(to)

	if payload == nil {
		payload = Payload{}
	}

	key := edgeKey{from: from, to: to}
	if e, exists := g.edges[key]; exists {
		e.Type = edgeType
		e.Payload = payload
		return
	}

	g.edges[key] = &Edge{From: from, To: to, Type: edgeType, Payload: payload}
	g.outgoing[from] = append(g.outgoing[from], to)
	g.incoming[to] = append(g.incoming[to], from)
}

// RemoveEdge removes the edge from->to and both adjacency references.
// Removing a missing edge is a no-op returning false.
func (g *Graph) RemoveEdge(from, to string) bool {
	key := edgeKey{from: from, to: to}
	if _, exists := g.edges[key]; !exists {
		return false
	}
	delete(g.edges, key)
	g.outgoing[from] = slices.DeleteFunc(g.outgoing[from], func(s string) bool { return s == to })
	g.incoming[to] = slices.DeleteFunc(g.incoming[to], func(s string) bool { return s == from })
	return true
}

// HasEdge reports whether the edge from->to exists.
func (g *Graph) HasEdge(from, to string) bool {
	_, ok := g.edges[edgeKey{from: from, to: to}]
	return ok
}

// Edge returns a copy of the edge from->to and true, or a zero Edge and
// false if no such edge exists.
func (g *Graph) Edge(from, to string) (Edge, bool) {
	e, ok := g.edges[edgeKey{from: from, to: to}]
	if !ok {
		return Edge{}, false
	}
	return *e, true
}

// Nodes returns all node IDs in insertion order.
// The returned slice is a copy and can be modified freely.
func (g *Graph) Nodes() []string {
	return slices.Clone(g.order)
}

// Edges returns copies of all edges. The order is deterministic: source
// nodes in insertion order, then targets in edge-insertion order.
func (g *Graph) Edges() []Edge {
	edges := make([]Edge, 0, len(g.edges))
	for _, from := range g.order {
		for _, to := range g.outgoing[from] {
			if e, ok := g.edges[edgeKey{from: from, to: to}]; ok {
				edges = append(edges, *e)
			}
		}
	}
	return edges
}

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges in the graph.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Outgoing returns the IDs this node has edges to (its dependents, in the
// cell-dependency reading). The returned slice should not be modified.
func (g *Graph) Outgoing(id string) []string { return g.outgoing[id] }

// Incoming returns the IDs that have edges to this node (its dependencies).
// The returned slice should not be modified.
func (g *Graph) Incoming(id string) []string { return g.incoming[id] }

// Sources returns node IDs with no incoming edges, in insertion order.
func (g *Graph) Sources() []string {
	var sources []string
	for _, id := range g.order {
		if len(g.incoming[id]) == 0 {
			sources = append(sources, id)
		}
	}
	return sources
}

// Sinks returns node IDs with no outgoing edges, in insertion order.
func (g *Graph) Sinks() []string {
	var sinks []string
	for _, id := range g.order {
		if len(g.outgoing[id]) == 0 {
			sinks = append(sinks, id)
		}
	}
	return sinks
}

// Clone returns a deep copy of the graph. Edge payloads are copied
// shallowly (one level), so payload values shared between the copies
// should be treated as read-only.
func (g *Graph) Clone() *Graph {
	c := New()
	for _, id := range g.order {
		c.AddNode(id)
	}
	for _, e := range g.Edges() {
		payload := make(Payload, len(e.Payload))
		for k, v := range e.Payload {
			payload[k] = v
		}
		c.AddEdge(e.From, e.To, e.Type, payload)
	}
	return c
}
