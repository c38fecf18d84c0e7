package graph

import (
	"slices"

	"github.com/charmbracelet/log"
)

// Direction selects which adjacency index a traversal follows.
type Direction int

const (
	// DirectionOutgoing follows outgoing edges (dependents of a cell).
	DirectionOutgoing Direction = iota
	// DirectionIncoming follows incoming edges (dependencies of a cell).
	DirectionIncoming
)

// Strategy selects the traversal order.
type Strategy int

const (
	// StrategyBFS visits nodes level by level, first discovered first.
	StrategyBFS Strategy = iota
	// StrategyDFS visits the most recently discovered node first.
	StrategyDFS
)

// Options configures traversal, tree building, and cycle detection.
// The zero value follows all outgoing edges breadth-first.
type Options struct {
	// Direction selects the adjacency index to follow.
	// Cycle detection ignores it and always follows outgoing edges.
	Direction Direction

	// EdgeTypes restricts the traversal to edges whose type is a member.
	// Empty means all edges are followed.
	EdgeTypes []string

	// Strategy selects BFS or DFS order. Tree building and cycle
	// detection are depth-first regardless.
	Strategy Strategy
}

// matches reports whether an edge type passes the filter.
func (o Options) matches(edgeType string) bool {
	return len(o.EdgeTypes) == 0 || slices.Contains(o.EdgeTypes, edgeType)
}

// Neighbors returns the adjacency list for id in the configured direction,
// filtered by edge type. The result preserves edge-insertion order. The
// returned slice may alias internal state when no filter is set and should
// not be modified.
func (g *Graph) Neighbors(id string, opts Options) []string {
	return g.neighbors(id, opts)
}

// EdgeBetween resolves the stored edge connecting id and neighbor in the
// given direction: the edge id->neighbor for DirectionOutgoing, or
// neighbor->id for DirectionIncoming.
func (g *Graph) EdgeBetween(id, neighbor string, dir Direction) (Edge, bool) {
	e, ok := g.edgeBetween(id, neighbor, dir)
	if !ok {
		return Edge{}, false
	}
	return *e, true
}

// neighbors returns the adjacency list for id in the configured direction,
// filtered by edge type.
func (g *Graph) neighbors(id string, opts Options) []string {
	var adjacent []string
	if opts.Direction == DirectionIncoming {
		adjacent = g.incoming[id]
	} else {
		adjacent = g.outgoing[id]
	}
	if len(opts.EdgeTypes) == 0 {
		return adjacent
	}

	var result []string
	for _, n := range adjacent {
		e, ok := g.edgeBetween(id, n, opts.Direction)
		if ok && opts.matches(e.Type) {
			result = append(result, n)
		}
	}
	return result
}

// edgeBetween resolves the stored edge connecting id and neighbor in the
// given direction.
func (g *Graph) edgeBetween(id, neighbor string, dir Direction) (*Edge, bool) {
	key := edgeKey{from: id, to: neighbor}
	if dir == DirectionIncoming {
		key = edgeKey{from: neighbor, to: id}
	}
	e, ok := g.edges[key]
	return e, ok
}

// Traverse walks the graph from start and returns every reachable node ID,
// start first, each exactly once at its first dequeue. BFS pops from the
// front of the worklist, DFS from the back.
//
// A missing start node is recovered: Traverse logs a warning and returns
// an empty result instead of failing. This mirrors Tree and is
// intentionally looser than the executor, which treats a missing start as
// an error.
func (g *Graph) Traverse(start string, opts Options) []string {
	if !g.HasNode(start) {
		log.Default().Warn("traverse start node not found", "node", start)
		return nil
	}

	var result []string
	visited := make(map[string]bool)
	pending := []string{start}

	for len(pending) > 0 {
		var id string
		if opts.Strategy == StrategyDFS {
			id = pending[len(pending)-1]
			pending = pending[:len(pending)-1]
		} else {
			id = pending[0]
			pending = pending[1:]
		}
		if visited[id] {
			continue
		}
		visited[id] = true
		result = append(result, id)
		pending = append(pending, g.neighbors(id, opts)...)
	}

	return result
}

// Dependents returns every node reachable from id by following outgoing
// edges, excluding id itself. For cell graphs these are the cells whose
// values are affected by id.
func (g *Graph) Dependents(id string, opts Options) []string {
	opts.Direction = DirectionOutgoing
	return withoutSelf(g.Traverse(id, opts), id)
}

// Dependencies returns every node reachable from id by following incoming
// edges, excluding id itself. For cell graphs these are the cells id
// depends on, directly or transitively.
func (g *Graph) Dependencies(id string, opts Options) []string {
	opts.Direction = DirectionIncoming
	return withoutSelf(g.Traverse(id, opts), id)
}

func withoutSelf(ids []string, self string) []string {
	return slices.DeleteFunc(ids, func(s string) bool { return s == self })
}
