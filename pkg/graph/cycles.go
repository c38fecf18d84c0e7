package graph

import "slices"

// HasCycle reports whether the graph contains any directed cycle reachable
// through edges matching the filter. Every node is used as a DFS root (in
// insertion order), so disconnected components are all checked. Only
// outgoing edges are followed; Options.Direction is ignored.
//
// Cycle detection runs in O(N+E) time using depth-first search with
// white/gray/black coloring. A back-edge to a gray node signals a cycle.
func (g *Graph) HasCycle(opts Options) bool {
	const (
		white = iota
		gray
		black
	)
	opts.Direction = DirectionOutgoing

	color := make(map[string]int, len(g.nodes))
	var hasCycle bool

	var dfs func(id string)
	dfs = func(id string) {
		color[id] = gray
		for _, child := range g.neighbors(id, opts) {
			switch color[child] {
			case white:
				dfs(child)
				if hasCycle {
					return
				}
			case gray:
				hasCycle = true
				return
			}
		}
		color[id] = black
	}

	for _, id := range g.order {
		if color[id] == white {
			dfs(id)
			if hasCycle {
				return true
			}
		}
	}
	return false
}

// FindCycle returns one directed cycle as a node path, closed by repeating
// the entry node (A->B->A yields [A B A]), or nil if the graph is acyclic
// under the filter. The same coloring DFS as HasCycle is used, with the
// current path threaded through the search; when a back-edge to a gray node
// at path index k is found, the sub-path from k onward is returned.
//
// When several cycles exist, which one is found first depends on node
// insertion order; callers get some valid cycle, not a minimal one.
func (g *Graph) FindCycle(opts Options) []string {
	const (
		white = iota
		gray
		black
	)
	opts.Direction = DirectionOutgoing

	color := make(map[string]int, len(g.nodes))
	var path []string
	var cycle []string

	var dfs func(id string)
	dfs = func(id string) {
		color[id] = gray
		path = append(path, id)
		for _, child := range g.neighbors(id, opts) {
			switch color[child] {
			case white:
				dfs(child)
				if cycle != nil {
					return
				}
			case gray:
				k := slices.Index(path, child)
				cycle = append(slices.Clone(path[k:]), child)
				return
			}
		}
		color[id] = black
		path = path[:len(path)-1]
	}

	for _, id := range g.order {
		if color[id] == white {
			dfs(id)
			if cycle != nil {
				return cycle
			}
		}
	}
	return nil
}
