package graph

import "github.com/charmbracelet/log"

// TreeNode is a node in a rooted dependency tree built by Tree.
// Children is never nil; a leaf has an empty slice.
type TreeNode struct {
	Node     string      `json:"node"`
	Children []*TreeNode `json:"children"`
}

// Tree builds a rooted tree of every node reachable from start via edges
// matching opts (direction and edge types; Strategy is ignored, the build
// is depth-first).
//
// A single visited set is shared across the whole build, so a node
// reachable via multiple paths appears exactly once - under whichever
// path's neighbor enumeration reaches it first - and cycles terminate
// instead of recursing forever.
//
// Returns nil if start is not in the graph; like Traverse, this is a
// recovered condition, logged rather than raised.
func (g *Graph) Tree(start string, opts Options) *TreeNode {
	if !g.HasNode(start) {
		log.Default().Warn("tree start node not found", "node", start)
		return nil
	}

	visited := map[string]bool{start: true}

	var build func(id string) *TreeNode
	build = func(id string) *TreeNode {
		node := &TreeNode{Node: id, Children: []*TreeNode{}}
		for _, child := range g.neighbors(id, opts) {
			if visited[child] {
				continue
			}
			visited[child] = true
			node.Children = append(node.Children, build(child))
		}
		return node
	}

	return build(start)
}

// Walk calls fn for every node in the tree in depth-first pre-order,
// passing the node and its depth (root = 0). Traversal stops early if fn
// returns false.
func (t *TreeNode) Walk(fn func(node *TreeNode, depth int) bool) {
	var walk func(n *TreeNode, depth int) bool
	walk = func(n *TreeNode, depth int) bool {
		if !fn(n, depth) {
			return false
		}
		for _, c := range n.Children {
			if !walk(c, depth+1) {
				return false
			}
		}
		return true
	}
	walk(t, 0)
}

// Size returns the number of nodes in the tree, including the root.
func (t *TreeNode) Size() int {
	n := 0
	t.Walk(func(*TreeNode, int) bool { n++; return true })
	return n
}
