package graph

import (
	"testing"
)

func TestTreeDiamondDeduplicates(t *testing.T) {
	g := New()
	g.AddEdge("A", "B", "ref", nil)
	g.AddEdge("A", "C", "ref", nil)
	g.AddEdge("B", "D", "ref", nil)
	g.AddEdge("C", "D", "ref", nil)

	tree := g.Tree("A", Options{})
	if tree == nil {
		t.Fatal("Tree(A) = nil")
	}
	if tree.Size() != 4 {
		t.Errorf("Size() = %d, want 4 (D appears once)", tree.Size())
	}

	seen := map[string]int{}
	tree.Walk(func(node *TreeNode, depth int) bool {
		seen[node.Node]++
		return true
	})
	if seen["D"] != 1 {
		t.Errorf("D appears %d times, want 1", seen["D"])
	}
	if len(tree.Children) != 2 {
		t.Errorf("root has %d children, want 2", len(tree.Children))
	}
}

func TestTreeCyclicGraph(t *testing.T) {
	g := New()
	g.AddEdge("A", "B", "ref", nil)
	g.AddEdge("B", "A", "ref", nil)

	tree := g.Tree("A", Options{})
	if tree == nil {
		t.Fatal("Tree(A) = nil")
	}
	if tree.Size() != 2 {
		t.Errorf("Size() = %d, want 2 (back edge dropped)", tree.Size())
	}
	if len(tree.Children) != 1 || tree.Children[0].Node != "B" {
		t.Fatalf("tree.Children = %v, want single child B", tree.Children)
	}
	if len(tree.Children[0].Children) != 0 {
		t.Errorf("B has %d children, want 0", len(tree.Children[0].Children))
	}
}

func TestTreeMissingStart(t *testing.T) {
	g := New()
	g.AddNode("A")

	if tree := g.Tree("Z", Options{}); tree != nil {
		t.Errorf("Tree(Z) = %v, want nil for missing start", tree)
	}
}

func TestTreeLeafChildrenNotNil(t *testing.T) {
	g := New()
	g.AddNode("A")

	tree := g.Tree("A", Options{})
	if tree.Children == nil {
		t.Error("leaf Children = nil, want empty slice for stable JSON")
	}
}

func TestTreeWalkPruning(t *testing.T) {
	g := New()
	g.AddEdge("A", "B", "ref", nil)
	g.AddEdge("B", "C", "ref", nil)
	g.AddEdge("A", "D", "ref", nil)

	var visited []string
	g.Tree("A", Options{}).Walk(func(node *TreeNode, depth int) bool {
		visited = append(visited, node.Node)
		return node.Node != "B" // prune below B
	})

	for _, id := range visited {
		if id == "C" {
			t.Errorf("Walk visited C below a pruned node, visited %v", visited)
		}
	}
	if len(visited) != 3 {
		t.Errorf("Walk visited %v, want A, B, D", visited)
	}
}

func TestTreeEdgeTypeFilter(t *testing.T) {
	g := New()
	g.AddEdge("A", "B", "ref", nil)
	g.AddEdge("A", "C", "calc", nil)

	tree := g.Tree("A", Options{EdgeTypes: []string{"ref"}})
	if tree.Size() != 2 {
		t.Errorf("Size() = %d, want 2 with type filter", tree.Size())
	}
}
