package graph

import (
	"slices"
	"testing"
)

func TestHasCycle(t *testing.T) {
	tests := []struct {
		name  string
		edges [][3]string // from, to, type
		opts  Options
		want  bool
	}{
		{
			name: "acyclic chain",
			edges: [][3]string{
				{"A", "B", "ref"}, {"B", "C", "ref"},
			},
			want: false,
		},
		{
			name: "two cycle",
			edges: [][3]string{
				{"A", "B", "ref"}, {"B", "A", "ref"},
			},
			want: true,
		},
		{
			name: "self loop",
			edges: [][3]string{
				{"A", "A", "ref"},
			},
			want: true,
		},
		{
			name: "diamond is acyclic",
			edges: [][3]string{
				{"A", "B", "ref"}, {"A", "C", "ref"}, {"B", "D", "ref"}, {"C", "D", "ref"},
			},
			want: false,
		},
		{
			name: "cycle broken by type filter",
			edges: [][3]string{
				{"A", "B", "ref"}, {"B", "A", "calc"},
			},
			opts: Options{EdgeTypes: []string{"ref"}},
			want: false,
		},
		{
			name: "cycle within type filter",
			edges: [][3]string{
				{"A", "B", "ref"}, {"B", "A", "ref"}, {"B", "C", "calc"},
			},
			opts: Options{EdgeTypes: []string{"ref"}},
			want: true,
		},
		{
			name: "cycle off the main component",
			edges: [][3]string{
				{"A", "B", "ref"}, {"X", "Y", "ref"}, {"Y", "X", "ref"},
			},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New()
			for _, e := range tt.edges {
				g.AddEdge(e[0], e[1], e[2], nil)
			}
			if got := g.HasCycle(tt.opts); got != tt.want {
				t.Errorf("HasCycle() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFindCycle(t *testing.T) {
	g := New()
	g.AddEdge("A", "B", "ref", nil)
	g.AddEdge("B", "A", "ref", nil)

	want := []string{"A", "B", "A"}
	if got := g.FindCycle(Options{}); !slices.Equal(got, want) {
		t.Errorf("FindCycle() = %v, want %v", got, want)
	}
}

func TestFindCycleSelfLoop(t *testing.T) {
	g := New()
	g.AddEdge("A", "A", "ref", nil)

	want := []string{"A", "A"}
	if got := g.FindCycle(Options{}); !slices.Equal(got, want) {
		t.Errorf("FindCycle() = %v, want %v", got, want)
	}
}

func TestFindCycleAcyclic(t *testing.T) {
	g := New()
	g.AddEdge("A", "B", "ref", nil)
	g.AddEdge("B", "C", "ref", nil)

	if got := g.FindCycle(Options{}); got != nil {
		t.Errorf("FindCycle() = %v, want nil for acyclic graph", got)
	}
}

func TestFindCycleDeepEntry(t *testing.T) {
	// The cycle starts below the DFS root; the returned path must cover
	// only the cycle itself, not the lead-in.
	g := New()
	g.AddEdge("A", "B", "ref", nil)
	g.AddEdge("B", "C", "ref", nil)
	g.AddEdge("C", "B", "ref", nil)

	want := []string{"B", "C", "B"}
	if got := g.FindCycle(Options{}); !slices.Equal(got, want) {
		t.Errorf("FindCycle() = %v, want %v", got, want)
	}
}

func TestFindCycleTypeFilter(t *testing.T) {
	g := New()
	g.AddEdge("A", "B", "ref", nil)
	g.AddEdge("B", "A", "calc", nil)

	if got := g.FindCycle(Options{EdgeTypes: []string{"ref"}}); got != nil {
		t.Errorf("FindCycle(ref) = %v, want nil when the filter breaks the cycle", got)
	}
}
