package render

import (
	"strings"
	"testing"

	"github.com/matzehuels/cellgraph/pkg/graph"
)

func sample() *graph.Graph {
	g := graph.New()
	g.AddEdge("A1", "B2", "ref", nil)
	g.AddEdge("B2", "C3", "calc", nil)
	g.AddNode("D4")
	return g
}

func TestToMermaid(t *testing.T) {
	out := ToMermaid(sample())

	if !strings.HasPrefix(out, "graph TD;\n") {
		t.Errorf("ToMermaid() missing header:\n%s", out)
	}
	for _, want := range []string{
		`A1["A1"];`,
		`D4["D4"];`,
		`A1 -- ref --> B2;`,
		`B2 -- calc --> C3;`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("ToMermaid() missing %q:\n%s", want, out)
		}
	}
}

func TestToMermaidDeterministic(t *testing.T) {
	first := ToMermaid(sample())
	for i := 0; i < 5; i++ {
		if again := ToMermaid(sample()); again != first {
			t.Fatal("ToMermaid() output differs between identical graphs")
		}
	}
}

func TestToMermaidEmpty(t *testing.T) {
	if out := ToMermaid(graph.New()); out != "graph TD;\n" {
		t.Errorf("ToMermaid(empty) = %q, want header only", out)
	}
}

func TestToDOT(t *testing.T) {
	out := ToDOT(sample(), Options{})

	if !strings.Contains(out, "digraph") {
		t.Errorf("ToDOT() missing digraph header:\n%s", out)
	}
	if !strings.Contains(out, `"A1" -> "B2"`) {
		t.Errorf("ToDOT() missing edge:\n%s", out)
	}
	if strings.Contains(out, "label=\"ref\"") {
		t.Error("ToDOT() labeled edges without Detailed")
	}
}

func TestToDOTDetailed(t *testing.T) {
	out := ToDOT(sample(), Options{Detailed: true})

	if !strings.Contains(out, `label="ref"`) || !strings.Contains(out, `label="calc"`) {
		t.Errorf("ToDOT(Detailed) missing edge type labels:\n%s", out)
	}
}
