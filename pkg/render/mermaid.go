package render

import (
	"bytes"
	"fmt"

	"github.com/matzehuels/cellgraph/pkg/graph"
)

// ToMermaid converts a graph to Mermaid flowchart text.
//
// The output is line-oriented: a header line, one declaration line per
// node, then one line per edge with its type as the link label:
//
//	graph TD;
//	  A1["A1"];
//	  C3["C3"];
//	  A1 -- formula --> C3;
//
// No escaping is performed; node IDs containing Mermaid-reserved
// characters (quotes, brackets) produce output Mermaid may reject.
// Validate IDs at the boundary with errors.ValidateNodeID when the input
// is untrusted.
func ToMermaid(g *graph.Graph) string {
	var buf bytes.Buffer
	buf.WriteString("graph TD;\n")

	for _, id := range g.Nodes() {
		fmt.Fprintf(&buf, "  %s[\"%s\"];\n", id, id)
	}
	for _, e := range g.Edges() {
		fmt.Fprintf(&buf, "  %s -- %s --> %s;\n", e.From, e.Type, e.To)
	}

	return buf.String()
}
