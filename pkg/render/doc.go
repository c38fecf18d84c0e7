// Package render provides visualization output for dependency graphs.
//
// # Overview
//
// Two text formats and two image formats are supported:
//
//   - [ToMermaid]: line-oriented Mermaid flowchart text, suitable for
//     embedding in Markdown
//   - [ToDOT]: Graphviz DOT text for node-link diagrams
//   - [RenderSVG], [RenderPNG]: in-process Graphviz rendering of DOT text
//     via [github.com/goccy/go-graphviz]
//
// # Example
//
//	dot := render.ToDOT(g, render.Options{Detailed: true})
//	svg, err := render.RenderSVG(dot)
//
// Neither text renderer escapes node IDs; callers feeding untrusted IDs
// should validate them first.
package render
