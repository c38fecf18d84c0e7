package graph

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// edgeKeySeparator joins the endpoints of an edge-table key ("A->B").
const edgeKeySeparator = "->"

// ErrReservedNodeID is returned by WriteJSON when a node ID contains the
// edge-key separator sequence. Such IDs would produce ambiguous documents,
// so encoding refuses them instead of escaping.
var ErrReservedNodeID = errors.New("node ID contains reserved separator")

// document is the serialized form of a graph: both adjacency indices plus
// the edge table, all as ordered pair sequences.
type document struct {
	Nodes         []adjacencyEntry `json:"nodes"`
	IncomingEdges []adjacencyEntry `json:"incomingEdges"`
	Edges         []edgeEntry      `json:"edges"`
}

// adjacencyEntry serializes as a two-element array: [id, [neighbors...]].
type adjacencyEntry struct {
	ID        string
	Neighbors []string
}

func (e adjacencyEntry) MarshalJSON() ([]byte, error) {
	neighbors := e.Neighbors
	if neighbors == nil {
		neighbors = []string{}
	}
	return json.Marshal([2]any{e.ID, neighbors})
}

func (e *adjacencyEntry) UnmarshalJSON(data []byte) error {
	var raw [2]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if err := json.Unmarshal(raw[0], &e.ID); err != nil {
		return fmt.Errorf("adjacency key: %w", err)
	}
	if raw[1] == nil {
		return nil
	}
	if err := json.Unmarshal(raw[1], &e.Neighbors); err != nil {
		return fmt.Errorf("adjacency neighbors: %w", err)
	}
	return nil
}

// edgeEntry serializes as a two-element array: ["from->to", {to, type, payload}].
type edgeEntry struct {
	Key   string
	Value edgeValue
}

type edgeValue struct {
	To      string  `json:"to"`
	Type    string  `json:"type"`
	Payload Payload `json:"payload,omitempty"`
}

func (e edgeEntry) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode([2]any{e.Key, e.Value}); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func (e *edgeEntry) UnmarshalJSON(data []byte) error {
	var raw [2]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if err := json.Unmarshal(raw[0], &e.Key); err != nil {
		return fmt.Errorf("edge key: %w", err)
	}
	if raw[1] == nil {
		return nil
	}
	if err := json.Unmarshal(raw[1], &e.Value); err != nil {
		return fmt.Errorf("edge value: %w", err)
	}
	return nil
}

// WriteJSON encodes the graph as JSON and writes it to w. The output holds
// three sections: "nodes" (outgoing adjacency), "incomingEdges" (incoming
// adjacency), and "edges" (edge table with types and payloads). Output
// order is deterministic for a fixed mutation history, and the document
// round-trips through [ReadJSON].
//
// Returns ErrReservedNodeID (wrapped) if any node ID contains "->".
func (g *Graph) WriteJSON(w io.Writer) error {
	for _, id := range g.order {
		if strings.Contains(id, edgeKeySeparator) {
			return fmt.Errorf("node %q: %w", id, ErrReservedNodeID)
		}
	}

	doc := document{
		Nodes:         make([]adjacencyEntry, 0, len(g.order)),
		IncomingEdges: make([]adjacencyEntry, 0, len(g.order)),
		Edges:         make([]edgeEntry, 0, len(g.edges)),
	}
	for _, id := range g.order {
		doc.Nodes = append(doc.Nodes, adjacencyEntry{ID: id, Neighbors: g.outgoing[id]})
		doc.IncomingEdges = append(doc.IncomingEdges, adjacencyEntry{ID: id, Neighbors: g.incoming[id]})
	}
	for _, e := range g.Edges() {
		value := edgeValue{To: e.To, Type: e.Type}
		if len(e.Payload) > 0 {
			value.Payload = e.Payload
		}
		doc.Edges = append(doc.Edges, edgeEntry{
			Key:   e.From + edgeKeySeparator + e.To,
			Value: value,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// MarshalGraph encodes the graph to JSON bytes using [Graph.WriteJSON].
// The result is deterministic, which makes it suitable for cache keys.
func MarshalGraph(g *Graph) ([]byte, error) {
	var b strings.Builder
	if err := g.WriteJSON(&b); err != nil {
		return nil, err
	}
	return []byte(b.String()), nil
}

// ReadJSON decodes a serialized graph from r.
//
// Nodes are recreated from the "nodes" section in document order, which
// preserves isolated nodes and insertion ordering. The "edges" section is
// authoritative for edge types and payloads; both adjacency indices are
// rebuilt from it, so a well-formed document reproduces an observably
// equivalent graph. The "incomingEdges" section is derived data and is not
// consulted during reconstruction.
//
// ReadJSON returns an error if the JSON is malformed or an edge key does
// not contain the "from->to" separator. It does not close r.
func ReadJSON(r io.Reader) (*Graph, error) {
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	g := New()
	for _, n := range doc.Nodes {
		g.AddNode(n.ID)
	}
	for _, e := range doc.Edges {
		from, _, ok := strings.Cut(e.Key, edgeKeySeparator)
		if !ok {
			return nil, fmt.Errorf("edge key %q: missing separator", e.Key)
		}
		g.AddEdge(from, e.Value.To, e.Value.Type, e.Value.Payload)
	}
	return g, nil
}

// UnmarshalGraph decodes JSON bytes into a graph using [ReadJSON].
func UnmarshalGraph(data []byte) (*Graph, error) {
	return ReadJSON(bytes.NewReader(data))
}

// ExportJSON writes the graph to a JSON file at path.
// This is a convenience wrapper around [Graph.WriteJSON] for file output.
func ExportJSON(g *Graph, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return g.WriteJSON(f)
}

// ImportJSON reads a JSON file at path and returns the decoded graph.
// Errors wrap the underlying cause with the file path for context.
func ImportJSON(path string) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}
