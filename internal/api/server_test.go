package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/cellgraph/pkg/graph"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	s := NewServer(Config{})
	t.Cleanup(s.Close)
	return s
}

// uploadGraph posts a sample graph and returns its handle.
func uploadGraph(t *testing.T, s *Server) string {
	t.Helper()
	g := graph.New()
	g.AddEdge("A1", "B2", "ref", nil)
	g.AddEdge("B2", "C3", "calc", nil)
	data, err := graph.MarshalGraph(g)
	if err != nil {
		t.Fatalf("MarshalGraph() error = %v", err)
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/graphs", strings.NewReader(string(data)))
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("POST /graphs status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body)
	}
	var resp struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	if resp.ID == "" {
		t.Fatal("create response has empty id")
	}
	return resp.ID
}

func get(s *Server, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestCreateAndGetGraph(t *testing.T) {
	s := newTestServer(t)
	id := uploadGraph(t, s)

	rec := get(s, "/graphs/"+id)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /graphs/%s status = %d, want 200", id, rec.Code)
	}

	back, err := graph.UnmarshalGraph(rec.Body.Bytes())
	if err != nil {
		t.Fatalf("response is not a graph document: %v", err)
	}
	if !back.HasEdge("A1", "B2") {
		t.Error("returned graph missing edge A1 -> B2")
	}
}

func TestCreateGraphInvalidBody(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/graphs", strings.NewReader("not json")))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	var resp struct {
		Code string `json:"code"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Code != "INVALID_INPUT" {
		t.Errorf("error code = %q, want INVALID_INPUT", resp.Code)
	}
}

func TestGetGraphNotFound(t *testing.T) {
	s := newTestServer(t)

	rec := get(s, "/graphs/no-such-id")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestDeleteGraph(t *testing.T) {
	s := newTestServer(t)
	id := uploadGraph(t, s)

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/graphs/"+id, nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("DELETE status = %d, want 204", rec.Code)
	}

	if rec := get(s, "/graphs/"+id); rec.Code != http.StatusNotFound {
		t.Errorf("GET after delete status = %d, want 404", rec.Code)
	}
}

func TestTraverseEndpoint(t *testing.T) {
	s := newTestServer(t)
	id := uploadGraph(t, s)

	rec := get(s, "/graphs/"+id+"/traverse?start=A1")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
	}
	var resp struct {
		Nodes []string `json:"nodes"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := []string{"A1", "B2", "C3"}
	if len(resp.Nodes) != 3 || resp.Nodes[0] != want[0] || resp.Nodes[1] != want[1] || resp.Nodes[2] != want[2] {
		t.Errorf("nodes = %v, want %v", resp.Nodes, want)
	}
}

func TestTraverseMissingStart(t *testing.T) {
	s := newTestServer(t)
	id := uploadGraph(t, s)

	if rec := get(s, "/graphs/"+id+"/traverse"); rec.Code != http.StatusBadRequest {
		t.Errorf("status without start = %d, want 400", rec.Code)
	}
	if rec := get(s, "/graphs/"+id+"/traverse?start=A1&direction=sideways"); rec.Code != http.StatusBadRequest {
		t.Errorf("status with bad direction = %d, want 400", rec.Code)
	}
}

func TestDependencyEndpoints(t *testing.T) {
	s := newTestServer(t)
	id := uploadGraph(t, s)

	rec := get(s, "/graphs/"+id+"/dependents?start=A1")
	if rec.Code != http.StatusOK {
		t.Fatalf("dependents status = %d, want 200", rec.Code)
	}
	var resp struct {
		Nodes []string `json:"nodes"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if len(resp.Nodes) != 2 {
		t.Errorf("dependents of A1 = %v, want B2 and C3", resp.Nodes)
	}

	rec = get(s, "/graphs/"+id+"/dependencies?start=C3")
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if len(resp.Nodes) != 2 {
		t.Errorf("dependencies of C3 = %v, want B2 and A1", resp.Nodes)
	}
}

func TestTreeEndpoint(t *testing.T) {
	s := newTestServer(t)
	id := uploadGraph(t, s)

	rec := get(s, "/graphs/"+id+"/tree?start=A1")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var tree graph.TreeNode
	if err := json.Unmarshal(rec.Body.Bytes(), &tree); err != nil {
		t.Fatalf("decode tree: %v", err)
	}
	if tree.Node != "A1" || len(tree.Children) != 1 {
		t.Errorf("tree = %+v, want A1 with one child", tree)
	}

	if rec := get(s, "/graphs/"+id+"/tree?start=Z9"); rec.Code != http.StatusNotFound {
		t.Errorf("tree with missing start status = %d, want 404", rec.Code)
	}
}

func TestCycleEndpoint(t *testing.T) {
	s := newTestServer(t)

	g := graph.New()
	g.AddEdge("A", "B", "ref", nil)
	g.AddEdge("B", "A", "ref", nil)
	data, _ := graph.MarshalGraph(g)

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/graphs", strings.NewReader(string(data))))
	var created struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &created)

	rec = get(s, "/graphs/"+created.ID+"/cycle")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp struct {
		Cyclic bool     `json:"cyclic"`
		Cycle  []string `json:"cycle"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if !resp.Cyclic {
		t.Error("cyclic = false, want true")
	}
	if len(resp.Cycle) != 3 {
		t.Errorf("cycle = %v, want closed 3-element path", resp.Cycle)
	}
}

func TestMermaidEndpoint(t *testing.T) {
	s := newTestServer(t)
	id := uploadGraph(t, s)

	rec := get(s, "/graphs/"+id+"/mermaid")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.HasPrefix(rec.Body.String(), "graph TD;") {
		t.Errorf("body = %q, want Mermaid source", rec.Body.String())
	}
}

func TestAnalysisEndpoint(t *testing.T) {
	s := newTestServer(t)
	id := uploadGraph(t, s)

	rec := get(s, "/graphs/"+id+"/analysis")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp struct {
		NodeCount int  `json:"node_count"`
		Cyclic    bool `json:"cyclic"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.NodeCount != 3 || resp.Cyclic {
		t.Errorf("analysis = %+v, want 3 acyclic nodes", resp)
	}
}

func TestFormulaExtractEndpoint(t *testing.T) {
	s := newTestServer(t)

	body := `{"formula": "=SUM(A1:B2) + C3"}`
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/formula/extract", strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
	}
	var resp struct {
		Cells  []string `json:"cells"`
		Ranges []string `json:"ranges"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Cells) != 3 || len(resp.Ranges) != 1 {
		t.Errorf("refs = %+v, want 3 cells and 1 range", resp)
	}
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	if rec := get(s, "/healthz"); rec.Code != http.StatusOK {
		t.Errorf("healthz status = %d, want 200", rec.Code)
	}
}

func TestRegistryExpiry(t *testing.T) {
	r := NewRegistry(20 * time.Millisecond)
	defer r.Stop()

	id := r.Put(graph.New())
	if _, err := r.Get(id); err != nil {
		t.Fatalf("Get() right after Put error = %v", err)
	}

	time.Sleep(50 * time.Millisecond)
	if _, err := r.Get(id); err == nil {
		t.Error("Get() after TTL error = nil, want expiry")
	}
	if r.Len() != 0 {
		t.Errorf("Len() = %d, want 0 after expiry", r.Len())
	}
}

func TestRegistryDelete(t *testing.T) {
	r := NewRegistry(time.Hour)
	defer r.Stop()

	id := r.Put(graph.New())
	r.Delete(id)
	if _, err := r.Get(id); err == nil {
		t.Error("Get() after Delete error = nil, want not found")
	}
	r.Delete("never-existed") // must not panic
}
