package exec

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matzehuels/cellgraph/pkg/errors"
	"github.com/matzehuels/cellgraph/pkg/graph"
)

// chain builds A -> B -> C with a single edge type.
func chain() *graph.Graph {
	g := graph.New()
	g.AddEdge("A", "B", "ref", nil)
	g.AddEdge("B", "C", "ref", nil)
	return g
}

// doubling returns a callback seeding the root with 10 and doubling the
// parent result at every level.
func doubling() Callback {
	return func(ctx context.Context, node string, parent any, info Info) (any, error) {
		if parent == nil {
			return 10, nil
		}
		return parent.(int) * 2, nil
	}
}

func TestExecuteWaterfall(t *testing.T) {
	root, err := Execute(context.Background(), chain(), "A", doubling(), Options{})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if root.Result != 10 {
		t.Errorf("A result = %v, want 10", root.Result)
	}
	if len(root.Children) != 1 || root.Children[0].Result != 20 {
		t.Fatalf("B result = %v, want 20", root.Children)
	}
	b := root.Children[0]
	if len(b.Children) != 1 || b.Children[0].Result != 40 {
		t.Fatalf("C result = %v, want 40", b.Children)
	}
}

func TestExecuteInvocationInfo(t *testing.T) {
	var mu sync.Mutex
	infos := map[string]Info{}
	callback := func(ctx context.Context, node string, parent any, info Info) (any, error) {
		mu.Lock()
		infos[node] = info
		mu.Unlock()
		return node, nil
	}

	g := graph.New()
	g.AddEdge("A", "B", "ref", graph.Payload{"weight": 3})

	if _, err := Execute(context.Background(), g, "A", callback, Options{}); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	rootInfo := infos["A"]
	if rootInfo.Depth != 0 || rootInfo.Parent != "" || rootInfo.EdgeType != "" {
		t.Errorf("root info = %+v, want zero position", rootInfo)
	}
	if rootInfo.Path == nil || len(rootInfo.Path) != 0 {
		t.Errorf("root info.Path = %v, want empty non-nil", rootInfo.Path)
	}

	childInfo := infos["B"]
	if childInfo.Depth != 1 {
		t.Errorf("child info.Depth = %d, want 1", childInfo.Depth)
	}
	if childInfo.Parent != "A" || childInfo.EdgeType != "ref" {
		t.Errorf("child info = %+v, want parent A via ref", childInfo)
	}
	if len(childInfo.Path) != 1 || childInfo.Path[0] != "A" {
		t.Errorf("child info.Path = %v, want [A]", childInfo.Path)
	}
	if childInfo.Payload["weight"] != 3 {
		t.Errorf("child info.Payload = %v, want weight 3", childInfo.Payload)
	}
}

func TestExecuteSiblingsConcurrent(t *testing.T) {
	g := graph.New()
	g.AddEdge("A", "B", "ref", nil)
	g.AddEdge("A", "C", "ref", nil)
	g.AddEdge("A", "D", "ref", nil)

	var started atomic.Int32
	allStarted := make(chan struct{})
	callback := func(ctx context.Context, node string, parent any, info Info) (any, error) {
		if info.Depth == 0 {
			return nil, nil
		}
		if started.Add(1) == 3 {
			close(allStarted)
		}
		// Every sibling must be in flight before any may finish.
		select {
		case <-allStarted:
			return nil, nil
		case <-time.After(5 * time.Second):
			return nil, fmt.Errorf("siblings did not run concurrently")
		}
	}

	root, err := Execute(context.Background(), g, "A", callback, Options{})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(root.Children) != 3 {
		t.Errorf("root has %d children, want 3", len(root.Children))
	}
}

func TestExecuteFailFast(t *testing.T) {
	callback := func(ctx context.Context, node string, parent any, info Info) (any, error) {
		if node == "B" {
			return nil, fmt.Errorf("boom")
		}
		return node, nil
	}

	root, err := Execute(context.Background(), chain(), "A", callback, Options{})
	if err == nil {
		t.Fatal("Execute() error = nil, want callback failure")
	}
	if !errors.Is(err, errors.ErrCodeCallback) {
		t.Errorf("error code = %v, want %v", errors.GetCode(err), errors.ErrCodeCallback)
	}
	if root != nil {
		t.Errorf("Execute() tree = %v, want nil on fail-fast", root)
	}
}

func TestExecuteCollect(t *testing.T) {
	var cParent any = "sentinel"
	callback := func(ctx context.Context, node string, parent any, info Info) (any, error) {
		switch node {
		case "B":
			return nil, fmt.Errorf("boom")
		case "C":
			cParent = parent
		}
		return node, nil
	}

	root, err := Execute(context.Background(), chain(), "A", callback, Options{ErrorStrategy: Collect})
	if err != nil {
		t.Fatalf("Execute() error = %v, want nil under collect", err)
	}

	b := root.Children[0]
	if b.Err == nil {
		t.Error("B.Err = nil, want recorded failure")
	}
	if b.Result != nil {
		t.Errorf("B.Result = %v, want nil", b.Result)
	}
	if len(b.Children) != 1 {
		t.Fatalf("B has %d children, want 1 (children still run under collect)", len(b.Children))
	}
	if cParent != nil {
		t.Errorf("C received parent %v, want nil from failed parent", cParent)
	}
}

func TestExecuteSkipChildren(t *testing.T) {
	g := graph.New()
	g.AddEdge("A", "B", "ref", nil)
	g.AddEdge("A", "C", "ref", nil)
	g.AddEdge("B", "D", "ref", nil)

	var invoked sync.Map
	callback := func(ctx context.Context, node string, parent any, info Info) (any, error) {
		invoked.Store(node, true)
		if node == "B" {
			return nil, fmt.Errorf("boom")
		}
		return node, nil
	}

	root, err := Execute(context.Background(), g, "A", callback, Options{ErrorStrategy: SkipChildren})
	if err != nil {
		t.Fatalf("Execute() error = %v, want nil under skip-children", err)
	}

	if _, ok := invoked.Load("D"); ok {
		t.Error("D was invoked, want pruned below failing B")
	}
	if _, ok := invoked.Load("C"); !ok {
		t.Error("C was not invoked, want sibling unaffected")
	}

	for _, child := range root.Children {
		if child.Node == "B" {
			if child.Err == nil {
				t.Error("B.Err = nil, want recorded failure")
			}
			if len(child.Children) != 0 {
				t.Errorf("B has %d children, want 0", len(child.Children))
			}
		}
	}
}

func TestExecuteCircularReference(t *testing.T) {
	g := graph.New()
	g.AddEdge("A", "B", "ref", nil)
	g.AddEdge("B", "A", "ref", nil)

	var invocations atomic.Int32
	callback := func(ctx context.Context, node string, parent any, info Info) (any, error) {
		invocations.Add(1)
		return node, nil
	}

	root, err := Execute(context.Background(), g, "A", callback, Options{})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	// Invocations are keyed by (node, edge type). The root runs under the
	// empty type, so A is invoked again when reached via "ref"; the walk
	// stops at the second arrival at (B, "ref").
	if invocations.Load() != 3 {
		t.Errorf("invocations = %d, want 3", invocations.Load())
	}

	b := root.Children[0]
	if len(b.Children) != 1 {
		t.Fatalf("B has %d children, want re-run A", len(b.Children))
	}
	again := b.Children[0]
	if again.Node != "A" || again.CircularRef {
		t.Fatalf("B child = %+v, want a fresh A invocation", again)
	}
	if len(again.Children) != 1 {
		t.Fatalf("re-run A has %d children, want circular B", len(again.Children))
	}
	back := again.Children[0]
	if !back.CircularRef {
		t.Error("back edge node CircularRef = false, want true")
	}
	if back.Result != "B" {
		t.Errorf("circular node Result = %v, want the settled B result", back.Result)
	}
	if len(back.Children) != 0 {
		t.Errorf("circular node has %d children, want 0", len(back.Children))
	}
}

func TestExecuteEdgeTypeKeying(t *testing.T) {
	// C is reachable via two distinct edge types, so its callback runs
	// once per type.
	g := graph.New()
	g.AddEdge("A", "C", "ref", nil)
	g.AddEdge("A", "B", "ref", nil)
	g.AddEdge("B", "C", "calc", nil)

	var cRuns atomic.Int32
	callback := func(ctx context.Context, node string, parent any, info Info) (any, error) {
		if node == "C" {
			cRuns.Add(1)
		}
		return node, nil
	}

	if _, err := Execute(context.Background(), g, "A", callback, Options{}); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if cRuns.Load() != 2 {
		t.Errorf("C ran %d times, want 2 (once per incoming edge type)", cRuns.Load())
	}
}

func TestExecuteMaxConcurrency(t *testing.T) {
	g := graph.New()
	for _, id := range []string{"B", "C", "D", "E"} {
		g.AddEdge("A", id, "ref", nil)
	}

	var inFlight, peak atomic.Int32
	callback := func(ctx context.Context, node string, parent any, info Info) (any, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		inFlight.Add(-1)
		return nil, nil
	}

	if _, err := Execute(context.Background(), g, "A", callback, Options{MaxConcurrency: 2}); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if peak.Load() > 2 {
		t.Errorf("peak concurrency = %d, want <= 2", peak.Load())
	}
}

func TestExecuteCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	callback := func(ctx context.Context, node string, parent any, info Info) (any, error) {
		if node == "A" {
			cancel() // no new invocations may start after this
		}
		return node, nil
	}

	_, err := Execute(ctx, chain(), "A", callback, Options{ErrorStrategy: Collect})
	if err == nil {
		t.Fatal("Execute() error = nil, want cancellation")
	}
	if !errors.Is(err, errors.ErrCodeCancelled) {
		t.Errorf("error code = %v, want %v (cancellation bypasses the strategy)", errors.GetCode(err), errors.ErrCodeCancelled)
	}
}

func TestExecuteValidation(t *testing.T) {
	g := chain()

	_, err := Execute(context.Background(), g, "A", nil, Options{})
	if !errors.Is(err, errors.ErrCodeInvalidCallback) {
		t.Errorf("nil callback error code = %v, want %v", errors.GetCode(err), errors.ErrCodeInvalidCallback)
	}

	_, err = Execute(context.Background(), g, "Z", doubling(), Options{})
	if !errors.Is(err, errors.ErrCodeNodeNotFound) {
		t.Errorf("missing start error code = %v, want %v", errors.GetCode(err), errors.ErrCodeNodeNotFound)
	}
}

func TestExecuteOnProgress(t *testing.T) {
	var mu sync.Mutex
	settled := map[string]any{}

	opts := Options{
		OnProgress: func(node string, result any) {
			mu.Lock()
			settled[node] = result
			mu.Unlock()
		},
	}

	if _, err := Execute(context.Background(), chain(), "A", doubling(), opts); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if len(settled) != 3 {
		t.Errorf("OnProgress fired for %d nodes, want 3", len(settled))
	}
	if settled["C"] != 40 {
		t.Errorf("OnProgress C result = %v, want 40", settled["C"])
	}
}

func TestNodeMarshalJSON(t *testing.T) {
	root, err := Execute(context.Background(), chain(), "A", doubling(), Options{})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	data, err := root.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON() error = %v", err)
	}
	for _, want := range []string{`"node":"A"`, `"result":10`, `"error":null`, `"isCircularRef":false`, `"children"`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("JSON missing %s:\n%s", want, data)
		}
	}
}
