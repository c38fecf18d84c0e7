package exec

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/matzehuels/cellgraph/pkg/errors"
	"github.com/matzehuels/cellgraph/pkg/graph"
	"github.com/matzehuels/cellgraph/pkg/observability"
)

// Callback is the user computation run once per (node, incoming-edge-type)
// pair. It receives the node ID, the settled result of the parent's
// callback (nil for the root), and the invocation context in info. The
// returned value is passed down to the node's children.
type Callback func(ctx context.Context, node string, parent any, info Info) (any, error)

// Info describes one callback invocation's position in the execution tree.
type Info struct {
	// Depth of the node, root = 0.
	Depth int
	// Path holds the ancestor IDs from the root down to the parent.
	// Empty (not nil) for the root.
	Path []string
	// Parent is the immediate parent ID, "" for the root.
	Parent string
	// EdgeType is the type of the edge used to reach this node, "" for
	// the root.
	EdgeType string
	// Payload is the payload attached to that edge, nil for the root.
	Payload graph.Payload
}

// ErrorStrategy selects how a callback failure affects the execution.
// Cancellation is never subject to the strategy; it always aborts.
type ErrorStrategy int

const (
	// FailFast aborts the whole execution on the first callback failure.
	// Execute returns that failure and no partial tree.
	FailFast ErrorStrategy = iota
	// Collect records the failure on the node (result nil) and keeps
	// going: siblings are unaffected and the failing node's children are
	// still attempted with a nil parent result.
	Collect
	// SkipChildren records the failure on the node and skips its
	// children; siblings proceed normally.
	SkipChildren
)

// Options configures Execute. The zero value runs over all outgoing edges,
// fail-fast, unbounded.
type Options struct {
	// Direction selects the adjacency index to follow.
	Direction graph.Direction

	// EdgeTypes restricts execution to edges whose type is a member.
	// Empty means all edges.
	EdgeTypes []string

	// ErrorStrategy selects the failure policy. Default FailFast.
	ErrorStrategy ErrorStrategy

	// MaxConcurrency caps simultaneously in-flight callback invocations
	// across the whole execution. Admission is FIFO-fair: once the
	// running count drops below the cap, the oldest queued invocation
	// starts. Zero or negative means unbounded.
	MaxConcurrency int64

	// OnProgress, when set, is called right after a node's own callback
	// settles (successfully or with an error), with the node ID and its
	// result. It is not called for circular-reference reuses or skipped
	// children. Calls are serialized; a panic in the hook propagates
	// and fails the execution.
	OnProgress func(node string, result any)
}

// Node is one settled invocation in the execution tree.
type Node struct {
	Node        string
	Result      any
	Err         error
	CircularRef bool
	Children    []*Node
}

// MarshalJSON emits the node with its error flattened to a string.
func (n *Node) MarshalJSON() ([]byte, error) {
	var errMsg *string
	if n.Err != nil {
		s := n.Err.Error()
		errMsg = &s
	}
	return json.Marshal(struct {
		Node        string  `json:"node"`
		Result      any     `json:"result"`
		Error       *string `json:"error"`
		CircularRef bool    `json:"isCircularRef"`
		Children    []*Node `json:"children"`
	}{n.Node, n.Result, errMsg, n.CircularRef, n.Children})
}

// invocationKey identifies one callback invocation. Execution is keyed by
// (node, incoming-edge-type): a node reachable via two distinct edge types
// runs once per type, while a second arrival via the same type reuses the
// first invocation's result as a circular reference.
type invocationKey struct {
	node     string
	edgeType string
}

// invocation tracks one in-flight or settled callback.
// done is closed once result and err are final.
type invocation struct {
	done   chan struct{}
	result any
	err    error
}

// Execute runs callback over the tree of nodes reachable from start,
// waterfall-style: each node's callback receives its parent's settled
// result, and all of a node's matching children are launched concurrently
// once the node itself has settled. The returned tree mirrors the
// invocation structure, including per-node results and errors.
//
// Execute fails immediately with a coded error if start is not in the
// graph or callback is nil. Cancellation of ctx is observed before every
// invocation attempt: in-flight callbacks are not interrupted, but no new
// ones start, and Execute returns a CANCELLED error.
//
// The graph must not be mutated while Execute runs.
func Execute(ctx context.Context, g *graph.Graph, start string, callback Callback, opts Options) (*Node, error) {
	if callback == nil {
		return nil, errors.New(errors.ErrCodeInvalidCallback, "callback must not be nil")
	}
	if !g.HasNode(start) {
		return nil, errors.New(errors.ErrCodeNodeNotFound, "start node %q not found", start)
	}

	execCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	e := &executor{
		graph:    g,
		callback: callback,
		opts:     opts,
		cancel:   cancel,
		seen:     make(map[invocationKey]*invocation),
	}
	if opts.MaxConcurrency > 0 {
		e.sem = semaphore.NewWeighted(opts.MaxConcurrency)
	}

	began := time.Now()
	observability.Executor().OnExecuteStart(ctx, start, opts.MaxConcurrency)
	root, err := e.run(execCtx, start, nil, Info{Path: []string{}})
	observability.Executor().OnExecuteComplete(ctx, start, int(e.settled.Load()), time.Since(began), err)
	if err != nil {
		return nil, err
	}
	return root, nil
}

type executor struct {
	graph    *graph.Graph
	callback Callback
	opts     Options
	cancel   context.CancelFunc
	sem      *semaphore.Weighted

	mu   sync.Mutex // guards seen
	seen map[invocationKey]*invocation

	settled    atomic.Int64
	progressMu sync.Mutex // serializes OnProgress calls
}

// cancelled wraps a context error in the distinct cancellation code that
// bypasses every error strategy.
func cancelled(cause error) error {
	return errors.Wrap(errors.ErrCodeCancelled, cause, "execution cancelled")
}

// run executes the subtree rooted at id. It returns an error only for
// cancellation or, under FailFast, a callback failure; other failures are
// recorded on the returned node per the configured strategy.
func (e *executor) run(ctx context.Context, id string, parentResult any, info Info) (*Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, cancelled(err)
	}

	key := invocationKey{node: id, edgeType: info.EdgeType}
	e.mu.Lock()
	if prior, ok := e.seen[key]; ok {
		e.mu.Unlock()
		return e.reuse(ctx, id, prior)
	}
	inv := &invocation{done: make(chan struct{})}
	e.seen[key] = inv
	e.mu.Unlock()

	result, err := e.invoke(ctx, id, parentResult, info)
	inv.result = result
	inv.err = err
	close(inv.done)
	e.settled.Add(1)
	observability.Executor().OnNodeSettled(ctx, id, err)

	if err != nil {
		if errors.Is(err, errors.ErrCodeCancelled) {
			return nil, err
		}
		if e.opts.ErrorStrategy == FailFast {
			e.cancel() // stop launching elsewhere in the tree
			return nil, errors.Wrap(errors.ErrCodeCallback, err, "node %s", id)
		}
		e.progress(id, nil)
		node := &Node{Node: id, Err: err, Children: []*Node{}}
		if e.opts.ErrorStrategy == SkipChildren {
			return node, nil
		}
		// Collect: children still run, receiving the nil result the
		// failing node produced.
		return e.runChildren(ctx, node, info)
	}

	e.progress(id, result)

	node := &Node{Node: id, Result: result, Children: []*Node{}}
	return e.runChildren(ctx, node, info)
}

// invoke runs the callback itself under the admission queue.
// The semaphore slot covers only the callback, never the wait for the
// subtree, so the cap is global without risking admission deadlock.
func (e *executor) invoke(ctx context.Context, id string, parentResult any, info Info) (any, error) {
	if e.sem != nil {
		if err := e.sem.Acquire(ctx, 1); err != nil {
			return nil, cancelled(err)
		}
		defer e.sem.Release(1)
	}
	if err := ctx.Err(); err != nil {
		return nil, cancelled(err)
	}
	return e.callback(ctx, id, parentResult, info)
}

// reuse resolves a repeat arrival at an already-invoked (node, edge-type)
// pair: wait for the first invocation to settle and mirror its result as a
// circular reference, with no re-invocation and no error.
func (e *executor) reuse(ctx context.Context, id string, prior *invocation) (*Node, error) {
	select {
	case <-prior.done:
	case <-ctx.Done():
		return nil, cancelled(ctx.Err())
	}
	return &Node{
		Node:        id,
		Result:      prior.result,
		CircularRef: true,
		Children:    []*Node{},
	}, nil
}

// runChildren launches every matching child concurrently and waits for all
// of them to settle before returning (allSettled semantics: one child's
// failure never cancels a sibling directly).
func (e *executor) runChildren(ctx context.Context, node *Node, info Info) (*Node, error) {
	traverseOpts := graph.Options{Direction: e.opts.Direction, EdgeTypes: e.opts.EdgeTypes}
	children := e.graph.Neighbors(node.Node, traverseOpts)
	if len(children) == 0 {
		return node, nil
	}

	childPath := append(append([]string{}, info.Path...), node.Node)
	results := make([]*Node, len(children))
	errs := make([]error, len(children))

	var wg sync.WaitGroup
	for i, child := range children {
		edge, _ := e.graph.EdgeBetween(node.Node, child, e.opts.Direction)
		childInfo := Info{
			Depth:    info.Depth + 1,
			Path:     childPath,
			Parent:   node.Node,
			EdgeType: edge.Type,
			Payload:  edge.Payload,
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = e.run(ctx, child, node.Result, childInfo)
		}()
	}
	wg.Wait()

	if err := firstError(errs); err != nil {
		return nil, err
	}
	for _, r := range results {
		node.Children = append(node.Children, r)
	}
	return node, nil
}

// firstError picks the error to propagate from a settled sibling set.
// A real callback failure wins over the cancellations it triggered.
func firstError(errs []error) error {
	var first error
	for _, err := range errs {
		if err == nil {
			continue
		}
		if errors.Is(err, errors.ErrCodeCallback) {
			return err
		}
		if first == nil {
			first = err
		}
	}
	return first
}

// progress invokes the OnProgress hook, serialized across goroutines.
func (e *executor) progress(id string, result any) {
	if e.opts.OnProgress == nil {
		return
	}
	e.progressMu.Lock()
	defer e.progressMu.Unlock()
	e.opts.OnProgress(id, result)
}
