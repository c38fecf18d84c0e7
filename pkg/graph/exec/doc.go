// Package exec runs asynchronous computations over a dependency tree.
//
// # Overview
//
// Execute walks the tree of nodes reachable from a start node (same
// direction and edge-type filtering as graph traversal) and invokes a
// user callback per node, waterfall-style: a node's callback receives its
// parent's settled result, and all of a node's children are launched
// concurrently once the node itself has settled. Concurrency is
// cooperative goroutine fan-out, optionally throttled by a FIFO-fair
// admission cap global to the call.
//
// Invocations are keyed by (node, incoming-edge-type). A node reachable
// via two distinct edge types runs once per type; a second arrival via the
// same type is resolved as a circular reference that reuses the cached
// result, which is also what terminates executions over cyclic graphs.
//
// # Failure policy
//
// Callback failures are policy-driven data, selected by [ErrorStrategy]:
// [FailFast] aborts everything, [Collect] records the error and keeps
// going, [SkipChildren] prunes the failing node's subtree. Cancellation
// via context is distinct from all three and always aborts: it is checked
// before each invocation attempt, in-flight callbacks are never
// interrupted.
//
// # Example
//
//	root, err := exec.Execute(ctx, g, "A1",
//	    func(ctx context.Context, node string, parent any, info exec.Info) (any, error) {
//	        return recompute(node, parent), nil
//	    },
//	    exec.Options{MaxConcurrency: 8})
package exec
