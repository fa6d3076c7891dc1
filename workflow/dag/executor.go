package dag

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Sangwon91/prior/observability"
)

// Executor drives a dependency graph to completion layer by layer. Nodes
// within one layer run concurrently, bounded by MaxParallel; a layer always
// drains before the next starts, so a node's predecessors have reached a
// terminal status by the time it executes.
type Executor struct {
	maxParallel     int // 0 = unbounded
	continueOnError bool
	observer        observability.Observer
}

// Option configures an Executor.
type Option func(*Executor)

// WithMaxParallel bounds the number of nodes in flight at once within a
// layer. Zero or negative means unbounded.
func WithMaxParallel(n int) Option {
	return func(e *Executor) { e.maxParallel = n }
}

// ContinueOnError makes the executor record node failures and keep running
// instead of aborting the run on the first failed node. Dependents of a
// failed node are not guarded; they run and must tolerate a missing upstream
// output.
func ContinueOnError() Option {
	return func(e *Executor) { e.continueOnError = true }
}

// WithObserver routes execution lifecycle events to the given observer.
func WithObserver(observer observability.Observer) Option {
	return func(e *Executor) { e.observer = observer }
}

// NewExecutor creates an executor. By default parallelism is unbounded and
// the first node failure aborts the run.
func NewExecutor(opts ...Option) *Executor {
	e := &Executor{observer: observability.NoOpObserver{}}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute validates the graph, computes its layered execution order, and
// runs every layer. A nil ec starts from a fresh Context. The context is
// returned in all cases so callers can inspect per-node records even when
// the run aborted.
//
// Node failures are always captured in the failing node's record. Unless
// the executor was built with ContinueOnError, the first failure aborts the
// run before later layers execute and is returned as a NodeError.
func (e *Executor) Execute(ctx context.Context, graph *Graph, ec *Context) (*Context, error) {
	if ec == nil {
		ec = NewContext()
	}

	if err := graph.Validate(); err != nil {
		return ec, fmt.Errorf("invalid graph: %w", err)
	}

	layers, err := graph.ExecutionOrder()
	if err != nil {
		return ec, fmt.Errorf("invalid graph: %w", err)
	}

	for _, id := range graph.order {
		ec.setResult(Result{NodeID: id, Status: StatusPending})
	}

	e.emit(ctx, "dag.run.start", slog.LevelInfo, map[string]any{
		"run_id": ec.RunID(),
		"nodes":  graph.Len(),
		"layers": len(layers),
	})

	for i, layer := range layers {
		if err := ctx.Err(); err != nil {
			return ec, err
		}

		if err := e.executeLayer(ctx, graph, layer, ec); err != nil {
			e.emit(ctx, "dag.run.aborted", slog.LevelError, map[string]any{
				"run_id": ec.RunID(),
				"layer":  i,
				"error":  err.Error(),
			})
			return ec, err
		}
	}

	e.emit(ctx, "dag.run.complete", slog.LevelInfo, map[string]any{
		"run_id": ec.RunID(),
	})
	return ec, nil
}

// executeLayer runs one layer: admission checks first (skips recorded,
// Execute never invoked), then all admitted nodes concurrently under the
// parallelism gate.
func (e *Executor) executeLayer(ctx context.Context, graph *Graph, layer []string, ec *Context) error {
	admitted := make([]Node, 0, len(layer))

	for _, id := range layer {
		node, ok := graph.Node(id)
		if !ok {
			continue
		}

		if v, isValidator := node.(Validator); isValidator {
			pass, err := v.Validate(ctx, ec)
			if err != nil {
				ec.setResult(Result{NodeID: id, Status: StatusFailed, Err: err})
				if !e.continueOnError {
					return &NodeError{NodeID: id, Err: err}
				}
				continue
			}
			if !pass {
				ec.setResult(Result{NodeID: id, Status: StatusSkipped})
				e.emit(ctx, "dag.node.skipped", slog.LevelDebug, map[string]any{
					"run_id": ec.RunID(),
					"node":   id,
				})
				continue
			}
		}
		admitted = append(admitted, node)
	}

	if len(admitted) == 0 {
		return nil
	}

	var gate chan struct{}
	if e.maxParallel > 0 {
		gate = make(chan struct{}, e.maxParallel)
	}

	var wg sync.WaitGroup
	for _, node := range admitted {
		wg.Add(1)
		go func(node Node) {
			defer wg.Done()

			if gate != nil {
				gate <- struct{}{}
				defer func() { <-gate }()
			}

			e.executeNode(ctx, node, ec)
		}(node)
	}
	wg.Wait()

	if e.continueOnError {
		return nil
	}

	// Deterministic pick: the first failed node in layer order wins.
	for _, id := range layer {
		if result, ok := ec.Result(id); ok && result.Status == StatusFailed {
			return &NodeError{NodeID: id, Err: result.Err}
		}
	}
	return nil
}

// executeNode runs one node and records its lifecycle transitions. The
// failure record is written regardless of the continue-on-error policy.
func (e *Executor) executeNode(ctx context.Context, node Node, ec *Context) {
	id := node.ID()
	ec.setResult(Result{NodeID: id, Status: StatusRunning})
	e.emit(ctx, "dag.node.start", slog.LevelDebug, map[string]any{
		"run_id": ec.RunID(),
		"node":   id,
	})

	output, err := node.Execute(ctx, ec)
	if err != nil {
		ec.setResult(Result{NodeID: id, Status: StatusFailed, Err: err})
		e.emit(ctx, "dag.node.failed", slog.LevelError, map[string]any{
			"run_id": ec.RunID(),
			"node":   id,
			"error":  err.Error(),
		})
		return
	}

	ec.setResult(Result{NodeID: id, Status: StatusCompleted, Output: output})
	e.emit(ctx, "dag.node.complete", slog.LevelDebug, map[string]any{
		"run_id": ec.RunID(),
		"node":   id,
	})
}

func (e *Executor) emit(ctx context.Context, eventType observability.EventType, level slog.Level, data map[string]any) {
	e.observer.OnEvent(ctx, observability.Event{
		Type:      eventType,
		Level:     level,
		Timestamp: time.Now(),
		Source:    "workflow.dag",
		Data:      data,
	})
}
