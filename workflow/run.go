package workflow

import (
	"context"
	"iter"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Sangwon91/prior/observability"
)

// RunResult pairs the terminal output of a run with the final state snapshot.
type RunResult[S, O any] struct {
	Output O
	State  S
}

// RunOption configures a GraphRun.
type RunOption func(*runConfig)

type runConfig struct {
	observer observability.Observer
}

// WithObserver routes the run's lifecycle events to the given observer.
// Runs default to NoOpObserver.
func WithObserver(observer observability.Observer) RunOption {
	return func(c *runConfig) { c.observer = observer }
}

// GraphRun is the stateful driver for one run of a chain-form graph. It
// tracks the next step to execute, the run's state, and the terminal result
// once an End step is produced.
//
// A GraphRun is not safe for concurrent use; exactly one node is in flight
// at a time. Independent runs over independent state values may proceed
// concurrently.
type GraphRun[S, D, O any] struct {
	graph    *Graph[S, D, O]
	state    S
	deps     D
	next     Step[S, D, O]
	result   *RunResult[S, O]
	observer observability.Observer
	runID    string
	started  bool
}

func newGraphRun[S, D, O any](g *Graph[S, D, O], startNode Node[S, D, O], state S, deps D, opts ...RunOption) *GraphRun[S, D, O] {
	cfg := runConfig{observer: observability.NoOpObserver{}}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &GraphRun[S, D, O]{
		graph:    g,
		state:    state,
		deps:     deps,
		next:     startNode,
		observer: cfg.observer,
		runID:    uuid.New().String(),
	}
}

// RunID returns the unique identifier of this run.
func (r *GraphRun[S, D, O]) RunID() string {
	return r.runID
}

// State returns the run's current state value.
func (r *GraphRun[S, D, O]) State() S {
	return r.state
}

// Result returns the terminal result, or nil while the run has not reached
// an End step.
func (r *GraphRun[S, D, O]) Result() *RunResult[S, O] {
	return r.result
}

// Next manually drives the run one step. With a nil node it executes the
// internally tracked next step; with an explicit node it first checks that
// the node's type is a member of the bound graph.
//
// The executed node's Run receives a context built from the run's current
// state and deps; state mutations are copied back onto the run. If the node
// returns an End step the run result is recorded. Next returns the step the
// node produced.
//
// Calling Next(nil) after the run has ended returns the End step again
// without executing anything.
func (r *GraphRun[S, D, O]) Next(ctx context.Context, node Node[S, D, O]) (Step[S, D, O], error) {
	if node == nil {
		if IsEnd(r.next) {
			return r.next, nil
		}
		n, ok := r.next.(Node[S, D, O])
		if !ok {
			return nil, ErrIncompleteRun
		}
		node = n
	}

	if !r.graph.Contains(node) {
		return nil, &NotInGraphError{Node: NodeLabel(node), Graph: r.graph.name}
	}

	label := NodeLabel(node)
	rc := &RunContext[S, D]{State: r.state, Deps: r.deps}

	if v, ok := any(node).(Validator[S, D]); ok {
		admitted, err := v.Validate(ctx, rc)
		if err != nil {
			return nil, &NodeError{Node: label, Err: err}
		}
		if !admitted {
			return nil, &NotAdmittedError{Node: label}
		}
	}

	r.emit(ctx, "graph.node.start", slog.LevelDebug, map[string]any{"node": label})

	step, err := node.Run(ctx, rc)
	r.state = rc.State
	if err != nil {
		r.emit(ctx, "graph.node.error", slog.LevelError, map[string]any{
			"node":  label,
			"error": err.Error(),
		})
		return nil, &NodeError{Node: label, Err: err}
	}

	r.next = step
	r.emit(ctx, "graph.node.complete", slog.LevelDebug, map[string]any{
		"node": label,
		"next": NodeLabel(step),
	})

	if output, ok := endOutput[S, D, O](step); ok {
		r.result = &RunResult[S, O]{Output: output, State: r.state}
		r.emit(ctx, "graph.run.complete", slog.LevelInfo, map[string]any{"last": label})
	}

	return step, nil
}

// Steps returns an iterator over the run's step sequence. The first value
// yielded is the starting step itself, before any execution; each subsequent
// value is the result of executing the previous one. Iteration stops after
// an End step is yielded or an error occurs.
func (r *GraphRun[S, D, O]) Steps(ctx context.Context) iter.Seq2[Step[S, D, O], error] {
	return func(yield func(Step[S, D, O], error) bool) {
		if !r.started {
			r.started = true
			r.emit(ctx, "graph.run.start", slog.LevelInfo, map[string]any{
				"start": NodeLabel(r.next),
			})
			if !yield(r.next, nil) {
				return
			}
		}

		for !IsEnd(r.next) {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}

			step, err := r.Next(ctx, nil)
			if !yield(step, err) || err != nil {
				return
			}
		}
	}
}

func (r *GraphRun[S, D, O]) emit(ctx context.Context, eventType observability.EventType, level slog.Level, data map[string]any) {
	data["run_id"] = r.runID
	source := "workflow"
	if r.graph.name != "" {
		source = "workflow." + r.graph.name
	}
	r.observer.OnEvent(ctx, observability.Event{
		Type:      eventType,
		Level:     level,
		Timestamp: time.Now(),
		Source:    source,
		Data:      data,
	})
}

func endOutput[S, D, O any](s Step[S, D, O]) (O, bool) {
	switch e := s.(type) {
	case End[O]:
		return e.Output, true
	case *End[O]:
		return e.Output, true
	}
	var zero O
	return zero, false
}
