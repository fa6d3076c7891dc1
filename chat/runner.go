package chat

import (
	"context"
	"log/slog"
	"time"

	"github.com/Sangwon91/prior/workflow"
)

const restartDelay = 100 * time.Millisecond

// Runner executes a chain-form workflow with lifecycle management: one-shot
// runs, and a supervised loop that restarts the workflow after failures.
type Runner[S, D, O any] struct {
	logger *slog.Logger
}

// NewRunner creates a runner. A nil logger falls back to slog.Default.
func NewRunner[S, D, O any](logger *slog.Logger) *Runner[S, D, O] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner[S, D, O]{logger: logger}
}

// RunOnce executes the workflow to completion a single time.
func (r *Runner[S, D, O]) RunOnce(ctx context.Context, graph *workflow.Graph[S, D, O], start workflow.Node[S, D, O], state S, deps D, opts ...workflow.RunOption) (*workflow.RunResult[S, O], error) {
	return graph.Run(ctx, start, state, deps, opts...)
}

// RunLoop executes the workflow repeatedly, building fresh state for each
// attempt. A failed run is logged and restarted after a short delay; a
// completed run or context cancellation stops the loop.
func (r *Runner[S, D, O]) RunLoop(ctx context.Context, graph *workflow.Graph[S, D, O], start workflow.Node[S, D, O], stateFactory func() S, deps D, opts ...workflow.RunOption) (*workflow.RunResult[S, O], error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		result, err := graph.Run(ctx, start, stateFactory(), deps, opts...)
		if err == nil {
			return result, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		r.logger.WarnContext(ctx, "workflow run failed, restarting",
			slog.String("graph", graph.Name()),
			slog.String("error", err.Error()),
		)

		select {
		case <-time.After(restartDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}
