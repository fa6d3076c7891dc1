package dag_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/Sangwon91/prior/workflow/dag"
)

func setNode(id string, key string, value any) dag.Node {
	return dag.NewFuncNode(id, func(ctx context.Context, ec *dag.Context) (any, error) {
		ec.Set(key, value)
		return value, nil
	})
}

func failNode(id string, err error) dag.Node {
	return dag.NewFuncNode(id, func(ctx context.Context, ec *dag.Context) (any, error) {
		return nil, err
	})
}

func TestExecutor_Execute_Diamond(t *testing.T) {
	g := dag.NewGraph()
	var order []string
	var mu sync.Mutex
	record := func(id string) dag.Node {
		return dag.NewFuncNode(id, func(ctx context.Context, ec *dag.Context) (any, error) {
			mu.Lock()
			order = append(order, id)
			mu.Unlock()
			return id, nil
		})
	}

	if err := g.AddNode(record("a")); err != nil {
		t.Fatal(err)
	}
	if err := g.AddNode(record("b"), "a"); err != nil {
		t.Fatal(err)
	}
	if err := g.AddNode(record("c"), "a"); err != nil {
		t.Fatal(err)
	}
	// d checks its predecessors reached a terminal status before it ran.
	if err := g.AddNode(dag.NewFuncNode("d", func(ctx context.Context, ec *dag.Context) (any, error) {
		for _, dep := range []string{"b", "c"} {
			result, ok := ec.Result(dep)
			if !ok || !result.Status.Terminal() {
				return nil, errors.New(dep + " not terminal before d ran")
			}
		}
		mu.Lock()
		order = append(order, "d")
		mu.Unlock()
		return "d", nil
	}), "b", "c"); err != nil {
		t.Fatal(err)
	}

	ec, err := dag.NewExecutor().Execute(context.Background(), g, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(order) != 4 || order[0] != "a" || order[3] != "d" {
		t.Errorf("execution order = %v, want a first and d last", order)
	}
	for _, id := range []string{"a", "b", "c", "d"} {
		result, ok := ec.Result(id)
		if !ok || result.Status != dag.StatusCompleted {
			t.Errorf("node %q status = %v, want completed", id, result.Status)
		}
	}
	if out, ok := ec.Output("d"); !ok || out != "d" {
		t.Errorf("Output(d) = %v, %v; want d, true", out, ok)
	}
}

func TestExecutor_Execute_AbortsOnFailure(t *testing.T) {
	g := dag.NewGraph()
	nodeErr := errors.New("boom")
	downstreamRan := false

	if err := g.AddNode(failNode("a", nodeErr)); err != nil {
		t.Fatal(err)
	}
	if err := g.AddNode(dag.NewFuncNode("b", func(ctx context.Context, ec *dag.Context) (any, error) {
		downstreamRan = true
		return nil, nil
	}), "a"); err != nil {
		t.Fatal(err)
	}

	ec, err := dag.NewExecutor().Execute(context.Background(), g, nil)

	var nodeError *dag.NodeError
	if !errors.As(err, &nodeError) {
		t.Fatalf("expected NodeError, got %v", err)
	}
	if nodeError.NodeID != "a" {
		t.Errorf("NodeError.NodeID = %q, want a", nodeError.NodeID)
	}
	if !errors.Is(err, nodeErr) {
		t.Error("expected wrapped node error to survive unwrapping")
	}
	if downstreamRan {
		t.Error("later layer executed after abort")
	}

	if result, _ := ec.Result("a"); result.Status != dag.StatusFailed {
		t.Errorf("node a status = %v, want failed", result.Status)
	}
	if result, _ := ec.Result("b"); result.Status != dag.StatusPending {
		t.Errorf("node b status = %v, want pending", result.Status)
	}
}

func TestExecutor_Execute_ContinueOnError(t *testing.T) {
	g := dag.NewGraph()
	nodeErr := errors.New("boom")

	if err := g.AddNode(failNode("bad", nodeErr)); err != nil {
		t.Fatal(err)
	}
	if err := g.AddNode(setNode("good", "good_ran", true)); err != nil {
		t.Fatal(err)
	}
	if err := g.AddNode(setNode("after", "after_ran", true), "bad"); err != nil {
		t.Fatal(err)
	}

	ec, err := dag.NewExecutor(dag.ContinueOnError()).Execute(context.Background(), g, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result, _ := ec.Result("bad"); result.Status != dag.StatusFailed || !errors.Is(result.Err, nodeErr) {
		t.Errorf("bad node record = %+v, want failed with original error", result)
	}
	if result, _ := ec.Result("good"); result.Status != dag.StatusCompleted {
		t.Errorf("good node status = %v, want completed", result.Status)
	}
	// Dependents of the failed node still run under the policy.
	if result, _ := ec.Result("after"); result.Status != dag.StatusCompleted {
		t.Errorf("after node status = %v, want completed", result.Status)
	}
}

func TestExecutor_Execute_SkippedNodeNeverExecutes(t *testing.T) {
	g := dag.NewGraph()
	executed := false

	node := dag.NewFuncNode("gated", func(ctx context.Context, ec *dag.Context) (any, error) {
		executed = true
		return nil, nil
	}).WithValidate(func(ctx context.Context, ec *dag.Context) (bool, error) {
		return false, nil
	})
	if err := g.AddNode(node); err != nil {
		t.Fatal(err)
	}

	ec, err := dag.NewExecutor().Execute(context.Background(), g, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if executed {
		t.Error("skipped node was executed")
	}

	result, _ := ec.Result("gated")
	if result.Status != dag.StatusSkipped {
		t.Errorf("status = %v, want skipped", result.Status)
	}
	if _, ok := ec.Output("gated"); ok {
		t.Error("skipped node has an output")
	}
}

func TestExecutor_Execute_ValidateError(t *testing.T) {
	g := dag.NewGraph()
	checkErr := errors.New("admission check broke")

	node := dag.NewFuncNode("gated", func(ctx context.Context, ec *dag.Context) (any, error) {
		return nil, nil
	}).WithValidate(func(ctx context.Context, ec *dag.Context) (bool, error) {
		return false, checkErr
	})
	if err := g.AddNode(node); err != nil {
		t.Fatal(err)
	}

	ec, err := dag.NewExecutor().Execute(context.Background(), g, nil)
	if !errors.Is(err, checkErr) {
		t.Fatalf("expected admission error, got %v", err)
	}
	if result, _ := ec.Result("gated"); result.Status != dag.StatusFailed {
		t.Errorf("status = %v, want failed", result.Status)
	}
}

func TestExecutor_Execute_MaxParallelBound(t *testing.T) {
	const limit = 2

	g := dag.NewGraph()
	var inFlight, peak atomic.Int32
	start := make(chan struct{})

	for _, id := range []string{"w1", "w2", "w3", "w4", "w5"} {
		node := dag.NewFuncNode(id, func(ctx context.Context, ec *dag.Context) (any, error) {
			n := inFlight.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			<-start
			inFlight.Add(-1)
			return nil, nil
		})
		if err := g.AddNode(node); err != nil {
			t.Fatal(err)
		}
	}

	done := make(chan error, 1)
	go func() {
		_, err := dag.NewExecutor(dag.WithMaxParallel(limit)).Execute(context.Background(), g, nil)
		done <- err
	}()

	close(start)
	if err := <-done; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := peak.Load(); got > limit {
		t.Errorf("peak concurrency = %d, want at most %d", got, limit)
	}
}

func TestExecutor_Execute_ReusesProvidedContext(t *testing.T) {
	g := dag.NewGraph()
	if err := g.AddNode(dag.NewFuncNode("reader", func(ctx context.Context, ec *dag.Context) (any, error) {
		v, _ := ec.Get("seed")
		return v, nil
	})); err != nil {
		t.Fatal(err)
	}

	ec := dag.NewContext()
	ec.Set("seed", 42)

	got, err := dag.NewExecutor().Execute(context.Background(), g, ec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != ec {
		t.Error("executor did not run on the provided context")
	}
	if out, _ := ec.Output("reader"); out != 42 {
		t.Errorf("Output(reader) = %v, want 42", out)
	}
}

func TestExecutor_Execute_InvalidGraph(t *testing.T) {
	g := dag.NewGraph()
	if err := g.AddNode(noopNode("a")); err != nil {
		t.Fatal(err)
	}
	if err := g.AddEdge("a", "a"); err != nil {
		t.Fatal(err)
	}

	_, err := dag.NewExecutor().Execute(context.Background(), g, nil)
	var cycleErr *dag.CycleError
	if !errors.As(err, &cycleErr) {
		t.Fatalf("expected CycleError, got %v", err)
	}
}

func TestExecutor_Execute_Cancellation(t *testing.T) {
	g := dag.NewGraph()
	secondRan := false

	ctx, cancel := context.WithCancel(context.Background())
	if err := g.AddNode(dag.NewFuncNode("first", func(ctx context.Context, ec *dag.Context) (any, error) {
		cancel()
		return nil, nil
	})); err != nil {
		t.Fatal(err)
	}
	if err := g.AddNode(dag.NewFuncNode("second", func(ctx context.Context, ec *dag.Context) (any, error) {
		secondRan = true
		return nil, nil
	}), "first"); err != nil {
		t.Fatal(err)
	}

	_, err := dag.NewExecutor().Execute(ctx, g, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if secondRan {
		t.Error("layer executed after cancellation")
	}
}
