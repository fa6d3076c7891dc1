package dag

import (
	"sync"

	"github.com/google/uuid"
)

// Context is the shared mutable state of one execution: a key-value store
// node bodies communicate through, plus the per-node lifecycle records the
// executor maintains.
//
// Accessors are safe for concurrent use, but the engine does not serialize
// logical read-modify-write sequences: nodes admitted to run in parallel
// within one layer must use disjoint keys. Last write wins on a shared key.
type Context struct {
	runID string

	mu      sync.RWMutex
	values  map[string]any
	results map[string]Result
}

// NewContext creates an empty execution context with a fresh run ID.
func NewContext() *Context {
	return &Context{
		runID:   uuid.New().String(),
		values:  make(map[string]any),
		results: make(map[string]Result),
	}
}

// RunID returns the unique identifier of this execution.
func (c *Context) RunID() string {
	return c.runID
}

// Get retrieves a value by key. The second return reports existence.
func (c *Context) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	val, ok := c.values[key]
	return val, ok
}

// Set stores a value under key.
func (c *Context) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.values[key] = value
}

// Result returns the lifecycle record of a node, if one was made.
func (c *Context) Result(nodeID string) (Result, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result, ok := c.results[nodeID]
	return result, ok
}

// Results returns a snapshot of all per-node lifecycle records.
func (c *Context) Results() map[string]Result {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snapshot := make(map[string]Result, len(c.results))
	for id, result := range c.results {
		snapshot[id] = result
	}
	return snapshot
}

// Output returns a completed node's recorded output. The second return is
// false when the node has no record or did not complete.
func (c *Context) Output(nodeID string) (any, bool) {
	result, ok := c.Result(nodeID)
	if !ok || result.Status != StatusCompleted {
		return nil, false
	}
	return result.Output, true
}

func (c *Context) setResult(result Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.results[result.NodeID] = result
}
