// Package host models the deterministic execution substrate the
// decision-core components consume: a monotonic logical clock and an
// event-emission channel.
//
// The hosting environment serializes calls per component and runs each
// public operation to completion, so components need no coordination beyond
// their own state guard. The host never interprets component state.
package host

import (
	"sync"

	"github.com/google/uuid"

	"github.com/arkavo-labs/accord/pkg/events"
)

// Clock supplies the current logical (block) timestamp.
type Clock interface {
	Now() uint64
}

// LogicalClock is a manually advanced block clock. The zero value starts at
// block 0.
type LogicalClock struct {
	mu  sync.Mutex
	now uint64
}

// NewLogicalClock creates a clock starting at the given block height.
func NewLogicalClock(start uint64) *LogicalClock {
	return &LogicalClock{now: start}
}

// Now returns the current block height.
func (c *LogicalClock) Now() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Tick advances the clock by one block and returns the new height.
func (c *LogicalClock) Tick() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now++
	return c.now
}

// Env is the per-deployment host environment handed to each component at
// construction. Emission assigns a host-wide strictly increasing sequence.
type Env struct {
	mu    sync.Mutex
	clock Clock
	sink  events.Sink
	seq   uint64
}

// NewEnv creates a host environment. A nil sink discards events; a nil
// clock pins logical time to zero.
func NewEnv(clock Clock, sink events.Sink) *Env {
	return &Env{clock: clock, sink: sink}
}

// Now returns the current logical timestamp.
func (e *Env) Now() uint64 {
	if e.clock == nil {
		return 0
	}
	return e.clock.Now()
}

// Emit wraps the event in an envelope and hands it to the sink. Emission
// failures are swallowed: audit sinks are observers and must not unwind a
// committed state change.
func (e *Env) Emit(ev events.Event) {
	if e.sink == nil {
		return
	}
	e.mu.Lock()
	e.seq++
	env := &events.Envelope{
		ID:       uuid.New().String(),
		Sequence: e.seq,
		Time:     e.Now(),
		Name:     ev.EventName(),
		Event:    ev,
	}
	e.mu.Unlock()
	_ = e.sink.Emit(env)
}
