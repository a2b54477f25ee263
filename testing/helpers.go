// Package testing provides test utilities and helpers for tristate conditions.
package testing

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/zoobzio/tristate"
)

// WaitFor polls a condition until it returns true or timeout is reached.
// Returns true if the condition was met, false if timeout occurred.
func WaitFor(t *testing.T, timeout time.Duration, condition func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

// WaitForState waits until c reaches the expected state or timeout occurs.
func WaitForState(t *testing.T, c *tristate.Condition, expected tristate.TriState, timeout time.Duration) bool {
	t.Helper()
	return WaitFor(t, timeout, func() bool {
		return c.State() == expected
	})
}

// RequireState fails the test immediately if c is not in the expected state.
func RequireState(t *testing.T, c *tristate.Condition, expected tristate.TriState) {
	t.Helper()
	if got := c.State(); got != expected {
		t.Fatalf("expected %s to be %s, got %s", c.Name(), expected, got)
	}
}

// Collect reads n states from ch, failing the test if they do not arrive
// within timeout.
func Collect(t *testing.T, ch <-chan tristate.TriState, n int, timeout time.Duration) []tristate.TriState {
	t.Helper()
	out := make([]tristate.TriState, 0, n)
	deadline := time.After(timeout)
	for len(out) < n {
		select {
		case s, ok := <-ch:
			if !ok {
				t.Fatalf("stream closed after %d of %d states: %v", len(out), n, out)
			}
			out = append(out, s)
		case <-deadline:
			t.Fatalf("timeout after %d of %d states: %v", len(out), n, out)
		}
	}
	return out
}

// Recorder is a Callback that records the state observed on every
// notification. It is safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	states []tristate.TriState
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// OnConditionChanged implements tristate.Callback.
func (r *Recorder) OnConditionChanged(c *tristate.Condition) {
	s := c.State()
	r.mu.Lock()
	r.states = append(r.states, s)
	r.mu.Unlock()
}

// States returns a copy of the recorded states in delivery order.
func (r *Recorder) States() []tristate.TriState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]tristate.TriState(nil), r.states...)
}

// Count returns the number of notifications received.
func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.states)
}

// Reset discards recorded states.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = nil
}

// Probe is a Monitor that counts Start and Stop calls. Its condition runs
// in sync mode, so counts are exact as soon as AddCallback or
// RemoveCallback returns.
type Probe struct {
	Condition *tristate.Condition

	mu      sync.Mutex
	starts  int
	stops   int
	ctx     context.Context
	onStart func(*tristate.Condition)
}

// NewProbe creates a Probe. onStart, if not nil, runs inside every Start,
// typically to report an initial value.
func NewProbe(onStart func(*tristate.Condition)) *Probe {
	p := &Probe{onStart: onStart}
	p.Condition = tristate.New(p).Named("probe").SyncMode()
	return p
}

// Start implements tristate.Monitor.
func (p *Probe) Start(ctx context.Context, c *tristate.Condition) {
	p.mu.Lock()
	p.starts++
	p.ctx = ctx
	onStart := p.onStart
	p.mu.Unlock()

	if onStart != nil {
		onStart(c)
	}
}

// Stop implements tristate.Monitor.
func (p *Probe) Stop(_ *tristate.Condition) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stops++
}

// Starts returns the number of Start calls.
func (p *Probe) Starts() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.starts
}

// Stops returns the number of Stop calls.
func (p *Probe) Stops() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stops
}

// Context returns the context passed to the most recent Start, or nil.
func (p *Probe) Context() context.Context {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ctx
}

var (
	_ tristate.Callback = (*Recorder)(nil)
	_ tristate.Monitor  = (*Probe)(nil)
)
