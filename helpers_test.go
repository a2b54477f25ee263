package tristate

import (
	"context"
	"sync"
	"testing"
	"time"
)

// countingMonitor counts Start and Stop calls and optionally runs a
// function inside Start.
type countingMonitor struct {
	mu      sync.Mutex
	starts  int
	stops   int
	ctx     context.Context
	onStart func(ctx context.Context, c *Condition)
}

func (m *countingMonitor) Start(ctx context.Context, c *Condition) {
	m.mu.Lock()
	m.starts++
	m.ctx = ctx
	fn := m.onStart
	m.mu.Unlock()
	if fn != nil {
		fn(ctx, c)
	}
}

func (m *countingMonitor) Stop(_ *Condition) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stops++
}

func (m *countingMonitor) counts() (starts, stops int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.starts, m.stops
}

// newCounted creates a sync-mode condition backed by a countingMonitor.
func newCounted() (*Condition, *countingMonitor) {
	m := &countingMonitor{}
	return New(m).SyncMode(), m
}

// recorder records the state seen on each notification.
type recorder struct {
	mu     sync.Mutex
	states []TriState
}

func (r *recorder) OnConditionChanged(c *Condition) {
	s := c.State()
	r.mu.Lock()
	r.states = append(r.states, s)
	r.mu.Unlock()
}

func (r *recorder) seen() []TriState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]TriState(nil), r.states...)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.states)
}

func assertStates(t *testing.T, got, want []TriState) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

// waitFor polls a condition until it returns true or timeout is reached.
func waitFor(t *testing.T, timeout time.Duration, condition func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}
