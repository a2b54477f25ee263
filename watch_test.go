package tristate

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/zoobzio/clockz"
	"github.com/zoobzio/pipz"
)

// Test identities for watcher tests.
var (
	testInvertID        = pipz.NewIdentity("test:invert", "Test inverting middleware")
	testCountID         = pipz.NewIdentity("test:count", "Test counting effect")
	testErrorObserverID = pipz.NewIdentity("test:error-observer", "Test error observer")
	testFallbackID      = pipz.NewIdentity("test:fallback", "Test fallback evaluator")
)

type switchDoc struct {
	Enabled bool `json:"enabled" yaml:"enabled"`
	Level   int  `json:"level" yaml:"level"`
}

func enabled(_ context.Context, d switchDoc) (bool, error) {
	return d.Enabled, nil
}

// docs returns a closed sync watcher that emits each document once.
func docs(values ...[]byte) Watcher {
	ch := make(chan []byte, len(values))
	for _, v := range values {
		ch <- v
	}
	close(ch)
	return NewSyncChannelWatcher(ch)
}

func TestFromWatcher_Defaults(t *testing.T) {
	c := FromWatcher(docs(), enabled)

	if c.Name() != "watcher" {
		t.Errorf("expected name 'watcher', got %q", c.Name())
	}
	if c.State() != Unset {
		t.Errorf("expected unset, got %s", c.State())
	}
}

func TestFromWatcher_EvaluatesDocuments(t *testing.T) {
	c := FromWatcher(docs(
		[]byte(`{"enabled": true}`),
		[]byte(`{"enabled": true, "level": 2}`),
		[]byte(`{"enabled": false}`),
	), enabled).SyncMode()
	rec := &recorder{}

	c.AddCallback(rec)

	assertStates(t, rec.seen(), []TriState{True, False})
}

func TestFromWatcher_NilClears(t *testing.T) {
	c := FromWatcher(docs([]byte(`{"enabled": true}`), nil), enabled).SyncMode()
	rec := &recorder{}

	c.AddCallback(rec)

	assertStates(t, rec.seen(), []TriState{True, Unset})
}

func TestFromWatcher_YAMLCodec(t *testing.T) {
	c := FromWatcher(docs([]byte("enabled: true\n")), enabled,
		WithCodec[switchDoc](YAMLCodec{}),
	).SyncMode()

	c.AddCallback(&recorder{})

	if !c.IsConditionMet() {
		t.Errorf("expected true, got %s", c.State())
	}
}

func TestFromWatcher_TextCodec(t *testing.T) {
	c := FromWatcher(docs([]byte("on\n"), []byte("off")),
		func(_ context.Context, v bool) (bool, error) { return v, nil },
		WithCodec[bool](TextCodec{}),
	).SyncMode()
	rec := &recorder{}

	c.AddCallback(rec)

	assertStates(t, rec.seen(), []TriState{True, False})
}

func TestFromWatcher_UnmarshalFailureKeepsValue(t *testing.T) {
	m := &mockMetrics{}
	c := FromWatcher(docs([]byte(`{"enabled": true}`), []byte(`{not json}`)), enabled).
		SyncMode().
		Metrics(m)

	c.AddCallback(&recorder{})

	if c.State() != True {
		t.Errorf("expected last value kept, got %s", c.State())
	}
	if c.LastError() == nil {
		t.Error("expected unmarshal error recorded")
	}
	if len(m.failures) != 1 || m.failures[0] != "unmarshal" {
		t.Errorf("expected one unmarshal failure, got %v", m.failures)
	}
}

func TestFromWatcher_ClearOnError(t *testing.T) {
	c := FromWatcher(docs([]byte(`{"enabled": true}`), []byte(`{not json}`)), enabled,
		WithClearOnError[switchDoc](),
	).SyncMode()
	rec := &recorder{}

	c.AddCallback(rec)

	assertStates(t, rec.seen(), []TriState{True, Unset})
}

func TestFromWatcher_PredicateError(t *testing.T) {
	boom := errors.New("predicate failed")
	m := &mockMetrics{}
	c := FromWatcher(docs([]byte(`{"enabled": true}`)),
		func(context.Context, switchDoc) (bool, error) { return false, boom },
	).SyncMode().Metrics(m).ErrorHistorySize(2)

	c.AddCallback(&recorder{})

	if c.State() != Unset {
		t.Errorf("expected unset, got %s", c.State())
	}
	if !errors.Is(c.LastError(), boom) {
		t.Errorf("expected predicate error recorded, got %v", c.LastError())
	}
	if len(m.failures) != 1 || m.failures[0] != "pipeline" {
		t.Errorf("expected one pipeline failure, got %v", m.failures)
	}
	if len(c.ErrorHistory()) != 1 {
		t.Errorf("expected 1 error in history, got %d", len(c.ErrorHistory()))
	}
}

func TestFromWatcher_WatchError(t *testing.T) {
	c := FromWatcher(failingWatcher{err: errors.New("no such key")}, enabled).SyncMode()

	c.AddCallback(&recorder{})

	if c.LastError() == nil {
		t.Error("expected watch error recorded")
	}
}

type failingWatcher struct {
	err error
}

func (w failingWatcher) Watch(_ context.Context) (<-chan []byte, error) {
	return nil, w.err
}

func TestWithRetry_RetriesPredicate(t *testing.T) {
	var attempts int
	c := FromWatcher(docs([]byte(`{"enabled": true}`)),
		func(_ context.Context, d switchDoc) (bool, error) {
			attempts++
			if attempts < 3 {
				return false, errors.New("transient failure")
			}
			return d.Enabled, nil
		},
		WithRetry[switchDoc](3),
	).SyncMode()

	c.AddCallback(&recorder{})

	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
	if !c.IsConditionMet() {
		t.Errorf("expected true after retry, got %s", c.State())
	}
}

func TestWithBackoff_RetriesPredicate(t *testing.T) {
	var attempts int
	c := FromWatcher(docs([]byte(`{"enabled": false}`)),
		func(_ context.Context, d switchDoc) (bool, error) {
			attempts++
			if attempts < 2 {
				return false, errors.New("transient failure")
			}
			return d.Enabled, nil
		},
		WithBackoff[switchDoc](3, time.Millisecond),
	).SyncMode()

	c.AddCallback(&recorder{})

	if attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", attempts)
	}
	if c.State() != False {
		t.Errorf("expected false after backoff, got %s", c.State())
	}
}

func TestWithFallback_UsesFallbackOnFailure(t *testing.T) {
	fallback := pipz.Apply(testFallbackID, func(_ context.Context, r *Reading[switchDoc]) (*Reading[switchDoc], error) {
		r.Met = r.Value.Level > 0
		return r, nil
	})

	c := FromWatcher(docs([]byte(`{"enabled": false, "level": 3}`)),
		func(context.Context, switchDoc) (bool, error) { return false, errors.New("primary failed") },
		WithFallback(fallback),
	).SyncMode()

	c.AddCallback(&recorder{})

	if !c.IsConditionMet() {
		t.Errorf("expected fallback result true, got %s", c.State())
	}
	if c.LastError() != nil {
		t.Errorf("expected no error when fallback succeeds, got %v", c.LastError())
	}
}

func TestWithCircuitBreaker_OpensAfterFailures(t *testing.T) {
	var attempts int
	c := FromWatcher(docs(
		[]byte(`{"enabled": true}`),
		[]byte(`{"enabled": true}`),
		[]byte(`{"enabled": true}`),
	),
		func(context.Context, switchDoc) (bool, error) {
			attempts++
			return false, errors.New("unavailable")
		},
		WithCircuitBreaker[switchDoc](2, time.Hour),
	).SyncMode().ErrorHistorySize(3)

	c.AddCallback(&recorder{})

	if attempts != 2 {
		t.Errorf("expected predicate skipped once the circuit opened, got %d attempts", attempts)
	}
	if len(c.ErrorHistory()) != 3 {
		t.Errorf("expected 3 failures recorded, got %d", len(c.ErrorHistory()))
	}
}

func TestWithTimeout_FailsSlowPredicate(t *testing.T) {
	c := FromWatcher(docs([]byte(`{"enabled": true}`)),
		func(ctx context.Context, _ switchDoc) (bool, error) {
			<-ctx.Done()
			return false, ctx.Err()
		},
		WithTimeout[switchDoc](10*time.Millisecond),
	).SyncMode()

	c.AddCallback(&recorder{})

	if c.LastError() == nil {
		t.Error("expected timeout error recorded")
	}
	if c.State() != Unset {
		t.Errorf("expected unset, got %s", c.State())
	}
}

func TestWithMiddleware_RunsBeforePredicate(t *testing.T) {
	var seen atomic.Int32
	c := FromWatcher(docs([]byte(`{"enabled": true}`)), enabled,
		WithMiddleware(
			pipz.Effect(testCountID, func(_ context.Context, _ *Reading[switchDoc]) error {
				seen.Add(1)
				return nil
			}),
			pipz.Transform(testInvertID, func(_ context.Context, r *Reading[switchDoc]) *Reading[switchDoc] {
				r.Value.Enabled = !r.Value.Enabled
				return r
			}),
		),
	).SyncMode()

	c.AddCallback(&recorder{})

	if seen.Load() != 1 {
		t.Errorf("expected middleware to run once, got %d", seen.Load())
	}
	if c.State() != False {
		t.Errorf("expected inverted value false, got %s", c.State())
	}
}

func TestWithErrorHandler_ObservesErrors(t *testing.T) {
	var observed string
	handler := pipz.Effect(testErrorObserverID, func(_ context.Context, err *pipz.Error[*Reading[switchDoc]]) error {
		observed = err.Err.Error()
		return nil
	})

	c := FromWatcher(docs([]byte(`{"enabled": true}`)),
		func(context.Context, switchDoc) (bool, error) { return false, errors.New("predicate failed") },
		WithErrorHandler[switchDoc](handler),
	).SyncMode()

	c.AddCallback(&recorder{})

	if observed != "predicate failed" {
		t.Errorf("expected observed error 'predicate failed', got %q", observed)
	}
	if c.LastError() == nil {
		t.Error("expected error to still propagate")
	}
}

func TestWithDebounce_CoalescesRapidChanges(t *testing.T) {
	clock := clockz.NewFakeClock()
	ch := make(chan []byte, 10)
	ch <- []byte(`{"enabled": true}`)

	var evaluations atomic.Int32
	c := FromWatcher(NewChannelWatcher(ch),
		func(_ context.Context, d switchDoc) (bool, error) {
			evaluations.Add(1)
			return d.Enabled, nil
		},
		WithDebounce[switchDoc](100*time.Millisecond),
		WithClock[switchDoc](clock),
	)

	sub := c.AddCallback(&recorder{})
	defer c.RemoveCallback(sub)

	// First emission is evaluated immediately.
	if !waitFor(t, time.Second, c.IsConditionMet) {
		t.Fatalf("expected true, got %s", c.State())
	}

	ch <- []byte(`{"enabled": false}`)
	ch <- []byte(`{"enabled": true}`)
	ch <- []byte(`{"enabled": false}`)

	time.Sleep(10 * time.Millisecond)

	if evaluations.Load() != 1 {
		t.Errorf("expected still 1 evaluation (debouncing), got %d", evaluations.Load())
	}

	clock.Advance(150 * time.Millisecond)
	clock.BlockUntilReady()

	if !waitFor(t, time.Second, func() bool { return c.State() == False }) {
		t.Fatalf("expected false after debounce, got %s", c.State())
	}
	if evaluations.Load() != 2 {
		t.Errorf("expected 2 evaluations, got %d", evaluations.Load())
	}
}

func TestWithDebounce_ProcessesPendingOnClose(t *testing.T) {
	clock := clockz.NewFakeClock()
	ch := make(chan []byte, 10)
	ch <- []byte(`{"enabled": true}`)

	c := FromWatcher(NewSyncChannelWatcher(ch), enabled,
		WithDebounce[switchDoc](100*time.Millisecond),
		WithClock[switchDoc](clock),
	)

	sub := c.AddCallback(&recorder{})
	defer c.RemoveCallback(sub)

	if !waitFor(t, time.Second, c.IsConditionMet) {
		t.Fatalf("expected true, got %s", c.State())
	}

	ch <- []byte(`{"enabled": false}`)
	close(ch)

	if !waitFor(t, time.Second, func() bool { return c.State() == False }) {
		t.Errorf("expected pending document evaluated on close, got %s", c.State())
	}
}

func TestFromWatcher_UnsubscribeStopsWatching(t *testing.T) {
	ch := make(chan []byte)
	c := FromWatcher(NewSyncChannelWatcher(ch), enabled)

	sub := c.AddCallback(&recorder{})
	ch <- []byte(`{"enabled": true}`)
	if !waitFor(t, time.Second, c.IsConditionMet) {
		t.Fatalf("expected true, got %s", c.State())
	}

	c.RemoveCallback(sub)

	// A document racing the cancellation must not be applied.
	select {
	case ch <- []byte(`{"enabled": false}`):
	case <-time.After(50 * time.Millisecond):
	}
	time.Sleep(20 * time.Millisecond)

	if c.State() != True {
		t.Errorf("expected last value kept, got %s", c.State())
	}
}
