package tristate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/zoobzio/capitan"
)

// ErrCallbackPanic wraps the value recovered from a panicking Callback.
var ErrCallbackPanic = errors.New("callback panicked")

// Monitor supplies the monitoring logic of a Condition.
//
// Start runs on the condition's Scheduler when the first subscriber is
// added and reports values through UpdateCondition and ClearCondition.
// ctx is cancelled when the last subscriber is removed; a long-running
// Start must return once that happens. Stop is called before ctx is
// cancelled and releases anything Start acquired outside of ctx.
type Monitor interface {
	Start(ctx context.Context, c *Condition)
	Stop(c *Condition)
}

// MonitorFunc adapts a function to Monitor. Its Stop is a no-op; the
// function observes ctx to know when monitoring ends.
type MonitorFunc func(ctx context.Context, c *Condition)

// Start calls f(ctx, c).
func (f MonitorFunc) Start(ctx context.Context, c *Condition) {
	f(ctx, c)
}

// Stop does nothing.
func (MonitorFunc) Stop(_ *Condition) {}

// Condition is an observable tri-state value whose monitoring lifecycle is
// tied to its subscriber count. Monitoring starts when the first Callback is
// added and stops when the last one is removed; every such cycle runs
// exactly one Start/Stop pair of the Monitor.
//
// A Condition is safe for concurrent use. Callbacks are invoked outside of
// internal locks and may add or remove callbacks re-entrantly.
type Condition struct {
	name       string
	monitor    Monitor
	scheduler  Scheduler
	overriding bool
	strategy   StartStrategy
	metrics    MetricsProvider

	lastError    atomic.Pointer[error]
	errorHistory *errorHistory

	mu        sync.Mutex
	state     TriState
	started   bool
	cycle     uint64
	cycles    uint64
	cancel    context.CancelFunc
	callbacks registry
}

// cycleKey tags the context of a monitoring cycle with its number.
type cycleKey struct{}

// New creates a Condition driven by monitor.
//
// Instance configuration uses chainable methods, which must be called
// before the first AddCallback.
//
// Example:
//
//	docked := tristate.New(tristate.MonitorFunc(func(ctx context.Context, c *tristate.Condition) {
//	    for {
//	        select {
//	        case <-ctx.Done():
//	            return
//	        case v := <-dockEvents:
//	            c.UpdateCondition(v)
//	        }
//	    }
//	})).Named("docked").Strategy(tristate.StartLazily)
func New(monitor Monitor) *Condition {
	if monitor == nil {
		monitor = MonitorFunc(func(context.Context, *Condition) {})
	}
	return &Condition{
		name:      "condition",
		monitor:   monitor,
		scheduler: GoScheduler{},
		strategy:  StartEagerly,
	}
}

// Manual creates a Condition without monitoring logic. The owner reports
// values directly with UpdateCondition and ClearCondition.
func Manual() *Condition {
	return New(nil).SyncMode()
}

// -----------------------------------------------------------------------------
// Chainable Instance Configuration
// -----------------------------------------------------------------------------

// Named sets the name used in signals and metrics.
// Default: "condition". Must be called before AddCallback.
func (c *Condition) Named(name string) *Condition {
	c.name = name
	return c
}

// Overriding marks the condition as able to short-circuit a combinator:
// while its state is set, it alone decides the combined result.
// Must be called before the condition is combined.
func (c *Condition) Overriding() *Condition {
	c.overriding = true
	return c
}

// Strategy sets the start strategy hint.
// Default: StartEagerly. Must be called before AddCallback.
func (c *Condition) Strategy(s StartStrategy) *Condition {
	c.strategy = s
	return c
}

// Scheduler sets the scheduler on which the monitor's Start runs.
// Default: GoScheduler. Must be called before AddCallback.
func (c *Condition) Scheduler(s Scheduler) *Condition {
	c.scheduler = s
	return c
}

// SyncMode runs the monitor inline on the subscribing goroutine.
// Shorthand for Scheduler(SyncScheduler{}).
func (c *Condition) SyncMode() *Condition {
	c.scheduler = SyncScheduler{}
	return c
}

// Metrics sets a metrics provider for observability integration.
// Must be called before AddCallback.
func (c *Condition) Metrics(provider MetricsProvider) *Condition {
	c.metrics = provider
	return c
}

// ErrorHistorySize sets the number of recent errors to retain.
// Use 0 (default) to only retain the most recent error via LastError().
// Must be called before AddCallback.
func (c *Condition) ErrorHistorySize(n int) *Condition {
	c.errorHistory = newErrorHistory(n)
	return c
}

// -----------------------------------------------------------------------------
// Accessors
// -----------------------------------------------------------------------------

// Name returns the condition name.
func (c *Condition) Name() string {
	return c.name
}

// IsOverriding reports whether the condition short-circuits combinators.
func (c *Condition) IsOverriding() bool {
	return c.overriding
}

// StartStrategy returns the start strategy hint.
func (c *Condition) StartStrategy() StartStrategy {
	return c.strategy
}

// State returns the current state.
func (c *Condition) State() TriState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// IsConditionMet reports whether the state is exactly True.
func (c *Condition) IsConditionMet() bool {
	return c.State().IsMet()
}

// IsConditionSet reports whether the state is determinate.
func (c *Condition) IsConditionSet() bool {
	return c.State().IsSet()
}

// Started reports whether monitoring is running.
func (c *Condition) Started() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.started
}

// Subscribers returns the number of registered callbacks.
func (c *Condition) Subscribers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.callbacks.len()
}

// LastError returns the last error recorded, or nil.
func (c *Condition) LastError() error {
	ptr := c.lastError.Load()
	if ptr == nil {
		return nil
	}
	return *ptr
}

// ErrorHistory returns the recent error history, oldest first.
// Returns nil if error history is not enabled (see ErrorHistorySize).
func (c *Condition) ErrorHistory() []error {
	return c.errorHistory.snapshot()
}

// ResetErrors discards the last error and the error history.
func (c *Condition) ResetErrors() {
	c.lastError.Store(nil)
	c.errorHistory.reset()
}

// -----------------------------------------------------------------------------
// Subscription Lifecycle
// -----------------------------------------------------------------------------

// AddCallback registers cb and returns its subscription.
//
// If monitoring is already running, cb is invoked synchronously once with
// the current state, even when that state is Unset. Otherwise monitoring is
// launched on the scheduler and cb only sees values the monitor reports.
func (c *Condition) AddCallback(cb Callback) Subscription {
	c.mu.Lock()
	sub := c.callbacks.add(cb)
	if c.started {
		c.mu.Unlock()
		c.deliver(cb)
		return sub
	}
	c.started = true
	c.cycles++
	c.cycle = c.cycles
	ctx, cancel := context.WithCancel(context.WithValue(context.Background(), cycleKey{}, c.cycle))
	c.cancel = cancel
	subscribers := c.callbacks.len()
	c.mu.Unlock()

	capitan.Emit(ctx, ConditionStarted,
		KeyCondition.Field(c.name),
		KeyStrategy.Field(c.strategy.String()),
		KeySubscribers.Field(subscribers),
	)
	if c.metrics != nil {
		c.metrics.OnStart(c.name)
	}

	c.scheduler.Launch(ctx, func(ctx context.Context) {
		c.monitor.Start(ctx, c)
	})
	return sub
}

// RemoveCallback unregisters the subscription. Removing the last
// subscription stops the monitor and cancels its task. Unknown or
// already-removed subscriptions are ignored.
func (c *Condition) RemoveCallback(sub Subscription) {
	c.mu.Lock()
	c.callbacks.remove(sub)
	if c.callbacks.len() > 0 || !c.started {
		c.mu.Unlock()
		return
	}
	c.started = false
	c.cycle = 0
	cancel := c.cancel
	c.cancel = nil
	state := c.state
	c.mu.Unlock()

	c.monitor.Stop(c)
	if cancel != nil {
		cancel()
	}

	capitan.Emit(context.Background(), ConditionStopped,
		KeyCondition.Field(c.name),
		KeyState.Field(state.String()),
	)
	if c.metrics != nil {
		c.metrics.OnStop(c.name)
	}
}

// -----------------------------------------------------------------------------
// State Updates
// -----------------------------------------------------------------------------

// UpdateCondition sets the state to v and notifies subscribers.
// It does nothing when the state already equals v.
func (c *Condition) UpdateCondition(v bool) {
	c.transition(Of(v))
}

// ClearCondition resets the state to Unset and notifies subscribers.
// It does nothing when the state is already Unset.
func (c *Condition) ClearCondition() {
	c.transition(Unset)
}

func (c *Condition) transition(next TriState) {
	c.publish(next, nil)
}

// report is the monitor-side update: it is dropped unless ctx belongs to the
// monitoring cycle that is still running.
func (c *Condition) report(ctx context.Context, next TriState) {
	cycle, _ := ctx.Value(cycleKey{}).(uint64)
	c.publish(next, func() bool {
		return ctx.Err() == nil && cycle != 0 && cycle == c.cycle
	})
}

// publish applies next. live, when non-nil, is checked under c.mu.
func (c *Condition) publish(next TriState, live func() bool) {
	c.mu.Lock()
	if live != nil && !live() {
		c.mu.Unlock()
		return
	}
	prev := c.state
	if prev == next {
		c.mu.Unlock()
		return
	}
	c.state = next
	c.mu.Unlock()

	capitan.Emit(context.Background(), ConditionChanged,
		KeyCondition.Field(c.name),
		KeyOldState.Field(prev.String()),
		KeyNewState.Field(next.String()),
	)
	if c.metrics != nil {
		c.metrics.OnChange(c.name, prev, next)
	}

	c.sendUpdate()
}

// sendUpdate notifies every live subscriber, purging dead registrations
// in the same pass.
func (c *Condition) sendUpdate() {
	c.mu.Lock()
	callbacks := c.callbacks.snapshot()
	c.mu.Unlock()

	for _, cb := range callbacks {
		c.deliver(cb)
	}
}

// deliver invokes cb, isolating a panic so it cannot block the remaining
// subscribers of the same pass.
func (c *Condition) deliver(cb Callback) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("%w: %v", ErrCallbackPanic, r)
			c.setError(err)
			capitan.Emit(context.Background(), CallbackPanicked,
				KeyCondition.Field(c.name),
				KeyError.Field(err.Error()),
			)
			if c.metrics != nil {
				c.metrics.OnCallbackPanic(c.name)
			}
		}
	}()
	cb.OnConditionChanged(c)
}

// reportSourceError records a monitor failure at the given stage.
func (c *Condition) reportSourceError(ctx context.Context, stage string, err error) {
	c.setError(err)
	capitan.Emit(ctx, SourceFailed,
		KeyCondition.Field(c.name),
		KeyStage.Field(stage),
		KeyError.Field(err.Error()),
	)
	if c.metrics != nil {
		c.metrics.OnSourceFailure(c.name, stage)
	}
}

// setError stores an error atomically and adds it to the error history.
func (c *Condition) setError(err error) {
	e := err
	c.lastError.Store(&e)
	c.errorHistory.record(err)
}

// -----------------------------------------------------------------------------
// Composition
// -----------------------------------------------------------------------------

// And returns a new condition that is met when c and all others are met.
// Each call allocates a new combinator.
func (c *Condition) And(others ...*Condition) *Condition {
	return Combine(OpAnd, append([]*Condition{c}, others...)...)
}

// Or returns a new condition that is met when c or any of others is met.
// Each call allocates a new combinator.
func (c *Condition) Or(others ...*Condition) *Condition {
	return Combine(OpOr, append([]*Condition{c}, others...)...)
}
