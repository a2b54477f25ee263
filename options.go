package tristate

import (
	"time"

	"github.com/zoobzio/clockz"
	"github.com/zoobzio/pipz"
)

// Pipeline identities for watcher-backed conditions.
var (
	evaluateID     = pipz.NewIdentity("tristate:evaluate", "Applies the condition predicate")
	retryID        = pipz.NewIdentity("tristate:retry", "Retries evaluation")
	backoffID      = pipz.NewIdentity("tristate:backoff", "Retries evaluation with exponential backoff")
	fallbackID     = pipz.NewIdentity("tristate:fallback", "Falls back to alternate evaluators")
	breakerID      = pipz.NewIdentity("tristate:circuit-breaker", "Stops evaluating after repeated failures")
	timeoutID      = pipz.NewIdentity("tristate:timeout", "Bounds evaluation time")
	middlewareID   = pipz.NewIdentity("tristate:middleware", "Runs middleware before evaluation")
	errorHandlerID = pipz.NewIdentity("tristate:error-handler", "Observes evaluation errors")
)

// Option configures a watcher-backed condition created by FromWatcher.
// Options that wrap the pipeline apply in the order given, each wrapping
// everything configured before it.
type Option[T any] func(*watchMonitor[T])

// WithCodec sets the codec used to decode watched documents.
// Default: JSONCodec.
func WithCodec[T any](codec Codec) Option[T] {
	return func(m *watchMonitor[T]) {
		m.codec = codec
	}
}

// WithDebounce coalesces changes arriving within d into a single
// evaluation of the latest document. The first emission is always
// evaluated immediately. Default: 0 (no debounce).
func WithDebounce[T any](d time.Duration) Option[T] {
	return func(m *watchMonitor[T]) {
		m.debounce = d
	}
}

// WithClock sets the clock used for debouncing.
// Use clockz.NewFakeClock() for deterministic tests.
func WithClock[T any](clock clockz.Clock) Option[T] {
	return func(m *watchMonitor[T]) {
		m.clock = clock
	}
}

// WithClearOnError resets the condition to Unset when a document fails to
// decode or evaluate. By default the last determined value is kept.
func WithClearOnError[T any]() Option[T] {
	return func(m *watchMonitor[T]) {
		m.clearOnError = true
	}
}

// WithRetry retries a failing evaluation immediately up to maxAttempts times.
func WithRetry[T any](maxAttempts int) Option[T] {
	return func(m *watchMonitor[T]) {
		m.pipeline = pipz.NewRetry(retryID, m.pipeline, maxAttempts)
	}
}

// WithBackoff retries a failing evaluation up to maxAttempts times, doubling
// the delay after each attempt starting at baseDelay.
func WithBackoff[T any](maxAttempts int, baseDelay time.Duration) Option[T] {
	return func(m *watchMonitor[T]) {
		m.pipeline = pipz.NewBackoff(backoffID, m.pipeline, maxAttempts, baseDelay)
	}
}

// WithFallback tries fallbacks, in order, when the evaluation fails.
// A fallback receives the same reading and must set Met itself.
func WithFallback[T any](fallbacks ...pipz.Chainable[*Reading[T]]) Option[T] {
	return func(m *watchMonitor[T]) {
		all := make([]pipz.Chainable[*Reading[T]], 0, len(fallbacks)+1)
		all = append(all, m.pipeline)
		all = append(all, fallbacks...)
		m.pipeline = pipz.NewFallback(fallbackID, all...)
	}
}

// WithCircuitBreaker fails evaluations immediately after failures
// consecutive errors, allowing a trial evaluation again after recovery.
func WithCircuitBreaker[T any](failures int, recovery time.Duration) Option[T] {
	return func(m *watchMonitor[T]) {
		m.pipeline = pipz.NewCircuitBreaker(breakerID, m.pipeline, failures, recovery)
	}
}

// WithTimeout fails an evaluation that takes longer than d.
func WithTimeout[T any](d time.Duration) Option[T] {
	return func(m *watchMonitor[T]) {
		m.pipeline = pipz.NewTimeout(timeoutID, m.pipeline, d)
	}
}

// WithMiddleware runs processors, in order, before the predicate. Use
// pipz.Transform, pipz.Apply or pipz.Effect to enrich or observe readings.
func WithMiddleware[T any](processors ...pipz.Chainable[*Reading[T]]) Option[T] {
	return func(m *watchMonitor[T]) {
		all := make([]pipz.Chainable[*Reading[T]], 0, len(processors)+1)
		all = append(all, processors...)
		all = append(all, m.pipeline)
		m.pipeline = pipz.NewSequence(middlewareID, all...)
	}
}

// WithErrorHandler passes evaluation errors to handler for logging or
// alerting. The error still propagates.
func WithErrorHandler[T any](handler pipz.Chainable[*pipz.Error[*Reading[T]]]) Option[T] {
	return func(m *watchMonitor[T]) {
		m.pipeline = pipz.NewHandle(errorHandlerID, m.pipeline, handler)
	}
}
