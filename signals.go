package tristate

import "github.com/zoobzio/capitan"

// Condition lifecycle signals.
var (
	// ConditionStarted is emitted when the first subscriber launches monitoring.
	ConditionStarted = capitan.NewSignal(
		"tristate.condition.started",
		"Condition monitoring started",
	)

	// ConditionStopped is emitted when the last subscriber is removed.
	ConditionStopped = capitan.NewSignal(
		"tristate.condition.stopped",
		"Condition monitoring stopped",
	)

	// ConditionChanged is emitted when a condition transitions between states.
	ConditionChanged = capitan.NewSignal(
		"tristate.condition.changed",
		"Condition state transition",
	)
)

// Failure signals.
var (
	// CallbackPanicked is emitted when a subscriber panics during delivery.
	CallbackPanicked = capitan.NewSignal(
		"tristate.callback.panicked",
		"Callback panicked during notification",
	)

	// SourceFailed is emitted when a monitor cannot read or evaluate its source.
	SourceFailed = capitan.NewSignal(
		"tristate.source.failed",
		"Condition source failed",
	)

	// SourceChangeReceived is emitted when a watcher-backed condition receives raw data.
	SourceChangeReceived = capitan.NewSignal(
		"tristate.source.change.received",
		"Raw change received from watcher",
	)
)
