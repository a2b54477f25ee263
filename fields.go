package tristate

import "github.com/zoobzio/capitan"

// Field keys for condition events.
var (
	// KeyCondition is the name of the condition emitting the event.
	KeyCondition = capitan.NewStringKey("condition")

	// KeyState is the current state of the condition.
	KeyState = capitan.NewStringKey("state")

	// KeyOldState is the previous state before a transition.
	KeyOldState = capitan.NewStringKey("old_state")

	// KeyNewState is the new state after a transition.
	KeyNewState = capitan.NewStringKey("new_state")

	// KeySubscribers is the number of live subscribers.
	KeySubscribers = capitan.NewIntKey("subscribers")

	// KeyStrategy is the start strategy of the condition.
	KeyStrategy = capitan.NewStringKey("strategy")

	// KeyError is the error message when an operation fails.
	KeyError = capitan.NewStringKey("error")

	// KeyStage is where a source failure occurred: "watch", "unmarshal" or "pipeline".
	KeyStage = capitan.NewStringKey("stage")

	// KeyDebounce is the configured debounce duration of a watcher-backed condition.
	KeyDebounce = capitan.NewDurationKey("debounce")
)
