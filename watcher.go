package tristate

import "context"

// Source is a push-based stream of values with explicit start and cancel.
type Source[T any] interface {
	// Watch begins observing the source and returns a channel that emits
	// values as they occur. The channel is closed when the context is
	// canceled or the source ends.
	Watch(ctx context.Context) (<-chan T, error)
}

// Watcher observes an external document and emits its raw bytes on every
// change. Implementations should emit the current value immediately so a
// condition can be determined without waiting for the first change. A nil
// emission means the document is absent.
type Watcher = Source[[]byte]
