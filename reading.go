package tristate

import "context"

// Reading carries one decoded document through the evaluation pipeline of
// a watcher-backed condition.
type Reading[T any] struct {
	// Raw contains the bytes received from the watcher.
	Raw []byte

	// Value is the decoded document. Pipeline stages may modify it before
	// the predicate runs.
	Value T

	// Met is the predicate result, filled in by the terminal stage.
	Met bool
}

// Predicate decides whether a decoded document meets the condition.
type Predicate[T any] func(ctx context.Context, v T) (bool, error)
