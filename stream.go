package tristate

import (
	"context"
	"sync"
)

// Stream returns a channel of the condition's states.
//
// Stream subscribes immediately, so it starts monitoring if the condition
// has no other subscribers, and then emits the current state. Every later
// transition is emitted in order; consecutive duplicates, including
// repeated Unset, are suppressed. Transitions are queued rather than
// dropped while the reader is slow. When ctx is cancelled the subscription
// is removed and the channel is closed.
func (c *Condition) Stream(ctx context.Context) <-chan TriState {
	q := &stateQueue{wake: make(chan struct{}, 1)}
	sub := c.AddCallback(CallbackFunc(func(c *Condition) {
		q.push(c.State())
	}))

	// Reading and queueing under the queue lock orders the current state
	// against a concurrent delivery.
	q.mu.Lock()
	q.items = append(q.items, c.State())
	q.mu.Unlock()
	q.signal()

	out := make(chan TriState)
	go func() {
		defer close(out)
		defer c.RemoveCallback(sub)

		var (
			last TriState
			sent bool
		)
		for {
			for _, v := range q.drain() {
				if sent && v == last {
					continue
				}
				select {
				case out <- v:
					last, sent = v, true
				case <-ctx.Done():
					return
				}
			}
			select {
			case <-ctx.Done():
				return
			case <-q.wake:
			}
		}
	}()
	return out
}

// Watch adapts Stream to the Source interface so a condition can feed
// anything that consumes a Source[TriState].
func (c *Condition) Watch(ctx context.Context) (<-chan TriState, error) {
	return c.Stream(ctx), nil
}

// stateQueue is an unbounded FIFO between callback delivery and the
// stream goroutine.
type stateQueue struct {
	mu    sync.Mutex
	items []TriState
	wake  chan struct{}
}

func (q *stateQueue) push(v TriState) {
	q.mu.Lock()
	q.items = append(q.items, v)
	q.mu.Unlock()
	q.signal()
}

func (q *stateQueue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *stateQueue) drain() []TriState {
	q.mu.Lock()
	defer q.mu.Unlock()
	items := q.items
	q.items = nil
	return items
}

var _ Source[TriState] = (*Condition)(nil)
