package tristate

import "context"

// ChannelSource wraps an existing channel as a Source.
// Useful for testing and for producers that already expose a channel.
type ChannelSource[T any] struct {
	ch   <-chan T
	sync bool
}

// NewChannelSource creates a ChannelSource that forwards values from ch
// through an internal goroutine, stopping when the watch context ends.
func NewChannelSource[T any](ch <-chan T) *ChannelSource[T] {
	return &ChannelSource[T]{ch: ch}
}

// NewSyncChannelSource creates a ChannelSource that returns ch directly
// without an intermediate goroutine.
func NewSyncChannelSource[T any](ch <-chan T) *ChannelSource[T] {
	return &ChannelSource[T]{ch: ch, sync: true}
}

// NewChannelWatcher is NewChannelSource for raw document bytes.
func NewChannelWatcher(ch <-chan []byte) *ChannelSource[[]byte] {
	return NewChannelSource(ch)
}

// NewSyncChannelWatcher is NewSyncChannelSource for raw document bytes.
func NewSyncChannelWatcher(ch <-chan []byte) *ChannelSource[[]byte] {
	return NewSyncChannelSource(ch)
}

// Watch returns a channel that emits values from the wrapped channel.
func (s *ChannelSource[T]) Watch(ctx context.Context) (<-chan T, error) {
	if s.sync {
		return s.ch, nil
	}

	out := make(chan T)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case v, ok := <-s.ch:
				if !ok {
					return
				}
				select {
				case out <- v:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

var _ Watcher = (*ChannelSource[[]byte])(nil)
