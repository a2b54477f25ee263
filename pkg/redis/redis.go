// Package redis provides tristate watchers and conditions backed by Redis
// keys using keyspace notifications.
package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/zoobzio/tristate"
)

// Watcher watches a Redis key for changes using keyspace notifications.
// Requires Redis to have keyspace notifications enabled:
//
//	CONFIG SET notify-keyspace-events KEA
//
// Or in redis.conf:
//
//	notify-keyspace-events KEA
type Watcher struct {
	client *redis.Client
	key    string
	db     int
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDB sets the database number used in the keyspace channel.
// Default: 0.
func WithDB(db int) Option {
	return func(w *Watcher) {
		w.db = db
	}
}

// New creates a new Watcher for the given Redis key.
func New(client *redis.Client, key string, opts ...Option) *Watcher {
	w := &Watcher{
		client: client,
		key:    key,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Channel returns the keyspace notification channel for the watched key.
func (w *Watcher) Channel() string {
	return fmt.Sprintf("__keyspace@%d__:%s", w.db, w.key)
}

// Watch begins watching the key and returns a channel that emits its value
// whenever it is written, and nil when it is deleted or expires. The
// current value is emitted immediately if the key exists; an error reading
// it is returned.
func (w *Watcher) Watch(ctx context.Context) (<-chan []byte, error) {
	pubsub := w.client.Subscribe(ctx, w.Channel())

	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to keyspace notifications: %w", err)
	}

	initial, err := w.client.Get(ctx, w.key).Bytes()
	exists := err == nil
	if err != nil && !errors.Is(err, redis.Nil) {
		pubsub.Close()
		return nil, fmt.Errorf("failed to read key %s: %w", w.key, err)
	}

	out := make(chan []byte)

	go func() {
		defer close(out)
		defer pubsub.Close()

		send := func(data []byte) bool {
			select {
			case out <- data:
				return true
			case <-ctx.Done():
				return false
			}
		}

		if exists {
			if !send(initial) {
				return
			}
		}

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}

				switch msg.Payload {
				case "set", "mset", "setex", "psetex", "setnx", "getset", "incrby", "append":
					val, err := w.client.Get(ctx, w.key).Bytes()
					if err != nil {
						continue
					}
					if !send(val) {
						return
					}
				case "del", "expired", "evicted", "unlink":
					if !send(nil) {
						return
					}
				}
			}
		}
	}()

	return out, nil
}

// Flag returns a condition that follows a boolean flag stored at key, such
// as "true", "off" or "1". The condition is Unset while the key is absent.
// A value that is not a boolean is recorded as an error and the previous
// state is kept.
func Flag(client *redis.Client, key string, opts ...Option) *tristate.Condition {
	return tristate.FromWatcher(
		New(client, key, opts...),
		func(_ context.Context, v bool) (bool, error) { return v, nil },
		tristate.WithCodec[bool](tristate.TextCodec{}),
	).Named("redis:" + key)
}

var _ tristate.Watcher = (*Watcher)(nil)
