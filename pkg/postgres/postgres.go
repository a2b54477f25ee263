// Package postgres provides tristate watchers and conditions backed by a
// PostgreSQL table using LISTEN/NOTIFY.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/zoobzio/tristate"
)

// Watcher watches a row of a key/value table for changes using
// LISTEN/NOTIFY. A trigger must notify the channel with the row key as
// payload whenever the row changes:
//
//	CREATE OR REPLACE FUNCTION notify_flag_change() RETURNS trigger AS $$
//	BEGIN
//	    IF TG_OP = 'DELETE' THEN
//	        PERFORM pg_notify('flags_changed', OLD.key);
//	        RETURN OLD;
//	    END IF;
//	    PERFORM pg_notify('flags_changed', NEW.key);
//	    RETURN NEW;
//	END;
//	$$ LANGUAGE plpgsql;
//
//	CREATE TRIGGER flag_change_trigger
//	    AFTER INSERT OR UPDATE OR DELETE ON flags
//	    FOR EACH ROW EXECUTE FUNCTION notify_flag_change();
type Watcher struct {
	pool    *pgxpool.Pool
	channel string
	key     string
	table   string
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithTable sets the table holding key and value columns.
// Default: "flags".
func WithTable(table string) Option {
	return func(w *Watcher) {
		w.table = table
	}
}

// New creates a Watcher for key, woken by notifications on channel.
func New(pool *pgxpool.Pool, channel, key string, opts ...Option) *Watcher {
	w := &Watcher{
		pool:    pool,
		channel: channel,
		key:     key,
		table:   "flags",
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Watch listens on the channel and returns a channel that emits the row's
// value whenever it changes, and nil when the row does not exist. The
// current value is emitted immediately.
func (w *Watcher) Watch(ctx context.Context) (<-chan []byte, error) {
	conn, err := w.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, w.listenStatement()); err != nil {
		conn.Release()
		return nil, fmt.Errorf("failed to listen on channel %s: %w", w.channel, err)
	}

	out := make(chan []byte)

	go func() {
		defer close(out)
		defer conn.Release()

		emit := func() bool {
			value, err := w.fetch(ctx)
			if err != nil {
				return ctx.Err() == nil
			}
			select {
			case out <- value:
				return true
			case <-ctx.Done():
				return false
			}
		}

		if !emit() {
			return
		}

		for {
			notification, err := conn.Conn().WaitForNotification(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				continue
			}
			if notification.Payload != w.key {
				continue
			}
			if !emit() {
				return
			}
		}
	}()

	return out, nil
}

// fetch returns the current value, or nil when the row is missing.
func (w *Watcher) fetch(ctx context.Context) ([]byte, error) {
	var value []byte
	err := w.pool.QueryRow(ctx, w.selectStatement(), w.key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if value == nil {
		value = []byte{}
	}
	return value, nil
}

func (w *Watcher) listenStatement() string {
	return "LISTEN " + pgx.Identifier{w.channel}.Sanitize()
}

func (w *Watcher) selectStatement() string {
	return "SELECT value FROM " + pgx.Identifier{w.table}.Sanitize() + " WHERE key = $1"
}

// Flag returns a condition that follows a boolean flag stored in the row
// for key, such as "true", "off" or "1". The condition is Unset while the
// row is absent.
func Flag(pool *pgxpool.Pool, channel, key string, opts ...Option) *tristate.Condition {
	return tristate.FromWatcher(
		New(pool, channel, key, opts...),
		func(_ context.Context, v bool) (bool, error) { return v, nil },
		tristate.WithCodec[bool](tristate.TextCodec{}),
	).Named("postgres:" + key)
}

var _ tristate.Watcher = (*Watcher)(nil)
