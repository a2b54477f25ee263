package tristate

import (
	"context"
	"fmt"
	"time"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/clockz"
	"github.com/zoobzio/pipz"
)

// FromWatcher returns a condition evaluated from an external document.
//
// While the condition has subscribers, w is watched on the condition's
// scheduler. Each emission is decoded into T with the configured codec and
// passed through the evaluation pipeline, which ends in pred; the result is
// reported through UpdateCondition. A nil emission means the document is
// absent and clears the condition.
//
// When decoding or evaluation fails, the error is recorded (see LastError),
// SourceFailed is emitted and the previous value is kept, unless
// WithClearOnError is given.
//
// Example:
//
//	type Flags struct {
//	    Maintenance bool `yaml:"maintenance"`
//	}
//
//	maintenance := tristate.FromWatcher(
//	    tristate.NewFileWatcher("/etc/myapp/flags.yaml"),
//	    func(_ context.Context, f Flags) (bool, error) { return f.Maintenance, nil },
//	    tristate.WithCodec[Flags](tristate.YAMLCodec{}),
//	    tristate.WithDebounce[Flags](200*time.Millisecond),
//	).Named("maintenance").Overriding()
func FromWatcher[T any](w Watcher, pred Predicate[T], opts ...Option[T]) *Condition {
	m := &watchMonitor[T]{
		watcher: w,
		codec:   JSONCodec{},
		clock:   clockz.RealClock,
		pipeline: pipz.Apply(evaluateID, func(ctx context.Context, r *Reading[T]) (*Reading[T], error) {
			met, err := pred(ctx, r.Value)
			if err != nil {
				return r, err
			}
			r.Met = met
			return r, nil
		}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return New(m).Named("watcher")
}

type watchMonitor[T any] struct {
	watcher      Watcher
	pipeline     pipz.Chainable[*Reading[T]]
	codec        Codec
	debounce     time.Duration
	clock        clockz.Clock
	clearOnError bool
}

func (m *watchMonitor[T]) Start(ctx context.Context, c *Condition) {
	changes, err := m.watcher.Watch(ctx)
	if err != nil {
		c.reportSourceError(ctx, "watch", fmt.Errorf("failed to start watcher: %w", err))
		return
	}

	var (
		timer      clockz.Timer
		pending    []byte
		hasPending bool
		first      = true
	)

	for {
		var timerC <-chan time.Time
		if timer != nil {
			timerC = timer.C()
		}

		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return

		case raw, ok := <-changes:
			if !ok {
				if hasPending {
					m.process(ctx, c, pending)
				}
				return
			}

			capitan.Emit(ctx, SourceChangeReceived,
				KeyCondition.Field(c.Name()),
				KeyDebounce.Field(m.debounce),
			)

			if first || m.debounce <= 0 {
				first = false
				m.process(ctx, c, raw)
				continue
			}

			pending = raw
			hasPending = true

			if timer == nil {
				timer = m.clock.NewTimer(m.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C():
					default:
					}
				}
				timer.Reset(m.debounce)
			}

		case <-timerC:
			if hasPending {
				m.process(ctx, c, pending)
				pending = nil
				hasPending = false
			}
		}
	}
}

func (m *watchMonitor[T]) Stop(_ *Condition) {}

// process decodes and evaluates one document.
func (m *watchMonitor[T]) process(ctx context.Context, c *Condition, raw []byte) {
	if ctx.Err() != nil {
		return
	}
	if raw == nil {
		c.report(ctx, Unset)
		return
	}

	var value T
	if err := m.codec.Unmarshal(raw, &value); err != nil {
		m.fail(ctx, c, "unmarshal", fmt.Errorf("unmarshal failed: %w", err))
		return
	}

	result, err := m.pipeline.Process(ctx, &Reading[T]{Raw: raw, Value: value})
	if err != nil {
		m.fail(ctx, c, "pipeline", fmt.Errorf("pipeline failed: %w", err))
		return
	}
	c.report(ctx, Of(result.Met))
}

func (m *watchMonitor[T]) fail(ctx context.Context, c *Condition, stage string, err error) {
	c.reportSourceError(ctx, stage, err)
	if m.clearOnError {
		c.report(ctx, Unset)
	}
}
