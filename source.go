package tristate

import (
	"context"
	"fmt"
)

// ToCondition returns a condition that mirrors a boolean stream.
//
// While the condition has subscribers, src is watched on the condition's
// scheduler and every emitted value is forwarded through UpdateCondition.
// When monitoring starts while the condition is still Unset and initial is
// set, initial is reported first. Removing the last subscriber cancels the
// watch. The last reported value is kept after src ends.
func ToCondition(src Source[bool], strategy StartStrategy, initial TriState) *Condition {
	return New(&sourceMonitor{src: src, initial: initial}).
		Named("source").
		Strategy(strategy)
}

type sourceMonitor struct {
	src     Source[bool]
	initial TriState
}

func (m *sourceMonitor) Start(ctx context.Context, c *Condition) {
	if m.initial.IsSet() && !c.IsConditionSet() {
		c.report(ctx, m.initial)
	}

	values, err := m.src.Watch(ctx)
	if err != nil {
		c.reportSourceError(ctx, "watch", fmt.Errorf("failed to watch source: %w", err))
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case v, ok := <-values:
			if !ok {
				return
			}
			c.report(ctx, Of(v))
		}
	}
}

func (m *sourceMonitor) Stop(_ *Condition) {}
