package tristate

import (
	"context"
	"strings"
	"sync"
)

// Combine returns a condition whose state is Evaluate(op, ...) over the
// current states of children. Children are shared, not owned: they may be
// combined elsewhere and outlive the result.
//
// The combined condition subscribes to every child while it has
// subscribers of its own, and seeds its value synchronously when the
// first subscriber is added.
//
// Example:
//
//	showClock := tristate.Combine(tristate.OpAnd, docked, charging, userEnabled.Overriding())
//	sub := showClock.AddCallback(tristate.CallbackFunc(func(c *tristate.Condition) {
//	    render(c.IsConditionMet())
//	}))
//	defer showClock.RemoveCallback(sub)
func Combine(op Operator, children ...*Condition) *Condition {
	children = append([]*Condition(nil), children...)
	return New(&combiner{op: op, children: children}).
		Named(combinedName(op, children)).
		Strategy(combinedStrategy(children)).
		SyncMode()
}

// All is Combine(OpAnd, conds...).
func All(conds ...*Condition) *Condition {
	return Combine(OpAnd, conds...)
}

// Any is Combine(OpOr, conds...).
func Any(conds ...*Condition) *Condition {
	return Combine(OpOr, conds...)
}

// combiner is the Monitor of a combined condition. A single listener is
// registered on every child; each child notification recomputes the result.
type combiner struct {
	op       Operator
	children []*Condition

	mu     sync.Mutex
	active bool
	subs   []Subscription
}

func (m *combiner) Start(ctx context.Context, c *Condition) {
	if ctx.Err() != nil {
		return
	}
	listener := CallbackFunc(func(*Condition) {
		m.recompute(c)
	})

	m.mu.Lock()
	m.active = true
	m.mu.Unlock()

	subs := make([]Subscription, len(m.children))
	for i, child := range m.children {
		subs[i] = child.AddCallback(listener)
	}

	m.mu.Lock()
	m.subs = subs
	m.mu.Unlock()

	m.recompute(c)
}

func (m *combiner) Stop(_ *Condition) {
	m.mu.Lock()
	subs := m.subs
	m.subs = nil
	m.active = false
	m.mu.Unlock()

	for i, sub := range subs {
		m.children[i].RemoveCallback(sub)
	}
}

// recompute is a no-op once the combinator is stopped; a child pass that
// was already in flight may still reach the listener.
func (m *combiner) recompute(c *Condition) {
	m.mu.Lock()
	active := m.active
	m.mu.Unlock()
	if !active {
		return
	}

	states := make([]TriState, len(m.children))
	overriding := make([]bool, len(m.children))
	for i, child := range m.children {
		states[i] = child.State()
		overriding[i] = child.IsOverriding()
	}

	result := Evaluate(m.op, states, overriding)
	if !result.IsSet() {
		c.ClearCondition()
		return
	}
	c.UpdateCondition(result.IsMet())
}

func combinedName(op Operator, children []*Condition) string {
	names := make([]string, len(children))
	for i, child := range children {
		names[i] = child.Name()
	}
	return op.String() + "(" + strings.Join(names, ", ") + ")"
}
