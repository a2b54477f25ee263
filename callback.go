package tristate

// Callback receives change notifications from a Condition.
// Implementations should return quickly; a panic is recovered and recorded
// on the condition so remaining subscribers still receive the update.
type Callback interface {
	OnConditionChanged(c *Condition)
}

// CallbackFunc adapts an ordinary function to the Callback interface.
type CallbackFunc func(c *Condition)

// OnConditionChanged calls f(c).
func (f CallbackFunc) OnConditionChanged(c *Condition) {
	f(c)
}

// Subscription identifies a registered Callback. It is returned by
// AddCallback and passed to RemoveCallback. The zero value never identifies
// a registration.
type Subscription uint64
