package tristate

// StartStrategy hints when an aggregator should attach subscribers to a
// Condition. The Condition itself does not act on it; it only distinguishes
// between having subscribers and having none.
type StartStrategy int32

const (
	// StartEagerly conditions are subscribed as soon as the aggregator starts.
	StartEagerly StartStrategy = iota

	// StartLazily conditions are subscribed only once the eager conditions
	// alone cannot determine the aggregate result.
	StartLazily

	// StartWhenNeeded conditions are subscribed only when nothing else can
	// determine the result.
	StartWhenNeeded
)

// String returns the string representation of the strategy.
func (s StartStrategy) String() string {
	switch s {
	case StartEagerly:
		return "eager"
	case StartLazily:
		return "lazy"
	case StartWhenNeeded:
		return "when-needed"
	default:
		return "unknown"
	}
}

// combinedStrategy derives the strategy of a combinator from its children:
// eager wins over lazy, lazy wins over when-needed.
func combinedStrategy(children []*Condition) StartStrategy {
	strategy := StartWhenNeeded
	for _, child := range children {
		switch child.StartStrategy() {
		case StartEagerly:
			return StartEagerly
		case StartLazily:
			strategy = StartLazily
		}
	}
	return strategy
}
