package tristate

// Operator selects how a combinator folds its children.
type Operator int32

const (
	// OpAnd is met when every child is met.
	OpAnd Operator = iota

	// OpOr is met when any child is met.
	OpOr
)

// String returns the string representation of the operator.
func (op Operator) String() string {
	switch op {
	case OpAnd:
		return "and"
	case OpOr:
		return "or"
	default:
		return "unknown"
	}
}

// Evaluate combines child states under op.
//
// overriding[i] flags states[i] as an overriding child. The first
// overriding child, in declaration order, whose state is set decides the
// result on its own. Otherwise:
//
//   - OpAnd: False if any child is False, True if all are True, else Unset.
//   - OpOr: True if any child is True, False if all are False, else Unset.
//
// An empty input is Unset. A missing overriding flag counts as false.
func Evaluate(op Operator, states []TriState, overriding []bool) TriState {
	if len(states) == 0 {
		return Unset
	}

	for i, s := range states {
		if i < len(overriding) && overriding[i] && s.IsSet() {
			return s
		}
	}

	// The absorbing element decides immediately; its dual must hold for every child.
	absorbing, identity := False, True
	if op == OpOr {
		absorbing, identity = True, False
	}

	all := true
	for _, s := range states {
		if s == absorbing {
			return absorbing
		}
		if s != identity {
			all = false
		}
	}
	if all {
		return identity
	}
	return Unset
}
