package tristate

// TriState is the three-valued result of a Condition.
type TriState int32

const (
	// Unset indicates the condition has not been determined yet. It is
	// distinct from False and is the state of every condition before its
	// monitoring logic reports a value.
	Unset TriState = iota

	// True indicates the condition is met.
	True

	// False indicates the condition is determined and not met.
	False
)

// Of converts a boolean into a determinate TriState.
func Of(v bool) TriState {
	if v {
		return True
	}
	return False
}

// IsSet reports whether the state is determinate.
func (s TriState) IsSet() bool {
	return s == True || s == False
}

// IsMet reports whether the state is exactly True.
func (s TriState) IsMet() bool {
	return s == True
}

// Bool returns the boolean value and whether the state is set.
// This is the nullable-boolean view used at stream boundaries.
func (s TriState) Bool() (value, ok bool) {
	return s == True, s.IsSet()
}

// String returns the string representation of the state.
func (s TriState) String() string {
	switch s {
	case Unset:
		return "unset"
	case True:
		return "true"
	case False:
		return "false"
	default:
		return "unknown"
	}
}
