// Package tristate implements the three-valued boolean logic used throughout
// constraint evaluation. The third value, Unknown, represents runtime state
// that has not resolved yet, such as a purchase receipt that is still being
// fetched or a permission prompt the user has not answered.
package tristate

// Value is a boolean that can also be Unknown.
type Value int

const (
	Unknown Value = iota
	False
	True
)

// FromBool converts a definite boolean into a Value.
func FromBool(b bool) Value {
	if b {
		return True
	}
	return False
}

// FromBoolPtr converts an optional boolean into a Value, mapping nil to Unknown.
func FromBoolPtr(b *bool) Value {
	if b == nil {
		return Unknown
	}
	return FromBool(*b)
}

// Known reports whether v carries a definite answer.
func (v Value) Known() bool {
	return v != Unknown
}

// Bool returns the boolean value and whether it is known.
func (v Value) Bool() (value, known bool) {
	return v == True, v != Unknown
}

func (v Value) String() string {
	switch v {
	case True:
		return "true"
	case False:
		return "false"
	default:
		return "unknown"
	}
}

// And combines values conjunctively. A definite False dominates; otherwise
// any Unknown propagates. And of no values is True.
func And(vals ...Value) Value {
	combined := True
	for _, v := range vals {
		switch v {
		case False:
			return False
		case Unknown:
			combined = Unknown
		}
	}
	return combined
}

// Or combines values disjunctively. A definite True dominates; otherwise any
// Unknown propagates. Or of no values is False.
func Or(vals ...Value) Value {
	combined := False
	for _, v := range vals {
		switch v {
		case True:
			return True
		case Unknown:
			combined = Unknown
		}
	}
	return combined
}

// Not negates a value. Unknown stays Unknown.
func Not(v Value) Value {
	switch v {
	case True:
		return False
	case False:
		return True
	default:
		return Unknown
	}
}
