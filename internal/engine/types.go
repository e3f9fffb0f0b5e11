package engine

// Context is the set of facts assembled for one case: ticket, CRM, exam platform,
// dates, sessions, eligibility. Values are strings, numbers, bools, times, lists or
// nested maps. The engine only reads it.
type Context map[string]any

// Truth is the three-valued result of evaluating a condition.
type Truth int8

const (
	// Unknown means a referenced field was absent; it never selects a state.
	Unknown Truth = iota
	False
	True
)

func (t Truth) String() string {
	switch t {
	case True:
		return "true"
	case False:
		return "false"
	default:
		return "unknown"
	}
}

// Holds reports whether t is definitely true.
func (t Truth) Holds() bool { return t == True }

func truthOf(b bool) Truth {
	if b {
		return True
	}
	return False
}

// Not negates t; Unknown stays Unknown.
func Not(t Truth) Truth {
	switch t {
	case True:
		return False
	case False:
		return True
	default:
		return Unknown
	}
}
