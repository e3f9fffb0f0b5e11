// Package detector classifies a case context against the catalog's state definitions.
package detector

import (
	"sort"

	"github.com/fouedh91760/a-level-saver-sub001/internal/catalog"
	"github.com/fouedh91760/a-level-saver-sub001/internal/engine"
)

// Classification is the outcome of DetectAll. When Blocking is set, Warnings and
// Infos are empty. Both lists are in ascending priority order.
type Classification struct {
	Blocking *catalog.StateDefinition
	Warnings []catalog.StateDefinition
	Infos    []catalog.StateDefinition
}

// Empty reports whether no state matched.
func (c Classification) Empty() bool {
	return c.Blocking == nil && len(c.Warnings) == 0 && len(c.Infos) == 0
}

// All returns the matched states: the blocking state alone, or warnings and infos
// merged by priority.
func (c Classification) All() []catalog.StateDefinition {
	if c.Blocking != nil {
		return []catalog.StateDefinition{*c.Blocking}
	}
	out := make([]catalog.StateDefinition, 0, len(c.Warnings)+len(c.Infos))
	out = append(out, c.Warnings...)
	out = append(out, c.Infos...)
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

// Names returns the names of All.
func (c Classification) Names() []string {
	all := c.All()
	out := make([]string, len(all))
	for i, s := range all {
		out[i] = s.Name
	}
	return out
}

// DetectAll evaluates every state against ctx in ascending priority order. The first
// BLOCKING match ends detection and is the whole classification. Conditions that
// evaluate to unknown (missing facts) do not match.
func DetectAll(ctx engine.Context, states []catalog.StateDefinition) Classification {
	var c Classification
	for _, def := range ordered(states) {
		if !def.Matches(ctx) {
			continue
		}
		switch def.Severity {
		case catalog.SeverityBlocking:
			def := def
			return Classification{Blocking: &def}
		case catalog.SeverityWarning:
			c.Warnings = append(c.Warnings, def)
		case catalog.SeverityInfo:
			c.Infos = append(c.Infos, def)
		}
	}
	return c
}

// Evaluation is the three-valued outcome of one state's condition.
type Evaluation struct {
	State    string           `json:"state"`
	Priority int              `json:"priority"`
	Severity catalog.Severity `json:"severity"`
	Result   string           `json:"result"`
}

// Explain evaluates every state without short-circuiting, for diagnostics.
func Explain(ctx engine.Context, states []catalog.StateDefinition) []Evaluation {
	defs := ordered(states)
	out := make([]Evaluation, len(defs))
	for i, def := range defs {
		out[i] = Evaluation{
			State:    def.Name,
			Priority: def.Priority,
			Severity: def.Severity,
			Result:   def.Evaluate(ctx).String(),
		}
	}
	return out
}

func ordered(states []catalog.StateDefinition) []catalog.StateDefinition {
	if sort.SliceIsSorted(states, func(i, j int) bool { return less(states[i], states[j]) }) {
		return states
	}
	out := make([]catalog.StateDefinition, len(states))
	copy(out, states)
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func less(a, b catalog.StateDefinition) bool {
	if a.Priority != b.Priority {
		return a.Priority < b.Priority
	}
	return a.Name < b.Name
}
