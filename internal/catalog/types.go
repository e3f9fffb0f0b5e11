package catalog

import (
	"strings"

	"github.com/fouedh91760/a-level-saver-sub001/internal/engine"
	"github.com/fouedh91760/a-level-saver-sub001/internal/rules"
)

// Severity ranks how a matched state composes with others.
type Severity string

const (
	// SeverityBlocking states are exclusive: the first match is the whole classification.
	SeverityBlocking Severity = "BLOCKING"
	// SeverityWarning states are composable alerts.
	SeverityWarning Severity = "WARNING"
	// SeverityInfo states are composable details.
	SeverityInfo Severity = "INFO"
)

// ParseSeverity accepts the severity names case-insensitively.
func ParseSeverity(s string) (Severity, bool) {
	switch Severity(strings.ToUpper(strings.TrimSpace(s))) {
	case SeverityBlocking:
		return SeverityBlocking, true
	case SeverityWarning:
		return SeverityWarning, true
	case SeverityInfo:
		return SeverityInfo, true
	}
	return "", false
}

// Wildcard is the state key of resolution rows that apply to any state.
const Wildcard = "*"

// DefaultTemplateID is used when a raw catalog names no default template.
const DefaultTemplateID = "default"

// StateDefinition is one catalog entry. Lower Priority is evaluated first.
// Flags are presentation flags merged into the response when the state matches;
// treat the map as read-only.
type StateDefinition struct {
	Name        string          `json:"name"`
	Priority    int             `json:"priority"`
	Severity    Severity        `json:"severity"`
	Description string          `json:"description,omitempty"`
	Condition   rules.Condition `json:"condition"`
	Flags       map[string]bool `json:"flags,omitempty"`

	predicate engine.Predicate
}

// Evaluate runs the compiled condition against ctx.
func (d StateDefinition) Evaluate(ctx engine.Context) engine.Truth {
	if d.predicate == nil {
		return engine.Unknown
	}
	return d.predicate.Eval(ctx)
}

// Matches reports whether the condition is definitely true for ctx.
func (d StateDefinition) Matches(ctx engine.Context) bool {
	return d.Evaluate(ctx).Holds()
}

// NewStateDefinition compiles def's condition. Catalog loading uses it; tests and
// embedders can use it to build ad-hoc state lists.
func NewStateDefinition(name string, priority int, severity Severity, cond rules.Condition, flags map[string]bool) (StateDefinition, error) {
	p, err := engine.Compile(cond)
	if err != nil {
		return StateDefinition{}, err
	}
	return StateDefinition{
		Name:      name,
		Priority:  priority,
		Severity:  severity,
		Condition: cond,
		Flags:     flags,
		predicate: p,
	}, nil
}

// IntentionDefinition declares a known requester intention.
type IntentionDefinition struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// ResolutionEntry is one row of the state x intention table.
type ResolutionEntry struct {
	StateKey     string          `json:"state"`
	IntentionKey string          `json:"intention"`
	TemplateID   string          `json:"template"`
	Flags        map[string]bool `json:"flags,omitempty"`
}

// IsWildcard reports whether the row applies to any state.
func (e ResolutionEntry) IsWildcard() bool { return e.StateKey == Wildcard }

type resolutionKey struct {
	state     string
	intention string
}
