// Package intent holds the requester intention produced by the triage classifier.
package intent

import "strings"

// Intention is what the requester wants from this interaction: one primary goal,
// further secondary goals in classifier order, and free-form attributes.
type Intention struct {
	Primary    string         `json:"primary" yaml:"primary"`
	Secondary  []string       `json:"secondary,omitempty" yaml:"secondary,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty" yaml:"attributes,omitempty"`
}

// New builds a normalized Intention: names are trimmed, blank secondaries dropped,
// the primary removed from the secondaries and duplicates collapsed keeping the
// first occurrence.
func New(primary string, secondary []string, attributes map[string]any) Intention {
	primary = strings.TrimSpace(primary)
	seen := map[string]bool{primary: true}
	var out []string
	for _, s := range secondary {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return Intention{Primary: primary, Secondary: out, Attributes: attributes}
}

// Normalize returns in passed through New.
func (in Intention) Normalize() Intention {
	return New(in.Primary, in.Secondary, in.Attributes)
}

// All returns the primary followed by the secondaries.
func (in Intention) All() []string {
	out := make([]string, 0, 1+len(in.Secondary))
	if in.Primary != "" {
		out = append(out, in.Primary)
	}
	return append(out, in.Secondary...)
}
