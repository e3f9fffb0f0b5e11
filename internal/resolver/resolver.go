// Package resolver turns a classification and a requester intention into a template
// selection by walking the resolution table through a fixed cascade of passes.
package resolver

import (
	"github.com/fouedh91760/a-level-saver-sub001/internal/catalog"
	"github.com/fouedh91760/a-level-saver-sub001/internal/detector"
	"github.com/fouedh91760/a-level-saver-sub001/internal/intent"
)

// Tier names the cascade pass that produced a selection.
type Tier string

const (
	TierExact             Tier = "exact"
	TierWildcard          Tier = "wildcard"
	TierSecondaryExact    Tier = "secondary_exact"
	TierSecondaryWildcard Tier = "secondary_wildcard"
	TierDefault           Tier = "default"
)

// Table is the part of a catalog the resolver reads. *catalog.Catalog implements it.
type Table interface {
	ResolutionEntry(stateKey, intentionKey string) (catalog.ResolutionEntry, bool)
	DefaultTemplate() string
}

// Selection is the resolved template and the merged presentation flags. State is
// the primary state the cascade ran against, empty when none matched. Intention is
// the intention of the winning entry, empty for the default template. Acknowledged
// lists secondary intentions that have their own entry, whether or not it set a flag.
type Selection struct {
	TemplateID   string          `json:"templateId"`
	Flags        map[string]bool `json:"flags"`
	Tier         Tier            `json:"tier"`
	State        string          `json:"state,omitempty"`
	Intention    string          `json:"intention,omitempty"`
	Default      bool            `json:"default"`
	Acknowledged []string        `json:"acknowledged,omitempty"`
}

type pass struct {
	tier      Tier
	state     string
	intention string
}

// cascade lists the lookups in the order they are tried. Without a primary state
// the exact passes are skipped; wildcard rows still apply.
func cascade(state string, in intent.Intention) []pass {
	passes := make([]pass, 0, 2+2*len(in.Secondary))
	add := func(exact, wildcard Tier, intention string) {
		if intention == "" {
			return
		}
		if state != "" {
			passes = append(passes, pass{tier: exact, state: state, intention: intention})
		}
		passes = append(passes, pass{tier: wildcard, state: catalog.Wildcard, intention: intention})
	}
	add(TierExact, TierWildcard, in.Primary)
	for _, s := range in.Secondary {
		add(TierSecondaryExact, TierSecondaryWildcard, s)
	}
	return passes
}

// PrimaryState picks the state the cascade runs against: the blocking state, else
// the first info, else the first warning. Nil when nothing matched.
func PrimaryState(c detector.Classification) *catalog.StateDefinition {
	switch {
	case c.Blocking != nil:
		return c.Blocking
	case len(c.Infos) > 0:
		return &c.Infos[0]
	case len(c.Warnings) > 0:
		return &c.Warnings[0]
	}
	return nil
}

// Resolve runs the cascade. The result depends only on its inputs; equal inputs
// give equal selections.
//
// Flags are merged from lowest to highest precedence: warning and info state flags,
// then blocking state flags, then the winning entry. Entries that secondary
// intentions have against the primary state only fill keys still unset, the first
// secondary in order winning.
func Resolve(c detector.Classification, in intent.Intention, table Table) Selection {
	in = in.Normalize()

	var state string
	if p := PrimaryState(c); p != nil {
		state = p.Name
	}

	sel := Selection{State: state, Flags: stateFlags(c)}

	var winner *catalog.ResolutionEntry
	for _, p := range cascade(state, in) {
		if entry, ok := table.ResolutionEntry(p.state, p.intention); ok {
			winner = &entry
			sel.Tier = p.tier
			sel.Intention = p.intention
			break
		}
	}

	if winner == nil {
		sel.Tier = TierDefault
		sel.Default = true
		sel.TemplateID = table.DefaultTemplate()
	} else {
		sel.TemplateID = winner.TemplateID
		for k, v := range winner.Flags {
			sel.Flags[k] = v
		}
	}

	for _, s := range in.Secondary {
		entry, ok := lookup(table, state, s)
		if !ok || (winner != nil && entry.StateKey == winner.StateKey && entry.IntentionKey == winner.IntentionKey) {
			continue
		}
		sel.Acknowledged = append(sel.Acknowledged, s)
		for k, v := range entry.Flags {
			if _, set := sel.Flags[k]; !set {
				sel.Flags[k] = v
			}
		}
	}
	return sel
}

// lookup is the exact-then-wildcard match of one intention against the primary state.
func lookup(table Table, state, intention string) (catalog.ResolutionEntry, bool) {
	if state != "" {
		if entry, ok := table.ResolutionEntry(state, intention); ok {
			return entry, true
		}
	}
	return table.ResolutionEntry(catalog.Wildcard, intention)
}

// stateFlags merges presentation flags of the matched states. Non-blocking states
// are applied from the least to the most important so the lowest priority number
// wins a collision; the blocking state, when present, is alone.
func stateFlags(c detector.Classification) map[string]bool {
	flags := make(map[string]bool)
	all := c.All()
	for i := len(all) - 1; i >= 0; i-- {
		for k, v := range all[i].Flags {
			flags[k] = v
		}
	}
	return flags
}
