// Package catalog holds the validated, immutable configuration the engine runs on:
// state definitions ordered by priority, declared intentions, the state x intention
// resolution table, and the parsed templates and partials.
//
// A Catalog is built once by Load and never mutated, so it is safe to share across
// goroutines. Reloading means building a new Catalog and swapping it in.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/fouedh91760/a-level-saver-sub001/internal/render"
	"github.com/fouedh91760/a-level-saver-sub001/internal/validation"
)

// Catalog is a validated catalog.
type Catalog struct {
	states      []StateDefinition
	stateIndex  map[string]int
	intentions  []IntentionDefinition
	intentIndex map[string]int
	resolutions []ResolutionEntry
	resIndex    map[resolutionKey]int
	templates   map[string]*render.Template
	partials    map[string]*render.Template
	defaultID   string
	escapeMode  string
	escape      render.Escaper
	version     string
	warnings    []string
}

// Load validates raw and builds a Catalog. Every problem found is reported, joined
// with errors.Join under ErrInvalidCatalog; the catalog is only returned when there
// are none.
func Load(raw Raw) (*Catalog, error) {
	l := &loader{c: &Catalog{
		stateIndex:  make(map[string]int, len(raw.States)),
		intentIndex: make(map[string]int, len(raw.Intentions)),
		resIndex:    make(map[resolutionKey]int, len(raw.Resolutions)),
		templates:   make(map[string]*render.Template, len(raw.Templates)),
		partials:    make(map[string]*render.Template, len(raw.Partials)),
	}}

	l.escape(raw.Escape)
	l.loadStates(raw.States)
	l.loadIntentions(raw.Intentions)
	l.loadTemplates(raw.Templates, raw.Partials)
	l.loadResolutions(raw.Resolutions)
	l.loadDefault(raw.DefaultTemplate)
	l.checkPartials()

	if len(l.errs) > 0 {
		return nil, errors.Join(append([]error{ErrInvalidCatalog}, l.errs...)...)
	}

	version, err := Fingerprint(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	l.c.version = version
	return l.c, nil
}

// Fingerprint hashes the canonical JSON encoding of raw. Map keys are sorted by
// encoding/json, so equal catalogs always share a fingerprint.
func Fingerprint(raw Raw) (string, error) {
	b, err := json.Marshal(raw)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%016x", xxhash.Sum64(b)), nil
}

// Empty returns a catalog with no states and a blank default template. It serves
// as a placeholder until the first real catalog loads.
func Empty() *Catalog {
	c, err := Load(Raw{Templates: map[string]string{DefaultTemplateID: ""}})
	if err != nil {
		panic(err)
	}
	return c
}

// States returns the state definitions ordered by ascending priority, ties broken by name.
func (c *Catalog) States() []StateDefinition {
	out := make([]StateDefinition, len(c.states))
	copy(out, c.states)
	return out
}

// State looks a state definition up by name.
func (c *Catalog) State(name string) (StateDefinition, bool) {
	i, ok := c.stateIndex[name]
	if !ok {
		return StateDefinition{}, false
	}
	return c.states[i], true
}

// Intentions returns the declared intention names in declaration order.
func (c *Catalog) Intentions() []string {
	out := make([]string, len(c.intentions))
	for i, in := range c.intentions {
		out[i] = in.Name
	}
	return out
}

// Intention returns the declaration of an intention.
func (c *Catalog) Intention(name string) (IntentionDefinition, bool) {
	i, ok := c.intentIndex[name]
	if !ok {
		return IntentionDefinition{}, false
	}
	return c.intentions[i], true
}

// HasIntention reports whether name is a declared intention.
func (c *Catalog) HasIntention(name string) bool {
	_, ok := c.intentIndex[name]
	return ok
}

// ResolutionEntry returns the row for (stateKey, intentionKey). stateKey may be Wildcard.
func (c *Catalog) ResolutionEntry(stateKey, intentionKey string) (ResolutionEntry, bool) {
	i, ok := c.resIndex[resolutionKey{state: stateKey, intention: intentionKey}]
	if !ok {
		return ResolutionEntry{}, false
	}
	return c.resolutions[i], true
}

// Resolutions returns every resolution row in declaration order.
func (c *Catalog) Resolutions() []ResolutionEntry {
	out := make([]ResolutionEntry, len(c.resolutions))
	copy(out, c.resolutions)
	return out
}

// Template returns a parsed template by id.
func (c *Catalog) Template(id string) (*render.Template, bool) {
	t, ok := c.templates[id]
	return t, ok
}

// Templates returns the sorted template ids.
func (c *Catalog) Templates() []string { return sortedKeys(c.templates) }

// Partial returns a parsed partial by name. Its signature matches render.PartialResolver.
func (c *Catalog) Partial(name string) (*render.Template, bool) {
	t, ok := c.partials[name]
	return t, ok
}

// Partials returns the sorted partial names.
func (c *Catalog) Partials() []string { return sortedKeys(c.partials) }

// DefaultTemplate returns the id of the fallback template.
func (c *Catalog) DefaultTemplate() string { return c.defaultID }

// Escaper returns the escaping applied to interpolated values.
func (c *Catalog) Escaper() render.Escaper { return c.escape }

// EscapeMode returns the configured escape mode name.
func (c *Catalog) EscapeMode() string { return c.escapeMode }

// Version is a content fingerprint of the raw catalog the Catalog was built from.
func (c *Catalog) Version() string { return c.version }

// Warnings lists problems that do not prevent loading, such as templates that
// include a partial the catalog does not define.
func (c *Catalog) Warnings() []string {
	out := make([]string, len(c.warnings))
	copy(out, c.warnings)
	return out
}

func sortedKeys(m map[string]*render.Template) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

type loader struct {
	c    *Catalog
	errs []error
}

func (l *loader) fail(err error) { l.errs = append(l.errs, err) }

func (l *loader) name(kind, name string, sentinel error) bool {
	r := validation.ValidateName(kind, name)
	if r.Valid {
		return true
	}
	_, msg := r.First()
	l.fail(fmt.Errorf("%w: %s %q: %s", sentinel, kind, name, msg))
	return false
}

func (l *loader) escape(mode string) {
	esc, ok := render.EscaperFor(mode)
	if !ok {
		l.fail(fmt.Errorf("%w: %q", ErrInvalidEscape, mode))
		esc = render.EscapeHTML
	}
	l.c.escape = esc
	l.c.escapeMode = mode
	if mode == "" {
		l.c.escapeMode = "html"
	}
}

func (l *loader) loadStates(raw []RawState) {
	for i, rs := range raw {
		if !l.name("state", rs.Name, ErrInvalidName) {
			continue
		}
		if _, dup := l.c.stateIndex[rs.Name]; dup {
			l.fail(fmt.Errorf("%w: %q", ErrDuplicateState, rs.Name))
			continue
		}
		sev, ok := ParseSeverity(rs.Severity)
		if !ok {
			l.fail(fmt.Errorf("%w: state %q has severity %q", ErrInvalidSeverity, rs.Name, rs.Severity))
			continue
		}
		if r := validation.ValidateDescription("description", rs.Description); !r.Valid {
			_, msg := r.First()
			l.fail(fmt.Errorf("%w: state %q: %s", ErrInvalidCatalog, rs.Name, msg))
			continue
		}
		if rs.Condition == nil {
			l.fail(fmt.Errorf("%w: %q", ErrMissingCondition, rs.Name))
			continue
		}
		for flag := range rs.Flags {
			l.name("flag", flag, ErrInvalidName)
		}
		def, err := NewStateDefinition(rs.Name, rs.Priority, sev, *rs.Condition, copyFlags(rs.Flags))
		if err != nil {
			l.fail(fmt.Errorf("state %q (#%d): %w", rs.Name, i, err))
			continue
		}
		def.Description = rs.Description
		l.c.stateIndex[rs.Name] = -1
		l.c.states = append(l.c.states, def)
	}

	sort.SliceStable(l.c.states, func(i, j int) bool {
		a, b := l.c.states[i], l.c.states[j]
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		return a.Name < b.Name
	})
	for i, s := range l.c.states {
		l.c.stateIndex[s.Name] = i
	}
}

func (l *loader) loadIntentions(raw []RawIntention) {
	for _, ri := range raw {
		if !l.name("intention", ri.Name, ErrInvalidName) {
			continue
		}
		if _, dup := l.c.intentIndex[ri.Name]; dup {
			l.fail(fmt.Errorf("%w: %q", ErrDuplicateIntention, ri.Name))
			continue
		}
		l.c.intentIndex[ri.Name] = len(l.c.intentions)
		l.c.intentions = append(l.c.intentions, IntentionDefinition{Name: ri.Name, Description: ri.Description})
	}
}

func (l *loader) loadTemplates(templates, partials map[string]string) {
	parse := func(kind string, bodies map[string]string, into map[string]*render.Template) {
		for _, name := range sortedNames(bodies) {
			if !l.name(kind, name, ErrInvalidName) {
				continue
			}
			t, err := render.Parse(name, bodies[name])
			if err != nil {
				l.fail(fmt.Errorf("%s %q: %w", kind, name, err))
				continue
			}
			into[name] = t
		}
	}
	parse("template", templates, l.c.templates)
	parse("partial", partials, l.c.partials)
}

func (l *loader) loadResolutions(raw []RawResolution) {
	seen := make(map[resolutionKey]bool, len(raw))
	for _, rr := range raw {
		ok := true
		if rr.State != Wildcard {
			if _, known := l.c.stateIndex[rr.State]; !known {
				l.fail(fmt.Errorf("%w: resolution (%s, %s) names state %q", ErrUnknownState, rr.State, rr.Intention, rr.State))
				ok = false
			}
		}
		if !l.c.hasIntentionName(rr.Intention) {
			l.fail(fmt.Errorf("%w: resolution (%s, %s) names intention %q", ErrUnknownIntention, rr.State, rr.Intention, rr.Intention))
			ok = false
		}
		if _, found := l.c.templates[rr.Template]; !found {
			l.fail(fmt.Errorf("%w: resolution (%s, %s) names template %q", ErrDanglingTemplate, rr.State, rr.Intention, rr.Template))
			ok = false
		}
		for flag := range rr.Flags {
			if !l.name("flag", flag, ErrInvalidName) {
				ok = false
			}
		}
		key := resolutionKey{state: rr.State, intention: rr.Intention}
		if seen[key] {
			l.fail(fmt.Errorf("%w: (%s, %s)", ErrDuplicateResolution, rr.State, rr.Intention))
			continue
		}
		seen[key] = true
		if !ok {
			continue
		}
		l.c.resIndex[key] = len(l.c.resolutions)
		l.c.resolutions = append(l.c.resolutions, ResolutionEntry{
			StateKey:     rr.State,
			IntentionKey: rr.Intention,
			TemplateID:   rr.Template,
			Flags:        copyFlags(rr.Flags),
		})
	}
}

func (c *Catalog) hasIntentionName(name string) bool {
	_, ok := c.intentIndex[name]
	return ok
}

func (l *loader) loadDefault(id string) {
	if id == "" {
		id = DefaultTemplateID
	}
	l.c.defaultID = id
	if _, ok := l.c.templates[id]; !ok {
		l.fail(fmt.Errorf("%w: default template %q is not defined", ErrDanglingTemplate, id))
	}
}

func (l *loader) checkPartials() {
	check := func(kind string, all map[string]*render.Template) {
		for _, name := range sortedKeys(all) {
			for _, p := range all[name].Partials() {
				if _, ok := l.c.partials[p]; !ok {
					l.c.warnings = append(l.c.warnings, fmt.Sprintf("%s %q includes undefined partial %q", kind, name, p))
				}
			}
		}
	}
	check("template", l.c.templates)
	check("partial", l.c.partials)

	for _, cycle := range partialCycles(l.c.partials) {
		l.c.warnings = append(l.c.warnings, fmt.Sprintf("partial cycle %s renders empty at the repeated partial", strings.Join(cycle, " -> ")))
	}
}

// partialCycles returns each include cycle among partials once, starting at its
// smallest name.
func partialCycles(partials map[string]*render.Template) [][]string {
	const (
		unvisited = iota
		onStack
		done
	)
	state := make(map[string]int, len(partials))
	var stack []string
	var cycles [][]string
	seen := make(map[string]bool)

	var visit func(name string)
	visit = func(name string) {
		state[name] = onStack
		stack = append(stack, name)
		for _, next := range partials[name].Partials() {
			if _, ok := partials[next]; !ok {
				continue
			}
			switch state[next] {
			case unvisited:
				visit(next)
			case onStack:
				i := slices.Index(stack, next)
				cycle := rotate(append(slices.Clone(stack[i:]), next))
				if key := strings.Join(cycle, "\x00"); !seen[key] {
					seen[key] = true
					cycles = append(cycles, cycle)
				}
			}
		}
		stack = stack[:len(stack)-1]
		state[name] = done
	}
	for _, name := range sortedKeys(partials) {
		if state[name] == unvisited {
			visit(name)
		}
	}
	return cycles
}

// rotate turns a closed path a -> ... -> a so it starts at its smallest name.
func rotate(path []string) []string {
	ring := path[:len(path)-1]
	lo := 0
	for i, n := range ring {
		if n < ring[lo] {
			lo = i
		}
	}
	out := append(slices.Clone(ring[lo:]), ring[:lo]...)
	return append(out, out[0])
}

func sortedNames(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func copyFlags(in map[string]bool) map[string]bool {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]bool, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
