package render

import (
	"slices"
	"strings"

	"github.com/fouedh91760/a-level-saver-sub001/internal/fields"
)

// DefaultMaxDepth bounds partial nesting. Cycles are cut earlier, at the first re-entry.
const DefaultMaxDepth = 8

// PartialResolver looks a partial up by name at render time.
type PartialResolver func(name string) (*Template, bool)

// IssueKind classifies a degraded render.
type IssueKind string

const (
	IssueMissingPartial IssueKind = "missing_partial"
	IssuePartialDepth   IssueKind = "partial_depth"
	IssuePartialCycle   IssueKind = "partial_cycle"
)

// Issue describes one partial expansion that rendered empty.
type Issue struct {
	Kind     IssueKind `json:"kind"`
	Partial  string    `json:"partial"`
	Template string    `json:"template"`
	Depth    int       `json:"depth"`
}

// Options tunes a render. The zero value renders HTML-escaped with DefaultMaxDepth.
type Options struct {
	MaxDepth int
	Escape   Escaper
	// OnIssue, if set, is called for every partial that expanded to nothing.
	OnIssue func(Issue)
}

// Render evaluates t against data. Missing values render empty, missing lists loop
// zero times and missing partials expand to nothing; Render never fails.
func Render(t *Template, data map[string]any, partials PartialResolver) string {
	return RenderWith(t, data, partials, Options{})
}

// RenderWith is Render with explicit options.
func RenderWith(t *Template, data map[string]any, partials PartialResolver, opts Options) string {
	if t == nil {
		return ""
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	if opts.Escape == nil {
		opts.Escape = EscapeHTML
	}
	r := &renderer{data: data, partials: partials, opts: opts}
	r.nodes(t.name, t.nodes, 0)
	return r.out.String()
}

// frame is one active {{#each}} iteration.
type frame struct {
	alias string
	value any
	index int
	last  bool
}

type renderer struct {
	out      strings.Builder
	data     map[string]any
	partials PartialResolver
	opts     Options
	scopes   []frame

	// active holds the partials being expanded; cycles is the set already reported.
	active []string
	cycles map[string]bool
}

func (r *renderer) nodes(tmpl string, nodes []node, depth int) {
	for _, n := range nodes {
		switch n := n.(type) {
		case textNode:
			r.out.WriteString(n.text)
		case varNode:
			v, _ := r.lookup(n.path)
			s := Format(v)
			if !n.raw {
				s = r.opts.Escape(s)
			}
			r.out.WriteString(s)
		case condNode:
			v, _ := r.lookup(n.path)
			if IsTruthy(v) != n.negate {
				r.nodes(tmpl, n.then, depth)
			} else {
				r.nodes(tmpl, n.els, depth)
			}
		case eachNode:
			r.each(tmpl, n, depth)
		case partialNode:
			r.partial(tmpl, n.name, depth)
		}
	}
}

func (r *renderer) each(tmpl string, n eachNode, depth int) {
	v, _ := r.lookup(n.path)
	items, ok := fields.Items(v)
	if !ok || len(items) == 0 {
		r.nodes(tmpl, n.els, depth)
		return
	}
	for i, item := range items {
		r.scopes = append(r.scopes, frame{alias: n.alias, value: item, index: i, last: i == len(items)-1})
		r.nodes(tmpl, n.body, depth)
		r.scopes = r.scopes[:len(r.scopes)-1]
	}
}

func (r *renderer) partial(tmpl, name string, depth int) {
	if slices.Contains(r.active, name) {
		if !r.cycles[name] {
			if r.cycles == nil {
				r.cycles = make(map[string]bool)
			}
			r.cycles[name] = true
			r.report(Issue{Kind: IssuePartialCycle, Partial: name, Template: tmpl, Depth: depth + 1})
		}
		return
	}
	if depth+1 > r.opts.MaxDepth {
		r.report(Issue{Kind: IssuePartialDepth, Partial: name, Template: tmpl, Depth: depth + 1})
		return
	}
	if r.partials == nil {
		r.report(Issue{Kind: IssueMissingPartial, Partial: name, Template: tmpl, Depth: depth + 1})
		return
	}
	p, ok := r.partials(name)
	if !ok || p == nil {
		r.report(Issue{Kind: IssueMissingPartial, Partial: name, Template: tmpl, Depth: depth + 1})
		return
	}
	r.active = append(r.active, name)
	r.nodes(p.name, p.nodes, depth+1)
	r.active = r.active[:len(r.active)-1]
}

func (r *renderer) report(issue Issue) {
	if r.opts.OnIssue != nil {
		r.opts.OnIssue(issue)
	}
}

// lookup resolves a path against the loop scopes (innermost first) and then the root
// data. @index, @first and @last refer to the innermost loop.
func (r *renderer) lookup(path string) (any, bool) {
	head, rest, nested := strings.Cut(path, ".")

	if len(r.scopes) > 0 {
		top := r.scopes[len(r.scopes)-1]
		switch path {
		case "@index":
			return top.index, true
		case "@first":
			return top.index == 0, true
		case "@last":
			return top.last, true
		case ".", "this":
			return top.value, true
		}
		for i := len(r.scopes) - 1; i >= 0; i-- {
			s := r.scopes[i]
			if head != s.alias && !(head == "this" && i == len(r.scopes)-1) {
				continue
			}
			if !nested {
				return s.value, true
			}
			return descend(s.value, rest)
		}
		// Bare names inside an anonymous loop resolve against the element first.
		if top.alias == defaultAlias {
			if v, ok := descend(top.value, path); ok {
				return v, true
			}
		}
	} else if path == "." || path == "this" {
		return r.data, r.data != nil
	}
	return fields.Lookup(r.data, path)
}

func descend(v any, path string) (any, bool) {
	if m, ok := v.(map[string]any); ok {
		return fields.Lookup(m, path)
	}
	for _, seg := range strings.Split(path, ".") {
		next, ok := fields.Step(v, seg)
		if !ok {
			return nil, false
		}
		v = next
	}
	return v, true
}
