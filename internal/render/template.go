// Package render implements the small template language responses are written in:
// interpolation, if/unless, each loops and partial inclusion.
//
//	Hello {{name}}                   escaped interpolation, dotted paths allowed
//	{{{html}}} / {{& html}}          raw interpolation
//	{{#if paid}}..{{else}}..{{/if}}  truthiness test (see IsTruthy)
//	{{#unless paid}}..{{/unless}}    negated test
//	{{#each sessions as s}}          loop; s, @index, @first and @last inside
//	  {{s.label}}
//	{{else}}none{{/each}}            rendered when the list is empty or missing
//	{{> signature}}                  partial, resolved by name at render time
//	{{! comment }}
//
// Templates are parsed once into an immutable tree that can be rendered
// concurrently. Parse errors are configuration errors; rendering never fails.
package render

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSyntax is wrapped by every parse error.
var ErrSyntax = errors.New("template syntax error")

// Template is a parsed template. It is immutable after Parse.
type Template struct {
	name     string
	source   string
	nodes    []node
	partials []string
}

// Name returns the name the template was parsed under.
func (t *Template) Name() string { return t.name }

// Source returns the original template body.
func (t *Template) Source() string { return t.source }

// Partials lists the partial names the template references, in first-use order.
func (t *Template) Partials() []string {
	out := make([]string, len(t.partials))
	copy(out, t.partials)
	return out
}

type node interface{}

type textNode struct {
	text string
}

type varNode struct {
	path string
	raw  bool
}

type condNode struct {
	path   string
	negate bool
	then   []node
	els    []node
}

type eachNode struct {
	path  string
	alias string
	body  []node
	els   []node
}

type partialNode struct {
	name string
}

const defaultAlias = "this"

// block is an open {{#...}} section on the parse stack.
type block struct {
	keyword string
	line    int
	cond    *condNode
	each    *eachNode
	inElse  bool
}

func (b *block) append(n node) {
	switch {
	case b.cond != nil && b.inElse:
		b.cond.els = append(b.cond.els, n)
	case b.cond != nil:
		b.cond.then = append(b.cond.then, n)
	case b.inElse:
		b.each.els = append(b.each.els, n)
	default:
		b.each.body = append(b.each.body, n)
	}
}

type parser struct {
	name     string
	root     []node
	stack    []*block
	partials []string
	seen     map[string]bool
}

func (p *parser) emit(n node) {
	if len(p.stack) == 0 {
		p.root = append(p.root, n)
		return
	}
	p.stack[len(p.stack)-1].append(n)
}

func (p *parser) errorf(line int, format string, args ...any) error {
	return fmt.Errorf("%w: %s:%d: %s", ErrSyntax, p.name, line, fmt.Sprintf(format, args...))
}

// Parse compiles body into a Template.
func Parse(name, body string) (*Template, error) {
	p := &parser{name: name, seen: make(map[string]bool)}
	rest := body
	line := 1
	for len(rest) > 0 {
		open := strings.Index(rest, "{{")
		if open < 0 {
			p.emit(textNode{text: rest})
			break
		}
		if open > 0 {
			p.emit(textNode{text: rest[:open]})
			line += strings.Count(rest[:open], "\n")
			rest = rest[open:]
		}

		raw := strings.HasPrefix(rest, "{{{")
		comment := strings.HasPrefix(rest, "{{!")
		closer, skip := "}}", 2
		switch {
		case raw:
			closer, skip = "}}}", 3
		case strings.HasPrefix(rest, "{{!--"):
			closer, skip = "--}}", 5
		}
		end := strings.Index(rest[skip:], closer)
		if end < 0 {
			return nil, p.errorf(line, "unterminated tag %q", abbreviate(rest))
		}
		if !comment {
			if err := p.tag(line, rest[skip:skip+end], raw); err != nil {
				return nil, err
			}
		}
		consumed := skip + end + len(closer)
		line += strings.Count(rest[:consumed], "\n")
		rest = rest[consumed:]
	}
	if len(p.stack) > 0 {
		open := p.stack[len(p.stack)-1]
		return nil, p.errorf(open.line, "unclosed {{#%s}}", open.keyword)
	}
	return &Template{name: name, source: body, nodes: p.root, partials: p.partials}, nil
}

func (p *parser) tag(line int, tag string, raw bool) error {
	tag = strings.TrimSpace(tag)
	if raw {
		if !validPath(tag) {
			return p.errorf(line, "invalid variable %q", tag)
		}
		p.emit(varNode{path: tag, raw: true})
		return nil
	}
	if tag == "" {
		return p.errorf(line, "empty tag")
	}

	switch tag[0] {
	case '&':
		path := strings.TrimSpace(tag[1:])
		if !validPath(path) {
			return p.errorf(line, "invalid variable %q", path)
		}
		p.emit(varNode{path: path, raw: true})
		return nil
	case '>':
		name := strings.TrimSpace(tag[1:])
		if name == "" || strings.ContainsAny(name, " \t\n") {
			return p.errorf(line, "invalid partial name %q", name)
		}
		if !p.seen[name] {
			p.seen[name] = true
			p.partials = append(p.partials, name)
		}
		p.emit(partialNode{name: name})
		return nil
	case '#':
		return p.openBlock(line, tag[1:])
	case '/':
		return p.closeBlock(line, strings.TrimSpace(tag[1:]))
	}

	if tag == "else" {
		if len(p.stack) == 0 {
			return p.errorf(line, "{{else}} outside of a block")
		}
		top := p.stack[len(p.stack)-1]
		if top.inElse {
			return p.errorf(line, "duplicate {{else}} in {{#%s}}", top.keyword)
		}
		top.inElse = true
		return nil
	}

	if !validPath(tag) {
		return p.errorf(line, "invalid variable %q", tag)
	}
	p.emit(varNode{path: tag})
	return nil
}

func (p *parser) openBlock(line int, spec string) error {
	parts := strings.Fields(spec)
	if len(parts) == 0 {
		return p.errorf(line, "empty block")
	}
	keyword, args := parts[0], parts[1:]
	b := &block{keyword: keyword, line: line}
	switch keyword {
	case "if", "unless":
		if len(args) != 1 || !validPath(args[0]) {
			return p.errorf(line, "{{#%s}} takes exactly one path", keyword)
		}
		b.cond = &condNode{path: args[0], negate: keyword == "unless"}
	case "each":
		alias := defaultAlias
		switch {
		case len(args) == 1:
		case len(args) == 3 && args[1] == "as":
			alias = strings.Trim(args[2], "|")
		default:
			return p.errorf(line, "{{#each}} expects \"list\" or \"list as item\"")
		}
		if !validPath(args[0]) || !validAlias(alias) {
			return p.errorf(line, "invalid {{#each %s}}", strings.Join(args, " "))
		}
		b.each = &eachNode{path: args[0], alias: alias}
	default:
		return p.errorf(line, "unknown block helper %q", keyword)
	}
	p.stack = append(p.stack, b)
	return nil
}

func (p *parser) closeBlock(line int, keyword string) error {
	if len(p.stack) == 0 {
		return p.errorf(line, "{{/%s}} without matching open block", keyword)
	}
	top := p.stack[len(p.stack)-1]
	if top.keyword != keyword {
		return p.errorf(line, "{{/%s}} closes {{#%s}} opened on line %d", keyword, top.keyword, top.line)
	}
	p.stack = p.stack[:len(p.stack)-1]
	if top.cond != nil {
		p.emit(*top.cond)
	} else {
		p.emit(*top.each)
	}
	return nil
}

func validPath(path string) bool {
	if path == "" || path == "." {
		return path == "."
	}
	if strings.ContainsAny(path, " \t\r\n{}#/>!&") {
		return false
	}
	return !strings.HasPrefix(path, ".") && !strings.HasSuffix(path, ".") && !strings.Contains(path, "..")
}

func validAlias(alias string) bool {
	return alias != "" && !strings.HasPrefix(alias, "@") && validPath(alias) && !strings.Contains(alias, ".")
}

func abbreviate(s string) string {
	const max = 24
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
