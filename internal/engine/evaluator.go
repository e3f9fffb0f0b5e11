package engine

import (
	"fmt"
	"regexp"

	"github.com/fouedh91760/a-level-saver-sub001/internal/fields"
	"github.com/fouedh91760/a-level-saver-sub001/internal/rules"
)

// Predicate is a compiled condition. Compiled predicates are immutable and safe for
// concurrent use.
type Predicate interface {
	Eval(ctx Context) Truth
}

// Compile validates c and turns it into a Predicate. Every configuration problem
// (unknown operator, bad operand, malformed JSON Logic, CEL type errors) surfaces
// here so a catalog fails at load time rather than mid-resolution.
func Compile(c rules.Condition) (Predicate, error) {
	if err := rules.ValidateCondition(c); err != nil {
		return nil, err
	}
	return compileNode("condition", c)
}

// Evaluate compiles and evaluates c in one step. Intended for tests and one-off checks;
// catalogs compile once at load.
func Evaluate(c rules.Condition, ctx Context) (Truth, error) {
	p, err := Compile(c)
	if err != nil {
		return Unknown, err
	}
	return p.Eval(ctx), nil
}

func compileNode(path string, c rules.Condition) (Predicate, error) {
	switch c.Kind() {
	case rules.KindCompare:
		return compileCompare(c)
	case rules.KindAll, rules.KindAny:
		children := c.All
		label := "all"
		if c.Kind() == rules.KindAny {
			children, label = c.Any, "any"
		}
		compiled := make([]Predicate, 0, len(children))
		for i, child := range children {
			p, err := compileNode(fmt.Sprintf("%s.%s[%d]", path, label, i), child)
			if err != nil {
				return nil, err
			}
			compiled = append(compiled, p)
		}
		if label == "any" {
			return anyNode(compiled), nil
		}
		return allNode(compiled), nil
	case rules.KindNot:
		inner, err := compileNode(path+".not", *c.Not)
		if err != nil {
			return nil, err
		}
		return notNode{inner: inner}, nil
	case rules.KindLogic:
		return compileLogic(path, c.Logic)
	case rules.KindCEL:
		return compileCEL(path, c.CEL)
	}
	return nil, fmt.Errorf("%w: %s has no recognizable shape", rules.ErrInvalidCondition, path)
}

type compareNode struct {
	field    string
	op       rules.Operator
	ref      string
	value    any
	handler  OperatorHandler
	presence bool
}

func compileCompare(c rules.Condition) (Predicate, error) {
	op := rules.NormalizeOperator(c.Op)
	n := compareNode{field: c.Field, op: op, ref: c.Ref, value: c.Value}
	if op == rules.OpExists || op == rules.OpMissing {
		n.presence = true
		return n, nil
	}
	h, ok := getOperatorHandler(op)
	if !ok {
		return nil, fmt.Errorf("%w: operator %q has no handler", rules.ErrInvalidOperator, c.Op)
	}
	n.handler = h
	if op == rules.OpRegex && c.Ref == "" {
		pattern, _ := c.Value.(string)
		rx, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("%w: pattern %q: %v", rules.ErrInvalidValueType, pattern, err)
		}
		n.value = rx
	}
	return n, nil
}

// Eval treats an absent or null field as Unknown. Only exists/missing decide on absence.
func (n compareNode) Eval(ctx Context) Truth {
	actual, ok := fields.Lookup(ctx, n.field)
	present := ok && actual != nil
	if n.presence {
		if n.op == rules.OpExists {
			return truthOf(present)
		}
		return truthOf(!present)
	}
	if !present {
		return Unknown
	}
	expected := n.value
	if n.ref != "" {
		rv, ok := fields.Lookup(ctx, n.ref)
		if !ok || rv == nil {
			return Unknown
		}
		expected = rv
	}
	return truthOf(n.handler.Check(actual, expected))
}

type allNode []Predicate

// Eval is Kleene AND: any False wins, then any Unknown, else True.
func (n allNode) Eval(ctx Context) Truth {
	result := True
	for _, p := range n {
		switch p.Eval(ctx) {
		case False:
			return False
		case Unknown:
			result = Unknown
		}
	}
	return result
}

type anyNode []Predicate

// Eval is Kleene OR: any True wins, then any Unknown, else False.
func (n anyNode) Eval(ctx Context) Truth {
	result := False
	for _, p := range n {
		switch p.Eval(ctx) {
		case True:
			return True
		case Unknown:
			result = Unknown
		}
	}
	return result
}

type notNode struct {
	inner Predicate
}

func (n notNode) Eval(ctx Context) Truth { return Not(n.inner.Eval(ctx)) }

// Constant is a predicate with a fixed outcome, used for always-on states.
type Constant Truth

func (c Constant) Eval(Context) Truth { return Truth(c) }
