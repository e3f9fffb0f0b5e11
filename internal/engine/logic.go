package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/diegoholiveira/jsonlogic/v3"

	"github.com/fouedh91760/a-level-saver-sub001/internal/fields"
	"github.com/fouedh91760/a-level-saver-sub001/internal/rules"
)

// logicNode evaluates a JSON Logic rule (jsonlogic.com) against the whole context.
// JSON Logic has no notion of absence, so the fields the rule reads are collected at
// compile time and a missing one makes the node Unknown before the rule runs.
type logicNode struct {
	rule string
	vars []string
}

// logicOperators is the operator set of the jsonlogic library.
var logicOperators = map[string]bool{
	"var": true, "missing": true, "missing_some": true,
	"if": true, "?:": true,
	"==": true, "===": true, "!=": true, "!==": true, "!": true, "!!": true,
	"or": true, "and": true,
	">": true, ">=": true, "<": true, "<=": true,
	"max": true, "min": true,
	"+": true, "-": true, "*": true, "/": true, "%": true,
	"map": true, "filter": true, "reduce": true, "all": true, "none": true, "some": true,
	"merge": true, "in": true, "cat": true, "substr": true,
}

// scoped operators evaluate their later arguments against each element, so only the
// first argument reads the context.
var scopedLogicOperators = map[string]bool{
	"map": true, "filter": true, "reduce": true, "all": true, "none": true, "some": true,
}

func compileLogic(path string, rule any) (Predicate, error) {
	rule = normalizeYAML(rule)
	raw, err := json.Marshal(rule)
	if err != nil {
		return nil, fmt.Errorf("%w: %s logic rule is not JSON-encodable: %v", rules.ErrInvalidExpression, path, err)
	}
	w := logicWalker{seen: make(map[string]bool)}
	if err := w.walk(rule, true); err != nil {
		return nil, fmt.Errorf("%w: %s logic rule: %v", rules.ErrInvalidExpression, path, err)
	}
	var out bytes.Buffer
	if err := jsonlogic.Apply(bytes.NewReader(raw), strings.NewReader("{}"), &out); err != nil {
		return nil, fmt.Errorf("%w: %s logic rule: %v", rules.ErrInvalidExpression, path, err)
	}
	return logicNode{rule: string(raw), vars: w.vars}, nil
}

type logicWalker struct {
	vars []string
	seen map[string]bool
}

// walk rejects unknown operators and records the context paths read by var. root
// is false inside the per-element arguments of scoped operators.
func (w *logicWalker) walk(node any, root bool) error {
	switch val := node.(type) {
	case []any:
		for _, item := range val {
			if err := w.walk(item, root); err != nil {
				return err
			}
		}
	case map[string]any:
		if len(val) != 1 {
			for _, item := range val {
				if err := w.walk(item, root); err != nil {
					return err
				}
			}
			return nil
		}
		for op, args := range val {
			if !logicOperators[op] {
				return fmt.Errorf("unsupported operator %q", op)
			}
			switch {
			case op == "var":
				if root {
					w.addVar(args)
				}
				return w.walk(args, root)
			case scopedLogicOperators[op]:
				list, ok := args.([]any)
				if !ok {
					return w.walk(args, root)
				}
				for i, item := range list {
					if err := w.walk(item, root && i == 0); err != nil {
						return err
					}
				}
			default:
				return w.walk(args, root)
			}
		}
	}
	return nil
}

// addVar records a var path. A var with a default value, or one naming the whole
// data object, is never Unknown.
func (w *logicWalker) addVar(args any) {
	if list, ok := args.([]any); ok {
		if len(list) != 1 {
			return
		}
		args = list[0]
	}
	name, ok := args.(string)
	if !ok || name == "" || w.seen[name] {
		return
	}
	w.seen[name] = true
	w.vars = append(w.vars, name)
}

func (n logicNode) Eval(ctx Context) Truth {
	for _, path := range n.vars {
		if v, ok := fields.Lookup(ctx, path); !ok || v == nil {
			return Unknown
		}
	}
	data, err := json.Marshal(ctx)
	if err != nil {
		return Unknown
	}
	var out bytes.Buffer
	if err := jsonlogic.Apply(strings.NewReader(n.rule), bytes.NewReader(data), &out); err != nil {
		return Unknown
	}
	var result any
	if err := json.Unmarshal(out.Bytes(), &result); err != nil {
		return Unknown
	}
	return truthOf(isTruthy(result))
}

// isTruthy follows JavaScript-like truthiness, which is what JSON Logic rules expect.
func isTruthy(v any) bool {
	if v == nil {
		return false
	}
	switch val := v.(type) {
	case bool:
		return val
	case float64:
		return val != 0
	case string:
		return val != ""
	case []any:
		return len(val) > 0
	case map[string]any:
		return len(val) > 0
	default:
		return true
	}
}

// normalizeYAML converts map[any]any nodes (older YAML decoders) into
// map[string]any so the rule can be JSON-encoded.
func normalizeYAML(v any) any {
	switch val := v.(type) {
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[fmt.Sprint(k)] = normalizeYAML(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = normalizeYAML(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalizeYAML(item)
		}
		return out
	default:
		return v
	}
}
