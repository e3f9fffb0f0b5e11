package engine

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"

	"github.com/fouedh91760/a-level-saver-sub001/internal/rules"
)

const celProgramCacheSize = 256

var (
	celEnv = sync.OnceValues(func() (*cel.Env, error) {
		return cel.NewEnv(cel.Variable("ctx", cel.MapType(cel.StringType, cel.DynType)))
	})
	// celPrograms survives catalog reloads so unchanged expressions are not recompiled.
	celPrograms = mustLRU[string, cel.Program](celProgramCacheSize)
)

type celNode struct {
	expr    string
	program cel.Program
}

func compileCEL(path, expr string) (Predicate, error) {
	if prg, ok := celPrograms.Get(expr); ok {
		return celNode{expr: expr, program: prg}, nil
	}
	env, err := celEnv()
	if err != nil {
		return nil, fmt.Errorf("cel environment: %w", err)
	}
	ast, iss := env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return nil, fmt.Errorf("%w: %s cel %q: %v", rules.ErrInvalidExpression, path, expr, iss.Err())
	}
	if out := ast.OutputType(); !out.IsExactType(cel.BoolType) && !out.IsExactType(cel.DynType) {
		return nil, fmt.Errorf("%w: %s cel %q yields %s, want bool", rules.ErrInvalidExpression, path, expr, out)
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("%w: %s cel %q: %v", rules.ErrInvalidExpression, path, expr, err)
	}
	celPrograms.Add(expr, prg)
	return celNode{expr: expr, program: prg}, nil
}

// Eval maps evaluation errors (typically "no such key") to Unknown.
func (n celNode) Eval(ctx Context) Truth {
	if ctx == nil {
		ctx = Context{}
	}
	out, _, err := n.program.Eval(map[string]any{"ctx": map[string]any(ctx)})
	if err != nil || types.IsError(out) {
		return Unknown
	}
	b, ok := out.Value().(bool)
	if !ok {
		return Unknown
	}
	return truthOf(b)
}
