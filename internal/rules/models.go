package rules

// Operator names a comparison or named predicate used in a condition leaf.
type Operator string

// Supported operators (string values for clean YAML/JSON serialization).
const (
	OpEq         Operator = "eq"
	OpNeq        Operator = "neq"
	OpIn         Operator = "in"
	OpNotIn      Operator = "not_in"
	OpContains   Operator = "contains"
	OpStartsWith Operator = "starts_with"
	OpEndsWith   Operator = "ends_with"
	OpRegex      Operator = "regex"
	OpGt         Operator = "gt"
	OpGte        Operator = "gte"
	OpLt         Operator = "lt"
	OpLte        Operator = "lte"
	OpSemVerGt   Operator = "semver_gt"
	OpSemVerLt   Operator = "semver_lt"
	OpBefore     Operator = "before"
	OpAfter      Operator = "after"
	OpOnOrBefore Operator = "on_or_before"
	OpOnOrAfter  Operator = "on_or_after"
	OpExists     Operator = "exists"
	OpMissing    Operator = "missing"
	OpIsTrue     Operator = "is_true"
	OpIsFalse    Operator = "is_false"
	OpEmpty      Operator = "empty"
	OpNotEmpty   Operator = "not_empty"
)

// Kind identifies which shape a Condition node has.
type Kind string

const (
	KindCompare Kind = "compare"
	KindAll     Kind = "all"
	KindAny     Kind = "any"
	KindNot     Kind = "not"
	KindLogic   Kind = "logic"
	KindCEL     Kind = "cel"
	KindInvalid Kind = ""
)

// Condition is one node of a state's condition tree. Exactly one shape must be set:
//
//	{field, op, value}   compare a context field against a literal
//	{field, op, ref}     compare a context field against another context field
//	{field, op}          named predicate (exists, missing, is_true, ...)
//	{all: [...]}         every child must hold
//	{any: [...]}         at least one child must hold
//	{not: {...}}         negation
//	{logic: {...}}       JSON Logic rule evaluated against the whole context
//	{cel: "..."}         CEL expression over the variable ctx, must yield bool
type Condition struct {
	Field string      `json:"field,omitempty" yaml:"field,omitempty"`
	Op    Operator    `json:"op,omitempty" yaml:"op,omitempty"`
	Value any         `json:"value,omitempty" yaml:"value,omitempty"`
	Ref   string      `json:"ref,omitempty" yaml:"ref,omitempty"`
	All   []Condition `json:"all,omitempty" yaml:"all,omitempty"`
	Any   []Condition `json:"any,omitempty" yaml:"any,omitempty"`
	Not   *Condition  `json:"not,omitempty" yaml:"not,omitempty"`
	Logic any         `json:"logic,omitempty" yaml:"logic,omitempty"`
	CEL   string      `json:"cel,omitempty" yaml:"cel,omitempty"`
}

// Kind reports the node shape, or KindInvalid when zero or several shapes are set.
func (c Condition) Kind() Kind {
	kinds := make([]Kind, 0, 1)
	if c.Field != "" || c.Op != "" {
		kinds = append(kinds, KindCompare)
	}
	if c.All != nil {
		kinds = append(kinds, KindAll)
	}
	if c.Any != nil {
		kinds = append(kinds, KindAny)
	}
	if c.Not != nil {
		kinds = append(kinds, KindNot)
	}
	if c.Logic != nil {
		kinds = append(kinds, KindLogic)
	}
	if c.CEL != "" {
		kinds = append(kinds, KindCEL)
	}
	if len(kinds) != 1 {
		return KindInvalid
	}
	return kinds[0]
}

// Fields returns every context field a compare node below c references, in
// depth-first order, duplicates included. logic and cel nodes are opaque.
func (c Condition) Fields() []string {
	var out []string
	var walk func(Condition)
	walk = func(n Condition) {
		if n.Field != "" {
			out = append(out, n.Field)
		}
		if n.Ref != "" {
			out = append(out, n.Ref)
		}
		for _, child := range n.All {
			walk(child)
		}
		for _, child := range n.Any {
			walk(child)
		}
		if n.Not != nil {
			walk(*n.Not)
		}
	}
	walk(c)
	return out
}
