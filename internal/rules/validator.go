package rules

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Sentinel errors returned by ValidateCondition.
var (
	ErrInvalidCondition  = errors.New("invalid condition")
	ErrInvalidOperator   = errors.New("invalid operator")
	ErrInvalidValueType  = errors.New("invalid value type")
	ErrInvalidExpression = errors.New("invalid expression")
)

type operandKind int

const (
	operandNone operandKind = iota
	operandScalar
	operandString
	operandList
	operandNumber
	operandRegex
	operandVersion
	operandTime
)

// operators maps every supported operator to the operand its value must carry.
var operators = map[Operator]operandKind{
	OpEq:         operandScalar,
	OpNeq:        operandScalar,
	OpIn:         operandList,
	OpNotIn:      operandList,
	OpContains:   operandScalar,
	OpStartsWith: operandString,
	OpEndsWith:   operandString,
	OpRegex:      operandRegex,
	OpGt:         operandNumber,
	OpGte:        operandNumber,
	OpLt:         operandNumber,
	OpLte:        operandNumber,
	OpSemVerGt:   operandVersion,
	OpSemVerLt:   operandVersion,
	OpBefore:     operandTime,
	OpAfter:      operandTime,
	OpOnOrBefore: operandTime,
	OpOnOrAfter:  operandTime,
	OpExists:     operandNone,
	OpMissing:    operandNone,
	OpIsTrue:     operandNone,
	OpIsFalse:    operandNone,
	OpEmpty:      operandNone,
	OpNotEmpty:   operandNone,
}

// NormalizeOperator maps accepted aliases ("==", "in_list", "nin", ...) to the
// canonical operator. Unknown operators are returned lower-cased and unchanged.
func NormalizeOperator(op Operator) Operator {
	switch strings.ToLower(strings.TrimSpace(string(op))) {
	case "==", "eq", "equals":
		return OpEq
	case "!=", "neq", "not_equals":
		return OpNeq
	case "in", "in_list", "is_in":
		return OpIn
	case "not_in", "not_in_list", "nin":
		return OpNotIn
	case "startswith", "starts_with":
		return OpStartsWith
	case "endswith", "ends_with":
		return OpEndsWith
	case "regex", "matches":
		return OpRegex
	case ">", "gt":
		return OpGt
	case ">=", "gte":
		return OpGte
	case "<", "lt":
		return OpLt
	case "<=", "lte":
		return OpLte
	case "version_gt", "semver_gt":
		return OpSemVerGt
	case "version_lt", "semver_lt":
		return OpSemVerLt
	case "is_before", "before":
		return OpBefore
	case "is_after", "after":
		return OpAfter
	default:
		return Operator(strings.ToLower(strings.TrimSpace(string(op))))
	}
}

// IsSupported reports whether op (after normalization) is a known operator.
func IsSupported(op Operator) bool {
	_, ok := operators[NormalizeOperator(op)]
	return ok
}

// ValidateCondition performs strict structural validation of a condition tree.
// It never mutates c. logic and cel payloads are only checked for presence here;
// the engine compiles them and reports their syntax errors.
func ValidateCondition(c Condition) error {
	return validateNode("condition", c)
}

func validateNode(path string, c Condition) error {
	switch c.Kind() {
	case KindCompare:
		return validateCompare(path, c)
	case KindAll:
		return validateChildren(path+".all", c.All)
	case KindAny:
		return validateChildren(path+".any", c.Any)
	case KindNot:
		return validateNode(path+".not", *c.Not)
	case KindLogic:
		return nil
	case KindCEL:
		if strings.TrimSpace(c.CEL) == "" {
			return fmt.Errorf("%w: %s cel expression must not be blank", ErrInvalidExpression, path)
		}
		return nil
	default:
		return fmt.Errorf("%w: %s must set exactly one of field/op, all, any, not, logic, cel", ErrInvalidCondition, path)
	}
}

func validateChildren(path string, children []Condition) error {
	if len(children) == 0 {
		return fmt.Errorf("%w: %s must not be empty", ErrInvalidCondition, path)
	}
	for i, child := range children {
		if err := validateNode(fmt.Sprintf("%s[%d]", path, i), child); err != nil {
			return err
		}
	}
	return nil
}

func validateCompare(path string, c Condition) error {
	if strings.TrimSpace(c.Field) == "" {
		return fmt.Errorf("%w: %s field must not be empty", ErrInvalidCondition, path)
	}
	op := NormalizeOperator(c.Op)
	operand, ok := operators[op]
	if !ok {
		return fmt.Errorf("%w: %s operator %q is not supported", ErrInvalidOperator, path, c.Op)
	}

	if operand == operandNone {
		if c.Value != nil || c.Ref != "" {
			return fmt.Errorf("%w: %s operator %q takes no value", ErrInvalidValueType, path, op)
		}
		return nil
	}
	if c.Ref != "" {
		if c.Value != nil {
			return fmt.Errorf("%w: %s sets both value and ref", ErrInvalidCondition, path)
		}
		return nil
	}
	return validateOperand(path, op, operand, c.Value)
}

func validateOperand(path string, op Operator, operand operandKind, v any) error {
	mismatch := func(want string) error {
		return fmt.Errorf("%w: %s operator %q requires %s, got %T", ErrInvalidValueType, path, op, want, v)
	}
	switch operand {
	case operandScalar:
		if !IsScalar(v) {
			return mismatch("a scalar value")
		}
	case operandString:
		if _, ok := v.(string); !ok {
			return mismatch("a string value")
		}
	case operandList:
		if !IsSlice(v) {
			return mismatch("a list value")
		}
	case operandNumber:
		if !IsNumeric(v) {
			return mismatch("a numeric value")
		}
	case operandRegex:
		s, ok := v.(string)
		if !ok {
			return mismatch("a string pattern")
		}
		if _, err := regexp.Compile(s); err != nil {
			return fmt.Errorf("%w: %s pattern %q: %v", ErrInvalidValueType, path, s, err)
		}
	case operandVersion:
		s, ok := v.(string)
		if !ok {
			return mismatch("a version string")
		}
		if _, err := semver.NewVersion(s); err != nil {
			return fmt.Errorf("%w: %s version %q: %v", ErrInvalidValueType, path, s, err)
		}
	case operandTime:
		if _, ok := ParseTime(v); !ok {
			return mismatch("a date (YYYY-MM-DD or RFC 3339) or ref")
		}
	}
	return nil
}
