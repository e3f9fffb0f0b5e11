package engine

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/fouedh91760/a-level-saver-sub001/internal/fields"
	"github.com/fouedh91760/a-level-saver-sub001/internal/rules"
)

// OperatorHandler evaluates one operator against a present context value.
// expected is the literal operand, the value of the ref field, or nil for
// named predicates.
type OperatorHandler interface {
	Check(actual, expected any) bool
}

const regexCacheSize = 512

var (
	operatorHandlers = map[rules.Operator]OperatorHandler{
		rules.OpEq:         equalsHandler{},
		rules.OpNeq:        notEqualsHandler{},
		rules.OpIn:         inListHandler{},
		rules.OpNotIn:      notInListHandler{},
		rules.OpContains:   containsHandler{},
		rules.OpStartsWith: stringHandler{fn: strings.HasPrefix},
		rules.OpEndsWith:   stringHandler{fn: strings.HasSuffix},
		rules.OpRegex:      regexHandler{},
		rules.OpGt:         numericCompareHandler{cmp: func(a, b float64) bool { return a > b }},
		rules.OpGte:        numericCompareHandler{cmp: func(a, b float64) bool { return a >= b }},
		rules.OpLt:         numericCompareHandler{cmp: func(a, b float64) bool { return a < b }},
		rules.OpLte:        numericCompareHandler{cmp: func(a, b float64) bool { return a <= b }},
		rules.OpSemVerGt:   semverCompareHandler{cmp: func(a, b *semver.Version) bool { return a.GreaterThan(b) }},
		rules.OpSemVerLt:   semverCompareHandler{cmp: func(a, b *semver.Version) bool { return a.LessThan(b) }},
		rules.OpBefore:     timeCompareHandler{cmp: func(c int) bool { return c < 0 }},
		rules.OpAfter:      timeCompareHandler{cmp: func(c int) bool { return c > 0 }},
		rules.OpOnOrBefore: timeCompareHandler{cmp: func(c int) bool { return c <= 0 }},
		rules.OpOnOrAfter:  timeCompareHandler{cmp: func(c int) bool { return c >= 0 }},
		rules.OpIsTrue:     boolHandler{want: true},
		rules.OpIsFalse:    boolHandler{want: false},
		rules.OpEmpty:      emptyHandler{want: true},
		rules.OpNotEmpty:   emptyHandler{want: false},
	}
	// regexCache keeps compiled patterns for ref-driven regex conditions; literal
	// patterns are compiled once at load.
	regexCache = mustLRU[string, *regexp.Regexp](regexCacheSize)
)

func mustLRU[K comparable, V any](size int) *lru.Cache[K, V] {
	c, err := lru.New[K, V](size)
	if err != nil {
		panic(fmt.Sprintf("engine: lru.New(%d): %v", size, err))
	}
	return c
}

func getOperatorHandler(op rules.Operator) (OperatorHandler, bool) {
	h, ok := operatorHandlers[rules.NormalizeOperator(op)]
	return h, ok
}

type equalsHandler struct{}

func (equalsHandler) Check(actual, expected any) bool {
	return equalValues(actual, expected)
}

type notEqualsHandler struct{}

func (notEqualsHandler) Check(actual, expected any) bool {
	return !equalValues(actual, expected)
}

// inListHandler matches when actual (or any element of a list-valued actual) equals
// an element of expected.
type inListHandler struct{}

func (inListHandler) Check(actual, expected any) bool {
	list, ok := fields.Items(expected)
	if !ok {
		return false
	}
	if items, ok := fields.Items(actual); ok {
		for _, item := range items {
			if containsValue(list, item) {
				return true
			}
		}
		return false
	}
	return containsValue(list, actual)
}

type notInListHandler struct{}

func (notInListHandler) Check(actual, expected any) bool {
	if _, ok := fields.Items(expected); !ok {
		return false
	}
	return !inListHandler{}.Check(actual, expected)
}

// containsHandler is list membership when actual is a list, substring otherwise.
type containsHandler struct{}

func (containsHandler) Check(actual, expected any) bool {
	if items, ok := fields.Items(actual); ok {
		return containsValue(items, expected)
	}
	user, ok := toString(actual)
	if !ok {
		return false
	}
	rule, ok := toString(expected)
	if !ok {
		return false
	}
	return strings.Contains(normalizeCase(user), normalizeCase(rule))
}

type stringHandler struct {
	fn func(s, affix string) bool
}

func (h stringHandler) Check(actual, expected any) bool {
	user, ok := toString(actual)
	if !ok {
		return false
	}
	rule, ok := toString(expected)
	if !ok {
		return false
	}
	return h.fn(normalizeCase(user), normalizeCase(rule))
}

type regexHandler struct{}

func (regexHandler) Check(actual, expected any) bool {
	user, ok := toString(actual)
	if !ok {
		return false
	}
	var rx *regexp.Regexp
	switch p := expected.(type) {
	case *regexp.Regexp:
		rx = p
	case string:
		rx, ok = getCompiledRegex(p)
		if !ok {
			return false
		}
	default:
		return false
	}
	return rx.MatchString(user)
}

type numericCompareHandler struct {
	cmp func(a, b float64) bool
}

func (h numericCompareHandler) Check(actual, expected any) bool {
	user, ok := toFloat64(actual)
	if !ok {
		return false
	}
	rule, ok := toFloat64(expected)
	if !ok {
		return false
	}
	return h.cmp(user, rule)
}

type semverCompareHandler struct {
	cmp func(a, b *semver.Version) bool
}

func (h semverCompareHandler) Check(actual, expected any) bool {
	userStr, ok := toString(actual)
	if !ok {
		return false
	}
	ruleStr, ok := toString(expected)
	if !ok {
		return false
	}
	userVer, err := semver.NewVersion(userStr)
	if err != nil {
		return false
	}
	ruleVer, err := semver.NewVersion(ruleStr)
	if err != nil {
		return false
	}
	return h.cmp(userVer, ruleVer)
}

// timeCompareHandler compares instants; cmp receives -1, 0 or 1.
type timeCompareHandler struct {
	cmp func(c int) bool
}

func (h timeCompareHandler) Check(actual, expected any) bool {
	a, ok := rules.ParseTime(actual)
	if !ok {
		return false
	}
	b, ok := rules.ParseTime(expected)
	if !ok {
		return false
	}
	return h.cmp(a.Compare(b))
}

type boolHandler struct {
	want bool
}

func (h boolHandler) Check(actual, _ any) bool {
	switch v := actual.(type) {
	case bool:
		return v == h.want
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "yes", "1":
			return h.want
		case "false", "no", "0":
			return !h.want
		}
	}
	return false
}

type emptyHandler struct {
	want bool
}

func (h emptyHandler) Check(actual, _ any) bool {
	return isEmpty(actual) == h.want
}

func isEmpty(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(val) == ""
	case map[string]any:
		return len(val) == 0
	}
	if items, ok := fields.Items(v); ok {
		return len(items) == 0
	}
	return false
}

func getCompiledRegex(pattern string) (*regexp.Regexp, bool) {
	if rx, ok := regexCache.Get(pattern); ok {
		return rx, true
	}
	rx, err := regexp.Compile(pattern)
	if err != nil {
		return nil, false
	}
	regexCache.Add(pattern, rx)
	return rx, true
}

// equalValues compares scalars of compatible kinds: strings with strings, numbers
// with numbers (any width, json.Number included), bools with bools, and times with
// anything ParseTime accepts.
func equalValues(a, b any) bool {
	if as, ok := toString(a); ok {
		if bs, ok := toString(b); ok {
			return equalsString(as, bs)
		}
	}
	if af, ok := toFloat64(a); ok {
		bf, ok := toFloat64(b)
		return ok && af == bf
	}
	if ab, ok := a.(bool); ok {
		bb, ok := b.(bool)
		return ok && ab == bb
	}
	if at, ok := rules.ParseTime(a); ok {
		bt, ok := rules.ParseTime(b)
		return ok && at.Equal(bt)
	}
	return false
}

func containsValue(list []any, v any) bool {
	for _, item := range list {
		if equalValues(v, item) {
			return true
		}
	}
	return false
}

func toString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func equalsString(left, right string) bool {
	return normalizeCase(left) == normalizeCase(right)
}

func normalizeCase(value string) string {
	// Keep case policy centralized; current behavior is case-sensitive.
	return value
}
