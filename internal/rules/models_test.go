package rules

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// YAML decoding
// ---------------------------------------------------------------------------

func TestConditionYAMLDecode(t *testing.T) {
	src := `
all:
  - field: deal.stage
    op: in
    value: [PAID, ENROLLED]
  - not:
      field: exam.date
      op: before
      ref: today
  - field: documents.missing
    op: empty
`
	var c Condition
	if err := yaml.Unmarshal([]byte(src), &c); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if c.Kind() != KindAll {
		t.Fatalf("kind: got %q, want %q", c.Kind(), KindAll)
	}
	if len(c.All) != 3 {
		t.Fatalf("children: got %d, want 3", len(c.All))
	}
	if c.All[1].Kind() != KindNot || c.All[1].Not.Ref != "today" {
		t.Errorf("second child decoded as %+v", c.All[1])
	}
	if err := ValidateCondition(c); err != nil {
		t.Fatalf("ValidateCondition: %v", err)
	}

	want := []string{"deal.stage", "exam.date", "today", "documents.missing"}
	if got := c.Fields(); !reflect.DeepEqual(got, want) {
		t.Errorf("Fields() = %v, want %v", got, want)
	}
}

func TestConditionKind(t *testing.T) {
	tests := []struct {
		name string
		c    Condition
		want Kind
	}{
		{"compare", Condition{Field: "a", Op: OpEq, Value: 1}, KindCompare},
		{"all", Condition{All: []Condition{{Field: "a", Op: OpExists}}}, KindAll},
		{"any", Condition{Any: []Condition{{Field: "a", Op: OpExists}}}, KindAny},
		{"not", Condition{Not: &Condition{Field: "a", Op: OpExists}}, KindNot},
		{"logic", Condition{Logic: map[string]any{"var": "a"}}, KindLogic},
		{"cel", Condition{CEL: "ctx.a == 1"}, KindCEL},
		{"empty", Condition{}, KindInvalid},
		{"two shapes", Condition{Field: "a", Op: OpExists, CEL: "true"}, KindInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.c.Kind(); got != tt.want {
				t.Errorf("Kind() = %q, want %q", got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Validation
// ---------------------------------------------------------------------------

func TestValidateCondition_Success(t *testing.T) {
	tests := []struct {
		name string
		c    Condition
	}{
		{"eq string", Condition{Field: "plan", Op: OpEq, Value: "premium"}},
		{"eq alias", Condition{Field: "plan", Op: "==", Value: "premium"}},
		{"in list", Condition{Field: "country", Op: OpIn, Value: []any{"FR", "BE"}}},
		{"gt int", Condition{Field: "age", Op: OpGt, Value: 18}},
		{"gt ref", Condition{Field: "paid", Op: OpGt, Ref: "due"}},
		{"regex", Condition{Field: "email", Op: OpRegex, Value: `^[^@]+@example\.com$`}},
		{"semver", Condition{Field: "app", Op: OpSemVerGt, Value: "1.2.0"}},
		{"date literal", Condition{Field: "exam.date", Op: OpBefore, Value: "2026-01-15"}},
		{"date time.Time", Condition{Field: "exam.date", Op: OpAfter, Value: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}},
		{"date ref", Condition{Field: "exam.date", Op: "is_before", Ref: "today"}},
		{"named predicate", Condition{Field: "deal", Op: OpExists}},
		{"cel", Condition{CEL: "ctx.age > 18"}},
		{"nested", Condition{Any: []Condition{
			{Field: "a", Op: OpIsTrue},
			{Not: &Condition{Field: "b", Op: OpMissing}},
		}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateCondition(tt.c); err != nil {
				t.Fatalf("ValidateCondition() unexpected error: %v", err)
			}
		})
	}
}

func TestValidateCondition_Errors(t *testing.T) {
	tests := []struct {
		name    string
		c       Condition
		wantErr error
	}{
		{"no shape", Condition{}, ErrInvalidCondition},
		{"two shapes", Condition{Field: "a", Op: OpExists, CEL: "true"}, ErrInvalidCondition},
		{"empty field", Condition{Op: OpEq, Value: "x"}, ErrInvalidCondition},
		{"unknown operator", Condition{Field: "a", Op: "is_sunny", Value: "x"}, ErrInvalidOperator},
		{"eq needs scalar", Condition{Field: "a", Op: OpEq, Value: []any{"x"}}, ErrInvalidValueType},
		{"in needs list", Condition{Field: "a", Op: OpIn, Value: "x"}, ErrInvalidValueType},
		{"gt needs number", Condition{Field: "a", Op: OpGt, Value: "10"}, ErrInvalidValueType},
		{"bad regex", Condition{Field: "a", Op: OpRegex, Value: "("}, ErrInvalidValueType},
		{"bad semver", Condition{Field: "a", Op: OpSemVerLt, Value: "one"}, ErrInvalidValueType},
		{"bad date", Condition{Field: "a", Op: OpBefore, Value: "tomorrow-ish"}, ErrInvalidValueType},
		{"predicate with value", Condition{Field: "a", Op: OpExists, Value: true}, ErrInvalidValueType},
		{"value and ref", Condition{Field: "a", Op: OpEq, Value: "x", Ref: "b"}, ErrInvalidCondition},
		{"empty all", Condition{All: []Condition{}}, ErrInvalidCondition},
		{"nested bad child", Condition{Any: []Condition{{Field: "a", Op: "nope"}}}, ErrInvalidOperator},
		{"blank cel", Condition{CEL: "   "}, ErrInvalidExpression},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCondition(tt.c)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ValidateCondition() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseTime(t *testing.T) {
	tests := []struct {
		in   any
		want time.Time
		ok   bool
	}{
		{"2026-03-01", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), true},
		{"2026-03-01T10:00:00Z", time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC), true},
		{"01/03/2026", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), true},
		{time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), true},
		{"soon", time.Time{}, false},
		{42, time.Time{}, false},
	}
	for _, tt := range tests {
		got, ok := ParseTime(tt.in)
		if ok != tt.ok || !got.Equal(tt.want) {
			t.Errorf("ParseTime(%v) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
