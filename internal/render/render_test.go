package render

import (
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func mustParse(t *testing.T, name, body string) *Template {
	t.Helper()
	tmpl, err := Parse(name, body)
	if err != nil {
		t.Fatalf("Parse(%q) error: %v", name, err)
	}
	return tmpl
}

func partialsOf(t *testing.T, bodies map[string]string) PartialResolver {
	t.Helper()
	parsed := make(map[string]*Template, len(bodies))
	for name, body := range bodies {
		parsed[name] = mustParse(t, name, body)
	}
	return func(name string) (*Template, bool) {
		p, ok := parsed[name]
		return p, ok
	}
}

func TestRender_IfElse(t *testing.T) {
	tmpl := mustParse(t, "greeting", "Hello {{#if name}}{{name}}{{else}}Guest{{/if}}")

	if got := Render(tmpl, map[string]any{}, nil); got != "Hello Guest" {
		t.Errorf("empty data: got %q, want %q", got, "Hello Guest")
	}
	if got := Render(tmpl, map[string]any{"name": "Ana"}, nil); got != "Hello Ana" {
		t.Errorf("with name: got %q, want %q", got, "Hello Ana")
	}
}

func TestRender_LiteralRoundTrip(t *testing.T) {
	body := "Bonjour,\n\nVotre dossier est complet. Merci !\n"
	tmpl := mustParse(t, "literal", body)
	for _, data := range []map[string]any{nil, {}, {"anything": "x", "n": 3}} {
		if got := Render(tmpl, data, nil); got != body {
			t.Errorf("Render(literal) = %q, want %q", got, body)
		}
	}
}

func TestRender(t *testing.T) {
	data := map[string]any{
		"name":     "Ana <admin>",
		"html":     "<b>bold</b>",
		"count":    0,
		"amount":   12.5,
		"paid":     true,
		"falsy":    "",
		"exam":     map[string]any{"date": "2026-03-01", "center": "Lyon"},
		"sessions": []any{map[string]any{"label": "morning"}, map[string]any{"label": "evening"}},
		"tags":     []string{"a", "b", "c"},
		"empty":    []any{},
		"when":     time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		"n":        json.Number("0"),
	}

	tests := []struct {
		name string
		body string
		want string
	}{
		{"escaped", "{{name}}", "Ana &lt;admin&gt;"},
		{"raw triple", "{{{html}}}", "<b>bold</b>"},
		{"raw ampersand", "{{& html}}", "<b>bold</b>"},
		{"nested path", "{{exam.center}} {{exam.date}}", "Lyon 2026-03-01"},
		{"missing renders empty", "[{{nope}}][{{exam.nope}}]", "[][]"},
		{"number", "{{amount}}/{{count}}", "12.5/0"},
		{"time", "{{when}}", "2026-03-01T09:00:00Z"},
		{"list value", "{{tags}}", "a, b, c"},
		{"zero is falsy", "{{#if count}}yes{{else}}no{{/if}}", "no"},
		{"json number zero is falsy", "{{#if n}}yes{{else}}no{{/if}}", "no"},
		{"empty string falsy", "{{#if falsy}}yes{{else}}no{{/if}}", "no"},
		{"empty list falsy", "{{#if empty}}yes{{else}}no{{/if}}", "no"},
		{"unless", "{{#unless paid}}pay{{else}}thanks{{/unless}}", "thanks"},
		{"unless missing", "{{#unless nope}}missing{{/unless}}", "missing"},
		{"each alias", "{{#each sessions as s}}{{@index}}:{{s.label}}{{#unless @last}}, {{/unless}}{{/each}}", "0:morning, 1:evening"},
		{"each pipes alias", "{{#each sessions as |s|}}{{s.label}};{{/each}}", "morning;evening;"},
		{"each this", "{{#each tags}}{{this}}{{/each}}", "abc"},
		{"each bare field", "{{#each sessions}}{{label}} {{/each}}", "morning evening "},
		{"each first", "{{#each tags}}{{#if @first}}*{{/if}}{{.}}{{/each}}", "*abc"},
		{"each missing", "{{#each nope}}x{{else}}none{{/each}}", "none"},
		{"each non list", "{{#each name}}x{{/each}}", ""},
		{"each outer scope", "{{#each tags as t}}{{exam.center}}-{{t}} {{/each}}", "Lyon-a Lyon-b Lyon-c "},
		{"nested each", "{{#each sessions as s}}{{#each tags as t}}{{s.label}}{{t}}{{/each}}|{{/each}}", "morningamorningbmorningc|eveningaeveningbeveningc|"},
		{"comment", "a{{! ignored }}b{{!-- {{also}} ignored --}}c", "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl := mustParse(t, tt.name, tt.body)
			if got := Render(tmpl, data, nil); got != tt.want {
				t.Errorf("Render() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRender_EscapeNone(t *testing.T) {
	tmpl := mustParse(t, "plain", "{{name}}")
	got := RenderWith(tmpl, map[string]any{"name": "a & b"}, nil, Options{Escape: EscapeNone})
	if got != "a & b" {
		t.Errorf("got %q, want %q", got, "a & b")
	}
}

func TestRender_Partials(t *testing.T) {
	partials := partialsOf(t, map[string]string{
		"signature": "-- {{agent}}",
		"session":   "{{s.label}}",
		"outer":     "[{{> signature}}]",
	})

	tmpl := mustParse(t, "main", "Hi{{> outer}}{{#each sessions as s}} {{> session}}{{/each}}")
	data := map[string]any{"agent": "Lea", "sessions": []any{map[string]any{"label": "am"}}}
	if got := Render(tmpl, data, partials); got != "Hi[-- Lea] am" {
		t.Errorf("Render() = %q", got)
	}
}

func TestRender_MissingPartial(t *testing.T) {
	tmpl := mustParse(t, "main", "a{{> ghost}}b")
	var issues []Issue
	got := RenderWith(tmpl, nil, partialsOf(t, nil), Options{OnIssue: func(i Issue) { issues = append(issues, i) }})
	if got != "ab" {
		t.Errorf("Render() = %q, want %q", got, "ab")
	}
	if len(issues) != 1 || issues[0].Kind != IssueMissingPartial || issues[0].Partial != "ghost" {
		t.Errorf("issues = %+v", issues)
	}

	// A nil resolver degrades the same way.
	if got := Render(tmpl, nil, nil); got != "ab" {
		t.Errorf("Render(nil resolver) = %q", got)
	}
}

func TestRender_PartialCycle(t *testing.T) {
	partials := partialsOf(t, map[string]string{
		"ping": "p{{> pong}}",
		"pong": "q{{> ping}}",
	})
	tmpl := mustParse(t, "main", "{{> ping}}!")

	var issues []Issue
	got := RenderWith(tmpl, nil, partials, Options{OnIssue: func(i Issue) { issues = append(issues, i) }})
	if got != "pq!" {
		t.Errorf("Render() = %q, want %q", got, "pq!")
	}
	want := []Issue{{Kind: IssuePartialCycle, Partial: "ping", Template: "pong", Depth: 3}}
	if diff := cmp.Diff(want, issues); diff != "" {
		t.Errorf("issues mismatch (-want +got):\n%s", diff)
	}
}

func TestRender_PartialCycleFanOut(t *testing.T) {
	partials := partialsOf(t, map[string]string{
		"loop": strings.Repeat("{{> loop}}", 8),
	})
	tmpl := mustParse(t, "main", "<{{> loop}}>")

	var issues []Issue
	got := RenderWith(tmpl, nil, partials, Options{OnIssue: func(i Issue) { issues = append(issues, i) }})
	if got != "<>" {
		t.Errorf("Render() = %q, want %q", got, "<>")
	}
	if len(issues) != 1 || issues[0].Kind != IssuePartialCycle {
		t.Errorf("issues = %+v, want a single cycle issue", issues)
	}
}

func TestRender_PartialDepth(t *testing.T) {
	partials := partialsOf(t, map[string]string{
		"a": "a{{> b}}",
		"b": "b{{> c}}",
		"c": "c",
	})
	tmpl := mustParse(t, "main", "{{> a}}!")

	var issues []Issue
	got := RenderWith(tmpl, nil, partials, Options{MaxDepth: 2, OnIssue: func(i Issue) { issues = append(issues, i) }})
	if got != "ab!" {
		t.Errorf("Render() = %q, want %q", got, "ab!")
	}
	if len(issues) != 1 || issues[0].Kind != IssuePartialDepth || issues[0].Depth != 3 {
		t.Errorf("issues = %+v", issues)
	}
}

func TestRender_Deterministic(t *testing.T) {
	tmpl := mustParse(t, "det", "{{#each items as i}}{{i.k}}={{i.v}};{{/each}}{{meta}}")
	data := map[string]any{
		"items": []any{map[string]any{"k": "a", "v": 1}, map[string]any{"k": "b", "v": 2.5}},
		"meta":  map[string]any{"z": 1, "a": 2},
	}
	first := Render(tmpl, data, nil)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if got := Render(tmpl, data, nil); got != first {
				t.Errorf("concurrent render = %q, want %q", got, first)
			}
		}()
	}
	wg.Wait()
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unclosed if", "{{#if a}}x"},
		{"mismatched close", "{{#if a}}x{{/each}}"},
		{"stray close", "x{{/if}}"},
		{"stray else", "x{{else}}y"},
		{"double else", "{{#if a}}x{{else}}y{{else}}z{{/if}}"},
		{"unknown helper", "{{#with a}}x{{/with}}"},
		{"if without arg", "{{#if}}x{{/if}}"},
		{"if two args", "{{#if a b}}x{{/if}}"},
		{"bad each", "{{#each a in b}}x{{/each}}"},
		{"empty tag", "{{ }}"},
		{"unterminated", "Hello {{name"},
		{"bad partial", "{{> }}"},
		{"bad path", "{{a..b}}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.name, tt.body)
			if !errors.Is(err, ErrSyntax) {
				t.Fatalf("Parse() error = %v, want ErrSyntax", err)
			}
		})
	}
}

func TestParse_ReportsLine(t *testing.T) {
	_, err := Parse("letter", "line1\nline2\n{{#if a}}\nbody")
	if err == nil || !strings.Contains(err.Error(), "letter:3") {
		t.Fatalf("error = %v, want position letter:3", err)
	}
}

func TestTemplate_Partials(t *testing.T) {
	tmpl := mustParse(t, "t", "{{> a}}{{#if x}}{{> b}}{{/if}}{{> a}}")
	got := tmpl.Partials()
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("Partials() = %v, want [a b]", got)
	}
}

func TestIsTruthy(t *testing.T) {
	tests := []struct {
		v    any
		want bool
	}{
		{nil, false},
		{false, false},
		{true, true},
		{"", false},
		{"false", true},
		{"0", true},
		{0, false},
		{int64(0), false},
		{0.0, false},
		{uint8(3), true},
		{json.Number("0"), false},
		{json.Number("0.5"), true},
		{[]any{}, false},
		{[]string{"x"}, true},
		{map[string]any{}, true},
		{time.Time{}, true},
	}
	for _, tt := range tests {
		if got := IsTruthy(tt.v); got != tt.want {
			t.Errorf("IsTruthy(%#v) = %v, want %v", tt.v, got, tt.want)
		}
	}
}
