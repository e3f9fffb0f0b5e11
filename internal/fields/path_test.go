package fields

import "testing"

type session struct {
	Label string
	Seats int
}

func TestLookup(t *testing.T) {
	root := map[string]any{
		"name":      "Ana",
		"exam":      map[string]any{"date": "2026-03-01", "center": map[string]string{"city": "Lyon"}},
		"flat.key":  "flat",
		"sessions":  []any{map[string]any{"label": "morning"}, map[string]any{"label": "evening"}},
		"tags":      []string{"a", "b"},
		"typed":     []session{{Label: "s1", Seats: 3}},
		"counts":    map[string]int{"open": 2},
		"nothing":   nil,
		"deep.flat": map[string]any{"inner": 1},
	}

	tests := []struct {
		path   string
		want   any
		wantOK bool
	}{
		{"name", "Ana", true},
		{"exam.date", "2026-03-01", true},
		{"exam.center.city", "Lyon", true},
		{"flat.key", "flat", true},
		{"sessions.1.label", "evening", true},
		{"sessions.2.label", nil, false},
		{"tags.0", "a", true},
		{"typed.0.Label", "s1", true},
		{"typed.0.Seats", 3, true},
		{"counts.open", 2, true},
		{"nothing", nil, true},
		{"nothing.below", nil, false},
		{"deep.flat.inner", 1, true},
		{"missing", nil, false},
		{"exam.missing", nil, false},
		{"", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := Lookup(root, tt.path)
			if ok != tt.wantOK {
				t.Fatalf("Lookup(%q) ok = %v, want %v", tt.path, ok, tt.wantOK)
			}
			if got != tt.want {
				t.Fatalf("Lookup(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestItems(t *testing.T) {
	if _, ok := Items("abc"); ok {
		t.Error("strings must not be iterable")
	}
	if _, ok := Items(nil); ok {
		t.Error("nil must not be iterable")
	}
	items, ok := Items([]session{{Label: "x"}, {Label: "y"}})
	if !ok || len(items) != 2 {
		t.Fatalf("Items(typed slice) = %v, %v", items, ok)
	}
	items, ok = Items([]string{"a"})
	if !ok || items[0] != "a" {
		t.Fatalf("Items([]string) = %v, %v", items, ok)
	}
}
