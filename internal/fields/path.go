// Package fields resolves dotted paths ("exam.date", "sessions.0.label") against the
// loosely typed data the case context is assembled from.
package fields

import (
	"reflect"
	"strconv"
	"strings"
)

// Lookup resolves path against root. A key that literally contains dots wins over
// descending into nested maps, so flat contexts ("exam.date": ...) keep working.
//
// The boolean reports whether every segment was found. A present key holding nil is
// reported as found; callers decide what nil means for them.
func Lookup(root map[string]any, path string) (any, bool) {
	if root == nil || path == "" {
		return nil, false
	}
	return lookup(root, path)
}

func lookup(v any, path string) (any, bool) {
	if got, ok := Step(v, path); ok {
		return got, true
	}
	// Longest dotted prefix first.
	for i := strings.LastIndexByte(path, '.'); i > 0; i = strings.LastIndexByte(path[:i], '.') {
		next, ok := Step(v, path[:i])
		if !ok {
			continue
		}
		if got, ok := lookup(next, path[i+1:]); ok {
			return got, true
		}
	}
	return nil, false
}

// Step descends one segment into v. Maps are indexed by key, lists by a base-10 index.
func Step(v any, seg string) (any, bool) {
	switch val := v.(type) {
	case nil:
		return nil, false
	case map[string]any:
		got, ok := val[seg]
		return got, ok
	case map[string]string:
		got, ok := val[seg]
		return got, ok
	case map[string]bool:
		got, ok := val[seg]
		return got, ok
	case []any:
		i, ok := index(seg, len(val))
		if !ok {
			return nil, false
		}
		return val[i], true
	case []string:
		i, ok := index(seg, len(val))
		if !ok {
			return nil, false
		}
		return val[i], true
	case []map[string]any:
		i, ok := index(seg, len(val))
		if !ok {
			return nil, false
		}
		return val[i], true
	}
	return stepReflect(v, seg)
}

// stepReflect covers typed maps and slices built by Go callers (map[string]int,
// []SessionView, ...). JSON-decoded contexts never reach this path.
func stepReflect(v any, seg string) (any, bool) {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		got := rv.MapIndex(reflect.ValueOf(seg).Convert(rv.Type().Key()))
		if !got.IsValid() {
			return nil, false
		}
		return got.Interface(), true
	case reflect.Slice, reflect.Array:
		i, ok := index(seg, rv.Len())
		if !ok {
			return nil, false
		}
		return rv.Index(i).Interface(), true
	case reflect.Struct:
		f := rv.FieldByName(seg)
		if !f.IsValid() || !f.CanInterface() {
			return nil, false
		}
		return f.Interface(), true
	}
	return nil, false
}

func index(seg string, n int) (int, bool) {
	i, err := strconv.Atoi(seg)
	if err != nil || i < 0 || i >= n {
		return 0, false
	}
	return i, true
}

// Items returns the elements of a list value. Anything that is not a slice or array
// (including nil and strings) yields ok=false.
func Items(v any) ([]any, bool) {
	switch val := v.(type) {
	case nil:
		return nil, false
	case []any:
		return val, true
	case []string:
		out := make([]any, len(val))
		for i, s := range val {
			out[i] = s
		}
		return out, true
	case []map[string]any:
		out := make([]any, len(val))
		for i, m := range val {
			out[i] = m
		}
		return out, true
	case string:
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}
