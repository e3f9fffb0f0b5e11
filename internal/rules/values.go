package rules

import (
	"encoding/json"
	"strings"
	"time"
)

// dateLayouts are tried in order when a date arrives as a string.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"02/01/2006",
}

// ParseTime converts a context or literal value into a time. Strings are parsed with
// the layouts above; zone-less layouts are read as UTC.
func ParseTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, !t.IsZero()
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}
		return *t, !t.IsZero()
	case string:
		s := strings.TrimSpace(t)
		for _, layout := range dateLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return parsed, true
			}
		}
	}
	return time.Time{}, false
}

// IsNumeric reports whether v is an integer, floating point or json.Number value.
func IsNumeric(v any) bool {
	switch n := v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return true
	case json.Number:
		_, err := n.Float64()
		return err == nil
	}
	return false
}

// IsScalar reports whether v is a string, bool, number or time.
func IsScalar(v any) bool {
	switch v.(type) {
	case string, bool, time.Time:
		return true
	}
	return IsNumeric(v)
}

// IsSlice reports whether v is a list as produced by YAML/JSON decoding or by Go callers.
func IsSlice(v any) bool {
	switch v.(type) {
	case []any, []string, []int, []int64, []float64:
		return true
	}
	return false
}
