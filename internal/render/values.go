package render

import (
	"encoding/json"
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"

	"github.com/fouedh91760/a-level-saver-sub001/internal/fields"
)

// IsTruthy decides {{#if}}/{{#unless}}: nil, false, "", any numeric zero and empty
// lists are falsy. Everything else, including non-empty strings such as "false" and
// empty maps, is truthy.
func IsTruthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		return val != ""
	case int:
		return val != 0
	case int8:
		return val != 0
	case int16:
		return val != 0
	case int32:
		return val != 0
	case int64:
		return val != 0
	case uint:
		return val != 0
	case uint8:
		return val != 0
	case uint16:
		return val != 0
	case uint32:
		return val != 0
	case uint64:
		return val != 0
	case float32:
		return val != 0
	case float64:
		return val != 0
	case json.Number:
		f, err := val.Float64()
		return err != nil || f != 0
	}
	if items, ok := fields.Items(v); ok {
		return len(items) > 0
	}
	return true
}

// Format renders a value as text. Formatting is deterministic and locale-free:
// dates and amounts that need a human format must be prepared by the caller.
func Format(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case int64:
		return strconv.FormatInt(val, 10)
	case uint:
		return strconv.FormatUint(uint64(val), 10)
	case uint32:
		return strconv.FormatUint(uint64(val), 10)
	case uint64:
		return strconv.FormatUint(val, 10)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case json.Number:
		return val.String()
	case time.Time:
		return val.Format(time.RFC3339)
	case fmt.Stringer:
		return val.String()
	case error:
		return val.Error()
	}
	if items, ok := fields.Items(v); ok {
		parts := make([]string, len(items))
		for i, item := range items {
			parts[i] = Format(item)
		}
		return strings.Join(parts, ", ")
	}
	return fmt.Sprint(v)
}

// Escaper transforms interpolated text for the output medium.
type Escaper func(string) string

// EscapeHTML escapes <, >, &, ' and ".
func EscapeHTML(s string) string { return html.EscapeString(s) }

// EscapeNone leaves text untouched, for plain-text channels.
func EscapeNone(s string) string { return s }

// EscaperFor maps a catalog escape mode ("html", "none", "text") to an Escaper.
func EscaperFor(mode string) (Escaper, bool) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "html":
		return EscapeHTML, true
	case "none", "text", "plain":
		return EscapeNone, true
	}
	return nil, false
}
