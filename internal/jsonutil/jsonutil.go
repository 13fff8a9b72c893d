// Package jsonutil provides shared utilities for JSON parsing patterns:
// error handling, argument decoding, and value stringification.
package jsonutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"strconv"
	"time"
)

// UnmarshalWithContext unmarshals JSON data into v and wraps any error
// with the provided context message.
func UnmarshalWithContext(data []byte, v any, context string) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%s: %w", context, err)
	}
	return nil
}

// UnmarshalArrayAllowEmpty unmarshals JSON data into a slice.
// Empty arrays are allowed.
func UnmarshalArrayAllowEmpty[T any](data []byte, context string) ([]T, error) {
	var entries []T
	if err := UnmarshalWithContext(data, &entries, context); err != nil {
		return nil, err
	}
	return entries, nil
}

// Arguments is a decoded JSON request body used as handler arguments.
// Exactly one of Positional or Named is set for a non-empty body.
type Arguments struct {
	Positional []any
	Named      map[string]any
}

// Len returns the number of decoded arguments.
func (a Arguments) Len() int {
	return len(a.Positional) + len(a.Named)
}

// UnmarshalArguments decodes a JSON body into handler arguments.
// A JSON array yields positional arguments, a JSON object yields named ones.
// An empty or whitespace-only body yields no arguments.
func UnmarshalArguments(data []byte, context string) (Arguments, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return Arguments{}, nil
	}
	switch trimmed[0] {
	case '[':
		positional, err := UnmarshalArrayAllowEmpty[any](trimmed, context)
		if err != nil {
			return Arguments{}, err
		}
		return Arguments{Positional: positional}, nil
	case '{':
		var named map[string]any
		if err := UnmarshalWithContext(trimmed, &named, context); err != nil {
			return Arguments{}, err
		}
		return Arguments{Named: named}, nil
	default:
		return Arguments{}, fmt.Errorf("%s: expected JSON array or object", context)
	}
}

// ToString converts a value to its display representation.
// Handles string, float64 (formatted as integer when whole), bool, times,
// stringers, and falls back to fmt for anything else.
func ToString(v any) string {
	if v == nil {
		return ""
	}
	switch val := v.(type) {
	case string:
		return val
	case template.HTML:
		return string(val)
	case []byte:
		return string(val)
	case float64:
		// Format as integer for whole numbers, otherwise as float
		if val == float64(int64(val)) {
			return fmt.Sprintf("%.0f", val)
		}
		return fmt.Sprintf("%g", val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	case time.Time:
		if val.IsZero() {
			return ""
		}
		return val.Format(time.DateTime)
	case *time.Time:
		if val == nil {
			return ""
		}
		return ToString(*val)
	case *string:
		if val == nil {
			return ""
		}
		return *val
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprintf("%v", val)
	}
}
