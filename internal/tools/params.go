package tools

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrMissingParameter = errors.New("missing required parameter")

func requiredString(params map[string]any, key string) (string, error) {
	s := stringParam(params, key, "")
	if s == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingParameter, key)
	}
	return s, nil
}

func stringParam(params map[string]any, key, def string) string {
	v, ok := params[key]
	if !ok || v == nil {
		return def
	}
	var s string
	switch t := v.(type) {
	case string:
		s = t
	default:
		s = fmt.Sprint(t)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	return s
}

// intParam reads key as an integer. JSON numbers and numeric strings are
// accepted.
func intParam(params map[string]any, key string, def int) (int, error) {
	v, ok := params[key]
	if !ok || v == nil {
		return def, nil
	}
	switch t := v.(type) {
	case int:
		return t, nil
	case int64:
		return int(t), nil
	case float64:
		return int(t), nil
	case json.Number:
		n, err := t.Int64()
		if err != nil {
			return 0, fmt.Errorf("parameter %s: %w", key, err)
		}
		return int(n), nil
	case string:
		if strings.TrimSpace(t) == "" {
			return def, nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0, fmt.Errorf("parameter %s: %q is not a number", key, t)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("parameter %s: unsupported type %T", key, v)
	}
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
