package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidParameter is returned when a parameter value has the wrong shape
var ErrInvalidParameter = errors.New("invalid effect parameter")

// EffectParams holds per-effect parameters. No key is globally required;
// every handler supplies its own defaults.
type EffectParams map[string]interface{}

// Has reports whether key is present with a non-nil value
func (p EffectParams) Has(key string) bool {
	if p == nil {
		return false
	}
	v, ok := p[key]
	return ok && v != nil
}

// Raw returns the stored value for key
func (p EffectParams) Raw(key string) (interface{}, bool) {
	if !p.Has(key) {
		return nil, false
	}
	return p[key], true
}

// First returns the first key from keys that is present, or "" when none is
func (p EffectParams) First(keys ...string) string {
	for _, k := range keys {
		if p.Has(k) {
			return k
		}
	}
	return ""
}

// Float returns key as a float64, or def when the key is absent
func (p EffectParams) Float(key string, def float64) (float64, error) {
	v, ok := p.Raw(key)
	if !ok {
		return def, nil
	}
	f, err := toFloat(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrInvalidParameter, key, err)
	}
	return f, nil
}

// Int returns key as an int, or def when the key is absent.
// Fractional numbers are rejected.
func (p EffectParams) Int(key string, def int) (int, error) {
	v, ok := p.Raw(key)
	if !ok {
		return def, nil
	}
	f, err := toFloat(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrInvalidParameter, key, err)
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("%w: %s: %v is not an integer", ErrInvalidParameter, key, v)
	}
	if math.Abs(f) > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %s: %v is out of range", ErrInvalidParameter, key, v)
	}
	return int(f), nil
}

// String returns key as a string, or def when the key is absent.
// Numbers are formatted without trailing zeros.
func (p EffectParams) String(key string, def string) (string, error) {
	v, ok := p.Raw(key)
	if !ok {
		return def, nil
	}
	switch s := v.(type) {
	case string:
		return s, nil
	case fmt.Stringer:
		return s.String(), nil
	case bool:
		return "", fmt.Errorf("%w: %s: expected string, got bool", ErrInvalidParameter, key)
	}
	f, err := toFloat(v)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrInvalidParameter, key, err)
	}
	return strconv.FormatFloat(f, 'f', -1, 64), nil
}

// Seconds returns key as a number of seconds. Plain numbers are seconds,
// strings may also use time.Duration syntax ("1m30s"). The boolean is false
// when the key is absent.
func (p EffectParams) Seconds(key string) (float64, bool, error) {
	v, ok := p.Raw(key)
	if !ok {
		return 0, false, nil
	}
	switch d := v.(type) {
	case time.Duration:
		return d.Seconds(), true, nil
	case string:
		if parsed, err := time.ParseDuration(strings.TrimSpace(d)); err == nil {
			return parsed.Seconds(), true, nil
		}
	}
	f, err := toFloat(v)
	if err != nil {
		return 0, false, fmt.Errorf("%w: %s: %v", ErrInvalidParameter, key, err)
	}
	return f, true, nil
}

// Strings returns key as a list of strings. A single string is split on commas.
func (p EffectParams) Strings(key string) ([]string, bool, error) {
	v, ok := p.Raw(key)
	if !ok {
		return nil, false, nil
	}
	switch list := v.(type) {
	case string:
		parts := strings.Split(list, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts, true, nil
	case []string:
		return list, true, nil
	case []interface{}:
		out := make([]string, 0, len(list))
		for _, item := range list {
			s, err := EffectParams{"v": item}.String("v", "")
			if err != nil {
				return nil, false, fmt.Errorf("%w: %s: %v", ErrInvalidParameter, key, err)
			}
			out = append(out, s)
		}
		return out, true, nil
	}
	return nil, false, fmt.Errorf("%w: %s: expected list, got %T", ErrInvalidParameter, key, v)
}

// toFloat converts v to a finite float64
func toFloat(v interface{}) (float64, error) {
	f, err := anyFloat(v)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%v is not a finite number", v)
	}
	return f, nil
}

func anyFloat(v interface{}) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int8:
		return float64(n), nil
	case int16:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint:
		return float64(n), nil
	case uint8:
		return float64(n), nil
	case uint16:
		return float64(n), nil
	case uint32:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case json.Number:
		return n.Float64()
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, fmt.Errorf("%q is not a number", n)
		}
		return f, nil
	}
	return 0, fmt.Errorf("expected number, got %T", v)
}
