package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/therealutkarshpriyadarshi/vfx/pkg/models"
)

// paramFlags collects effect parameters from -p key=value and -params JSON.
// Later flags override earlier ones.
type paramFlags struct {
	values models.EffectParams
}

func (p *paramFlags) String() string {
	if p == nil || len(p.values) == 0 {
		return ""
	}
	keys := make([]string, 0, len(p.values))
	for k := range p.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, p.values[k]))
	}
	return strings.Join(parts, ",")
}

// Set parses key=value. Values that are valid JSON (numbers, lists,
// booleans, quoted strings) are decoded; anything else is kept as text.
func (p *paramFlags) Set(s string) error {
	key, raw, ok := strings.Cut(s, "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return fmt.Errorf("expected key=value, got %q", s)
	}

	var value interface{} = raw
	if decoded, err := decodeJSON(raw); err == nil {
		value = decoded
	}
	p.put(key, value)
	return nil
}

func (p *paramFlags) setJSON(s string) error {
	decoded, err := decodeJSON(s)
	if err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	obj, ok := decoded.(map[string]interface{})
	if !ok {
		return fmt.Errorf("expected a JSON object, got %T", decoded)
	}
	for k, v := range obj {
		p.put(k, v)
	}
	return nil
}

func (p *paramFlags) put(key string, value interface{}) {
	if p.values == nil {
		p.values = make(models.EffectParams)
	}
	p.values[key] = value
}

func decodeJSON(s string) (interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.UseNumber()

	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, fmt.Errorf("trailing data after JSON value")
	}
	return v, nil
}
