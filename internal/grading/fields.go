package grading

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// object is a JSON object read one field at a time. Every accessor treats a
// missing or mistyped field as its zero value.
type object map[string]json.RawMessage

func asObject(raw json.RawMessage) object {
	var fields object
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil
	}
	return fields
}

func (o object) has(key string) bool {
	_, ok := o[key]
	return ok
}

func (o object) object(key string) object {
	raw, ok := o[key]
	if !ok {
		return nil
	}
	return asObject(raw)
}

func (o object) array(key string) ([]json.RawMessage, bool) {
	raw, ok := o[key]
	if !ok {
		return nil, false
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil || items == nil {
		return nil, false
	}
	return items, true
}

// truthy reports false for missing, null, false, 0 and "" values.
func (o object) truthy(key string) bool {
	raw := bytes.TrimSpace(o[key])
	if len(raw) == 0 {
		return false
	}
	switch raw[0] {
	case 'n', 'f':
		return false
	case 't', '{', '[':
		return true
	case '"':
		var text string
		return json.Unmarshal(raw, &text) == nil && text != ""
	default:
		value, err := strconv.ParseFloat(string(raw), 64)
		return err == nil && value != 0
	}
}

// number reads a JSON number or a numeric string.
func (o object) number(key string) float64 {
	raw := bytes.TrimSpace(o[key])
	if len(raw) == 0 {
		return 0
	}
	text := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return 0
		}
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil || !finite(value) {
		return 0
	}
	return value
}

func (o object) text(key string) string {
	var text string
	if err := json.Unmarshal(o[key], &text); err != nil {
		return ""
	}
	return text
}

// message reads a string, or the compact JSON of any other truthy value.
func (o object) message(key string) string {
	raw := bytes.TrimSpace(o[key])
	if len(raw) > 0 && raw[0] == '"' {
		return o.text(key)
	}
	if !o.truthy(key) {
		return ""
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, raw); err != nil {
		return ""
	}
	return compact.String()
}

// texts keeps the string members of an array and drops the rest.
func (o object) texts(key string) []string {
	items, ok := o.array(key)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		var text string
		if err := json.Unmarshal(item, &text); err == nil {
			out = append(out, text)
		}
	}
	return out
}

func (o object) measure(key string) Measure {
	var m Measure
	if raw, ok := o[key]; ok {
		_ = m.UnmarshalJSON(raw)
	}
	return m
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
