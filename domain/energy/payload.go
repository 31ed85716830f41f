// Package energy holds the telemetry model for the monitored site: payload
// normalization, derived metrics and the record shape returned by the store.
package energy

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Payload is the canonical metric object extracted from a stored record.
// Only recognized metric names are present; nested blocks are Payloads too.
type Payload map[string]any

// Value returns the raw value stored under key. A nil value counts as absent.
func (p Payload) Value(key string) (any, bool) {
	if p == nil {
		return nil, false
	}
	v, ok := p[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// Number returns the numeric value stored under key.
func (p Payload) Number(key string) (float64, bool) {
	v, ok := p.Value(key)
	if !ok {
		return 0, false
	}
	return toNumber(v)
}

// NumberPtr is Number for optional view fields.
func (p Payload) NumberPtr(key string) *float64 {
	n, ok := p.Number(key)
	if !ok {
		return nil
	}
	return &n
}

// String returns the string value stored under key.
func (p Payload) String(key string) (string, bool) {
	v, ok := p.Value(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Object returns the nested block stored under key, or nil.
func (p Payload) Object(key string) Payload {
	v, ok := p.Value(key)
	if !ok {
		return nil
	}
	m, ok := asObject(v)
	if !ok {
		return nil
	}
	return Payload(m)
}

// Has reports whether key holds a non-nil value.
func (p Payload) Has(key string) bool {
	_, ok := p.Value(key)
	return ok
}

// IsEmpty reports whether no metric was recognized.
func (p Payload) IsEmpty() bool {
	return len(p) == 0
}

// MarshalJSON renders a nil payload as an empty object.
func (p Payload) MarshalJSON() ([]byte, error) {
	if p == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string]any(p))
}

func asObject(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case Payload:
		return m, true
	default:
		return nil, false
	}
}

// toNumber accepts the numeric encodings seen across ingestion versions,
// including numbers stored as strings. Non-finite values are rejected.
func toNumber(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// toText renders a scalar the way the telemetry source compares flags:
// integral numbers without a fractional part, strings as-is.
func toText(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case bool:
		return strconv.FormatBool(t), true
	case json.Number:
		return t.String(), true
	}
	if f, ok := toNumber(v); ok {
		return strconv.FormatFloat(f, 'f', -1, 64), true
	}
	return "", false
}
