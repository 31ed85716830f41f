package energy

// Strategy extracts the metric object from one historical record layout.
// Extract returns false when the layout does not apply to raw.
type Strategy struct {
	Name    string
	Extract func(raw map[string]any) (map[string]any, bool)
}

// strategies is tried in order; the first match wins. Adding a layout is
// one entry here.
var strategies = []Strategy{
	{Name: "dotted-payload-value", Extract: nestedValue("payload.value")},
	{Name: "payload", Extract: nestedValue("payload")},
}

// Strategies returns the extraction strategies in priority order.
func Strategies() []Strategy {
	out := make([]Strategy, len(strategies))
	copy(out, strategies)
	return out
}

// nestedValue matches an object stored under key, unwrapping its "value"
// member when that is an object too.
func nestedValue(key string) func(map[string]any) (map[string]any, bool) {
	return func(raw map[string]any) (map[string]any, bool) {
		obj, ok := asObject(raw[key])
		if !ok {
			return nil, false
		}
		if inner, ok := asObject(obj["value"]); ok {
			return inner, true
		}
		return obj, true
	}
}

// Normalize reduces a raw stored item to the canonical payload. Unknown
// layouts yield an empty payload; it never fails.
func Normalize(raw map[string]any) Payload {
	_, p := normalizeWith(raw)
	return p
}

// NormalizeStrategy is Normalize that also reports which strategy matched,
// or "" when none did.
func NormalizeStrategy(raw map[string]any) (string, Payload) {
	return normalizeWith(raw)
}

func normalizeWith(raw map[string]any) (string, Payload) {
	if raw == nil {
		return "", Payload{}
	}
	for _, s := range strategies {
		if obj, ok := s.Extract(raw); ok {
			return s.Name, project(obj, payloadSchema)
		}
	}
	return "", Payload{}
}
