package format

import "encoding/json"

// pretty renders v as 2-space indented JSON. The bool result is false when
// marshalling fails, in which case callers fall back to the raw buffer.
func pretty(v any) (string, bool) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", false
	}
	return string(out), true
}

// parseJSON is a best-effort unmarshal into a generic value.
func parseJSON(raw string) (any, bool) {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, false
	}
	return v, true
}

// prettyOrRaw pretty-prints raw when it is valid JSON and returns it
// unchanged otherwise. This is the shared fallback contract: malformed input
// round-trips to the caller untouched, never as an error.
func prettyOrRaw(raw string) string {
	v, ok := parseJSON(raw)
	if !ok {
		return raw
	}
	out, ok := pretty(v)
	if !ok {
		return raw
	}
	return out
}
