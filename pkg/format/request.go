package format

// Request renders a captured request body for display. Bodies that fail to
// parse as JSON come back verbatim; valid JSON is pretty-printed with the
// tool list rendered according to opts.Tools. Request never fails: the
// worst case is the unmodified input.
func Request(raw string, opts Options) string {
	if opts.Raw {
		return raw
	}

	parsed, ok := parseJSON(raw)
	if !ok {
		return raw
	}

	if obj, ok := parsed.(map[string]any); ok {
		applyToolsMode(obj, opts.Tools)
	}

	out, ok := pretty(parsed)
	if !ok {
		return raw
	}
	return out
}

// applyToolsMode rewrites the tools key of a parsed request in place.
// A missing or non-array tools value is left alone.
func applyToolsMode(obj map[string]any, mode ToolsMode) {
	switch mode {
	case ToolsNone:
		delete(obj, "tools")

	case ToolsName:
		tools, ok := obj["tools"].([]any)
		if !ok {
			return
		}

		names := make([]any, len(tools))
		for i, t := range tools {
			entry, ok := t.(map[string]any)
			if !ok {
				continue
			}
			fn, ok := entry["function"].(map[string]any)
			if !ok {
				continue
			}
			if name, ok := fn["name"].(string); ok {
				names[i] = name
			}
		}
		obj["tools"] = names
	}
}
