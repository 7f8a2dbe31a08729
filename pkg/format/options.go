package format

import "fmt"

// ToolsMode controls how a request's declared tool list is rendered.
type ToolsMode string

const (
	// ToolsNone removes the tools key from the rendered request entirely.
	ToolsNone ToolsMode = "none"

	// ToolsName reduces each tool entry to its function name.
	ToolsName ToolsMode = "name"

	// ToolsAll renders the tool list unmodified.
	ToolsAll ToolsMode = "all"
)

// ParseToolsMode validates a flag or config value. The empty string selects
// ToolsAll, the default.
func ParseToolsMode(s string) (ToolsMode, error) {
	switch ToolsMode(s) {
	case ToolsNone, ToolsName, ToolsAll:
		return ToolsMode(s), nil
	case "":
		return ToolsAll, nil
	}
	return "", fmt.Errorf("invalid tools mode %q (want none, name, or all)", s)
}

// Options controls rendering for both the request and response formatters.
type Options struct {
	// Raw bypasses all formatting and returns captured buffers verbatim.
	Raw bool

	// Tools controls rendering of the request tool list.
	Tools ToolsMode
}
