package servecmder

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/peekproxy/peek/pkg/cliui"
	"github.com/peekproxy/peek/proxy/worker"
)

// consoleSink prints normalized exchanges to the console. Output is styled
// when attached to a terminal and plain when piped.
type consoleSink struct {
	mu     sync.Mutex
	w      io.Writer
	styled bool
}

func newConsoleSink(w io.Writer) *consoleSink {
	return &consoleSink{
		w:      w,
		styled: cliui.IsTerminal(w),
	}
}

// Emit writes one exchange as a pair of banners with the normalized bodies.
// Workers emit concurrently, so the whole exchange is built up front and
// written under the lock to keep exchanges from interleaving.
func (s *consoleSink) Emit(ex worker.Exchange) {
	var b strings.Builder

	meta := fmt.Sprintf("%s %s %d %s", ex.Method, ex.Path, ex.Status, cliui.FormatDuration(ex.Duration))
	if ex.Streaming {
		meta += " (streamed)"
	}

	b.WriteString("\n")
	b.WriteString(cliui.Banner(cliui.RequestStyle, "request "+ex.ID, s.styled))
	b.WriteString("\n")
	b.WriteString(cliui.Meta(meta, s.styled))
	b.WriteString("\n")
	b.WriteString(s.renderBody(ex.RequestBody))
	b.WriteString("\n")

	respStyle := cliui.ResponseStyle
	if ex.Status >= 400 {
		respStyle = cliui.ErrorStyle
	}
	b.WriteString(cliui.Banner(respStyle, "response "+ex.ID, s.styled))
	b.WriteString("\n")
	b.WriteString(s.renderBody(ex.ResponseBody))
	b.WriteString("\n")

	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprint(s.w, b.String())
}

// renderBody displays a body through the markdown renderer when styled,
// which gives fenced syntax highlighting on capable terminals. Plain output
// and render failures fall back to the body as-is.
func (s *consoleSink) renderBody(body string) string {
	if body == "" {
		return "(empty)"
	}
	if !s.styled {
		return body
	}

	rendered, err := cliui.RenderMarkdown("```json\n" + body + "\n```")
	if err != nil {
		return body
	}
	return strings.TrimRight(rendered, "\n")
}
