// Package cliui provides reusable terminal UI helpers (styled exchange
// banners, markdown rendering, duration formatting) for peek's console
// output.
package cliui

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var (
	RequestStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	ResponseStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	MetaStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	ErrorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	KeyStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("75"))
	ValueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	DimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	SuccessMark = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Render("✓")
)

// IsTerminal reports whether w is an interactive terminal. Styled output
// degrades to plain text when piped.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Banner renders a section heading like "--- request a1b2c3 ---" using the
// given style when styled is true.
func Banner(style lipgloss.Style, label string, styled bool) string {
	s := fmt.Sprintf("--- %s ---", label)
	if !styled {
		return s
	}
	return style.Render(s)
}

// Meta renders a secondary metadata line.
func Meta(s string, styled bool) string {
	if !styled {
		return s
	}
	return MetaStyle.Render(s)
}

// FormatDuration formats a duration for display (e.g. "12ms" or "3.2s").
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

// RenderMarkdown renders markdown content for terminal display using glamour.
// On failure the content is returned unrendered.
func RenderMarkdown(content string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return content, err
	}

	rendered, err := r.Render(content)
	if err != nil {
		return content, err
	}

	return rendered, nil
}
