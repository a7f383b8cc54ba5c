package report

import (
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Color palette.
var (
	Success = lipgloss.Color("#10B981") // Green
	Warning = lipgloss.Color("#F59E0B") // Amber
	Error   = lipgloss.Color("#EF4444") // Red
	Muted   = lipgloss.Color("#6B7280") // Gray
)

// Styles holds the lipgloss styles used by the text report.
type Styles struct {
	Header  lipgloss.Style
	OK      lipgloss.Style
	Dirty   lipgloss.Style
	Missing lipgloss.Style
	Status  lipgloss.Style
	Banner  lipgloss.Style

	enabled bool
}

// NewStyles builds styles bound to w. Without color, Paint returns text
// unchanged.
func NewStyles(w io.Writer, color bool) Styles {
	if !color {
		return Styles{}
	}

	r := lipgloss.NewRenderer(w)
	// --color is an explicit request; do not wait for TTY detection.
	r.SetColorProfile(termenv.ANSI256)

	base := r.NewStyle().TabWidth(lipgloss.NoTabConversion)
	return Styles{
		Header:  base.Bold(true),
		OK:      base.Foreground(Success).Bold(true),
		Dirty:   base.Foreground(Error).Bold(true),
		Missing: base.Foreground(Warning),
		Status:  base.Foreground(Muted),
		Banner:  base.Foreground(Warning).Bold(true),
		enabled: true,
	}
}

// Paint renders text with style line by line, so multi-line status output
// keeps its layout.
func (s Styles) Paint(style lipgloss.Style, text string) string {
	if !s.enabled || text == "" {
		return text
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = style.Render(line)
		}
	}
	return strings.Join(lines, "\n")
}
