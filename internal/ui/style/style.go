// Package style provides shared UI styling primitives including brand colors
// and icons for consistent visual presentation across the CLI.
package style

import "github.com/charmbracelet/lipgloss"

// Brand Colors.
var (
	Ember  = lipgloss.Color("#EA580C")
	Slate  = lipgloss.Color("#667085")
	Green  = lipgloss.Color("#22A06B")
	Red    = lipgloss.Color("#D93025")
	Yellow = lipgloss.Color("#F59E0B")
)

// Icons.
const (
	Check   = "✓"
	Cross   = "✗"
	Warning = "!"
	Arrow   = "→"
	Dot     = "●"
)

// Styles are the report styles bound to one renderer.
type Styles struct {
	Muted   lipgloss.Style
	Success lipgloss.Style
	Failure lipgloss.Style
	Warning lipgloss.Style
	Accent  lipgloss.Style
}

// NewStyles binds the palette to r.
func NewStyles(r *lipgloss.Renderer) Styles {
	return Styles{
		Muted:   r.NewStyle().Foreground(Slate),
		Success: r.NewStyle().Foreground(Green),
		Failure: r.NewStyle().Foreground(Red),
		Warning: r.NewStyle().Foreground(Yellow),
		Accent:  r.NewStyle().Foreground(Ember),
	}
}
