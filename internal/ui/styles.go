package ui

import "github.com/charmbracelet/lipgloss"

// Color palette, 256-color codes.
const (
	ColorCyan     = "51"  // Primary accent: titles, highlights
	ColorWhite    = "255" // Headers
	ColorGray     = "245" // Paths, metadata
	ColorDarkGray = "238" // Separators
	ColorYellow   = "220" // Warnings
	ColorRed      = "196" // Errors
)

// Styles holds the text styles used by the renderer.
type Styles struct {
	Header    lipgloss.Style
	Title     lipgloss.Style
	Path      lipgloss.Style
	Meta      lipgloss.Style
	Snippet   lipgloss.Style
	Highlight lipgloss.Style
	Warning   lipgloss.Style
	Error     lipgloss.Style
}

// DefaultStyles returns the colored style set.
func DefaultStyles() Styles {
	return Styles{
		Header:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorWhite)),
		Title:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorCyan)),
		Path:      lipgloss.NewStyle().Foreground(lipgloss.Color(ColorGray)),
		Meta:      lipgloss.NewStyle().Foreground(lipgloss.Color(ColorGray)),
		Snippet:   lipgloss.NewStyle(),
		Highlight: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorCyan)),
		Warning:   lipgloss.NewStyle().Foreground(lipgloss.Color(ColorYellow)),
		Error:     lipgloss.NewStyle().Foreground(lipgloss.Color(ColorRed)),
	}
}

// NoColorStyles returns unstyled components for plain output.
func NoColorStyles() Styles {
	return Styles{
		Header:    lipgloss.NewStyle(),
		Title:     lipgloss.NewStyle(),
		Path:      lipgloss.NewStyle(),
		Meta:      lipgloss.NewStyle(),
		Snippet:   lipgloss.NewStyle(),
		Highlight: lipgloss.NewStyle(),
		Warning:   lipgloss.NewStyle(),
		Error:     lipgloss.NewStyle(),
	}
}

// GetStyles returns the appropriate styles based on color preference.
func GetStyles(noColor bool) Styles {
	if noColor {
		return NoColorStyles()
	}
	return DefaultStyles()
}
