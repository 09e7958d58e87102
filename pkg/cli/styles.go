// Package cli provides terminal rendering helpers for the voicekit CLI.
package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme defines the color scheme for terminal output.
type Theme struct {
	Primary lipgloss.Color // Main accent color
	Dim     lipgloss.Color // Dimmed/secondary text color
}

// DefaultTheme is the default bright green theme.
var DefaultTheme = Theme{
	Primary: lipgloss.Color("#00ff9f"),
	Dim:     lipgloss.Color("#6e7681"),
}

// Styles holds all styles derived from a theme.
type Styles struct {
	Title lipgloss.Style
	Label lipgloss.Style
	Value lipgloss.Style
	Dim   lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(t Theme) Styles {
	return Styles{
		Title: lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Label: lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Value: lipgloss.NewStyle(),
		Dim:   lipgloss.NewStyle().Foreground(t.Dim),
	}
}

// Row is one line of a rendered section: a label and its value.
type Row struct {
	Label string
	Value string
}

// Section is a titled block of label/value rows.
type Section struct {
	Title string
	Rows  []Row
}

// RenderSections renders sections with aligned values, styled by s.
func (s Styles) RenderSections(sections []Section) string {
	var b strings.Builder
	for i, sec := range sections {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(s.Title.Render(sec.Title))
		b.WriteString("\n")

		width := 0
		for _, r := range sec.Rows {
			if len(r.Label) > width {
				width = len(r.Label)
			}
		}
		for _, r := range sec.Rows {
			pad := strings.Repeat(" ", width-len(r.Label))
			fmt.Fprintf(&b, "  %s%s  %s\n", s.Label.Render(r.Label), pad, s.Value.Render(r.Value))
		}
	}
	return b.String()
}
