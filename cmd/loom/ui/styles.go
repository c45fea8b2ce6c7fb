// Package ui holds the visual styling for the loom chat interface.
package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Color palette
var (
	Primary    = lipgloss.Color("#7C6FF0") // Violet
	Accent     = lipgloss.Color("#5FB387") // Sage green
	Muted      = lipgloss.Color("#6C7086")
	Border     = lipgloss.Color("#45475A")
	ErrorColor = lipgloss.Color("#E06C75")
)

// Styles bundles the lipgloss styles used by the chat view.
type Styles struct {
	Header    lipgloss.Style
	UserLabel lipgloss.Style
	BotLabel  lipgloss.Style
	UserText  lipgloss.Style
	Status    lipgloss.Style
	Error     lipgloss.Style
	InputBox  lipgloss.Style
	Help      lipgloss.Style
}

// NewStyles builds the default style set.
func NewStyles() Styles {
	return Styles{
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(Primary).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(Border),
		UserLabel: lipgloss.NewStyle().Bold(true).Foreground(Primary).MarginTop(1),
		BotLabel:  lipgloss.NewStyle().Bold(true).Foreground(Accent).MarginTop(1),
		UserText:  lipgloss.NewStyle().PaddingLeft(2),
		Status:    lipgloss.NewStyle().Foreground(Muted).Italic(true),
		Error:     lipgloss.NewStyle().Foreground(ErrorColor),
		InputBox: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(Border).
			Padding(0, 1),
		Help: lipgloss.NewStyle().Foreground(Muted),
	}
}
