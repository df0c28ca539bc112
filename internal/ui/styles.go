package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Styles holds all the styling for the TUI and the printed summary
type Styles struct {
	Header     lipgloss.Style
	Status     lipgloss.Style
	Muted      lipgloss.Style
	Footer     lipgloss.Style
	SummaryBox lipgloss.Style
	ErrorBox   lipgloss.Style
	SuccessBox lipgloss.Style
	Critical   lipgloss.Style
	Label      lipgloss.Style
}

// NewStyles creates a new styles instance
func NewStyles() *Styles {
	return &Styles{
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 2).
			MarginBottom(1),

		Status: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#04B575")),

		Muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")),

		Footer: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262")).
			MarginTop(1),

		SummaryBox: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#874BFD")).
			Padding(1, 2).
			MarginBottom(1),

		ErrorBox: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#FF5F87")).
			Foreground(lipgloss.Color("#FF5F87")).
			Padding(1, 2).
			MarginBottom(1),

		SuccessBox: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#04B575")).
			Foreground(lipgloss.Color("#04B575")).
			Padding(1, 2).
			MarginBottom(1),

		Critical: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF5F87")),

		Label: lipgloss.NewStyle().
			Width(22).
			Foreground(lipgloss.Color("#A8A8A8")),
	}
}
