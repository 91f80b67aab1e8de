package theme

import (
	"image/color"

	"charm.land/lipgloss/v2"
)

// Color palette: calm report colors with a traffic-light scale for scores.
var (
	Primary   = lipgloss.Color("#8B5CF6") // Vivid Purple
	Secondary = lipgloss.Color("#14B8A6") // Teal
	Accent    = lipgloss.Color("#F97316") // Orange
	Success   = lipgloss.Color("#22C55E") // Green
	Warning   = lipgloss.Color("#EAB308") // Amber
	Error     = lipgloss.Color("#F43F5E") // Rose
	Text      = lipgloss.Color("#F8FAFC") // White
	TextDim   = lipgloss.Color("#94A3B8") // Slate
	Border    = lipgloss.Color("#334155") // Slate
)

// Typography
var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary)

	Section = lipgloss.NewStyle().
		Bold(true).
		Foreground(Secondary).
		MarginTop(1)

	Body = lipgloss.NewStyle().
		Foreground(Text)

	Hint = lipgloss.NewStyle().
		Foreground(TextDim).
		Italic(true)
)

// States
var (
	Good = lipgloss.NewStyle().
		Foreground(Success).
		Bold(true)

	Caution = lipgloss.NewStyle().
		Foreground(Warning).
		Bold(true)

	Bad = lipgloss.NewStyle().
		Foreground(Error).
		Bold(true)
)

// Components
var (
	Card = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Border).
		Padding(0, 2)

	TableHeader = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true).
			Padding(0, 1)

	TableCell = lipgloss.NewStyle().
			Foreground(Text).
			Padding(0, 1)
)

// ScoreColor maps a 0-100 score onto the traffic-light scale.
func ScoreColor(score float64) color.Color {
	switch {
	case score >= 70:
		return Success
	case score >= 55:
		return Warning
	default:
		return Error
	}
}

// ScoreStyle is a bold style in the score's traffic-light color.
func ScoreStyle(score float64) lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(ScoreColor(score))
}
