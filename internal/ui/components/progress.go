package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/fairexam/fairexam/internal/ui/theme"
)

// ScoreBar displays a 0-100 score as a horizontal bar.
type ScoreBar struct {
	Label      string
	Score      float64
	LabelWidth int
	Width      int
}

// NewScoreBar creates a new score bar.
func NewScoreBar(label string, score float64, labelWidth, width int) ScoreBar {
	return ScoreBar{
		Label:      label,
		Score:      score,
		LabelWidth: labelWidth,
		Width:      width,
	}
}

// View renders the bar. Filled cells take the score's traffic-light color.
func (b ScoreBar) View() string {
	var result string

	if b.Label != "" {
		result += lipgloss.NewStyle().
			Foreground(theme.Text).
			Width(b.LabelWidth).
			Render(b.Label) + "  "
	}

	const scoreWidth = 8 // "  100.0"
	barWidth := b.Width - lipgloss.Width(result) - scoreWidth
	if barWidth < 4 {
		barWidth = 4
	}

	filled := int(float64(barWidth) * b.Score / 100)
	if filled > barWidth {
		filled = barWidth
	}
	if filled < 0 {
		filled = 0
	}
	empty := barWidth - filled

	result += lipgloss.NewStyle().
		Foreground(theme.ScoreColor(b.Score)).
		Render(strings.Repeat("█", filled))
	result += lipgloss.NewStyle().
		Foreground(theme.Border).
		Render(strings.Repeat("░", empty))
	result += theme.ScoreStyle(b.Score).Render(fmt.Sprintf("  %5.1f", b.Score))

	return result
}
