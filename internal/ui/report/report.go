// Package report renders an analysis report for the terminal.
package report

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"

	"github.com/fairexam/fairexam/internal/analysis"
	"github.com/fairexam/fairexam/internal/fairness"
	"github.com/fairexam/fairexam/internal/taxonomy"
	"github.com/fairexam/fairexam/internal/ui/components"
	"github.com/fairexam/fairexam/internal/ui/theme"
)

// DefaultWidth is used when the terminal width is unknown.
const DefaultWidth = 80

const maxQuestionChars = 60

var componentLabels = []struct {
	name  string
	label string
}{
	{fairness.ComponentDifficulty, "Difficulty balance"},
	{fairness.ComponentBlooms, "Bloom's balance"},
	{fairness.ComponentCoverage, "Syllabus coverage"},
}

// Render formats r for a terminal of the given width. Pass verbose to
// include the per-question table.
func Render(r *analysis.Report, width int, verbose bool) string {
	if width <= 0 {
		width = DefaultWidth
	}

	var sections []string
	sections = append(sections, header(r, width))
	sections = append(sections, componentScores(r, width))
	sections = append(sections, distributions(r))
	sections = append(sections, coverage(r))
	if verbose && len(r.Questions) > 0 {
		sections = append(sections, questionTable(r, width))
	}
	sections = append(sections, bias(r))
	sections = append(sections, suggestions(r))
	if d := r.Diagnostics; d != nil && len(d.FallbackStages) > 0 {
		sections = append(sections, theme.Hint.Render(
			"Heuristic fallback used for: "+strings.Join(d.FallbackStages, ", ")))
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func header(r *analysis.Report, width int) string {
	title := theme.Title.Render("Exam Fairness Report")
	files := theme.Hint.Render(fmt.Sprintf("%s vs %s", r.ExamMetadata.ExamFilename, r.ExamMetadata.SyllabusFilename))
	score := theme.ScoreStyle(r.FairnessScore).Render(fmt.Sprintf("%.1f / 100  %s", r.FairnessScore, r.Band))
	interp := theme.Body.Width(width - 6).Render(r.Interpretation)
	return theme.Card.Width(width - 2).Render(lipgloss.JoinVertical(lipgloss.Left, title, files, "", score, interp))
}

func componentScores(r *analysis.Report, width int) string {
	lines := []string{theme.Section.Render("Component scores")}
	for _, c := range componentLabels {
		s := r.ComponentScores[c.name]
		label := fmt.Sprintf("%s (%g%%)", c.label, s.Weight)
		lines = append(lines, components.NewScoreBar(label, s.Score, 26, width).View())
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func distributions(r *analysis.Report) string {
	var diff []string
	for _, d := range taxonomy.Difficulties {
		diff = append(diff, fmt.Sprintf("%s %d", d, r.DifficultyAnalysis.Distribution[d]))
	}
	var levels []string
	for _, l := range taxonomy.CognitiveLevels {
		levels = append(levels, fmt.Sprintf("%s %d", l, r.BloomsAnalysis.Distribution[l]))
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		theme.Section.Render(fmt.Sprintf("Questions (%d)", r.DifficultyAnalysis.TotalQuestions)),
		theme.Body.Render("Difficulty: "+strings.Join(diff, " · ")),
		theme.Body.Render("Bloom's:    "+strings.Join(levels, " · ")),
	)
}

func coverage(r *analysis.Report) string {
	c := r.CoverageAnalysis
	lines := []string{
		theme.Section.Render("Syllabus coverage"),
		theme.Body.Render(fmt.Sprintf("%d of %d topics covered (%.1f%%)", c.CoveredTopics, c.TotalTopics, c.CoveragePercentage)),
	}
	if len(c.IgnoredTopics) > 0 {
		lines = append(lines, theme.Bad.Render("Not covered: ")+theme.Body.Render(strings.Join(c.IgnoredTopics, ", ")))
	}
	if len(c.OverRepresented) > 0 {
		lines = append(lines, theme.Caution.Render("Over-represented: ")+theme.Body.Render(strings.Join(c.OverRepresented, ", ")))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func questionTable(r *analysis.Report, width int) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(theme.Border)).
		Headers("#", "Question", "Difficulty", "Level", "Topics").
		Width(width).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return theme.TableHeader
			}
			return theme.TableCell
		})
	for _, q := range r.Questions {
		text := q.Text
		if len([]rune(text)) > maxQuestionChars {
			text = string([]rune(text)[:maxQuestionChars-1]) + "…"
		}
		if q.Source == taxonomy.SourceHeuristic {
			text += " *"
		}
		t.Row(fmt.Sprint(q.ID), text, string(q.Difficulty), string(q.CognitiveLevel), strings.Join(r.Assignments[q.ID], ", "))
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		theme.Section.Render("Questions"),
		t.Render(),
		theme.Hint.Render("* labelled by heuristics"),
	)
}

func bias(r *analysis.Report) string {
	b := r.BiasAnalysis
	lines := []string{theme.Section.Render("Bias & clarity")}
	switch {
	case len(b.FairnessIndicators) == 0:
		lines = append(lines, theme.Hint.Render("Not assessed: no question was reviewed by the language model."))
	case !b.BiasDetected:
		lines = append(lines, theme.Good.Render("No bias or ambiguity issues detected."))
	default:
		for _, issue := range b.Issues {
			lines = append(lines, theme.Caution.Render("• ")+theme.Body.Render(issue))
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func suggestions(r *analysis.Report) string {
	lines := []string{theme.Section.Render("Suggestions")}
	for _, s := range r.Suggestions {
		lines = append(lines, lipgloss.NewStyle().Foreground(theme.Accent).Render("→ ")+theme.Body.Render(s))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
