// Package export writes analysis reports to spreadsheet workbooks.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/fairexam/fairexam/internal/analysis"
	"github.com/fairexam/fairexam/internal/fairness"
	"github.com/fairexam/fairexam/internal/taxonomy"
)

// Sheet names, in workbook order.
const (
	SheetSummary     = "Summary"
	SheetQuestions   = "Questions"
	SheetCoverage    = "Coverage"
	SheetSuggestions = "Suggestions"
)

// WriteXLSX renders report as a workbook with summary, per-question,
// coverage and suggestion sheets.
func WriteXLSX(w io.Writer, report *analysis.Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{SheetQuestions, SheetCoverage, SheetSuggestions} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"DDEBF7"}},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	sheets := []struct {
		name string
		rows [][]any
	}{
		{SheetSummary, summaryRows(report)},
		{SheetQuestions, questionRows(report)},
		{SheetCoverage, coverageRows(report)},
		{SheetSuggestions, suggestionRows(report)},
	}
	for _, s := range sheets {
		if err := writeRows(f, s.name, s.rows, header); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(SheetSummary, "A", "A", 28); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetQuestions, "B", "B", 70); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetCoverage, "A", "A", 36); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetSuggestions, "A", "A", 100); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any, headerStyle int) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil
	}
	last, err := excelize.CoordinatesToCellName(len(rows[0]), 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, "A1", last, headerStyle)
}

func summaryRows(r *analysis.Report) [][]any {
	rows := [][]any{
		{"Metric", "Value"},
		{"Exam", r.ExamMetadata.ExamFilename},
		{"Syllabus", r.ExamMetadata.SyllabusFilename},
		{"Fairness score", r.FairnessScore},
		{"Interpretation", r.Interpretation},
		{"Questions", r.ExamMetadata.TotalQuestions},
		{"Topics", r.CoverageAnalysis.TotalTopics},
		{"Coverage %", r.CoverageAnalysis.CoveragePercentage},
	}
	for _, name := range []string{fairness.ComponentDifficulty, fairness.ComponentBlooms, fairness.ComponentCoverage} {
		c := r.ComponentScores[name]
		rows = append(rows, []any{fmt.Sprintf("%s (weight %g)", name, c.Weight), c.Score})
	}
	for _, d := range taxonomy.Difficulties {
		rows = append(rows, []any{"Difficulty: " + string(d), r.DifficultyAnalysis.Distribution[d]})
	}
	for _, l := range taxonomy.CognitiveLevels {
		rows = append(rows, []any{"Bloom's: " + string(l), r.BloomsAnalysis.Distribution[l]})
	}
	rows = append(rows, []any{"Bias detected", r.BiasAnalysis.BiasDetected})
	if r.Diagnostics != nil {
		rows = append(rows,
			[]any{"Analysis ID", r.Diagnostics.AnalysisID},
			[]any{"Classifier", r.Diagnostics.ClassifierModel},
			[]any{"Fallback stages", strings.Join(r.Diagnostics.FallbackStages, ", ")},
		)
	}
	return rows
}

func questionRows(r *analysis.Report) [][]any {
	rows := [][]any{{"#", "Question", "Difficulty", "Bloom's level", "Topics", "Bias flags", "Notes", "Source"}}
	for _, q := range r.Questions {
		flags := make([]string, len(q.BiasFlags))
		for i, f := range q.BiasFlags {
			flags[i] = string(f)
		}
		rows = append(rows, []any{
			q.ID,
			q.Text,
			string(q.Difficulty),
			string(q.CognitiveLevel),
			strings.Join(r.Assignments[q.ID], ", "),
			strings.Join(flags, ", "),
			q.BiasNotes,
			string(q.Source),
		})
	}
	return rows
}

func coverageRows(r *analysis.Report) [][]any {
	over := make(map[string]bool, len(r.CoverageAnalysis.OverRepresented))
	for _, label := range r.CoverageAnalysis.OverRepresented {
		over[label] = true
	}

	rows := [][]any{{"Topic", "Questions", "Status"}}
	for _, label := range r.ExamMetadata.SyllabusTopics {
		n := r.CoverageAnalysis.TopicCoverage[label]
		status := "covered"
		switch {
		case n == 0:
			status = "not covered"
		case over[label]:
			status = "over-represented"
		}
		rows = append(rows, []any{label, n, status})
	}
	return rows
}

func suggestionRows(r *analysis.Report) [][]any {
	rows := [][]any{{"Suggestion"}}
	for _, s := range r.Suggestions {
		rows = append(rows, []any{s})
	}
	for _, issue := range r.BiasAnalysis.Issues {
		rows = append(rows, []any{"Bias: " + issue})
	}
	return rows
}
