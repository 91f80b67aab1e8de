package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/fairexam/fairexam/internal/analysis"
	"github.com/fairexam/fairexam/internal/document"
	"github.com/fairexam/fairexam/internal/export"
	uireport "github.com/fairexam/fairexam/internal/ui/report"
)

const maxRenderWidth = 120

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze an exam paper against its syllabus",
	Example: "  fairexam analyze --exam midterm.pdf --syllabus syllabus.txt\n" +
		"  fairexam analyze --exam midterm.txt --syllabus syllabus.pdf --format json --offline",
	RunE: func(cmd *cobra.Command, args []string) error {
		examPath, _ := cmd.Flags().GetString("exam")
		syllabusPath, _ := cmd.Flags().GetString("syllabus")
		format, _ := cmd.Flags().GetString("format")
		xlsxPath, _ := cmd.Flags().GetString("xlsx")
		scoringPath, _ := cmd.Flags().GetString("scoring-config")
		offline, _ := cmd.Flags().GetBool("offline")
		strict, _ := cmd.Flags().GetBool("strict")
		verbose, _ := cmd.Flags().GetBool("verbose")

		if format != "text" && format != "json" {
			return fmt.Errorf("unknown format %q (want text or json)", format)
		}

		examText, err := readDocument(examPath)
		if err != nil {
			return fmt.Errorf("exam paper: %w", err)
		}
		syllabusText, err := readDocument(syllabusPath)
		if err != nil {
			return fmt.Errorf("syllabus: %w", err)
		}
		if err := checkPlausible(examPath, examText, syllabusPath, syllabusText, strict); err != nil {
			return err
		}

		engine, _, cleanup, err := buildEngine(cmd, engineOptions{offline: offline, scoringConfig: scoringPath})
		if err != nil {
			return err
		}
		defer cleanup()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		report, err := engine.Analyze(ctx, analysis.Request{
			ExamFilename:     filepath.Base(examPath),
			ExamText:         examText,
			SyllabusFilename: filepath.Base(syllabusPath),
			SyllabusText:     syllabusText,
		})
		if err != nil {
			return err
		}

		if xlsxPath != "" {
			if err := writeXLSXFile(xlsxPath, report); err != nil {
				return err
			}
		}

		out := cmd.OutOrStdout()
		if format == "json" {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		}
		_, err = lipgloss.Fprintln(out, uireport.Render(report, terminalWidth(out), verbose))
		return err
	},
}

func init() {
	f := analyzeCmd.Flags()
	f.StringP("exam", "e", "", "Exam paper file (PDF or TXT)")
	f.StringP("syllabus", "s", "", "Syllabus file (PDF or TXT)")
	f.StringP("format", "f", "text", "Output format: text or json")
	f.String("xlsx", "", "Also write the report as an Excel workbook to this path")
	f.String("scoring-config", "", "YAML scoring policy (see 'fairexam scoring defaults')")
	f.Bool("offline", false, "Skip the external classifier and use heuristics only")
	f.Bool("strict", false, "Reject files that do not look like an exam paper or syllabus")
	f.BoolP("verbose", "v", false, "Include per-question details in text output")

	_ = analyzeCmd.MarkFlagRequired("exam")
	_ = analyzeCmd.MarkFlagRequired("syllabus")
}

func readDocument(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return document.ExtractText(data, path)
}

// checkPlausible warns about, or in strict mode rejects, inputs that do
// not look like what they claim to be.
func checkPlausible(examPath, examText, syllabusPath, syllabusText string, strict bool) error {
	checks := []struct {
		ok  bool
		msg string
	}{
		{document.LooksLikeExam(examText), examPath + " does not appear to be an exam paper"},
		{document.LooksLikeSyllabus(syllabusText), syllabusPath + " does not appear to be a syllabus"},
	}
	for _, c := range checks {
		if c.ok {
			continue
		}
		if strict {
			return errors.New(c.msg)
		}
		slog.Warn(c.msg)
	}
	return nil
}

func writeXLSXFile(path string, report *analysis.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create workbook: %w", err)
	}
	if err := export.WriteXLSX(f, report); err != nil {
		f.Close()
		return fmt.Errorf("write workbook: %w", err)
	}
	return f.Close()
}

// terminalWidth returns the width of w when it is a terminal.
func terminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(f.Fd()) {
		return uireport.DefaultWidth
	}
	width, _, err := term.GetSize(f.Fd())
	if err != nil || width <= 0 {
		return uireport.DefaultWidth
	}
	return min(width, maxRenderWidth)
}
