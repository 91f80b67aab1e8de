package cmd

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const (
	testExam = `Discrete Mathematics Midterm
Answer all questions. Each question carries 10 marks.
1. Define a set and give two examples of finite sets.
2. Explain the difference between a relation and a function.
3. Prove that the composition of two bijections is a bijection.
4. Calculate the number of subsets of a set with five elements.`

	testSyllabus = `Course: Discrete Mathematics
Course objectives: introduce the foundations of discrete structures.
Unit 1: Sets and Relations
Unit 2: Functions
Unit 3: Counting and Combinatorics`
)

func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger(&buf, "info", "json")
	require.NoError(t, err)
	logger.Debug("hidden")
	logger.Info("shown", "stage", "classification")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "shown", line["msg"])
	assert.Equal(t, "classification", line["stage"])

	logger, err = newLogger(&buf, "", "")
	require.NoError(t, err)
	assert.False(t, logger.Enabled(t.Context(), slog.LevelInfo))
	assert.True(t, logger.Enabled(t.Context(), slog.LevelWarn))

	_, err = newLogger(&buf, "verbose", "text")
	assert.Error(t, err)
	_, err = newLogger(&buf, "info", "xml")
	assert.Error(t, err)
}

func TestAnalyzeCommand_OfflineJSON(t *testing.T) {
	dir := t.TempDir()
	exam := writeFile(t, dir, "midterm.txt", testExam)
	syllabus := writeFile(t, dir, "syllabus.txt", testSyllabus)
	xlsx := filepath.Join(dir, "report.xlsx")

	out, err := runRoot(t, "analyze",
		"--exam", exam, "--syllabus", syllabus,
		"--format", "json", "--offline", "--xlsx", xlsx,
		"--db", filepath.Join(dir, "audit.db"))
	require.NoError(t, err, out)

	var report map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &report), out)
	meta := report["exam_metadata"].(map[string]any)
	assert.Equal(t, "midterm.txt", meta["exam_filename"])
	assert.Equal(t, 4.0, meta["total_questions"])

	diag := report["diagnostics"].(map[string]any)
	assert.Equal(t, "heuristic", diag["classifier_model"])

	f, err := excelize.OpenFile(xlsx)
	require.NoError(t, err)
	defer f.Close()
	assert.Contains(t, f.GetSheetList(), "Summary")
}

func TestAnalyzeCommand_UnknownFormat(t *testing.T) {
	dir := t.TempDir()
	_, err := runRoot(t, "analyze",
		"--exam", writeFile(t, dir, "e.txt", testExam),
		"--syllabus", writeFile(t, dir, "s.txt", testSyllabus),
		"--format", "yaml", "--xlsx", "")
	assert.ErrorContains(t, err, "unknown format")
}

func TestCheckPlausible(t *testing.T) {
	assert.NoError(t, checkPlausible("e.txt", testExam, "s.txt", testSyllabus, true))
	assert.NoError(t, checkPlausible("e.txt", "hello", "s.txt", testSyllabus, false))
	assert.EqualError(t,
		checkPlausible("e.txt", "hello", "s.txt", testSyllabus, true),
		"e.txt does not appear to be an exam paper")
}

func TestScoringDefaultsRoundTrip(t *testing.T) {
	out, err := runRoot(t, "scoring", "defaults")
	require.NoError(t, err)
	assert.Contains(t, out, "difficulty_penalty_factor: 0.625")

	p := writeFile(t, t.TempDir(), "scoring.yaml", out)
	out, err = runRoot(t, "scoring", "check", p)
	require.NoError(t, err)
	assert.Contains(t, out, "ok (weights 40/30/30, 5 bands)")
}

func TestVersionCommand(t *testing.T) {
	out, err := runRoot(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "fairexam (devel)\n", out)
}
