package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairexam/fairexam/internal/analysis"
	"github.com/fairexam/fairexam/internal/document"
	"github.com/fairexam/fairexam/internal/fairness"
	"github.com/fairexam/fairexam/internal/llm"
	"github.com/fairexam/fairexam/internal/topics"
)

const (
	examText = `Discrete Mathematics Midterm
Answer all questions. Each question carries 10 marks.
1. Define a set and give two examples of finite sets.
2. Explain the difference between a relation and a function.
3. Prove that the composition of two bijections is a bijection.
4. Calculate the number of subsets of a set with five elements.`

	syllabusText = `Course: Discrete Mathematics
Course objectives: introduce the foundations of discrete structures.
Unit 1: Sets and Relations
Unit 2: Functions
Unit 3: Counting and Combinatorics`
)

type upload struct {
	field, filename, content string
}

func multipartRequest(t *testing.T, uploads ...upload) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, u := range uploads {
		fw, err := mw.CreateFormFile(u.field, u.filename)
		require.NoError(t, err)
		_, err = fw.Write([]byte(u.content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/analyze", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func heuristicServer(t *testing.T) *Server {
	t.Helper()
	scorer, err := fairness.NewScorer(fairness.DefaultConfig())
	require.NoError(t, err)
	engine := analysis.New(nil, scorer, analysis.DefaultConfig())
	return New(DefaultConfig(), engine, nil)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func TestAnalyze_HeuristicsOnly(t *testing.T) {
	srv := heuristicServer(t)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, multipartRequest(t,
		upload{fieldExam, "midterm.txt", examText},
		upload{fieldSyllabus, "syllabus.txt", syllabusText},
	))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	body := decodeBody(t, rec)
	score, ok := body["fairness_score"].(float64)
	require.True(t, ok)
	assert.GreaterOrEqual(t, score, 0.0)
	assert.LessOrEqual(t, score, 100.0)

	meta := body["exam_metadata"].(map[string]any)
	assert.Equal(t, "midterm.txt", meta["exam_filename"])
	assert.Equal(t, "syllabus.txt", meta["syllabus_filename"])
	assert.Equal(t, 4.0, meta["total_questions"])

	bias := body["bias_analysis"].(map[string]any)
	assert.Equal(t, false, bias["bias_detected"])
	assert.NotNil(t, bias["issues"])
}

func TestAnalyze_InputErrors(t *testing.T) {
	tests := []struct {
		name    string
		uploads []upload
		wantMsg string
	}{
		{
			name:    "missing syllabus",
			uploads: []upload{{fieldExam, "exam.txt", examText}},
			wantMsg: "syllabus file is required",
		},
		{
			name: "unsupported format",
			uploads: []upload{
				{fieldExam, "exam.docx", examText},
				{fieldSyllabus, "syllabus.txt", syllabusText},
			},
			wantMsg: document.ErrUnsupportedFormat.Error(),
		},
		{
			name: "empty exam",
			uploads: []upload{
				{fieldExam, "exam.txt", "   "},
				{fieldSyllabus, "syllabus.txt", syllabusText},
			},
			wantMsg: document.ErrEmptyDocument.Error(),
		},
		{
			name: "not an exam",
			uploads: []upload{
				{fieldExam, "exam.txt", "The quick brown fox jumps over the lazy dog again and again today."},
				{fieldSyllabus, "syllabus.txt", syllabusText},
			},
			wantMsg: "does not appear to be a valid exam paper",
		},
		{
			name: "not a syllabus",
			uploads: []upload{
				{fieldExam, "exam.txt", examText},
				{fieldSyllabus, "syllabus.txt", "The quick brown fox jumps over the lazy dog again and again today."},
			},
			wantMsg: "does not appear to be a valid syllabus",
		},
	}

	srv := heuristicServer(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, multipartRequest(t, tt.uploads...))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, decodeBody(t, rec)["error"], tt.wantMsg)
		})
	}
}

func TestAnalyze_NotMultipart(t *testing.T) {
	srv := heuristicServer(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type stubAnalyzer struct {
	err error
}

func (s stubAnalyzer) Analyze(context.Context, analysis.Request) (*analysis.Report, error) {
	return nil, s.err
}

func TestAnalyze_ErrorStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("exam paper: %w", analysis.ErrTooFewQuestions), http.StatusBadRequest},
		{fmt.Errorf("syllabus: %w", topics.ErrNoTopicsFound), http.StatusUnprocessableEntity},
		{context.Canceled, StatusClientClosedRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		srv := New(DefaultConfig(), stubAnalyzer{err: tt.err}, nil)
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, multipartRequest(t,
			upload{fieldExam, "exam.txt", examText},
			upload{fieldSyllabus, "syllabus.txt", syllabusText},
		))

		assert.Equal(t, tt.want, rec.Code, tt.err.Error())
		assert.NotEmpty(t, decodeBody(t, rec)["error"])
	}
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	heuristicServer(t).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, false, body["classifier_configured"])
	assert.Equal(t, "heuristic", body["classifier_model"])
}

func TestIndex(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Version = "1.2.3"
	rec := httptest.NewRecorder()
	New(cfg, stubAnalyzer{}, nil).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1.2.3", decodeBody(t, rec)["version"])
}

func TestClassifierStatus(t *testing.T) {
	t.Run("heuristics only", func(t *testing.T) {
		rec := httptest.NewRecorder()
		New(DefaultConfig(), stubAnalyzer{}, nil).Handler().
			ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/classifier/status", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "heuristics_only", decodeBody(t, rec)["status"])
	})

	t.Run("reachable", func(t *testing.T) {
		mock := llm.NewMockProvider().On(llm.PurposePing, llm.MockResponse{Content: json.RawMessage(`{"ok":true}`)})
		rec := httptest.NewRecorder()
		New(DefaultConfig(), stubAnalyzer{}, mock).Handler().
			ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/classifier/status", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "ok", body["status"])
		assert.Equal(t, "mock", body["model"])
	})

	t.Run("unreachable", func(t *testing.T) {
		rec := httptest.NewRecorder()
		New(DefaultConfig(), stubAnalyzer{}, llm.NewMockProvider()).Handler().
			ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/classifier/status", nil))

		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "unreachable", body["status"])
		assert.Equal(t, "unavailable", body["failure"])
	})
}

func TestCORS(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AllowedOrigins = []string{"http://localhost:5173"}
	h := New(cfg, stubAnalyzer{}, nil).Handler()

	req := httptest.NewRequest(http.MethodOptions, "/api/analyze", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
