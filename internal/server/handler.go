package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/fairexam/fairexam/internal/analysis"
	"github.com/fairexam/fairexam/internal/document"
	"github.com/fairexam/fairexam/internal/llm"
	"github.com/fairexam/fairexam/internal/topics"
)

// StatusClientClosedRequest is reported when the client goes away before
// the analysis finishes.
const StatusClientClosedRequest = 499

const (
	fieldExam     = "exam_paper"
	fieldSyllabus = "syllabus"

	pingTimeout = 15 * time.Second
)

type handler struct {
	engine    Analyzer
	provider  llm.Provider
	maxUpload int64
	version   string
}

// Index handles GET /
func (h *handler) Index(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":      "active",
		"app":         "FairExam",
		"version":     h.version,
		"description": "Exam paper fairness and bias analysis",
	})
}

// Health handles GET /health
func (h *handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"status":                "healthy",
		"classifier_configured": h.provider != nil,
		"classifier_model":      "heuristic",
		"message":               "Running with fallback heuristics",
	}
	if h.provider != nil {
		resp["classifier_model"] = h.provider.ModelID()
		resp["message"] = "External classifier handles analysis, heuristics cover failures"
	}
	writeJSON(w, http.StatusOK, resp)
}

// ClassifierStatus handles GET /api/classifier/status. It sends a ping
// through the configured classifier.
func (h *handler) ClassifierStatus(w http.ResponseWriter, r *http.Request) {
	if h.provider == nil {
		writeJSON(w, http.StatusOK, map[string]any{
			"configured": false,
			"status":     "heuristics_only",
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
	defer cancel()

	res, err := llm.Ping(ctx, h.provider)
	if err != nil {
		slog.Warn("classifier ping failed", "model", h.provider.ModelID(), "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"configured": true,
			"status":     "unreachable",
			"model":      h.provider.ModelID(),
			"failure":    llm.FailureKind(err),
			"error":      err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"configured": true,
		"status":     "ok",
		"model":      res.Model,
		"latency_ms": res.Latency.Milliseconds(),
	})
}

// Analyze handles POST /api/analyze with multipart fields exam_paper and
// syllabus (PDF or TXT).
func (h *handler) Analyze(w http.ResponseWriter, r *http.Request) {
	if h.maxUpload > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("upload exceeds %d bytes", tooLarge.Limit))
			return
		}
		writeError(w, http.StatusBadRequest, "expected a multipart form with exam_paper and syllabus files")
		return
	}
	defer r.MultipartForm.RemoveAll()

	examName, examText, err := readDocument(r, fieldExam)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	syllabusName, syllabusText, err := readDocument(r, fieldSyllabus)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if !document.LooksLikeExam(examText) {
		writeError(w, http.StatusBadRequest, "uploaded file does not appear to be a valid exam paper")
		return
	}
	if !document.LooksLikeSyllabus(syllabusText) {
		writeError(w, http.StatusBadRequest, "uploaded file does not appear to be a valid syllabus")
		return
	}

	report, err := h.engine.Analyze(r.Context(), analysis.Request{
		ExamFilename:     examName,
		ExamText:         examText,
		SyllabusFilename: syllabusName,
		SyllabusText:     syllabusText,
	})
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			slog.Error("analysis failed", "exam", examName, "error", err)
			writeError(w, status, "analysis failed")
			return
		}
		writeError(w, status, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// readDocument reads one uploaded file and converts it to text.
func readDocument(r *http.Request, field string) (name, text string, err error) {
	f, hdr, err := r.FormFile(field)
	if err != nil {
		return "", "", fmt.Errorf("%s file is required", field)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return "", "", fmt.Errorf("read %s: %w", field, err)
	}
	text, err = document.ExtractText(data, hdr.Filename)
	if err != nil {
		return hdr.Filename, "", fmt.Errorf("%s: %w", field, err)
	}
	return hdr.Filename, text, nil
}

// statusFor maps an engine error to an HTTP status code.
func statusFor(err error) int {
	switch {
	case errors.Is(err, document.ErrEmptyDocument),
		errors.Is(err, document.ErrUnsupportedFormat),
		errors.Is(err, analysis.ErrTooFewQuestions):
		return http.StatusBadRequest
	case errors.Is(err, topics.ErrNoTopicsFound):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled):
		return StatusClientClosedRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Debug("write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
