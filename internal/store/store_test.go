package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "audit.db"))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_AppliesPragmas(t *testing.T) {
	s := openTestStore(t)

	var mode string
	if err := s.DB().QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("PRAGMA journal_mode: %v", err)
	}
	if mode != "wal" {
		t.Errorf("journal_mode = %q, want wal", mode)
	}

	var sync string
	if err := s.DB().QueryRow("PRAGMA synchronous").Scan(&sync); err != nil {
		t.Fatalf("PRAGMA synchronous: %v", err)
	}
	if sync != "1" { // NORMAL
		t.Errorf("synchronous = %q, want 1", sync)
	}
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.EventRepo().AppendLLMRequest(context.Background(), LLMRequestEventData{
		Provider: "mock", Model: "mock", Purpose: "ping", Success: true,
	}); err != nil {
		t.Fatalf("append: %v", err)
	}
	s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	events, err := s.EventRepo().QueryLLMEvents(context.Background(), QueryOpts{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events after reopen, want 1", len(events))
	}
}

func TestEventRepo_AppendAndQuery(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	inputs := []LLMRequestEventData{
		{AnalysisID: "a1", Provider: "azure", Model: "gpt-4o", Purpose: "topic-extraction", InputTokens: 100, OutputTokens: 20, LatencyMs: 300, Success: true},
		{AnalysisID: "a1", Provider: "azure", Model: "gpt-4o", Purpose: "question-classification", InputTokens: 400, OutputTokens: 200, LatencyMs: 900, Success: true},
		{AnalysisID: "a2", Provider: "azure", Model: "gpt-4o", Purpose: "question-classification", LatencyMs: 30000, Success: false, ErrorKind: "timeout", ErrorMessage: "LLM call timed out after 30s"},
	}
	for _, in := range inputs {
		if err := repo.AppendLLMRequest(ctx, in); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	all, err := repo.QueryLLMEvents(ctx, QueryOpts{})
	if err != nil {
		t.Fatalf("query all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("got %d events, want 3", len(all))
	}
	if all[0].AnalysisID != "a2" {
		t.Errorf("newest event analysis = %q, want a2", all[0].AnalysisID)
	}
	if all[0].Success || all[0].ErrorKind != "timeout" {
		t.Errorf("failed event not round-tripped: %+v", all[0])
	}
	if time.Since(all[0].Timestamp) > time.Minute {
		t.Errorf("timestamp looks wrong: %v", all[0].Timestamp)
	}

	byAnalysis, err := repo.QueryLLMEvents(ctx, QueryOpts{AnalysisID: "a1"})
	if err != nil {
		t.Fatalf("query by analysis: %v", err)
	}
	if len(byAnalysis) != 2 {
		t.Errorf("got %d events for a1, want 2", len(byAnalysis))
	}

	limited, err := repo.QueryLLMEvents(ctx, QueryOpts{Limit: 1, Purpose: "question-classification"})
	if err != nil {
		t.Fatalf("query limited: %v", err)
	}
	if len(limited) != 1 || limited[0].AnalysisID != "a2" {
		t.Errorf("limited query = %+v", limited)
	}

	future, err := repo.QueryLLMEvents(ctx, QueryOpts{From: time.Now().Add(time.Hour)})
	if err != nil {
		t.Fatalf("query future: %v", err)
	}
	if len(future) != 0 {
		t.Errorf("got %d events from the future", len(future))
	}
}

func TestEventRepo_Usage(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	for _, in := range []LLMRequestEventData{
		{Provider: "gemini", Model: "gemini-2.0-flash", Purpose: "topic-matching", InputTokens: 10, OutputTokens: 5, LatencyMs: 100, Success: true},
		{Provider: "gemini", Model: "gemini-2.0-flash", Purpose: "topic-matching", InputTokens: 30, OutputTokens: 15, LatencyMs: 300, Success: false},
		{Provider: "gemini", Model: "gemini-2.5-pro", Purpose: "topic-extraction", InputTokens: 7, OutputTokens: 3, LatencyMs: 50, Success: true},
	} {
		if err := repo.AppendLLMRequest(ctx, in); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	byPurpose, err := repo.LLMUsageByPurpose(ctx)
	if err != nil {
		t.Fatalf("usage by purpose: %v", err)
	}
	if len(byPurpose) != 2 {
		t.Fatalf("got %d purposes, want 2", len(byPurpose))
	}
	m := byPurpose[1]
	if m.Purpose != "topic-matching" || m.Calls != 2 || m.Failures != 1 || m.InputTokens != 40 || m.AvgLatencyMs != 200 {
		t.Errorf("topic-matching usage = %+v", m)
	}

	byModel, err := repo.LLMUsageByModel(ctx)
	if err != nil {
		t.Fatalf("usage by model: %v", err)
	}
	if len(byModel) != 2 || byModel[0].Model != "gemini-2.0-flash" || byModel[0].OutputTokens != 20 {
		t.Errorf("usage by model = %+v", byModel)
	}
}
