package llm

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/fairexam/fairexam/internal/store"
)

// LoggingProvider is a decorator that records every LLM request as an
// audit event. Only call metadata is kept; prompts and replies are not
// persisted.
type LoggingProvider struct {
	inner     Provider
	provider  string
	eventRepo store.EventRepo
}

// WithLogging wraps a Provider with event logging. providerName is the
// configured provider ("azure", "gemini", ...). A nil repo only logs.
func WithLogging(p Provider, providerName string, repo store.EventRepo) Provider {
	return &LoggingProvider{inner: p, provider: providerName, eventRepo: repo}
}

func (l *LoggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()

	resp, err := l.inner.Generate(ctx, req)

	data := store.LLMRequestEventData{
		AnalysisID: AnalysisIDFrom(ctx),
		Provider:   l.provider,
		Model:      l.inner.ModelID(),
		Purpose:    PurposeFrom(ctx),
		LatencyMs:  time.Since(start).Milliseconds(),
		Success:    err == nil,
	}
	if resp != nil {
		data.InputTokens = resp.Usage.InputTokens
		data.OutputTokens = resp.Usage.OutputTokens
		if resp.Model != "" {
			data.Model = resp.Model
		}
	}
	if err != nil {
		data.ErrorKind = FailureKind(err)
		data.ErrorMessage = err.Error()
	}

	slog.Debug("LLM call",
		"analysis_id", data.AnalysisID,
		"purpose", data.Purpose,
		"model", data.Model,
		"latency_ms", data.LatencyMs,
		"input_tokens", data.InputTokens,
		"output_tokens", data.OutputTokens,
		"success", data.Success,
	)

	if l.eventRepo != nil {
		// Recording is best effort; the call result stands either way.
		if logErr := l.eventRepo.AppendLLMRequest(context.WithoutCancel(ctx), data); logErr != nil {
			slog.Warn("failed to record LLM request event", "error", logErr)
		}
	}

	return resp, err
}

func (l *LoggingProvider) ModelID() string {
	return l.inner.ModelID()
}

// FailureKind maps an error returned by a Provider to a short label:
// "timeout", "rate_limit", "invalid_response", "max_tokens", "unavailable"
// or "canceled". Unknown errors are "unavailable".
func FailureKind(err error) string {
	var (
		timeout *ErrTimeout
		rl      *ErrRateLimit
		inv     *ErrInvalidResponse
		maxTok  *ErrMaxTokensExceeded
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &timeout), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.As(err, &rl):
		return "rate_limit"
	case errors.As(err, &inv):
		return "invalid_response"
	case errors.As(err, &maxTok):
		return "max_tokens"
	default:
		return "unavailable"
	}
}
