package llm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func retryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		InitialWait: 1 * time.Millisecond,
		MaxWait:     10 * time.Millisecond,
		Multiplier:  2.0,
	}
}

// labelBatchSchema has the shape of a question-classification reply: a
// strict entry definition for the vendor and a loose envelope for
// validation.
func labelBatchSchema() *Schema {
	return &Schema{
		Name:        "test-label-batch",
		Description: "Difficulty and cognitive level per numbered question",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"questions": map[string]any{
					"type": "array",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"number":          map[string]any{"type": "integer"},
							"difficulty":      map[string]any{"type": "string", "description": "One of Easy, Medium, Hard"},
							"cognitive_level": map[string]any{"type": "string"},
						},
						"required":             []any{"number", "difficulty", "cognitive_level"},
						"additionalProperties": false,
					},
				},
			},
			"required":             []any{"questions"},
			"additionalProperties": false,
		},
		Validation: ListEnvelope("questions"),
	}
}

const labelBatch = `{"questions":[
	{"number":1,"difficulty":"Easy","cognitive_level":"Remember"},
	{"number":2,"difficulty":"Hard","cognitive_level":"Evaluate"}
]}`

func classifyRequest() Request {
	return Request{
		System:    "Label each exam question.",
		Messages:  []Message{{Role: RoleUser, Content: "1. Define a set.\n2. Critique the proof."}},
		Schema:    labelBatchSchema(),
		MaxTokens: 512,
	}
}

func TestRetry_LabelsOnFirstAttempt(t *testing.T) {
	mock := NewMockProvider(MockResponse{Content: json.RawMessage(labelBatch)})

	resp, err := WithRetry(mock, retryConfig()).Generate(context.Background(), classifyRequest())
	require.NoError(t, err)
	assert.JSONEq(t, labelBatch, string(resp.Content))
	assert.Equal(t, 1, mock.CallCount())
}

func TestRetry_OverloadedThenLabels(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Err: &ErrProviderUnavailable{Err: errors.New("529 overloaded")}},
		MockResponse{Content: json.RawMessage(labelBatch)},
	)

	resp, err := WithRetry(mock, retryConfig()).Generate(context.Background(), classifyRequest())
	require.NoError(t, err)
	assert.JSONEq(t, labelBatch, string(resp.Content))
	assert.Equal(t, 2, mock.CallCount())
}

func TestRetry_GivesUpAfterMaxAttempts(t *testing.T) {
	down := MockResponse{Err: &ErrProviderUnavailable{Err: errors.New("503")}}
	mock := NewMockProvider(down, down, down, MockResponse{Content: json.RawMessage(labelBatch)})

	_, err := WithRetry(mock, retryConfig()).Generate(context.Background(), classifyRequest())
	var unavailable *ErrProviderUnavailable
	require.True(t, errors.As(err, &unavailable), "got %T (%v)", err, err)
	assert.Equal(t, "unavailable", FailureKind(err))
	assert.Equal(t, 3, mock.CallCount())
}

func TestRetry_TruncatedBatchNotRetried(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Err: &ErrMaxTokensExceeded{Content: json.RawMessage(`{"questions":[{"number":1,"diff`)}},
		MockResponse{Content: json.RawMessage(labelBatch)},
	)

	_, err := WithRetry(mock, retryConfig()).Generate(context.Background(), classifyRequest())
	var maxTok *ErrMaxTokensExceeded
	require.True(t, errors.As(err, &maxTok), "got %T (%v)", err, err)
	assert.Equal(t, 1, mock.CallCount())
}

func TestRetry_MissingEnvelopeRetriedOnce(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Content: json.RawMessage(`{"labels":[]}`)},
		MockResponse{Content: json.RawMessage(`[{"number":1}]`)},
		MockResponse{Content: json.RawMessage(labelBatch)},
	)

	_, err := WithRetry(mock, retryConfig()).Generate(context.Background(), classifyRequest())
	var invalid *ErrInvalidResponse
	require.True(t, errors.As(err, &invalid), "got %T (%v)", err, err)
	assert.Equal(t, 2, mock.CallCount())
}

func TestRetry_MalformedEntryPassesEnvelope(t *testing.T) {
	reply := `{"questions":[
		{"number":1,"difficulty":"Easy","cognitive_level":"Remember"},
		{"number":"2","difficulty":"Hard"}
	]}`
	mock := NewMockProvider(MockResponse{Content: json.RawMessage(reply)})

	resp, err := WithRetry(mock, retryConfig()).Generate(context.Background(), classifyRequest())
	require.NoError(t, err)
	assert.JSONEq(t, reply, string(resp.Content))
	assert.Equal(t, 1, mock.CallCount())
}

func TestRetry_CallerCanceled(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Err: &ErrProviderUnavailable{Err: errors.New("down")}},
		MockResponse{Content: json.RawMessage(labelBatch)},
	)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := WithRetry(mock, retryConfig()).Generate(ctx, classifyRequest())
	assert.Error(t, err)
	assert.Equal(t, 1, mock.CallCount())
}

func TestRetry_RateLimitRespectsRetryAfter(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Err: &ErrRateLimit{RetryAfter: time.Millisecond, Err: errors.New("429")}},
		MockResponse{Content: json.RawMessage(labelBatch)},
	)

	resp, err := WithRetry(mock, retryConfig()).Generate(context.Background(), classifyRequest())
	require.NoError(t, err)
	assert.JSONEq(t, labelBatch, string(resp.Content))
	assert.Equal(t, 2, mock.CallCount())
}

func TestRetry_ModelIDDelegates(t *testing.T) {
	assert.Equal(t, "mock", WithRetry(NewMockProvider(), retryConfig()).ModelID())
}
