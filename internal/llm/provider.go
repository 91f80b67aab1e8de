// Package llm is the client side of the external language-model classifier.
// Every analysis stage that can use a model talks to it through Provider;
// concrete SDK-backed providers and decorators (timeout, retry, audit
// logging) all satisfy the same interface.
package llm

import (
	"context"
	"encoding/json"
)

// Provider is a structured-output language model.
type Provider interface {
	// Generate sends req and returns the model's reply. When req.Schema is
	// set the reply Content is JSON that has already been validated against
	// the schema; a reply that fails validation is reported as
	// *ErrInvalidResponse.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the model identifier this provider is configured to use.
	ModelID() string
}

// Request is a single-turn (or short multi-turn) prompt.
type Request struct {
	// System sets the model's role and output rules.
	System string

	// Messages usually holds a single user message with the material to
	// classify.
	Messages []Message

	// Schema, when set, selects the provider's native structured output
	// mode. When nil, Content is the raw text reply.
	Schema *Schema

	MaxTokens int

	// Temperature in [0, 1]. Zero keeps the provider default, which is
	// what the classifiers want for repeatable labels.
	Temperature float64
}

// Message is one conversation turn.
type Message struct {
	Role    Role
	Content string
}

// Role is the message sender role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema is the JSON Schema a reply must conform to.
type Schema struct {
	// Name identifies the schema, e.g. "question-classification". Used as
	// the schema name by OpenAI and as the compile cache key.
	Name string

	Description string

	Definition map[string]any

	// Validation, when set, is what replies are checked against in place
	// of Definition. Definition is still what the vendor is asked to follow.
	Validation map[string]any
}

// Response holds the model's output.
type Response struct {
	Content json.RawMessage

	Usage Usage

	// Model is the model that actually served the request.
	Model string

	// StopReason is normalized to "end" or "max_tokens".
	StopReason string
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}
