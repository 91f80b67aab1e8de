package llm

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

var pingSchema = &Schema{
	Name:        PurposePing,
	Description: "Connectivity check",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"ok": map[string]any{"type": "boolean"},
		},
		"required":             []any{"ok"},
		"additionalProperties": false,
	},
}

// PingResult describes a successful connectivity check.
type PingResult struct {
	Model   string
	Latency time.Duration
	Usage   Usage
}

// Ping sends the smallest possible structured request through p and
// checks that the reply acknowledges it. Any error means the classifier
// would not be usable for an analysis right now.
func Ping(ctx context.Context, p Provider) (*PingResult, error) {
	ctx = WithPurpose(ctx, PurposePing)

	start := time.Now()
	resp, err := p.Generate(ctx, Request{
		System:    "You are a connectivity check. Reply with JSON only.",
		Messages:  []Message{{Role: RoleUser, Content: `Reply with {"ok": true}.`}},
		Schema:    pingSchema,
		MaxTokens: 32,
	})
	if err != nil {
		return nil, err
	}

	var body struct {
		OK bool `json:"ok"`
	}
	if err := json.Unmarshal(resp.Content, &body); err != nil {
		return nil, &ErrInvalidResponse{Content: resp.Content, Err: err}
	}
	if !body.OK {
		return nil, &ErrInvalidResponse{Content: resp.Content, Err: errors.New("ping not acknowledged")}
	}

	model := resp.Model
	if model == "" {
		model = p.ModelID()
	}
	return &PingResult{Model: model, Latency: time.Since(start), Usage: resp.Usage}, nil
}
