package llm

import (
	"context"
	"errors"
	"time"
)

// TimeoutProvider bounds every Generate call with a deadline.
type TimeoutProvider struct {
	inner   Provider
	timeout time.Duration
}

// WithTimeout wraps p so each call is cancelled after d. A call that runs
// out of its own budget fails with *ErrTimeout; if the caller's context was
// cancelled first, the caller's error is returned unchanged. d <= 0 disables
// the bound.
func WithTimeout(p Provider, d time.Duration) Provider {
	if d <= 0 {
		return p
	}
	return &TimeoutProvider{inner: p, timeout: d}
}

func (t *TimeoutProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	callCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	resp, err := t.inner.Generate(callCtx, req)
	if err == nil {
		return resp, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return nil, &ErrTimeout{After: t.timeout, Err: err}
	}
	return nil, err
}

func (t *TimeoutProvider) ModelID() string {
	return t.inner.ModelID()
}
