package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"
)

// vendorError maps a failed vendor call onto this package's error types so
// the retry and fallback layers can treat every vendor alike. status is the
// HTTP status the vendor answered with, or 0 if no reply arrived.
//
// Context errors are returned unchanged: WithTimeout and the caller decide
// whether a deadline was the call's own budget or the analysis being
// abandoned.
func vendorError(status int, retryAfter time.Duration, err error) error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case status == http.StatusTooManyRequests:
		return &ErrRateLimit{RetryAfter: retryAfter, Err: err}
	case status == http.StatusRequestTimeout, status == http.StatusGatewayTimeout:
		return &ErrTimeout{Err: err}
	default:
		// 5xx, Anthropic's 529 overload, auth and transport failures.
		return &ErrProviderUnavailable{Err: err}
	}
}

// parseRetryAfter reads a Retry-After header given either in seconds or as
// an HTTP date. It returns 0 when the header is absent or unusable.
func parseRetryAfter(h http.Header) time.Duration {
	v := h.Get("Retry-After")
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}

// finishReply turns a vendor's raw reply text into validated content. A
// reply cut short by the token limit is reported as such rather than as
// malformed JSON, since asking again with the same limit cannot help.
func finishReply(schema *Schema, content json.RawMessage, stopReason string) (json.RawMessage, error) {
	if stopReason == "max_tokens" {
		return nil, &ErrMaxTokensExceeded{Content: content}
	}
	return normalizeJSON(schema, content)
}
