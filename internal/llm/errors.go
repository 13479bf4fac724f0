package llm

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Kind tags a provider failure so callers can decide on retries without
// inspecting error messages.
type Kind int

const (
	KindTransient Kind = iota
	KindTimeout
	KindSafetyBlock
	KindQuotaExceeded
	KindInvalidInput
	KindPermissionDenied
)

func (k Kind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindSafetyBlock:
		return "safety_block"
	case KindQuotaExceeded:
		return "quota_exceeded"
	case KindInvalidInput:
		return "invalid_input"
	case KindPermissionDenied:
		return "permission_denied"
	default:
		return "transient"
	}
}

// Error is a tagged provider failure.
type Error struct {
	Kind     Kind
	Provider string

	// RetryAfter is the upstream hint for rate limits, zero when absent.
	RetryAfter time.Duration

	Err error
}

func (e *Error) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("%s: %s: %v", e.Provider, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the tag from err. Untagged errors report false.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return KindTransient, false
}

// errorFromStatus tags an SDK error by its HTTP status code.
func errorFromStatus(provider string, status int, err error) *Error {
	kind := KindTransient
	switch {
	case status == http.StatusBadRequest:
		kind = KindInvalidInput
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		kind = KindPermissionDenied
	case status == http.StatusTooManyRequests:
		kind = KindQuotaExceeded
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		kind = KindTimeout
	}
	return &Error{Kind: kind, Provider: provider, Err: err}
}

// retryAfter reads a Retry-After header given in seconds or as an HTTP date.
// Missing or unparsable values yield zero.
func retryAfter(resp *http.Response, now time.Time) time.Duration {
	if resp == nil {
		return 0
	}
	v := strings.TrimSpace(resp.Header.Get("Retry-After"))
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs <= 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil && at.After(now) {
		return at.Sub(now)
	}
	return 0
}

// InvokeError is returned by Client.Invoke when no attempt succeeded.
type InvokeError struct {
	// Attempts is the number of upstream calls made.
	Attempts int

	// Exhausted is true when every allowed attempt failed with a
	// retryable error.
	Exhausted bool

	Err error
}

func (e *InvokeError) Error() string {
	if e.Exhausted {
		return fmt.Sprintf("model call failed after %d attempts: %v", e.Attempts, e.Err)
	}
	return fmt.Sprintf("model call failed (attempt %d): %v", e.Attempts, e.Err)
}

func (e *InvokeError) Unwrap() error { return e.Err }

// Kind reports the tag of the last failure.
func (e *InvokeError) Kind() Kind {
	k, _ := KindOf(e.Err)
	return k
}
