package inference

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode represents specific inference error types.
type ErrorCode string

const (
	ErrNotConfigured       ErrorCode = "NOT_CONFIGURED"
	ErrUpstreamUnavailable ErrorCode = "UPSTREAM_UNAVAILABLE"
	ErrRateLimited         ErrorCode = "RATE_LIMITED"
	ErrMalformedResponse   ErrorCode = "MALFORMED_RESPONSE"
	ErrEmptyResponse       ErrorCode = "EMPTY_RESPONSE"
	ErrAllModelsFailed     ErrorCode = "ALL_MODELS_FAILED"
)

// InferenceError is a structured error for model call failures.
type InferenceError struct {
	Code    ErrorCode
	Message string
	Model   string // e.g. "@cf/qwen/qwq-32b" or "gemini-2.0-flash"
	Cause   error
}

func (e *InferenceError) Error() string {
	prefix := fmt.Sprintf("[%s]", e.Code)
	if e.Model != "" {
		prefix += " " + e.Model
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

func (e *InferenceError) Unwrap() error {
	return e.Cause
}

// HasCode reports whether err is an InferenceError with code.
func HasCode(err error, code ErrorCode) bool {
	var ie *InferenceError
	return errors.As(err, &ie) && ie.Code == code
}

// statusError classifies a non-200 upstream response.
func statusError(model string, status int, body []byte) *InferenceError {
	code := ErrUpstreamUnavailable
	if status == 429 {
		code = ErrRateLimited
	}
	return &InferenceError{
		Code:    code,
		Model:   model,
		Message: fmt.Sprintf("upstream returned %d: %s", status, truncate(string(body), 200)),
	}
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n]
}
