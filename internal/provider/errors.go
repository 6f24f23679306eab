package provider

import "fmt"

// FailReason labels why one adapter call failed. The coordinator treats every
// reason identically (move to the next adapter) but logs them distinctly.
type FailReason string

const (
	FailTimeout     FailReason = "timeout"
	FailEmpty       FailReason = "empty_result"
	FailMalformed   FailReason = "malformed_payload"
	FailRateLimited FailReason = "rate_limited"
)

// FetchError is a per-adapter failure. It wraps the underlying cause for
// logging but is never surfaced to the end caller individually.
type FetchError struct {
	Source string
	Reason FailReason
	Err    error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Source, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Source, e.Reason)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Errf builds a FetchError with a formatted cause.
func Errf(source string, reason FailReason, format string, args ...interface{}) *FetchError {
	return &FetchError{Source: source, Reason: reason, Err: fmt.Errorf(format, args...)}
}
