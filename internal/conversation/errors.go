package conversation

import (
	"errors"
	"fmt"
)

// ErrEventNotFound indicates a delete target could not be located in the
// search window.
var ErrEventNotFound = errors.New("conversation: event not found")

// ExtractionFailedError is returned when the LLM output does not contain a
// single well-formed JSON object. The raw text is attached for diagnostics.
type ExtractionFailedError struct {
	Raw string
}

func (e *ExtractionFailedError) Error() string {
	return fmt.Sprintf("conversation: extraction failed: no parseable JSON in %q", truncate(e.Raw, 120))
}

// ProviderError wraps a calendar collaborator failure.
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("conversation: calendar %s failed: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
