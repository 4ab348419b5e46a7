package chat

import "fmt"

// GenerationError wraps any failure inside the chat turn after the user
// message has been persisted. The user's question stays in the
// conversation record; no assistant message is written.
type GenerationError struct {
	SessionID string
	Err       error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("chat generation for session %s: %v", e.SessionID, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// ProviderError is returned when a provider call keeps failing after the
// retry budget is exhausted, or fails with a non-retryable error.
type ProviderError struct {
	Operation string
	Attempts  int
	Err       error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s failed after %d attempt(s): %v", e.Operation, e.Attempts, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }
