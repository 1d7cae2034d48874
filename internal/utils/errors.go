package utils

import "fmt"

// AppError identifies where in the resolution pipeline a failure happened.
// Op names the failing operation (for example "engine.Analyze" or
// "engine.Synthesize"), Msg is the short human-facing summary surfaced in
// the response envelope, and Err is the underlying cause kept for logs.
type AppError struct {
	Op  string
	Msg string
	Err error
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Err)
}

// Unwrap exposes the cause so callers can match collaborator errors with
// errors.Is and errors.As through the wrapper.
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError wraps err with the operation and message.
func NewAppError(op, msg string, err error) error {
	return &AppError{Op: op, Msg: msg, Err: err}
}
