package types

import (
	"errors"
	"fmt"
)

var (
	ErrRoomNotFound   = errors.New("room not found")
	ErrSessionInvalid = errors.New("session invalid or expired")
)

// ValidationError is returned for malformed session-creation input. It is
// always surfaced synchronously to the requester, never fatal.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// MalformedPayloadError wraps an inbound frame that did not parse as the
// expected structured payload. The caller logs and drops the frame, the
// connection stays open.
type MalformedPayloadError struct {
	Err error
}

func (e *MalformedPayloadError) Error() string {
	return fmt.Sprintf("malformed payload: %s", e.Err)
}

func (e *MalformedPayloadError) Unwrap() error { return e.Err }
