package upstream

import (
	"errors"
	"fmt"
)

// Error is returned for any failed call to the upstream product API.
// Status is 0 when no HTTP response was received.
type Error struct {
	Op     string
	Status int
	Body   string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("upstream %s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("upstream %s returned %d", e.Op, e.Status)
}

func (e *Error) Unwrap() error { return e.Err }

// StatusOf returns the upstream HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var ue *Error
	if errors.As(err, &ue) {
		return ue.Status
	}
	return 0
}
