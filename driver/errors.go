package driver

import (
	"errors"
	"fmt"
)

// ErrNotConfigured is returned by a Session that has no cache yet.
var ErrNotConfigured = errors.New("cache is not configured")

// ErrSyntax is wrapped by every trace parsing error.
var ErrSyntax = errors.New("trace syntax error")

// An OpError reports the operation of a workload that failed.
type OpError struct {
	Index int
	Op    Op
	Err   error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("op %d (%s 0x%x): %v",
		e.Index, e.Op.Kind, e.Op.Address, e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}
