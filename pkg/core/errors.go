package core

import (
	"errors"
	"fmt"
)

// Error kinds. Every failure reported by the data source wraps exactly one
// of these; test with errors.Is.
var (
	// ErrInvalidArgument reports a malformed request or an invalid forest.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotFound reports an unknown record reference.
	ErrNotFound = errors.New("record not found")
	// ErrInvalidTarget reports a drop target that cannot hold the record.
	ErrInvalidTarget = errors.New("invalid drop target")
	// ErrCycleDetected reports a reparent that would make a record its own ancestor.
	ErrCycleDetected = errors.New("cycle detected")
	// ErrNoOp reports a reparent onto the record's current parent.
	// Callers may treat it as success.
	ErrNoOp = errors.New("record already under target")
)

// MoveError describes a rejected reparent or drop check.
type MoveError struct {
	Op        string
	Candidate RecordID
	Target    RecordID
	Err       error
}

func (e *MoveError) Error() string {
	if e.Target == NoParent {
		return fmt.Sprintf("%s %q: %v", e.Op, e.Candidate, e.Err)
	}
	return fmt.Sprintf("%s %q onto %q: %v", e.Op, e.Candidate, e.Target, e.Err)
}

func (e *MoveError) Unwrap() error {
	return e.Err
}

// IsNoOp reports whether err is a benign no-op rejection.
func IsNoOp(err error) bool {
	return errors.Is(err, ErrNoOp)
}

// Kind returns the error kind wrapped by err, or nil when err wraps none.
func Kind(err error) error {
	for _, kind := range []error{ErrInvalidArgument, ErrNotFound, ErrInvalidTarget, ErrCycleDetected, ErrNoOp} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
