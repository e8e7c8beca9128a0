package planner

import (
	"errors"
	"fmt"
)

var (
	// ErrNotSignedIn is returned by mutations while no user is loaded
	ErrNotSignedIn = errors.New("not signed in")
	// ErrNoWorkspace is returned when a project needs a workspace and none is current
	ErrNoWorkspace = errors.New("no active workspace")
	// ErrLastWorkspace is returned when deleting the only workspace
	ErrLastWorkspace = errors.New("cannot delete the only workspace")
	// ErrStaleLoad is returned when a load finished after the session changed
	ErrStaleLoad = errors.New("session changed while loading")
)

// ValidationError reports missing or invalid caller input
type ValidationError struct {
	Op     string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Reason == "" && e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// ConstraintViolation reports a mutation that would break a model invariant
type ConstraintViolation struct {
	Op  string
	Err error
}

func (e *ConstraintViolation) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }

func (e *ConstraintViolation) Unwrap() error { return e.Err }

// RemoteIOError wraps a failure of the document store
type RemoteIOError struct {
	Op  string
	Err error
}

func (e *RemoteIOError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }

func (e *RemoteIOError) Unwrap() error { return e.Err }

// DataIntegrityWarning describes a task whose parent project does not exist
type DataIntegrityWarning struct {
	TaskID   string
	ParentID string
}

func (w DataIntegrityWarning) String() string {
	return fmt.Sprintf("task %s: project %s not found", w.TaskID, w.ParentID)
}

func invalid(op, reason string) error {
	return &ValidationError{Op: op, Reason: reason}
}

func remote(op string, err error) error {
	return &RemoteIOError{Op: op, Err: err}
}
