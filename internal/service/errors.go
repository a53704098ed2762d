package service

import (
	"errors"
	"fmt"

	"procurement/internal/workflow"
)

var (
	// ErrNotFound indicates the requested document does not exist in the
	// caller's business unit.
	ErrNotFound = errors.New("purchase request not found")
	// ErrLocked indicates the document reached a terminal status and is
	// read-only.
	ErrLocked = errors.New("purchase request is read-only in its current status")
	// ErrInvalidTransition indicates the named action is not eligible for
	// the document's current line statuses.
	ErrInvalidTransition = errors.New("action not allowed in current document state")
)

// ValidationError carries the per-line required-field failures that blocked
// a save or transition.
type ValidationError struct {
	Lines []workflow.LineValidationError
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("please complete required fields (%d issues)", len(e.Lines))
}
