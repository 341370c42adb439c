package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing resource or a resource of the wrong kind.
	ErrNotFound = errors.New("not found")
	// ErrForbidden signals that the requester does not own the resource.
	ErrForbidden = errors.New("forbidden")
	// ErrAlreadyExists signals a duplicate resource (e.g. a taken username).
	ErrAlreadyExists = errors.New("already exists")
	// ErrValidation signals malformed input rejected before any store call.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidCredentials signals a failed authentication.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrKindMismatch signals that a stored document carries a different kind tag.
	// It wraps ErrNotFound: callers that cannot tell the two apart see "not found".
	ErrKindMismatch = fmt.Errorf("kind mismatch: %w", ErrNotFound)

	// ErrRevisionConflict signals an optimistic locking conflict.
	ErrRevisionConflict = errors.New("revision conflict")
	// ErrWriteContention signals that conflict retries were exhausted.
	ErrWriteContention = errors.New("write contention")

	// ErrStoreUnavailable signals a document store transport failure.
	ErrStoreUnavailable = errors.New("document store unavailable")
	// ErrSearchUnavailable signals a search engine transport failure.
	ErrSearchUnavailable = errors.New("search engine unavailable")
	// ErrNotImplemented signals a feature disabled in this deployment.
	ErrNotImplemented = errors.New("not implemented")
)

// RevisionConflictError wraps ErrRevisionConflict with the current stored revision.
type RevisionConflictError struct {
	CurrentRevision string
}

func (e *RevisionConflictError) Error() string {
	if e.CurrentRevision == "" {
		return ErrRevisionConflict.Error() + ": document is absent"
	}
	return fmt.Sprintf("%s: current revision is %s", ErrRevisionConflict.Error(), e.CurrentRevision)
}

func (e *RevisionConflictError) Unwrap() error { return ErrRevisionConflict }

// NewRevisionConflict creates a revision conflict error.
func NewRevisionConflict(currentRevision string) error {
	return &RevisionConflictError{CurrentRevision: currentRevision}
}

// ContentionError wraps ErrWriteContention with the number of attempts made.
type ContentionError struct {
	ID       string
	Attempts int
}

func (e *ContentionError) Error() string {
	return fmt.Sprintf("%s: %s still conflicting after %d attempts", ErrWriteContention.Error(), e.ID, e.Attempts)
}

func (e *ContentionError) Unwrap() error { return ErrWriteContention }

// Validationf formats a validation error wrapping ErrValidation.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrValidation)
}
