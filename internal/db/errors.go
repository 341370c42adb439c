package db

import "errors"

// Sentinel errors for database operations.
var (
	ErrKeyNotFound      = errors.New("db: key not found")
	ErrRevisionMismatch = errors.New("db: revision mismatch")
)

// Op names for error context.
const (
	OpGet    = "GET"
	OpMGet   = "MGET"
	OpPut    = "PUT"
	OpDelete = "DELETE"
	OpView   = "VIEW"
	OpPing   = "PING"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }

// RevisionError reports a failed compare-and-set along with the stored revision.
type RevisionError struct {
	Key     string
	Current string
}

func (e *RevisionError) Error() string {
	return "db: revision mismatch for " + e.Key + " (current " + e.Current + ")"
}

// Unwrap makes errors.Is(err, ErrRevisionMismatch) hold.
func (e *RevisionError) Unwrap() error { return ErrRevisionMismatch }
