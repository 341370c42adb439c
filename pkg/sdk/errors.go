package osinter

import "github.com/osinter/osinter/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrNotFound           = domain.ErrNotFound
	ErrForbidden          = domain.ErrForbidden
	ErrAlreadyExists      = domain.ErrAlreadyExists
	ErrValidation         = domain.ErrValidation
	ErrInvalidCredentials = domain.ErrInvalidCredentials
	ErrRevisionConflict   = domain.ErrRevisionConflict
	ErrWriteContention    = domain.ErrWriteContention
	ErrStoreUnavailable   = domain.ErrStoreUnavailable
	ErrSearchUnavailable  = domain.ErrSearchUnavailable
	ErrNotImplemented     = domain.ErrNotImplemented
)
