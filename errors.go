package manafest

import "github.com/arc-language/manafest/pkg/core"

// Re-exported error taxonomy; match with errors.Is
var (
	ErrToolUnavailable = core.ErrToolUnavailable
	ErrScopeMismatch   = core.ErrScopeMismatch
	ErrExternalCall    = core.ErrExternalCall
	ErrParse           = core.ErrParse
	ErrRegistryCorrupt = core.ErrRegistryCorrupt
	ErrCancelled       = core.ErrCancelled
	ErrNotSupported    = core.ErrNotSupported
	ErrPackageNotFound = core.ErrPackageNotFound
	ErrInvalidTarget   = core.ErrInvalidTarget
	ErrUnknownBackend  = core.ErrUnknownBackend
)

// Error carries the operation, backend and package behind a failure
type Error = core.Error
