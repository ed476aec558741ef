// pkg/core/errors.go
package core

import (
	"errors"
	"fmt"
)

var (
	// ErrToolUnavailable indicates a backend's binary or runtime is missing on the host
	ErrToolUnavailable = errors.New("tool unavailable")

	// ErrScopeMismatch indicates the backend does not apply to this OS or distribution
	ErrScopeMismatch = errors.New("backend not applicable to this system")

	// ErrExternalCall indicates a non-zero exit, timeout or network failure
	ErrExternalCall = errors.New("external call failed")

	// ErrParse indicates backend output could not be understood
	ErrParse = errors.New("unparseable backend output")

	// ErrRegistryCorrupt indicates the registry file could not be decoded
	ErrRegistryCorrupt = errors.New("registry corrupt")

	// ErrCancelled indicates the caller declined a confirmation gate
	ErrCancelled = errors.New("cancelled")

	// ErrNotSupported indicates the backend lacks the requested capability
	ErrNotSupported = errors.New("not supported by backend")

	// ErrPackageNotFound indicates the package was not found
	ErrPackageNotFound = errors.New("package not found")

	// ErrInvalidTarget indicates an operation was called without a usable target
	ErrInvalidTarget = errors.New("invalid target")

	// ErrUnknownBackend indicates a backend identifier that is not registered
	ErrUnknownBackend = errors.New("unknown backend")
)

// Error wraps an error with the operation, backend and package involved
type Error struct {
	Op      string // Operation that failed
	Backend string // Backend identifier if applicable
	Package string // Package name if applicable
	Err     error  // Underlying error
}

func (e *Error) Error() string {
	prefix := e.Op
	if e.Backend != "" {
		prefix = e.Backend + " " + prefix
	}
	if e.Package != "" {
		return fmt.Sprintf("%s %s: %v", prefix, e.Package, e.Err)
	}
	return fmt.Sprintf("%s: %v", prefix, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Classify returns the taxonomy sentinel err belongs to, or nil.
func Classify(err error) error {
	for _, target := range []error{
		ErrCancelled,
		ErrToolUnavailable,
		ErrScopeMismatch,
		ErrNotSupported,
		ErrPackageNotFound,
		ErrRegistryCorrupt,
		ErrParse,
		ErrExternalCall,
		ErrInvalidTarget,
		ErrUnknownBackend,
	} {
		if errors.Is(err, target) {
			return target
		}
	}
	return nil
}
