package backend

import (
	"github.com/arc-language/manafest/pkg/native"
)

// NewDefault builds the backend for the host's own package manager
func NewDefault(opts Options) *CommandBackend {
	opts = opts.withDefaults()
	return NewCommandBackend(Default, native.ForPlatform(opts.Platform), nil, opts)
}
