package backend

import (
	"fmt"

	"github.com/arc-language/manafest/pkg/core"
	"github.com/arc-language/manafest/pkg/platform"
)

// Table is the immutable set of backends for one process. It is built once
// at startup and handed to the orchestrator.
type Table struct {
	backends map[string]core.Backend
	order    []string
	platform *platform.Platform
}

// NewTable indexes backends in the given order. Identifiers must be unique.
func NewTable(p *platform.Platform, backends ...core.Backend) (*Table, error) {
	t := &Table{
		backends: make(map[string]core.Backend, len(backends)),
		platform: p,
	}
	for _, b := range backends {
		id := b.Name()
		if _, dup := t.backends[id]; dup {
			return nil, fmt.Errorf("duplicate backend %q", id)
		}
		t.backends[id] = b
		t.order = append(t.order, id)
	}
	return t, nil
}

// Build constructs every backend in Order from opts
func Build(opts Options) (*Table, error) {
	opts = opts.withDefaults()

	backends := []core.Backend{
		NewDefault(opts),
		NewAUR(opts),
		NewFlatpak(opts),
		NewSnap(opts),
		NewPyPI(opts),
	}
	for _, id := range []string{GitHub, GitLab, Bitbucket} {
		host, err := NewSourceHost(id, opts)
		if err != nil {
			return nil, err
		}
		backends = append(backends, host)
	}

	return NewTable(opts.Platform, backends...)
}

// Get returns the backend registered under id
func (t *Table) Get(id string) (core.Backend, error) {
	b, ok := t.backends[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownBackend, id)
	}
	return b, nil
}

// IDs returns every identifier in table order
func (t *Table) IDs() []string {
	return append([]string(nil), t.order...)
}

// Platform is the host the table was built for
func (t *Table) Platform() *platform.Platform {
	return t.platform
}

// Check reports why b cannot be used on this host: a ScopeMismatch first,
// then a missing prerequisite. force skips both.
func (t *Table) Check(b core.Backend, force bool) error {
	if force {
		return nil
	}
	if s, ok := b.(core.Scoped); ok && t.platform != nil {
		if err := s.CheckScope(t.platform); err != nil {
			return err
		}
	}
	if p, ok := b.(core.Prerequisiter); ok {
		if err := p.CheckPrerequisites(); err != nil {
			return err
		}
	}
	return nil
}

// Selectable returns the backend for id if it may be used on this host
func (t *Table) Selectable(id string, force bool) (core.Backend, error) {
	b, err := t.Get(id)
	if err != nil {
		return nil, err
	}
	if err := t.Check(b, force); err != nil {
		return nil, &core.Error{Op: "select", Backend: id, Err: err}
	}
	return b, nil
}
