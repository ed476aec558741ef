// pkg/core/interface.go
package core

import (
	"context"
	"strings"

	"github.com/arc-language/manafest/pkg/platform"
)

// Action names one verb a backend may implement.
type Action string

const (
	ActionSearch      Action = "search"
	ActionInstall     Action = "install"
	ActionRemove      Action = "remove"
	ActionInfo        Action = "info"
	ActionUpdate      Action = "update"
	ActionUpgrade     Action = "upgrade"
	ActionIsInstalled Action = "installed"
)

// Backend is the part every backend shares. The operations it supports are
// declared by implementing the capability interfaces below.
type Backend interface {
	// Name returns the backend identifier (e.g. "default", "aur", "github")
	Name() string
}

// Searcher searches a backend. No results is an empty slice, not an error.
type Searcher interface {
	Search(ctx context.Context, query string) ([]PackageRecord, error)
}

// InfoProvider returns metadata for one package. Record-shaped backends
// return PackageRecord.Metadata(); source hosts return their own keys.
type InfoProvider interface {
	Info(ctx context.Context, name string) (Metadata, error)
}

// Installer installs a package. The returned metadata (possibly empty)
// identifies what was installed, e.g. the path of a clone.
type Installer interface {
	Install(ctx context.Context, name string) (Metadata, error)
}

// Remover removes a package.
type Remover interface {
	Remove(ctx context.Context, name string) error
}

// RecordedRemover removes using the metadata recorded when the package was
// installed (e.g. the path of a clone). Preferred over Remover when the
// registry holds an entry.
type RecordedRemover interface {
	RemoveRecorded(ctx context.Context, name string, recorded Metadata) error
}

// Updater refreshes the backend's package index.
type Updater interface {
	Update(ctx context.Context) error
}

// Upgrader upgrades everything the backend manages.
type Upgrader interface {
	Upgrade(ctx context.Context) error
}

// InstallChecker answers "is this installed" without a full info round-trip.
type InstallChecker interface {
	IsInstalled(ctx context.Context, name string) (bool, error)
}

// CommandSelector maps an action and argument to the argv a backend would run.
// It must be pure so the mapping can be tested without executing anything.
type CommandSelector interface {
	SelectCommand(action Action, arg string) ([]string, error)
}

// Prerequisiter is implemented by backends that need something on the host
// (a runtime, a helper binary). A non-nil error wraps ErrToolUnavailable.
type Prerequisiter interface {
	CheckPrerequisites() error
}

// Scoped is implemented by backends restricted to an OS family or distro.
// A non-nil error wraps ErrScopeMismatch.
type Scoped interface {
	CheckScope(p *platform.Platform) error
}

// Capability is a single bit in a CapabilitySet.
type Capability uint8

const (
	CapSearch Capability = 1 << iota
	CapInstall
	CapRemove
	CapInfo
	CapUpdate
	CapUpgrade
	CapIsInstalled
)

// CapabilitySet is the set of operations a backend actually implements.
type CapabilitySet uint8

// CapabilityDeclarer narrows the computed set for backends whose methods
// exist on the type but whose underlying tool lacks some operations.
type CapabilityDeclarer interface {
	Capabilities() CapabilitySet
}

// CapabilitiesOf computes the capability set of b from the interfaces it
// implements, intersected with its declared set when it has one.
func CapabilitiesOf(b Backend) CapabilitySet {
	set := implemented(b)
	if d, ok := b.(CapabilityDeclarer); ok {
		set &= d.Capabilities()
	}
	return set
}

// Can reports whether b supports action.
func Can(b Backend, action Action) bool {
	return CapabilitiesOf(b).Supports(action)
}

func implemented(b Backend) CapabilitySet {
	var set CapabilitySet
	if _, ok := b.(Searcher); ok {
		set |= CapabilitySet(CapSearch)
	}
	if _, ok := b.(Installer); ok {
		set |= CapabilitySet(CapInstall)
	}
	if _, ok := b.(Remover); ok {
		set |= CapabilitySet(CapRemove)
	}
	if _, ok := b.(InfoProvider); ok {
		set |= CapabilitySet(CapInfo)
	}
	if _, ok := b.(Updater); ok {
		set |= CapabilitySet(CapUpdate)
	}
	if _, ok := b.(Upgrader); ok {
		set |= CapabilitySet(CapUpgrade)
	}
	if _, ok := b.(InstallChecker); ok {
		set |= CapabilitySet(CapIsInstalled)
	}
	return set
}

// Has reports whether c is in the set.
func (s CapabilitySet) Has(c Capability) bool {
	return s&CapabilitySet(c) != 0
}

// With adds the capability for action to the set.
func (s CapabilitySet) With(action Action) CapabilitySet {
	if c, ok := actionCaps[action]; ok {
		s |= CapabilitySet(c)
	}
	return s
}

// Supports reports whether the set covers action.
func (s CapabilitySet) Supports(action Action) bool {
	c, ok := actionCaps[action]
	return ok && s.Has(c)
}

// String lists the capabilities, e.g. "search,install,info".
func (s CapabilitySet) String() string {
	var names []string
	for _, a := range []Action{ActionSearch, ActionInstall, ActionRemove, ActionInfo, ActionUpdate, ActionUpgrade, ActionIsInstalled} {
		if s.Supports(a) {
			names = append(names, string(a))
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ",")
}

var actionCaps = map[Action]Capability{
	ActionSearch:      CapSearch,
	ActionInstall:     CapInstall,
	ActionRemove:      CapRemove,
	ActionInfo:        CapInfo,
	ActionUpdate:      CapUpdate,
	ActionUpgrade:     CapUpgrade,
	ActionIsInstalled: CapIsInstalled,
}
