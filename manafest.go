// Package manafest drives many package managers through one interface.
//
// NewManager builds the whole graph once, leaves first: platform detection,
// the command executor and HTTP client, the backend table, the registry
// store, name aliases and finally the orchestrator that runs operations.
package manafest

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/arc-language/manafest/pkg/alias"
	"github.com/arc-language/manafest/pkg/backend"
	"github.com/arc-language/manafest/pkg/core"
	"github.com/arc-language/manafest/pkg/executor"
	"github.com/arc-language/manafest/pkg/orchestrator"
	"github.com/arc-language/manafest/pkg/platform"
	"github.com/arc-language/manafest/pkg/remote"
	"github.com/arc-language/manafest/pkg/store"
	"github.com/arc-language/manafest/pkg/vcs"
)

// Re-exported types
type (
	Config        = core.Config
	PackageRecord = core.PackageRecord
	Metadata      = core.Metadata
	Report        = orchestrator.Report
	Outcome       = orchestrator.Outcome
	InfoReport    = orchestrator.InfoReport
	Installed     = orchestrator.Installed
	CloneRequest  = orchestrator.CloneRequest
	Preview       = orchestrator.Preview
	Confirmer     = orchestrator.Confirmer
	Status        = orchestrator.Status
	RegistryEntry = store.Entry
)

// Backend identifiers
const (
	BackendDefault   = backend.Default
	BackendAUR       = backend.AUR
	BackendFlatpak   = backend.Flatpak
	BackendSnap      = backend.Snap
	BackendPyPI      = backend.PyPI
	BackendGitHub    = backend.GitHub
	BackendGitLab    = backend.GitLab
	BackendBitbucket = backend.Bitbucket
)

// Unknown is the placeholder for missing package fields
const Unknown = core.Unknown

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return core.DefaultConfig()
}

// Options carries what NewManager cannot take from Config
type Options struct {
	Logger    logrus.FieldLogger
	Confirmer Confirmer
	// Force bypasses scope and prerequisite checks
	Force bool
	// Sequential disables concurrent fan-out regardless of Config.Parallel
	Sequential bool

	// Overrides, mostly for tests
	Platform *platform.Platform
	Runner   executor.Runner
	Cloner   vcs.Cloner
}

// Manager is the assembled package manager
type Manager struct {
	*orchestrator.Orchestrator

	config   *Config
	platform *platform.Platform
	table    *backend.Table
}

// NewManager builds a Manager from cfg
func NewManager(cfg *Config, opts Options) (*Manager, error) {
	if cfg == nil {
		cfg = core.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}

	plat := opts.Platform
	if plat == nil {
		plat = platform.Detect()
	}
	runner := opts.Runner
	if runner == nil {
		runner = executor.New(opts.Logger)
	}
	cloner := opts.Cloner
	if cloner == nil {
		cloner = vcs.GoGit{}
	}

	table, err := backend.Build(backend.Options{
		Config:   cfg,
		Platform: plat,
		Runner:   runner,
		Client:   remote.NewClient(cfg.Timeouts.HTTP, opts.Logger),
		Cloner:   cloner,
		Logger:   opts.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("building backends: %w", err)
	}

	orch, err := orchestrator.New(orchestrator.Options{
		Table:          table,
		Store:          store.New(cfg.RegistryPath, opts.Logger),
		Aliases:        alias.New(cfg.AliasDir, opts.Logger),
		Confirmer:      opts.Confirmer,
		Cloner:         cloner,
		DefaultBackend: cfg.DefaultBackend,
		Parallel:       cfg.Parallel && !opts.Sequential,
		Force:          opts.Force,
		Logger:         opts.Logger,
	})
	if err != nil {
		return nil, err
	}

	return &Manager{
		Orchestrator: orch,
		config:       cfg,
		platform:     plat,
		table:        table,
	}, nil
}

// Config returns the configuration in use
func (m *Manager) Config() *Config {
	return m.config
}

// Platform returns the detected host
func (m *Manager) Platform() *platform.Platform {
	return m.platform
}

// BackendStatus describes one backend on this host
type BackendStatus struct {
	ID           string
	Capabilities core.CapabilitySet
	// Unusable is why the backend cannot be selected here, nil if it can
	Unusable error
}

// Backends reports every backend in table order
func (m *Manager) Backends() []BackendStatus {
	out := make([]BackendStatus, 0, len(m.table.IDs()))
	for _, id := range m.table.IDs() {
		b, err := m.table.Get(id)
		if err != nil {
			continue
		}
		_, unusable := m.table.Selectable(id, false)
		out = append(out, BackendStatus{
			ID:           id,
			Capabilities: core.CapabilitiesOf(b),
			Unusable:     unusable,
		})
	}
	return out
}
