// Package orchestrator runs the user-facing operations against the backend
// table and keeps the registry consistent with what actually happened.
//
// install and remove target one backend and pass through a confirmation
// gate. search, update, upgrade and info fan out over several backends; each
// backend's outcome is recorded in its own slot and never affects another.
// Only contract violations (no target, unknown backend) are returned as
// errors. Everything a backend does wrong ends up in a Report or Outcome.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/arc-language/manafest/pkg/alias"
	"github.com/arc-language/manafest/pkg/backend"
	"github.com/arc-language/manafest/pkg/core"
	"github.com/arc-language/manafest/pkg/native"
	"github.com/arc-language/manafest/pkg/store"
	"github.com/arc-language/manafest/pkg/vcs"
)

// Status is the result of one operation against one backend
type Status string

const (
	StatusOK                 Status = "ok"
	StatusFailed             Status = "failed"
	StatusSkippedUnavailable Status = "skipped-unavailable"
	StatusSkippedScope       Status = "skipped-scope"
	StatusNoCapability       Status = "no-capability"
	StatusCancelled          Status = "cancelled"
	StatusNotFound           Status = "not-found"
)

// Preview is what the confirmation gate shows before anything runs
type Preview struct {
	Action  core.Action
	Package string
	Backend string
	Record  core.PackageRecord
	Info    core.Metadata
	Argv    []string // empty when the backend cannot say
}

// Confirmer asks the caller to affirm a preview
type Confirmer interface {
	Confirm(ctx context.Context, p Preview) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer
type ConfirmFunc func(ctx context.Context, p Preview) (bool, error)

// Confirm calls f
func (f ConfirmFunc) Confirm(ctx context.Context, p Preview) (bool, error) {
	return f(ctx, p)
}

// AlwaysConfirm affirms every gate (--yes)
var AlwaysConfirm = ConfirmFunc(func(context.Context, Preview) (bool, error) { return true, nil })

// Options configures an Orchestrator
type Options struct {
	Table          *backend.Table
	Store          *store.Store
	Aliases        *alias.Aliases
	Confirmer      Confirmer
	Cloner         vcs.Cloner
	DefaultBackend string
	// Parallel dispatches fan-out calls concurrently
	Parallel bool
	// Force bypasses scope and prerequisite checks
	Force  bool
	Logger logrus.FieldLogger
	Now    func() time.Time
}

// Orchestrator runs operations. It holds no mutable state of its own.
type Orchestrator struct {
	table     *backend.Table
	store     *store.Store
	aliases   *alias.Aliases
	confirmer Confirmer
	cloner    vcs.Cloner
	def       string
	parallel  bool
	force     bool
	logger    logrus.FieldLogger
	now       func() time.Time
}

// New creates an Orchestrator. Table and Store are required.
func New(opts Options) (*Orchestrator, error) {
	if opts.Table == nil {
		return nil, errors.New("orchestrator: backend table is required")
	}
	if opts.Store == nil {
		return nil, errors.New("orchestrator: store is required")
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if opts.Confirmer == nil {
		opts.Confirmer = AlwaysConfirm
	}
	if opts.Cloner == nil {
		opts.Cloner = vcs.GoGit{}
	}
	if opts.DefaultBackend == "" {
		opts.DefaultBackend = backend.Default
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if _, err := opts.Table.Get(opts.DefaultBackend); err != nil {
		return nil, fmt.Errorf("orchestrator: default backend: %w", err)
	}

	return &Orchestrator{
		table:     opts.Table,
		store:     opts.Store,
		aliases:   opts.Aliases,
		confirmer: opts.Confirmer,
		cloner:    opts.Cloner,
		def:       opts.DefaultBackend,
		parallel:  opts.Parallel,
		force:     opts.Force,
		logger:    opts.Logger,
		now:       opts.Now,
	}, nil
}

// Table returns the backend table in use
func (o *Orchestrator) Table() *backend.Table {
	return o.table
}

// Store returns the registry store in use
func (o *Orchestrator) Store() *store.Store {
	return o.store
}

// Report is the outcome of a single-target operation
type Report struct {
	Action  core.Action
	Package string
	Backend string
	Status  Status
	Record  core.PackageRecord
	Info    core.Metadata
	Err     error
	// RegistryErr is set when the side effect happened but the registry
	// could not be updated to match.
	RegistryErr error
}

// Failed reports whether the operation did not achieve its effect.
// A declined confirmation is not a failure.
func (r *Report) Failed() bool {
	return r.Status != StatusOK && r.Status != StatusCancelled
}

func (r *Report) fail(status Status, err error) *Report {
	r.Status = status
	r.Err = err
	return r
}

func requireTarget(action core.Action, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", &core.Error{Op: string(action), Err: fmt.Errorf("%w: no package given", core.ErrInvalidTarget)}
	}
	return name, nil
}

// target picks the first caller-selected backend or the default
func (o *Orchestrator) target(ids []string) string {
	if len(ids) > 0 && ids[0] != "" {
		return ids[0]
	}
	return o.def
}

// resolve translates name through the alias table for b
func (o *Orchestrator) resolve(name string, b core.Backend) string {
	if o.aliases == nil {
		return name
	}
	keys := []string{b.Name()}
	if d, ok := b.(interface{ Driver() *native.Driver }); ok && d.Driver() != nil {
		keys = append(keys, d.Driver().Name)
	}
	return o.aliases.Resolve(name, keys...)
}

func (o *Orchestrator) argv(b core.Backend, action core.Action, arg string) []string {
	sel, ok := b.(core.CommandSelector)
	if !ok {
		return nil
	}
	argv, err := sel.SelectCommand(action, arg)
	if err != nil {
		return nil
	}
	return argv
}

func (o *Orchestrator) confirm(ctx context.Context, p Preview) (bool, error) {
	ok, err := o.confirmer.Confirm(ctx, p)
	if err != nil {
		if errors.Is(err, core.ErrCancelled) {
			return false, nil
		}
		return false, err
	}
	return ok, nil
}

// statusOf maps a backend error onto the status it is reported as
func statusOf(err error) Status {
	switch core.Classify(err) {
	case nil:
		return StatusOK
	case core.ErrToolUnavailable:
		return StatusSkippedUnavailable
	case core.ErrScopeMismatch:
		return StatusSkippedScope
	case core.ErrNotSupported:
		return StatusNoCapability
	case core.ErrCancelled:
		return StatusCancelled
	case core.ErrPackageNotFound:
		return StatusNotFound
	}
	if errors.Is(err, context.Canceled) {
		return StatusCancelled
	}
	return StatusFailed
}

func (o *Orchestrator) log(id string, action core.Action, name string) logrus.FieldLogger {
	fields := logrus.Fields{"backend": id, "action": action}
	if name != "" {
		fields["package"] = name
	}
	return o.logger.WithFields(fields)
}
