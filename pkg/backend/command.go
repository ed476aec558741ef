package backend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/arc-language/manafest/pkg/archive"
	"github.com/arc-language/manafest/pkg/core"
	"github.com/arc-language/manafest/pkg/executor"
	"github.com/arc-language/manafest/pkg/native"
	"github.com/arc-language/manafest/pkg/platform"
)

// CommandBackend runs a native.Driver's argv table through the executor.
// The default, aur, flatpak and snap backends are all CommandBackends.
type CommandBackend struct {
	id       string
	driver   *native.Driver
	scope    func(*platform.Platform) error
	runner   executor.Runner
	timeouts core.Timeouts
	logger   logrus.FieldLogger
}

// NewCommandBackend wraps driver under id. scope may be nil.
func NewCommandBackend(id string, driver *native.Driver, scope func(*platform.Platform) error, opts Options) *CommandBackend {
	opts = opts.withDefaults()
	return &CommandBackend{
		id:       id,
		driver:   driver,
		scope:    scope,
		runner:   opts.Runner,
		timeouts: opts.Config.Timeouts,
		logger:   opts.Logger.WithField("backend", id),
	}
}

// Name returns the backend identifier
func (b *CommandBackend) Name() string {
	return b.id
}

// Driver exposes the argv table in use
func (b *CommandBackend) Driver() *native.Driver {
	return b.driver
}

// Capabilities lists the actions the driver has an argv for
func (b *CommandBackend) Capabilities() core.CapabilitySet {
	var set core.CapabilitySet
	for _, a := range []core.Action{
		core.ActionSearch, core.ActionInstall, core.ActionRemove, core.ActionInfo,
		core.ActionUpdate, core.ActionUpgrade, core.ActionIsInstalled,
	} {
		if b.driver.Supports(a) {
			set = set.With(a)
		}
	}
	return set
}

// SelectCommand returns the argv for action without running it
func (b *CommandBackend) SelectCommand(action core.Action, arg string) ([]string, error) {
	return b.driver.SelectCommand(action, arg)
}

// CheckPrerequisites requires the driver's binary on PATH
func (b *CommandBackend) CheckPrerequisites() error {
	if !platform.CommandExists(b.driver.Binary) {
		return fmt.Errorf("%w: %s not found in PATH", core.ErrToolUnavailable, b.driver.Binary)
	}
	return nil
}

// CheckScope applies the backend's OS restriction, if any
func (b *CommandBackend) CheckScope(p *platform.Platform) error {
	if b.scope == nil {
		return nil
	}
	return b.scope(p)
}

// Search runs the driver's search command. A non-zero exit with no output at
// all is how pacman-style tools report "no matches".
func (b *CommandBackend) Search(ctx context.Context, query string) ([]core.PackageRecord, error) {
	res, err := b.run(ctx, core.ActionSearch, query, b.timeouts.Query, executor.StdinNone)
	if err != nil {
		var exitErr *executor.ExitError
		if errors.As(err, &exitErr) && res != nil && len(res.Stdout) == 0 && len(res.Stderr) == 0 {
			return []core.PackageRecord{}, nil
		}
		return nil, err
	}

	records := b.driver.ParseSearch(string(res.Stdout))
	if len(records) == 0 && len(res.Stdout) > 0 {
		b.logger.WithField("package", query).Debug("search output had no parseable rows")
	}
	return records, nil
}

// Info describes name. Local package files are read directly.
func (b *CommandBackend) Info(ctx context.Context, name string) (core.Metadata, error) {
	if archive.IsPackageFile(name) {
		rec, err := archive.Inspect(name)
		if err != nil {
			b.logger.WithField("package", name).Debugf("unreadable package file: %v", err)
			rec = core.UnknownRecord(name)
		}
		return rec.Metadata(), nil
	}

	res, err := b.run(ctx, core.ActionInfo, name, b.timeouts.Query, executor.StdinNone)
	if err != nil {
		return nil, err
	}

	rec := b.driver.ParseInfo(string(res.Stdout), name)
	if rec.IsUnknown() {
		b.logger.WithField("package", name).Debug("info output had no recognised fields")
	}
	return rec.Metadata(), nil
}

// Install installs name with the caller's terminal attached
func (b *CommandBackend) Install(ctx context.Context, name string) (core.Metadata, error) {
	if _, err := b.run(ctx, core.ActionInstall, name, b.timeouts.Install, executor.StdinInherit); err != nil {
		return nil, err
	}
	return core.Metadata{}, nil
}

// Remove removes name
func (b *CommandBackend) Remove(ctx context.Context, name string) error {
	_, err := b.run(ctx, core.ActionRemove, name, b.timeouts.Install, executor.StdinInherit)
	return err
}

// Update refreshes the package index
func (b *CommandBackend) Update(ctx context.Context) error {
	_, err := b.run(ctx, core.ActionUpdate, "", b.timeouts.Maintenance, executor.StdinInherit)
	return err
}

// Upgrade upgrades everything the manager tracks
func (b *CommandBackend) Upgrade(ctx context.Context) error {
	_, err := b.run(ctx, core.ActionUpgrade, "", b.timeouts.Maintenance, executor.StdinInherit)
	return err
}

// IsInstalled asks the manager directly; a non-zero exit means "no"
func (b *CommandBackend) IsInstalled(ctx context.Context, name string) (bool, error) {
	_, err := b.run(ctx, core.ActionIsInstalled, name, b.timeouts.Query, executor.StdinNone)
	if err == nil {
		return true, nil
	}
	var exitErr *executor.ExitError
	if errors.As(err, &exitErr) {
		return false, nil
	}
	return false, err
}

func (b *CommandBackend) run(ctx context.Context, action core.Action, arg string, timeout time.Duration, stdin executor.StdinPolicy) (*executor.Result, error) {
	argv, err := b.driver.SelectCommand(action, arg)
	if err != nil {
		return nil, b.wrap(action, arg, err)
	}

	res, err := executor.Check(ctx, b.runner, executor.Command{
		Argv:    argv,
		Timeout: timeout,
		Stdin:   stdin,
	})
	if err != nil {
		b.logger.WithFields(logrus.Fields{
			"action":  action,
			"package": arg,
			"argv":    argv,
		}).Debugf("command failed: %v", err)
		return res, b.wrap(action, arg, err)
	}
	return res, nil
}

func (b *CommandBackend) wrap(action core.Action, pkg string, err error) error {
	return &core.Error{Op: string(action), Backend: b.id, Package: pkg, Err: err}
}
