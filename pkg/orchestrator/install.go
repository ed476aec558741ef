package orchestrator

import (
	"context"
	"fmt"

	"github.com/arc-language/manafest/pkg/archive"
	"github.com/arc-language/manafest/pkg/core"
	"github.com/arc-language/manafest/pkg/store"
)

// Install installs name through exactly one backend: the first of ids, or
// the default. The registry is written only after the backend reports
// success.
func (o *Orchestrator) Install(ctx context.Context, name string, ids ...string) (*Report, error) {
	name, err := requireTarget(core.ActionInstall, name)
	if err != nil {
		return nil, err
	}

	id := o.target(ids)
	b, err := o.table.Get(id)
	if err != nil {
		return nil, err
	}

	report := &Report{
		Action:  core.ActionInstall,
		Package: name,
		Backend: id,
		Record:  core.UnknownRecord(name),
	}
	log := o.log(id, core.ActionInstall, name)

	// PrerequisiteCheck
	if err := o.table.Check(b, o.force); err != nil {
		log.Debugf("backend not selectable: %v", err)
		return report.fail(statusOf(err), &core.Error{Op: "select", Backend: id, Err: err}), nil
	}
	installer, ok := b.(core.Installer)
	if !ok || !core.Can(b, core.ActionInstall) {
		return report.fail(StatusNoCapability, &core.Error{Op: string(core.ActionInstall), Backend: id, Package: name, Err: core.ErrNotSupported}), nil
	}

	target := o.resolve(name, b)

	// MetadataPreview
	info := o.preview(ctx, b, target, name)
	report.Info = info
	report.Record = info.Record(name)

	key := name
	if archive.IsPackageFile(name) && report.Record.Name != core.Unknown && report.Record.Name != name {
		key = report.Record.Name
		report.Package = key
	}

	// ConfirmationGate
	ok, err = o.confirm(ctx, Preview{
		Action:  core.ActionInstall,
		Package: key,
		Backend: id,
		Record:  report.Record,
		Info:    info,
		Argv:    o.argv(b, core.ActionInstall, target),
	})
	if err != nil {
		return report.fail(StatusFailed, fmt.Errorf("confirmation: %w", err)), nil
	}
	if !ok {
		log.Info("install cancelled")
		return report.fail(StatusCancelled, core.ErrCancelled), nil
	}

	// Executing
	installed, err := installer.Install(ctx, target)
	if err != nil {
		log.Debugf("install failed: %v", err)
		return report.fail(statusOf(err), err), nil
	}

	// RegistryUpdate
	entry := store.Entry{
		Source:      id,
		Info:        info.Merge(installed),
		InstalledAt: store.Now(o.now()),
	}
	report.Info = entry.Info
	report.Status = StatusOK

	if err := o.store.Update(func(reg store.Registry) error {
		reg[key] = entry
		return nil
	}); err != nil {
		log.Warnf("installed, but the registry was not updated: %v", err)
		report.RegistryErr = err
	}

	log.Info("installed")
	return report, nil
}

// preview fetches metadata for the confirmation gate. Any failure degrades
// to the all-sentinel record for name.
func (o *Orchestrator) preview(ctx context.Context, b core.Backend, target, name string) core.Metadata {
	p, ok := b.(core.InfoProvider)
	if !ok || !core.Can(b, core.ActionInfo) {
		return core.UnknownRecord(name).Metadata()
	}
	info, err := p.Info(ctx, target)
	if err != nil || len(info) == 0 {
		if err != nil {
			o.log(b.Name(), core.ActionInfo, name).Debugf("preview unavailable: %v", err)
		}
		return core.UnknownRecord(name).Metadata()
	}
	if info.String("name") == core.Unknown && info.String("full_name") == core.Unknown {
		info = info.Merge(core.Metadata{"name": name})
	}
	return info
}
