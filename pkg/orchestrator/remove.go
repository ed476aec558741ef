package orchestrator

import (
	"context"
	"fmt"

	"github.com/arc-language/manafest/pkg/core"
	"github.com/arc-language/manafest/pkg/store"
)

// Remove removes name. Without an explicit backend the registry decides
// which backend installed it; a package the registry does not know is
// removed through the default backend only if that backend reports it
// installed. The registry entry is deleted only when it names the backend
// that performed the removal.
func (o *Orchestrator) Remove(ctx context.Context, name string, ids ...string) (*Report, error) {
	name, err := requireTarget(core.ActionRemove, name)
	if err != nil {
		return nil, err
	}

	// ProvenanceResolution
	entry, recorded := o.store.Load()[name]

	id := o.def
	switch {
	case len(ids) > 0 && ids[0] != "":
		id = ids[0]
	case recorded && entry.Source != "":
		id = entry.Source
	}

	b, err := o.table.Get(id)
	if err != nil {
		if len(ids) > 0 {
			return nil, err
		}
		// A registry entry naming a backend this build does not have
		return &Report{
			Action:  core.ActionRemove,
			Package: name,
			Backend: id,
			Status:  StatusFailed,
			Record:  entry.Record(name),
			Err:     err,
		}, nil
	}

	report := &Report{
		Action:  core.ActionRemove,
		Package: name,
		Backend: id,
		Record:  core.UnknownRecord(name),
	}
	if recorded {
		report.Record = entry.Record(name)
		report.Info = entry.Info
	}
	log := o.log(id, core.ActionRemove, name)

	if err := o.table.Check(b, o.force); err != nil {
		log.Debugf("backend not selectable: %v", err)
		return report.fail(statusOf(err), &core.Error{Op: "select", Backend: id, Err: err}), nil
	}

	target := o.resolve(name, b)

	if !recorded {
		if checker, ok := b.(core.InstallChecker); ok && core.Can(b, core.ActionIsInstalled) {
			installed, err := checker.IsInstalled(ctx, target)
			if err != nil {
				log.Debugf("installed check failed: %v", err)
			}
			if !installed {
				return report.fail(StatusNotFound, &core.Error{
					Op: string(core.ActionRemove), Backend: id, Package: name, Err: core.ErrPackageNotFound,
				}), nil
			}
		} else if len(ids) == 0 {
			return report.fail(StatusNotFound, &core.Error{
				Op: string(core.ActionRemove), Backend: id, Package: name, Err: core.ErrPackageNotFound,
			}), nil
		}
	}

	matched := recorded && entry.Source == id

	remove, ok := o.remover(b, target, entry.Info, matched)
	if !ok {
		return report.fail(StatusNoCapability, &core.Error{Op: string(core.ActionRemove), Backend: id, Package: name, Err: core.ErrNotSupported}), nil
	}

	// ConfirmationGate
	ok, err = o.confirm(ctx, Preview{
		Action:  core.ActionRemove,
		Package: name,
		Backend: id,
		Record:  report.Record,
		Info:    report.Info,
		Argv:    o.argv(b, core.ActionRemove, target),
	})
	if err != nil {
		return report.fail(StatusFailed, fmt.Errorf("confirmation: %w", err)), nil
	}
	if !ok {
		log.Info("remove cancelled")
		return report.fail(StatusCancelled, core.ErrCancelled), nil
	}

	// Executing
	if err := remove(ctx); err != nil {
		log.Debugf("remove failed: %v", err)
		return report.fail(statusOf(err), err), nil
	}
	report.Status = StatusOK
	log.Info("removed")

	// RegistryUpdate(delete-if-matched)
	if !matched {
		if recorded {
			log.Debugf("registry entry kept: recorded source is %s", entry.Source)
		}
		return report, nil
	}
	if err := o.store.Update(func(reg store.Registry) error {
		if current, ok := reg[name]; ok && current.Source == id {
			delete(reg, name)
		}
		return nil
	}); err != nil {
		log.Warnf("removed, but the registry was not updated: %v", err)
		report.RegistryErr = err
	}
	return report, nil
}

// remover picks RemoveRecorded when the registry entry belongs to b
func (o *Orchestrator) remover(b core.Backend, target string, recorded core.Metadata, matched bool) (func(context.Context) error, bool) {
	if !core.Can(b, core.ActionRemove) {
		return nil, false
	}
	if rr, ok := b.(core.RecordedRemover); ok && matched {
		return func(ctx context.Context) error {
			return rr.RemoveRecorded(ctx, target, recorded)
		}, true
	}
	if r, ok := b.(core.Remover); ok {
		return func(ctx context.Context) error {
			return r.Remove(ctx, target)
		}, true
	}
	return nil, false
}
