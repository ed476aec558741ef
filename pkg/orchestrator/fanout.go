package orchestrator

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/arc-language/manafest/pkg/core"
	"github.com/arc-language/manafest/pkg/store"
)

// Outcome is one backend's share of a fan-out operation
type Outcome struct {
	Backend string
	Status  Status
	Records []core.PackageRecord // search
	Info    core.Metadata        // info
	Err     error
}

// InfoReport answers the info verb
type InfoReport struct {
	Package string
	// Entry is set when the registry knows the package
	Entry    *store.Entry
	Outcomes []Outcome
}

// Search queries every backend in ids (the default backend when empty)
func (o *Orchestrator) Search(ctx context.Context, query string, ids ...string) ([]Outcome, error) {
	query, err := requireTarget(core.ActionSearch, query)
	if err != nil {
		return nil, err
	}
	return o.fanOut(ctx, core.ActionSearch, query, ids, func(ctx context.Context, b core.Backend, out *Outcome) error {
		records, err := b.(core.Searcher).Search(ctx, o.resolve(query, b))
		if err != nil {
			return err
		}
		if records == nil {
			records = []core.PackageRecord{}
		}
		out.Records = records
		return nil
	})
}

// Update refreshes the index of every backend in ids
func (o *Orchestrator) Update(ctx context.Context, ids ...string) ([]Outcome, error) {
	return o.fanOut(ctx, core.ActionUpdate, "", ids, func(ctx context.Context, b core.Backend, _ *Outcome) error {
		return b.(core.Updater).Update(ctx)
	})
}

// Upgrade upgrades everything managed by every backend in ids
func (o *Orchestrator) Upgrade(ctx context.Context, ids ...string) ([]Outcome, error) {
	return o.fanOut(ctx, core.ActionUpgrade, "", ids, func(ctx context.Context, b core.Backend, _ *Outcome) error {
		return b.(core.Upgrader).Upgrade(ctx)
	})
}

// Info describes name. A registry hit is answered locally unless backends
// are named explicitly; otherwise every backend with the capability is asked.
func (o *Orchestrator) Info(ctx context.Context, name string, ids ...string) (*InfoReport, error) {
	name, err := requireTarget(core.ActionInfo, name)
	if err != nil {
		return nil, err
	}

	report := &InfoReport{Package: name}
	if entry, ok := o.store.Load()[name]; ok {
		report.Entry = &entry
		if len(ids) == 0 {
			return report, nil
		}
	}

	if len(ids) == 0 {
		ids = o.table.IDs()
	}
	report.Outcomes, err = o.fanOut(ctx, core.ActionInfo, name, ids, func(ctx context.Context, b core.Backend, out *Outcome) error {
		info, err := b.(core.InfoProvider).Info(ctx, o.resolve(name, b))
		if err != nil {
			return err
		}
		if len(info) == 0 {
			return fmt.Errorf("%w: empty metadata", core.ErrParse)
		}
		out.Info = info
		out.Records = []core.PackageRecord{info.Record(name)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

// All returns every backend id in table order, for --all
func (o *Orchestrator) All() []string {
	return o.table.IDs()
}

type call func(ctx context.Context, b core.Backend, out *Outcome) error

// fanOut dispatches fn to every backend in ids. Each backend writes only its
// own slot, so the result keeps the order of ids whatever the completion
// order was.
func (o *Orchestrator) fanOut(ctx context.Context, action core.Action, name string, ids []string, fn call) ([]Outcome, error) {
	if len(ids) == 0 {
		ids = []string{o.def}
	}

	backends := make([]core.Backend, len(ids))
	for i, id := range ids {
		b, err := o.table.Get(id)
		if err != nil {
			return nil, err
		}
		backends[i] = b
	}

	outcomes := make([]Outcome, len(ids))
	dispatch := func(i int) {
		outcomes[i] = o.dispatch(ctx, action, name, backends[i], fn)
	}

	if !o.parallel {
		for i := range backends {
			dispatch(i)
		}
		return outcomes, nil
	}

	var g errgroup.Group
	for i := range backends {
		g.Go(func() error {
			dispatch(i)
			return nil
		})
	}
	_ = g.Wait()
	return outcomes, nil
}

// dispatch runs fn against one backend and classifies what happened
func (o *Orchestrator) dispatch(ctx context.Context, action core.Action, name string, b core.Backend, fn call) (out Outcome) {
	id := b.Name()
	out = Outcome{Backend: id}
	log := o.log(id, action, name)

	defer func() {
		if r := recover(); r != nil {
			log.Errorf("backend panicked: %v", r)
			out = Outcome{Backend: id, Status: StatusFailed, Err: fmt.Errorf("%s %s: panic: %v", id, action, r)}
		}
	}()

	if !core.CapabilitiesOf(b).Supports(action) {
		out.Status = StatusNoCapability
		out.Err = &core.Error{Op: string(action), Backend: id, Err: core.ErrNotSupported}
		return out
	}

	if err := o.table.Check(b, o.force); err != nil {
		log.Debugf("skipping: %v", err)
		out.Status = statusOf(err)
		out.Err = err
		return out
	}

	if err := ctx.Err(); err != nil {
		out.Status = StatusCancelled
		out.Err = err
		return out
	}

	if err := fn(ctx, b, &out); err != nil {
		log.Debugf("%s failed: %v", action, err)
		out.Records = nil
		out.Info = nil
		out.Status = statusOf(err)
		out.Err = err
		return out
	}

	out.Status = StatusOK
	return out
}
