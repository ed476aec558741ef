// Package procs lists running processes for the ps command
package procs

import (
	"context"
	"sort"
	"strings"

	"github.com/shirou/gopsutil/v3/process"
)

// Process is one row of the listing
type Process struct {
	PID     int32
	Name    string
	User    string
	CPU     float64 // percent
	Memory  float32 // percent of physical memory
	Command string
}

// Source yields the raw process list; replaced in tests
type Source func(ctx context.Context) ([]Process, error)

// Options filters and bounds a listing
type Options struct {
	// Filter keeps processes whose name or command line contains it (case-insensitive)
	Filter string
	// Limit caps the number of rows; 0 means all
	Limit int
}

// List returns processes sorted by CPU usage, highest first
func List(ctx context.Context, opts Options) ([]Process, error) {
	return ListFrom(ctx, System, opts)
}

// ListFrom is List over an arbitrary source
func ListFrom(ctx context.Context, src Source, opts Options) ([]Process, error) {
	all, err := src(ctx)
	if err != nil {
		return nil, err
	}

	filter := strings.ToLower(strings.TrimSpace(opts.Filter))
	out := make([]Process, 0, len(all))
	for _, p := range all {
		if filter != "" &&
			!strings.Contains(strings.ToLower(p.Name), filter) &&
			!strings.Contains(strings.ToLower(p.Command), filter) {
			continue
		}
		out = append(out, p)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CPU != out[j].CPU {
			return out[i].CPU > out[j].CPU
		}
		return out[i].PID < out[j].PID
	})

	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

// System reads the host's process table. Processes that exit or deny
// access while being read keep whatever fields were readable.
func System(ctx context.Context) ([]Process, error) {
	ps, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]Process, 0, len(ps))
	for _, p := range ps {
		name, err := p.NameWithContext(ctx)
		if err != nil {
			continue
		}
		row := Process{PID: p.Pid, Name: name}
		row.User, _ = p.UsernameWithContext(ctx)
		row.CPU, _ = p.CPUPercentWithContext(ctx)
		row.Memory, _ = p.MemoryPercentWithContext(ctx)
		row.Command, _ = p.CmdlineWithContext(ctx)
		out = append(out, row)
	}
	return out, nil
}
