package backend

import (
	"fmt"

	"github.com/arc-language/manafest/pkg/core"
	"github.com/arc-language/manafest/pkg/native"
	"github.com/arc-language/manafest/pkg/parser"
	"github.com/arc-language/manafest/pkg/platform"
)

// FlatpakDriver is the argv table for flatpak against remote
func FlatpakDriver(remote string) *native.Driver {
	return &native.Driver{
		Name:        Flatpak,
		Binary:      "flatpak",
		Search:      []string{"flatpak", "search", "--columns=application,version,description", native.Placeholder},
		Info:        []string{"flatpak", "remote-info", remote, native.Placeholder},
		Installed:   []string{"flatpak", "info", native.Placeholder},
		Install:     []string{"flatpak", "install", "-y", remote, native.Placeholder},
		Remove:      []string{"flatpak", "uninstall", "-y", native.Placeholder},
		Update:      []string{"flatpak", "update", "--appstream"},
		Upgrade:     []string{"flatpak", "update", "-y"},
		ParseSearch: func(raw string) []core.PackageRecord { return parser.ParseTable(raw, parser.FlatpakTable) },
		ParseInfo:   parser.Blocks(parser.FlatpakFields),
	}
}

// SnapDriver is the argv table for snapd
func SnapDriver() *native.Driver {
	return &native.Driver{
		Name:        Snap,
		Binary:      "snap",
		Privileged:  true,
		Search:      []string{"snap", "find", native.Placeholder},
		Info:        []string{"snap", "info", native.Placeholder},
		Installed:   []string{"snap", "list", native.Placeholder},
		Install:     []string{"snap", "install", native.Placeholder},
		Remove:      []string{"snap", "remove", native.Placeholder},
		Update:      []string{"snap", "refresh", "--list"},
		Upgrade:     []string{"snap", "refresh"},
		ParseSearch: func(raw string) []core.PackageRecord { return parser.ParseTable(raw, parser.SnapTable) },
		ParseInfo:   parser.Blocks(parser.SnapFields),
	}
}

// NewFlatpak builds the Flatpak backend
func NewFlatpak(opts Options) *CommandBackend {
	opts = opts.withDefaults()
	return NewCommandBackend(Flatpak, FlatpakDriver(opts.Config.Flatpak.Remote), linuxOnly, opts)
}

// NewSnap builds the Snap backend
func NewSnap(opts Options) *CommandBackend {
	opts = opts.withDefaults()
	d := SnapDriver()
	d.Root = opts.Platform.Root
	return NewCommandBackend(Snap, d, linuxOnly, opts)
}

func linuxOnly(p *platform.Platform) error {
	if p.OS != platform.OSLinux {
		return fmt.Errorf("%w: only available on linux, this is %s", core.ErrScopeMismatch, p.OS)
	}
	return nil
}
