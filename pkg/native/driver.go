// Package native describes the operating system's own package managers:
// which argv performs each action and which parser reads the output.
//
// Drivers are plain data. SelectCommand is pure so the whole argv table can
// be tested without running anything.
package native

import (
	"fmt"
	"os"
	"strings"

	"github.com/arc-language/manafest/pkg/archive"
	"github.com/arc-language/manafest/pkg/core"
	"github.com/arc-language/manafest/pkg/parser"
)

// Placeholder is replaced by the action's argument in argv templates
const Placeholder = "{}"

// Driver is one native package manager
type Driver struct {
	Name       string // e.g. "pacman", "apt"
	Binary     string // must be on PATH for the driver to be usable
	Privileged bool   // mutating actions need root

	Search       []string
	Info         []string
	Installed    []string // exit status 0 means installed
	Install      []string
	LocalInstall []string // install from a package file on disk
	Remove       []string
	Update       []string
	Upgrade      []string

	ParseSearch parser.SearchFunc
	ParseInfo   parser.InfoFunc

	// Root is true when already running as root; no sudo prefix is added
	Root bool
}

// SelectCommand returns the argv for action applied to arg
func (d *Driver) SelectCommand(action core.Action, arg string) ([]string, error) {
	tmpl := d.template(action, arg)
	if tmpl == nil {
		return nil, fmt.Errorf("%s %s: %w", d.Name, action, core.ErrNotSupported)
	}

	if takesArgument(action) {
		arg = strings.TrimSpace(arg)
		if arg == "" {
			return nil, fmt.Errorf("%s %s: %w: empty argument", d.Name, action, core.ErrInvalidTarget)
		}
		if action == core.ActionInstall && isLocalFile(arg) {
			arg = localPath(arg)
		}
	}

	argv := make([]string, 0, len(tmpl)+1)
	if d.Privileged && !d.Root && mutates(action) {
		argv = append(argv, "sudo")
	}
	for _, a := range tmpl {
		argv = append(argv, strings.ReplaceAll(a, Placeholder, arg))
	}
	return argv, nil
}

// Supports reports whether the driver has an argv for action
func (d *Driver) Supports(action core.Action) bool {
	return d.template(action, "") != nil
}

func (d *Driver) template(action core.Action, arg string) []string {
	switch action {
	case core.ActionSearch:
		return d.Search
	case core.ActionInfo:
		return d.Info
	case core.ActionIsInstalled:
		return d.Installed
	case core.ActionInstall:
		if isLocalFile(arg) && d.LocalInstall != nil {
			return d.LocalInstall
		}
		return d.Install
	case core.ActionRemove:
		return d.Remove
	case core.ActionUpdate:
		return d.Update
	case core.ActionUpgrade:
		return d.Upgrade
	}
	return nil
}

func takesArgument(action core.Action) bool {
	return action != core.ActionUpdate && action != core.ActionUpgrade
}

func mutates(action core.Action) bool {
	switch action {
	case core.ActionInstall, core.ActionRemove, core.ActionUpdate, core.ActionUpgrade:
		return true
	}
	return false
}

func isLocalFile(arg string) bool {
	return archive.DetectKind(arg) != archive.KindNone
}

// localPath makes a bare file name explicit so managers like apt do not
// mistake it for a package name.
func localPath(arg string) string {
	if strings.ContainsRune(arg, '/') || strings.ContainsRune(arg, os.PathSeparator) {
		return arg
	}
	return "." + string(os.PathSeparator) + arg
}
