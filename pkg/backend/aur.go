package backend

import (
	"fmt"

	"github.com/arc-language/manafest/pkg/core"
	"github.com/arc-language/manafest/pkg/native"
	"github.com/arc-language/manafest/pkg/parser"
	"github.com/arc-language/manafest/pkg/platform"
)

// AURDriver is the argv table for an AUR helper. Helpers escalate privileges
// themselves and refuse to run as root, so no sudo prefix is used.
func AURDriver(helper string) *native.Driver {
	return &native.Driver{
		Name:        AUR,
		Binary:      helper,
		Search:      []string{helper, "-Ss", native.Placeholder},
		Info:        []string{helper, "-Si", native.Placeholder},
		Installed:   []string{helper, "-Qi", native.Placeholder},
		Install:     []string{helper, "-S", "--noconfirm", native.Placeholder},
		Remove:      []string{helper, "-Rns", "--noconfirm", native.Placeholder},
		Update:      []string{helper, "-Sy"},
		Upgrade:     []string{helper, "-Syu", "--noconfirm"},
		ParseSearch: parser.ParseRepoListing,
		ParseInfo:   parser.Blocks(parser.AURFields),
	}
}

// NewAUR builds the AUR backend around the first configured helper found on
// PATH. With none installed it keeps the first helper's name so the backend
// still reports itself as unavailable rather than disappearing.
func NewAUR(opts Options) *CommandBackend {
	opts = opts.withDefaults()
	helpers := opts.Config.AUR.Helpers
	helper := platform.FirstCommand(helpers...)
	if helper == "" && len(helpers) > 0 {
		helper = helpers[0]
	}
	return NewCommandBackend(AUR, AURDriver(helper), archOnly, opts)
}

func archOnly(p *platform.Platform) error {
	if !p.IsArch() {
		return fmt.Errorf("%w: the AUR is only available on Arch Linux, this is %s", core.ErrScopeMismatch, p)
	}
	return nil
}
