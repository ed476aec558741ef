// pkg/backend/types.go
package backend

import (
	"github.com/sirupsen/logrus"

	"github.com/arc-language/manafest/pkg/core"
	"github.com/arc-language/manafest/pkg/executor"
	"github.com/arc-language/manafest/pkg/platform"
	"github.com/arc-language/manafest/pkg/remote"
	"github.com/arc-language/manafest/pkg/vcs"
)

// Backend identifiers
const (
	// Default is the operating system's own package manager
	Default = "default"
	// AUR is the Arch User Repository through a helper (yay, paru, pikaur)
	AUR = "aur"
	// Flatpak is the Flatpak application store
	Flatpak = "flatpak"
	// Snap is the Snap application store
	Snap = "snap"
	// PyPI is the Python package index, installed with pip
	PyPI = "pypi"
	// GitHub, GitLab and Bitbucket are source hosts; install means clone
	GitHub    = "github"
	GitLab    = "gitlab"
	Bitbucket = "bitbucket"
)

// Order is the stable order backends are built and reported in
var Order = []string{Default, AUR, Flatpak, Snap, PyPI, GitHub, GitLab, Bitbucket}

// Options carries the shared collaborators every backend is built from.
// Zero fields are filled with working defaults by Build.
type Options struct {
	Config   *core.Config
	Platform *platform.Platform
	Runner   executor.Runner
	Client   *remote.Client
	Cloner   vcs.Cloner
	Logger   logrus.FieldLogger
}

func (o Options) withDefaults() Options {
	if o.Config == nil {
		o.Config = core.DefaultConfig()
	}
	if o.Logger == nil {
		o.Logger = logrus.StandardLogger()
	}
	if o.Platform == nil {
		o.Platform = platform.Detect()
	}
	if o.Runner == nil {
		o.Runner = executor.New(o.Logger)
	}
	if o.Client == nil {
		o.Client = remote.NewClient(o.Config.Timeouts.HTTP, o.Logger)
	}
	if o.Cloner == nil {
		o.Cloner = vcs.GoGit{}
	}
	return o
}
