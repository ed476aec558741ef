package native

import (
	"github.com/arc-language/manafest/pkg/core"
	"github.com/arc-language/manafest/pkg/parser"
	"github.com/arc-language/manafest/pkg/platform"
)

const dnfQueryFormat = `%{name}|%{version}-%{release}|%{arch}|%{summary}\n`

// Pacman drives Arch Linux's pacman
func Pacman() *Driver {
	return &Driver{
		Name:         "pacman",
		Binary:       "pacman",
		Privileged:   true,
		Search:       []string{"pacman", "-Ss", Placeholder},
		Info:         []string{"pacman", "-Si", Placeholder},
		Installed:    []string{"pacman", "-Qi", Placeholder},
		Install:      []string{"pacman", "-S", "--noconfirm", Placeholder},
		LocalInstall: []string{"pacman", "-U", "--noconfirm", Placeholder},
		Remove:       []string{"pacman", "-Rsn", "--noconfirm", Placeholder},
		Update:       []string{"pacman", "-Sy"},
		Upgrade:      []string{"pacman", "-Syu", "--noconfirm"},
		ParseSearch:  parser.ParseRepoListing,
		ParseInfo:    parser.Blocks(parser.PacmanFields),
	}
}

// Apt drives Debian's apt-get and apt-cache
func Apt() *Driver {
	return &Driver{
		Name:         "apt",
		Binary:       "apt-get",
		Privileged:   true,
		Search:       []string{"apt-cache", "search", Placeholder},
		Info:         []string{"apt-cache", "show", Placeholder},
		Installed:    []string{"dpkg", "-s", Placeholder},
		Install:      []string{"apt-get", "install", "-y", Placeholder},
		LocalInstall: []string{"apt-get", "install", "-y", Placeholder},
		Remove:       []string{"apt-get", "remove", "-y", Placeholder},
		Update:       []string{"apt-get", "update"},
		Upgrade:      []string{"apt-get", "upgrade", "-y"},
		ParseSearch:  parser.ParseDashed,
		ParseInfo:    parser.Blocks(parser.DebianFields),
	}
}

// Dnf drives Fedora's dnf
func Dnf() *Driver {
	return &Driver{
		Name:         "dnf",
		Binary:       "dnf",
		Privileged:   true,
		Search:       []string{"dnf", "repoquery", "--quiet", "--qf", dnfQueryFormat, "*" + Placeholder + "*"},
		Info:         []string{"dnf", "repoquery", "--quiet", "--qf", dnfQueryFormat, Placeholder},
		Installed:    []string{"rpm", "-q", Placeholder},
		Install:      []string{"dnf", "install", "-y", Placeholder},
		LocalInstall: []string{"dnf", "install", "-y", Placeholder},
		Remove:       []string{"dnf", "remove", "-y", Placeholder},
		Update:       []string{"dnf", "makecache"},
		Upgrade:      []string{"dnf", "upgrade", "-y"},
		ParseSearch:  parser.ParsePipe,
		ParseInfo:    parser.ParsePipeInfo,
	}
}

// Zypper drives openSUSE's zypper
func Zypper() *Driver {
	return &Driver{
		Name:         "zypper",
		Binary:       "zypper",
		Privileged:   true,
		Search:       []string{"zypper", "--quiet", "search", "--details", Placeholder},
		Info:         []string{"zypper", "--quiet", "info", Placeholder},
		Installed:    []string{"rpm", "-q", Placeholder},
		Install:      []string{"zypper", "--non-interactive", "install", Placeholder},
		LocalInstall: []string{"zypper", "--non-interactive", "install", "--allow-unsigned-rpm", Placeholder},
		Remove:       []string{"zypper", "--non-interactive", "remove", Placeholder},
		Update:       []string{"zypper", "refresh"},
		Upgrade:      []string{"zypper", "--non-interactive", "update"},
		ParseSearch:  func(raw string) []core.PackageRecord { return parser.ParseTable(raw, parser.ZypperTable) },
		ParseInfo:    parser.Blocks(parser.ZypperFields),
	}
}

// Apk drives Alpine's apk
func Apk() *Driver {
	return &Driver{
		Name:         "apk",
		Binary:       "apk",
		Privileged:   true,
		Search:       []string{"apk", "search", "-v", Placeholder},
		Info:         []string{"apk", "search", "-v", "-x", Placeholder},
		Installed:    []string{"apk", "info", "-e", Placeholder},
		Install:      []string{"apk", "add", Placeholder},
		LocalInstall: []string{"apk", "add", "--allow-untrusted", Placeholder},
		Remove:       []string{"apk", "del", Placeholder},
		Update:       []string{"apk", "update"},
		Upgrade:      []string{"apk", "upgrade"},
		ParseSearch:  parser.ParseAPK,
		ParseInfo:    parser.First(parser.ParseAPK),
	}
}

// Brew drives Homebrew
func Brew() *Driver {
	return &Driver{
		Name:        "brew",
		Binary:      "brew",
		Search:      []string{"brew", "search", Placeholder},
		Info:        []string{"brew", "info", "--json=v2", Placeholder},
		Installed:   []string{"brew", "list", Placeholder},
		Install:     []string{"brew", "install", Placeholder},
		Remove:      []string{"brew", "uninstall", Placeholder},
		Update:      []string{"brew", "update"},
		Upgrade:     []string{"brew", "upgrade"},
		ParseSearch: parser.ParseNames,
		ParseInfo:   parser.JSONInfo(parser.BrewJSON),
	}
}

// Winget drives the Windows package manager
func Winget() *Driver {
	return &Driver{
		Name:        "winget",
		Binary:      "winget",
		Search:      []string{"winget", "search", Placeholder, "--accept-source-agreements"},
		Info:        []string{"winget", "show", "--id", Placeholder, "--exact", "--accept-source-agreements"},
		Installed:   []string{"winget", "list", "--id", Placeholder, "--exact", "--accept-source-agreements"},
		Install:     []string{"winget", "install", "--id", Placeholder, "--exact", "--accept-source-agreements", "--accept-package-agreements"},
		Remove:      []string{"winget", "uninstall", "--id", Placeholder, "--exact"},
		Update:      []string{"winget", "source", "update"},
		Upgrade:     []string{"winget", "upgrade", "--all", "--accept-source-agreements", "--accept-package-agreements"},
		ParseSearch: func(raw string) []core.PackageRecord { return parser.ParseTable(raw, parser.WingetTable) },
		ParseInfo:   parser.Blocks(parser.WingetFields),
	}
}

// Pip is the fallback when no system manager is recognised. pip has no
// search command; the pypi backend covers that over HTTP.
func Pip(binary string) *Driver {
	if binary == "" {
		binary = "pip3"
	}
	return &Driver{
		Name:      "pip",
		Binary:    binary,
		Info:      []string{binary, "show", Placeholder},
		Installed: []string{binary, "show", "--quiet", Placeholder},
		Install:   []string{binary, "install", Placeholder},
		Remove:    []string{binary, "uninstall", "-y", Placeholder},
		ParseInfo: parser.Blocks(parser.PipFields),
	}
}

// ByDistro maps a detected distribution family to its driver constructor
var ByDistro = map[string]func() *Driver{
	platform.DistroArch:   Pacman,
	platform.DistroDebian: Apt,
	platform.DistroFedora: Dnf,
	platform.DistroSUSE:   Zypper,
	platform.DistroAlpine: Apk,
}

// probeOrder is tried on unrecognised Linux distributions
var probeOrder = []func() *Driver{Apt, Dnf, Pacman, Zypper, Apk}

// ForPlatform picks the driver for p. Unrecognised systems fall back to
// whichever known manager is on PATH, then to pip.
func ForPlatform(p *platform.Platform) *Driver {
	d := pick(p)
	d.Root = p.Root
	return d
}

func pick(p *platform.Platform) *Driver {
	switch p.OS {
	case platform.OSMacOS:
		return Brew()
	case platform.OSWindows:
		return Winget()
	}

	if ctor, ok := ByDistro[p.Distro]; ok {
		return ctor()
	}
	for _, ctor := range probeOrder {
		if d := ctor(); platform.CommandExists(d.Binary) {
			return d
		}
	}
	return Pip(platform.FirstCommand("pip3", "pip"))
}
