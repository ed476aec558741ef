// pkg/platform/detect.go
package platform

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
)

// OS families as reported by Detect
const (
	OSLinux   = "linux"
	OSMacOS   = "macos"
	OSWindows = "windows"
)

// Linux distribution families
const (
	DistroArch    = "arch"
	DistroDebian  = "debian"
	DistroFedora  = "fedora"
	DistroSUSE    = "suse"
	DistroAlpine  = "alpine"
	DistroGeneric = "generic"
)

// OSReleasePath is read to identify the Linux distribution
var OSReleasePath = "/etc/os-release"

// Platform represents the detected system platform
type Platform struct {
	OS     string // linux, macos, windows
	Distro string // distribution family on linux, empty elsewhere
	Arch   string // amd64, arm64, 386, arm
	Root   bool   // running with uid 0
}

// Detect detects the current platform
func Detect() *Platform {
	p := &Platform{
		OS:   normalizeOS(runtime.GOOS),
		Arch: runtime.GOARCH,
		Root: os.Geteuid() == 0,
	}

	if p.OS == OSLinux {
		p.Distro = DistroGeneric
		if f, err := os.Open(OSReleasePath); err == nil {
			p.Distro = ParseOSRelease(f)
			f.Close()
		} else if fileExists("/etc/arch-release") {
			p.Distro = DistroArch
		} else if fileExists("/etc/alpine-release") {
			p.Distro = DistroAlpine
		} else if fileExists("/etc/fedora-release") {
			p.Distro = DistroFedora
		}
	}

	return p
}

// ParseOSRelease maps an os-release document onto a distribution family
// using ID first and ID_LIKE second.
func ParseOSRelease(r io.Reader) string {
	fields := make(map[string]string)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		fields[key] = strings.ToLower(strings.Trim(strings.TrimSpace(value), `"'`))
	}

	id := fields["ID"]
	like := strings.Fields(fields["ID_LIKE"])

	switch id {
	case "arch", "manjaro", "endeavouros", "garuda":
		return DistroArch
	case "debian", "ubuntu", "linuxmint", "pop", "raspbian":
		return DistroDebian
	case "fedora", "rhel", "centos", "rocky", "almalinux":
		return DistroFedora
	case "opensuse", "opensuse-leap", "opensuse-tumbleweed", "sles":
		return DistroSUSE
	case "alpine":
		return DistroAlpine
	}

	for _, l := range like {
		switch {
		case l == "arch":
			return DistroArch
		case l == "debian" || l == "ubuntu":
			return DistroDebian
		case l == "fedora" || l == "rhel":
			return DistroFedora
		case strings.HasPrefix(l, "suse") || strings.HasPrefix(l, "opensuse"):
			return DistroSUSE
		}
	}

	return DistroGeneric
}

// String returns a string representation of the platform
func (p *Platform) String() string {
	if p.Distro != "" {
		return fmt.Sprintf("%s/%s (%s)", p.OS, p.Arch, p.Distro)
	}
	return fmt.Sprintf("%s/%s", p.OS, p.Arch)
}

// IsArch reports whether the host is an Arch-family Linux
func (p *Platform) IsArch() bool {
	return p.OS == OSLinux && p.Distro == DistroArch
}

func normalizeOS(goos string) string {
	switch goos {
	case "darwin":
		return OSMacOS
	case "windows":
		return OSWindows
	default:
		return OSLinux
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
