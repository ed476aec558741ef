package parser

import (
	"regexp"
	"strings"

	"github.com/arc-language/manafest/pkg/core"
)

// ParseRepoListing parses the two-line listing of pacman -Ss and the AUR
// helpers:
//
//	extra/vim 9.1.0-1 (vim-editor) [installed]
//	    Vi Improved, a highly configurable text editor
func ParseRepoListing(raw string) []core.PackageRecord {
	records := []core.PackageRecord{}

	var (
		name, version string
		pending       bool
	)
	emit := func(summary string) {
		if pending {
			records = append(records, core.NewRecord(name, version, "", summary))
		}
		pending = false
	}

	for _, line := range scanLines(raw) {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if line[0] == ' ' || line[0] == '\t' {
			emit(line)
			continue
		}

		emit("")
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		_, pkg, ok := strings.Cut(fields[0], "/")
		if !ok || pkg == "" {
			continue
		}
		name, version, pending = pkg, fields[1], true
	}
	emit("")

	return records
}

// ParseDashed parses "name - summary" lines as printed by apt-cache search
func ParseDashed(raw string) []core.PackageRecord {
	records := []core.PackageRecord{}
	for _, line := range scanLines(raw) {
		name, summary, ok := strings.Cut(line, " - ")
		name = strings.TrimSpace(name)
		if !ok || name == "" || strings.ContainsAny(name, " \t") {
			continue
		}
		records = append(records, core.NewRecord(name, "", "", summary))
	}
	return records
}

var apkNameVersion = regexp.MustCompile(`^(.+)-([0-9][^-]*-r[0-9]+)$`)

// ParseAPK parses `apk search -v` lines ("vim-9.0.2073-r0 - Improved vi-style
// text editor"), splitting the package name from its version.
func ParseAPK(raw string) []core.PackageRecord {
	records := []core.PackageRecord{}
	for _, line := range scanLines(raw) {
		line = strings.TrimSpace(line)
		if line == "" || strings.ContainsAny(line[:1], "(*") {
			continue
		}

		pkg, summary, _ := strings.Cut(line, " - ")
		pkg = strings.TrimSpace(pkg)
		if pkg == "" || strings.ContainsAny(pkg, " \t") {
			continue
		}

		name, version := pkg, ""
		if m := apkNameVersion.FindStringSubmatch(pkg); m != nil {
			name, version = m[1], m[2]
		}
		records = append(records, core.NewRecord(name, version, "", summary))
	}
	return records
}

// ParseNames parses one package name per line, as printed by brew search.
// Section headers ("==> Formulae") and free text are skipped.
func ParseNames(raw string) []core.PackageRecord {
	records := []core.PackageRecord{}
	for _, line := range scanLines(raw) {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "==>") || strings.ContainsAny(line, " \t") {
			continue
		}
		records = append(records, core.UnknownRecord(line))
	}
	return records
}
