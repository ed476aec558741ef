package archive

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/arc-language/manafest/pkg/core"
)

// inspectPKGINFO handles pacman packages (a single compressed tar) and Alpine
// packages (concatenated gzip streams, .PKGINFO in the control segment). The
// gzip reader is multistream, so one tar walk covers both.
func inspectPKGINFO(r io.Reader, name string) (core.PackageRecord, error) {
	body, closeFn, err := decompress(r, name)
	if err != nil {
		return core.PackageRecord{}, fmt.Errorf("opening %s: %w", name, err)
	}
	defer closeFn()

	data, err := findInTar(body, ".PKGINFO")
	if err != nil {
		return core.PackageRecord{}, err
	}

	rec := ParsePKGINFO(data)
	if rec.Name == core.Unknown {
		return core.PackageRecord{}, fmt.Errorf("%w: .PKGINFO has no pkgname", core.ErrParse)
	}
	return rec, nil
}

// ParsePKGINFO parses "key = value" lines
func ParsePKGINFO(data []byte) core.PackageRecord {
	var name, version, arch, desc string

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)

		switch strings.TrimSpace(key) {
		case "pkgname":
			name = value
		case "pkgver":
			version = value
		case "arch":
			arch = value
		case "pkgdesc":
			desc = value
		}
	}

	return core.NewRecord(name, version, arch, desc)
}
