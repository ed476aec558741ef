package archive

import (
	"fmt"
	"io"
	"strings"

	"github.com/blakesmith/ar"

	"github.com/arc-language/manafest/pkg/core"
	"github.com/arc-language/manafest/pkg/parser"
)

// inspectDeb reads control.tar.* out of the ar container and parses the
// control stanza.
func inspectDeb(r io.Reader) (core.PackageRecord, error) {
	arReader := ar.NewReader(r)
	for {
		header, err := arReader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return core.PackageRecord{}, fmt.Errorf("reading ar archive: %w", err)
		}

		name := strings.TrimRight(strings.TrimSpace(header.Name), "/")
		if !strings.HasPrefix(name, "control.tar") {
			continue
		}

		body, closeFn, err := decompress(arReader, name)
		if err != nil {
			return core.PackageRecord{}, fmt.Errorf("opening %s: %w", name, err)
		}
		defer closeFn()

		control, err := findInTar(body, "control")
		if err != nil {
			return core.PackageRecord{}, err
		}

		rec := parser.ParseBlock(string(control), "", parser.DebianFields)
		if rec.Name == core.Unknown {
			return core.PackageRecord{}, fmt.Errorf("%w: control file has no Package field", core.ErrParse)
		}
		return rec, nil
	}
	return core.PackageRecord{}, fmt.Errorf("control.tar not found in package")
}
