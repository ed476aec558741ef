package archive

import (
	"fmt"
	"io"

	"github.com/sassoftware/go-rpmutils"

	"github.com/arc-language/manafest/pkg/core"
)

func inspectRPM(r io.Reader) (core.PackageRecord, error) {
	rpm, err := rpmutils.ReadRpm(r)
	if err != nil {
		return core.PackageRecord{}, fmt.Errorf("reading rpm header: %w", err)
	}

	version := stringTag(rpm, rpmutils.VERSION)
	if release := stringTag(rpm, rpmutils.RELEASE); version != "" && release != "" {
		version += "-" + release
	}

	rec := core.NewRecord(
		stringTag(rpm, rpmutils.NAME),
		version,
		stringTag(rpm, rpmutils.ARCH),
		stringTag(rpm, rpmutils.SUMMARY),
	)
	if rec.Name == core.Unknown {
		return core.PackageRecord{}, fmt.Errorf("%w: rpm header has no name", core.ErrParse)
	}
	return rec, nil
}

func stringTag(rpm *rpmutils.Rpm, tag int) string {
	val, err := rpm.Header.Get(tag)
	if err != nil {
		return ""
	}

	switch v := val.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case []string:
		if len(v) > 0 {
			return v[0]
		}
	}
	return ""
}
