// Package archive reads package metadata straight out of local package files
// (.deb, .rpm, pacman and Alpine packages) without installing them.
package archive

import (
	"archive/tar"
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"

	"github.com/arc-language/manafest/pkg/core"
)

// Kind identifies a package file format
type Kind string

const (
	KindNone   Kind = ""
	KindDeb    Kind = "deb"
	KindRPM    Kind = "rpm"
	KindPacman Kind = "pacman"
	KindAPK    Kind = "apk"
)

// DetectKind classifies path by its file name
func DetectKind(path string) Kind {
	base := strings.ToLower(filepath.Base(path))
	switch {
	case strings.HasSuffix(base, ".deb"):
		return KindDeb
	case strings.HasSuffix(base, ".rpm"):
		return KindRPM
	case strings.Contains(base, ".pkg.tar"):
		return KindPacman
	case strings.HasSuffix(base, ".apk"):
		return KindAPK
	}
	return KindNone
}

// IsPackageFile reports whether target names an existing local package file
func IsPackageFile(target string) bool {
	if DetectKind(target) == KindNone {
		return false
	}
	info, err := os.Stat(target)
	return err == nil && info.Mode().IsRegular()
}

// Inspect reads name, version, architecture and summary from a package file
func Inspect(path string) (core.PackageRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return core.PackageRecord{}, err
	}
	defer f.Close()

	var rec core.PackageRecord
	switch kind := DetectKind(path); kind {
	case KindDeb:
		rec, err = inspectDeb(f)
	case KindRPM:
		rec, err = inspectRPM(f)
	case KindPacman, KindAPK:
		rec, err = inspectPKGINFO(f, filepath.Base(path))
	default:
		return core.PackageRecord{}, fmt.Errorf("%w: %s is not a package file", core.ErrInvalidTarget, filepath.Base(path))
	}
	if err != nil {
		return core.PackageRecord{}, fmt.Errorf("inspecting %s: %w", filepath.Base(path), err)
	}
	return rec, nil
}

// decompress wraps r according to the name's suffix, falling back to the
// stream's magic bytes for names that carry no compression suffix.
func decompress(r io.Reader, name string) (io.Reader, func(), error) {
	br := bufio.NewReader(r)
	noop := func() {}

	format := compressionBySuffix(name)
	if format == "" {
		magic, _ := br.Peek(6)
		format = compressionByMagic(magic)
	}

	switch format {
	case "gz":
		gr, err := gzip.NewReader(br)
		if err != nil {
			return nil, noop, err
		}
		return gr, func() { gr.Close() }, nil
	case "xz":
		xr, err := xz.NewReader(br)
		if err != nil {
			return nil, noop, err
		}
		return xr, noop, nil
	case "zst":
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, noop, err
		}
		return zr, zr.Close, nil
	}
	return br, noop, nil
}

func compressionBySuffix(name string) string {
	switch {
	case strings.HasSuffix(name, ".gz"), strings.HasSuffix(name, ".apk"):
		return "gz"
	case strings.HasSuffix(name, ".xz"):
		return "xz"
	case strings.HasSuffix(name, ".zst"):
		return "zst"
	}
	return ""
}

func compressionByMagic(magic []byte) string {
	switch {
	case bytes.HasPrefix(magic, []byte{0x1f, 0x8b}):
		return "gz"
	case bytes.HasPrefix(magic, []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}):
		return "xz"
	case bytes.HasPrefix(magic, []byte{0x28, 0xb5, 0x2f, 0xfd}):
		return "zst"
	}
	return ""
}

// findInTar returns the contents of the first member whose cleaned name is want
func findInTar(r io.Reader, want string) ([]byte, error) {
	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if strings.TrimPrefix(hdr.Name, "./") == want {
			return io.ReadAll(tr)
		}
	}
	return nil, fmt.Errorf("%s not found", want)
}
