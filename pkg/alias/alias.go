// Package alias maps a canonical package name onto the name a particular
// backend knows it by, using <dir>/<name>/index.toml files:
//
//	name = "sqlite"
//
//	[backends]
//	default = "sqlite3"
//	apt = "libsqlite3-dev"
//	flatpak = "org.sqlitebrowser.sqlitebrowser"
package alias

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/sirupsen/logrus"
)

// ErrNoAlias means no alias file exists for the name
var ErrNoAlias = errors.New("no alias")

// Entry is one index.toml
type Entry struct {
	Name     string            `toml:"name"`
	Backends map[string]string `toml:"backends"`
}

// Aliases looks names up under a directory
type Aliases struct {
	dir    string
	logger logrus.FieldLogger
}

// New creates an alias table rooted at dir. An empty dir disables aliasing.
func New(dir string, logger logrus.FieldLogger) *Aliases {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Aliases{dir: dir, logger: logger}
}

// Resolve returns the name to hand to a backend. keys are tried in order
// (typically the backend id, then the native driver name); without a match
// the canonical name is returned unchanged.
func (a *Aliases) Resolve(name string, keys ...string) string {
	entry, err := a.Load(name)
	if err != nil {
		if !errors.Is(err, ErrNoAlias) {
			a.logger.WithField("package", name).Debugf("ignoring alias: %v", err)
		}
		return name
	}

	for _, k := range keys {
		if mapped := strings.TrimSpace(entry.Backends[k]); mapped != "" {
			a.logger.WithField("package", name).Debugf("alias for %s: %s", k, mapped)
			return mapped
		}
	}
	return name
}

// Load reads <dir>/<name>/index.toml
func (a *Aliases) Load(name string) (*Entry, error) {
	if a == nil || a.dir == "" || !validName(name) {
		return nil, ErrNoAlias
	}

	path := filepath.Join(a.dir, name, "index.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoAlias
		}
		return nil, fmt.Errorf("alias: reading %s: %w", path, err)
	}

	var entry Entry
	if _, err := toml.Decode(string(data), &entry); err != nil {
		return nil, fmt.Errorf("alias: failed to parse '%s': %w", name, err)
	}
	return &entry, nil
}

// validName rejects names that would escape the alias directory
func validName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`)
}
