// Package store persists the registry of packages this tool installed:
// a JSON object mapping package name to {source, info, installed_at}.
//
// The registry is advisory. Reading never fails; a missing or unreadable
// file is an empty registry. Writes replace the file atomically, and a
// corrupt file is kept aside rather than overwritten.
package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/arc-language/manafest/pkg/core"
)

// TimeFormat is how installed_at is written
const TimeFormat = time.RFC3339

// Entry records one installed package
type Entry struct {
	Source      string        `json:"source"`
	Info        core.Metadata `json:"info"`
	InstalledAt string        `json:"installed_at"`
}

// Record projects the stored info onto a PackageRecord
func (e Entry) Record(name string) core.PackageRecord {
	return e.Info.Record(name)
}

// Registry maps package name to its entry
type Registry map[string]Entry

// Names returns the package names in sorted order
func (r Registry) Names() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Store reads and writes the registry file
type Store struct {
	path   string
	logger logrus.FieldLogger
}

// New creates a store backed by path
func New(path string, logger logrus.FieldLogger) *Store {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Store{path: path, logger: logger}
}

// Path returns the registry file location
func (s *Store) Path() string {
	return s.path
}

// Load returns the registry. A missing or corrupt file yields an empty
// registry; corruption is logged.
func (s *Store) Load() Registry {
	reg, err := s.Read()
	if err != nil {
		s.logger.WithField("path", s.path).Warnf("treating registry as empty: %v", err)
		return Registry{}
	}
	return reg
}

// decodeError means the file was read but is not a registry
type decodeError struct {
	err error
}

func (e *decodeError) Error() string {
	return fmt.Sprintf("%v: %v", core.ErrRegistryCorrupt, e.err)
}

func (e *decodeError) Is(target error) bool {
	return target == core.ErrRegistryCorrupt
}

// Read is Load with the decode error reported. A missing file is not an error.
func (s *Store) Read() (Registry, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Registry{}, nil
		}
		return nil, fmt.Errorf("%w: %v", core.ErrRegistryCorrupt, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return Registry{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var reg Registry
	if err := dec.Decode(&reg); err != nil {
		return nil, &decodeError{err: err}
	}
	if reg == nil {
		reg = Registry{}
	}
	return reg, nil
}

// Save replaces the registry file with reg. The new content is written to a
// temporary file in the same directory, synced, then renamed over the old
// file, so readers see either the old or the new snapshot.
func (s *Store) Save(reg Registry) error {
	if reg == nil {
		reg = Registry{}
	}

	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding registry: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating registry directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".registry-*.json.tmp")
	if err != nil {
		return fmt.Errorf("creating temp registry: %w", err)
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		tmp.Close()
		os.Remove(tmpPath)
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return fmt.Errorf("writing temp registry: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("syncing temp registry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp registry: %w", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("setting registry permissions: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replacing registry: %w", err)
	}
	return nil
}

// Update runs fn against the current registry under the file lock and saves
// the result if fn returns nil. A file that cannot be decoded is renamed to
// <path>.corrupt-<timestamp> before the new registry is written; a file that
// cannot be read aborts the update.
func (s *Store) Update(fn func(Registry) error) error {
	unlock, err := s.Lock()
	if err != nil {
		return err
	}
	defer unlock()

	reg, err := s.Read()
	var de *decodeError
	switch {
	case errors.As(err, &de):
		aside, mvErr := s.moveAside()
		if mvErr != nil {
			return fmt.Errorf("%w; moving it aside: %v", err, mvErr)
		}
		s.logger.WithField("path", s.path).Warnf("corrupt registry moved to %s: %v", aside, err)
		reg = Registry{}
	case err != nil:
		return err
	}

	if err := fn(reg); err != nil {
		return err
	}
	return s.Save(reg)
}

func (s *Store) moveAside() (string, error) {
	aside := fmt.Sprintf("%s.corrupt-%s", s.path, time.Now().UTC().Format("20060102T150405.000000000Z"))
	if err := os.Rename(s.path, aside); err != nil {
		return "", err
	}
	return aside, nil
}

// Lock takes an exclusive advisory lock on <path>.lock
func (s *Store) Lock() (func(), error) {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return nil, fmt.Errorf("creating registry directory: %w", err)
	}

	f, err := os.OpenFile(s.path+".lock", os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening registry lock: %w", err)
	}
	if err := lockFile(f); err != nil {
		f.Close()
		return nil, fmt.Errorf("locking registry: %w", err)
	}

	return func() {
		unlockFile(f)
		f.Close()
	}, nil
}

// Now formats t the way installed_at is stored
func Now(t time.Time) string {
	return t.UTC().Format(TimeFormat)
}
