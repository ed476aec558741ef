// pkg/core/package.go
package core

import "strings"

// Unknown is the sentinel used for any field a backend could not provide.
const Unknown = "-"

// PackageRecord is the normalized result of a query against any backend.
// Every field is always populated; missing data is the Unknown sentinel.
type PackageRecord struct {
	Name         string `json:"name"`
	Version      string `json:"version"`
	Architecture string `json:"arch"`
	Summary      string `json:"summary"`
}

// NewRecord builds a PackageRecord, filling blank fields with Unknown.
func NewRecord(name, version, arch, summary string) PackageRecord {
	return PackageRecord{
		Name:         orUnknown(name),
		Version:      orUnknown(version),
		Architecture: orUnknown(arch),
		Summary:      orUnknown(summary),
	}
}

// UnknownRecord returns the all-sentinel record for name.
func UnknownRecord(name string) PackageRecord {
	return NewRecord(name, "", "", "")
}

// IsUnknown reports whether nothing beyond the name is known.
func (r PackageRecord) IsUnknown() bool {
	return r.Version == Unknown && r.Architecture == Unknown && r.Summary == Unknown
}

// Metadata converts the record into the mapping stored in the registry.
func (r PackageRecord) Metadata() Metadata {
	return Metadata{
		"name":    r.Name,
		"version": r.Version,
		"arch":    r.Architecture,
		"summary": r.Summary,
	}
}

// Metadata is the opaque info mapping kept per registry entry. Record-shaped
// backends store name/version/arch/summary; source hosts store things like
// stars and url.
type Metadata map[string]any

// String returns the value of key as a string, or Unknown.
func (m Metadata) String(key string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return Unknown
	}
	switch s := v.(type) {
	case string:
		return orUnknown(s)
	case interface{ String() string }:
		return orUnknown(s.String())
	}
	return Unknown
}

// Record projects the mapping onto a PackageRecord. Source-host keys
// (full_name, description) are accepted as fallbacks.
func (m Metadata) Record(fallbackName string) PackageRecord {
	name := m.String("name")
	if name == Unknown {
		name = m.String("full_name")
	}
	if name == Unknown {
		name = fallbackName
	}
	summary := m.String("summary")
	if summary == Unknown {
		summary = m.String("description")
	}
	return NewRecord(name, m.String("version"), m.String("arch"), summary)
}

// Merge copies other into a new mapping; keys in other win.
func (m Metadata) Merge(other Metadata) Metadata {
	out := make(Metadata, len(m)+len(other))
	for k, v := range m {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}

func orUnknown(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return Unknown
	}
	return s
}
