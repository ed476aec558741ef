package parser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/arc-language/manafest/pkg/core"
)

// JSONFields maps record fields to dotted paths inside each object. The
// first path that yields a value wins.
type JSONFields struct {
	// Roots are dotted paths to the arrays holding objects. Empty means the
	// document itself is the array.
	Roots   []string
	Name    []string
	Version []string
	Arch    []string
	Summary []string
}

// JSON field sets
var (
	// brew info --json=v2
	BrewJSON = JSONFields{
		Roots:   []string{"formulae", "casks"},
		Name:    []string{"token", "name"},
		Version: []string{"versions.stable", "version"},
		Summary: []string{"desc"},
	}
	// pip list --outdated --format=json
	PipOutdatedJSON = JSONFields{
		Name:    []string{"name"},
		Version: []string{"latest_version", "version"},
	}
	GitHubSearchJSON = JSONFields{
		Roots:   []string{"items"},
		Name:    []string{"full_name"},
		Summary: []string{"description"},
	}
	GitLabSearchJSON = JSONFields{
		Name:    []string{"path_with_namespace"},
		Summary: []string{"description"},
	}
	BitbucketSearchJSON = JSONFields{
		Roots:   []string{"values"},
		Name:    []string{"full_name"},
		Summary: []string{"description"},
	}
)

// ParseJSON projects every object found under the roots onto a record.
// Anything that is not valid JSON yields no records.
func ParseJSON(raw string, fields JSONFields) []core.PackageRecord {
	records := []core.PackageRecord{}

	doc, ok := decode(raw)
	if !ok {
		return records
	}

	roots := fields.Roots
	if len(roots) == 0 {
		roots = []string{""}
	}

	for _, root := range roots {
		items, _ := lookup(doc, root).([]any)
		for _, item := range items {
			obj, ok := item.(map[string]any)
			if !ok {
				continue
			}
			name := firstValue(obj, fields.Name)
			if name == "" {
				continue
			}
			records = append(records, core.NewRecord(
				name,
				firstValue(obj, fields.Version),
				firstValue(obj, fields.Arch),
				firstValue(obj, fields.Summary),
			))
		}
	}
	return records
}

// JSONInfo returns an InfoFunc over ParseJSON
func JSONInfo(fields JSONFields) InfoFunc {
	return First(func(raw string) []core.PackageRecord { return ParseJSON(raw, fields) })
}

// DecodeObject decodes a JSON object into metadata, keeping numbers exact.
// Anything else yields an empty mapping.
func DecodeObject(raw []byte) core.Metadata {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var m map[string]any
	if err := dec.Decode(&m); err != nil || m == nil {
		return core.Metadata{}
	}
	return core.Metadata(m)
}

func decode(raw string) (any, bool) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, false
	}
	return doc, true
}

// lookup follows a dotted path through nested objects
func lookup(v any, path string) any {
	if path == "" {
		return v
	}
	for _, key := range strings.Split(path, ".") {
		obj, ok := v.(map[string]any)
		if !ok {
			return nil
		}
		v = obj[key]
	}
	return v
}

func firstValue(obj map[string]any, paths []string) string {
	for _, p := range paths {
		if s := scalar(lookup(obj, p)); s != "" {
			return s
		}
	}
	return ""
}

// scalar renders strings and numbers; for arrays it takes the first element
func scalar(v any) string {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case json.Number:
		return x.String()
	case bool:
		return fmt.Sprint(x)
	case []any:
		if len(x) > 0 {
			return scalar(x[0])
		}
	}
	return ""
}
