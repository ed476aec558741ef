// Package parser turns the text printed by package-management tools into
// core.PackageRecord values.
//
// Every parser is total: lines it does not understand are skipped, fields it
// cannot find are filled with core.Unknown, and nothing here returns an
// error. A change in some tool's output format should only ever touch the one
// parser for that format.
package parser

import (
	"strings"

	"github.com/arc-language/manafest/pkg/core"
)

// SearchFunc parses search output into zero or more records
type SearchFunc func(raw string) []core.PackageRecord

// InfoFunc parses info output for name into one record. When nothing usable
// is found it returns core.UnknownRecord(name).
type InfoFunc func(raw, name string) core.PackageRecord

// First adapts a SearchFunc into an InfoFunc, preferring the record whose
// name matches exactly.
func First(search SearchFunc) InfoFunc {
	return func(raw, name string) core.PackageRecord {
		return pick(search(raw), name)
	}
}

func pick(records []core.PackageRecord, name string) core.PackageRecord {
	for _, r := range records {
		if r.Name == name {
			return r
		}
	}
	if len(records) > 0 {
		return records[0]
	}
	return core.UnknownRecord(name)
}

// scanLines splits raw into lines, tolerating CRLF. There is no line length
// limit: a huge line never hides the lines after it.
func scanLines(raw string) []string {
	if raw == "" {
		return nil
	}
	lines := strings.Split(strings.TrimSuffix(raw, "\n"), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, "\r")
	}
	return lines
}

func isRule(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	return strings.Trim(line, "-+|= ") == ""
}
