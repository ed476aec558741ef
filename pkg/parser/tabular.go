package parser

import (
	"strings"

	"github.com/arc-language/manafest/pkg/core"
)

// Table describes whitespace- or delimiter-separated columnar output.
// Column indices are zero-based; -1 means the tool does not print that field.
type Table struct {
	// Separator splits a row. Empty means runs of whitespace.
	Separator string
	// FixedWidth derives column boundaries from the header line directly above
	// the rule, for tools that pad columns and allow spaces inside values.
	FixedWidth bool
	// HeaderRule means data rows only start after a line of dashes.
	HeaderRule bool
	// SkipLines drops this many leading lines (header without a rule).
	SkipLines int
	// MinColumns drops rows with fewer columns (free-text notices).
	MinColumns int

	Name, Version, Arch, Summary int
	// SummaryRest joins every column from Summary onwards.
	SummaryRest bool
}

// Tables for the tools that print columns
var (
	// zypper --quiet search --details
	ZypperTable = Table{Separator: "|", HeaderRule: true, Name: 1, Version: 3, Arch: 4, Summary: -1}
	// winget search; Name holds the display name, Id is what installs
	WingetTable = Table{FixedWidth: true, HeaderRule: true, Name: 1, Version: 2, Arch: -1, Summary: 0}
	// snap find
	SnapTable = Table{SkipLines: 1, Name: 0, Version: 1, Arch: -1, Summary: 4, SummaryRest: true}
	// flatpak search --columns=application,version,description
	FlatpakTable = Table{Separator: "\t", MinColumns: 2, Name: 0, Version: 1, Arch: -1, Summary: 2}
)

// ParseTable parses rows according to t. Rows too short to hold the name
// column are skipped.
func ParseTable(raw string, t Table) []core.PackageRecord {
	lines := scanLines(raw)
	records := []core.PackageRecord{}

	var bounds []int
	start := 0
	if t.HeaderRule {
		start = len(lines)
		for i, line := range lines {
			if isRule(line) {
				start = i + 1
				if t.FixedWidth && i > 0 {
					bounds = columnStarts(lines[i-1])
				}
				break
			}
		}
	}
	start += t.SkipLines

	for i := start; i < len(lines); i++ {
		line := lines[i]
		if strings.TrimSpace(line) == "" || isRule(line) {
			continue
		}

		var cols []string
		switch {
		case t.FixedWidth:
			if len(bounds) == 0 {
				return records
			}
			cols = cutColumns(line, bounds)
		case t.Separator == "":
			cols = strings.Fields(line)
		default:
			cols = strings.Split(line, t.Separator)
		}

		if len(cols) < t.MinColumns {
			continue
		}

		name := column(cols, t.Name)
		if name == "" {
			continue
		}

		summary := column(cols, t.Summary)
		if t.SummaryRest && t.Summary >= 0 && t.Summary < len(cols) {
			summary = strings.Join(cols[t.Summary:], " ")
		}

		records = append(records, core.NewRecord(name, column(cols, t.Version), column(cols, t.Arch), summary))
	}
	return records
}

// TableInfo returns an InfoFunc over ParseTable
func TableInfo(t Table) InfoFunc {
	return First(func(raw string) []core.PackageRecord { return ParseTable(raw, t) })
}

func column(cols []string, i int) string {
	if i < 0 || i >= len(cols) {
		return ""
	}
	return strings.TrimSpace(cols[i])
}

// columnStarts returns the byte offsets where header words begin
func columnStarts(header string) []int {
	var starts []int
	inWord := false
	for i, r := range header {
		if r == ' ' || r == '\t' {
			inWord = false
			continue
		}
		if !inWord {
			starts = append(starts, i)
			inWord = true
		}
	}
	return starts
}

// cutColumns slices line at the header offsets. Multi-word headers are not
// supported; tools using them are parsed with a separator instead.
func cutColumns(line string, starts []int) []string {
	cols := make([]string, 0, len(starts))
	for i, s := range starts {
		if s >= len(line) {
			cols = append(cols, "")
			continue
		}
		end := len(line)
		if i+1 < len(starts) && starts[i+1] < len(line) {
			end = starts[i+1]
		}
		cols = append(cols, line[s:end])
	}
	return cols
}
