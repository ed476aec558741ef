package parser

import (
	"strings"

	"github.com/arc-language/manafest/pkg/core"
)

// ParsePipe parses `name|version|arch|summary` lines as printed by query
// formats such as `dnf repoquery --qf`. The summary may itself contain '|'.
// Lines without a delimiter are noise (progress, metadata banners) and skipped.
func ParsePipe(raw string) []core.PackageRecord {
	records := []core.PackageRecord{}
	for _, line := range scanLines(raw) {
		if !strings.Contains(line, "|") {
			continue
		}
		parts := strings.SplitN(line, "|", 4)
		for len(parts) < 4 {
			parts = append(parts, "")
		}
		name := strings.TrimSpace(parts[0])
		if name == "" {
			continue
		}
		records = append(records, core.NewRecord(name, parts[1], parts[2], parts[3]))
	}
	return records
}

// ParsePipeInfo returns the pipe record for name
func ParsePipeInfo(raw, name string) core.PackageRecord {
	return First(ParsePipe)(raw, name)
}
