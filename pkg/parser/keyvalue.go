package parser

import (
	"strings"

	"github.com/arc-language/manafest/pkg/core"
)

// Fields lists, per record field, the keys that may carry it in
// key-colon-value output. Keys are matched case-insensitively.
type Fields struct {
	Name    []string
	Version []string
	Arch    []string
	Summary []string
}

// Field sets for the tools that print key-colon-value blocks
var (
	PacmanFields = Fields{
		Name:    []string{"Name"},
		Version: []string{"Version"},
		Arch:    []string{"Architecture"},
		Summary: []string{"Description"},
	}
	DebianFields = Fields{
		Name:    []string{"Package"},
		Version: []string{"Version"},
		Arch:    []string{"Architecture"},
		Summary: []string{"Description", "Description-en"},
	}
	ZypperFields = Fields{
		Name:    []string{"Name"},
		Version: []string{"Version"},
		Arch:    []string{"Arch"},
		Summary: []string{"Summary"},
	}
	PipFields = Fields{
		Name:    []string{"Name"},
		Version: []string{"Version"},
		Summary: []string{"Summary"},
	}
	WingetFields = Fields{
		Name:    []string{"Id"},
		Version: []string{"Version"},
		Arch:    []string{"Architecture"},
		Summary: []string{"Description", "Short Description"},
	}
	SnapFields = Fields{
		Name:    []string{"name"},
		Version: []string{"installed", "tracking"},
		Summary: []string{"summary"},
	}
	FlatpakFields = Fields{
		Name:    []string{"ID"},
		Version: []string{"Version"},
		Arch:    []string{"Arch"},
	}
	AURFields = Fields{
		Name:    []string{"Name"},
		Version: []string{"Version"},
		Arch:    []string{"Architecture"},
		Summary: []string{"Description"},
	}
)

type block struct {
	name, version, arch, summary string
	rank                         [3]int // version, arch, summary
	seen                         bool
}

// set stores value when it comes from a better-ranked key than what is held
func (b *block) set(slot int, dst *string, value string, rank int) {
	if *dst == "" || rank < b.rank[slot] {
		*dst = value
		b.rank[slot] = rank
	}
}

func (b *block) record() core.PackageRecord {
	return core.NewRecord(b.name, b.version, b.arch, b.summary)
}

// ParseBlocks parses consecutive key-colon-value blocks. A block ends at a
// blank line or when a second name key appears. Blocks without a name are
// dropped; use ParseBlock when the tool prints the name elsewhere.
func ParseBlocks(raw string, fields Fields) []core.PackageRecord {
	records := []core.PackageRecord{}
	for _, b := range parseBlocks(raw, fields) {
		if b.name != "" {
			records = append(records, b.record())
		}
	}
	return records
}

// ParseBlock parses the block describing name. If no block names it, the
// first block is used with name filled in.
func ParseBlock(raw, name string, fields Fields) core.PackageRecord {
	blocks := parseBlocks(raw, fields)
	for _, b := range blocks {
		if b.name == name {
			return b.record()
		}
	}
	if len(blocks) == 0 {
		return core.UnknownRecord(name)
	}
	b := blocks[0]
	if b.name == "" {
		b.name = name
	}
	return b.record()
}

// Blocks returns an InfoFunc bound to fields
func Blocks(fields Fields) InfoFunc {
	return func(raw, name string) core.PackageRecord {
		return ParseBlock(raw, name, fields)
	}
}

func parseBlocks(raw string, fields Fields) []block {
	var blocks []block
	var cur block

	flush := func() {
		if cur.seen {
			blocks = append(blocks, cur)
		}
		cur = block{}
	}

	for _, line := range scanLines(raw) {
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}

		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if key == "" {
			continue
		}

		if matchIndex(key, fields.Name) >= 0 {
			if cur.name != "" {
				flush()
			}
			cur.name = value
		} else if i := matchIndex(key, fields.Version); i >= 0 {
			cur.set(0, &cur.version, firstWord(value), i)
		} else if i := matchIndex(key, fields.Arch); i >= 0 {
			cur.set(1, &cur.arch, value, i)
		} else if i := matchIndex(key, fields.Summary); i >= 0 {
			cur.set(2, &cur.summary, value, i)
		} else {
			continue
		}
		cur.seen = true
	}
	flush()

	return blocks
}

func matchIndex(key string, candidates []string) int {
	for i, c := range candidates {
		if strings.EqualFold(key, c) {
			return i
		}
	}
	return -1
}

// firstWord trims annotations such as snap's "1.2.3 (42) 10MB -"
func firstWord(s string) string {
	if f := strings.Fields(s); len(f) > 0 {
		return f[0]
	}
	return ""
}
