package cli

import (
	"github.com/spf13/cobra"

	"github.com/arc-language/manafest/pkg/backend"
)

var backendFlags = []struct {
	flag  string
	id    string
	usage string
}{
	{"aur", backend.AUR, "use the Arch User Repository"},
	{"flatpak", backend.Flatpak, "use Flatpak"},
	{"snap", backend.Snap, "use Snap"},
	{"pypi", backend.PyPI, "use the Python package index"},
	{"github", backend.GitHub, "use GitHub"},
	{"gitlab", backend.GitLab, "use GitLab"},
	{"bitbucket", backend.Bitbucket, "use Bitbucket"},
}

// selection collects the backend flags of one command
type selection struct {
	flags    map[string]*bool
	backends []string
	all      bool
}

func newSelection(cmd *cobra.Command, fanOut bool) *selection {
	s := &selection{flags: map[string]*bool{}}
	for _, f := range backendFlags {
		s.flags[f.id] = cmd.Flags().Bool(f.flag, false, f.usage)
	}
	cmd.Flags().StringSliceVarP(&s.backends, "backend", "b", nil, "backend id to use (repeatable), e.g. default")
	if fanOut {
		cmd.Flags().BoolVar(&s.all, "all", false, "use every known backend")
	}
	return s
}

// ids returns the chosen backends in a stable order: --backend values
// first, then flags in table order. Empty means the default backend.
func (s *selection) ids(all []string) []string {
	if s.all {
		return all
	}

	seen := map[string]bool{}
	var out []string
	add := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	for _, id := range s.backends {
		add(id)
	}
	for _, id := range backend.Order {
		if p, ok := s.flags[id]; ok && *p {
			add(id)
		}
	}
	return out
}
