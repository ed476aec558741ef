package orchestrator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/arc-language/manafest/pkg/backend"
	"github.com/arc-language/manafest/pkg/core"
	"github.com/arc-language/manafest/pkg/store"
	"github.com/arc-language/manafest/pkg/vcs"
)

// Installed is one registry entry, as listed
type Installed struct {
	Name   string
	Record core.PackageRecord
	store.Entry
}

// List returns the registry sorted by package name
func (o *Orchestrator) List() []Installed {
	reg := o.store.Load()
	out := make([]Installed, 0, len(reg))
	for _, name := range reg.Names() {
		e := reg[name]
		out = append(out, Installed{Name: name, Record: e.Record(name), Entry: e})
	}
	return out
}

// CloneRequest describes a clone. Either Repo (owner/repo on Host) or URL
// must be set.
type CloneRequest struct {
	Repo   string
	URL    string
	Host   string // source-host backend id; github when empty
	Dir    string // destination; derived from the repository name when empty
	Branch string
	Depth  int
}

type cloneHost interface {
	CloneURL(repo string) string
}

// Clone clones a repository without recording it in the registry and
// returns the destination directory.
func (o *Orchestrator) Clone(ctx context.Context, req CloneRequest) (string, error) {
	url := strings.TrimSpace(req.URL)
	if url == "" {
		repo := strings.TrimSpace(req.Repo)
		if repo == "" {
			return "", &core.Error{Op: "clone", Err: fmt.Errorf("%w: no repository given", core.ErrInvalidTarget)}
		}
		if strings.Contains(repo, "://") || strings.HasPrefix(repo, "git@") {
			url = repo
		} else {
			id := req.Host
			if id == "" {
				id = backend.GitHub
			}
			b, err := o.table.Get(id)
			if err != nil {
				return "", err
			}
			host, ok := b.(cloneHost)
			if !ok {
				return "", &core.Error{Op: "clone", Backend: id, Err: core.ErrNotSupported}
			}
			repo, err = backend.ParseRepo(repo)
			if err != nil {
				return "", err
			}
			url = host.CloneURL(repo)
		}
	}

	dir := req.Dir
	if dir == "" {
		dir = vcs.RepoName(url)
	}
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}

	o.logger.WithField("url", url).Infof("cloning into %s", dir)
	if err := o.cloner.Clone(ctx, vcs.CloneOptions{
		URL:      url,
		Dir:      dir,
		Branch:   req.Branch,
		Depth:    req.Depth,
		Progress: os.Stdout,
	}); err != nil {
		return "", &core.Error{Op: "clone", Package: url, Err: err}
	}
	return dir, nil
}
