// Package vcs clones git repositories in-process with go-git.
package vcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/arc-language/manafest/pkg/core"
)

// CloneOptions configures a clone
type CloneOptions struct {
	URL    string
	Dir    string // destination; must not exist or be empty
	Branch string // empty means the remote HEAD
	Depth  int    // 0 means full history
	// Progress receives sideband output (e.g. os.Stdout); nil discards it
	Progress io.Writer
}

// Cloner clones repositories
type Cloner interface {
	Clone(ctx context.Context, opts CloneOptions) error
}

// GoGit clones with go-git
type GoGit struct{}

// Clone clones opts.URL into opts.Dir. A partially written destination is
// removed on failure.
func (GoGit) Clone(ctx context.Context, opts CloneOptions) error {
	if opts.URL == "" || opts.Dir == "" {
		return fmt.Errorf("%w: clone needs a url and a destination", core.ErrInvalidTarget)
	}

	existed := exists(opts.Dir)

	co := &git.CloneOptions{
		URL:      opts.URL,
		Depth:    opts.Depth,
		Progress: opts.Progress,
	}
	if opts.Branch != "" {
		co.ReferenceName = plumbing.NewBranchReferenceName(opts.Branch)
		co.SingleBranch = true
	}

	_, err := git.PlainCloneContext(ctx, opts.Dir, false, co)
	if err != nil {
		if !existed && !errors.Is(err, git.ErrRepositoryAlreadyExists) {
			os.RemoveAll(opts.Dir)
		}
		return fmt.Errorf("%w: git clone %s: %v", core.ErrExternalCall, opts.URL, err)
	}
	return nil
}

// RepoName derives a directory name from a clone URL or owner/repo slug
func RepoName(raw string) string {
	s := strings.TrimSuffix(strings.TrimRight(raw, "/"), ".git")
	if u, err := url.Parse(s); err == nil && u.Path != "" {
		s = u.Path
	}
	// scp-like git@host:owner/repo
	if i := strings.LastIndex(s, ":"); i >= 0 {
		s = s[i+1:]
	}
	return path.Base(s)
}

func exists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
