package backend

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/arc-language/manafest/pkg/core"
	"github.com/arc-language/manafest/pkg/parser"
	"github.com/arc-language/manafest/pkg/remote"
	"github.com/arc-language/manafest/pkg/vcs"
)

// hostAPI knows one source host's REST layout
type hostAPI struct {
	searchURL func(api, query string) string
	repoURL   func(api, repo string) string
	search    parser.JSONFields
	// info keys, first match wins
	name, description, stars, web []string
}

var hostAPIs = map[string]hostAPI{
	GitHub: {
		searchURL: func(api, q string) string {
			return api + "/search/repositories?per_page=20&q=" + url.QueryEscape(q)
		},
		repoURL:     func(api, repo string) string { return api + "/repos/" + repo },
		search:      parser.GitHubSearchJSON,
		name:        []string{"full_name"},
		description: []string{"description"},
		stars:       []string{"stargazers_count"},
		web:         []string{"html_url"},
	},
	GitLab: {
		searchURL: func(api, q string) string {
			return api + "/projects?per_page=20&search=" + url.QueryEscape(q)
		},
		repoURL:     func(api, repo string) string { return api + "/projects/" + url.PathEscape(repo) },
		search:      parser.GitLabSearchJSON,
		name:        []string{"path_with_namespace"},
		description: []string{"description"},
		stars:       []string{"star_count"},
		web:         []string{"web_url"},
	},
	Bitbucket: {
		searchURL: func(api, q string) string {
			return api + "/repositories?pagelen=20&q=" + url.QueryEscape(fmt.Sprintf(`name ~ "%s"`, q))
		},
		repoURL:     func(api, repo string) string { return api + "/repositories/" + repo },
		search:      parser.BitbucketSearchJSON,
		name:        []string{"full_name"},
		description: []string{"description"},
	},
}

// SourceHost treats repositories on a code host as packages: install clones,
// remove deletes the clone.
type SourceHost struct {
	id       string
	api      hostAPI
	host     core.HostConfig
	cloneDir string
	client   *remote.Client
	cloner   vcs.Cloner
	logger   logrus.FieldLogger
}

// NewSourceHost builds the github, gitlab or bitbucket backend
func NewSourceHost(id string, opts Options) (*SourceHost, error) {
	opts = opts.withDefaults()

	api, ok := hostAPIs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s is not a source host", core.ErrUnknownBackend, id)
	}

	var host core.HostConfig
	switch id {
	case GitHub:
		host = opts.Config.Hosts.GitHub
	case GitLab:
		host = opts.Config.Hosts.GitLab
	case Bitbucket:
		host = opts.Config.Hosts.Bitbucket
	}
	host.APIURL = strings.TrimRight(host.APIURL, "/")
	host.WebURL = strings.TrimRight(host.WebURL, "/")

	return &SourceHost{
		id:       id,
		api:      api,
		host:     host,
		cloneDir: opts.Config.CloneDir,
		client:   opts.Client,
		cloner:   opts.Cloner,
		logger:   opts.Logger.WithField("backend", id),
	}, nil
}

// Name returns the backend identifier
func (b *SourceHost) Name() string {
	return b.id
}

// SelectCommand reports the git operation an install performs. Nothing is
// executed as a process; the argv is descriptive.
func (b *SourceHost) SelectCommand(action core.Action, arg string) ([]string, error) {
	if action != core.ActionInstall {
		return nil, fmt.Errorf("%s %s: %w: served over HTTP", b.id, action, core.ErrNotSupported)
	}
	repo, err := ParseRepo(arg)
	if err != nil {
		return nil, err
	}
	return []string{"git", "clone", b.CloneURL(repo), b.ClonePath(repo)}, nil
}

// CloneURL is the https clone URL of owner/repo
func (b *SourceHost) CloneURL(repo string) string {
	return b.host.WebURL + "/" + repo + ".git"
}

// ClonePath is where install puts owner/repo
func (b *SourceHost) ClonePath(repo string) string {
	return filepath.Join(b.cloneDir, vcs.RepoName(repo))
}

// Search lists repositories matching query
func (b *SourceHost) Search(ctx context.Context, query string) ([]core.PackageRecord, error) {
	raw, err := b.client.Get(ctx, b.api.searchURL(b.host.APIURL, query))
	if err != nil {
		return nil, &core.Error{Op: string(core.ActionSearch), Backend: b.id, Package: query, Err: err}
	}
	return parser.ParseJSON(string(raw), b.api.search), nil
}

// Info returns repository metadata: name, summary, stars, url
func (b *SourceHost) Info(ctx context.Context, name string) (core.Metadata, error) {
	repo, err := ParseRepo(name)
	if err != nil {
		return nil, err
	}

	raw, err := b.client.Get(ctx, b.api.repoURL(b.host.APIURL, repo))
	if err != nil {
		var se *remote.StatusError
		if errors.As(err, &se) && se.StatusCode == 404 {
			err = core.ErrPackageNotFound
		}
		return nil, &core.Error{Op: string(core.ActionInfo), Backend: b.id, Package: repo, Err: err}
	}

	doc := parser.DecodeObject(raw)
	if len(doc) == 0 {
		return nil, &core.Error{Op: string(core.ActionInfo), Backend: b.id, Package: repo,
			Err: fmt.Errorf("%w: empty repository document", core.ErrParse)}
	}

	md := core.Metadata{
		"name":    first(doc, b.api.name, repo),
		"summary": first(doc, b.api.description, core.Unknown),
		"version": core.Unknown,
		"arch":    core.Unknown,
		"url":     first(doc, b.api.web, b.host.WebURL+"/"+repo),
	}
	if len(b.api.stars) > 0 {
		md["stars"] = first(doc, b.api.stars, "0")
	}
	return md, nil
}

// Install clones owner/repo and reports where it went
func (b *SourceHost) Install(ctx context.Context, name string) (core.Metadata, error) {
	repo, err := ParseRepo(name)
	if err != nil {
		return nil, err
	}

	dest, err := filepath.Abs(b.ClonePath(repo))
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(dest); err == nil {
		return nil, &core.Error{Op: string(core.ActionInstall), Backend: b.id, Package: repo,
			Err: fmt.Errorf("%w: %s already exists", core.ErrExternalCall, dest)}
	}

	cloneURL := b.CloneURL(repo)
	b.logger.WithField("package", repo).Infof("cloning %s into %s", cloneURL, dest)

	if err := b.cloner.Clone(ctx, vcs.CloneOptions{URL: cloneURL, Dir: dest, Progress: os.Stdout}); err != nil {
		return nil, &core.Error{Op: string(core.ActionInstall), Backend: b.id, Package: repo, Err: err}
	}

	return core.Metadata{"repo": repo, "path": dest, "url": cloneURL}, nil
}

// Remove deletes the clone at its default location
func (b *SourceHost) Remove(ctx context.Context, name string) error {
	return b.RemoveRecorded(ctx, name, nil)
}

// RemoveRecorded deletes the clone at the recorded path
func (b *SourceHost) RemoveRecorded(ctx context.Context, name string, recorded core.Metadata) error {
	path := recorded.String("path")
	if path == core.Unknown {
		repo, err := ParseRepo(name)
		if err != nil {
			return err
		}
		path = b.ClonePath(repo)
	}

	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return &core.Error{Op: string(core.ActionRemove), Backend: b.id, Package: name,
			Err: fmt.Errorf("%w: no clone at %s", core.ErrPackageNotFound, path)}
	}

	b.logger.WithField("package", name).Infof("deleting %s", path)
	if err := os.RemoveAll(path); err != nil {
		return &core.Error{Op: string(core.ActionRemove), Backend: b.id, Package: name, Err: err}
	}
	return nil
}

// ParseRepo validates an owner/repo reference (nested groups allowed)
func ParseRepo(name string) (string, error) {
	repo := strings.Trim(strings.TrimSpace(name), "/")
	repo = strings.Trim(strings.TrimSuffix(repo, ".git"), "/")
	parts := strings.Split(repo, "/")
	if len(parts) < 2 {
		return "", fmt.Errorf("%w: %q is not owner/repo", core.ErrInvalidTarget, name)
	}
	for _, p := range parts {
		if p == "" || p == "." || p == ".." {
			return "", fmt.Errorf("%w: %q is not owner/repo", core.ErrInvalidTarget, name)
		}
	}
	return repo, nil
}

func first(doc core.Metadata, keys []string, fallback string) string {
	for _, k := range keys {
		if v := doc.String(k); v != core.Unknown {
			return v
		}
	}
	return fallback
}
