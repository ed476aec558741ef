package backend

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arc-language/manafest/pkg/core"
	"github.com/arc-language/manafest/pkg/executor"
	"github.com/arc-language/manafest/pkg/native"
	"github.com/arc-language/manafest/pkg/platform"
	"github.com/arc-language/manafest/pkg/remote"
	"github.com/arc-language/manafest/pkg/vcs"
)

// fakeRunner answers commands by joined argv and records every call
type fakeRunner struct {
	mu      sync.Mutex
	results map[string]*executor.Result
	errs    map[string]error
	calls   [][]string
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{results: map[string]*executor.Result{}, errs: map[string]error{}}
}

func (f *fakeRunner) on(argv string, exit int, stdout string) {
	f.results[argv] = &executor.Result{ExitCode: exit, Stdout: []byte(stdout)}
}

func (f *fakeRunner) Run(ctx context.Context, cmd executor.Command) (*executor.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, cmd.Argv)

	key := strings.Join(cmd.Argv, " ")
	if err, ok := f.errs[key]; ok {
		return nil, err
	}
	if res, ok := f.results[key]; ok {
		return res, nil
	}
	return &executor.Result{ExitCode: 127, Stderr: []byte("unexpected command: " + key)}, nil
}

func testOptions(t *testing.T, runner executor.Runner, p *platform.Platform) Options {
	t.Helper()
	logger, _ := test.NewNullLogger()
	cfg := core.DefaultConfig()
	cfg.CloneDir = t.TempDir()
	return Options{
		Config:   cfg,
		Platform: p,
		Runner:   runner,
		Client:   remote.NewClient(time.Second, logger),
		Cloner:   &fakeCloner{},
		Logger:   logger,
	}
}

func stubPath(t *testing.T, names ...string) {
	t.Helper()
	orig := platform.LookPath
	t.Cleanup(func() { platform.LookPath = orig })

	found := map[string]bool{}
	for _, n := range names {
		found[n] = true
	}
	platform.LookPath = func(name string) (string, error) {
		if found[name] {
			return "/usr/bin/" + name, nil
		}
		return "", errors.New("not found")
	}
}

var archHost = &platform.Platform{OS: platform.OSLinux, Distro: platform.DistroArch, Arch: "amd64"}
var debianHost = &platform.Platform{OS: platform.OSLinux, Distro: platform.DistroDebian, Arch: "amd64"}

func TestCommandBackend_Search(t *testing.T) {
	runner := newFakeRunner()
	runner.on("pacman -Ss vim", 0, "extra/vim 9.1.0-1\n    Vi Improved\n")
	b := NewDefault(testOptions(t, runner, archHost))

	records, err := b.Search(context.Background(), "vim")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, core.NewRecord("vim", "9.1.0-1", "", "Vi Improved"), records[0])
}

func TestCommandBackend_SearchNoMatches(t *testing.T) {
	runner := newFakeRunner()
	runner.on("pacman -Ss zzz", 1, "")
	b := NewDefault(testOptions(t, runner, archHost))

	records, err := b.Search(context.Background(), "zzz")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestCommandBackend_SearchToolMissing(t *testing.T) {
	runner := newFakeRunner()
	runner.errs["pacman -Ss vim"] = &executor.NotFoundError{Name: "pacman"}
	b := NewDefault(testOptions(t, runner, archHost))

	_, err := b.Search(context.Background(), "vim")
	assert.ErrorIs(t, err, core.ErrToolUnavailable)

	var ce *core.Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, Default, ce.Backend)
}

func TestCommandBackend_Info(t *testing.T) {
	runner := newFakeRunner()
	runner.on("apt-cache show curl", 0, "Package: curl\nVersion: 8.5.0\nArchitecture: amd64\nDescription: transfer tool\n")
	b := NewDefault(testOptions(t, runner, debianHost))

	md, err := b.Info(context.Background(), "curl")
	require.NoError(t, err)
	assert.Equal(t, core.Metadata{"name": "curl", "version": "8.5.0", "arch": "amd64", "summary": "transfer tool"}, md)
}

func TestCommandBackend_InfoGarbageIsSentinel(t *testing.T) {
	runner := newFakeRunner()
	runner.on("apt-cache show curl", 0, "W: something odd\n")
	b := NewDefault(testOptions(t, runner, debianHost))

	md, err := b.Info(context.Background(), "curl")
	require.NoError(t, err)
	assert.Equal(t, core.UnknownRecord("curl").Metadata(), md)
}

func TestCommandBackend_InfoUnreadablePackageFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken_1.0_amd64.deb")
	require.NoError(t, os.WriteFile(path, []byte("not an ar archive"), 0644))

	runner := newFakeRunner()
	b := NewDefault(testOptions(t, runner, debianHost))

	md, err := b.Info(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, core.UnknownRecord(path).Metadata(), md)
	assert.Empty(t, runner.calls)
}

func TestCommandBackend_InstallRemove(t *testing.T) {
	runner := newFakeRunner()
	runner.on("sudo apt-get install -y curl", 0, "")
	runner.on("sudo apt-get remove -y curl", 100, "")
	b := NewDefault(testOptions(t, runner, debianHost))

	md, err := b.Install(context.Background(), "curl")
	require.NoError(t, err)
	assert.NotNil(t, md)

	err = b.Remove(context.Background(), "curl")
	assert.ErrorIs(t, err, core.ErrExternalCall)
}

func TestCommandBackend_IsInstalled(t *testing.T) {
	runner := newFakeRunner()
	runner.on("dpkg -s curl", 0, "Status: install ok installed\n")
	runner.on("dpkg -s nope", 1, "")
	b := NewDefault(testOptions(t, runner, debianHost))

	ok, err := b.IsInstalled(context.Background(), "curl")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = b.IsInstalled(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCommandBackend_Capabilities(t *testing.T) {
	b := NewDefault(testOptions(t, newFakeRunner(), debianHost))
	caps := core.CapabilitiesOf(b)
	for _, a := range []core.Action{core.ActionSearch, core.ActionInstall, core.ActionRemove, core.ActionInfo, core.ActionUpdate, core.ActionUpgrade, core.ActionIsInstalled} {
		assert.True(t, caps.Supports(a), string(a))
	}
}

func TestCommandBackend_CapabilitiesFollowDriver(t *testing.T) {
	b := NewCommandBackend(Default, native.Pip("pip3"), nil, testOptions(t, newFakeRunner(), debianHost))

	caps := core.CapabilitiesOf(b)
	assert.Equal(t, "install,remove,info,installed", caps.String())
	assert.False(t, core.Can(b, core.ActionSearch))
	assert.False(t, core.Can(b, core.ActionUpdate))
	assert.False(t, core.Can(b, core.ActionUpgrade))
}

func TestAUR_ScopeAndHelper(t *testing.T) {
	stubPath(t, "paru")
	opts := testOptions(t, newFakeRunner(), debianHost)

	b := NewAUR(opts)
	assert.Equal(t, "paru", b.Driver().Binary)
	assert.ErrorIs(t, b.CheckScope(debianHost), core.ErrScopeMismatch)
	assert.NoError(t, b.CheckScope(archHost))
	assert.NoError(t, b.CheckPrerequisites())

	argv, err := b.SelectCommand(core.ActionInstall, "yay-bin")
	require.NoError(t, err)
	assert.Equal(t, []string{"paru", "-S", "--noconfirm", "yay-bin"}, argv)
}

func TestAUR_NoHelper(t *testing.T) {
	stubPath(t)
	b := NewAUR(testOptions(t, newFakeRunner(), archHost))

	assert.Equal(t, "yay", b.Driver().Binary)
	assert.ErrorIs(t, b.CheckPrerequisites(), core.ErrToolUnavailable)
}

func TestAppStores(t *testing.T) {
	opts := testOptions(t, newFakeRunner(), debianHost)

	flat := NewFlatpak(opts)
	argv, err := flat.SelectCommand(core.ActionInstall, "org.videolan.VLC")
	require.NoError(t, err)
	assert.Equal(t, []string{"flatpak", "install", "-y", "flathub", "org.videolan.VLC"}, argv)

	snap := NewSnap(opts)
	argv, err = snap.SelectCommand(core.ActionInstall, "vlc")
	require.NoError(t, err)
	assert.Equal(t, []string{"sudo", "snap", "install", "vlc"}, argv)

	mac := &platform.Platform{OS: platform.OSMacOS}
	assert.ErrorIs(t, flat.CheckScope(mac), core.ErrScopeMismatch)
	assert.ErrorIs(t, snap.CheckScope(mac), core.ErrScopeMismatch)
}

func pypiServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/pypi":
			body, _ := io.ReadAll(r.Body)
			assert.Contains(t, string(body), "<methodName>search</methodName>")
			assert.Contains(t, string(body), "<string>or</string>")
			io.WriteString(w, `<?xml version='1.0'?><methodResponse><fault><value><struct>
<member><name>faultCode</name><value><int>-32500</int></value></member>
</struct></value></fault></methodResponse>`)
		case r.URL.Path == "/pypi/requests/json":
			io.WriteString(w, `{"info": {"name": "requests", "version": "2.32.3", "summary": "Python HTTP for Humans.", "home_page": "https://requests.readthedocs.io"}}`)
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestPyPI_SearchFallsBackToExactLookup(t *testing.T) {
	srv := pypiServer(t)
	defer srv.Close()

	opts := testOptions(t, newFakeRunner(), debianHost)
	opts.Config.PyPI.IndexURL = srv.URL
	b := NewPyPI(opts)

	records, err := b.Search(context.Background(), "requests")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, core.NewRecord("requests", "2.32.3", "", "Python HTTP for Humans."), records[0])

	records, err = b.Search(context.Background(), "definitely-missing")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestPyPI_Info(t *testing.T) {
	srv := pypiServer(t)
	defer srv.Close()

	opts := testOptions(t, newFakeRunner(), debianHost)
	opts.Config.PyPI.IndexURL = srv.URL
	b := NewPyPI(opts)

	md, err := b.Info(context.Background(), "requests")
	require.NoError(t, err)
	assert.Equal(t, "2.32.3", md.String("version"))
	assert.Equal(t, "https://requests.readthedocs.io", md.String("url"))

	_, err = b.Info(context.Background(), "missing")
	assert.ErrorIs(t, err, core.ErrPackageNotFound)
}

func TestPyPI_NoUpdateCapability(t *testing.T) {
	b := NewPyPI(testOptions(t, newFakeRunner(), debianHost))
	caps := core.CapabilitiesOf(b)
	assert.False(t, caps.Has(core.CapUpdate))
	assert.True(t, caps.Has(core.CapUpgrade))
	assert.True(t, caps.Has(core.CapIsInstalled))
}

func TestPyPI_Upgrade(t *testing.T) {
	stubPath(t, "pip3")
	runner := newFakeRunner()
	runner.on("pip3 list --outdated --format=json", 0,
		`[{"name": "requests", "version": "2.31.0", "latest_version": "2.32.3"}, {"name": "rich", "version": "13.0", "latest_version": "13.7"}]`)
	runner.on("pip3 install --upgrade requests", 0, "")
	runner.on("pip3 install --upgrade rich", 1, "")

	b := NewPyPI(testOptions(t, runner, debianHost))
	err := b.Upgrade(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rich")
	assert.NotContains(t, err.Error(), "requests")
	assert.Len(t, runner.calls, 3)
}

type fakeCloner struct {
	opts vcs.CloneOptions
	err  error
}

func (f *fakeCloner) Clone(ctx context.Context, opts vcs.CloneOptions) error {
	f.opts = opts
	if f.err != nil {
		return f.err
	}
	return os.MkdirAll(filepath.Join(opts.Dir, ".git"), 0755)
}

func TestSourceHost_SearchAndInfo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/search/repositories":
			assert.Equal(t, "ripgrep", r.URL.Query().Get("q"))
			io.WriteString(w, `{"items": [{"full_name": "BurntSushi/ripgrep", "description": "fast grep", "stargazers_count": 50000}]}`)
		case "/repos/BurntSushi/ripgrep":
			io.WriteString(w, `{"full_name": "BurntSushi/ripgrep", "description": "fast grep", "stargazers_count": 50000, "html_url": "https://github.com/BurntSushi/ripgrep"}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	opts := testOptions(t, newFakeRunner(), debianHost)
	opts.Config.Hosts.GitHub.APIURL = srv.URL
	b, err := NewSourceHost(GitHub, opts)
	require.NoError(t, err)

	records, err := b.Search(context.Background(), "ripgrep")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, core.NewRecord("BurntSushi/ripgrep", "", "", "fast grep"), records[0])

	md, err := b.Info(context.Background(), "BurntSushi/ripgrep")
	require.NoError(t, err)
	assert.Equal(t, "50000", md.String("stars"))
	assert.Equal(t, "https://github.com/BurntSushi/ripgrep", md.String("url"))
	assert.Equal(t, "fast grep", md.Record("x").Summary)

	_, err = b.Info(context.Background(), "nobody/nothing")
	assert.ErrorIs(t, err, core.ErrPackageNotFound)

	_, err = b.Info(context.Background(), "not-a-repo")
	assert.ErrorIs(t, err, core.ErrInvalidTarget)
}

func TestSourceHost_InstallRemove(t *testing.T) {
	opts := testOptions(t, newFakeRunner(), debianHost)
	cloner := &fakeCloner{}
	opts.Cloner = cloner

	b, err := NewSourceHost(GitLab, opts)
	require.NoError(t, err)

	md, err := b.Install(context.Background(), "gitlab-org/cli")
	require.NoError(t, err)
	assert.Equal(t, "https://gitlab.com/gitlab-org/cli.git", cloner.opts.URL)
	assert.Equal(t, "gitlab-org/cli", md.String("repo"))
	assert.DirExists(t, md.String("path"))

	_, err = b.Install(context.Background(), "gitlab-org/cli")
	assert.ErrorIs(t, err, core.ErrExternalCall, "existing clone is not overwritten")

	require.NoError(t, b.RemoveRecorded(context.Background(), "gitlab-org/cli", md))
	assert.NoDirExists(t, md.String("path"))

	err = b.Remove(context.Background(), "gitlab-org/cli")
	assert.ErrorIs(t, err, core.ErrPackageNotFound)
}

func TestSourceHost_CloneFailure(t *testing.T) {
	opts := testOptions(t, newFakeRunner(), debianHost)
	opts.Cloner = &fakeCloner{err: core.ErrExternalCall}

	b, err := NewSourceHost(Bitbucket, opts)
	require.NoError(t, err)

	md, err := b.Install(context.Background(), "owner/repo")
	assert.ErrorIs(t, err, core.ErrExternalCall)
	assert.Nil(t, md)
}

func TestSourceHost_Capabilities(t *testing.T) {
	b, err := NewSourceHost(GitHub, testOptions(t, newFakeRunner(), debianHost))
	require.NoError(t, err)

	caps := core.CapabilitiesOf(b)
	assert.Equal(t, "search,install,remove,info", caps.String())
}

func TestParseRepo(t *testing.T) {
	repo, err := ParseRepo(" cli/cli.git/ ")
	require.NoError(t, err)
	assert.Equal(t, "cli/cli", repo)

	repo, err = ParseRepo("group/sub/project")
	require.NoError(t, err)
	assert.Equal(t, "group/sub/project", repo)

	for _, bad := range []string{"", "cli", "cli/", "../etc", "a//b"} {
		_, err := ParseRepo(bad)
		assert.ErrorIs(t, err, core.ErrInvalidTarget, bad)
	}
}

func TestTable(t *testing.T) {
	stubPath(t, "apt-get")
	tbl, err := Build(testOptions(t, newFakeRunner(), debianHost))
	require.NoError(t, err)

	assert.Equal(t, Order, tbl.IDs())

	_, err = tbl.Get("nix")
	assert.ErrorIs(t, err, core.ErrUnknownBackend)

	b, err := tbl.Selectable(Default, false)
	require.NoError(t, err)
	assert.Equal(t, Default, b.Name())

	_, err = tbl.Selectable(AUR, false)
	assert.ErrorIs(t, err, core.ErrScopeMismatch)

	_, err = tbl.Selectable(Flatpak, false)
	assert.ErrorIs(t, err, core.ErrToolUnavailable)

	b, err = tbl.Selectable(AUR, true)
	require.NoError(t, err)
	assert.Equal(t, AUR, b.Name())

	_, err = tbl.Selectable(GitHub, false)
	assert.NoError(t, err)
}

func TestNewTable_Duplicate(t *testing.T) {
	opts := testOptions(t, newFakeRunner(), debianHost)
	_, err := NewTable(debianHost, NewDefault(opts), NewDefault(opts))
	assert.Error(t, err)
}

func TestNewCommandBackend_CustomDriver(t *testing.T) {
	runner := newFakeRunner()
	runner.on("sudo pacman -Syu --noconfirm", 0, "")
	b := NewCommandBackend("custom", native.Pacman(), nil, testOptions(t, runner, archHost))

	require.NoError(t, b.Upgrade(context.Background()))
	assert.Equal(t, [][]string{{"sudo", "pacman", "-Syu", "--noconfirm"}}, runner.calls)
}
