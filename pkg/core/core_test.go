package core

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRecord_FillsSentinels(t *testing.T) {
	r := NewRecord("vim", "  ", "", "editor")
	assert.Equal(t, PackageRecord{Name: "vim", Version: Unknown, Architecture: Unknown, Summary: "editor"}, r)
	assert.False(t, r.IsUnknown())
	assert.True(t, UnknownRecord("vim").IsUnknown())

	data, err := json.Marshal(UnknownRecord(""))
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"-","version":"-","arch":"-","summary":"-"}`, string(data))
}

func TestMetadata_String(t *testing.T) {
	md := Metadata{
		"name":  "ripgrep",
		"stars": json.Number("4500"),
		"empty": "",
		"nil":   nil,
		"int":   7,
	}
	assert.Equal(t, "ripgrep", md.String("name"))
	assert.Equal(t, "4500", md.String("stars"))
	assert.Equal(t, Unknown, md.String("empty"))
	assert.Equal(t, Unknown, md.String("nil"))
	assert.Equal(t, Unknown, md.String("int"))
	assert.Equal(t, Unknown, md.String("missing"))
	assert.Equal(t, Unknown, Metadata(nil).String("name"))
}

func TestMetadata_Record(t *testing.T) {
	rec := NewRecord("vim", "9.1", "x86_64", "editor")
	assert.Equal(t, rec, rec.Metadata().Record("other"))

	host := Metadata{"full_name": "cli/cli", "description": "GitHub CLI"}
	assert.Equal(t, NewRecord("cli/cli", "", "", "GitHub CLI"), host.Record("x"))

	assert.Equal(t, UnknownRecord("fallback"), Metadata{}.Record("fallback"))
}

func TestMetadata_Merge(t *testing.T) {
	a := Metadata{"name": "x", "version": "1"}
	b := Metadata{"version": "2", "path": "/src/x"}

	merged := a.Merge(b)
	assert.Equal(t, Metadata{"name": "x", "version": "2", "path": "/src/x"}, merged)
	assert.Equal(t, "1", a["version"], "receiver untouched")
	assert.Equal(t, Metadata{"k": 1}, Metadata(nil).Merge(Metadata{"k": 1}))
}

type searchOnly struct{}

func (searchOnly) Name() string { return "s" }
func (searchOnly) Search(context.Context, string) ([]PackageRecord, error) {
	return nil, nil
}

type full struct{ searchOnly }

func (full) Install(context.Context, string) (Metadata, error) { return nil, nil }
func (full) Remove(context.Context, string) error { return nil }
func (full) Info(context.Context, string) (Metadata, error) { return nil, nil }
func (full) Update(context.Context) error { return nil }
func (full) Upgrade(context.Context) error { return nil }
func (full) IsInstalled(context.Context, string) (bool, error) { return false, nil }

func TestCapabilitiesOf(t *testing.T) {
	caps := CapabilitiesOf(searchOnly{})
	assert.True(t, caps.Has(CapSearch))
	assert.False(t, caps.Supports(ActionInstall))
	assert.Equal(t, "search", caps.String())

	caps = CapabilitiesOf(full{})
	for _, a := range []Action{ActionSearch, ActionInstall, ActionRemove, ActionInfo, ActionUpdate, ActionUpgrade, ActionIsInstalled} {
		assert.True(t, caps.Supports(a), a)
	}
	assert.Equal(t, "search,install,remove,info,update,upgrade,installed", caps.String())
	assert.False(t, caps.Supports("clone"))

	assert.Equal(t, "none", CapabilitySet(0).String())
}

type declared struct{ full }

func (declared) Capabilities() CapabilitySet {
	return CapabilitySet(0).With(ActionInstall).With(ActionRemove).With("clone")
}

type overclaiming struct{ searchOnly }

func (overclaiming) Capabilities() CapabilitySet {
	return CapabilitySet(0).With(ActionSearch).With(ActionUpdate)
}

func TestCapabilitiesOf_Declared(t *testing.T) {
	assert.Equal(t, "install,remove", CapabilitiesOf(declared{}).String())
	assert.False(t, Can(declared{}, ActionUpdate))
	assert.True(t, Can(declared{}, ActionInstall))

	// a declaration cannot add operations the type does not implement
	assert.Equal(t, "search", CapabilitiesOf(overclaiming{}).String())
}

func TestClassify(t *testing.T) {
	wrapped := &Error{Op: "install", Backend: "aur", Package: "yay", Err: fmt.Errorf("helper: %w", ErrToolUnavailable)}
	assert.Equal(t, ErrToolUnavailable, Classify(wrapped))
	assert.Equal(t, "aur install yay: helper: tool unavailable", wrapped.Error())

	assert.Equal(t, ErrCancelled, Classify(fmt.Errorf("%w and %w", ErrExternalCall, ErrCancelled)))
	assert.Nil(t, Classify(fmt.Errorf("plain")))
	assert.Nil(t, Classify(nil))

	assert.Equal(t, "select: not supported by backend", (&Error{Op: "select", Err: ErrNotSupported}).Error())
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("MANAFEST_REGISTRY", "")
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	def := DefaultConfig()
	assert.Equal(t, def.Timeouts, cfg.Timeouts)
	assert.Equal(t, "default", cfg.DefaultBackend)
	assert.Equal(t, []string{"yay", "paru", "pikaur"}, cfg.AUR.Helpers)
	assert.True(t, cfg.Parallel)
}

func TestLoadConfig_File(t *testing.T) {
	t.Setenv("MANAFEST_REGISTRY", "")
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
default_backend: flatpak
registry_path: /var/lib/manafest/registry.json
parallel: false
timeouts:
  query: 5s
aur:
  helpers: [paru]
hosts:
  gitlab:
    api_url: https://gitlab.example.com/api/v4
`), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "flatpak", cfg.DefaultBackend)
	assert.Equal(t, "/var/lib/manafest/registry.json", cfg.RegistryPath)
	assert.False(t, cfg.Parallel)
	assert.Equal(t, 5*time.Second, cfg.Timeouts.Query)
	assert.Equal(t, 30*time.Minute, cfg.Timeouts.Install)
	assert.Equal(t, []string{"paru"}, cfg.AUR.Helpers)
	assert.Equal(t, "https://gitlab.example.com/api/v4", cfg.Hosts.GitLab.APIURL)
	assert.Equal(t, "https://gitlab.com", cfg.Hosts.GitLab.WebURL)
	assert.Equal(t, "flathub", cfg.Flatpak.Remote)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("debug: true\n"), 0644))

	t.Setenv("MANAFEST_CONFIG", path)
	t.Setenv("MANAFEST_REGISTRY", filepath.Join(dir, "r.json"))

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.True(t, cfg.Debug)
	assert.Equal(t, filepath.Join(dir, "r.json"), cfg.RegistryPath)
}

func TestLoadConfig_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("timeouts: [nope"), 0644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	t.Setenv("MANAFEST_REGISTRY", "")
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.DefaultBackend = "snap"
	cfg.Timeouts.HTTP = 9 * time.Second
	require.NoError(t, SaveConfig(cfg, path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
