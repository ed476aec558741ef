package alias

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeEntry(t *testing.T, dir string, e Entry) {
	t.Helper()
	pkgDir := filepath.Join(dir, e.Name)
	require.NoError(t, os.MkdirAll(pkgDir, 0755))

	f, err := os.Create(filepath.Join(pkgDir, "index.toml"))
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, toml.NewEncoder(f).Encode(e))
}

func TestResolve(t *testing.T) {
	dir := t.TempDir()
	writeEntry(t, dir, Entry{
		Name: "sqlite",
		Backends: map[string]string{
			"default": "sqlite3",
			"apt":     "libsqlite3-dev",
			"flatpak": "org.sqlitebrowser.sqlitebrowser",
		},
	})
	logger, _ := test.NewNullLogger()
	a := New(dir, logger)

	assert.Equal(t, "org.sqlitebrowser.sqlitebrowser", a.Resolve("sqlite", "flatpak"))
	assert.Equal(t, "libsqlite3-dev", a.Resolve("sqlite", "apt", "default"))
	assert.Equal(t, "sqlite3", a.Resolve("sqlite", "pacman", "default"))
	assert.Equal(t, "sqlite", a.Resolve("sqlite", "snap"))
	assert.Equal(t, "curl", a.Resolve("curl", "default"))
}

func TestResolve_BrokenFileFallsBack(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "bad"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad", "index.toml"), []byte("name = [unterminated"), 0644))

	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	assert.Equal(t, "bad", New(dir, logger).Resolve("bad", "default"))
	require.NotNil(t, hook.LastEntry())
	assert.Contains(t, hook.LastEntry().Message, "ignoring alias")
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeEntry(t, dir, Entry{Name: "jq", Backends: map[string]string{"default": "jq"}})
	a := New(dir, nil)

	e, err := a.Load("jq")
	require.NoError(t, err)
	assert.Equal(t, "jq", e.Name)

	_, err = a.Load("missing")
	assert.ErrorIs(t, err, ErrNoAlias)

	_, err = a.Load("../jq")
	assert.ErrorIs(t, err, ErrNoAlias)

	_, err = New("", nil).Load("jq")
	assert.ErrorIs(t, err, ErrNoAlias)
}
