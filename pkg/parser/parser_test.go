package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arc-language/manafest/pkg/core"
)

func TestParsePipe(t *testing.T) {
	raw := "Last metadata expiration check: 0:12:01 ago.\n" +
		"vim-enhanced|9.0.2120-1.fc39|x86_64|A version of the VIM editor which includes recent enhancements\n" +
		"vim-minimal|9.0.2120-1.fc39|x86_64|A minimal version of the VIM editor | tiny\n" +
		"broken|1.0\n" +
		"|no-name|x|y\n"

	records := ParsePipe(raw)
	require.Len(t, records, 3)

	assert.Equal(t, core.NewRecord("vim-enhanced", "9.0.2120-1.fc39", "x86_64", "A version of the VIM editor which includes recent enhancements"), records[0])
	assert.Equal(t, "A minimal version of the VIM editor | tiny", records[1].Summary)
	assert.Equal(t, core.NewRecord("broken", "1.0", "-", "-"), records[2])
}

func TestParsePipeInfo(t *testing.T) {
	raw := "vim-common|9.0|x86_64|common files\nvim|9.0|x86_64|editor\n"

	assert.Equal(t, "editor", ParsePipeInfo(raw, "vim").Summary)
	assert.Equal(t, "vim-common", ParsePipeInfo(raw, "nvim").Name)
	assert.Equal(t, core.UnknownRecord("nvim"), ParsePipeInfo("", "nvim"))
}

func TestParseBlocks_Pacman(t *testing.T) {
	raw := `Repository      : extra
Name            : vim
Version         : 9.1.0-1
Description     : Vi Improved, a highly configurable text editor
Architecture    : x86_64
URL             : https://www.vim.org
Build Date      : Mon 01 Jan 2024 10:00:00 AM UTC

Repository      : extra
Name            : gvim
Version         : 9.1.0-1
Description     : Vi Improved, with GUI
Architecture    : x86_64
`
	records := ParseBlocks(raw, PacmanFields)
	require.Len(t, records, 2)
	assert.Equal(t, core.NewRecord("vim", "9.1.0-1", "x86_64", "Vi Improved, a highly configurable text editor"), records[0])
	assert.Equal(t, "gvim", records[1].Name)

	assert.Equal(t, "Vi Improved, with GUI", ParseBlock(raw, "gvim", PacmanFields).Summary)
}

func TestParseBlocks_NewNameStartsBlock(t *testing.T) {
	raw := "Name: a\nVersion: 1\nName: b\nVersion: 2\n"

	records := ParseBlocks(raw, PacmanFields)
	require.Len(t, records, 2)
	assert.Equal(t, "1", records[0].Version)
	assert.Equal(t, "2", records[1].Version)
	assert.Equal(t, core.Unknown, records[1].Architecture)
}

func TestParseBlock_Debian(t *testing.T) {
	raw := `Package: curl
Version: 8.5.0-2ubuntu10
Priority: optional
Architecture: amd64
Description-en: command line tool for transferring data with URL syntax
 curl is a command line tool for transferring data with URL syntax,
 supporting DICT, FILE, FTP, FTPS, GOPHER, HTTP, HTTPS.
`
	rec := ParseBlock(raw, "curl", DebianFields)
	assert.Equal(t, core.NewRecord("curl", "8.5.0-2ubuntu10", "amd64", "command line tool for transferring data with URL syntax"), rec)
}

func TestParseBlock_NamelessUsesRequestedName(t *testing.T) {
	raw := `Found Mozilla Firefox [Mozilla.Firefox]
Version: 120.0.1
Publisher: Mozilla
Description: Mozilla Firefox is free and open source software.
`
	rec := ParseBlock(raw, "Mozilla.Firefox", WingetFields)
	assert.Equal(t, core.NewRecord("Mozilla.Firefox", "120.0.1", "-", "Mozilla Firefox is free and open source software."), rec)
}

func TestParseBlock_KeyPrecedence(t *testing.T) {
	raw := `name:      vlc
summary:   The ultimate media player
publisher: VideoLAN
tracking:     latest/stable
installed:    3.0.20-1 (3777) 336MB -
`
	rec := ParseBlock(raw, "vlc", SnapFields)
	assert.Equal(t, "3.0.20-1", rec.Version)
	assert.Equal(t, "The ultimate media player", rec.Summary)
}

func TestParseBlock_Empty(t *testing.T) {
	assert.Equal(t, core.UnknownRecord("x"), ParseBlock("error: package 'x' was not found\n", "x", PacmanFields))
}

func TestParseTable_Zypper(t *testing.T) {
	raw := `S  | Name      | Type    | Version    | Arch   | Repository
---+-----------+---------+------------+--------+-----------
i+ | vim       | package | 9.0.2103-1 | x86_64 | repo-oss
   | vim-data  | package | 9.0.2103-1 | noarch | repo-oss
`
	records := ParseTable(raw, ZypperTable)
	require.Len(t, records, 2)
	assert.Equal(t, core.NewRecord("vim", "9.0.2103-1", "x86_64", ""), records[0])
	assert.Equal(t, "noarch", records[1].Architecture)
}

func TestParseTable_WingetFixedWidth(t *testing.T) {
	raw := "Name                Id                      Version  Source\n" +
		"-------------------------------------------------------------\n" +
		"Mozilla Firefox     Mozilla.Firefox         120.0.1  winget\n" +
		"Firefox Nightly     Mozilla.Firefox.Nightly 122.0a1  winget\n"

	records := ParseTable(raw, WingetTable)
	require.Len(t, records, 2)
	assert.Equal(t, core.NewRecord("Mozilla.Firefox", "120.0.1", "", "Mozilla Firefox"), records[0])
	assert.Equal(t, "Mozilla.Firefox.Nightly", records[1].Name)
}

func TestParseTable_NoRule(t *testing.T) {
	assert.Empty(t, ParseTable("No package found matching input criteria.\n", WingetTable))
}

func TestParseTable_Snap(t *testing.T) {
	raw := `Name     Version   Publisher     Notes  Summary
vlc      3.0.20-1  videolan✓     -      The ultimate media player
mpv      0.37.0    casept        -      a free, open source, and cross-platform media player
`
	records := ParseTable(raw, SnapTable)
	require.Len(t, records, 2)
	assert.Equal(t, core.NewRecord("vlc", "3.0.20-1", "", "The ultimate media player"), records[0])
}

func TestParseTable_FlatpakTabs(t *testing.T) {
	raw := "org.videolan.VLC\t3.0.20\tVLC media player\nNo matches found\n"

	records := ParseTable(raw, FlatpakTable)
	require.Len(t, records, 1)
	assert.Equal(t, core.NewRecord("org.videolan.VLC", "3.0.20", "", "VLC media player"), records[0])
}

func TestParseJSON_Brew(t *testing.T) {
	raw := `{
  "formulae": [{"name": "wget", "desc": "Internet file retriever", "versions": {"stable": "1.24.5"}}],
  "casks": [{"token": "firefox", "name": ["Mozilla Firefox"], "version": "120.0.1", "desc": "Web browser"}]
}`
	records := ParseJSON(raw, BrewJSON)
	require.Len(t, records, 2)
	assert.Equal(t, core.NewRecord("wget", "1.24.5", "", "Internet file retriever"), records[0])
	assert.Equal(t, core.NewRecord("firefox", "120.0.1", "", "Web browser"), records[1])
}

func TestParseJSON_TopLevelArray(t *testing.T) {
	raw := `[{"name": "requests", "version": "2.31.0", "latest_version": "2.32.3"}, {"version": "1"}, 7]`

	records := ParseJSON(raw, PipOutdatedJSON)
	require.Len(t, records, 1)
	assert.Equal(t, "2.32.3", records[0].Version)
}

func TestParseJSON_Garbage(t *testing.T) {
	assert.Empty(t, ParseJSON("<html>rate limited</html>", GitHubSearchJSON))
	assert.Empty(t, ParseJSON(`{"message": "API rate limit exceeded"}`, GitHubSearchJSON))
}

func TestDecodeObject(t *testing.T) {
	m := DecodeObject([]byte(`{"full_name": "cli/cli", "stargazers_count": 37000}`))
	assert.Equal(t, "cli/cli", m.String("full_name"))
	assert.Equal(t, "37000", m.String("stargazers_count"))

	assert.Empty(t, DecodeObject([]byte(`[1,2]`)))
	assert.Empty(t, DecodeObject([]byte(`null`)))
}

func TestParseXMLRPC(t *testing.T) {
	raw := `<?xml version='1.0'?>
<methodResponse>
<params><param><value><array><data>
<value><struct>
<member><name>name</name><value><string>requests</string></value></member>
<member><name>version</name><value><string>2.32.3</string></value></member>
<member><name>summary</name><value><string>Python HTTP for Humans.</string></value></member>
<member><name>_pypi_ordering</name><value><int>0</int></value></member>
</struct></value>
<value><struct>
<member><name>name</name><value>requests-mock</value></member>
</struct></value>
</data></array></value></param></params>
</methodResponse>`

	records := ParseXMLRPC(raw)
	require.Len(t, records, 2)
	assert.Equal(t, core.NewRecord("requests", "2.32.3", "", "Python HTTP for Humans."), records[0])
	assert.Equal(t, core.UnknownRecord("requests-mock"), records[1])
}

func TestParseXMLRPC_Fault(t *testing.T) {
	raw := `<?xml version='1.0'?>
<methodResponse><fault><value><struct>
<member><name>faultCode</name><value><int>-32500</int></value></member>
<member><name>faultString</name><value><string>RuntimeError: PyPI no longer supports 'pip search'</string></value></member>
</struct></value></fault></methodResponse>`

	assert.Empty(t, ParseXMLRPC(raw))
	assert.Empty(t, ParseXMLRPC("not xml"))
}

func TestParseRepoListing(t *testing.T) {
	raw := `extra/vim 9.1.0-1 [installed]
    Vi Improved, a highly configurable text editor
aur/vim-git 9.1.r0-1 (+42 1.23)
    Vi Improved, git version
core/orphan 1.0-1
:: warning line
`
	records := ParseRepoListing(raw)
	require.Len(t, records, 3)
	assert.Equal(t, core.NewRecord("vim", "9.1.0-1", "", "Vi Improved, a highly configurable text editor"), records[0])
	assert.Equal(t, "vim-git", records[1].Name)
	assert.Equal(t, core.NewRecord("orphan", "1.0-1", "", ""), records[2])
}

func TestParseDashed(t *testing.T) {
	raw := "Sorting... Done\nvim - Vi IMproved - enhanced vi editor\nvim-tiny - Vi IMproved - compact\n"

	records := ParseDashed(raw)
	require.Len(t, records, 2)
	assert.Equal(t, core.NewRecord("vim", "", "", "Vi IMproved - enhanced vi editor"), records[0])
}

func TestParseAPK(t *testing.T) {
	raw := "vim-9.0.2073-r0 - Improved vi-style text editor\nlibxml2-utils-2.11.6-r0 - XML utilities\nodd\n"

	records := ParseAPK(raw)
	require.Len(t, records, 3)
	assert.Equal(t, core.NewRecord("vim", "9.0.2073-r0", "", "Improved vi-style text editor"), records[0])
	assert.Equal(t, "libxml2-utils", records[1].Name)
	assert.Equal(t, core.UnknownRecord("odd"), records[2])
}

func TestParseNames(t *testing.T) {
	raw := "==> Formulae\nwget\nwget2\n\n==> Casks\nwgetcloud\nIf you meant \"wget\" precisely:\n"

	records := ParseNames(raw)
	require.Len(t, records, 3)
	assert.Equal(t, core.UnknownRecord("wget"), records[0])
}

func TestParseNames_LongLineDoesNotHideRest(t *testing.T) {
	raw := strings.Repeat("noise ", 400_000) + "\r\nwget\r\ncurl"

	records := ParseNames(raw)
	require.Len(t, records, 2)
	assert.Equal(t, core.UnknownRecord("wget"), records[0])
	assert.Equal(t, core.UnknownRecord("curl"), records[1])
}

func TestScanLines(t *testing.T) {
	assert.Nil(t, scanLines(""))
	assert.Equal(t, []string{""}, scanLines("\n"))
	assert.Equal(t, []string{"a", "", "b"}, scanLines("a\r\n\nb\n"))
}

// Every parser fills every field, whatever it is fed.
func TestSentinelCompleteness(t *testing.T) {
	inputs := []string{
		"",
		"\n\n\n",
		"garbage without structure",
		"a|b",
		"Name: x\n",
		"extra/x 1\n",
		"x - \n",
		`[{"name": "x"}]`,
		"<methodResponse><params><param><value><array><data><value><struct><member><name>name</name><value>x</value></member></struct></value></data></array></value></param></params></methodResponse>",
		"----\n   |   |\n",
	}

	search := map[string]SearchFunc{
		"pipe":    ParsePipe,
		"blocks":  func(raw string) []core.PackageRecord { return ParseBlocks(raw, PacmanFields) },
		"zypper":  func(raw string) []core.PackageRecord { return ParseTable(raw, ZypperTable) },
		"winget":  func(raw string) []core.PackageRecord { return ParseTable(raw, WingetTable) },
		"snap":    func(raw string) []core.PackageRecord { return ParseTable(raw, SnapTable) },
		"json":    func(raw string) []core.PackageRecord { return ParseJSON(raw, PipOutdatedJSON) },
		"xmlrpc":  ParseXMLRPC,
		"listing": ParseRepoListing,
		"dashed":  ParseDashed,
		"apk":     ParseAPK,
		"names":   ParseNames,
	}

	for name, fn := range search {
		for _, in := range inputs {
			records := fn(in)
			assert.NotNil(t, records, "%s(%q)", name, in)
			for _, r := range records {
				assertComplete(t, r)
			}
		}
	}

	for _, in := range inputs {
		assertComplete(t, ParseBlock(in, "x", DebianFields))
		assertComplete(t, ParsePipeInfo(in, "x"))
	}
}

func assertComplete(t *testing.T, r core.PackageRecord) {
	t.Helper()
	for _, v := range []string{r.Name, r.Version, r.Architecture, r.Summary} {
		assert.NotEmpty(t, v)
	}
}
