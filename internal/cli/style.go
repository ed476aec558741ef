package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/arc-language/manafest/pkg/core"
	"github.com/arc-language/manafest/pkg/orchestrator"
)

var (
	colorAccent  = lipgloss.Color("#5FAFD7")
	colorSuccess = lipgloss.Color("#5FD787")
	colorWarning = lipgloss.Color("#F4D03F")
	colorError   = lipgloss.Color("#E74C3C")
	colorMuted   = lipgloss.Color("#6C7A89")
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)
	successStyle = lipgloss.NewStyle().Foreground(colorSuccess)
	warningStyle = lipgloss.NewStyle().Foreground(colorWarning)
	errorStyle   = lipgloss.NewStyle().Foreground(colorError)
	keyStyle     = lipgloss.NewStyle().Bold(true).Width(10)
	panelStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorAccent).
			Padding(0, 1)
)

func statusIcon(s orchestrator.Status) string {
	switch s {
	case orchestrator.StatusOK:
		return successStyle.Render("✓")
	case orchestrator.StatusFailed:
		return errorStyle.Render("✗")
	case orchestrator.StatusCancelled:
		return warningStyle.Render("⚠")
	}
	return mutedStyle.Render("○")
}

func statusText(s orchestrator.Status) string {
	switch s {
	case orchestrator.StatusSkippedUnavailable:
		return "skipped: prerequisite missing"
	case orchestrator.StatusSkippedScope:
		return "skipped: not applicable to this system"
	case orchestrator.StatusNoCapability:
		return "not supported by this backend"
	case orchestrator.StatusNotFound:
		return "not found"
	}
	return string(s)
}

// renderRecords lays search results out as a table
func renderRecords(records []core.PackageRecord) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(mutedStyle).
		Headers("NAME", "VERSION", "ARCH", "SUMMARY")
	for _, r := range records {
		t.Row(r.Name, r.Version, r.Architecture, truncate(r.Summary, 60))
	}
	return t.String()
}

// renderMetadata prints name/version/arch/summary first, then any other keys sorted
func renderMetadata(title string, md core.Metadata) string {
	rec := md.Record(title)
	lines := []string{
		titleStyle.Render(rec.Name),
		keyStyle.Render("Version") + rec.Version,
		keyStyle.Render("Arch") + rec.Architecture,
		keyStyle.Render("Summary") + rec.Summary,
	}

	known := map[string]bool{"name": true, "version": true, "arch": true, "summary": true, "full_name": true, "description": true}
	var extra []string
	for k := range md {
		if !known[k] {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	for _, k := range extra {
		lines = append(lines, keyStyle.Render(capitalize(k))+fmt.Sprint(md[k]))
	}
	return panelStyle.Render(strings.Join(lines, "\n"))
}

func renderPreview(p orchestrator.Preview) string {
	lines := []string{
		titleStyle.Render(fmt.Sprintf("%s %s", verb(p), p.Package)),
		keyStyle.Render("Backend") + p.Backend,
		keyStyle.Render("Name") + p.Record.Name,
		keyStyle.Render("Version") + p.Record.Version,
		keyStyle.Render("Arch") + p.Record.Architecture,
		keyStyle.Render("Summary") + p.Record.Summary,
	}
	if len(p.Argv) > 0 {
		lines = append(lines, keyStyle.Render("Runs")+mutedStyle.Render(strings.Join(p.Argv, " ")))
	}
	return panelStyle.Render(strings.Join(lines, "\n"))
}

func renderOutcomeHeader(o orchestrator.Outcome) string {
	line := fmt.Sprintf("%s %s", statusIcon(o.Status), titleStyle.Render(o.Backend))
	if o.Status != orchestrator.StatusOK {
		line += " " + mutedStyle.Render(statusText(o.Status))
	}
	return line
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ReplaceAll(s[1:], "_", " ")
}
