package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List packages installed through manafest",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newManager(cmd)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		items := m.List()
		if len(items) == 0 {
			fmt.Fprintln(out, "No packages installed through manafest")
			return nil
		}

		t := table.New().
			Border(lipgloss.NormalBorder()).
			BorderStyle(mutedStyle).
			Headers("NAME", "VERSION", "ARCH", "SOURCE", "INSTALLED")
		for _, it := range items {
			t.Row(it.Name, it.Record.Version, it.Record.Architecture, it.Source, it.InstalledAt)
		}
		fmt.Fprintln(out, t.String())
		fmt.Fprintln(out, mutedStyle.Render(fmt.Sprintf("%d packages, registry %s", len(items), m.Store().Path())))
		return nil
	},
}
