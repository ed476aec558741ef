package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "manafest version %s\n", version)
		fmt.Fprintln(out, "One command line for every package manager")
		fmt.Fprintln(out, "https://github.com/arc-language/manafest")
	},
}

var backendsCmd = &cobra.Command{
	Use:   "backends",
	Short: "Show every backend and whether it can be used here",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newManager(cmd)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		fmt.Fprintf(out, "Platform: %s\n", m.Platform())
		for _, b := range m.Backends() {
			if b.Unusable != nil {
				fmt.Fprintf(out, "%s %-10s %s\n", mutedStyle.Render("○"), b.ID, mutedStyle.Render(b.Unusable.Error()))
				continue
			}
			fmt.Fprintf(out, "%s %-10s %s\n", successStyle.Render("✓"), b.ID, b.Capabilities)
		}
		return nil
	},
}
