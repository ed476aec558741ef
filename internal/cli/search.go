package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/arc-language/manafest/pkg/orchestrator"
)

var searchSel, updateSel, upgradeSel *selection

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search for packages",
	Long: `Search one or more backends. Each backend's results are reported on
their own; a backend that is missing or fails does not affect the others.

Examples:
  manafest search ripgrep
  manafest search neovim --aur --flatpak
  manafest search requests --all`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newManager(cmd)
		if err != nil {
			return err
		}
		outcomes, err := m.Search(context.Background(), args[0], searchSel.ids(m.All())...)
		if err != nil {
			return err
		}
		printOutcomes(cmd.OutOrStdout(), outcomes, true)
		return nil
	},
}

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Refresh package indexes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newManager(cmd)
		if err != nil {
			return err
		}
		outcomes, err := m.Update(context.Background(), updateSel.ids(m.All())...)
		if err != nil {
			return err
		}
		printOutcomes(cmd.OutOrStdout(), outcomes, false)
		return nil
	},
}

var upgradeCmd = &cobra.Command{
	Use:   "upgrade",
	Short: "Upgrade installed packages",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newManager(cmd)
		if err != nil {
			return err
		}
		outcomes, err := m.Upgrade(context.Background(), upgradeSel.ids(m.All())...)
		if err != nil {
			return err
		}
		printOutcomes(cmd.OutOrStdout(), outcomes, false)
		return nil
	},
}

func init() {
	searchSel = newSelection(searchCmd, true)
	updateSel = newSelection(updateCmd, true)
	upgradeSel = newSelection(upgradeCmd, true)
}

func printOutcomes(out io.Writer, outcomes []orchestrator.Outcome, records bool) {
	for _, o := range outcomes {
		fmt.Fprintln(out, renderOutcomeHeader(o))
		switch {
		case o.Status == orchestrator.StatusFailed && o.Err != nil:
			fmt.Fprintln(out, mutedStyle.Render("  "+o.Err.Error()))
		case records && o.Status == orchestrator.StatusOK && len(o.Records) == 0:
			fmt.Fprintln(out, mutedStyle.Render("  no results"))
		case records && o.Status == orchestrator.StatusOK:
			fmt.Fprintln(out, renderRecords(o.Records))
		}
	}
}
