package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arc-language/manafest/pkg/orchestrator"
)

var infoSel *selection

var infoCmd = &cobra.Command{
	Use:   "info [package]",
	Short: "Show information about a package",
	Long: `Display what manafest recorded when it installed the package. Packages it
did not install are looked up on every backend, or only on the chosen ones.`,
	Args: cobra.ExactArgs(1),
	RunE: runInfo,
}

func init() {
	infoSel = newSelection(infoCmd, true)
}

func runInfo(cmd *cobra.Command, args []string) error {
	m, err := newManager(cmd)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	report, err := m.Info(context.Background(), args[0], infoSel.ids(m.All())...)
	if err != nil {
		return err
	}

	if report.Entry != nil {
		fmt.Fprintln(out, renderMetadata(report.Package, report.Entry.Info))
		fmt.Fprintf(out, "%s installed through %s at %s\n", statusIcon(orchestrator.StatusOK),
			report.Entry.Source, report.Entry.InstalledAt)
	}

	for _, o := range report.Outcomes {
		fmt.Fprintln(out, renderOutcomeHeader(o))
		if o.Status == orchestrator.StatusOK {
			fmt.Fprintln(out, renderMetadata(report.Package, o.Info))
		}
	}
	return nil
}
