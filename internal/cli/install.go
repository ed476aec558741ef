package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/arc-language/manafest/pkg/orchestrator"
)

var installSel, removeSel *selection

var installCmd = &cobra.Command{
	Use:   "install [package...]",
	Short: "Install one or more packages",
	Long: `Install packages through one backend: the system package manager unless
another is chosen. Local package files (.deb, .rpm, .pkg.tar.zst, .apk) are
installed with the system package manager.

Examples:
  manafest install ripgrep
  manafest install yay-bin --aur
  manafest install org.gimp.GIMP --flatpak
  manafest install cli/cli --github
  manafest install ./hello_2.10-3_amd64.deb`,
	Args: cobra.MinimumNArgs(1),
	RunE: runInstall,
}

var removeCmd = &cobra.Command{
	Use:     "remove [package...]",
	Aliases: []string{"uninstall"},
	Short:   "Remove one or more packages",
	Long: `Remove packages. A package installed through manafest is removed through
the backend that installed it; anything else is removed through the system
package manager if it reports the package as installed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRemove,
}

func init() {
	installSel = newSelection(installCmd, false)
	removeSel = newSelection(removeCmd, false)
}

func runInstall(cmd *cobra.Command, args []string) error {
	m, err := newManager(cmd)
	if err != nil {
		return err
	}
	return each(cmd.OutOrStdout(), args, func(ctx context.Context, pkg string) (*orchestrator.Report, error) {
		return m.Install(ctx, pkg, installSel.ids(m.All())...)
	})
}

func runRemove(cmd *cobra.Command, args []string) error {
	m, err := newManager(cmd)
	if err != nil {
		return err
	}
	return each(cmd.OutOrStdout(), args, func(ctx context.Context, pkg string) (*orchestrator.Report, error) {
		return m.Remove(ctx, pkg, removeSel.ids(m.All())...)
	})
}

// each runs op for every package, printing one line per report. A declined
// confirmation is not a failure.
func each(out io.Writer, pkgs []string, op func(context.Context, string) (*orchestrator.Report, error)) error {
	ctx := context.Background()

	failed := 0
	for _, pkg := range pkgs {
		report, err := op(ctx, pkg)
		if err != nil {
			return err
		}
		printReport(out, report)
		if report.Failed() {
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d packages failed", failed, len(pkgs))
	}
	return nil
}

func printReport(out io.Writer, r *orchestrator.Report) {
	done := map[string]string{"install": "Installed", "remove": "Removed"}[string(r.Action)]

	switch r.Status {
	case orchestrator.StatusOK:
		fmt.Fprintf(out, "%s %s %s %s\n", statusIcon(r.Status), done, r.Package, mutedStyle.Render("("+r.Backend+")"))
		if r.RegistryErr != nil {
			fmt.Fprintf(out, "%s registry not updated: %v\n", warningStyle.Render("⚠"), r.RegistryErr)
		}
	case orchestrator.StatusCancelled:
		fmt.Fprintf(out, "%s Cancelled %s\n", statusIcon(r.Status), r.Package)
	default:
		fmt.Fprintf(out, "%s Failed to %s %s: %v\n", statusIcon(orchestrator.StatusFailed), r.Action, r.Package, r.Err)
	}
}
