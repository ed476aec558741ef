package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/arc-language/manafest/pkg/procs"
)

var psLimit int

var psCmd = &cobra.Command{
	Use:   "ps [filter]",
	Short: "List running processes by CPU usage",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := procs.Options{Limit: psLimit}
		if len(args) == 1 {
			opts.Filter = args[0]
		}

		list, err := procs.List(context.Background(), opts)
		if err != nil {
			return fmt.Errorf("listing processes: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderProcesses(list))
		return nil
	},
}

func init() {
	psCmd.Flags().IntVarP(&psLimit, "limit", "n", 25, "show at most this many processes (0 for all)")
}

func renderProcesses(list []procs.Process) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(mutedStyle).
		Headers("PID", "NAME", "USER", "CPU%", "MEM%")
	for _, p := range list {
		t.Row(
			strconv.Itoa(int(p.PID)),
			truncate(p.Name, 32),
			p.User,
			strconv.FormatFloat(p.CPU, 'f', 1, 64),
			strconv.FormatFloat(float64(p.Memory), 'f', 1, 32),
		)
	}
	return t.String()
}
