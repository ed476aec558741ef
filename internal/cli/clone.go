package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arc-language/manafest/pkg/backend"
	"github.com/arc-language/manafest/pkg/orchestrator"
)

var (
	cloneURL       string
	cloneDepth     int
	cloneBranch    string
	cloneOut       string
	cloneGitLab    bool
	cloneBitbucket bool
)

var cloneCmd = &cobra.Command{
	Use:   "clone [owner/repo]",
	Short: "Clone a repository without recording it",
	Long: `Clone a repository from GitHub (default), GitLab or Bitbucket, or any git URL.

Examples:
  manafest clone cli/cli
  manafest clone gitlab-org/cli --gitlab --depth 1
  manafest clone --url https://git.sr.ht/~sircmpwn/hare --out hare`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := orchestrator.CloneRequest{
			URL:    cloneURL,
			Dir:    cloneOut,
			Branch: cloneBranch,
			Depth:  cloneDepth,
			Host:   backend.GitHub,
		}
		if len(args) == 1 {
			req.Repo = args[0]
		}
		switch {
		case cloneGitLab:
			req.Host = backend.GitLab
		case cloneBitbucket:
			req.Host = backend.Bitbucket
		}
		if req.Repo == "" && req.URL == "" {
			return fmt.Errorf("clone needs owner/repo or --url")
		}

		m, err := newManager(cmd)
		if err != nil {
			return err
		}
		dir, err := m.Clone(context.Background(), req)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s Cloned into %s\n", successStyle.Render("✓"), dir)
		return nil
	},
}

func init() {
	cloneCmd.Flags().StringVar(&cloneURL, "url", "", "git URL to clone")
	cloneCmd.Flags().IntVar(&cloneDepth, "depth", 0, "shallow clone with this many commits")
	cloneCmd.Flags().StringVar(&cloneBranch, "branch", "", "branch to check out")
	cloneCmd.Flags().StringVarP(&cloneOut, "out", "o", "", "destination directory")
	cloneCmd.Flags().BoolVar(&cloneGitLab, "gitlab", false, "clone from GitLab")
	cloneCmd.Flags().BoolVar(&cloneBitbucket, "bitbucket", false, "clone from Bitbucket")
}
