package cli

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/arc-language/manafest"
	"github.com/arc-language/manafest/pkg/core"
)

const version = "0.3.0"

var (
	cfgFile      string
	registryPath string
	verbose      bool
	assumeYes    bool
	force        bool
	sequential   bool
	config       *core.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "manafest",
	Short: "One command line for every package manager",
	Long: `manafest - one command line for every package manager

Search, install and remove packages through the system package manager,
the AUR, Flatpak, Snap, PyPI or straight from GitHub, GitLab and Bitbucket.
Everything installed through manafest is recorded in its registry so it can
be listed and removed later without remembering where it came from.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		initConfig()

		if verbose || config.Debug {
			logrus.SetLevel(logrus.DebugLevel)
		} else {
			logrus.SetLevel(logrus.InfoLevel)
		}
	},
}

// Execute executes the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/manafest/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&registryPath, "registry", "", "registry file (default is registry.json next to the executable)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVarP(&assumeYes, "yes", "y", false, "answer yes to every confirmation")
	rootCmd.PersistentFlags().BoolVar(&force, "force", false, "use backends even when out of scope or missing prerequisites")
	rootCmd.PersistentFlags().BoolVar(&sequential, "sequential", false, "query backends one at a time")

	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(psCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(upgradeCmd)
	rootCmd.AddCommand(cloneCmd)
	rootCmd.AddCommand(backendsCmd)
	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	var err error
	config, err = core.LoadConfig(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		config = core.DefaultConfig()
	}

	if registryPath != "" {
		config.RegistryPath = registryPath
	}
}

func newManager(cmd *cobra.Command) (*manafest.Manager, error) {
	if config == nil {
		initConfig()
	}
	return manafest.NewManager(config, manafest.Options{
		Logger:     logrus.StandardLogger(),
		Confirmer:  &promptConfirmer{out: cmd.OutOrStdout(), yes: assumeYes},
		Force:      force,
		Sequential: sequential,
	})
}
