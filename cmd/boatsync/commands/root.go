package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	configDir string
	logLevel  string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "boatsync",
	Short: "Search, inspect and edit a boat fleet",
	Long: `boatsync drives the boat search, map and edit fragments from the terminal.

Every command assembles one UI session: a search form with its results, the
selected boat's map, the boats-near-me map and the similar-boats cards, all
sharing a single event bus. With redis enabled, sessions in other processes
see each other's selections and saves.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
	FParseErrWhitelist: cobra.FParseErrWhitelist{},
}

// Execute runs the root command. Errors have already been printed.
func Execute() error {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	return rootCmd.Execute()
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", ".", "directory containing boatsync.cfg.json")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override the configured log level (debug, info, warn, error)")
}
