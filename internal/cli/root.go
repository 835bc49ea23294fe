// Package cli implements the rostersync command line interface.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/meridianops/rostersync/internal/config"
	"github.com/meridianops/rostersync/internal/graph"
	"github.com/meridianops/rostersync/internal/logger"
)

var (
	// version is set by goreleaser ldflags.
	version = "dev"

	// verbose enables debug logging.
	verbose bool

	// configPath is the TOML configuration file.
	configPath string
)

// rootCmd is the base command.
var rootCmd = &cobra.Command{
	Use:   "rostersync",
	Short: "Sync a canonical contact roster into Microsoft 365 contact folders",
	Long: `Rostersync reconciles a per-user contact folder in a Microsoft 365
tenant against a single canonical CSV roster.

Each eligible user gets a designated contact folder (created on first
sync) whose contents are made to match the roster: missing contacts are
added, stale ones deleted, and changed ones updated through the Graph
$batch endpoint. The roster always wins.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string for the CLI.
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose debug output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "rostersync.toml", "path to the configuration file")

	rootCmd.PersistentPreRunE = func(_ *cobra.Command, _ []string) error {
		logger.SetVerbose(verbose)
		return nil
	}
}

// loadConfig reads the configuration named by --config.
func loadConfig() (*config.Config, error) {
	return config.Load(configPath)
}

// newClient builds a Graph client from the configuration.
func newClient(cfg *config.Config) *graph.Client {
	tokens := graph.NewTokenManager(cfg.TenantID, cfg.ClientID, cfg.ClientSecret)
	return graph.NewClient(tokens)
}
