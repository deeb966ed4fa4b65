package main

import (
	"github.com/spf13/cobra"

	"github.com/MichaelYagi/plex-sub-downloader/internal/config"
)

func newRootCommand() *cobra.Command {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:           "plexsubdl",
		Short:         "Download missing subtitles for Plex media",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(newRunCommand(&verbose))
	rootCmd.AddCommand(newStatusCommand(&verbose))

	return rootCmd
}

// loadConfig reads configuration and applies logging setup. The verbose
// flag wins over the configured log level.
func loadConfig(verbose bool) (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	config.SetupLogging(level)
	return cfg, nil
}
