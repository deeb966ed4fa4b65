package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MichaelYagi/plex-sub-downloader/internal/status"
)

func newStatusCommand(verbose *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check configuration and connectivity without downloading anything",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*verbose)
			if err != nil {
				return fmt.Errorf("loading configuration: %w", err)
			}

			result := status.NewChecker(cfg).Run(cmd.Context())
			fmt.Print(result.Render())

			if !result.OK() {
				return errors.New("status check found issues")
			}
			return nil
		},
	}
}
