package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ocr-scanner/backend/internal/ocrclient"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the scanner server is reachable",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()

		h, err := ocrclient.NewClient(appCfg.Client.ServerURL, 0).Health(ctx)
		if err != nil {
			return fmt.Errorf("server connection failed: %w", err)
		}

		out := cmd.OutOrStdout()
		color.New(color.FgGreen).Fprintf(out, "✓ %s\n", h.Status)
		if h.Message != "" {
			fmt.Fprintln(out, h.Message)
		}
		if h.Version != "" {
			fmt.Fprintf(out, "version %s\n", h.Version)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
