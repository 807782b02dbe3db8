package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	scanCopy     bool
	scanDownload bool
	scanOutDir   string
)

var scanCmd = &cobra.Command{
	Use:   "scan <file>",
	Short: "Extract text from an image or PDF",
	Long: `Validate the file, send it to the scanner server and print the recognized text.
Accepted types: PNG, JPEG, GIF, BMP, TIFF, WEBP and PDF up to 16MB.`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	scanCmd.Flags().BoolVar(&scanCopy, "copy", false, "copy the result to the clipboard")
	scanCmd.Flags().BoolVar(&scanDownload, "download", false, "save the result as ocr-result-<ms>.txt")
	scanCmd.Flags().StringVarP(&scanOutDir, "out", "o", "", "directory for --download (default from config)")
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	a, err := newApp(appCfg, cmd.OutOrStdout(), logger, appOptions{
		downloadDir: scanOutDir,
		animate:     !noColor,
	})
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.ctrl.OpenPath(args[0]); err != nil {
		return err
	}
	if err := a.ctrl.Scan(cmd.Context()); err != nil {
		return err
	}

	if scanCopy {
		if err := a.ctrl.Copy(); err != nil {
			return fmt.Errorf("copy: %w", err)
		}
	}
	if scanDownload {
		if _, err := a.ctrl.Download(); err != nil {
			return fmt.Errorf("download: %w", err)
		}
	}
	return nil
}
