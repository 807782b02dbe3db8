package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ocr-scanner/backend/internal/config"
	"github.com/ocr-scanner/backend/internal/logging"
)

var (
	cfgFile   string
	serverURL string
	verbose   bool
	noColor   bool

	appCfg *config.AppConfig
	logger zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "ocrscan",
	Short: "Scan images and PDFs for text through an OCR scanner server",
	Long: `ocrscan is the terminal front end of the OCR scanner. It validates a file,
previews it, sends it to the server for text recognition and lets you copy or
download the result.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadOrDefault(cfgFile)
		if err != nil {
			return err
		}
		if serverURL != "" {
			cfg.Client.ServerURL = serverURL
		}
		level := cfg.Advanced.LogLevel
		if verbose {
			level = "debug"
		} else if cfgFile == "" {
			// Panels are the output; keep logs to problems unless configured.
			level = "warn"
		}
		if noColor {
			color.NoColor = true
		}
		appCfg = cfg
		logger = logging.New(logging.Config{
			Level:   level,
			Format:  "console",
			Output:  cmd.ErrOrStderr(),
			Service: "ocrscan",
		})
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", "", "scanner server URL (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

// Execute runs the root command.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
