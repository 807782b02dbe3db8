package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/ocr-scanner/backend/internal/controller"
	"github.com/ocr-scanner/backend/internal/intake"
)

const shellHelp = `Commands:
  open <path>   select an image or PDF
  scan          extract text from the selected file
  wait          wait for the running scan to finish
  copy          copy the result to the clipboard
  download      save the result as a .txt file
  retry         go back to the preview after an error
  reset         start over with a new file
  status        show the current panel
  help          show this help
  quit          exit`

var shellOutDir string

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Interactive scanner session",
	Long:  "Open files, scan them and act on the results one command at a time.\n\n" + shellHelp,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(appCfg, cmd.OutOrStdout(), logger, appOptions{
			downloadDir: shellOutDir,
			animate:     !noColor,
		})
		if err != nil {
			return err
		}
		defer a.close()

		fmt.Fprintf(a.out, "Downloads are saved to %s. Type help for commands.\n", a.saver.Dir())
		return newShell(a).run(cmd.Context(), cmd.InOrStdin())
	},
}

func init() {
	shellCmd.Flags().StringVarP(&shellOutDir, "out", "o", "", "directory for downloads (default from config)")
	rootCmd.AddCommand(shellCmd)
}

// shell reads commands line by line. Scans run in the background so reset
// can interrupt them. wait only blocks on scans, never on the startup health
// check.
type shell struct {
	app    *app
	health sync.WaitGroup
	scans  sync.WaitGroup
}

func newShell(a *app) *shell {
	return &shell{app: a}
}

func (s *shell) run(ctx context.Context, in io.Reader) error {
	s.health.Add(1)
	go func() {
		defer s.health.Done()
		hctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		s.app.ctrl.CheckHealth(hctx)
	}()

	lines := make(chan string)
	done := make(chan struct{})
	defer close(done)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-done:
				return
			}
		}
	}()

	defer s.health.Wait()
	defer s.scans.Wait()
	for {
		s.prompt()
		select {
		case <-ctx.Done():
			s.app.ctrl.Reset()
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if quit := s.exec(ctx, line); quit {
				s.app.ctrl.Reset()
				return nil
			}
		}
	}
}

func (s *shell) prompt() {
	fmt.Fprint(s.app.out, "> ")
}

// exec runs one command line and reports whether the shell should exit.
func (s *shell) exec(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	name, arg := strings.ToLower(fields[0]), strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), fields[0]))
	ctrl := s.app.ctrl

	switch name {
	case "open":
		if arg == "" {
			fmt.Fprintln(s.app.out, "usage: open <path>")
			return false
		}
		ctrl.OpenPath(arg)
	case "scan":
		if ctrl.Scanning() {
			return false
		}
		if ctrl.SelectedFile() == nil {
			ctrl.Scan(ctx)
			return false
		}
		s.scans.Add(1)
		go func() {
			defer s.scans.Done()
			ctrl.Scan(ctx)
		}()
	case "wait":
		s.scans.Wait()
	case "copy":
		if err := ctrl.Copy(); errors.Is(err, controller.ErrNoResult) {
			fmt.Fprintln(s.app.out, "nothing to copy yet")
		}
	case "download":
		path, err := ctrl.Download()
		switch {
		case errors.Is(err, controller.ErrNoResult):
			fmt.Fprintln(s.app.out, "nothing to download yet")
		case err == nil:
			fmt.Fprintln(s.app.out, path)
		}
	case "retry":
		if err := ctrl.Retry(); err != nil {
			fmt.Fprintln(s.app.out, "nothing to retry")
		}
	case "reset", "new":
		ctrl.Reset()
	case "status":
		s.status()
	case "help", "?":
		fmt.Fprintln(s.app.out, shellHelp)
	case "quit", "exit", "q":
		return true
	default:
		fmt.Fprintf(s.app.out, "unknown command %q, type help\n", name)
	}
	return false
}

func (s *shell) status() {
	v := s.app.ctrl.View()
	fmt.Fprintf(s.app.out, "panel: %s\n", v.Panel)
	if v.FileName != "" {
		fmt.Fprintf(s.app.out, "file: %s (%s, %s)\n", v.FileName, v.MediaType, intake.HumanSize(v.FileSize))
	}
}
