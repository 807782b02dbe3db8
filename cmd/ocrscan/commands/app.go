package commands

import (
	"io"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ocr-scanner/backend/internal/clip"
	"github.com/ocr-scanner/backend/internal/config"
	"github.com/ocr-scanner/backend/internal/controller"
	"github.com/ocr-scanner/backend/internal/export"
	"github.com/ocr-scanner/backend/internal/notify"
	"github.com/ocr-scanner/backend/internal/ocrclient"
	"github.com/ocr-scanner/backend/internal/terminal"
)

// lockedWriter serializes writes from the renderer, timers and the prompt.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

// app wires a controller to the terminal.
type app struct {
	ctrl     *controller.Controller
	client   *ocrclient.Client
	renderer *terminal.Renderer
	notifier *notify.Notifier
	saver    *export.Saver
	out      io.Writer
}

type appOptions struct {
	downloadDir string
	animate     bool
	clipboard   controller.Clipboard
}

func newApp(cfg *config.AppConfig, out io.Writer, log zerolog.Logger, opts appOptions) (*app, error) {
	out = &lockedWriter{w: out}

	dir := opts.downloadDir
	if dir == "" {
		dir = cfg.Client.DownloadDirectory
	}
	saver, err := export.NewSaver(dir)
	if err != nil {
		return nil, err
	}

	cb := opts.clipboard
	if cb == nil {
		cb = clip.System{}
	}

	renderer := terminal.NewRenderer(out, opts.animate)
	notifier := notify.New(cfg.NotificationWindow(), renderer.Notify)
	client := ocrclient.NewClient(cfg.Client.ServerURL, cfg.ClientTimeout())

	ctrl, err := controller.New(controller.Deps{
		OCR:       client,
		Health:    client,
		Clipboard: cb,
		Saver:     saver,
		Renderer:  renderer,
		Notifier:  notifier,
		Logger:    log,
	})
	if err != nil {
		return nil, err
	}

	return &app{
		ctrl:     ctrl,
		client:   client,
		renderer: renderer,
		notifier: notifier,
		saver:    saver,
		out:      out,
	}, nil
}

func (a *app) close() {
	a.notifier.Stop()
	a.renderer.Close()
}
