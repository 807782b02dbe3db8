// Package controller implements the upload/scan state machine behind the scanner front end.
//
// A Controller owns the selected file and the single current panel. Every
// change is applied through the transition table and then drawn by one call
// to the Renderer, so exactly one panel is ever presented.
package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ocr-scanner/backend/internal/intake"
	"github.com/ocr-scanner/backend/internal/models"
	"github.com/ocr-scanner/backend/internal/ocrclient"
)

// User-facing notification texts.
const (
	MsgNoFile         = "Please select a file first"
	MsgScanBusy       = "Please wait for the current scan to finish"
	MsgReadFailed     = "Could not read the selected file"
	MsgExtracted      = "Text extracted successfully!"
	MsgCopied         = "Copied to clipboard!"
	MsgCopyFailed     = "Failed to copy"
	MsgDownloaded     = "Downloaded successfully!"
	MsgDownloadFailed = "Failed to download"
)

var (
	ErrNoFile            = errors.New("no file selected")
	ErrScanInFlight      = errors.New("a scan is already in progress")
	ErrInvalidTransition = errors.New("invalid panel transition")
	ErrNoResult          = errors.New("no OCR result to act on")
	ErrScanDiscarded     = errors.New("scan result discarded after reset")
	errScanAborted       = errors.New("scan aborted")
)

// Recognizer performs OCR on a file through the server.
type Recognizer interface {
	Recognize(ctx context.Context, file *models.SelectedFile) (string, error)
}

// HealthChecker reports the server status.
type HealthChecker interface {
	Health(ctx context.Context) (*models.HealthResponse, error)
}

// Clipboard receives copied result text.
type Clipboard interface {
	WriteText(text string) error
}

// Saver stores result text as a download and returns where it went.
type Saver interface {
	Save(text string) (string, error)
}

// Notifier shows transient notifications.
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

// Renderer draws a view. It is called with the controller lock held and must
// not call back into the Controller.
type Renderer interface {
	Render(v models.View)
}

// Deps are the collaborators of a Controller. OCR, Renderer and Notifier are required.
type Deps struct {
	OCR       Recognizer
	Health    HealthChecker
	Clipboard Clipboard
	Saver     Saver
	Renderer  Renderer
	Notifier  Notifier
	Logger    zerolog.Logger
}

// Controller is the upload/scan state machine.
type Controller struct {
	mu sync.Mutex

	panel     models.Panel
	file      *models.SelectedFile
	thumbnail string
	caption   string
	result    string
	errMsg    string

	// token identifies the in-flight scan; uuid.Nil when idle.
	token  uuid.UUID
	cancel context.CancelFunc

	deps Deps
	log  zerolog.Logger
}

// New creates a Controller on the Upload panel and renders it.
func New(deps Deps) (*Controller, error) {
	if deps.OCR == nil || deps.Renderer == nil || deps.Notifier == nil {
		return nil, fmt.Errorf("controller requires OCR, Renderer and Notifier")
	}
	c := &Controller{
		panel: models.PanelUpload,
		deps:  deps,
		log:   deps.Logger.With().Str("component", "controller").Logger(),
	}
	c.mu.Lock()
	c.renderLocked()
	c.mu.Unlock()
	return c, nil
}

// OpenPath selects a file from disk, as a file picker or drop would.
func (c *Controller) OpenPath(path string) error {
	file, err := intake.FromPath(path)
	if err != nil {
		return c.rejectSelection(err)
	}
	return c.accept(file)
}

// Offer selects in-memory content with a declared media type.
func (c *Controller) Offer(name, mediaType string, content []byte) error {
	file, err := intake.FromBytes(name, mediaType, content)
	if err != nil {
		return c.rejectSelection(err)
	}
	return c.accept(file)
}

func (c *Controller) rejectSelection(err error) error {
	var vErr *intake.ValidationError
	if errors.As(err, &vErr) {
		c.deps.Notifier.Error(vErr.Message)
		return err
	}
	c.log.Warn().Err(err).Msg("file selection failed")
	c.deps.Notifier.Error(MsgReadFailed)
	return err
}

func (c *Controller) accept(file *models.SelectedFile) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	next, err := Next(c.panel, EventSelect)
	if err != nil {
		c.deps.Notifier.Error(MsgScanBusy)
		return err
	}

	c.file = file
	c.thumbnail = intake.Thumbnail(file)
	c.caption = intake.Caption(file)
	c.result = ""
	c.errMsg = ""
	c.panel = next
	c.log.Debug().Str("file", file.Name).Str("type", file.MediaType).Int64("size", file.Size).Msg("file selected")
	c.renderLocked()
	return nil
}

// Scan sends the selected file for OCR and blocks until the attempt concludes.
// The Loading panel is shown before the request starts and always left afterwards.
// A second call while a scan is outstanding returns ErrScanInFlight and does nothing.
func (c *Controller) Scan(ctx context.Context) (err error) {
	c.mu.Lock()
	if c.file == nil {
		c.mu.Unlock()
		c.deps.Notifier.Error(MsgNoFile)
		return ErrNoFile
	}
	if c.token != uuid.Nil {
		c.mu.Unlock()
		return ErrScanInFlight
	}
	next, err := Next(c.panel, EventScan)
	if err != nil {
		c.mu.Unlock()
		return err
	}

	token := uuid.New()
	scanCtx, cancel := context.WithCancel(ctx)
	c.token = token
	c.cancel = cancel
	c.result = ""
	c.errMsg = ""
	c.panel = next
	file := c.file
	c.renderLocked()
	c.mu.Unlock()

	c.log.Info().Str("scan", token.String()).Str("file", file.Name).Msg("scan started")

	var text string
	recErr := errScanAborted
	defer func() {
		cancel()
		err = c.finish(token, text, recErr)
	}()

	text, recErr = c.deps.OCR.Recognize(scanCtx, file)
	return nil
}

// finish applies the outcome of the scan identified by token.
func (c *Controller) finish(token uuid.UUID, text string, recErr error) error {
	c.mu.Lock()
	if c.token != token {
		c.mu.Unlock()
		c.log.Debug().Str("scan", token.String()).Msg("stale scan result dropped")
		return ErrScanDiscarded
	}
	c.token = uuid.Nil
	c.cancel = nil

	if recErr != nil {
		c.errMsg = userMessage(recErr)
		c.panel, _ = Next(c.panel, EventFail)
		c.renderLocked()
		c.mu.Unlock()
		c.log.Warn().Err(recErr).Str("scan", token.String()).Msg("scan failed")
		return recErr
	}

	c.result = text
	c.panel, _ = Next(c.panel, EventSucceed)
	c.renderLocked()
	c.mu.Unlock()

	c.log.Info().Str("scan", token.String()).Int("chars", len(text)).Msg("scan complete")
	c.deps.Notifier.Success(MsgExtracted)
	return nil
}

func userMessage(err error) string {
	var svcErr *ocrclient.ServiceError
	if errors.As(err, &svcErr) && svcErr.Message != "" {
		return svcErr.Message
	}
	return ocrclient.FallbackMessage
}

// Copy puts the displayed result text on the clipboard.
func (c *Controller) Copy() (err error) {
	text, err := c.resultText()
	if err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("clipboard panic: %v", r)
		}
		if err != nil {
			c.log.Warn().Err(err).Msg("copy failed")
			c.deps.Notifier.Error(MsgCopyFailed)
			return
		}
		c.deps.Notifier.Success(MsgCopied)
	}()

	if c.deps.Clipboard == nil {
		return errors.New("no clipboard available")
	}
	return c.deps.Clipboard.WriteText(text)
}

// Download saves the displayed result text and returns the saved path.
func (c *Controller) Download() (string, error) {
	text, err := c.resultText()
	if err != nil {
		return "", err
	}
	if c.deps.Saver == nil {
		c.deps.Notifier.Error(MsgDownloadFailed)
		return "", errors.New("no download location configured")
	}

	path, err := c.deps.Saver.Save(text)
	if err != nil {
		c.log.Warn().Err(err).Msg("download failed")
		c.deps.Notifier.Error(MsgDownloadFailed)
		return "", err
	}
	c.log.Info().Str("path", path).Msg("result downloaded")
	c.deps.Notifier.Success(MsgDownloaded)
	return path, nil
}

func (c *Controller) resultText() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.panel != models.PanelResult {
		return "", ErrNoResult
	}
	return c.result, nil
}

// Reset clears the selection and returns to the Upload panel from any panel.
// An in-flight scan is cancelled and its late result ignored.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
	}
	c.token = uuid.Nil
	c.cancel = nil
	c.file = nil
	c.thumbnail = ""
	c.caption = ""
	c.result = ""
	c.errMsg = ""
	c.panel, _ = Next(c.panel, EventReset)
	c.renderLocked()
}

// Retry dismisses the Error panel and returns to Preview, keeping the selected file.
func (c *Controller) Retry() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	next, err := Next(c.panel, EventRetry)
	if err != nil {
		return err
	}
	c.errMsg = ""
	c.panel = next
	c.renderLocked()
	return nil
}

// CheckHealth asks the server for its status and logs it. It never changes
// panels or notifications.
func (c *Controller) CheckHealth(ctx context.Context) (*models.HealthResponse, error) {
	if c.deps.Health == nil {
		return nil, errors.New("no health checker configured")
	}
	h, err := c.deps.Health.Health(ctx)
	if err != nil {
		c.log.Error().Err(err).Msg("server connection failed")
		return nil, err
	}
	c.log.Info().Str("status", h.Status).Msg("server status")
	return h, nil
}

// View returns a snapshot of what is currently presented.
func (c *Controller) View() models.View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

// SelectedFile returns the held file, or nil.
func (c *Controller) SelectedFile() *models.SelectedFile {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.file
}

// Scanning reports whether a scan is outstanding.
func (c *Controller) Scanning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token != uuid.Nil
}

func (c *Controller) viewLocked() models.View {
	v := models.View{
		Panel:       c.panel,
		ScanEnabled: c.panel == models.PanelPreview && c.file != nil,
	}
	switch c.panel {
	case models.PanelPreview:
		v.Thumbnail = c.thumbnail
		v.Caption = c.caption
	case models.PanelResult:
		v.ResultText = c.result
	case models.PanelError:
		v.ErrorMessage = c.errMsg
	}
	if c.file != nil {
		v.FileName = c.file.Name
		v.MediaType = c.file.MediaType
		v.FileSize = c.file.Size
	}
	return v
}

func (c *Controller) renderLocked() {
	c.deps.Renderer.Render(c.viewLocked())
}
