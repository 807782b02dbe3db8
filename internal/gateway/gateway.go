// Package gateway validates OCR uploads on the server side and relays them
// to the configured OCR engine.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/ocr-scanner/backend/internal/history"
	"github.com/ocr-scanner/backend/internal/intake"
	"github.com/ocr-scanner/backend/internal/models"
	"github.com/ocr-scanner/backend/internal/ocrclient"
	"github.com/ocr-scanner/backend/internal/storage"
	"github.com/rs/zerolog"
)

const (
	MsgNoFile         = "No file provided"
	MsgNoSelection    = "No file selected"
	MsgTypeNotAllowed = "File type not allowed. Please upload an image or PDF file."
	MsgNoText         = "No text could be extracted from the file."
)

// DefaultExtensions is the server-side allow-list when none is configured.
var DefaultExtensions = []string{"png", "jpg", "jpeg", "gif", "bmp", "tiff", "webp", "pdf"}

// RequestError is a client mistake; the API answers it with 400.
type RequestError struct {
	Message string
}

func (e *RequestError) Error() string { return e.Message }

// EngineError is an engine failure; the API answers it with 500.
type EngineError struct {
	Err error
}

func (e *EngineError) Error() string {
	return "OCR extraction failed: " + engineMessage(e.Err)
}

func (e *EngineError) Unwrap() error { return e.Err }

// Engine recognizes text in a staged file.
type Engine interface {
	Recognize(ctx context.Context, name, mediaType, path string) (string, error)
}

// Result is a successful recognition.
type Result struct {
	Text     string
	Filename string
}

// Gateway ties staging, relay and history together.
type Gateway struct {
	store   storage.Store
	engine  Engine
	history history.Recorder
	allowed map[string]struct{}
	log     zerolog.Logger
}

// Config holds the collaborators of a Gateway.
type Config struct {
	Store      storage.Store
	Engine     Engine
	History    history.Recorder
	Extensions []string
	Logger     zerolog.Logger
}

// New creates a Gateway. A nil History discards records.
func New(cfg Config) (*Gateway, error) {
	if cfg.Store == nil || cfg.Engine == nil {
		return nil, errors.New("gateway needs a store and an engine")
	}
	if cfg.History == nil {
		cfg.History = history.Discard{}
	}
	exts := cfg.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	allowed := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		allowed[strings.ToLower(strings.TrimPrefix(e, "."))] = struct{}{}
	}

	return &Gateway{
		store:   cfg.Store,
		engine:  cfg.Engine,
		history: cfg.History,
		allowed: allowed,
		log:     cfg.Logger.With().Str("component", "gateway").Logger(),
	}, nil
}

// Allowed reports whether name carries an allowed extension.
func (g *Gateway) Allowed(name string) bool {
	i := strings.LastIndex(name, ".")
	if i < 0 {
		return false
	}
	_, ok := g.allowed[strings.ToLower(name[i+1:])]
	return ok
}

// Reject records a request that never reached staging, e.g. a missing form field.
func (g *Gateway) Reject(ctx context.Context, name, message string) *RequestError {
	g.record(ctx, &models.ScanRecord{FileName: name, Status: models.ScanStatusRejected, Error: message}, time.Now())
	return &RequestError{Message: message}
}

// Process validates, stages and relays one upload. The staged copy is removed
// before Process returns, whatever the outcome. Errors are *RequestError or
// *EngineError.
func (g *Gateway) Process(ctx context.Context, name, mediaType string, r io.Reader) (*Result, error) {
	start := time.Now()
	rec := &models.ScanRecord{FileName: name, MediaType: mediaType}

	reject := func(msg string) error {
		rec.Status = models.ScanStatusRejected
		rec.Error = msg
		g.record(ctx, rec, start)
		return &RequestError{Message: msg}
	}

	if name == "" {
		return nil, reject(MsgNoSelection)
	}
	if !g.Allowed(name) {
		return nil, reject(MsgTypeNotAllowed)
	}

	safe := storedName(name)
	rec.FileName = safe

	info, err := g.store.Save(safe, mediaType, r)
	if errors.Is(err, storage.ErrTooLarge) {
		return nil, reject(intake.MsgTooLarge)
	}
	if err != nil {
		rec.Status = models.ScanStatusFailed
		rec.Error = err.Error()
		g.record(ctx, rec, start)
		return nil, &EngineError{Err: err}
	}
	rec.Size = info.Size
	defer func() {
		if err := g.store.Delete(info.ID); err != nil {
			g.log.Warn().Err(err).Str("id", info.ID).Msg("failed to remove staged upload")
		}
	}()

	path, err := g.store.GetFilePath(info.ID)
	if err != nil {
		return nil, &EngineError{Err: err}
	}

	g.log.Info().Str("file", safe).Int64("size", info.Size).Msg("relaying upload")

	text, err := g.engine.Recognize(ctx, safe, mediaType, path)
	if err != nil {
		rec.Status = models.ScanStatusFailed
		rec.Error = engineMessage(err)
		g.record(ctx, rec, start)
		g.log.Error().Err(err).Str("file", safe).Msg("ocr engine failed")
		return nil, &EngineError{Err: err}
	}

	if strings.TrimSpace(text) == "" {
		text = MsgNoText
	}
	rec.Status = models.ScanStatusSuccess
	rec.TextLength = len(text)
	g.record(ctx, rec, start)

	return &Result{Text: text, Filename: safe}, nil
}

// Recent proxies the history recorder.
func (g *Gateway) Recent(ctx context.Context, limit int) ([]models.ScanRecord, error) {
	return g.history.Recent(ctx, limit)
}

// Stats returns the number of recorded requests per status.
func (g *Gateway) Stats(ctx context.Context) (map[models.ScanStatus]int, error) {
	return g.history.Counts(ctx)
}

func (g *Gateway) record(ctx context.Context, rec *models.ScanRecord, start time.Time) {
	rec.DurationMs = time.Since(start).Milliseconds()
	// History must not outlive a cancelled request, nor fail it.
	if err := g.history.Record(context.WithoutCancel(ctx), rec); err != nil {
		g.log.Warn().Err(err).Msg("failed to record scan")
	}
}

func engineMessage(err error) string {
	var se *ocrclient.ServiceError
	if errors.As(err, &se) {
		return se.Message
	}
	return err.Error()
}

// storedName is SecureFilename with the extension of name kept. A base name
// that sanitizes away entirely becomes "upload".
func storedName(name string) string {
	ext := strings.ToLower(name[strings.LastIndex(name, ".")+1:])
	safe := SecureFilename(name)
	if strings.HasSuffix(strings.ToLower(safe), "."+ext) && len(safe) > len(ext)+1 {
		return safe
	}
	return "upload." + ext
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// SecureFilename reduces name to a plain ASCII base name that is safe to
// store on disk. It may return an empty string.
func SecureFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base("/" + name)
	name = strings.Join(strings.Fields(name), "_")
	name = unsafeChars.ReplaceAllString(name, "")
	name = strings.Trim(name, "._")
	return name
}

// RelayEngine forwards staged files to an external OCR service that speaks
// the same /api/ocr protocol as this server.
type RelayEngine struct {
	client *ocrclient.Client
}

// NewRelayEngine creates an engine relaying to baseURL.
func NewRelayEngine(baseURL string, timeout time.Duration) *RelayEngine {
	return &RelayEngine{client: ocrclient.NewClient(baseURL, timeout)}
}

// Recognize reads the staged file and uploads it to the engine.
func (e *RelayEngine) Recognize(ctx context.Context, name, mediaType, path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading staged file: %w", err)
	}
	if mediaType == "" {
		mediaType = intake.DeclaredType(name)
	}
	if mediaType == "" {
		mediaType = "application/octet-stream"
	}
	return e.client.Recognize(ctx, &models.SelectedFile{
		Name:      name,
		MediaType: mediaType,
		Size:      int64(len(content)),
		Content:   content,
	})
}
