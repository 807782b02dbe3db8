package controller

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ocr-scanner/backend/internal/intake"
	"github.com/ocr-scanner/backend/internal/models"
	"github.com/ocr-scanner/backend/internal/ocrclient"
)

type fakeRenderer struct {
	mu    sync.Mutex
	views []models.View
}

func (r *fakeRenderer) Render(v models.View) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.views = append(r.views, v)
}

func (r *fakeRenderer) panels() []models.Panel {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Panel, len(r.views))
	for i, v := range r.views {
		out[i] = v.Panel
	}
	return out
}

type note struct {
	sev models.Severity
	msg string
}

type fakeNotifier struct {
	mu    sync.Mutex
	notes []note
}

func (n *fakeNotifier) Success(msg string) { n.add(models.SeveritySuccess, msg) }
func (n *fakeNotifier) Error(msg string)   { n.add(models.SeverityError, msg) }

func (n *fakeNotifier) add(sev models.Severity, msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notes = append(n.notes, note{sev, msg})
}

func (n *fakeNotifier) last() note {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.notes) == 0 {
		return note{}
	}
	return n.notes[len(n.notes)-1]
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.notes)
}

type fakeOCR struct {
	calls   atomic.Int32
	text    string
	err     error
	release chan struct{}
	started chan struct{}
}

func (f *fakeOCR) Recognize(ctx context.Context, file *models.SelectedFile) (string, error) {
	f.calls.Add(1)
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.text, f.err
}

type fakeClipboard struct {
	text  string
	err   error
	panic bool
}

func (c *fakeClipboard) WriteText(text string) error {
	if c.panic {
		panic("clipboard exploded")
	}
	c.text = text
	return c.err
}

type fakeSaver struct {
	text string
	err  error
}

func (s *fakeSaver) Save(text string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.text = text
	return "/tmp/ocr-result-1.txt", nil
}

type harness struct {
	ctrl     *Controller
	render   *fakeRenderer
	notifier *fakeNotifier
	clip     *fakeClipboard
	saver    *fakeSaver
}

func newHarness(t *testing.T, ocr Recognizer) *harness {
	t.Helper()
	h := &harness{
		render:   &fakeRenderer{},
		notifier: &fakeNotifier{},
		clip:     &fakeClipboard{},
		saver:    &fakeSaver{},
	}
	ctrl, err := New(Deps{
		OCR:       ocr,
		Clipboard: h.clip,
		Saver:     h.saver,
		Renderer:  h.render,
		Notifier:  h.notifier,
		Logger:    zerolog.Nop(),
	})
	require.NoError(t, err)
	h.ctrl = ctrl
	return h
}

func (h *harness) selectPNG(t *testing.T) {
	t.Helper()
	require.NoError(t, h.ctrl.Offer("page.png", "image/png", []byte("png-bytes")))
}

func ocrServer(t *testing.T, status int, body string) *ocrclient.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return ocrclient.NewClient(srv.URL, 5*time.Second)
}

func TestNew_RequiresCollaborators(t *testing.T) {
	_, err := New(Deps{})
	assert.Error(t, err)
}

func TestNew_StartsOnUpload(t *testing.T) {
	h := newHarness(t, &fakeOCR{})
	assert.Equal(t, models.PanelUpload, h.ctrl.View().Panel)
	assert.Equal(t, []models.Panel{models.PanelUpload}, h.render.panels())
}

func TestSelection_RejectsInvalidFiles(t *testing.T) {
	tests := []struct {
		name      string
		mediaType string
		size      int
		wantMsg   string
	}{
		{"disallowed type", "text/plain", 10, intake.MsgInvalidType},
		{"oversized image", "image/png", intake.MaxFileSize + 1, intake.MsgTooLarge},
		{"oversized pdf", "application/pdf", intake.MaxFileSize + 1, intake.MsgTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, &fakeOCR{})
			h.selectPNG(t)
			before := h.ctrl.View()

			err := h.ctrl.Offer("bad", tt.mediaType, make([]byte, tt.size))
			require.Error(t, err)

			assert.Equal(t, note{models.SeverityError, tt.wantMsg}, h.notifier.last())
			assert.Equal(t, before, h.ctrl.View(), "panel and selection unchanged")
			assert.Equal(t, "page.png", h.ctrl.SelectedFile().Name)
		})
	}
}

func TestSelection_FromUploadPanelKeepsPanel(t *testing.T) {
	h := newHarness(t, &fakeOCR{})
	err := h.ctrl.Offer("notes.txt", "text/plain", []byte("x"))
	require.Error(t, err)
	assert.Equal(t, models.PanelUpload, h.ctrl.View().Panel)
	assert.Nil(t, h.ctrl.SelectedFile())
}

func TestSelection_PreviewContent(t *testing.T) {
	h := newHarness(t, &fakeOCR{})

	h.selectPNG(t)
	v := h.ctrl.View()
	assert.Equal(t, models.PanelPreview, v.Panel)
	assert.Equal(t, intake.Thumbnail(h.ctrl.SelectedFile()), v.Thumbnail)
	assert.Contains(t, v.Thumbnail, "data:image/png;base64,")
	assert.True(t, v.ScanEnabled)

	require.NoError(t, h.ctrl.Offer("doc.pdf", "application/pdf", []byte("%PDF")))
	v = h.ctrl.View()
	assert.Equal(t, models.PanelPreview, v.Panel)
	assert.Equal(t, intake.PDFPlaceholder, v.Thumbnail)
	assert.Equal(t, "doc.pdf", v.FileName)
}

func TestOpenPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scan.jpg")
	require.NoError(t, os.WriteFile(path, []byte("jpeg"), 0644))

	h := newHarness(t, &fakeOCR{})
	require.NoError(t, h.ctrl.OpenPath(path))
	assert.Equal(t, "image/jpeg", h.ctrl.SelectedFile().MediaType)

	err := h.ctrl.OpenPath(filepath.Join(dir, "missing.png"))
	require.Error(t, err)
	assert.Equal(t, note{models.SeverityError, MsgReadFailed}, h.notifier.last())
	assert.Equal(t, "scan.jpg", h.ctrl.SelectedFile().Name)
}

func TestScan_WithoutFile(t *testing.T) {
	ocr := &fakeOCR{}
	h := newHarness(t, ocr)

	err := h.ctrl.Scan(context.Background())
	assert.ErrorIs(t, err, ErrNoFile)
	assert.Equal(t, int32(0), ocr.calls.Load())
	assert.Equal(t, note{models.SeverityError, MsgNoFile}, h.notifier.last())
	assert.Equal(t, models.PanelUpload, h.ctrl.View().Panel)
}

func TestScan_Success(t *testing.T) {
	h := newHarness(t, ocrServer(t, http.StatusOK, `{"success":true,"text":"Hello World"}`))
	h.selectPNG(t)

	require.NoError(t, h.ctrl.Scan(context.Background()))

	v := h.ctrl.View()
	assert.Equal(t, models.PanelResult, v.Panel)
	assert.Equal(t, "Hello World", v.ResultText)
	assert.Equal(t, note{models.SeveritySuccess, MsgExtracted}, h.notifier.last())
	assert.Equal(t, []models.Panel{
		models.PanelUpload, models.PanelPreview, models.PanelLoading, models.PanelResult,
	}, h.render.panels())
	assert.False(t, h.ctrl.Scanning())
}

func TestScan_Failures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"http 500 with error", http.StatusInternalServerError, `{"error":"bad image"}`, "bad image"},
		{"success false", http.StatusOK, `{"success":false,"error":"bad image"}`, "bad image"},
		{"no error field", http.StatusInternalServerError, `{}`, ocrclient.FallbackMessage},
		{"garbage body", http.StatusOK, `not json`, ocrclient.FallbackMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, ocrServer(t, tt.status, tt.body))
			h.selectPNG(t)

			err := h.ctrl.Scan(context.Background())
			require.Error(t, err)

			v := h.ctrl.View()
			assert.Equal(t, models.PanelError, v.Panel)
			assert.Equal(t, tt.wantMsg, v.ErrorMessage)
			assert.NotEqual(t, models.PanelLoading, v.Panel)
			assert.Equal(t, "page.png", h.ctrl.SelectedFile().Name)
		})
	}
}

func TestScan_TransportFailureUsesFallback(t *testing.T) {
	h := newHarness(t, &fakeOCR{err: errors.New("dial tcp: connection refused")})
	h.selectPNG(t)

	require.Error(t, h.ctrl.Scan(context.Background()))
	v := h.ctrl.View()
	assert.Equal(t, models.PanelError, v.Panel)
	assert.Equal(t, ocrclient.FallbackMessage, v.ErrorMessage)
}

func TestScan_LoadingLeftAfterPanic(t *testing.T) {
	h := newHarness(t, panickyOCR{})
	h.selectPNG(t)

	assert.Panics(t, func() { _ = h.ctrl.Scan(context.Background()) })
	assert.Equal(t, models.PanelError, h.ctrl.View().Panel)
	assert.False(t, h.ctrl.Scanning())
}

type panickyOCR struct{}

func (panickyOCR) Recognize(context.Context, *models.SelectedFile) (string, error) {
	panic("boom")
}

func TestScan_SecondTriggerIsNoop(t *testing.T) {
	ocr := &fakeOCR{text: "done", release: make(chan struct{}), started: make(chan struct{}, 1)}
	h := newHarness(t, ocr)
	h.selectPNG(t)

	errCh := make(chan error, 1)
	go func() { errCh <- h.ctrl.Scan(context.Background()) }()
	<-ocr.started

	assert.True(t, h.ctrl.Scanning())
	assert.Equal(t, models.PanelLoading, h.ctrl.View().Panel)
	assert.ErrorIs(t, h.ctrl.Scan(context.Background()), ErrScanInFlight)

	close(ocr.release)
	require.NoError(t, <-errCh)
	assert.Equal(t, int32(1), ocr.calls.Load())
	assert.Equal(t, "done", h.ctrl.View().ResultText)
}

func TestScan_ResetWhileInFlightDiscardsResult(t *testing.T) {
	ocr := &fakeOCR{text: "late", release: make(chan struct{}), started: make(chan struct{}, 1)}
	h := newHarness(t, ocr)
	h.selectPNG(t)

	errCh := make(chan error, 1)
	go func() { errCh <- h.ctrl.Scan(context.Background()) }()
	<-ocr.started

	h.ctrl.Reset()
	assert.ErrorIs(t, <-errCh, ErrScanDiscarded)

	v := h.ctrl.View()
	assert.Equal(t, models.PanelUpload, v.Panel)
	assert.Empty(t, v.ResultText)
	assert.Nil(t, h.ctrl.SelectedFile())
}

func TestSelection_BlockedWhileLoading(t *testing.T) {
	ocr := &fakeOCR{text: "ok", release: make(chan struct{}), started: make(chan struct{}, 1)}
	h := newHarness(t, ocr)
	h.selectPNG(t)

	errCh := make(chan error, 1)
	go func() { errCh <- h.ctrl.Scan(context.Background()) }()
	<-ocr.started

	err := h.ctrl.Offer("other.png", "image/png", []byte("x"))
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, note{models.SeverityError, MsgScanBusy}, h.notifier.last())

	close(ocr.release)
	require.NoError(t, <-errCh)
	assert.Equal(t, "page.png", h.ctrl.SelectedFile().Name)
}

func TestReset_FromEveryPanel(t *testing.T) {
	setups := map[string]func(t *testing.T, h *harness){
		"upload":  func(t *testing.T, h *harness) {},
		"preview": func(t *testing.T, h *harness) { h.selectPNG(t) },
		"result": func(t *testing.T, h *harness) {
			h.selectPNG(t)
			require.NoError(t, h.ctrl.Scan(context.Background()))
		},
	}

	for name, setup := range setups {
		t.Run(name, func(t *testing.T) {
			h := newHarness(t, &fakeOCR{text: "x"})
			setup(t, h)
			h.ctrl.Reset()

			v := h.ctrl.View()
			assert.Equal(t, models.PanelUpload, v.Panel)
			assert.Nil(t, h.ctrl.SelectedFile())
			assert.Empty(t, v.ResultText)
			assert.False(t, v.ScanEnabled)
		})
	}

	t.Run("error", func(t *testing.T) {
		h := newHarness(t, &fakeOCR{err: errors.New("x")})
		h.selectPNG(t)
		require.Error(t, h.ctrl.Scan(context.Background()))
		h.ctrl.Reset()
		assert.Equal(t, models.PanelUpload, h.ctrl.View().Panel)
		assert.Nil(t, h.ctrl.SelectedFile())
	})
}

func TestRetry(t *testing.T) {
	h := newHarness(t, &fakeOCR{err: &ocrclient.ServiceError{StatusCode: 500, Message: "bad image"}})
	h.selectPNG(t)
	original := h.ctrl.SelectedFile()

	assert.ErrorIs(t, h.ctrl.Retry(), ErrInvalidTransition, "retry only from error")

	require.Error(t, h.ctrl.Scan(context.Background()))
	require.NoError(t, h.ctrl.Retry())

	v := h.ctrl.View()
	assert.Equal(t, models.PanelPreview, v.Panel)
	assert.True(t, v.ScanEnabled)
	assert.Empty(t, v.ErrorMessage)
	assert.Same(t, original, h.ctrl.SelectedFile())
}

func TestCopy(t *testing.T) {
	h := newHarness(t, &fakeOCR{text: "Hello World"})

	assert.ErrorIs(t, h.ctrl.Copy(), ErrNoResult)

	h.selectPNG(t)
	require.NoError(t, h.ctrl.Scan(context.Background()))

	require.NoError(t, h.ctrl.Copy())
	assert.Equal(t, "Hello World", h.clip.text)
	assert.Equal(t, note{models.SeveritySuccess, MsgCopied}, h.notifier.last())

	h.clip.err = errors.New("no xclip")
	assert.Error(t, h.ctrl.Copy())
	assert.Equal(t, note{models.SeverityError, MsgCopyFailed}, h.notifier.last())

	h.clip.panic = true
	assert.NotPanics(t, func() { assert.Error(t, h.ctrl.Copy()) })
	assert.Equal(t, note{models.SeverityError, MsgCopyFailed}, h.notifier.last())
	assert.Equal(t, models.PanelResult, h.ctrl.View().Panel)
}

func TestDownload(t *testing.T) {
	h := newHarness(t, &fakeOCR{text: "Hello World"})
	h.selectPNG(t)
	require.NoError(t, h.ctrl.Scan(context.Background()))

	path, err := h.ctrl.Download()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/ocr-result-1.txt", path)
	assert.Equal(t, "Hello World", h.saver.text)
	assert.Equal(t, note{models.SeveritySuccess, MsgDownloaded}, h.notifier.last())

	h.saver.err = errors.New("disk full")
	_, err = h.ctrl.Download()
	assert.Error(t, err)
	assert.Equal(t, note{models.SeverityError, MsgDownloadFailed}, h.notifier.last())
	assert.Equal(t, models.PanelResult, h.ctrl.View().Panel)
}

type fakeHealth struct {
	resp *models.HealthResponse
	err  error
}

func (f fakeHealth) Health(context.Context) (*models.HealthResponse, error) {
	return f.resp, f.err
}

func TestCheckHealth_DoesNotTouchState(t *testing.T) {
	render := &fakeRenderer{}
	notifier := &fakeNotifier{}
	ctrl, err := New(Deps{
		OCR:      &fakeOCR{},
		Health:   fakeHealth{err: errors.New("refused")},
		Renderer: render,
		Notifier: notifier,
		Logger:   zerolog.Nop(),
	})
	require.NoError(t, err)

	_, err = ctrl.CheckHealth(context.Background())
	assert.Error(t, err)
	assert.Len(t, render.panels(), 1)
	assert.Equal(t, 0, notifier.count())

	ctrl.deps.Health = fakeHealth{resp: &models.HealthResponse{Status: "ok"}}
	h, err := ctrl.CheckHealth(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", h.Status)
	assert.Equal(t, models.PanelUpload, ctrl.View().Panel)
}
