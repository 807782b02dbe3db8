// Package terminal draws the scanner panels and notifications on a terminal.
package terminal

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"

	"github.com/ocr-scanner/backend/internal/intake"
	"github.com/ocr-scanner/backend/internal/models"
)

const thumbnailPreviewLen = 48

// Renderer writes one panel at a time to out. When animate is set the Loading
// panel shows a spinner until the next panel is drawn.
type Renderer struct {
	mu      sync.Mutex
	out     io.Writer
	spin    *spinner.Spinner
	animate bool
}

// NewRenderer creates a renderer. Color output follows color.NoColor, which the
// caller owns.
func NewRenderer(out io.Writer, animate bool) *Renderer {
	r := &Renderer{out: out, animate: animate}
	if animate {
		s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(out))
		s.Suffix = " Extracting text..."
		r.spin = s
	}
	return r
}

// Render draws v. It is the only place panels are drawn.
func (r *Renderer) Render(v models.View) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.spin != nil && r.spin.Active() {
		r.spin.Stop()
	}

	switch v.Panel {
	case models.PanelUpload:
		r.heading("Upload")
		fmt.Fprintln(r.out, "Drop an image or PDF: open <path>")
		fmt.Fprintln(r.out, "Supported: PNG, JPEG, GIF, BMP, TIFF, WEBP, PDF (max 16MB)")
	case models.PanelPreview:
		r.heading("Preview")
		fmt.Fprintln(r.out, v.Caption)
		fmt.Fprintf(r.out, "Thumbnail: %s\n", shortThumbnail(v.Thumbnail))
		if v.ScanEnabled {
			fmt.Fprintln(r.out, "Commands: scan | reset")
		}
	case models.PanelLoading:
		r.heading("Scanning")
		if r.spin != nil {
			r.spin.Start()
		} else {
			fmt.Fprintf(r.out, "Extracting text from %s...\n", v.FileName)
		}
	case models.PanelResult:
		r.heading("Result")
		box(r.out, v.FileName, v.ResultText)
		fmt.Fprintln(r.out, "Commands: copy | download | reset")
	case models.PanelError:
		r.heading("Error")
		color.New(color.FgRed).Fprintf(r.out, "✗ %s\n", v.ErrorMessage)
		fmt.Fprintln(r.out, "Commands: retry | reset")
	}
}

// Notify prints a transient notification. A nil notification (dismissal) prints nothing.
func (r *Renderer) Notify(n *models.Notification) {
	if n == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if n.Severity == models.SeverityError {
		color.New(color.FgRed).Fprintf(r.out, "✗ %s\n", n.Message)
		return
	}
	color.New(color.FgGreen).Fprintf(r.out, "✓ %s\n", n.Message)
}

// Close stops any running animation.
func (r *Renderer) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.spin != nil && r.spin.Active() {
		r.spin.Stop()
	}
}

func (r *Renderer) heading(title string) {
	color.New(color.FgMagenta, color.Bold).Fprintf(r.out, "━━━ %s ━━━\n", strings.ToUpper(title))
}

func shortThumbnail(src string) string {
	if src == intake.PDFPlaceholder || len(src) <= thumbnailPreviewLen {
		return src
	}
	return fmt.Sprintf("%s... (%d chars)", src[:thumbnailPreviewLen], len(src))
}

// box draws content inside a bordered box with an optional title.
func box(out io.Writer, title, content string) {
	lines := strings.Split(strings.TrimRight(content, "\n"), "\n")
	width := len([]rune(title))
	for _, line := range lines {
		if n := len([]rune(line)); n > width {
			width = n
		}
	}
	if width < 40 {
		width = 40
	}

	fmt.Fprintf(out, "┌%s┐\n", strings.Repeat("─", width+2))
	if title != "" {
		fmt.Fprintf(out, "│ %s │\n", pad(title, width))
		fmt.Fprintf(out, "├%s┤\n", strings.Repeat("─", width+2))
	}
	for _, line := range lines {
		fmt.Fprintf(out, "│ %s │\n", pad(line, width))
	}
	fmt.Fprintf(out, "└%s┘\n", strings.Repeat("─", width+2))
}

func pad(s string, width int) string {
	if n := len([]rune(s)); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}
