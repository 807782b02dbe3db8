// Package intake validates files offered to the scanner and builds their preview.
package intake

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/ocr-scanner/backend/internal/models"
)

// MaxFileSize is the largest file accepted for scanning (16 MiB).
const MaxFileSize = 16 * 1024 * 1024

// PDFPlaceholder is shown instead of a rendered PDF page.
const PDFPlaceholder = "https://via.placeholder.com/400x300?text=PDF+Document"

const (
	MsgInvalidType = "Please upload a valid image or PDF file"
	MsgTooLarge    = "File size must be less than 16MB"
)

// AllowedTypes is the exact set of declared media types accepted for scanning.
var AllowedTypes = map[string]struct{}{
	"image/png":       {},
	"image/jpeg":      {},
	"image/jpg":       {},
	"image/gif":       {},
	"image/bmp":       {},
	"image/tiff":      {},
	"image/webp":      {},
	"application/pdf": {},
}

// extensionTypes mirrors how a browser declares the type of a picked file.
var extensionTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".jpe":  "image/jpeg",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".webp": "image/webp",
	".pdf":  "application/pdf",
	".txt":  "text/plain",
	".csv":  "text/csv",
	".html": "text/html",
	".json": "application/json",
	".zip":  "application/zip",
	".svg":  "image/svg+xml",
}

// ValidationError is returned when a file is rejected. Its message is user-facing.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// DeclaredType returns the media type a file picker would declare for name.
// Unknown extensions yield an empty string.
func DeclaredType(name string) string {
	return extensionTypes[strings.ToLower(filepath.Ext(name))]
}

// Validate checks the declared media type, then the size.
func Validate(mediaType string, size int64) error {
	if _, ok := AllowedTypes[mediaType]; !ok {
		return &ValidationError{Message: MsgInvalidType}
	}
	if size > MaxFileSize {
		return &ValidationError{Message: MsgTooLarge}
	}
	return nil
}

// FromBytes validates content under a declared media type and wraps it as a SelectedFile.
func FromBytes(name, mediaType string, content []byte) (*models.SelectedFile, error) {
	if err := Validate(mediaType, int64(len(content))); err != nil {
		return nil, err
	}
	return &models.SelectedFile{
		Name:      name,
		MediaType: mediaType,
		Size:      int64(len(content)),
		Content:   content,
	}, nil
}

// FromPath opens a file from disk. The size is checked from the file info
// before any content is read, so oversized files are never loaded.
func FromPath(path string) (*models.SelectedFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	mediaType := DeclaredType(path)
	if err := Validate(mediaType, info.Size()); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	content, err := io.ReadAll(io.LimitReader(f, MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	// the file may have grown since Stat
	if err := Validate(mediaType, int64(len(content))); err != nil {
		return nil, err
	}

	return &models.SelectedFile{
		Name:      filepath.Base(path),
		MediaType: mediaType,
		Size:      int64(len(content)),
		Content:   content,
	}, nil
}

// Thumbnail returns the inline preview source for a file: the encoded content
// for images, the fixed placeholder for PDFs.
func Thumbnail(f *models.SelectedFile) string {
	if f == nil {
		return ""
	}
	if f.IsPDF() {
		return PDFPlaceholder
	}
	return "data:" + f.MediaType + ";base64," + base64.StdEncoding.EncodeToString(f.Content)
}

// Caption describes a file for the preview panel, including pixel dimensions
// when the image can be decoded.
func Caption(f *models.SelectedFile) string {
	if f == nil {
		return ""
	}
	caption := fmt.Sprintf("%s (%s, %s)", f.Name, f.MediaType, HumanSize(f.Size))
	if f.IsPDF() {
		return caption
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(f.Content))
	if err != nil {
		return caption
	}
	return fmt.Sprintf("%s %dx%d", caption, cfg.Width, cfg.Height)
}

// HumanSize formats a byte count the way the preview caption shows it.
func HumanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
