// Package export saves OCR results as plain-text downloads.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// FileName returns the download name for a result produced at t.
func FileName(t time.Time) string {
	return fmt.Sprintf("ocr-result-%d.txt", t.UnixMilli())
}

// Saver writes result text into a download directory.
type Saver struct {
	dir string
	now func() time.Time
}

// NewSaver creates a Saver rooted at dir, creating it if needed.
func NewSaver(dir string) (*Saver, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating download directory: %w", err)
	}
	return &Saver{dir: dir, now: time.Now}, nil
}

// Dir returns the download directory.
func (s *Saver) Dir() string {
	return s.dir
}

// Save writes text to a new ocr-result-<epoch-ms>.txt file and returns its path.
// The content is staged in a temporary file which is always released.
func (s *Saver) Save(text string) (string, error) {
	tmp, err := os.CreateTemp(s.dir, ".ocr-result-*.tmp")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.WriteString(text); err != nil {
		tmp.Close()
		return "", fmt.Errorf("writing result: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("closing temp file: %w", err)
	}

	path := s.uniquePath()
	if err := os.Rename(tmpPath, path); err != nil {
		return "", fmt.Errorf("finalizing download: %w", err)
	}
	return path, nil
}

// uniquePath picks the first unused millisecond-stamped name at or after now.
func (s *Saver) uniquePath() string {
	t := s.now()
	for {
		path := filepath.Join(s.dir, FileName(t))
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return path
		}
		t = t.Add(time.Millisecond)
	}
}
