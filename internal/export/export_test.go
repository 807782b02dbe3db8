package export

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileName(t *testing.T) {
	ts := time.UnixMilli(1700000000123)
	assert.Equal(t, "ocr-result-1700000000123.txt", FileName(ts))
}

func TestSaver_Save(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "downloads")
	s, err := NewSaver(dir)
	require.NoError(t, err)

	fixed := time.UnixMilli(1700000000000)
	s.now = func() time.Time { return fixed }

	path, err := s.Save("Hello World")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "ocr-result-1700000000000.txt"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Hello World", string(data))

	// same millisecond: the name must not collide
	second, err := s.Save("again")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "ocr-result-1700000000001.txt"), second)

	// no temp files left behind
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestSaver_SaveIntoMissingDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "gone")
	s, err := NewSaver(dir)
	require.NoError(t, err)
	require.NoError(t, os.RemoveAll(dir))

	_, err = s.Save("text")
	assert.Error(t, err)
}
