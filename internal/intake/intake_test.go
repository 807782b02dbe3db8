package intake

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mediaType string
		size      int64
		wantMsg   string
	}{
		{name: "png accepted", mediaType: "image/png", size: 10},
		{name: "legacy jpg accepted", mediaType: "image/jpg", size: 10},
		{name: "pdf at limit accepted", mediaType: "application/pdf", size: MaxFileSize},
		{name: "text rejected", mediaType: "text/plain", size: 10, wantMsg: MsgInvalidType},
		{name: "empty type rejected", mediaType: "", size: 10, wantMsg: MsgInvalidType},
		{name: "svg rejected", mediaType: "image/svg+xml", size: 10, wantMsg: MsgInvalidType},
		{name: "oversized png rejected", mediaType: "image/png", size: MaxFileSize + 1, wantMsg: MsgTooLarge},
		{name: "oversized pdf rejected", mediaType: "application/pdf", size: 32 * 1024 * 1024, wantMsg: MsgTooLarge},
		{name: "type checked before size", mediaType: "text/plain", size: MaxFileSize + 1, wantMsg: MsgInvalidType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.mediaType, tt.size)
			if tt.wantMsg == "" {
				assert.NoError(t, err)
				return
			}
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.wantMsg, vErr.Message)
		})
	}
}

func TestDeclaredType(t *testing.T) {
	cases := map[string]string{
		"scan.PNG":      "image/png",
		"photo.jpeg":    "image/jpeg",
		"photo.jpg":     "image/jpeg",
		"page.tif":      "image/tiff",
		"doc.pdf":       "application/pdf",
		"notes.txt":     "text/plain",
		"noextension":   "",
		"archive.tar.x": "",
	}
	for name, want := range cases {
		assert.Equal(t, want, DeclaredType(name), name)
	}
}

func TestFromPath(t *testing.T) {
	dir := t.TempDir()

	t.Run("reads accepted image", func(t *testing.T) {
		path := filepath.Join(dir, "tiny.png")
		require.NoError(t, os.WriteFile(path, pngBytes(t, 3, 2), 0644))

		f, err := FromPath(path)
		require.NoError(t, err)
		assert.Equal(t, "tiny.png", f.Name)
		assert.Equal(t, "image/png", f.MediaType)
		assert.Equal(t, int64(len(f.Content)), f.Size)
	})

	t.Run("rejects unknown type", func(t *testing.T) {
		path := filepath.Join(dir, "notes.txt")
		require.NoError(t, os.WriteFile(path, []byte("hello"), 0644))

		_, err := FromPath(path)
		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, MsgInvalidType, vErr.Message)
	})

	t.Run("rejects oversized file without reading it", func(t *testing.T) {
		path := filepath.Join(dir, "huge.pdf")
		f, err := os.Create(path)
		require.NoError(t, err)
		require.NoError(t, f.Truncate(MaxFileSize+1))
		require.NoError(t, f.Close())

		_, err = FromPath(path)
		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, MsgTooLarge, vErr.Message)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := FromPath(filepath.Join(dir, "missing.png"))
		require.Error(t, err)
		var vErr *ValidationError
		assert.False(t, errors.As(err, &vErr))
	})
}

func TestThumbnail(t *testing.T) {
	content := pngBytes(t, 1, 1)
	img, err := FromBytes("a.png", "image/png", content)
	require.NoError(t, err)

	thumb := Thumbnail(img)
	require.True(t, strings.HasPrefix(thumb, "data:image/png;base64,"))
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(thumb, "data:image/png;base64,"))
	require.NoError(t, err)
	assert.Equal(t, content, decoded)

	pdf, err := FromBytes("a.pdf", "application/pdf", []byte("%PDF-1.4"))
	require.NoError(t, err)
	assert.Equal(t, PDFPlaceholder, Thumbnail(pdf))

	assert.Equal(t, "", Thumbnail(nil))
}

func TestCaption(t *testing.T) {
	img, err := FromBytes("a.png", "image/png", pngBytes(t, 4, 3))
	require.NoError(t, err)
	assert.Contains(t, Caption(img), "4x3")

	// undecodable image content still gets a caption
	broken, err := FromBytes("b.webp", "image/webp", []byte("garbage"))
	require.NoError(t, err)
	assert.Equal(t, "b.webp (image/webp, 7 B)", Caption(broken))
}

func TestHumanSize(t *testing.T) {
	assert.Equal(t, "512 B", HumanSize(512))
	assert.Equal(t, "1.5 KiB", HumanSize(1536))
	assert.Equal(t, "16.0 MiB", HumanSize(MaxFileSize))
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}
