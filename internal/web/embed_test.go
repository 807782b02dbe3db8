package web

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasEmbeddedFiles(t *testing.T) {
	assert.True(t, HasEmbeddedFiles())
}

func TestAppScriptMessages(t *testing.T) {
	e := echo.New()
	require.NoError(t, RegisterStaticRoutes(e))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/app.js", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	for _, want := range []string{"Copied to clipboard!", "Failed to copy'", "Downloaded successfully!", "fetch('/api/health')", "console.log('Server status:'"} {
		assert.Contains(t, body, want)
	}
	assert.NotContains(t, body, "Text copied")
	assert.NotContains(t, body, "Text downloaded")
}

func TestRegisterStaticRoutes(t *testing.T) {
	e := echo.New()
	require.NoError(t, RegisterStaticRoutes(e))

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantBody   string
	}{
		{"root serves page", "/", http.StatusOK, "OCR Scanner"},
		{"asset", "/app.js", http.StatusOK, "/api/ocr"},
		{"unknown path falls back to page", "/history", http.StatusOK, "uploadArea"},
		{"api paths are not swallowed", "/api/unknown", http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantBody != "" {
				assert.Contains(t, rec.Body.String(), tt.wantBody)
			}
		})
	}
}
