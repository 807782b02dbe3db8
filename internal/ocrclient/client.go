// Package ocrclient talks to the OCR service over HTTP.
package ocrclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/ocr-scanner/backend/internal/models"
)

// FallbackMessage is shown when a failed response carries no error text.
const FallbackMessage = "OCR processing failed"

const (
	ocrPath    = "/api/ocr"
	healthPath = "/api/health"
)

// maxResponseBytes caps the decoded /api/ocr body.
var maxResponseBytes int64 = 32 << 20

// ServiceError is a failed OCR attempt as reported by the service.
type ServiceError struct {
	StatusCode int
	Message    string
}

func (e *ServiceError) Error() string {
	return e.Message
}

// Client calls the OCR and health endpoints of a scanner server.
type Client struct {
	BaseURL string
	Client  *http.Client
}

// NewClient creates a client for the server at baseURL. A zero timeout means none.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: timeout},
	}
}

// Recognize uploads the file as multipart field "file" and returns the recognized text.
// Any non-2xx status, a false success flag or an unreadable body is an error;
// the server's error text is carried in a *ServiceError when present.
func (c *Client) Recognize(ctx context.Context, file *models.SelectedFile) (string, error) {
	if file == nil {
		return "", fmt.Errorf("no file to upload")
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(file.Name)))
	header.Set("Content-Type", file.MediaType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return "", fmt.Errorf("creating form part: %w", err)
	}
	if _, err := part.Write(file.Content); err != nil {
		return "", fmt.Errorf("writing form part: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("closing form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+ocrPath, &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ocr request: %w", err)
	}
	defer resp.Body.Close()

	var out models.OCRResponse
	decodeErr := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&out)

	ok := resp.StatusCode >= 200 && resp.StatusCode < 300
	if ok && decodeErr == nil && out.Success {
		return out.Text, nil
	}

	msg := FallbackMessage
	if decodeErr == nil && out.Error != "" {
		msg = out.Error
	}
	return "", &ServiceError{StatusCode: resp.StatusCode, Message: msg}
}

// Health fetches the server status.
func (c *Client) Health(ctx context.Context) (*models.HealthResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+healthPath, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("health request: %w", err)
	}
	defer resp.Body.Close()

	var out models.HealthResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding health response (status %d): %w", resp.StatusCode, err)
	}
	return &out, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
