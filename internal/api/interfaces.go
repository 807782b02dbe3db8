// interfaces.go - Handler interface definitions for clean separation of concerns
package api

import (
	"context"
	"io"

	"github.com/labstack/echo/v4"
	"github.com/ocr-scanner/backend/internal/gateway"
	"github.com/ocr-scanner/backend/internal/models"
)

// HealthHandler handles health check operations
type HealthHandler interface {
	HandleHealth(c echo.Context) error
}

// OCRHandler accepts uploads and returns recognized text
type OCRHandler interface {
	HandleOCR(c echo.Context) error
}

// HistoryHandler exposes the scan history
type HistoryHandler interface {
	HandleListScans(c echo.Context) error
	HandleListScansMsgpack(c echo.Context) error
	HandleScanStats(c echo.Context) error
}

// Gateway is the part of *gateway.Gateway the handlers use.
// This allows mocking in tests
type Gateway interface {
	Process(ctx context.Context, name, mediaType string, r io.Reader) (*gateway.Result, error)
	Reject(ctx context.Context, name, message string) *gateway.RequestError
	Recent(ctx context.Context, limit int) ([]models.ScanRecord, error)
	Stats(ctx context.Context) (map[models.ScanStatus]int, error)
}
