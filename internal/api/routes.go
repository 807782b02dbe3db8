// routes.go - Route registration helpers
package api

import (
	"github.com/labstack/echo/v4"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Gateway Gateway
	Version string
}

// Handlers holds all handler instances
type Handlers struct {
	Health  HealthHandler
	OCR     OCRHandler
	History HistoryHandler
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	return &Handlers{
		Health:  NewHealthHandler(deps.Version),
		OCR:     NewOCRHandler(deps.Gateway),
		History: NewHistoryHandler(deps.Gateway),
	}
}

// RegisterRoutes registers all API routes with the Echo instance
func RegisterRoutes(e *echo.Echo, handlers *Handlers) {
	apiGroup := e.Group("/api")

	apiGroup.GET("/health", handlers.Health.HandleHealth)
	apiGroup.POST("/ocr", handlers.OCR.HandleOCR)

	apiGroup.GET("/scans", handlers.History.HandleListScans)
	apiGroup.GET("/scans/msgpack", handlers.History.HandleListScansMsgpack)
	apiGroup.GET("/scans/stats", handlers.History.HandleScanStats)
}
