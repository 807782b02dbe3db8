// handlers_history.go - Scan history handlers
package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/ocr-scanner/backend/internal/models"
	"github.com/vmihailenco/msgpack/v5"
)

// HistoryHandlerImpl implements the HistoryHandler interface
type HistoryHandlerImpl struct {
	gw Gateway
}

// NewHistoryHandler creates a new history handler
func NewHistoryHandler(gw Gateway) HistoryHandler {
	return &HistoryHandlerImpl{gw: gw}
}

func (h *HistoryHandlerImpl) recent(c echo.Context) ([]models.ScanRecord, error) {
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, NewBadRequestError("limit must be a number", err)
		}
		if n < 0 {
			return nil, NewValidationError("limit")
		}
		limit = n
	}

	records, err := h.gw.Recent(c.Request().Context(), limit)
	if err != nil {
		return nil, NewInternalError("failed to load scan history", err)
	}
	return records, nil
}

// HandleListScans returns recent scan records as JSON, newest first
func (h *HistoryHandlerImpl) HandleListScans(c echo.Context) error {
	records, err := h.recent(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, records)
}

// HandleScanStats returns request counts per status, e.g. {"success":3,"rejected":1}
func (h *HistoryHandlerImpl) HandleScanStats(c echo.Context) error {
	counts, err := h.gw.Stats(c.Request().Context())
	if err != nil {
		return NewInternalError("failed to load scan stats", err)
	}
	return c.JSON(http.StatusOK, counts)
}

// HandleListScansMsgpack returns the same records msgpack-encoded
func (h *HistoryHandlerImpl) HandleListScansMsgpack(c echo.Context) error {
	records, err := h.recent(c)
	if err != nil {
		return err
	}

	data, err := msgpack.Marshal(records)
	if err != nil {
		return NewInternalError("failed to encode msgpack", err)
	}

	return c.Blob(http.StatusOK, "application/msgpack", data)
}
