// handlers_ocr.go - OCR upload handler
package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/ocr-scanner/backend/internal/gateway"
	"github.com/ocr-scanner/backend/internal/models"
)

const ocrRoute = "/api/ocr"

// OCRHandlerImpl implements the OCRHandler interface
type OCRHandlerImpl struct {
	gw Gateway
}

// NewOCRHandler creates a new OCR handler
func NewOCRHandler(gw Gateway) OCRHandler {
	return &OCRHandlerImpl{gw: gw}
}

// HandleOCR accepts multipart field "file", relays it to the engine and
// answers {"success":true,"text":...,"filename":...} or {"error":...}.
func (h *OCRHandlerImpl) HandleOCR(c echo.Context) error {
	ctx := c.Request().Context()

	file, err := c.FormFile("file")
	if err != nil {
		msg := gateway.MsgNoFile
		// A part named "file" without a filename arrives as a plain value.
		if form, ferr := c.MultipartForm(); ferr == nil {
			if _, ok := form.Value["file"]; ok {
				msg = gateway.MsgNoSelection
			}
		}
		return c.JSON(http.StatusBadRequest, models.OCRResponse{Error: h.gw.Reject(ctx, "", msg).Message})
	}

	src, err := file.Open()
	if err != nil {
		return NewInternalError("failed to open uploaded file", err)
	}
	defer src.Close()

	res, err := h.gw.Process(ctx, file.Filename, file.Header.Get(echo.HeaderContentType), src)
	if err != nil {
		var reqErr *gateway.RequestError
		if errors.As(err, &reqErr) {
			return c.JSON(http.StatusBadRequest, models.OCRResponse{Error: reqErr.Message})
		}
		var engErr *gateway.EngineError
		if errors.As(err, &engErr) {
			return c.JSON(http.StatusInternalServerError, models.OCRResponse{Error: engErr.Error()})
		}
		return NewInternalError("ocr request failed", err)
	}

	return c.JSON(http.StatusOK, models.OCRResponse{
		Success:  true,
		Text:     res.Text,
		Filename: res.Filename,
	})
}
