package ocr

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"registration-portal/internal/shared/metrics"
	"registration-portal/internal/shared/server/middleware"
	"registration-portal/internal/shared/server/respond"
	"registration-portal/internal/shared/telemetry"
	"registration-portal/internal/vision"
)

const maxUploadBytes = 10 << 20 // 10 MiB, mirrored client-side

// multipart boundary lines and part headers sit on top of the file
// payload, so the request-body cap leaves room for them; the explicit
// size checks below are the real gate on the file itself.
const framingOverheadBytes = 1 << 20

// Handler wires the OCR extraction endpoint to a text recognizer.
type Handler struct {
	Recognizer vision.TextRecognizer
}

// NewHandler constructs a Handler.
func NewHandler(recognizer vision.TextRecognizer) *Handler {
	return &Handler{Recognizer: recognizer}
}

// RegisterRoutes attaches OCR routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/ocr/extract", h.extract)
}

func (h *Handler) extract(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes+framingOverheadBytes)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respond.Detail(c, http.StatusBadRequest, "File size exceeds 10MB limit")
			return
		}
		respond.Detail(c, http.StatusBadRequest, "file is required")
		return
	}
	if fileHeader.Size > maxUploadBytes {
		respond.Detail(c, http.StatusBadRequest, "File size exceeds 10MB limit")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond.Detail(c, http.StatusBadRequest, "unable to read file")
		return
	}
	defer file.Close()

	contents, err := io.ReadAll(file)
	if err != nil {
		respond.Detail(c, http.StatusBadRequest, "unable to read file")
		return
	}
	if len(contents) > maxUploadBytes {
		respond.Detail(c, http.StatusBadRequest, "File size exceeds 10MB limit")
		return
	}

	metrics.IncExtractionStarted()
	start := time.Now()

	fullText, err := h.Recognizer.DetectText(c.Request.Context(), contents)
	metrics.ObserveExtractionDurationMs(float64(time.Since(start).Microseconds()) / 1000.0)
	if err != nil {
		metrics.IncExtractionFailed()
		if errors.Is(err, vision.ErrNotConfigured) {
			respond.Detail(c, http.StatusInternalServerError, "Vision API not configured")
			return
		}
		telemetry.Error("ocr.extract.failed", map[string]any{
			"request_id": middleware.RequestIDFromContext(c),
			"err":        err.Error(),
			"size_bytes": len(contents),
		})
		c.Set("ocrSuccess", false)
		respond.JSON(c, http.StatusOK, ExtractResponse{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	if strings.TrimSpace(fullText) == "" {
		metrics.IncExtractionFailed()
		c.Set("ocrSuccess", false)
		respond.JSON(c, http.StatusOK, ExtractResponse{
			Success: false,
			Error:   "No text detected in the image",
		})
		return
	}

	parsed := Parse(fullText)
	metrics.IncExtractionSucceeded()
	c.Set("ocrSuccess", true)
	telemetry.Info("ocr.extract.completed", map[string]any{
		"request_id": middleware.RequestIDFromContext(c),
		"id_type":    parsed.IDType,
		"has_dob":    parsed.DateOfBirth != "",
		"has_name":   parsed.FullName != "",
	})

	respond.JSON(c, http.StatusOK, ExtractResponse{
		Success:       true,
		ExtractedText: fullText,
		ParsedData:    parsed,
	})
}
