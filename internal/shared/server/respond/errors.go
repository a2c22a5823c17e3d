package respond

import (
	"github.com/gin-gonic/gin"

	"registration-portal/internal/shared/telemetry"
)

// DetailBody is the error envelope consumed by the kiosk client. Clients
// match on the detail text (age rejections in particular), so the shape
// is part of the wire contract and must stay a single "detail" string.
type DetailBody struct {
	Detail string `json:"detail"`
}

// Detail sends an error response with the standardized detail envelope.
func Detail(c *gin.Context, status int, detail string) {
	fields := map[string]any{
		"status":     status,
		"detail":     detail,
		"path":       c.Request.URL.Path,
		"method":     c.Request.Method,
		"request_id": c.GetString("requestId"),
	}
	telemetry.Error("http.error", fields)

	c.AbortWithStatusJSON(status, DetailBody{Detail: detail})
}
