package respond

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// JSON writes payload with the given status. Success bodies are plain
// top-level objects; errors go through Detail instead.
func JSON(c *gin.Context, status int, payload any) {
	c.JSON(status, payload)
}

// OK writes a 200 response with payload.
func OK(c *gin.Context, payload any) {
	JSON(c, http.StatusOK, payload)
}
