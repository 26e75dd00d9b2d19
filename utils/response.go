// utils/response.go
package utils

import "github.com/gin-gonic/gin"

// RespondWithError sends a JSON error payload with the given status.
func RespondWithError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

// RespondWithResult sends the {success, message} envelope used by
// gateway-facing actions. Extra fields are merged into the payload.
func RespondWithResult(c *gin.Context, status int, success bool, message string, extra gin.H) {
	payload := gin.H{
		"success": success,
		"message": message,
	}
	for k, v := range extra {
		payload[k] = v
	}
	c.JSON(status, payload)
}
