package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Success writes the standard success envelope.
func Success(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, gin.H{
		"success": true,
		"data":    data,
	})
}

// Error writes the standard error envelope.
func Error(c *gin.Context, statusCode int, code string, message string) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// Rejected writes a business rejection. Rejections are expected outcomes,
// not failures: the envelope still reports success=true with the rejection
// reason in data, so callers can render the precise message.
func Rejected(c *gin.Context, reason string, message string) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"accepted": false,
			"reason":   reason,
			"message":  message,
		},
	})
}
