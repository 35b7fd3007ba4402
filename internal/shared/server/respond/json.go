package respond

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// JSON writes a JSON response with the given status.
func JSON(c *gin.Context, status int, payload interface{}) {
	c.JSON(status, payload)
}

// OK writes a 200 OK JSON response.
func OK(c *gin.Context, payload interface{}) {
	JSON(c, http.StatusOK, payload)
}

// WebhookResult is the response shape expected by the assessment vendor:
// {"status": <code>, "reason": "..."} or {"status": <code>, "data": {...}}.
type WebhookResult struct {
	Status int         `json:"status"`
	Reason string      `json:"reason,omitempty"`
	Data   interface{} `json:"data,omitempty"`
}

// WebhookReason writes a vendor-shaped response carrying a reason string.
func WebhookReason(c *gin.Context, status int, reason string) {
	JSON(c, status, WebhookResult{Status: status, Reason: reason})
}

// WebhookData writes a vendor-shaped success response carrying a data payload.
func WebhookData(c *gin.Context, status int, data interface{}) {
	JSON(c, status, WebhookResult{Status: status, Data: data})
}
