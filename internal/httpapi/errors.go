package httpapi

import (
	"github.com/gin-gonic/gin"

	"jobtracker/internal/logger"
)

type APIError struct {
	Error struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestID string `json:"request_id,omitempty"`
	} `json:"error"`
}

// writeError aborts the chain with the standard error envelope.
func writeError(c *gin.Context, status int, code, message string) {
	var e APIError
	e.Error.Code = code
	e.Error.Message = message
	e.Error.RequestID = logger.GetRequestID(c.Request.Context())
	c.AbortWithStatusJSON(status, e)
}
