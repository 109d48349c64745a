package httpapi

import (
	"crypto/subtle"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
)

const headerShutdownToken = "X-Shutdown-Token"

// ShutdownHandler lets the desktop shell stop the engine it started.
type ShutdownHandler struct {
	token    string
	shutdown func()
}

func NewShutdownHandler(token string, shutdown func()) *ShutdownHandler {
	return &ShutdownHandler{token: token, shutdown: shutdown}
}

// Shutdown handles POST /shutdown. Only loopback callers holding the token
// are accepted; the server stops after the response is written.
func (h *ShutdownHandler) Shutdown(c *gin.Context) {
	ip := net.ParseIP(c.RemoteIP())
	if ip == nil || !ip.IsLoopback() {
		writeError(c, http.StatusForbidden, "forbidden", "shutdown is only allowed from localhost")
		return
	}
	got := c.GetHeader(headerShutdownToken)
	if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(h.token)) != 1 {
		writeError(c, http.StatusUnauthorized, "unauthorized", "missing or wrong shutdown token")
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "shutting down"})
	go h.shutdown()
}
