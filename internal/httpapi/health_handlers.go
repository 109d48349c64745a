package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	journal bool
	mailbox bool
}

func NewHealthHandler(d Deps) *HealthHandler {
	return &HealthHandler{journal: d.History != nil, mailbox: d.Mailbox != nil}
}

func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"journal": h.journal,
		"mailbox": h.mailbox,
	})
}
