package httpapi

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"jobtracker/internal/events"
	"jobtracker/internal/logger"
)

type EventsHandler struct {
	hub *events.Hub
}

func NewEventsHandler(hub *events.Hub) *EventsHandler {
	return &EventsHandler{hub: hub}
}

// Stream handles GET /api/v1/events as a server-sent event stream.
func (h *EventsHandler) Stream(c *gin.Context) {
	if h.hub == nil {
		writeError(c, http.StatusNotFound, "events_disabled", "event stream is not enabled")
		return
	}

	w := c.Writer
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := h.hub.Subscribe()
	defer h.hub.Unsubscribe(ch)

	ctx := c.Request.Context()
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "event: message\ndata: %s\n\n", events.MakeEvent(logger.GetRequestID(ctx), events.TypePing, nil))
	w.Flush()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: message\ndata: %s\n\n", msg)
			w.Flush()
		}
	}
}
