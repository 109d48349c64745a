package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// NewRouter builds the engine's routes.
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(RequestLogger(d.Log), Recover(), Cors(d.AllowedOrigins))

	r.GET("/health", NewHealthHandler(d).Health)

	ih := NewIntakeHandler(d)
	hh := NewHistoryHandler(d.History)
	eh := NewEventsHandler(d.Hub)

	v1 := r.Group("/api/v1")
	{
		v1.POST("/jobs", ih.AddJob)
		v1.POST("/imports", ih.Import)
		v1.POST("/mailbox/run", ih.RunMailbox)
		v1.GET("/mailbox/status", ih.MailboxStatus)
		v1.GET("/history", hh.List)
		v1.GET("/events", eh.Stream)
	}

	if d.ShutdownToken != "" && d.Shutdown != nil {
		r.POST("/shutdown", NewShutdownHandler(d.ShutdownToken, d.Shutdown).Shutdown)
	}

	r.NoRoute(func(c *gin.Context) {
		writeError(c, http.StatusNotFound, "not_found", "route not found")
	})
	return r
}
