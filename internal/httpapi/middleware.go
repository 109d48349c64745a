package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"

	"jobtracker/internal/logger"
)

const headerRequestID = "X-Request-ID"

// RequestLogger attaches a request-scoped logger carrying the request id to
// the request context and logs every completed request.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	if log == nil {
		log = logger.GetDefault()
	}
	return func(c *gin.Context) {
		start := time.Now()

		id := strings.TrimSpace(c.GetHeader(headerRequestID))
		if id == "" {
			id = uuid.NewString()
		}
		reqLog := log.WithFields(logger.Fields{
			logger.FieldRequestID: id,
			logger.FieldComponent: "engine",
		})
		c.Request = c.Request.WithContext(reqLog.WithContext(c.Request.Context()))
		c.Header(headerRequestID, id)

		c.Next()

		reqLog.WithFields(logger.Fields{
			logger.FieldStatus:     c.Writer.Status(),
			logger.FieldDurationMs: time.Since(start).Milliseconds(),
			"method":               c.Request.Method,
			"path":                 c.Request.URL.Path,
		}).Info("http")
	}
}

// Recover turns a handler panic into a 500 with the error envelope.
func Recover() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, rec any) {
		logger.FromContext(c.Request.Context()).
			WithField("panic", rec).
			WithField("path", c.Request.URL.Path).
			Error("panic")
		writeError(c, http.StatusInternalServerError, "internal_error", "internal server error")
	})
}

// Cors lets the listed origins call the engine from a browser context.
// A request carrying any other Origin is refused before routing, preflight
// included. Requests without an Origin header, such as the CLI, pass.
func Cors(allowed []string) gin.HandlerFunc {
	ok := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			ok[o] = true
		}
	}
	return func(c *gin.Context) {
		if origin := c.GetHeader("Origin"); origin != "" {
			if !ok[origin] {
				writeError(c, http.StatusForbidden, "forbidden_origin", "origin "+origin+" is not allowed")
				return
			}
			h := c.Writer.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Vary", "Origin")
			h.Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
			h.Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
			h.Set("Access-Control-Expose-Headers", headerRequestID)
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// requireJSON answers 415 unless the request body is declared as JSON.
// Cross-site pages can only send text/plain, form or multipart bodies
// without a preflight.
func requireJSON(c *gin.Context) bool {
	if c.ContentType() == binding.MIMEJSON {
		return true
	}
	writeError(c, http.StatusUnsupportedMediaType, "unsupported_media_type", "Content-Type must be application/json")
	return false
}
