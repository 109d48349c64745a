package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"jobtracker/internal/store"
)

type HistoryHandler struct {
	history History
}

func NewHistoryHandler(h History) *HistoryHandler {
	return &HistoryHandler{history: h}
}

// List handles GET /api/v1/history?limit=&outcome=.
func (h *HistoryHandler) List(c *gin.Context) {
	if h.history == nil {
		writeError(c, http.StatusNotFound, "journal_disabled", "the intake journal is not enabled")
		return
	}

	var opts store.ListOpts
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			writeError(c, http.StatusBadRequest, "bad_limit", "limit must be a non-negative integer")
			return
		}
		opts.Limit = n
	}
	if s := c.Query("outcome"); s != "" {
		opts.Outcome = store.Outcome(s)
		if !opts.Outcome.Valid() {
			writeError(c, http.StatusBadRequest, "bad_outcome", "outcome must be added, unresolved or failed")
			return
		}
	}
	opts.BatchID = c.Query("batch")

	entries, err := h.history.List(c.Request.Context(), opts)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "journal_error", err.Error())
		return
	}
	if entries == nil {
		entries = []store.Entry{}
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}
