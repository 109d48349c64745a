package httpapi

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"

	"jobtracker/internal/domain"
	"jobtracker/internal/events"
	"jobtracker/internal/intake"
	"jobtracker/internal/logger"
	"jobtracker/internal/scheduler"
)

// IntakeHandler serves every endpoint that writes to the tracker. Calls are
// serialized: the pipeline and the clients behind it are used by one request
// at a time.
type IntakeHandler struct {
	mu            *sync.Mutex
	intake        Intake
	mailbox       MailboxRunner
	mailboxStatus func() scheduler.Status
	hub           *events.Hub
	uploadDir     string
}

func NewIntakeHandler(d Deps) *IntakeHandler {
	mu := d.IntakeLock
	if mu == nil {
		mu = new(sync.Mutex)
	}
	return &IntakeHandler{
		mu:            mu,
		intake:        d.Intake,
		mailbox:       d.Mailbox,
		mailboxStatus: d.MailboxStatus,
		hub:           d.Hub,
		uploadDir:     d.UploadDir,
	}
}

type addJobRequest struct {
	URL string `json:"url"`
}

type importRequest struct {
	Path string `json:"path"`
}

// AddJob handles POST /api/v1/jobs.
func (h *IntakeHandler) AddJob(c *gin.Context) {
	if !requireJSON(c) {
		return
	}
	var req addJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "bad_request", "invalid request body: "+err.Error())
		return
	}

	h.mu.Lock()
	ok, msg := h.intake.AddSingle(c.Request.Context(), req.URL, domain.SourceGUI)
	h.mu.Unlock()

	if ok {
		c.JSON(http.StatusCreated, gin.H{"ok": true, "message": msg})
		return
	}
	switch msg {
	case intake.MsgNoURL:
		writeError(c, http.StatusBadRequest, "missing_url", msg)
	case intake.MsgNotFound:
		writeError(c, http.StatusUnprocessableEntity, "job_not_found", msg)
	default:
		writeError(c, http.StatusBadGateway, "sheet_error", msg)
	}
}

// Import handles POST /api/v1/imports. The file is either uploaded as the
// multipart field "file" or named by a local path in a JSON body. Browser
// clients must upload: the path form is refused when an Origin is present.
func (h *IntakeHandler) Import(c *gin.Context) {
	path, cleanup, ok := h.importPath(c)
	if !ok {
		return
	}
	defer cleanup()

	ctx := c.Request.Context()
	h.mu.Lock()
	added, err := h.intake.AddBulk(ctx, path, domain.SourceGUIImport)
	h.mu.Unlock()

	fin := events.ImportFinished{Added: added}
	if err != nil {
		fin.Error = err.Error()
	}
	h.emit(ctx, events.TypeImportFinished, fin)

	if err != nil {
		status, code := importErrorStatus(err)
		writeError(c, status, code, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"added": added})
}

func (h *IntakeHandler) importPath(c *gin.Context) (path string, cleanup func(), ok bool) {
	noop := func() {}
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		if !requireJSON(c) {
			return "", noop, false
		}
		if c.GetHeader("Origin") != "" {
			writeError(c, http.StatusForbidden, "path_import_forbidden", "browser clients must upload the file")
			return "", noop, false
		}
		var req importRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, http.StatusBadRequest, "bad_request", "invalid request body: "+err.Error())
			return "", noop, false
		}
		return req.Path, noop, true
	}

	fh, err := c.FormFile("file")
	if err != nil {
		writeError(c, http.StatusBadRequest, "missing_file", "multipart field \"file\" is required")
		return "", noop, false
	}
	// Keep the extension: it selects the CSV or plain-text reader.
	tmp, err := os.CreateTemp(h.uploadDir, "import-*"+filepath.Ext(fh.Filename))
	if err != nil {
		writeError(c, http.StatusInternalServerError, "upload_failed", err.Error())
		return "", noop, false
	}
	tmpPath := tmp.Name()
	_ = tmp.Close()
	cleanup = func() { _ = os.Remove(tmpPath) }

	if err := c.SaveUploadedFile(fh, tmpPath); err != nil {
		cleanup()
		writeError(c, http.StatusInternalServerError, "upload_failed", err.Error())
		return "", noop, false
	}
	return tmpPath, cleanup, true
}

func importErrorStatus(err error) (int, string) {
	var persistErr *intake.PersistError
	switch {
	case errors.Is(err, intake.ErrNoFilePath):
		return http.StatusBadRequest, "missing_path"
	case errors.Is(err, intake.ErrFileNotFound):
		return http.StatusNotFound, "file_not_found"
	case errors.Is(err, intake.ErrNoURLs):
		return http.StatusUnprocessableEntity, "no_urls"
	case errors.As(err, &persistErr):
		return http.StatusBadGateway, "sheet_error"
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, "canceled"
	default:
		return http.StatusBadRequest, "read_failed"
	}
}

// RunMailbox handles POST /api/v1/mailbox/run.
func (h *IntakeHandler) RunMailbox(c *gin.Context) {
	if h.mailbox == nil {
		writeError(c, http.StatusNotFound, "mailbox_disabled", "mailbox import is not enabled")
		return
	}
	if c.Request.ContentLength != 0 && !requireJSON(c) {
		return
	}

	ctx := c.Request.Context()
	h.mu.Lock()
	res, err := h.mailbox.Run(ctx)
	h.mu.Unlock()

	fin := events.ImportFinished{Added: res.Added}
	if err != nil {
		fin.Error = err.Error()
	}
	h.emit(ctx, events.TypeMailboxFinished, fin)

	if err != nil {
		logger.FromContext(ctx).WithError(err).Error("mailbox import failed")
		var persistErr *intake.PersistError
		if errors.As(err, &persistErr) {
			writeError(c, http.StatusBadGateway, "sheet_error", err.Error())
			return
		}
		writeError(c, http.StatusBadGateway, "mailbox_error", err.Error())
		return
	}
	c.JSON(http.StatusOK, res)
}

// MailboxStatus handles GET /api/v1/mailbox/status.
func (h *IntakeHandler) MailboxStatus(c *gin.Context) {
	if h.mailbox == nil || h.mailboxStatus == nil {
		writeError(c, http.StatusNotFound, "mailbox_disabled", "mailbox import is not enabled")
		return
	}
	c.JSON(http.StatusOK, h.mailboxStatus())
}

func (h *IntakeHandler) emit(ctx context.Context, typ string, data any) {
	if h.hub != nil {
		h.hub.Emit(logger.GetRequestID(ctx), typ, data)
	}
}
