package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"ledgersync/internal/logger"
	"ledgersync/internal/synclog"
)

type LogHandler struct {
	log    *synclog.Writer
	logger *logger.Logger
}

func NewLogHandler(log *synclog.Writer, logger *logger.Logger) *LogHandler {
	return &LogHandler{
		log:    log,
		logger: logger,
	}
}

func (h *LogHandler) List(c *gin.Context) {
	files, err := h.log.List()
	if err != nil {
		h.logger.Error("Failed to list sync logs: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list logs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": files})
}

func (h *LogHandler) Download(c *gin.Context) {
	name := c.Param("name")
	f, err := h.log.Open(name)
	if err != nil {
		h.respondError(c, err)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.DataFromReader(http.StatusOK, info.Size(), "text/plain; charset=utf-8", f, map[string]string{
		"Content-Disposition": fmt.Sprintf(`attachment; filename="%s"`, name),
	})
}

func (h *LogHandler) Delete(c *gin.Context) {
	if err := h.log.Delete(c.Param("name")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *LogHandler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, synclog.ErrInvalidName):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, synclog.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Log file not found"})
	default:
		h.logger.Error("Sync log access failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to access log file"})
	}
}
