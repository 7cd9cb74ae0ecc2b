package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"ledgersync/internal/catalog"
	"ledgersync/internal/logger"
	"ledgersync/internal/reconcile"
)

// SyncRunner runs one full sync.
type SyncRunner interface {
	Run(ctx context.Context, q catalog.Query) (*reconcile.Report, error)
}

type SyncHandler struct {
	runner SyncRunner
	logger *logger.Logger
}

func NewSyncHandler(runner SyncRunner, logger *logger.Logger) *SyncHandler {
	return &SyncHandler{
		runner: runner,
		logger: logger,
	}
}

// Run triggers a sync with the catalog filters from the optional JSON body.
// The run is not cancelled if the client disconnects.
func (h *SyncHandler) Run(c *gin.Context) {
	var q catalog.Query
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&q); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	report, err := h.runner.Run(context.WithoutCancel(c.Request.Context()), q)
	if err != nil {
		h.logger.Error("Sync failed: %v", err)
		body := gin.H{"error": err.Error()}
		if report != nil {
			body["data"] = report
		}
		c.JSON(statusFor(err), body)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":    report,
		"summary": report.Summary(),
	})
}
