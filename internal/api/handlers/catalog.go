package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ledgersync/internal/catalog"
	"ledgersync/internal/logger"
)

// CatalogHandler previews what a sync with the same filters would process.
type CatalogHandler struct {
	reader catalog.Reader
	logger *logger.Logger
}

func NewCatalogHandler(reader catalog.Reader, logger *logger.Logger) *CatalogHandler {
	return &CatalogHandler{
		reader: reader,
		logger: logger,
	}
}

func (h *CatalogHandler) List(c *gin.Context) {
	var q catalog.Query
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	records, err := h.reader.GetProducts(c.Request.Context(), q)
	if err != nil {
		h.logger.Error("Failed to read catalog: %v", err)
		c.JSON(statusFor(err), gin.H{"error": "Failed to read catalog"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  records,
		"count": len(records),
	})
}
