package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"ledgersync/internal/database"
	"ledgersync/internal/logger"
	"ledgersync/internal/models"
)

// ProductHandler manages the local catalog used by the database catalog source.
type ProductHandler struct {
	db     *gorm.DB
	logger *logger.Logger
}

func NewProductHandler(db *gorm.DB, logger *logger.Logger) *ProductHandler {
	return &ProductHandler{
		db:     db,
		logger: logger,
	}
}

type productRequest struct {
	// ID is honoured on create only; it defaults to a new uuid.
	ID          string `json:"id"`
	ExternalID  string `json:"external_id"`
	SKU         string `json:"sku"`
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Supplier    string `json:"supplier"`
	CategoryID  string `json:"category_id"`
	ImageURL    string `json:"image_url"`
	ParentID    string `json:"parent_id"`
}

func (r *productRequest) apply(p *models.Product) {
	p.ExternalID = r.ExternalID
	p.SKU = strings.TrimSpace(r.SKU)
	p.Name = r.Name
	p.Description = r.Description
	p.Supplier = r.Supplier
	p.CategoryID = r.CategoryID
	p.ImageURL = r.ImageURL
	p.ParentID = r.ParentID
}

func (h *ProductHandler) List(c *gin.Context) {
	var products []models.Product

	// Pagination
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 20
	}
	offset := (page - 1) * limit

	// Filters
	supplier := c.Query("supplier")
	search := strings.ToLower(c.Query("search"))

	query := h.db.WithContext(c.Request.Context()).Model(&models.Product{})

	if supplier != "" {
		query = query.Where("supplier = ?", supplier)
	}

	if search != "" {
		query = query.Where("LOWER(name) LIKE ? OR LOWER(sku) LIKE ?", "%"+search+"%", "%"+search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		h.logger.Error("Failed to count products: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
		return
	}

	if err := query.Order("created_at, id").Offset(offset).Limit(limit).Find(&products).Error; err != nil {
		h.logger.Error("Failed to fetch products: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": products,
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

func (h *ProductHandler) Get(c *gin.Context) {
	product, ok := h.find(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": product})
}

func (h *ProductHandler) Create(c *gin.Context) {
	var request productRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	product := models.Product{ID: request.ID}
	request.apply(&product)
	if err := h.db.WithContext(c.Request.Context()).Create(&product).Error; err != nil {
		h.respondWriteError(c, err, "Failed to create product")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": product})
}

func (h *ProductHandler) Update(c *gin.Context) {
	product, ok := h.find(c)
	if !ok {
		return
	}

	var request productRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	request.apply(product)

	if err := h.db.WithContext(c.Request.Context()).Save(product).Error; err != nil {
		h.respondWriteError(c, err, "Failed to update product")
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": product})
}

func (h *ProductHandler) Delete(c *gin.Context) {
	result := h.db.WithContext(c.Request.Context()).Delete(&models.Product{}, "id = ?", c.Param("id"))
	if result.Error != nil {
		h.logger.Error("Failed to delete product: %v", result.Error)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete product"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *ProductHandler) find(c *gin.Context) (*models.Product, bool) {
	var product models.Product
	if err := h.db.WithContext(c.Request.Context()).First(&product, "id = ?", c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return nil, false
		}
		h.logger.Error("Failed to fetch product: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch product"})
		return nil, false
	}
	return &product, true
}

func (h *ProductHandler) respondWriteError(c *gin.Context, err error, msg string) {
	if database.IsUniqueViolation(err) {
		c.JSON(http.StatusConflict, gin.H{"error": "Product already exists"})
		return
	}
	h.logger.Error("%s: %v", msg, err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
}
