package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"marketbridge/internal/database"
	"marketbridge/internal/logger"
	"marketbridge/internal/models"

	"github.com/gin-gonic/gin"
)

type ImportStore interface {
	ListImports(ctx context.Context, f database.ListFilter) ([]models.ImportRecord, int64, error)
	GetImport(ctx context.Context, id string) (*models.ImportRecord, error)
}

type Runner interface {
	RunForBrand(ctx context.Context, brand, itemID string) models.PipelineResult
}

type ImportHandler struct {
	store  ImportStore
	runner Runner
	logger *logger.Logger
}

func NewImportHandler(store ImportStore, runner Runner, logger *logger.Logger) *ImportHandler {
	return &ImportHandler{
		store:  store,
		runner: runner,
		logger: logger,
	}
}

func (h *ImportHandler) List(c *gin.Context) {
	// Pagination
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 20
	}

	// Filters
	filter := database.ListFilter{
		Brand:  c.Query("brand"),
		ItemID: c.Query("item_id"),
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
	if status := strings.ToUpper(c.Query("status")); status != "" {
		switch models.ImportStatus(status) {
		case models.ImportStatusSucceeded, models.ImportStatusFailed:
			filter.Status = models.ImportStatus(status)
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "status must be SUCCEEDED or FAILED"})
			return
		}
	}

	records, total, err := h.store.ListImports(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to list imports: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch imports"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": records,
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
			"total": total,
			"pages": (total + int64(limit) - 1) / int64(limit),
		},
	})
}

func (h *ImportHandler) Get(c *gin.Context) {
	record, err := h.store.GetImport(c.Request.Context(), c.Param("id"))
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Import not found"})
		return
	}
	if err != nil {
		h.logger.Error("Failed to get import: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch import"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": record})
}

type createImportRequest struct {
	ItemID string `json:"item_id" binding:"required"`
	Brand  string `json:"brand"`
}

// Create runs the pipeline for one item and waits for it to finish.
func (h *ImportHandler) Create(c *gin.Context) {
	var req createImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	itemID := strings.TrimSpace(req.ItemID)
	if itemID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "item_id is required"})
		return
	}

	h.logger.Info("Import requested for item %s", itemID)
	res := h.runner.RunForBrand(c.Request.Context(), strings.TrimSpace(req.Brand), itemID)

	status := http.StatusCreated
	if !res.Success {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, gin.H{"data": res})
}
