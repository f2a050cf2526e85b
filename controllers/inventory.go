package controllers

import (
	"context"
	"net/http"

	"laundromat/models"

	"github.com/gin-gonic/gin"
)

type InventoryService interface {
	List(ctx context.Context) ([]models.InventoryItem, error)
	LowStock(ctx context.Context) ([]models.InventoryItem, error)
	Create(ctx context.Context, item models.InventoryItem) (*models.InventoryItem, error)
	Update(ctx context.Context, id string, item models.InventoryItem) (*models.InventoryItem, error)
	Delete(ctx context.Context, id string) error
	Adjust(ctx context.Context, id string, adj models.StockAdjustment) (*models.InventoryItem, *models.InventoryLog, error)
	Logs(ctx context.Context, itemID string) ([]models.InventoryLog, error)
}

type InventoryController struct {
	svc InventoryService
}

func NewInventoryController(svc InventoryService) *InventoryController {
	return &InventoryController{svc: svc}
}

func (h *InventoryController) List(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	items, err := h.svc.List(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *InventoryController) LowStock(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	items, err := h.svc.LowStock(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *InventoryController) Create(c *gin.Context) {
	var item models.InventoryItem
	if err := c.ShouldBindJSON(&item); err != nil {
		respondBindError(c, err)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	created, err := h.svc.Create(ctx, item)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *InventoryController) Update(c *gin.Context) {
	var item models.InventoryItem
	if err := c.ShouldBindJSON(&item); err != nil {
		respondBindError(c, err)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	updated, err := h.svc.Update(ctx, c.Param("id"), item)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *InventoryController) Delete(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.svc.Delete(ctx, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Item deleted successfully"})
}

func (h *InventoryController) Adjust(c *gin.Context) {
	var adj models.StockAdjustment
	if err := c.ShouldBindJSON(&adj); err != nil {
		respondBindError(c, err)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	item, log, err := h.svc.Adjust(ctx, c.Param("id"), adj)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"item": item, "log": log})
}

func (h *InventoryController) Logs(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	logs, err := h.svc.Logs(ctx, c.Query("itemId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, logs)
}
