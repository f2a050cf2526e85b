package controllers

import (
	"context"
	"fmt"
	"net/http"

	"laundromat/models"

	"github.com/gin-gonic/gin"
)

type SalesService interface {
	List(ctx context.Context, startDate, endDate string) ([]models.SaleEntry, error)
	Summary(ctx context.Context, startDate, endDate string) (models.SalesSummary, error)
	Get(ctx context.Context, id string) (*models.SaleEntry, error)
	Create(ctx context.Context, sale models.SaleEntry) (*models.SaleEntry, error)
	Update(ctx context.Context, id string, sale models.SaleEntry) (*models.SaleEntry, error)
	Delete(ctx context.Context, id string) error
	BulkCreate(ctx context.Context, entries []models.SaleEntry) (models.BulkSalesResult, error)
	Export(ctx context.Context, startDate, endDate string) ([]byte, error)
}

type SalesController struct {
	svc SalesService
}

func NewSalesController(svc SalesService) *SalesController {
	return &SalesController{svc: svc}
}

func (h *SalesController) List(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	sales, err := h.svc.List(ctx, c.Query("startDate"), c.Query("endDate"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sales)
}

func (h *SalesController) Summary(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	sum, err := h.svc.Summary(ctx, c.Query("startDate"), c.Query("endDate"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

func (h *SalesController) Get(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	sale, err := h.svc.Get(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sale)
}

func (h *SalesController) Create(c *gin.Context) {
	var sale models.SaleEntry
	if err := c.ShouldBindJSON(&sale); err != nil {
		respondBindError(c, err)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	created, err := h.svc.Create(ctx, sale)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *SalesController) Update(c *gin.Context) {
	var sale models.SaleEntry
	if err := c.ShouldBindJSON(&sale); err != nil {
		respondBindError(c, err)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	updated, err := h.svc.Update(ctx, c.Param("id"), sale)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *SalesController) Delete(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.svc.Delete(ctx, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Sale deleted successfully"})
}

func (h *SalesController) Bulk(c *gin.Context) {
	var req models.BulkSalesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	result, err := h.svc.BulkCreate(ctx, req.Entries)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (h *SalesController) Export(c *gin.Context) {
	start, end := c.Query("startDate"), c.Query("endDate")

	ctx, cancel := requestContext(c)
	defer cancel()

	data, err := h.svc.Export(ctx, start, end)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="sales_%s_%s.xlsx"`, start, end))
	c.Data(http.StatusOK, xlsxContentType, data)
}
