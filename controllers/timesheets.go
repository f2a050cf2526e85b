package controllers

import (
	"context"
	"net/http"

	"laundromat/models"
	"laundromat/services"

	"github.com/gin-gonic/gin"
)

type TimesheetService interface {
	List(ctx context.Context, q services.TimesheetQuery) ([]models.TimesheetEntry, error)
	ClockIn(ctx context.Context, employeeID string) (*models.TimesheetEntry, error)
	ClockOut(ctx context.Context, employeeID string) (*models.TimesheetEntry, error)
	BulkImport(ctx context.Context, req models.BulkTimesheetRequest) (models.BulkTimesheetResult, error)
	PayReport(ctx context.Context, employeeID, startDate, endDate string) (models.PayReport, error)
}

type TimesheetController struct {
	svc TimesheetService
}

func NewTimesheetController(svc TimesheetService) *TimesheetController {
	return &TimesheetController{svc: svc}
}

func (h *TimesheetController) List(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	entries, err := h.svc.List(ctx, services.TimesheetQuery{
		EmployeeID: c.Query("employeeId"),
		Status:     c.Query("status"),
		StartDate:  c.Query("startDate"),
		EndDate:    c.Query("endDate"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (h *TimesheetController) ClockIn(c *gin.Context) {
	var req models.ClockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	entry, err := h.svc.ClockIn(ctx, req.EmployeeID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

func (h *TimesheetController) ClockOut(c *gin.Context) {
	var req models.ClockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	entry, err := h.svc.ClockOut(ctx, req.EmployeeID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (h *TimesheetController) Bulk(c *gin.Context) {
	var req models.BulkTimesheetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	result, err := h.svc.BulkImport(ctx, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *TimesheetController) EmployeeReport(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	report, err := h.svc.PayReport(ctx, c.Param("employeeId"), c.Query("startDate"), c.Query("endDate"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
