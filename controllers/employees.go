package controllers

import (
	"context"
	"net/http"

	"laundromat/models"

	"github.com/gin-gonic/gin"
)

type EmployeeService interface {
	List(ctx context.Context, status string) ([]models.Employee, error)
	Get(ctx context.Context, id string) (*models.Employee, error)
	Create(ctx context.Context, emp models.Employee) (*models.Employee, error)
	Update(ctx context.Context, id string, upd models.UpdateEmployee) (*models.Employee, error)
	Deactivate(ctx context.Context, id string) error
}

type EmployeeController struct {
	svc EmployeeService
}

func NewEmployeeController(svc EmployeeService) *EmployeeController {
	return &EmployeeController{svc: svc}
}

func (h *EmployeeController) List(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	emps, err := h.svc.List(ctx, c.Query("status"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, emps)
}

func (h *EmployeeController) Get(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	emp, err := h.svc.Get(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, emp)
}

func (h *EmployeeController) Create(c *gin.Context) {
	var emp models.Employee
	if err := c.ShouldBindJSON(&emp); err != nil {
		respondBindError(c, err)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	created, err := h.svc.Create(ctx, emp)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *EmployeeController) Update(c *gin.Context) {
	var upd models.UpdateEmployee
	if err := c.ShouldBindJSON(&upd); err != nil {
		respondBindError(c, err)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	emp, err := h.svc.Update(ctx, c.Param("id"), upd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, emp)
}

// Delete deactivates; employees are never removed.
func (h *EmployeeController) Delete(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.svc.Deactivate(ctx, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Employee deactivated"})
}
