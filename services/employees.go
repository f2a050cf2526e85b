package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"laundromat/apperror"
	"laundromat/models"
	"laundromat/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type EmployeeService struct {
	employees store.EmployeeStore
	now       func() time.Time
}

func NewEmployeeService(employees store.EmployeeStore) *EmployeeService {
	return &EmployeeService{employees: employees, now: time.Now}
}

func (s *EmployeeService) List(ctx context.Context, status string) ([]models.Employee, error) {
	if status != "" && status != models.EmployeeActive && status != models.EmployeeInactive {
		return nil, apperror.InvalidField("status")
	}
	emps, err := s.employees.List(ctx, status)
	if err != nil {
		return nil, apperror.Internal(err, "Error fetching employees")
	}
	return emps, nil
}

func (s *EmployeeService) Get(ctx context.Context, id string) (*models.Employee, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperror.NotFound("Employee not found")
	}
	emp, err := s.employees.FindByID(ctx, oid)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperror.NotFound("Employee not found")
	}
	if err != nil {
		return nil, apperror.Internal(err, "Error fetching employee")
	}
	return emp, nil
}

func (s *EmployeeService) Create(ctx context.Context, emp models.Employee) (*models.Employee, error) {
	emp.Name = strings.TrimSpace(emp.Name)
	if emp.Name == "" {
		return nil, apperror.RequiredField("name")
	}

	_, err := s.employees.FindByName(ctx, emp.Name)
	if err == nil {
		return nil, apperror.ErrEmployeeExists
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, apperror.Internal(err, "Error checking employee")
	}

	emp.ID = primitive.NilObjectID
	emp.Status = models.EmployeeActive
	emp.CreatedAt = s.now()
	if err := s.employees.Insert(ctx, &emp); err != nil {
		return nil, apperror.Internal(err, "Error creating employee")
	}
	return &emp, nil
}

func (s *EmployeeService) Update(ctx context.Context, id string, upd models.UpdateEmployee) (*models.Employee, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperror.NotFound("Employee not found")
	}
	upd.Name = strings.TrimSpace(upd.Name)
	err = s.employees.Update(ctx, oid, upd, s.now())
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperror.NotFound("Employee not found")
	}
	if err != nil {
		return nil, apperror.Internal(err, "Error updating employee")
	}
	return s.Get(ctx, id)
}

// Deactivate is the delete of the back office; history keeps pointing at the record.
func (s *EmployeeService) Deactivate(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return apperror.NotFound("Employee not found")
	}
	err = s.employees.SetStatus(ctx, oid, models.EmployeeInactive, s.now())
	if errors.Is(err, store.ErrNotFound) {
		return apperror.NotFound("Employee not found")
	}
	if err != nil {
		return apperror.Internal(err, "Error deactivating employee")
	}
	return nil
}
