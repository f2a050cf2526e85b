package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	EmployeeActive   = "active"
	EmployeeInactive = "inactive"
)

type Employee struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name          string             `bson:"name" json:"name" binding:"required"`
	ContactNumber string             `bson:"contactNumber" json:"contactNumber"`
	Address       string             `bson:"address" json:"address"`
	Role          string             `bson:"role" json:"role"`
	Status        string             `bson:"status" json:"status"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}

type UpdateEmployee struct {
	Name          string `json:"name,omitempty"`
	ContactNumber string `json:"contactNumber,omitempty"`
	Address       string `json:"address,omitempty"`
	Role          string `json:"role,omitempty"`
	Status        string `json:"status,omitempty" binding:"omitempty,oneof=active inactive"`
}
