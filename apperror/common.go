package apperror

import "net/http"

var (
	ErrNotFound = New(
		CodeNotFound,
		"Resource not found",
		http.StatusNotFound,
	)

	ErrInternal = New(
		CodeInternalError,
		"An unexpected error occurred",
		http.StatusInternalServerError,
	)

	ErrInvalidInput = New(
		CodeInvalidInput,
		"The provided input is invalid",
		http.StatusBadRequest,
	)

	ErrSyncPayload = New(CodeSyncPayload, "Invalid sync payload", http.StatusBadRequest)

	ErrEmployeeExists   = New(CodeEmployeeExists, "Employee with this name already exists", http.StatusConflict)
	ErrAlreadyClockedIn = New(CodeAlreadyClockedIn, "Employee is already clocked in", http.StatusBadRequest)
	ErrNoOpenShift      = New(CodeNoOpenShift, "No active clock-in found", http.StatusBadRequest)
)

// StockOutOfRange rejects stock levels below zero or above the item's maximum.
func StockOutOfRange(message string) *AppError {
	return New(CodeStockOutOfRange, message, http.StatusBadRequest)
}

func RequiredField(field string) *AppError {
	return New(CodeInvalidInput, field+" is required", http.StatusBadRequest)
}

func InvalidField(field string) *AppError {
	return New(CodeInvalidInput, field+" is invalid", http.StatusBadRequest)
}
