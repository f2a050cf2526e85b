package apperror

// Codes travel in AppError.Code and the logs; the JSON body only carries Message.
const (
	// Request shape
	CodeInvalidInput = "INVALID_INPUT"
	CodeNotFound     = "NOT_FOUND"
	CodeSyncPayload  = "INVALID_SYNC_PAYLOAD"

	// Counter rules
	CodeEmployeeExists   = "EMPLOYEE_EXISTS"
	CodeAlreadyClockedIn = "ALREADY_CLOCKED_IN"
	CodeNoOpenShift      = "NO_OPEN_SHIFT"
	CodeStockOutOfRange  = "STOCK_OUT_OF_RANGE"

	CodeInternalError = "INTERNAL_ERROR"
)
