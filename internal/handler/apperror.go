package handler

import "net/http"

type AppError struct {
	Status  int
	Code    string
	Message string
}

func (e *AppError) Error() string { return e.Message }

var (
	ErrInvalidRequest   = &AppError{http.StatusUnprocessableEntity, "INVALID_REQUEST", "Invalid request body"}
	ErrValidationFailed = &AppError{http.StatusUnprocessableEntity, "VALIDATION_FAILED", "Validation failed"}
	ErrInternalError    = &AppError{http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred"}

	ErrAccountNotFound    = &AppError{http.StatusNotFound, "ACCOUNT_NOT_FOUND", "Account not found"}
	ErrInsufficientLimit  = &AppError{http.StatusUnprocessableEntity, "INSUFFICIENT_LIMIT", "Debit would exceed the account limit"}
	ErrBalanceOutOfRange  = &AppError{http.StatusUnprocessableEntity, "BALANCE_OUT_OF_RANGE", "Credit would exceed the maximum balance"}
	ErrInvalidAmount      = &AppError{http.StatusUnprocessableEntity, "INVALID_AMOUNT", "Amount is out of range"}
	ErrInvalidKind        = &AppError{http.StatusUnprocessableEntity, "INVALID_KIND", "Kind must be c or d"}
	ErrInvalidDescription = &AppError{http.StatusUnprocessableEntity, "INVALID_DESCRIPTION", "Description must have 1 to 10 characters"}
	ErrStorageUnavailable = &AppError{http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE", "Storage is unavailable, please retry"}
	ErrRequestAbandoned   = &AppError{http.StatusServiceUnavailable, "REQUEST_ABANDONED", "Request was cancelled or timed out"}
)
