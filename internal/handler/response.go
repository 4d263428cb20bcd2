package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/josh-kwaku/credit-ledger/internal/domain"
)

type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data"`
	Error   *APIError `json:"error"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func RespondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func RespondAppError(w http.ResponseWriter, appErr *AppError, details any) {
	RespondJSON(w, appErr.Status, APIResponse{
		Success: false,
		Data:    nil,
		Error: &APIError{
			Code:    appErr.Code,
			Message: appErr.Message,
			Details: details,
		},
	})
}

func RespondValidationError(w http.ResponseWriter, fields []FieldError) {
	RespondAppError(w, ErrValidationFailed, fields)
}

func RespondDomainError(w http.ResponseWriter, err error) {
	RespondAppError(w, appErrorFor(err), nil)
}

func appErrorFor(err error) *AppError {
	switch {
	case errors.Is(err, domain.ErrAccountNotFound):
		return ErrAccountNotFound
	case errors.Is(err, domain.ErrOverdraft):
		return ErrInsufficientLimit
	case errors.Is(err, domain.ErrBalanceOutOfRange):
		return ErrBalanceOutOfRange
	case errors.Is(err, domain.ErrInvalidAmount):
		return ErrInvalidAmount
	case errors.Is(err, domain.ErrInvalidKind):
		return ErrInvalidKind
	case errors.Is(err, domain.ErrInvalidDescription):
		return ErrInvalidDescription
	case errors.Is(err, domain.ErrValidation):
		return ErrValidationFailed
	case errors.Is(err, domain.ErrStorageUnavailable):
		return ErrStorageUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ErrRequestAbandoned
	default:
		slog.Error("unhandled domain error", "error", err)
		return ErrInternalError
	}
}
