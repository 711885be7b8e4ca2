package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Authentication & Sessions (AUTH) ----

func ErrInvalidCredentials() *AppError {
	return New("AUTH_001", "Invalid credentials", http.StatusUnauthorized)
}

func ErrUsernameExists() *AppError {
	return New("AUTH_002", "Username already exists", http.StatusConflict)
}

func ErrInvalidToken() *AppError {
	return New("AUTH_003", "Invalid or expired token", http.StatusUnauthorized)
}

// ---- PIN Gate (PIN) ----

func ErrInvalidPin(attemptsLeft int64) *AppError {
	return New("PIN_001", fmt.Sprintf("Incorrect PIN, %d attempts remaining", attemptsLeft), http.StatusUnauthorized)
}

func ErrPinLocked() *AppError {
	return New("PIN_002", "Too many failed PIN attempts, wallet temporarily locked", http.StatusForbidden)
}

func ErrWalletSealed() *AppError {
	return New("PIN_003", "Wallet is locked, PIN verification required", http.StatusForbidden)
}

func ErrMalformedPin() *AppError {
	return New("PIN_004", "PIN must be exactly 4 digits", http.StatusBadRequest)
}

// ---- Wallet & Ledger (WAL) ----

func ErrInsufficientBalance() *AppError {
	return New("WAL_001", "Insufficient wallet balance", http.StatusUnprocessableEntity)
}

func ErrInvalidAmount() *AppError {
	return New("WAL_002", "Amount must be greater than zero", http.StatusBadRequest)
}

func ErrWalletNotFound() *AppError {
	return New("WAL_003", "Wallet not found", http.StatusNotFound)
}

func ErrOperationInFlight() *AppError {
	return New("WAL_004", "Another wallet operation is already in progress", http.StatusConflict)
}

// ---- Transfer Workflow (TRF) ----

func ErrInvalidAuthorization() *AppError {
	return New("TRF_001", "Authorization details do not match company records", http.StatusUnauthorized)
}

func ErrBelowMinimum(network string, min string) *AppError {
	return New("TRF_002", fmt.Sprintf("Amount is below the %s network minimum of %s", network, min), http.StatusBadRequest)
}

func ErrInvalidAddress() *AppError {
	return New("TRF_003", "Destination address is empty or malformed", http.StatusBadRequest)
}

func ErrUnknownNetwork(code string) *AppError {
	return New("TRF_004", fmt.Sprintf("Unknown network %q", code), http.StatusBadRequest)
}

func ErrFlowNotFound() *AppError {
	return New("TRF_005", "Transfer not found or expired", http.StatusNotFound)
}

func ErrFlowState(expected string) *AppError {
	return New("TRF_006", fmt.Sprintf("Transfer is not in the %s step", expected), http.StatusConflict)
}

func ErrProcessingInterrupted() *AppError {
	return New("TRF_007", "Transfer processing was interrupted before completion", http.StatusRequestTimeout)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

// ErrStoreUnavailable signals that the wallet record store could not be
// reached. The caller must not report the operation as completed.
func ErrStoreUnavailable(err error) *AppError {
	return Wrap("SYS_002", "Wallet record store unavailable, please retry", http.StatusServiceUnavailable, err)
}

// Validation returns a VAL_001 validation error with a field-specific message.
func Validation(message string) *AppError {
	return New("VAL_001", message, http.StatusBadRequest)
}
