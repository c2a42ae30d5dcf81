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

// ---- Request Validation (VAL) ----

func ErrInvalidAmount() *AppError {
	return New("VAL_001", "Invalid amount", http.StatusBadRequest)
}

func ErrAmountOutOfRange(min, max string) *AppError {
	return New("VAL_002", fmt.Sprintf("Amount must be between %s and %s", min, max), http.StatusBadRequest)
}

func ErrSelfTransfer() *AppError {
	return New("VAL_003", "Sender and receiver must differ", http.StatusBadRequest)
}

func ErrSameWallet() *AppError {
	return New("VAL_004", "Source and destination wallet must differ", http.StatusBadRequest)
}

// Validation returns a generic VAL_001-style validation error.
func Validation(message string) *AppError {
	return New("VAL_001", message, http.StatusBadRequest)
}

// ---- Transfer Business Logic (TRF) ----

func ErrInsufficientBalance() *AppError {
	return New("TRF_001", "Insufficient balance in wallet", http.StatusPaymentRequired)
}

func ErrRoleNotPermitted() *AppError {
	return New("TRF_002", "Wallet role does not permit this operation", http.StatusForbidden)
}

func ErrTransferLimitExceeded() *AppError {
	return New("TRF_003", "Transfer limit exceeded", http.StatusUnprocessableEntity)
}

func ErrWalletInactive() *AppError {
	return New("TRF_004", "Wallet is not active", http.StatusUnprocessableEntity)
}

func ErrWalletNotOwned() *AppError {
	return New("TRF_005", "Wallet does not belong to the user", http.StatusForbidden)
}

func ErrNotFound(entity string) *AppError {
	return New("TRF_006", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

func ErrSenderProfileUnavailable(err error) *AppError {
	return Wrap("TRF_007", "Sender profile could not be resolved", http.StatusUnprocessableEntity, err)
}

func ErrTransactionNotConfirmable(status string) *AppError {
	return New("TRF_008", fmt.Sprintf("Transaction in status %s cannot be confirmed", status), http.StatusConflict)
}

func ErrTransferFailed(reason string) *AppError {
	return New("TRF_009", reason, http.StatusUnprocessableEntity)
}

func ErrPreconditionDenied() *AppError {
	return New("TRF_010", "Transfer precondition denied by wallet service", http.StatusUnprocessableEntity)
}

// ---- Idempotency (IDM) ----

func ErrIdempotencyConflict() *AppError {
	return New("IDM_001", "Idempotency key reused with a different request body", http.StatusConflict)
}

func ErrRequestInProgress() *AppError {
	return New("IDM_002", "Request with this idempotency key is already processing", http.StatusConflict)
}

func ErrIdempotencyKeyRequired() *AppError {
	return New("IDM_003", "Idempotency-Key header is required", http.StatusBadRequest)
}

// ---- Authentication (AUTH) ----

func ErrInvalidToken() *AppError {
	return New("AUTH_001", "Invalid or expired token", http.StatusUnauthorized)
}

func ErrInvalidPin() *AppError {
	return New("AUTH_002", "PIN verification failed", http.StatusUnauthorized)
}

// ---- System & Infrastructure (SYS) ----

func ErrDatabaseError(err error) *AppError {
	return Wrap("SYS_001", "Internal database error", http.StatusInternalServerError, err)
}

func ErrUpstreamUnavailable(service string, err error) *AppError {
	return Wrap("SYS_002", fmt.Sprintf("%s service unavailable", service), http.StatusBadGateway, err)
}

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}
