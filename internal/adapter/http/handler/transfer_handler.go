package handler

import (
	"bytes"
	"io"

	"wallet-transaction-service/internal/adapter/http/dto"
	"wallet-transaction-service/internal/adapter/http/middleware"
	"wallet-transaction-service/internal/core/domain"
	"wallet-transaction-service/internal/core/ports"
	"wallet-transaction-service/pkg/apperror"
	"wallet-transaction-service/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransferHandler handles the money-movement endpoints.
type TransferHandler struct {
	transferSvc ports.TransferService
}

// NewTransferHandler creates a new TransferHandler.
func NewTransferHandler(transferSvc ports.TransferService) *TransferHandler {
	return &TransferHandler{transferSvc: transferSvc}
}

// InquireRecipient handles GET /api/v1/transfers/inquiry?phone=...
func (h *TransferHandler) InquireRecipient(c *gin.Context) {
	phone := c.Query("phone")
	if phone == "" {
		response.Error(c, apperror.Validation("phone query parameter is required"))
		return
	}

	result, err := h.transferSvc.InquireRecipient(c.Request.Context(), ports.InquireRequest{
		Phone: phone,
		Token: c.GetString(middleware.CtxToken),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.FromRecipient(result))
}

// InitiateTransfer handles POST /api/v1/transfers.
func (h *TransferHandler) InitiateTransfer(c *gin.Context) {
	userID, key, body, ok := h.mutationPreamble(c)
	if !ok {
		return
	}

	var req dto.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		response.Error(c, apperror.ErrInvalidAmount())
		return
	}

	txn, err := h.transferSvc.InitiateTransfer(c.Request.Context(), ports.InitiateTransferRequest{
		IdempotencyKey:       key,
		RequestHash:          domain.HashRequest(body),
		UserID:               userID,
		WalletID:             req.WalletID,
		CounterpartyUserID:   req.CounterpartyUserID,
		CounterpartyWalletID: req.CounterpartyWalletID,
		Amount:               amount,
		Currency:             req.Currency,
		Description:          req.Description,
		SplitBillID:          req.SplitBillID,
		SplitBillMemberID:    req.SplitBillMemberID,
		Token:                c.GetString(middleware.CtxToken),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.FromTransaction(txn))
}

// InitiateInternalTransfer handles POST /api/v1/transfers/internal.
func (h *TransferHandler) InitiateInternalTransfer(c *gin.Context) {
	userID, key, body, ok := h.mutationPreamble(c)
	if !ok {
		return
	}

	var req dto.InternalTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		response.Error(c, apperror.ErrInvalidAmount())
		return
	}

	txn, err := h.transferSvc.InitiateInternalTransfer(c.Request.Context(), ports.InitiateInternalTransferRequest{
		IdempotencyKey:      key,
		RequestHash:         domain.HashRequest(body),
		UserID:              userID,
		SourceWalletID:      req.SourceWalletID,
		DestinationWalletID: req.DestinationWalletID,
		Amount:              amount,
		Currency:            req.Currency,
		Description:         req.Description,
		Token:               c.GetString(middleware.CtxToken),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.FromTransaction(txn))
}

// ConfirmTransfer handles POST /api/v1/transfers/:id/confirm.
func (h *TransferHandler) ConfirmTransfer(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	txnID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid transaction id"))
		return
	}

	var req dto.ConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	txn, err := h.transferSvc.ConfirmTransfer(c.Request.Context(), ports.ConfirmTransferRequest{
		TransactionID: txnID,
		UserID:        userID,
		PIN:           req.PIN,
		Token:         c.GetString(middleware.CtxToken),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.FromTransaction(txn))
}

// mutationPreamble extracts the caller, idempotency key and raw body shared by
// all mutating endpoints. The raw body is hashed for idempotency comparison,
// then restored for binding.
func (h *TransferHandler) mutationPreamble(c *gin.Context) (uuid.UUID, string, []byte, bool) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return uuid.Nil, "", nil, false
	}

	key := c.GetHeader(middleware.HeaderIdempotencyKey)
	if key == "" {
		response.Error(c, apperror.ErrIdempotencyKeyRequired())
		return uuid.Nil, "", nil, false
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		response.Error(c, apperror.Validation("cannot read request body"))
		return uuid.Nil, "", nil, false
	}
	c.Request.Body = io.NopCloser(bytes.NewReader(body))

	return userID, key, body, true
}

func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(middleware.CtxUserID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}
