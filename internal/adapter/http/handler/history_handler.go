package handler

import (
	"strconv"

	"wallet-transaction-service/internal/adapter/http/dto"
	"wallet-transaction-service/internal/core/domain"
	"wallet-transaction-service/internal/core/ports"
	"wallet-transaction-service/pkg/apperror"
	"wallet-transaction-service/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// HistoryHandler handles the read-only transaction record endpoints.
type HistoryHandler struct {
	historySvc ports.HistoryService
}

// NewHistoryHandler creates a new HistoryHandler.
func NewHistoryHandler(historySvc ports.HistoryService) *HistoryHandler {
	return &HistoryHandler{historySvc: historySvc}
}

// ListTransactions handles GET /api/v1/transactions.
func (h *HistoryHandler) ListTransactions(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	params := ports.TransactionListParams{
		UserID:   userID,
		Page:     queryInt(c, "page", 1),
		PageSize: queryInt(c, "page_size", 20),
	}
	if s := c.Query("status"); s != "" {
		status := domain.TransactionStatus(s)
		params.Status = &status
	}
	if t := c.Query("type"); t != "" {
		txType := domain.TransactionType(t)
		params.Type = &txType
	}
	if from := c.Query("from"); from != "" {
		ts, err := strconv.ParseInt(from, 10, 64)
		if err != nil {
			response.Error(c, apperror.Validation("invalid from timestamp"))
			return
		}
		params.From = &ts
	}
	if to := c.Query("to"); to != "" {
		ts, err := strconv.ParseInt(to, 10, 64)
		if err != nil {
			response.Error(c, apperror.Validation("invalid to timestamp"))
			return
		}
		params.To = &ts
	}

	txns, total, err := h.historySvc.ListTransactions(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.TransactionResponse, 0, len(txns))
	for i := range txns {
		items = append(items, dto.FromTransaction(&txns[i]))
	}
	response.OK(c, dto.NewPageResponse(items, total, params.Page, params.PageSize))
}

// GetTransaction handles GET /api/v1/transactions/:id.
func (h *HistoryHandler) GetTransaction(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid transaction id"))
		return
	}

	txn, err := h.historySvc.GetTransaction(c.Request.Context(), userID, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.FromTransaction(txn))
}

// ListLedger handles GET /api/v1/wallets/:walletId/ledger.
func (h *HistoryHandler) ListLedger(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	walletID, err := uuid.Parse(c.Param("walletId"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid wallet id"))
		return
	}

	page := queryInt(c, "page", 1)
	pageSize := queryInt(c, "page_size", 20)

	entries, total, err := h.historySvc.ListLedger(c.Request.Context(), walletID, page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.LedgerEntryResponse, 0, len(entries))
	for i := range entries {
		items = append(items, dto.FromLedgerEntry(&entries[i]))
	}
	response.OK(c, dto.NewPageResponse(items, total, page, pageSize))
}

// ListContacts handles GET /api/v1/contacts.
func (h *HistoryHandler) ListContacts(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	contacts, err := h.historySvc.ListContacts(c.Request.Context(), userID, queryInt(c, "limit", 20))
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.ContactResponse, 0, len(contacts))
	for i := range contacts {
		items = append(items, dto.FromContact(&contacts[i]))
	}
	response.OK(c, items)
}

func queryInt(c *gin.Context, name string, fallback int) int {
	v := c.Query(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
