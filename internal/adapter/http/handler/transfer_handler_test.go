package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"wallet-transaction-service/internal/adapter/http/middleware"
	"wallet-transaction-service/internal/core/domain"
	"wallet-transaction-service/internal/core/ports"
	"wallet-transaction-service/internal/core/ports/mocks"
	"wallet-transaction-service/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// authAs injects the authenticated caller the way JWTAuth would.
func authAs(userID uuid.UUID) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.CtxUserID, userID)
		c.Set(middleware.CtxToken, "caller-token")
		c.Next()
	}
}

func transferRouter(userID uuid.UUID, svc ports.TransferService) *gin.Engine {
	r := gin.New()
	h := NewTransferHandler(svc)
	g := r.Group("/api/v1", authAs(userID))
	g.GET("/transfers/inquiry", h.InquireRecipient)
	g.POST("/transfers", h.InitiateTransfer)
	g.POST("/transfers/internal", h.InitiateInternalTransfer)
	g.POST("/transfers/:id/confirm", h.ConfirmTransfer)
	return r
}

func successfulTransaction(userID uuid.UUID) *domain.Transaction {
	return &domain.Transaction{
		ID:               uuid.New(),
		TransactionRef:   "TRF-1700000000000-AB12CD34EF",
		IdempotencyKey:   "key-1",
		Type:             domain.TransactionTypeTransferOut,
		Status:           domain.TransactionStatusPending,
		Amount:           decimal.NewFromInt(50000),
		Fee:              decimal.NewFromInt(1000),
		TotalAmount:      decimal.NewFromInt(51000),
		Currency:         "IDR",
		UserID:           userID,
		WalletID:         uuid.New(),
		CounterpartyName: "Budi",
		Metadata:         map[string]string{"description": "lunch"},
		CreatedAt:        time.Now().UTC(),
	}
}

func TestTransferHandler_InquireRecipient(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	svc := mocks.NewMockTransferService(ctrl)
	userID := uuid.New()
	r := transferRouter(userID, svc)

	recipientID := uuid.New()
	walletID := uuid.New()
	svc.EXPECT().InquireRecipient(gomock.Any(), ports.InquireRequest{Phone: "+628123456789", Token: "caller-token"}).
		Return(&ports.RecipientInfo{
			Profile: ports.UserProfile{ID: recipientID, Name: "Budi", PhoneNumber: "+628123456789"},
			Wallet:  ports.WalletSummary{ID: walletID, UserID: recipientID, Name: "Daily", Currency: "IDR"},
		}, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/transfers/inquiry?phone=%2B628123456789", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data struct {
			Name     string `json:"name"`
			WalletID string `json:"wallet_id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Budi", resp.Data.Name)
	assert.Equal(t, walletID.String(), resp.Data.WalletID)
}

func TestTransferHandler_InquireRecipient_MissingPhone(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	svc := mocks.NewMockTransferService(ctrl)
	r := transferRouter(uuid.New(), svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/transfers/inquiry", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTransferHandler_InitiateTransfer(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	svc := mocks.NewMockTransferService(ctrl)
	userID := uuid.New()
	r := transferRouter(userID, svc)

	walletID := uuid.New()
	counterpartyUserID := uuid.New()
	counterpartyWalletID := uuid.New()

	body, err := json.Marshal(map[string]any{
		"wallet_id":              walletID,
		"counterparty_user_id":   counterpartyUserID,
		"counterparty_wallet_id": counterpartyWalletID,
		"amount":                 "50000",
		"description":            "lunch",
	})
	require.NoError(t, err)

	var captured ports.InitiateTransferRequest
	svc.EXPECT().InitiateTransfer(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ any, req ports.InitiateTransferRequest) (*domain.Transaction, error) {
			captured = req
			return successfulTransaction(userID), nil
		})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/transfers", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.HeaderIdempotencyKey, "key-1")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	assert.Equal(t, "key-1", captured.IdempotencyKey)
	assert.Equal(t, domain.HashRequest(body), captured.RequestHash)
	assert.Equal(t, userID, captured.UserID)
	assert.Equal(t, walletID, captured.WalletID)
	assert.True(t, captured.Amount.Equal(decimal.NewFromInt(50000)))
	assert.Equal(t, "lunch", captured.Description)
	assert.Equal(t, "caller-token", captured.Token)

	var resp struct {
		Data struct {
			TransactionRef string `json:"transaction_ref"`
			Status         string `json:"status"`
			Description    string `json:"description"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "TRF-1700000000000-AB12CD34EF", resp.Data.TransactionRef)
	assert.Equal(t, "PENDING", resp.Data.Status)
	assert.Equal(t, "lunch", resp.Data.Description)
}

func TestTransferHandler_InitiateTransfer_MissingIdempotencyKey(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	svc := mocks.NewMockTransferService(ctrl)
	r := transferRouter(uuid.New(), svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/transfers", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp struct {
		ErrorCode string `json:"error_code"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "IDM_003", resp.ErrorCode)
}

func TestTransferHandler_InitiateTransfer_BadAmount(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	svc := mocks.NewMockTransferService(ctrl)
	r := transferRouter(uuid.New(), svc)

	body, _ := json.Marshal(map[string]any{
		"wallet_id":              uuid.New(),
		"counterparty_user_id":   uuid.New(),
		"counterparty_wallet_id": uuid.New(),
		"amount":                 "fifty thousand",
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/transfers", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.HeaderIdempotencyKey, "key-1")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp struct {
		ErrorCode string `json:"error_code"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "VAL_001", resp.ErrorCode)
}

func TestTransferHandler_InitiateTransfer_ServiceError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	svc := mocks.NewMockTransferService(ctrl)
	r := transferRouter(uuid.New(), svc)

	body, _ := json.Marshal(map[string]any{
		"wallet_id":              uuid.New(),
		"counterparty_user_id":   uuid.New(),
		"counterparty_wallet_id": uuid.New(),
		"amount":                 "50000",
	})

	svc.EXPECT().InitiateTransfer(gomock.Any(), gomock.Any()).
		Return(nil, apperror.ErrInsufficientBalance())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/transfers", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.HeaderIdempotencyKey, "key-1")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusPaymentRequired, w.Code)
	var resp struct {
		ErrorCode string `json:"error_code"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "TRF_001", resp.ErrorCode)
}

func TestTransferHandler_InitiateInternalTransfer(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	svc := mocks.NewMockTransferService(ctrl)
	userID := uuid.New()
	r := transferRouter(userID, svc)

	src := uuid.New()
	dst := uuid.New()
	body, _ := json.Marshal(map[string]any{
		"source_wallet_id":      src,
		"destination_wallet_id": dst,
		"amount":                "50000",
	})

	var captured ports.InitiateInternalTransferRequest
	svc.EXPECT().InitiateInternalTransfer(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ any, req ports.InitiateInternalTransferRequest) (*domain.Transaction, error) {
			captured = req
			txn := successfulTransaction(userID)
			txn.Type = domain.TransactionTypeInternalTransferOut
			return txn, nil
		})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/transfers/internal", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.HeaderIdempotencyKey, "key-2")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, src, captured.SourceWalletID)
	assert.Equal(t, dst, captured.DestinationWalletID)
	assert.Equal(t, "key-2", captured.IdempotencyKey)
}

func TestTransferHandler_ConfirmTransfer(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	svc := mocks.NewMockTransferService(ctrl)
	userID := uuid.New()
	r := transferRouter(userID, svc)

	txn := successfulTransaction(userID)
	txn.Status = domain.TransactionStatusSuccess

	svc.EXPECT().ConfirmTransfer(gomock.Any(), ports.ConfirmTransferRequest{
		TransactionID: txn.ID,
		UserID:        userID,
		PIN:           "123456",
		Token:         "caller-token",
	}).Return(txn, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/transfers/"+txn.ID.String()+"/confirm",
		bytes.NewReader([]byte(`{"pin":"123456"}`)))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data struct {
			Status string `json:"status"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "SUCCESS", resp.Data.Status)
}

func TestTransferHandler_ConfirmTransfer_BadPIN(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	svc := mocks.NewMockTransferService(ctrl)
	r := transferRouter(uuid.New(), svc)

	tests := []struct {
		name string
		pin  string
	}{
		{"too short", `{"pin":"123"}`},
		{"not numeric", `{"pin":"abcdef"}`},
		{"missing", `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/v1/transfers/"+uuid.New().String()+"/confirm",
				bytes.NewReader([]byte(tt.pin)))
			req.Header.Set("Content-Type", "application/json")
			r.ServeHTTP(w, req)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestTransferHandler_ConfirmTransfer_BadID(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	svc := mocks.NewMockTransferService(ctrl)
	r := transferRouter(uuid.New(), svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/transfers/not-a-uuid/confirm",
		bytes.NewReader([]byte(`{"pin":"123456"}`)))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
