package handler

import (
	"wallet-transaction-service/internal/adapter/http/middleware"
	"wallet-transaction-service/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	TransferSvc    ports.TransferService
	HistorySvc     ports.HistoryService
	TokenSvc       ports.TokenService
	HealthCheckers []ports.HealthChecker
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Deep health check, verifies PostgreSQL and Redis.
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// All business routes require the gateway-forwarded JWT.
	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)
	v1 := r.Group("/api/v1", jwtAuth)

	transferHandler := NewTransferHandler(deps.TransferSvc)
	transfers := v1.Group("/transfers")
	{
		transfers.GET("/inquiry", transferHandler.InquireRecipient)
		transfers.POST("", transferHandler.InitiateTransfer)
		transfers.POST("/internal", transferHandler.InitiateInternalTransfer)
		transfers.POST("/:id/confirm", transferHandler.ConfirmTransfer)
	}

	historyHandler := NewHistoryHandler(deps.HistorySvc)
	transactions := v1.Group("/transactions")
	{
		transactions.GET("", historyHandler.ListTransactions)
		transactions.GET("/:id", historyHandler.GetTransaction)
	}
	v1.GET("/wallets/:walletId/ledger", historyHandler.ListLedger)
	v1.GET("/contacts", historyHandler.ListContacts)

	return r
}
