package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wallet-transaction-service/config"
	"wallet-transaction-service/internal/adapter/client"
	"wallet-transaction-service/internal/adapter/event"
	httpHandler "wallet-transaction-service/internal/adapter/http/handler"
	pgStorage "wallet-transaction-service/internal/adapter/storage/postgres"
	redisStorage "wallet-transaction-service/internal/adapter/storage/redis"
	"wallet-transaction-service/internal/core/ports"
	"wallet-transaction-service/internal/service"
	"wallet-transaction-service/pkg/logger"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Msg("Starting Wallet Transaction Service")

	ctx := context.Background()

	// Initialize PostgreSQL pool
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	log.Info().Msg("PostgreSQL connected")

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")

	// Initialize repositories
	txRepo := pgStorage.NewTransactionRepo(pool)
	ledgerRepo := pgStorage.NewLedgerRepo(pool)
	idempotencyRepo := pgStorage.NewIdempotencyRepo(pool)
	contactRepo := pgStorage.NewContactRepo(pool)
	transactor := pgStorage.NewTransactor(pool)

	// Initialize Redis stores
	idempotencyCache := redisStorage.NewIdempotencyCache(rdb)

	// Initialize remote clients
	httpClient := &http.Client{Timeout: cfg.Clients.Timeout}
	walletClient := client.NewWalletClient(httpClient, cfg.Clients.WalletBaseURL)
	userClient := client.NewUserClient(httpClient, cfg.Clients.UserBaseURL)
	authClient := client.NewAuthClient(httpClient, cfg.Clients.AuthBaseURL)

	// Initialize event publisher
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer asynqClient.Close()
	publisher := event.NewPublisher(asynqClient, cfg.Events.Queue, log)

	// Initialize core services
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Issuer)
	idemStore := service.NewIdempotencyStore(idempotencyRepo, idempotencyCache, cfg.Transfer.IdempotencyRetention, log)
	validator, err := service.NewTransferValidator(walletClient, userClient, cfg.Transfer, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize transfer validator")
	}
	factory := service.NewTransactionFactory(txRepo, transactor, cfg.Transfer.Currency, log)
	finalizer := service.NewFinalizer(txRepo, ledgerRepo, contactRepo, transactor, publisher, log)
	orchestrator := service.NewSagaOrchestrator(
		txRepo, transactor, walletClient, finalizer,
		cfg.Transfer.ReversalMaxAttempts, cfg.Transfer.ReversalBackoff, log,
	)

	// Initialize business services
	transferSvc := service.NewTransferService(
		validator, factory, orchestrator, idemStore,
		txRepo, walletClient, userClient, authClient, log,
	)
	historySvc := service.NewHistoryService(txRepo, ledgerRepo, contactRepo)

	// Initialize health checkers
	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	// Background sweep for expired idempotency records
	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go runIdempotencySweep(sweepCtx, idempotencyRepo, cfg.Transfer.IdempotencyRetention, log)

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		TransferSvc:    transferSvc,
		HistorySvc:     historySvc,
		TokenSvc:       tokenSvc,
		HealthCheckers: []ports.HealthChecker{pgHealth, redisHealth},
		Logger:         log,
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	stopSweep()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// runIdempotencySweep periodically deletes idempotency records past their
// retention window. The sweep interval is a quarter of the retention, capped
// at one hour.
func runIdempotencySweep(ctx context.Context, repo ports.IdempotencyRepository, retention time.Duration, log zerolog.Logger) {
	interval := retention / 4
	if interval > time.Hour {
		interval = time.Hour
	}
	if interval < time.Minute {
		interval = time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := repo.DeleteExpired(ctx, time.Now().UTC())
			if err != nil {
				log.Warn().Err(err).Msg("idempotency sweep failed")
				continue
			}
			if deleted > 0 {
				log.Info().Int64("deleted", deleted).Msg("expired idempotency records removed")
			}
		}
	}
}
