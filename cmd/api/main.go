package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"custodial-wallet/config"
	amqpEvents "custodial-wallet/internal/adapter/events/rabbitmq"
	httpHandler "custodial-wallet/internal/adapter/http/handler"
	pgStorage "custodial-wallet/internal/adapter/storage/postgres"
	redisStorage "custodial-wallet/internal/adapter/storage/redis"
	"custodial-wallet/internal/core/ports"
	"custodial-wallet/internal/service"
	"custodial-wallet/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New("custodial-wallet", cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Msg("Starting custodial wallet service")

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
	userRepo := pgStorage.NewUserRepo(pool)
	companyRepo := pgStorage.NewCompanyRepo(pool)
	walletRepo := pgStorage.NewWalletRepo(pool)
	txRepo := pgStorage.NewTransactionRepo(pool)
	idempotencyRepo := pgStorage.NewIdempotencyRepo(pool)
	auditRepo := pgStorage.NewAuditRepo(pool)
	transactor := pgStorage.NewTransactor(pool)

	// Initialize Redis stores
	sessionStore := redisStorage.NewSessionStore(rdb)
	flowStore := redisStorage.NewFlowStore(rdb)
	walletLock := redisStorage.NewWalletLock(rdb)
	idempotencyCache := redisStorage.NewIdempotencyCache(rdb)
	rateLimitStore := redisStorage.NewRateLimitStore(rdb)

	// Initialize event publisher
	var publisher ports.EventPublisher = amqpEvents.NoopPublisher{}
	if cfg.AMQP.Enabled {
		p, err := amqpEvents.NewPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange, log)
		if err != nil {
			log.Warn().Err(err).Msg("RabbitMQ unavailable, transaction events disabled")
		} else {
			defer p.Close()
			publisher = p
		}
	}

	// Initialize core services
	hasher := service.NewArgon2PinHasher()
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)
	authzSvc := service.NewHMACAuthorizationService(cfg.Company.AuthorizationKey)

	// Initialize business services
	authSvc := service.NewAuthService(userRepo, walletRepo, hasher, tokenSvc)
	pinGate := service.NewPinGate(walletRepo, sessionStore, hasher, service.PinGateConfig{
		MaxAttempts: cfg.Pin.MaxAttempts,
		Lockout:     cfg.Pin.Lockout,
		UnlockTTL:   cfg.Pin.UnlockTTL,
	}, log)
	ledgerSvc := service.NewLedgerService(walletRepo, txRepo, idempotencyRepo, transactor, log)
	transferSvc := service.NewTransferService(
		flowStore,
		userRepo,
		companyRepo,
		authzSvc,
		ledgerSvc,
		txRepo,
		walletLock,
		idempotencyRepo,
		idempotencyCache,
		publisher,
		service.TransferConfig{
			ProcessingDelay: cfg.Transfer.ProcessingDelay,
			FlowTTL:         cfg.Transfer.FlowTTL,
			OpLockTTL:       cfg.Transfer.OpLockTTL,
		},
		log,
	)
	purchaseSvc := service.NewPurchaseService(ledgerSvc, walletLock, publisher, cfg.Transfer.OpLockTTL, log)
	auditSvc := service.NewAuditService(auditRepo, log)

	// Initialize health checkers
	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		AuthSvc:        authSvc,
		PinGate:        pinGate,
		LedgerSvc:      ledgerSvc,
		TransferSvc:    transferSvc,
		PurchaseSvc:    purchaseSvc,
		TokenSvc:       tokenSvc,
		RateLimitStore: rateLimitStore,
		HealthCheckers: []ports.HealthChecker{pgHealth, redisHealth},
		AuditSvc:       auditSvc,
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
