package handler

import (
	"custodial-wallet/internal/adapter/http/middleware"
	redisStore "custodial-wallet/internal/adapter/storage/redis"
	"custodial-wallet/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	AuthSvc        ports.AuthService
	PinGate        ports.PinGate
	LedgerSvc      ports.LedgerService
	TransferSvc    ports.TransferService
	PurchaseSvc    ports.PurchaseService
	TokenSvc       ports.TokenService
	RateLimitStore *redisStore.RateLimitStore // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	AuditSvc       ports.AuditService // nil = audit logging disabled
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Audit logging (after response)
	if deps.AuditSvc != nil {
		r.Use(middleware.AuditLog(deps.AuditSvc))
	}

	// Health check (deep — verifies PostgreSQL + Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// Rate limit rules
	rules := middleware.DefaultRateLimitRules()

	// Helper: return rate limiter middleware if store is available, else noop.
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	// API v1 routes
	v1 := r.Group("/api/v1")

	// --- Public routes (no auth) ---
	authHandler := NewAuthHandler(deps.AuthSvc)
	auth := v1.Group("/auth")
	{
		auth.POST("/register", rl("auth_register"), authHandler.Register)
		auth.POST("/login", rl("auth_login"), authHandler.Login)
	}

	// --- JWT-authenticated routes ---
	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)
	pinGate := middleware.PinUnlocked(deps.PinGate, deps.Logger)

	walletHandler := NewWalletHandler(deps.PinGate, deps.LedgerSvc)

	wallet := v1.Group("/wallet", jwtAuth)
	{
		wallet.POST("/unlock", rl("wallet_unlock"), walletHandler.Unlock)
		wallet.POST("/lock", rl("wallet"), walletHandler.Lock)

		// Balance and history are only visible behind the PIN gate.
		wallet.GET("", rl("wallet"), pinGate, walletHandler.GetWallet)
		wallet.GET("/transactions", rl("wallet"), pinGate, walletHandler.ListTransactions)
	}

	v1.GET("/networks", jwtAuth, rl("wallet"), walletHandler.ListNetworks)

	transferHandler := NewTransferHandler(deps.TransferSvc)
	transfers := v1.Group("/transfers", jwtAuth, pinGate)
	{
		transfers.POST("", rl("transfers"), transferHandler.Start)
		transfers.GET("/:id", rl("transfers"), transferHandler.Get)
		transfers.DELETE("/:id", rl("transfers"), transferHandler.Abandon)
		transfers.POST("/:id/identity", rl("transfers"), transferHandler.ConfirmIdentity)
		transfers.POST("/:id/details", rl("transfers"), transferHandler.SubmitDetails)
		transfers.POST("/:id/confirm", rl("transfers"), transferHandler.Confirm)
	}

	purchaseHandler := NewPurchaseHandler(deps.PurchaseSvc)
	purchases := v1.Group("/purchases", jwtAuth, pinGate)
	{
		purchases.POST("", rl("purchases"), purchaseHandler.Buy)
		purchases.GET("/denominations", rl("purchases"), purchaseHandler.Denominations)
	}

	return r
}
