package main

import (
	"fmt"
	"net/http"
	"os"

	"paperbull/internal/config"
	"paperbull/internal/database"
	"paperbull/internal/handlers"
	"paperbull/internal/logger"
	"paperbull/internal/middleware"
	"paperbull/internal/pricing"
	"paperbull/internal/services"
	"paperbull/internal/validator"

	"github.com/gin-gonic/gin"
)

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize database configuration
	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	// Create database manager
	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	// Run migrations
	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// Register custom request validators
	validator.Register()

	// Initialize services
	db := dbManager.DB()
	userService := services.NewUserService(db)
	marketService := services.NewMarketService(db, nil)
	tradingService := services.NewTradingService(db)
	walletService := services.NewWalletService(db)
	watchlistService := services.NewWatchlistService(db, marketService)

	if err := marketService.SeedStocks(); err != nil {
		return fmt.Errorf("failed to seed stocks: %w", err)
	}

	// Start the background price fluctuation process
	ticker := pricing.NewTicker(marketService, pricing.NewRandomWalk(nil),
		appConfig.TickIntervalMin, appConfig.TickIntervalMax)
	ticker.Start()
	defer ticker.Stop()

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService)
	stockHandler := handlers.NewStockHandler(marketService)
	tradeHandler := handlers.NewTradeHandler(tradingService)
	walletHandler := handlers.NewWalletHandler(walletService)
	watchlistHandler := handlers.NewWatchlistHandler(watchlistService)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 group
	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	// User profile
	protected.GET("/profile", authHandler.GetProfile)

	// Stock routes
	stocks := protected.Group("/stocks")
	stocks.GET("/search", stockHandler.SearchStocks)
	stocks.POST("", stockHandler.EnsureStock)
	stocks.GET("/:id", stockHandler.GetStock)
	stocks.GET("/:id/price", stockHandler.GetStockPrice)
	stocks.GET("/:id/history", stockHandler.GetStockHistory)

	// Trading routes
	trades := protected.Group("/trades")
	trades.POST("/buy", tradeHandler.Buy)
	trades.POST("/sell", tradeHandler.Sell)

	protected.GET("/portfolio", tradeHandler.GetPortfolio)
	protected.GET("/transactions", tradeHandler.GetTransactions)

	// Wallet routes
	wallet := protected.Group("/wallet")
	wallet.GET("/balance", walletHandler.GetBalance)
	wallet.POST("/funds", walletHandler.AddFunds)
	wallet.POST("/reset", walletHandler.ResetAccount)

	// Watchlist routes
	watchlist := protected.Group("/watchlist")
	watchlist.GET("", watchlistHandler.GetWatchlist)
	watchlist.POST("", watchlistHandler.AddToWatchlist)
	watchlist.DELETE("/:stockId", watchlistHandler.RemoveFromWatchlist)

	log.Infof("Starting Paperbull backend server on port %s", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
