package main

import (
	"fmt"
	"net/http"
	"os"

	"fundledger/internal/config"
	"fundledger/internal/database"
	"fundledger/internal/handlers"
	"fundledger/internal/logger"
	"fundledger/internal/middleware"
	"fundledger/internal/services"
	"fundledger/internal/validator"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "fundledger/internal/docs" // Import swagger docs
)

// @title           Fund Ledger API
// @version         1.0
// @description     NAV and capital accounting engine: fee accruals, NAV calculation and approval, capital account ledger, redemptions, and performance metrics.
// @termsOfService  http://swagger.io/terms/

// @host      localhost:8080
// @BasePath  /api/v1

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

	// Initialize services
	db := dbManager.DB()
	auditService := services.NewAuditService(db)
	fundService := services.NewFundService(db)
	feeService := services.NewFeeService(db)
	navService := services.NewNAVService(db, fundService, feeService)
	accountService := services.NewAccountService(db, fundService)
	redemptionService := services.NewRedemptionService(db, accountService, navService)
	performanceService := services.NewPerformanceService(db, fundService)

	// Initialize handlers
	fundHandler := handlers.NewFundHandler(fundService, auditService)
	navHandler := handlers.NewNAVHandler(navService, auditService)
	accountHandler := handlers.NewAccountHandler(accountService, auditService)
	redemptionHandler := handlers.NewRedemptionHandler(redemptionService, auditService)
	performanceHandler := handlers.NewPerformanceHandler(performanceService, auditService)

	// Register custom binding validators before any routes bind requests
	validator.Register()

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 group; every route requires an actor identity for audit trails
	v1 := router.Group("/api/v1")
	v1.Use(middleware.Actor())

	// Fund administration routes
	funds := v1.Group("/funds")
	funds.POST("", fundHandler.CreateFund)
	funds.GET("", fundHandler.ListFunds)
	funds.GET("/:id", fundHandler.GetFund)
	funds.POST("/:id/close", fundHandler.CloseFund)
	funds.POST("/:id/share-classes", fundHandler.CreateShareClass)
	funds.POST("/:id/fee-structures", fundHandler.CreateFeeStructure)
	funds.GET("/:id/fee-structures", fundHandler.ListFeeStructures)

	// NAV routes scoped to a fund
	funds.POST("/:id/nav/calculate", navHandler.CalculateNAV)
	funds.GET("/:id/nav/latest", navHandler.GetLatestNAV)
	funds.GET("/:id/nav/history", navHandler.GetNAVHistory)

	// Performance routes
	funds.POST("/:id/performance/calculate", performanceHandler.CalculatePerformance)
	funds.GET("/:id/performance", performanceHandler.GetPerformanceHistory)

	// Capital account routes
	funds.GET("/:id/accounts", accountHandler.ListFundAccounts)

	v1.GET("/share-classes/:id", fundHandler.GetShareClass)

	// NAV approval lifecycle routes
	nav := v1.Group("/nav")
	nav.GET("/:id", navHandler.GetNAV)
	nav.POST("/:id/submit", navHandler.SubmitNAV)
	nav.POST("/:id/approve", navHandler.ApproveNAV)
	nav.POST("/:id/reject", navHandler.RejectNAV)

	// Capital account ledger routes
	accounts := v1.Group("/accounts")
	accounts.POST("", accountHandler.CreateAccount)
	accounts.GET("/:id", accountHandler.GetAccount)
	accounts.POST("/:id/transactions", accountHandler.RecordTransaction)
	accounts.GET("/:id/transactions", accountHandler.ListTransactions)
	accounts.GET("/:id/redemptions", redemptionHandler.ListAccountRedemptions)

	// Redemption workflow routes
	redemptions := v1.Group("/redemptions")
	redemptions.POST("", redemptionHandler.CreateRedemption)
	redemptions.GET("/:id", redemptionHandler.GetRedemption)
	redemptions.POST("/:id/review", redemptionHandler.ReviewRedemption)
	redemptions.POST("/:id/process", redemptionHandler.ProcessRedemption)

	log.Infof("Starting fund ledger server on port %s", appConfig.Port)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
