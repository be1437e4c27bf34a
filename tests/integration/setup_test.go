package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"fundledger/internal/handlers"
	"fundledger/internal/logger"
	"fundledger/internal/middleware"
	"fundledger/internal/models"
	"fundledger/internal/services"
	"fundledger/internal/validator"
)

// testApp holds the full application stack for integration tests.
type testApp struct {
	DB     *gorm.DB
	Router *gin.Engine
}

// dbCounter ensures each test gets a unique in-memory database.
var dbCounter atomic.Int64

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

// setupIsolatedDB creates an isolated in-memory SQLite database for a single test.
func setupIsolatedDB(t *testing.T) *gorm.DB {
	t.Helper()

	n := dbCounter.Add(1)
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", n)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	allModels := []interface{}{
		&models.Fund{},
		&models.ShareClass{},
		&models.FeeStructure{},
		&models.NAVCalculation{},
		&models.NAVLineItem{},
		&models.CapitalAccount{},
		&models.RedemptionRequest{},
		&models.Transaction{},
		&models.PerformanceMetric{},
		&models.AuditLog{},
	}
	if err := db.AutoMigrate(allModels...); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// setupApp creates a full application stack backed by an isolated in-memory SQLite.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := setupIsolatedDB(t)

	// Services
	auditService := services.NewAuditService(db)
	fundService := services.NewFundService(db)
	feeService := services.NewFeeService(db)
	navService := services.NewNAVService(db, fundService, feeService)
	accountService := services.NewAccountService(db, fundService)
	redemptionService := services.NewRedemptionService(db, accountService, navService)
	performanceService := services.NewPerformanceService(db, fundService)

	// Handlers
	fundHandler := handlers.NewFundHandler(fundService, auditService)
	navHandler := handlers.NewNAVHandler(navService, auditService)
	accountHandler := handlers.NewAccountHandler(accountService, auditService)
	redemptionHandler := handlers.NewRedemptionHandler(redemptionService, auditService)
	performanceHandler := handlers.NewPerformanceHandler(performanceService, auditService)

	// Router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())

	v1 := router.Group("/api/v1")
	v1.Use(middleware.Actor())

	funds := v1.Group("/funds")
	funds.POST("", fundHandler.CreateFund)
	funds.GET("", fundHandler.ListFunds)
	funds.GET("/:id", fundHandler.GetFund)
	funds.POST("/:id/close", fundHandler.CloseFund)
	funds.POST("/:id/share-classes", fundHandler.CreateShareClass)
	funds.POST("/:id/fee-structures", fundHandler.CreateFeeStructure)
	funds.GET("/:id/fee-structures", fundHandler.ListFeeStructures)
	funds.POST("/:id/nav/calculate", navHandler.CalculateNAV)
	funds.GET("/:id/nav/latest", navHandler.GetLatestNAV)
	funds.GET("/:id/nav/history", navHandler.GetNAVHistory)
	funds.POST("/:id/performance/calculate", performanceHandler.CalculatePerformance)
	funds.GET("/:id/performance", performanceHandler.GetPerformanceHistory)
	funds.GET("/:id/accounts", accountHandler.ListFundAccounts)

	v1.GET("/share-classes/:id", fundHandler.GetShareClass)

	nav := v1.Group("/nav")
	nav.GET("/:id", navHandler.GetNAV)
	nav.POST("/:id/submit", navHandler.SubmitNAV)
	nav.POST("/:id/approve", navHandler.ApproveNAV)
	nav.POST("/:id/reject", navHandler.RejectNAV)

	accounts := v1.Group("/accounts")
	accounts.POST("", accountHandler.CreateAccount)
	accounts.GET("/:id", accountHandler.GetAccount)
	accounts.POST("/:id/transactions", accountHandler.RecordTransaction)
	accounts.GET("/:id/transactions", accountHandler.ListTransactions)
	accounts.GET("/:id/redemptions", redemptionHandler.ListAccountRedemptions)

	redemptions := v1.Group("/redemptions")
	redemptions.POST("", redemptionHandler.CreateRedemption)
	redemptions.GET("/:id", redemptionHandler.GetRedemption)
	redemptions.POST("/:id/review", redemptionHandler.ReviewRedemption)
	redemptions.POST("/:id/process", redemptionHandler.ProcessRedemption)

	return &testApp{DB: db, Router: router}
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body, actor string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if actor != "" {
		req.Header.Set("X-Actor-ID", actor)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// createFund creates a fund through the API and returns its ID.
func (app *testApp) createFund(t *testing.T, code string) string {
	t.Helper()
	body := fmt.Sprintf(`{"code":%q,"name":"Fund %s","base_currency":"USD","inception_date":"2024-01-01"}`, code, code)
	rec := app.request("POST", "/api/v1/funds", body, "admin-1")
	if rec.Code != http.StatusCreated {
		t.Fatalf("create fund failed: %d %s", rec.Code, rec.Body.String())
	}
	return parseJSON(t, rec)["id"].(string)
}

// createAccount creates a capital account through the API and returns its ID.
func (app *testApp) createAccount(t *testing.T, fundID, investorID string) string {
	t.Helper()
	body := fmt.Sprintf(`{"fund_id":%q,"investor_id":%q,"investor_name":"Investor %s"}`, fundID, investorID, investorID)
	rec := app.request("POST", "/api/v1/accounts", body, "admin-1")
	if rec.Code != http.StatusCreated {
		t.Fatalf("create account failed: %d %s", rec.Code, rec.Body.String())
	}
	return parseJSON(t, rec)["id"].(string)
}
