package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "fundledger/internal/errors"
	"fundledger/internal/models"
	"fundledger/internal/pagination"
	"fundledger/internal/services"
)

// AccountHandler handles capital account and ledger requests.
type AccountHandler struct {
	accountService services.AccountServicer
	auditService   services.AuditServicer
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountService services.AccountServicer, auditService services.AuditServicer) *AccountHandler {
	return &AccountHandler{accountService: accountService, auditService: auditService}
}

// CreateAccountRequest represents the request payload for opening a capital account.
type CreateAccountRequest struct {
	FundID       string  `json:"fund_id" binding:"required,uuid"`
	ShareClassID *string `json:"share_class_id"`
	InvestorID   string  `json:"investor_id" binding:"required,max=64"`
	InvestorName string  `json:"investor_name" binding:"required,max=255"`
	Currency     string  `json:"currency" binding:"omitempty,iso4217"`
}

// CreateAccount opens a capital account for an investor in a fund.
// @Summary     Create a capital account
// @Tags        accounts
// @Accept      json
// @Produce     json
// @Param       request body CreateAccountRequest true "Account details"
// @Success     201 {object} models.CapitalAccount
// @Failure     400 {object} ErrorResponse
// @Failure     404 {object} ErrorResponse
// @Router      /accounts [post]
func (h *AccountHandler) CreateAccount(c *gin.Context) {
	actorID, err := getActorID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
		return
	}

	account, err := h.accountService.CreateCapitalAccount(req.FundID, req.ShareClassID, req.InvestorID, req.InvestorName, req.Currency)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actorID, "account.create", "capital_account", account.ID, map[string]interface{}{
		"account_number": account.AccountNumber,
		"investor_id":    account.InvestorID,
	})
	c.JSON(http.StatusCreated, account)
}

// GetAccount returns a capital account with its current balances.
// @Summary     Get a capital account
// @Tags        accounts
// @Produce     json
// @Param       id path string true "Account ID"
// @Success     200 {object} models.CapitalAccount
// @Failure     404 {object} ErrorResponse
// @Router      /accounts/{id} [get]
func (h *AccountHandler) GetAccount(c *gin.Context) {
	account, err := h.accountService.GetAccountByID(c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

// ListFundAccounts returns the capital accounts of a fund.
// @Summary     List a fund's capital accounts
// @Tags        accounts
// @Produce     json
// @Param       id path string true "Fund ID"
// @Param       page query int false "Page number"
// @Param       page_size query int false "Page size"
// @Success     200 {object} pagination.PageResponse[models.CapitalAccount]
// @Failure     404 {object} ErrorResponse
// @Router      /funds/{id}/accounts [get]
func (h *AccountHandler) ListFundAccounts(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
		return
	}

	result, err := h.accountService.GetFundAccounts(c.Param("id"), page)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// RecordTransactionRequest represents the request payload for posting a ledger entry.
type RecordTransactionRequest struct {
	Type          string          `json:"type" binding:"required,transaction_type"`
	Amount        decimal.Decimal `json:"amount"`
	Shares        decimal.Decimal `json:"shares"`
	PricePerShare decimal.Decimal `json:"price_per_share"`
	Description   string          `json:"description" binding:"max=500"`
}

// RecordTransaction posts a transaction against a capital account and updates
// its balances atomically.
// @Summary     Record a transaction
// @Tags        accounts
// @Accept      json
// @Produce     json
// @Param       id path string true "Account ID"
// @Param       request body RecordTransactionRequest true "Transaction details"
// @Success     201 {object} models.Transaction
// @Failure     400 {object} ErrorResponse
// @Failure     404 {object} ErrorResponse
// @Failure     409 {object} ErrorResponse
// @Router      /accounts/{id}/transactions [post]
func (h *AccountHandler) RecordTransaction(c *gin.Context) {
	actorID, err := getActorID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req RecordTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
		return
	}

	entry, err := h.accountService.RecordTransaction(c.Param("id"), models.TransactionType(req.Type),
		req.Amount, req.Shares, req.PricePerShare, req.Description)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actorID, "transaction.record", "transaction", entry.ID, map[string]interface{}{
		"type":   req.Type,
		"amount": req.Amount.String(),
		"shares": req.Shares.String(),
	})
	c.JSON(http.StatusCreated, entry)
}

// ListTransactions returns a capital account's ledger entries.
// @Summary     List account transactions
// @Tags        accounts
// @Produce     json
// @Param       id path string true "Account ID"
// @Param       type query string false "Transaction type"
// @Param       from query string false "Start date (YYYY-MM-DD)"
// @Param       to query string false "End date (YYYY-MM-DD)"
// @Success     200 {object} pagination.PageResponse[models.Transaction]
// @Failure     404 {object} ErrorResponse
// @Router      /accounts/{id}/transactions [get]
func (h *AccountHandler) ListTransactions(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
		return
	}

	from, err := parseOptionalDate(c.Query("from"))
	if err != nil {
		respondWithError(c, err)
		return
	}
	to, err := parseOptionalDate(c.Query("to"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	filter := services.TransactionFilter{FromDate: from, ToDate: to}
	if txType := c.Query("type"); txType != "" {
		t := models.TransactionType(txType)
		filter.Type = &t
	}

	result, err := h.accountService.GetAccountTransactions(c.Param("id"), page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
