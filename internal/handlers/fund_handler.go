package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "fundledger/internal/errors"
	"fundledger/internal/models"
	"fundledger/internal/pagination"
	"fundledger/internal/services"
)

// FundHandler handles fund administration requests.
type FundHandler struct {
	fundService  services.FundServicer
	auditService services.AuditServicer
}

// NewFundHandler creates a new FundHandler.
func NewFundHandler(fundService services.FundServicer, auditService services.AuditServicer) *FundHandler {
	return &FundHandler{fundService: fundService, auditService: auditService}
}

// CreateFundRequest represents the request payload for creating a fund.
type CreateFundRequest struct {
	Code          string `json:"code" binding:"required,max=32"`
	Name          string `json:"name" binding:"required,max=255"`
	BaseCurrency  string `json:"base_currency" binding:"omitempty,iso4217"`
	InceptionDate string `json:"inception_date" binding:"required"`
	Description   string `json:"description" binding:"max=1000"`
}

// CreateFund handles the creation of a new fund.
// @Summary     Create a fund
// @Tags        funds
// @Accept      json
// @Produce     json
// @Param       request body CreateFundRequest true "Fund details"
// @Success     201 {object} models.Fund
// @Failure     400 {object} ErrorResponse
// @Failure     409 {object} ErrorResponse
// @Router      /funds [post]
func (h *FundHandler) CreateFund(c *gin.Context) {
	actorID, err := getActorID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateFundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
		return
	}

	inception, err := parseDate(req.InceptionDate)
	if err != nil {
		respondWithError(c, err)
		return
	}

	fund, err := h.fundService.CreateFund(req.Code, req.Name, req.BaseCurrency, inception, req.Description)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actorID, "fund.create", "fund", fund.ID, map[string]interface{}{"code": fund.Code})
	c.JSON(http.StatusCreated, fund)
}

// GetFund returns a single fund.
// @Summary     Get a fund
// @Tags        funds
// @Produce     json
// @Param       id path string true "Fund ID"
// @Success     200 {object} models.Fund
// @Failure     404 {object} ErrorResponse
// @Router      /funds/{id} [get]
func (h *FundHandler) GetFund(c *gin.Context) {
	fund, err := h.fundService.GetFundByID(c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, fund)
}

// ListFunds returns a paginated list of funds.
// @Summary     List funds
// @Tags        funds
// @Produce     json
// @Param       page query int false "Page number"
// @Param       page_size query int false "Page size"
// @Success     200 {object} pagination.PageResponse[models.Fund]
// @Router      /funds [get]
func (h *FundHandler) ListFunds(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
		return
	}

	result, err := h.fundService.ListFunds(page)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// CloseFund marks a fund as closed.
// @Summary     Close a fund
// @Tags        funds
// @Produce     json
// @Param       id path string true "Fund ID"
// @Success     200 {object} models.Fund
// @Failure     404 {object} ErrorResponse
// @Failure     409 {object} ErrorResponse
// @Router      /funds/{id}/close [post]
func (h *FundHandler) CloseFund(c *gin.Context) {
	actorID, err := getActorID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	fund, err := h.fundService.CloseFund(c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actorID, "fund.close", "fund", fund.ID, nil)
	c.JSON(http.StatusOK, fund)
}

// CreateShareClassRequest represents the request payload for creating a share class.
type CreateShareClassRequest struct {
	Name               string          `json:"name" binding:"required,max=255"`
	Currency           string          `json:"currency" binding:"omitempty,iso4217"`
	ManagementFeeRate  decimal.Decimal `json:"management_fee_rate"`
	PerformanceFeeRate decimal.Decimal `json:"performance_fee_rate"`
	HurdleRate         decimal.Decimal `json:"hurdle_rate"`
	HighWaterMark      bool            `json:"high_water_mark"`
	PricePrecision     int             `json:"price_precision" binding:"omitempty,min=0,max=8"`
	MinimumInvestment  decimal.Decimal `json:"minimum_investment"`
}

// CreateShareClass creates a share class under a fund.
// @Summary     Create a share class
// @Tags        funds
// @Accept      json
// @Produce     json
// @Param       id path string true "Fund ID"
// @Param       request body CreateShareClassRequest true "Share class details"
// @Success     201 {object} models.ShareClass
// @Failure     400 {object} ErrorResponse
// @Failure     404 {object} ErrorResponse
// @Router      /funds/{id}/share-classes [post]
func (h *FundHandler) CreateShareClass(c *gin.Context) {
	actorID, err := getActorID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateShareClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
		return
	}

	sc, err := h.fundService.CreateShareClass(services.CreateShareClassInput{
		FundID:             c.Param("id"),
		Name:               req.Name,
		Currency:           req.Currency,
		ManagementFeeRate:  req.ManagementFeeRate,
		PerformanceFeeRate: req.PerformanceFeeRate,
		HurdleRate:         req.HurdleRate,
		HighWaterMark:      req.HighWaterMark,
		PricePrecision:     req.PricePrecision,
		MinimumInvestment:  req.MinimumInvestment,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actorID, "share_class.create", "share_class", sc.ID, nil)
	c.JSON(http.StatusCreated, sc)
}

// GetShareClass returns a single share class.
// @Summary     Get a share class
// @Tags        funds
// @Produce     json
// @Param       id path string true "Share class ID"
// @Success     200 {object} models.ShareClass
// @Failure     404 {object} ErrorResponse
// @Router      /share-classes/{id} [get]
func (h *FundHandler) GetShareClass(c *gin.Context) {
	sc, err := h.fundService.GetShareClassByID(c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, sc)
}

// CreateFeeStructureRequest represents the request payload for creating a fee structure.
type CreateFeeStructureRequest struct {
	ShareClassID     *string         `json:"share_class_id"`
	FeeType          string          `json:"fee_type" binding:"required,fee_type"`
	Rate             decimal.Decimal `json:"rate"`
	AccrualFrequency string          `json:"accrual_frequency" binding:"omitempty,accrual_frequency"`
	HurdleRate       decimal.Decimal `json:"hurdle_rate"`
	EffectiveFrom    string          `json:"effective_from" binding:"required"`
	EffectiveTo      *string         `json:"effective_to"`
}

// CreateFeeStructure creates a fee structure for a fund.
// @Summary     Create a fee structure
// @Tags        funds
// @Accept      json
// @Produce     json
// @Param       id path string true "Fund ID"
// @Param       request body CreateFeeStructureRequest true "Fee structure details"
// @Success     201 {object} models.FeeStructure
// @Failure     400 {object} ErrorResponse
// @Failure     404 {object} ErrorResponse
// @Router      /funds/{id}/fee-structures [post]
func (h *FundHandler) CreateFeeStructure(c *gin.Context) {
	actorID, err := getActorID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateFeeStructureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
		return
	}

	effectiveFrom, err := parseDate(req.EffectiveFrom)
	if err != nil {
		respondWithError(c, err)
		return
	}
	var effectiveTo *time.Time
	if req.EffectiveTo != nil {
		parsed, parseErr := parseDate(*req.EffectiveTo)
		if parseErr != nil {
			respondWithError(c, parseErr)
			return
		}
		effectiveTo = &parsed
	}

	fs, err := h.fundService.CreateFeeStructure(services.CreateFeeStructureInput{
		FundID:           c.Param("id"),
		ShareClassID:     req.ShareClassID,
		FeeType:          models.FeeType(req.FeeType),
		Rate:             req.Rate,
		AccrualFrequency: models.AccrualFrequency(req.AccrualFrequency),
		HurdleRate:       req.HurdleRate,
		EffectiveFrom:    effectiveFrom,
		EffectiveTo:      effectiveTo,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actorID, "fee_structure.create", "fee_structure", fs.ID, nil)
	c.JSON(http.StatusCreated, fs)
}

// ListFeeStructures returns a fund's fee structures.
// @Summary     List fee structures
// @Tags        funds
// @Produce     json
// @Param       id path string true "Fund ID"
// @Success     200 {object} pagination.PageResponse[models.FeeStructure]
// @Failure     404 {object} ErrorResponse
// @Router      /funds/{id}/fee-structures [get]
func (h *FundHandler) ListFeeStructures(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
		return
	}

	result, err := h.fundService.GetFundFeeStructures(c.Param("id"), page)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
