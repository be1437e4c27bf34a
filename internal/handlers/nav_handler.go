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

// NAVHandler handles NAV calculation and approval requests.
type NAVHandler struct {
	navService   services.NAVServicer
	auditService services.AuditServicer
}

// NewNAVHandler creates a new NAVHandler.
func NewNAVHandler(navService services.NAVServicer, auditService services.AuditServicer) *NAVHandler {
	return &NAVHandler{navService: navService, auditService: auditService}
}

// LineItemRequest is a single line item in a NAV calculation request.
type LineItemRequest struct {
	Kind        string           `json:"kind" binding:"required,line_item_kind"`
	Category    string           `json:"category" binding:"max=100"`
	Description string           `json:"description" binding:"required,max=500"`
	Quantity    decimal.Decimal  `json:"quantity"`
	UnitPrice   decimal.Decimal  `json:"unit_price"`
	Amount      *decimal.Decimal `json:"amount"`
	Currency    string           `json:"currency" binding:"omitempty,iso4217"`
	FXRate      *decimal.Decimal `json:"fx_rate"`
}

// CalculateNAVRequest represents the request payload for a NAV calculation.
type CalculateNAVRequest struct {
	ShareClassID  *string           `json:"share_class_id"`
	ValuationDate string            `json:"valuation_date" binding:"required"`
	LineItems     []LineItemRequest `json:"line_items" binding:"required,min=1,dive"`
	TotalShares   decimal.Decimal   `json:"total_shares_outstanding"`
	Notes         string            `json:"notes" binding:"max=1000"`
}

// CalculateNAV computes and persists a new draft NAV calculation.
// @Summary     Calculate NAV
// @Description Aggregate line items into a new draft NAV calculation for a fund
// @Tags        nav
// @Accept      json
// @Produce     json
// @Param       id path string true "Fund ID"
// @Param       request body CalculateNAVRequest true "Calculation inputs"
// @Success     201 {object} models.NAVCalculation
// @Failure     400 {object} ErrorResponse
// @Failure     404 {object} ErrorResponse
// @Router      /funds/{id}/nav/calculate [post]
func (h *NAVHandler) CalculateNAV(c *gin.Context) {
	actorID, err := getActorID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CalculateNAVRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
		return
	}

	valuationDate, err := parseDate(req.ValuationDate)
	if err != nil {
		respondWithError(c, err)
		return
	}

	lineItems := make([]services.LineItemInput, 0, len(req.LineItems))
	for _, li := range req.LineItems {
		lineItems = append(lineItems, services.LineItemInput{
			Kind:        models.LineItemKind(li.Kind),
			Category:    li.Category,
			Description: li.Description,
			Quantity:    li.Quantity,
			UnitPrice:   li.UnitPrice,
			Amount:      li.Amount,
			Currency:    li.Currency,
			FXRate:      li.FXRate,
		})
	}

	calc, err := h.navService.CalculateNAV(services.CalculateNAVInput{
		FundID:        c.Param("id"),
		ShareClassID:  req.ShareClassID,
		ValuationDate: valuationDate,
		LineItems:     lineItems,
		TotalShares:   req.TotalShares,
		ActorID:       actorID,
		Notes:         req.Notes,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actorID, "nav.calculate", "nav_calculation", calc.ID, map[string]interface{}{
		"valuation_date": req.ValuationDate,
		"version":        calc.Version,
	})
	c.JSON(http.StatusCreated, calc)
}

// SubmitNAV moves a draft calculation to pending approval.
// @Summary     Submit NAV for approval
// @Tags        nav
// @Produce     json
// @Param       id path string true "NAV calculation ID"
// @Success     200 {object} models.NAVCalculation
// @Failure     404 {object} ErrorResponse
// @Failure     409 {object} ErrorResponse
// @Router      /nav/{id}/submit [post]
func (h *NAVHandler) SubmitNAV(c *gin.Context) {
	actorID, err := getActorID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	calc, err := h.navService.SubmitNAV(c.Param("id"), actorID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actorID, "nav.submit", "nav_calculation", calc.ID, nil)
	c.JSON(http.StatusOK, calc)
}

// ApproveNAV approves a pending calculation, superseding any prior approved
// calculation for the same key.
// @Summary     Approve NAV
// @Tags        nav
// @Produce     json
// @Param       id path string true "NAV calculation ID"
// @Success     200 {object} models.NAVCalculation
// @Failure     404 {object} ErrorResponse
// @Failure     409 {object} ErrorResponse
// @Router      /nav/{id}/approve [post]
func (h *NAVHandler) ApproveNAV(c *gin.Context) {
	actorID, err := getActorID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	calc, err := h.navService.ApproveNAV(c.Param("id"), actorID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actorID, "nav.approve", "nav_calculation", calc.ID, nil)
	c.JSON(http.StatusOK, calc)
}

// RejectNAVRequest carries the required rejection reason.
type RejectNAVRequest struct {
	Reason string `json:"reason" binding:"required,max=1000"`
}

// RejectNAV rejects a draft or pending calculation.
// @Summary     Reject NAV
// @Tags        nav
// @Accept      json
// @Produce     json
// @Param       id path string true "NAV calculation ID"
// @Param       request body RejectNAVRequest true "Rejection reason"
// @Success     200 {object} models.NAVCalculation
// @Failure     400 {object} ErrorResponse
// @Failure     409 {object} ErrorResponse
// @Router      /nav/{id}/reject [post]
func (h *NAVHandler) RejectNAV(c *gin.Context) {
	actorID, err := getActorID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req RejectNAVRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
		return
	}

	calc, err := h.navService.RejectNAV(c.Param("id"), actorID, req.Reason)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actorID, "nav.reject", "nav_calculation", calc.ID, map[string]interface{}{"reason": req.Reason})
	c.JSON(http.StatusOK, calc)
}

// GetNAV returns a calculation in any status, with line items.
// @Summary     Get a NAV calculation
// @Tags        nav
// @Produce     json
// @Param       id path string true "NAV calculation ID"
// @Success     200 {object} models.NAVCalculation
// @Failure     404 {object} ErrorResponse
// @Router      /nav/{id} [get]
func (h *NAVHandler) GetNAV(c *gin.Context) {
	calc, err := h.navService.GetNAVByID(c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, calc)
}

// GetLatestNAV returns the most recent approved calculation for a fund.
// @Summary     Get latest approved NAV
// @Tags        nav
// @Produce     json
// @Param       id path string true "Fund ID"
// @Param       share_class_id query string false "Share class ID"
// @Success     200 {object} models.NAVCalculation
// @Failure     404 {object} ErrorResponse
// @Router      /funds/{id}/nav/latest [get]
func (h *NAVHandler) GetLatestNAV(c *gin.Context) {
	calc, err := h.navService.GetLatestNAV(c.Param("id"), optionalString(c.Query("share_class_id")))
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, calc)
}

// GetNAVHistory returns approved calculations ascending by valuation date.
// @Summary     Get NAV history
// @Tags        nav
// @Produce     json
// @Param       id path string true "Fund ID"
// @Param       share_class_id query string false "Share class ID"
// @Param       from query string false "Start date (YYYY-MM-DD)"
// @Param       to query string false "End date (YYYY-MM-DD)"
// @Success     200 {object} pagination.PageResponse[models.NAVCalculation]
// @Failure     404 {object} ErrorResponse
// @Router      /funds/{id}/nav/history [get]
func (h *NAVHandler) GetNAVHistory(c *gin.Context) {
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

	result, err := h.navService.GetNAVHistory(c.Param("id"), optionalString(c.Query("share_class_id")),
		services.NAVFilter{From: from, To: to}, page)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
