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

// RedemptionHandler handles redemption workflow requests.
type RedemptionHandler struct {
	redemptionService services.RedemptionServicer
	auditService      services.AuditServicer
}

// NewRedemptionHandler creates a new RedemptionHandler.
func NewRedemptionHandler(redemptionService services.RedemptionServicer, auditService services.AuditServicer) *RedemptionHandler {
	return &RedemptionHandler{redemptionService: redemptionService, auditService: auditService}
}

// CreateRedemptionRequest represents the request payload for a redemption request.
type CreateRedemptionRequest struct {
	AccountID      string           `json:"account_id" binding:"required,uuid"`
	Type           string           `json:"type" binding:"required,redemption_type"`
	Shares         *decimal.Decimal `json:"shares"`
	Amount         *decimal.Decimal `json:"amount"`
	RedemptionDate string           `json:"redemption_date" binding:"required"`
	Reason         string           `json:"reason" binding:"max=1000"`
}

// CreateRedemption submits a new redemption request for an account.
// @Summary     Create a redemption request
// @Tags        redemptions
// @Accept      json
// @Produce     json
// @Param       request body CreateRedemptionRequest true "Redemption details"
// @Success     201 {object} models.RedemptionRequest
// @Failure     400 {object} ErrorResponse
// @Failure     404 {object} ErrorResponse
// @Router      /redemptions [post]
func (h *RedemptionHandler) CreateRedemption(c *gin.Context) {
	actorID, err := getActorID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateRedemptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
		return
	}

	redemptionDate, err := parseDate(req.RedemptionDate)
	if err != nil {
		respondWithError(c, err)
		return
	}

	request, err := h.redemptionService.CreateRedemptionRequest(req.AccountID, models.RedemptionType(req.Type),
		req.Shares, req.Amount, redemptionDate, req.Reason)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actorID, "redemption.create", "redemption_request", request.ID, map[string]interface{}{
		"request_number": request.RequestNumber,
		"type":           req.Type,
	})
	c.JSON(http.StatusCreated, request)
}

// ReviewRedemptionRequest represents a reviewer's decision payload.
type ReviewRedemptionRequest struct {
	Decision        string           `json:"decision" binding:"required,review_decision"`
	SharesApproved  *decimal.Decimal `json:"shares_approved"`
	AmountApproved  *decimal.Decimal `json:"amount_approved"`
	RedemptionPrice *decimal.Decimal `json:"redemption_price"`
	RejectionReason string           `json:"rejection_reason" binding:"max=1000"`
}

// ReviewRedemption approves or rejects a pending redemption request.
// @Summary     Review a redemption request
// @Tags        redemptions
// @Accept      json
// @Produce     json
// @Param       id path string true "Redemption request ID"
// @Param       request body ReviewRedemptionRequest true "Review decision"
// @Success     200 {object} models.RedemptionRequest
// @Failure     400 {object} ErrorResponse
// @Failure     404 {object} ErrorResponse
// @Failure     409 {object} ErrorResponse
// @Router      /redemptions/{id}/review [post]
func (h *RedemptionHandler) ReviewRedemption(c *gin.Context) {
	actorID, err := getActorID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ReviewRedemptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
		return
	}

	request, err := h.redemptionService.ReviewRedemption(services.ReviewRedemptionInput{
		RequestID:       c.Param("id"),
		Decision:        req.Decision,
		SharesApproved:  req.SharesApproved,
		AmountApproved:  req.AmountApproved,
		RedemptionPrice: req.RedemptionPrice,
		RejectionReason: req.RejectionReason,
		ReviewerID:      actorID,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actorID, "redemption.review", "redemption_request", request.ID, map[string]interface{}{
		"decision": req.Decision,
	})
	c.JSON(http.StatusOK, request)
}

// ProcessRedemption settles an approved redemption request, posting the
// redemption transaction and updating the account's balances.
// @Summary     Process a redemption request
// @Tags        redemptions
// @Produce     json
// @Param       id path string true "Redemption request ID"
// @Success     200 {object} models.Transaction
// @Failure     404 {object} ErrorResponse
// @Failure     409 {object} ErrorResponse
// @Router      /redemptions/{id}/process [post]
func (h *RedemptionHandler) ProcessRedemption(c *gin.Context) {
	actorID, err := getActorID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	entry, err := h.redemptionService.ProcessRedemption(c.Param("id"), actorID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actorID, "redemption.process", "redemption_request", c.Param("id"), map[string]interface{}{
		"transaction_id": entry.ID,
	})
	c.JSON(http.StatusOK, entry)
}

// GetRedemption returns a redemption request.
// @Summary     Get a redemption request
// @Tags        redemptions
// @Produce     json
// @Param       id path string true "Redemption request ID"
// @Success     200 {object} models.RedemptionRequest
// @Failure     404 {object} ErrorResponse
// @Router      /redemptions/{id} [get]
func (h *RedemptionHandler) GetRedemption(c *gin.Context) {
	request, err := h.redemptionService.GetRedemptionByID(c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, request)
}

// ListAccountRedemptions returns an account's redemption requests.
// @Summary     List account redemption requests
// @Tags        redemptions
// @Produce     json
// @Param       id path string true "Account ID"
// @Param       page query int false "Page number"
// @Param       page_size query int false "Page size"
// @Success     200 {object} pagination.PageResponse[models.RedemptionRequest]
// @Failure     404 {object} ErrorResponse
// @Router      /accounts/{id}/redemptions [get]
func (h *RedemptionHandler) ListAccountRedemptions(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
		return
	}

	result, err := h.redemptionService.GetAccountRedemptions(c.Param("id"), page)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
