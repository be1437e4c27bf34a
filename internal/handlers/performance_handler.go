package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "fundledger/internal/errors"
	"fundledger/internal/models"
	"fundledger/internal/pagination"
	"fundledger/internal/services"
)

// PerformanceHandler handles performance metric requests.
type PerformanceHandler struct {
	performanceService services.PerformanceServicer
	auditService       services.AuditServicer
}

// NewPerformanceHandler creates a new PerformanceHandler.
func NewPerformanceHandler(performanceService services.PerformanceServicer, auditService services.AuditServicer) *PerformanceHandler {
	return &PerformanceHandler{performanceService: performanceService, auditService: auditService}
}

// CalculatePerformanceRequest represents the request payload for a metric calculation.
type CalculatePerformanceRequest struct {
	ShareClassID *string `json:"share_class_id"`
	PeriodType   string  `json:"period_type" binding:"required,period_type"`
	AsOfDate     string  `json:"as_of_date" binding:"required"`
}

// CalculatePerformance computes and records a performance metric snapshot for
// a fund over the requested period.
// @Summary     Calculate performance metrics
// @Tags        performance
// @Accept      json
// @Produce     json
// @Param       id path string true "Fund ID"
// @Param       request body CalculatePerformanceRequest true "Calculation inputs"
// @Success     201 {object} models.PerformanceMetric
// @Failure     400 {object} ErrorResponse
// @Failure     404 {object} ErrorResponse
// @Router      /funds/{id}/performance/calculate [post]
func (h *PerformanceHandler) CalculatePerformance(c *gin.Context) {
	actorID, err := getActorID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CalculatePerformanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
		return
	}

	asOf, err := parseDate(req.AsOfDate)
	if err != nil {
		respondWithError(c, err)
		return
	}

	metric, err := h.performanceService.CalculatePerformance(c.Param("id"), req.ShareClassID,
		models.PeriodType(req.PeriodType), asOf)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actorID, "performance.calculate", "performance_metric", metric.ID, map[string]interface{}{
		"period_type": req.PeriodType,
		"as_of_date":  req.AsOfDate,
	})
	c.JSON(http.StatusCreated, metric)
}

// GetPerformanceHistory returns recorded metric snapshots for a fund.
// @Summary     Get performance history
// @Tags        performance
// @Produce     json
// @Param       id path string true "Fund ID"
// @Param       period_type query string false "Period type filter"
// @Param       page query int false "Page number"
// @Param       page_size query int false "Page size"
// @Success     200 {object} pagination.PageResponse[models.PerformanceMetric]
// @Failure     404 {object} ErrorResponse
// @Router      /funds/{id}/performance [get]
func (h *PerformanceHandler) GetPerformanceHistory(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
		return
	}

	var periodType *models.PeriodType
	if pt := c.Query("period_type"); pt != "" {
		t := models.PeriodType(pt)
		periodType = &t
	}

	result, err := h.performanceService.GetPerformanceHistory(c.Param("id"), periodType, page)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
