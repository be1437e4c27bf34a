package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "fundledger/internal/errors"
	"fundledger/internal/models"
	"fundledger/internal/pagination"
)

// navService handles NAV calculation and its approval lifecycle.
type navService struct {
	db          *gorm.DB
	fundService FundServicer
	feeService  FeeServicer
}

// NewNAVService creates a new NAVServicer.
func NewNAVService(db *gorm.DB, fundService FundServicer, feeService FeeServicer) NAVServicer {
	return &navService{db: db, fundService: fundService, feeService: feeService}
}

// CalculateNAV aggregates line items into a new draft NAV calculation.
//
// Assets and liabilities are summed by kind; fee accruals are computed against
// the latest prior approved NAV for the same key and tracked separately, not
// folded into liabilities. The calculation row and its line items are
// persisted in one database transaction so partial persistence is never
// observable. An existing approved calculation is never mutated; recalculation
// for the same key produces the next version.
func (s *navService) CalculateNAV(input CalculateNAVInput) (*models.NAVCalculation, error) {
	if input.TotalShares.IsNegative() {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "total shares outstanding cannot be negative")
	}
	if input.ActorID == "" {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "actor ID is required")
	}
	if input.ValuationDate.IsZero() {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "valuation date is required")
	}

	fund, err := s.fundService.GetFundByID(input.FundID)
	if err != nil {
		return nil, err
	}
	if fund.Status == models.FundStatusClosed {
		return nil, apperrors.ErrFundClosed
	}

	pricePrecision := int32(4)
	if input.ShareClassID != nil {
		sc, err := s.fundService.GetShareClassByID(*input.ShareClassID)
		if err != nil {
			return nil, err
		}
		if sc.FundID != fund.ID {
			return nil, apperrors.WithMessage(apperrors.ErrValidation, "share class does not belong to this fund")
		}
		if sc.PricePrecision > 0 {
			pricePrecision = int32(sc.PricePrecision)
		}
	}

	valuationDate := dateOnly(input.ValuationDate)

	lineItems, totalAssets, totalLiabilities, err := buildLineItems(input.LineItems)
	if err != nil {
		return nil, err
	}

	netAssetValue := totalAssets.Sub(totalLiabilities)

	navPerShare := decimal.Zero
	if input.TotalShares.IsPositive() {
		navPerShare = netAssetValue.DivRound(input.TotalShares, pricePrecision)
	}

	previousNAV, highWaterMark, err := s.priorApprovedNAV(fund.ID, input.ShareClassID, valuationDate)
	if err != nil {
		return nil, err
	}

	fees, err := s.feeService.CalculateFees(fund.ID, input.ShareClassID, valuationDate, netAssetValue, previousNAV, highWaterMark)
	if err != nil {
		return nil, err
	}

	version, err := s.nextVersion(fund.ID, input.ShareClassID, valuationDate)
	if err != nil {
		return nil, err
	}

	calc := &models.NAVCalculation{
		FundID:                 fund.ID,
		ShareClassID:           input.ShareClassID,
		ValuationDate:          valuationDate,
		Version:                version,
		TotalAssets:            totalAssets,
		TotalLiabilities:       totalLiabilities,
		NetAssetValue:          netAssetValue,
		TotalSharesOutstanding: input.TotalShares,
		NAVPerShare:            navPerShare,
		ManagementFeeAccrual:   fees.ManagementFee,
		PerformanceFeeAccrual:  fees.PerformanceFee,
		Status:                 models.NAVStatusDraft,
		Notes:                  input.Notes,
		CreatedBy:              input.ActorID,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if txErr := tx.Create(calc).Error; txErr != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
		}
		for i := range lineItems {
			lineItems[i].NAVCalculationID = calc.ID
		}
		if len(lineItems) > 0 {
			if txErr := tx.Create(&lineItems).Error; txErr != nil {
				return apperrors.Wrap(apperrors.ErrConsistency, txErr)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	calc.LineItems = lineItems
	return calc, nil
}

// buildLineItems validates inputs and converts them to model rows, returning
// the asset and liability totals. Quantities must be non-negative for asset,
// liability, and fee kinds; adjustments may be negative.
func buildLineItems(inputs []LineItemInput) ([]models.NAVLineItem, decimal.Decimal, decimal.Decimal, error) {
	totalAssets := decimal.Zero
	totalLiabilities := decimal.Zero

	items := make([]models.NAVLineItem, 0, len(inputs))
	for i, in := range inputs {
		switch in.Kind {
		case models.LineItemKindAsset, models.LineItemKindLiability, models.LineItemKindAdjustment, models.LineItemKindFee:
		default:
			return nil, decimal.Zero, decimal.Zero, apperrors.WithMessage(apperrors.ErrValidation,
				fmt.Sprintf("line item %d: unknown kind %q", i, in.Kind))
		}
		if in.Kind != models.LineItemKindAdjustment && in.Quantity.IsNegative() {
			return nil, decimal.Zero, decimal.Zero, apperrors.WithMessage(apperrors.ErrValidation,
				fmt.Sprintf("line item %d: negative quantity not allowed for kind %q", i, in.Kind))
		}
		if in.Description == "" {
			return nil, decimal.Zero, decimal.Zero, apperrors.WithMessage(apperrors.ErrValidation,
				fmt.Sprintf("line item %d: description is required", i))
		}

		amount := in.Quantity.Mul(in.UnitPrice)
		if in.Amount != nil {
			amount = *in.Amount
		}

		currency := in.Currency
		if currency == "" {
			currency = "USD"
		}

		switch in.Kind {
		case models.LineItemKindAsset:
			totalAssets = totalAssets.Add(amount)
		case models.LineItemKindLiability:
			totalLiabilities = totalLiabilities.Add(amount)
		}

		items = append(items, models.NAVLineItem{
			Kind:        in.Kind,
			Category:    in.Category,
			Description: in.Description,
			Quantity:    in.Quantity,
			UnitPrice:   in.UnitPrice,
			Amount:      amount,
			Currency:    currency,
			FXRate:      in.FXRate,
		})
	}
	return items, totalAssets, totalLiabilities, nil
}

// priorApprovedNAV returns the net asset value of the latest approved
// calculation strictly before the valuation date, plus the historical peak
// approved NAV (the high-water mark). Both are zero when no prior approved
// calculation exists.
func (s *navService) priorApprovedNAV(fundID string, shareClassID *string, valuationDate time.Time) (decimal.Decimal, decimal.Decimal, error) {
	base := s.db.Model(&models.NAVCalculation{}).
		Where("fund_id = ? AND status = ? AND valuation_date < ?", fundID, models.NAVStatusApproved, valuationDate)
	base = shareClassScope(base, shareClassID)

	var prior models.NAVCalculation
	err := base.Order("valuation_date DESC, version DESC").First(&prior).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return decimal.Zero, decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, decimal.Zero, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	type peakRow struct {
		Peak decimal.Decimal
	}
	var peak peakRow
	peakQuery := s.db.Model(&models.NAVCalculation{}).
		Select("COALESCE(MAX(net_asset_value), 0) AS peak").
		Where("fund_id = ? AND status = ? AND valuation_date < ?", fundID, models.NAVStatusApproved, valuationDate)
	peakQuery = shareClassScope(peakQuery, shareClassID)
	if err := peakQuery.Scan(&peak).Error; err != nil {
		return decimal.Zero, decimal.Zero, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return prior.NetAssetValue, peak.Peak, nil
}

// nextVersion returns one past the highest version already recorded for the key.
func (s *navService) nextVersion(fundID string, shareClassID *string, valuationDate time.Time) (int, error) {
	type versionRow struct {
		MaxVersion int
	}
	var row versionRow
	q := s.db.Model(&models.NAVCalculation{}).
		Select("COALESCE(MAX(version), 0) AS max_version").
		Where("fund_id = ? AND valuation_date = ?", fundID, valuationDate)
	q = shareClassScope(q, shareClassID)
	if err := q.Scan(&row).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return row.MaxVersion + 1, nil
}

// SubmitNAV moves a draft calculation to pending approval.
func (s *navService) SubmitNAV(navID, actorID string) (*models.NAVCalculation, error) {
	if actorID == "" {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "actor ID is required")
	}

	var calc models.NAVCalculation
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if txErr := lockForUpdate(tx).First(&calc, "id = ?", navID).Error; txErr != nil {
			if errors.Is(txErr, gorm.ErrRecordNotFound) {
				return apperrors.ErrNAVNotFound
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
		}
		if calc.Status != models.NAVStatusDraft {
			return apperrors.WithMessage(apperrors.ErrStateConflict,
				fmt.Sprintf("cannot submit a NAV calculation in status %q", calc.Status))
		}
		if txErr := tx.Model(&calc).Update("status", models.NAVStatusPendingApproval).Error; txErr != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &calc, nil
}

// ApproveNAV approves a pending calculation. Any previously approved
// calculation for the same (fund, share class, valuation date) is demoted to
// superseded in the same database transaction, so a reader can never observe
// two approved rows for one key.
func (s *navService) ApproveNAV(navID, approverID string) (*models.NAVCalculation, error) {
	if approverID == "" {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "approver ID is required")
	}

	var calc models.NAVCalculation
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if txErr := lockForUpdate(tx).First(&calc, "id = ?", navID).Error; txErr != nil {
			if errors.Is(txErr, gorm.ErrRecordNotFound) {
				return apperrors.ErrNAVNotFound
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
		}
		if calc.Status != models.NAVStatusPendingApproval {
			return apperrors.WithMessage(apperrors.ErrStateConflict,
				fmt.Sprintf("cannot approve a NAV calculation in status %q", calc.Status))
		}

		demote := tx.Model(&models.NAVCalculation{}).
			Where("fund_id = ? AND valuation_date = ? AND status = ? AND id <> ?",
				calc.FundID, calc.ValuationDate, models.NAVStatusApproved, calc.ID)
		demote = shareClassScope(demote, calc.ShareClassID)
		if txErr := demote.Update("status", models.NAVStatusSuperseded).Error; txErr != nil {
			return apperrors.Wrap(apperrors.ErrConsistency, txErr)
		}

		now := time.Now()
		if txErr := tx.Model(&calc).Updates(map[string]interface{}{
			"status":      models.NAVStatusApproved,
			"approved_by": approverID,
			"approved_at": now,
		}).Error; txErr != nil {
			return apperrors.Wrap(apperrors.ErrConsistency, txErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &calc, nil
}

// RejectNAV rejects a draft or pending calculation. A rejection reason is
// required, matching the redemption workflow's rule.
func (s *navService) RejectNAV(navID, actorID, reason string) (*models.NAVCalculation, error) {
	if actorID == "" {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "actor ID is required")
	}
	if reason == "" {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "rejection reason is required")
	}

	var calc models.NAVCalculation
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if txErr := lockForUpdate(tx).First(&calc, "id = ?", navID).Error; txErr != nil {
			if errors.Is(txErr, gorm.ErrRecordNotFound) {
				return apperrors.ErrNAVNotFound
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
		}
		if calc.Status != models.NAVStatusDraft && calc.Status != models.NAVStatusPendingApproval {
			return apperrors.WithMessage(apperrors.ErrStateConflict,
				fmt.Sprintf("cannot reject a NAV calculation in status %q", calc.Status))
		}
		if txErr := tx.Model(&calc).Updates(map[string]interface{}{
			"status":          models.NAVStatusRejected,
			"rejected_reason": reason,
		}).Error; txErr != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &calc, nil
}

// GetNAVByID retrieves a calculation in any status, with line items. This is
// the reviewer surface; pricing consumers use GetLatestNAV.
func (s *navService) GetNAVByID(navID string) (*models.NAVCalculation, error) {
	var calc models.NAVCalculation
	if err := s.db.Preload("LineItems").First(&calc, "id = ?", navID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNAVNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &calc, nil
}

// GetLatestNAV returns the most recent approved calculation for the key.
// Draft and pending rows are never visible here.
func (s *navService) GetLatestNAV(fundID string, shareClassID *string) (*models.NAVCalculation, error) {
	q := s.db.Where("fund_id = ? AND status = ?", fundID, models.NAVStatusApproved)
	q = shareClassScope(q, shareClassID)

	var calc models.NAVCalculation
	err := q.Order("valuation_date DESC, version DESC").First(&calc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNoApprovedNAV
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &calc, nil
}

// GetNAVHistory returns approved calculations ascending by valuation date.
// Callers may re-query any window; the result is stable for a given data set.
func (s *navService) GetNAVHistory(fundID string, shareClassID *string, filter NAVFilter, page pagination.PageRequest) (*pagination.PageResponse[models.NAVCalculation], error) {
	if _, err := s.fundService.GetFundByID(fundID); err != nil {
		return nil, err
	}

	page.Defaults()

	base := s.db.Model(&models.NAVCalculation{}).
		Where("fund_id = ? AND status = ?", fundID, models.NAVStatusApproved)
	base = shareClassScope(base, shareClassID)
	if filter.From != nil {
		base = base.Where("valuation_date >= ?", dateOnly(*filter.From))
	}
	if filter.To != nil {
		base = base.Where("valuation_date <= ?", dateOnly(*filter.To))
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var calcs []models.NAVCalculation
	if err := base.Order("valuation_date ASC, version ASC").
		Scopes(pagination.Paginate(page)).
		Find(&calcs).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(calcs, page.Page, page.PageSize, totalItems)
	return &result, nil
}
