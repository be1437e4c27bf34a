package services

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "fundledger/internal/errors"
	"fundledger/internal/models"
)

// accrualDivisors maps accrual frequency to the annual divisor. Unrecognized
// frequencies fall back to monthly.
var accrualDivisors = map[models.AccrualFrequency]int64{
	models.AccrualFrequencyMonthly:   12,
	models.AccrualFrequencyQuarterly: 4,
	models.AccrualFrequencyAnnual:    1,
}

var oneHundred = decimal.NewFromInt(100)

// feeService computes periodic management and performance fee accruals.
type feeService struct {
	db *gorm.DB
}

// NewFeeService creates a new FeeServicer.
func NewFeeService(db *gorm.DB) FeeServicer {
	return &feeService{db: db}
}

// CalculateFees sums the accruals of every fee structure active on the
// valuation date for the fund (and share class, when given). With no active
// structures the result is zero across the board. The calculation performs no
// writes.
//
// Performance fees accrue against the higher of the previous approved NAV and
// the high-water mark when the share class declares one, so fees are never
// charged twice on recovered losses.
func (s *feeService) CalculateFees(fundID string, shareClassID *string, valuationDate time.Time, currentNAV, previousNAV, highWaterMark decimal.Decimal) (*FeeAccrual, error) {
	date := dateOnly(valuationDate)

	var shareClass *models.ShareClass
	if shareClassID != nil {
		var sc models.ShareClass
		if err := s.db.First(&sc, "id = ?", *shareClassID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperrors.ErrShareClassNotFound
			}
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		shareClass = &sc
	}

	structures, err := s.activeStructures(fundID, shareClassID, date)
	if err != nil {
		return nil, err
	}

	accrual := &FeeAccrual{
		ManagementFee:  decimal.Zero,
		PerformanceFee: decimal.Zero,
		TotalFees:      decimal.Zero,
	}

	baseline := previousNAV
	if shareClass != nil && shareClass.HighWaterMark && highWaterMark.GreaterThan(baseline) {
		baseline = highWaterMark
	}

	for i := range structures {
		fs := &structures[i]
		switch fs.FeeType {
		case models.FeeTypeManagement:
			accrual.ManagementFee = accrual.ManagementFee.Add(managementAccrual(currentNAV, fs))
		case models.FeeTypePerformance:
			accrual.PerformanceFee = accrual.PerformanceFee.Add(performanceAccrual(currentNAV, baseline, fs, shareClass))
		}
	}

	accrual.ManagementFee = accrual.ManagementFee.Round(2)
	accrual.PerformanceFee = accrual.PerformanceFee.Round(2)
	accrual.TotalFees = accrual.ManagementFee.Add(accrual.PerformanceFee)
	return accrual, nil
}

// activeStructures loads the fee structures in effect on the date: fund-level
// structures plus, when a share class is given, structures scoped to it.
func (s *feeService) activeStructures(fundID string, shareClassID *string, date time.Time) ([]models.FeeStructure, error) {
	q := s.db.Where("fund_id = ? AND is_active = ?", fundID, true).
		Where("effective_from <= ?", date).
		Where("effective_to IS NULL OR effective_to >= ?", date)

	if shareClassID != nil {
		q = q.Where("share_class_id IS NULL OR share_class_id = ?", *shareClassID)
	} else {
		q = q.Where("share_class_id IS NULL")
	}

	var structures []models.FeeStructure
	if err := q.Order("effective_from ASC").Find(&structures).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return structures, nil
}

// managementAccrual computes one period's management fee:
// currentNAV × rate% ÷ periods-per-year.
func managementAccrual(currentNAV decimal.Decimal, fs *models.FeeStructure) decimal.Decimal {
	divisor, ok := accrualDivisors[fs.AccrualFrequency]
	if !ok {
		divisor = accrualDivisors[models.AccrualFrequencyMonthly]
	}
	annual := currentNAV.Mul(fs.Rate).Div(oneHundred)
	return annual.Div(decimal.NewFromInt(divisor))
}

// performanceAccrual computes one period's performance fee: the gain over the
// baseline in excess of the hurdle, times the fee rate. No gain, no fee.
func performanceAccrual(currentNAV, baseline decimal.Decimal, fs *models.FeeStructure, shareClass *models.ShareClass) decimal.Decimal {
	gain := currentNAV.Sub(baseline)
	if !gain.IsPositive() {
		return decimal.Zero
	}

	hurdleRate := fs.HurdleRate
	if hurdleRate.IsZero() && shareClass != nil {
		hurdleRate = shareClass.HurdleRate
	}

	hurdle := baseline.Mul(hurdleRate).Div(oneHundred)
	excess := gain.Sub(hurdle)
	if !excess.IsPositive() {
		return decimal.Zero
	}
	return excess.Mul(fs.Rate).Div(oneHundred)
}
