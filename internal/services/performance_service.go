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

// performanceService derives period returns and lifetime multiples
// (DPI/RVPI/TVPI/MOIC) from approved NAV history and settled ledger activity.
type performanceService struct {
	db          *gorm.DB
	fundService FundServicer
}

// NewPerformanceService creates a new PerformanceServicer.
func NewPerformanceService(db *gorm.DB, fundService FundServicer) PerformanceServicer {
	return &performanceService{db: db, fundService: fundService}
}

// CalculatePerformance computes and persists a performance metric for the
// period containing asOfDate. Each run inserts a new row; prior rows for the
// same period are kept as an audit trail of calculations.
func (s *performanceService) CalculatePerformance(fundID string, shareClassID *string, periodType models.PeriodType, asOfDate time.Time) (*models.PerformanceMetric, error) {
	if asOfDate.IsZero() {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "as-of date is required")
	}

	fund, err := s.fundService.GetFundByID(fundID)
	if err != nil {
		return nil, err
	}

	asOf := dateOnly(asOfDate)
	periodStart, err := periodStartFor(periodType, asOf, fund.InceptionDate)
	if err != nil {
		return nil, err
	}

	beginningNAV, err := s.navAtOrBefore(fund.ID, shareClassID, periodStart)
	if err != nil {
		return nil, err
	}
	endingNAV, err := s.navAtOrBefore(fund.ID, shareClassID, asOf)
	if err != nil {
		return nil, err
	}

	contributions, err := s.sumTransactions(fund.ID, shareClassID,
		[]models.TransactionType{models.TransactionTypeSubscription}, &periodStart, asOf)
	if err != nil {
		return nil, err
	}
	distributions, err := s.sumTransactions(fund.ID, shareClassID,
		[]models.TransactionType{models.TransactionTypeRedemption, models.TransactionTypeDistribution}, &periodStart, asOf)
	if err != nil {
		return nil, err
	}

	lifetimeContributions, err := s.sumTransactions(fund.ID, shareClassID,
		[]models.TransactionType{models.TransactionTypeSubscription}, nil, asOf)
	if err != nil {
		return nil, err
	}
	lifetimeDistributions, err := s.sumTransactions(fund.ID, shareClassID,
		[]models.TransactionType{models.TransactionTypeRedemption, models.TransactionTypeDistribution}, nil, asOf)
	if err != nil {
		return nil, err
	}

	totalReturn := endingNAV.Add(distributions).Sub(beginningNAV).Sub(contributions)
	returnPercent := decimal.Zero
	if beginningNAV.IsPositive() {
		returnPercent = totalReturn.Div(beginningNAV).Mul(oneHundred).Round(4)
	}

	paidIn := lifetimeContributions
	if paidIn.IsZero() {
		paidIn = decimal.NewFromInt(1)
	}
	dpi := lifetimeDistributions.DivRound(paidIn, 4)
	rvpi := endingNAV.DivRound(paidIn, 4)
	tvpi := dpi.Add(rvpi)

	metric := &models.PerformanceMetric{
		FundID:             fund.ID,
		ShareClassID:       shareClassID,
		PeriodType:         periodType,
		MetricDate:         asOf,
		PeriodStart:        periodStart,
		PeriodEnd:          asOf,
		BeginningNAV:       beginningNAV,
		EndingNAV:          endingNAV,
		NetContributions:   contributions,
		NetDistributions:   distributions,
		TotalReturnAmount:  totalReturn,
		TotalReturnPercent: returnPercent,
		DPI:                dpi,
		RVPI:               rvpi,
		TVPI:               tvpi,
		MOIC:               tvpi, // reported as a synonym of TVPI
	}
	if err := s.db.Create(metric).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return metric, nil
}

// periodStartFor resolves the calendar start of the period containing asOf.
func periodStartFor(periodType models.PeriodType, asOf, inception time.Time) (time.Time, error) {
	switch periodType {
	case models.PeriodTypeMonthly:
		return time.Date(asOf.Year(), asOf.Month(), 1, 0, 0, 0, 0, time.UTC), nil
	case models.PeriodTypeQuarterly:
		quarterStart := time.Month(((int(asOf.Month())-1)/3)*3 + 1)
		return time.Date(asOf.Year(), quarterStart, 1, 0, 0, 0, 0, time.UTC), nil
	case models.PeriodTypeYearly:
		return time.Date(asOf.Year(), time.January, 1, 0, 0, 0, 0, time.UTC), nil
	case models.PeriodTypeInception:
		return dateOnly(inception), nil
	default:
		return time.Time{}, apperrors.WithMessage(apperrors.ErrValidation, fmt.Sprintf("unknown period type %q", periodType))
	}
}

// navAtOrBefore returns the net asset value of the latest approved calculation
// dated at or before the given date, or zero when none exists.
func (s *performanceService) navAtOrBefore(fundID string, shareClassID *string, date time.Time) (decimal.Decimal, error) {
	q := s.db.Model(&models.NAVCalculation{}).
		Where("fund_id = ? AND status = ? AND valuation_date <= ?", fundID, models.NAVStatusApproved, date)
	q = shareClassScope(q, shareClassID)

	var calc models.NAVCalculation
	err := q.Order("valuation_date DESC, version DESC").First(&calc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return calc.NetAssetValue, nil
}

// sumTransactions totals settled ledger amounts of the given types across the
// fund's capital accounts, bounded by settlement date. A nil from bound means
// since inception.
func (s *performanceService) sumTransactions(fundID string, shareClassID *string, types []models.TransactionType, from *time.Time, to time.Time) (decimal.Decimal, error) {
	q := s.db.Model(&models.Transaction{}).
		Joins("JOIN capital_accounts ON capital_accounts.id = transactions.capital_account_id").
		Where("capital_accounts.fund_id = ?", fundID).
		Where("transactions.status = ?", models.TransactionStatusSettled).
		Where("transactions.type IN ?", types).
		Where("transactions.settlement_date <= ?", to)
	if from != nil {
		q = q.Where("transactions.settlement_date >= ?", *from)
	}
	if shareClassID != nil {
		q = q.Where("capital_accounts.share_class_id = ?", *shareClassID)
	}

	type sumRow struct {
		Total decimal.Decimal
	}
	var row sumRow
	if err := q.Select("COALESCE(SUM(transactions.amount), 0) AS total").Scan(&row).Error; err != nil {
		return decimal.Zero, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return row.Total, nil
}

// GetPerformanceHistory returns a paginated list of persisted metrics for a
// fund, newest calculation first.
func (s *performanceService) GetPerformanceHistory(fundID string, periodType *models.PeriodType, page pagination.PageRequest) (*pagination.PageResponse[models.PerformanceMetric], error) {
	if _, err := s.fundService.GetFundByID(fundID); err != nil {
		return nil, err
	}

	page.Defaults()

	base := s.db.Model(&models.PerformanceMetric{}).Where("fund_id = ?", fundID)
	if periodType != nil {
		base = base.Where("period_type = ?", *periodType)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var metrics []models.PerformanceMetric
	if err := base.Order("metric_date DESC, created_at DESC").Scopes(pagination.Paginate(page)).Find(&metrics).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(metrics, page.Page, page.PageSize, totalItems)
	return &result, nil
}
