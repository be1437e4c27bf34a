package services

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	apperrors "fundledger/internal/errors"
	"fundledger/internal/models"
	"fundledger/internal/pagination"
)

// fundService handles fund administration: funds, share classes, fee structures.
type fundService struct {
	db *gorm.DB
}

// NewFundService creates a new FundServicer.
func NewFundService(db *gorm.DB) FundServicer {
	return &fundService{db: db}
}

// CreateFund creates a new fund with a unique code.
func (s *fundService) CreateFund(code, name, baseCurrency string, inceptionDate time.Time, description string) (*models.Fund, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "fund code is required")
	}
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "fund name is required")
	}
	if baseCurrency == "" {
		baseCurrency = "USD"
	}
	if inceptionDate.IsZero() {
		inceptionDate = time.Now()
	}

	var existing int64
	if err := s.db.Model(&models.Fund{}).Where("code = ?", code).Count(&existing).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if existing > 0 {
		return nil, apperrors.ErrDuplicateFundCode
	}

	fund := &models.Fund{
		Code:          code,
		Name:          name,
		BaseCurrency:  baseCurrency,
		Status:        models.FundStatusActive,
		InceptionDate: dateOnly(inceptionDate),
		Description:   description,
	}
	if err := s.db.Create(fund).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return fund, nil
}

// GetFundByID retrieves a fund by ID.
func (s *fundService) GetFundByID(fundID string) (*models.Fund, error) {
	var fund models.Fund
	if err := s.db.First(&fund, "id = ?", fundID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrFundNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &fund, nil
}

// ListFunds returns a paginated list of funds ordered by code.
func (s *fundService) ListFunds(page pagination.PageRequest) (*pagination.PageResponse[models.Fund], error) {
	page.Defaults()

	var totalItems int64
	if err := s.db.Model(&models.Fund{}).Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var funds []models.Fund
	if err := s.db.Order("code ASC").Scopes(pagination.Paginate(page)).Find(&funds).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(funds, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// CloseFund marks a fund as closed. Closed funds accept no new activity.
func (s *fundService) CloseFund(fundID string) (*models.Fund, error) {
	fund, err := s.GetFundByID(fundID)
	if err != nil {
		return nil, err
	}
	if fund.Status == models.FundStatusClosed {
		return nil, apperrors.WithMessage(apperrors.ErrStateConflict, "fund is already closed")
	}

	if err := s.db.Model(fund).Update("status", models.FundStatusClosed).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return fund, nil
}

// CreateShareClass creates a share class under a fund.
func (s *fundService) CreateShareClass(input CreateShareClassInput) (*models.ShareClass, error) {
	if input.Name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "share class name is required")
	}
	if input.ManagementFeeRate.IsNegative() || input.PerformanceFeeRate.IsNegative() || input.HurdleRate.IsNegative() {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "fee rates cannot be negative")
	}

	fund, err := s.GetFundByID(input.FundID)
	if err != nil {
		return nil, err
	}
	if fund.Status == models.FundStatusClosed {
		return nil, apperrors.ErrFundClosed
	}

	currency := input.Currency
	if currency == "" {
		currency = fund.BaseCurrency
	}
	precision := input.PricePrecision
	if precision <= 0 {
		precision = 4
	}

	sc := &models.ShareClass{
		FundID:             fund.ID,
		Name:               input.Name,
		Currency:           currency,
		ManagementFeeRate:  input.ManagementFeeRate,
		PerformanceFeeRate: input.PerformanceFeeRate,
		HurdleRate:         input.HurdleRate,
		HighWaterMark:      input.HighWaterMark,
		PricePrecision:     precision,
		MinimumInvestment:  input.MinimumInvestment,
	}
	if err := s.db.Create(sc).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return sc, nil
}

// GetShareClassByID retrieves a share class by ID.
func (s *fundService) GetShareClassByID(shareClassID string) (*models.ShareClass, error) {
	var sc models.ShareClass
	if err := s.db.First(&sc, "id = ?", shareClassID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrShareClassNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &sc, nil
}

// CreateFeeStructure creates a fee structure for a fund or share class.
func (s *fundService) CreateFeeStructure(input CreateFeeStructureInput) (*models.FeeStructure, error) {
	if input.Rate.IsNegative() {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "fee rate cannot be negative")
	}
	if input.FeeType != models.FeeTypeManagement && input.FeeType != models.FeeTypePerformance {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "unknown fee type: "+string(input.FeeType))
	}
	if input.EffectiveTo != nil && input.EffectiveTo.Before(input.EffectiveFrom) {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "effective_to cannot precede effective_from")
	}

	fund, err := s.GetFundByID(input.FundID)
	if err != nil {
		return nil, err
	}
	if input.ShareClassID != nil {
		sc, err := s.GetShareClassByID(*input.ShareClassID)
		if err != nil {
			return nil, err
		}
		if sc.FundID != fund.ID {
			return nil, apperrors.WithMessage(apperrors.ErrValidation, "share class does not belong to this fund")
		}
	}

	frequency := input.AccrualFrequency
	if frequency == "" {
		frequency = models.AccrualFrequencyMonthly
	}
	effectiveFrom := input.EffectiveFrom
	if effectiveFrom.IsZero() {
		effectiveFrom = fund.InceptionDate
	}

	fs := &models.FeeStructure{
		FundID:           fund.ID,
		ShareClassID:     input.ShareClassID,
		FeeType:          input.FeeType,
		Rate:             input.Rate,
		AccrualFrequency: frequency,
		HurdleRate:       input.HurdleRate,
		EffectiveFrom:    dateOnly(effectiveFrom),
		EffectiveTo:      input.EffectiveTo,
		IsActive:         true,
	}
	if err := s.db.Create(fs).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return fs, nil
}

// GetFundFeeStructures returns a paginated list of a fund's fee structures.
func (s *fundService) GetFundFeeStructures(fundID string, page pagination.PageRequest) (*pagination.PageResponse[models.FeeStructure], error) {
	if _, err := s.GetFundByID(fundID); err != nil {
		return nil, err
	}

	page.Defaults()

	base := s.db.Model(&models.FeeStructure{}).Where("fund_id = ?", fundID)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var structures []models.FeeStructure
	if err := base.Order("effective_from ASC").Scopes(pagination.Paginate(page)).Find(&structures).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(structures, page.Page, page.PageSize, totalItems)
	return &result, nil
}
