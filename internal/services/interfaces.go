package services

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"fundledger/internal/models"
	"fundledger/internal/pagination"
)

// FundServicer defines the contract for fund administration.
type FundServicer interface {
	CreateFund(code, name, baseCurrency string, inceptionDate time.Time, description string) (*models.Fund, error)
	GetFundByID(fundID string) (*models.Fund, error)
	ListFunds(page pagination.PageRequest) (*pagination.PageResponse[models.Fund], error)
	CloseFund(fundID string) (*models.Fund, error)
	CreateShareClass(input CreateShareClassInput) (*models.ShareClass, error)
	GetShareClassByID(shareClassID string) (*models.ShareClass, error)
	CreateFeeStructure(input CreateFeeStructureInput) (*models.FeeStructure, error)
	GetFundFeeStructures(fundID string, page pagination.PageRequest) (*pagination.PageResponse[models.FeeStructure], error)
}

// CreateShareClassInput holds the parameters for creating a share class.
type CreateShareClassInput struct {
	FundID             string
	Name               string
	Currency           string
	ManagementFeeRate  decimal.Decimal
	PerformanceFeeRate decimal.Decimal
	HurdleRate         decimal.Decimal
	HighWaterMark      bool
	PricePrecision     int
	MinimumInvestment  decimal.Decimal
}

// CreateFeeStructureInput holds the parameters for creating a fee structure.
type CreateFeeStructureInput struct {
	FundID           string
	ShareClassID     *string
	FeeType          models.FeeType
	Rate             decimal.Decimal
	AccrualFrequency models.AccrualFrequency
	HurdleRate       decimal.Decimal
	EffectiveFrom    time.Time
	EffectiveTo      *time.Time
}

// FeeAccrual is the result of a periodic fee calculation.
type FeeAccrual struct {
	ManagementFee  decimal.Decimal `json:"management_fee"`
	PerformanceFee decimal.Decimal `json:"performance_fee"`
	TotalFees      decimal.Decimal `json:"total_fees"`
}

// FeeServicer defines the contract for fee accrual calculation. CalculateFees
// is a pure read: it never writes, and its output depends only on the fee
// structures active on the valuation date and the NAV figures supplied.
type FeeServicer interface {
	CalculateFees(fundID string, shareClassID *string, valuationDate time.Time, currentNAV, previousNAV, highWaterMark decimal.Decimal) (*FeeAccrual, error)
}

// LineItemInput is a single asset/liability/adjustment/fee entry supplied to a
// NAV calculation. Amount defaults to Quantity × UnitPrice when nil.
type LineItemInput struct {
	Kind        models.LineItemKind
	Category    string
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	Amount      *decimal.Decimal
	Currency    string
	FXRate      *decimal.Decimal
}

// CalculateNAVInput holds the parameters for a NAV calculation.
type CalculateNAVInput struct {
	FundID        string
	ShareClassID  *string
	ValuationDate time.Time
	LineItems     []LineItemInput
	TotalShares   decimal.Decimal
	ActorID       string
	Notes         string
}

// NAVFilter holds optional date bounds for NAV history queries.
type NAVFilter struct {
	From *time.Time
	To   *time.Time
}

// NAVServicer defines the contract for NAV calculation and its approval lifecycle.
type NAVServicer interface {
	CalculateNAV(input CalculateNAVInput) (*models.NAVCalculation, error)
	SubmitNAV(navID, actorID string) (*models.NAVCalculation, error)
	ApproveNAV(navID, approverID string) (*models.NAVCalculation, error)
	RejectNAV(navID, actorID, reason string) (*models.NAVCalculation, error)
	GetNAVByID(navID string) (*models.NAVCalculation, error)
	GetLatestNAV(fundID string, shareClassID *string) (*models.NAVCalculation, error)
	GetNAVHistory(fundID string, shareClassID *string, filter NAVFilter, page pagination.PageRequest) (*pagination.PageResponse[models.NAVCalculation], error)
}

// TransactionFilter holds optional filter parameters for listing ledger entries.
type TransactionFilter struct {
	FromDate  *time.Time
	ToDate    *time.Time
	Type      *models.TransactionType
	MinAmount *decimal.Decimal
	MaxAmount *decimal.Decimal
}

// AccountServicer defines the contract for the capital account ledger.
type AccountServicer interface {
	CreateCapitalAccount(fundID string, shareClassID *string, investorID, investorName, currency string) (*models.CapitalAccount, error)
	GetAccountByID(accountID string) (*models.CapitalAccount, error)
	GetFundAccounts(fundID string, page pagination.PageRequest) (*pagination.PageResponse[models.CapitalAccount], error)
	RecordTransaction(accountID string, txType models.TransactionType, amount, shares, pricePerShare decimal.Decimal, description string) (*models.Transaction, error)
	ApplyTransaction(tx *gorm.DB, account *models.CapitalAccount, txType models.TransactionType, amount, shares decimal.Decimal) error
	GetAccountTransactions(accountID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
}

// ReviewRedemptionInput holds a reviewer's decision on a redemption request.
// Approved figures default to the requested ones when nil, so a reviewer can
// partially fulfil a request by supplying smaller values.
type ReviewRedemptionInput struct {
	RequestID       string
	Decision        string // approve | reject
	SharesApproved  *decimal.Decimal
	AmountApproved  *decimal.Decimal
	RedemptionPrice *decimal.Decimal
	RejectionReason string
	ReviewerID      string
}

// RedemptionServicer defines the contract for the redemption workflow.
type RedemptionServicer interface {
	CreateRedemptionRequest(accountID string, redemptionType models.RedemptionType, shares, amount *decimal.Decimal, redemptionDate time.Time, reason string) (*models.RedemptionRequest, error)
	ReviewRedemption(input ReviewRedemptionInput) (*models.RedemptionRequest, error)
	ProcessRedemption(requestID, actorID string) (*models.Transaction, error)
	GetRedemptionByID(requestID string) (*models.RedemptionRequest, error)
	GetAccountRedemptions(accountID string, page pagination.PageRequest) (*pagination.PageResponse[models.RedemptionRequest], error)
}

// PerformanceServicer defines the contract for derived performance metrics.
type PerformanceServicer interface {
	CalculatePerformance(fundID string, shareClassID *string, periodType models.PeriodType, asOfDate time.Time) (*models.PerformanceMetric, error)
	GetPerformanceHistory(fundID string, periodType *models.PeriodType, page pagination.PageRequest) (*pagination.PageResponse[models.PerformanceMetric], error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(actorID, action, resourceType, resourceID string, changes map[string]interface{})
}
