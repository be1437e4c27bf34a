package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// NAVStatus represents the lifecycle status of a NAV calculation.
type NAVStatus string

const (
	NAVStatusDraft           NAVStatus = "draft"
	NAVStatusPendingApproval NAVStatus = "pending_approval"
	NAVStatusApproved        NAVStatus = "approved"
	NAVStatusRejected        NAVStatus = "rejected"
	NAVStatusSuperseded      NAVStatus = "superseded"
)

// LineItemKind classifies a NAV line item.
type LineItemKind string

const (
	LineItemKindAsset      LineItemKind = "asset"
	LineItemKindLiability  LineItemKind = "liability"
	LineItemKindAdjustment LineItemKind = "adjustment"
	LineItemKindFee        LineItemKind = "fee"
)

// NAVCalculation is a versioned valuation snapshot for a fund (optionally a
// share class) as of a valuation date. At most one calculation per
// (fund, share_class, valuation_date) may be approved at any time; approving a
// newer version supersedes the prior approved row atomically.
type NAVCalculation struct {
	Base
	FundID                 string          `gorm:"type:uuid;not null;index:idx_nav_key" json:"fund_id"`
	ShareClassID           *string         `gorm:"type:uuid;index:idx_nav_key" json:"share_class_id,omitempty"`
	ValuationDate          time.Time       `gorm:"type:date;not null;index:idx_nav_key" json:"valuation_date"`
	Version                int             `gorm:"not null;default:1" json:"version"`
	TotalAssets            decimal.Decimal `gorm:"type:decimal(24,6);not null" json:"total_assets"`
	TotalLiabilities       decimal.Decimal `gorm:"type:decimal(24,6);not null" json:"total_liabilities"`
	NetAssetValue          decimal.Decimal `gorm:"type:decimal(24,6);not null" json:"net_asset_value"`
	TotalSharesOutstanding decimal.Decimal `gorm:"type:decimal(24,6);not null" json:"total_shares_outstanding"`
	NAVPerShare            decimal.Decimal `gorm:"type:decimal(24,6);not null" json:"nav_per_share"`
	ManagementFeeAccrual   decimal.Decimal `gorm:"type:decimal(24,6);not null;default:0" json:"management_fee_accrual"`
	PerformanceFeeAccrual  decimal.Decimal `gorm:"type:decimal(24,6);not null;default:0" json:"performance_fee_accrual"`
	Status                 NAVStatus       `gorm:"not null;default:'draft';index" json:"status"`
	Notes                  string          `json:"notes,omitempty"`
	CreatedBy              string          `gorm:"not null" json:"created_by"`
	ApprovedBy             *string         `json:"approved_by,omitempty"`
	ApprovedAt             *time.Time      `json:"approved_at,omitempty"`
	RejectedReason         string          `json:"rejected_reason,omitempty"`

	// Relationships
	Fund       Fund          `gorm:"foreignKey:FundID" json:"fund,omitempty"`
	ShareClass *ShareClass   `gorm:"foreignKey:ShareClassID" json:"share_class,omitempty"`
	LineItems  []NAVLineItem `gorm:"foreignKey:NAVCalculationID" json:"line_items,omitempty"`
}

// NAVLineItem is a single asset, liability, adjustment, or fee entry belonging
// to a NAV calculation. Immutable once the parent calculation is approved.
type NAVLineItem struct {
	Base
	NAVCalculationID string           `gorm:"type:uuid;not null;index" json:"nav_calculation_id"`
	Kind             LineItemKind     `gorm:"not null" json:"kind"`
	Category         string           `json:"category,omitempty"`
	Description      string           `gorm:"not null" json:"description"`
	Quantity         decimal.Decimal  `gorm:"type:decimal(24,6);not null;default:1" json:"quantity"`
	UnitPrice        decimal.Decimal  `gorm:"type:decimal(24,6);not null;default:0" json:"unit_price"`
	Amount           decimal.Decimal  `gorm:"type:decimal(24,6);not null" json:"amount"`
	Currency         string           `gorm:"not null;default:'USD'" json:"currency"`
	FXRate           *decimal.Decimal `gorm:"type:decimal(18,8)" json:"fx_rate,omitempty"`
}
