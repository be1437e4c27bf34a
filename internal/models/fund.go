package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// FundStatus represents the lifecycle status of a fund.
type FundStatus string

const (
	FundStatusActive FundStatus = "active"
	FundStatusClosed FundStatus = "closed"
)

// Fund represents an investment fund. Identity fields (code, base currency,
// inception date) are immutable after creation; only status and metadata change.
type Fund struct {
	Base
	Code          string     `gorm:"not null;uniqueIndex" json:"code"`
	Name          string     `gorm:"not null" json:"name"`
	BaseCurrency  string     `gorm:"not null;default:'USD'" json:"base_currency"`
	Status        FundStatus `gorm:"not null;default:'active'" json:"status"`
	InceptionDate time.Time  `gorm:"type:date;not null" json:"inception_date"`
	Description   string     `json:"description,omitempty"`

	// Relationships
	ShareClasses    []ShareClass     `gorm:"foreignKey:FundID" json:"share_classes,omitempty"`
	FeeStructures   []FeeStructure   `gorm:"foreignKey:FundID" json:"fee_structures,omitempty"`
	CapitalAccounts []CapitalAccount `gorm:"foreignKey:FundID" json:"capital_accounts,omitempty"`
}

// ShareClass represents a class of shares within a fund with its own fee terms
// and pricing precision. A fund may also be valued without a share class
// (fund-level NAV).
type ShareClass struct {
	Base
	FundID             string          `gorm:"type:uuid;not null;index" json:"fund_id"`
	Name               string          `gorm:"not null" json:"name"`
	Currency           string          `gorm:"not null;default:'USD'" json:"currency"`
	ManagementFeeRate  decimal.Decimal `gorm:"type:decimal(10,4);not null;default:0" json:"management_fee_rate"`
	PerformanceFeeRate decimal.Decimal `gorm:"type:decimal(10,4);not null;default:0" json:"performance_fee_rate"`
	HurdleRate         decimal.Decimal `gorm:"type:decimal(10,4);not null;default:0" json:"hurdle_rate"`
	HighWaterMark      bool            `gorm:"not null;default:false" json:"high_water_mark"`
	PricePrecision     int             `gorm:"not null;default:4" json:"price_precision"`
	MinimumInvestment  decimal.Decimal `gorm:"type:decimal(24,6);not null;default:0" json:"minimum_investment"`

	// Relationships
	Fund Fund `gorm:"foreignKey:FundID" json:"fund,omitempty"`
}
