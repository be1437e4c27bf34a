package models

import "github.com/shopspring/decimal"

// CapitalAccountStatus represents the status of a capital account.
type CapitalAccountStatus string

const (
	CapitalAccountStatusActive CapitalAccountStatus = "active"
	CapitalAccountStatusClosed CapitalAccountStatus = "closed"
)

// CapitalAccount is a per-investor ledger of shares owned and capital
// contributed/returned within a fund. Balances are mutated only by the ledger
// service under a row lock; shares_owned never goes negative.
type CapitalAccount struct {
	Base
	FundID             string               `gorm:"type:uuid;not null;index" json:"fund_id"`
	ShareClassID       *string              `gorm:"type:uuid;index" json:"share_class_id,omitempty"`
	InvestorID         string               `gorm:"not null;index" json:"investor_id"`
	InvestorName       string               `gorm:"not null" json:"investor_name"`
	AccountNumber      string               `gorm:"not null;uniqueIndex" json:"account_number"`
	SharesOwned        decimal.Decimal      `gorm:"type:decimal(24,6);not null;default:0" json:"shares_owned"`
	CapitalContributed decimal.Decimal      `gorm:"type:decimal(24,6);not null;default:0" json:"capital_contributed"`
	CapitalReturned    decimal.Decimal      `gorm:"type:decimal(24,6);not null;default:0" json:"capital_returned"`
	Currency           string               `gorm:"not null;default:'USD'" json:"currency"`
	Status             CapitalAccountStatus `gorm:"not null;default:'active'" json:"status"`

	// Relationships
	Fund         Fund          `gorm:"foreignKey:FundID" json:"fund,omitempty"`
	ShareClass   *ShareClass   `gorm:"foreignKey:ShareClassID" json:"share_class,omitempty"`
	Transactions []Transaction `gorm:"foreignKey:CapitalAccountID" json:"transactions,omitempty"`
}
