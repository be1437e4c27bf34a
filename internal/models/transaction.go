package models

import (
	"time"

	"fundledger/internal/uuid"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TransactionType represents the type of capital account transaction.
type TransactionType string

const (
	TransactionTypeSubscription TransactionType = "subscription"
	TransactionTypeRedemption   TransactionType = "redemption"
	TransactionTypeDistribution TransactionType = "distribution"
	TransactionTypeTransfer     TransactionType = "transfer"
)

// TransactionStatus represents the settlement status of a transaction.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusSettled   TransactionStatus = "settled"
	TransactionStatusCancelled TransactionStatus = "cancelled"
)

// Transaction is an append-only ledger entry against a capital account.
// Rows are never updated after settlement except for status changes.
type Transaction struct {
	ID               string            `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt        time.Time         `json:"created_at"`
	CapitalAccountID string            `gorm:"type:uuid;not null;index" json:"capital_account_id"`
	Type             TransactionType   `gorm:"not null;index" json:"type"`
	Amount           decimal.Decimal   `gorm:"type:decimal(24,6);not null" json:"amount"`
	Shares           decimal.Decimal   `gorm:"type:decimal(24,6);not null;default:0" json:"shares"`
	PricePerShare    decimal.Decimal   `gorm:"type:decimal(24,6);not null;default:0" json:"price_per_share"`
	Currency         string            `gorm:"not null;default:'USD'" json:"currency"`
	Status           TransactionStatus `gorm:"not null;default:'settled'" json:"status"`
	SettlementDate   time.Time         `gorm:"type:date;not null" json:"settlement_date"`
	Reference        string            `json:"reference,omitempty"`
	Description      string            `json:"description,omitempty"`

	// Relationships
	CapitalAccount CapitalAccount `gorm:"foreignKey:CapitalAccountID" json:"capital_account,omitempty"`
}

// BeforeCreate hook generates a UUIDv7 for new records
func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.New()
	}
	return nil
}
