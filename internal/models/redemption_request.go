package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RedemptionType indicates whether a redemption is for the full balance or a
// specified number of shares.
type RedemptionType string

const (
	RedemptionTypeFull    RedemptionType = "full"
	RedemptionTypePartial RedemptionType = "partial"
)

// RedemptionStatus represents the workflow status of a redemption request.
type RedemptionStatus string

const (
	RedemptionStatusRequested  RedemptionStatus = "requested"
	RedemptionStatusApproved   RedemptionStatus = "approved"
	RedemptionStatusRejected   RedemptionStatus = "rejected"
	RedemptionStatusProcessing RedemptionStatus = "processing"
	RedemptionStatusCompleted  RedemptionStatus = "completed"
)

// RedemptionRequest tracks an investor redemption through request, review, and
// settlement. Requested and approved figures are recorded separately so a
// reviewer can partially fulfil a request. Terminal states: rejected, completed.
type RedemptionRequest struct {
	Base
	CapitalAccountID string           `gorm:"type:uuid;not null;index" json:"capital_account_id"`
	RequestNumber    string           `gorm:"not null;uniqueIndex" json:"request_number"`
	RedemptionType   RedemptionType   `gorm:"not null" json:"redemption_type"`
	SharesRequested  decimal.Decimal  `gorm:"type:decimal(24,6);not null" json:"shares_requested"`
	AmountRequested  decimal.Decimal  `gorm:"type:decimal(24,6);not null" json:"amount_requested"`
	SharesApproved   decimal.Decimal  `gorm:"type:decimal(24,6);not null;default:0" json:"shares_approved"`
	AmountApproved   decimal.Decimal  `gorm:"type:decimal(24,6);not null;default:0" json:"amount_approved"`
	RedemptionPrice  decimal.Decimal  `gorm:"type:decimal(24,6);not null;default:0" json:"redemption_price"`
	RedemptionDate   time.Time        `gorm:"type:date;not null" json:"redemption_date"`
	Status           RedemptionStatus `gorm:"not null;default:'requested';index" json:"status"`
	Reason           string           `json:"reason,omitempty"`
	RejectionReason  string           `json:"rejection_reason,omitempty"`
	ReviewedBy       *string          `json:"reviewed_by,omitempty"`
	SettledAt        *time.Time       `json:"settled_at,omitempty"`
	SettlementAmount decimal.Decimal  `gorm:"type:decimal(24,6);not null;default:0" json:"settlement_amount"`

	// Relationships
	CapitalAccount CapitalAccount `gorm:"foreignKey:CapitalAccountID" json:"capital_account,omitempty"`
}
