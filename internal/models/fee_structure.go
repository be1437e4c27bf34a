package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// FeeType represents the kind of fee a structure accrues.
type FeeType string

const (
	FeeTypeManagement  FeeType = "management"
	FeeTypePerformance FeeType = "performance"
)

// AccrualFrequency represents how often a fee accrues.
type AccrualFrequency string

const (
	AccrualFrequencyMonthly   AccrualFrequency = "monthly"
	AccrualFrequencyQuarterly AccrualFrequency = "quarterly"
	AccrualFrequencyAnnual    AccrualFrequency = "annual"
)

// FeeStructure defines a fee arrangement for a fund or a specific share class.
// Multiple structures may be simultaneously active; their accruals are summed.
type FeeStructure struct {
	Base
	FundID           string           `gorm:"type:uuid;not null;index" json:"fund_id"`
	ShareClassID     *string          `gorm:"type:uuid;index" json:"share_class_id,omitempty"`
	FeeType          FeeType          `gorm:"not null" json:"fee_type"`
	Rate             decimal.Decimal  `gorm:"type:decimal(10,4);not null" json:"rate"`
	AccrualFrequency AccrualFrequency `gorm:"not null;default:'monthly'" json:"accrual_frequency"`
	HurdleRate       decimal.Decimal  `gorm:"type:decimal(10,4);not null;default:0" json:"hurdle_rate"`
	EffectiveFrom    time.Time        `gorm:"type:date;not null" json:"effective_from"`
	EffectiveTo      *time.Time       `gorm:"type:date" json:"effective_to,omitempty"`
	IsActive         bool             `gorm:"not null;default:true" json:"is_active"`

	// Relationships
	Fund       Fund        `gorm:"foreignKey:FundID" json:"fund,omitempty"`
	ShareClass *ShareClass `gorm:"foreignKey:ShareClassID" json:"share_class,omitempty"`
}

// ActiveOn reports whether the structure is in effect on the given date.
func (f *FeeStructure) ActiveOn(date time.Time) bool {
	if !f.IsActive {
		return false
	}
	if date.Before(f.EffectiveFrom) {
		return false
	}
	if f.EffectiveTo != nil && date.After(*f.EffectiveTo) {
		return false
	}
	return true
}
