package models

import (
	"time"

	"fundledger/internal/uuid"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PeriodType represents the measurement period for a performance metric.
type PeriodType string

const (
	PeriodTypeMonthly   PeriodType = "monthly"
	PeriodTypeQuarterly PeriodType = "quarterly"
	PeriodTypeYearly    PeriodType = "yearly"
	PeriodTypeInception PeriodType = "inception"
)

// PerformanceMetric is a derived, append-only record of fund performance for a
// period. Recomputation inserts a new row rather than overwriting history, so
// every calculation run remains auditable.
type PerformanceMetric struct {
	ID                 string          `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt          time.Time       `json:"created_at"`
	FundID             string          `gorm:"type:uuid;not null;index" json:"fund_id"`
	ShareClassID       *string         `gorm:"type:uuid;index" json:"share_class_id,omitempty"`
	PeriodType         PeriodType      `gorm:"not null;index" json:"period_type"`
	MetricDate         time.Time       `gorm:"type:date;not null;index" json:"metric_date"`
	PeriodStart        time.Time       `gorm:"type:date;not null" json:"period_start"`
	PeriodEnd          time.Time       `gorm:"type:date;not null" json:"period_end"`
	BeginningNAV       decimal.Decimal `gorm:"type:decimal(24,6);not null" json:"beginning_nav"`
	EndingNAV          decimal.Decimal `gorm:"type:decimal(24,6);not null" json:"ending_nav"`
	NetContributions   decimal.Decimal `gorm:"type:decimal(24,6);not null" json:"net_contributions"`
	NetDistributions   decimal.Decimal `gorm:"type:decimal(24,6);not null" json:"net_distributions"`
	TotalReturnAmount  decimal.Decimal `gorm:"type:decimal(24,6);not null" json:"total_return_amount"`
	TotalReturnPercent decimal.Decimal `gorm:"type:decimal(12,4);not null" json:"total_return_percent"`
	DPI                decimal.Decimal `gorm:"type:decimal(12,4);not null" json:"dpi"`
	RVPI               decimal.Decimal `gorm:"type:decimal(12,4);not null" json:"rvpi"`
	TVPI               decimal.Decimal `gorm:"type:decimal(12,4);not null" json:"tvpi"`
	MOIC               decimal.Decimal `gorm:"type:decimal(12,4);not null" json:"moic"`

	// Relationships
	Fund Fund `gorm:"foreignKey:FundID" json:"fund,omitempty"`
}

// BeforeCreate hook generates a UUIDv7 for new records
func (p *PerformanceMetric) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New()
	}
	return nil
}
