package services

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// dateOnly truncates a timestamp to a calendar date at UTC midnight.
// Valuation and settlement dates carry no time component.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// lockForUpdate applies a row-level lock on dialects that support it. SQLite
// serializes writers on its own and rejects the FOR UPDATE syntax, so the
// clause is skipped there.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// shareClassScope narrows a query to a share class, or to fund-level rows
// (share_class_id IS NULL) when no class is given.
func shareClassScope(q *gorm.DB, shareClassID *string) *gorm.DB {
	if shareClassID == nil {
		return q.Where("share_class_id IS NULL")
	}
	return q.Where("share_class_id = ?", *shareClassID)
}
