package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"fundledger/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// Dec parses a decimal literal, failing the test on malformed input.
func Dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("invalid decimal literal %q: %v", s, err)
	}
	return d
}

// Date builds a calendar date at UTC midnight.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// CreateTestFund creates an active fund with a unique code.
func CreateTestFund(t *testing.T, db *gorm.DB) *models.Fund {
	t.Helper()

	n := nextID()
	fund := &models.Fund{
		Code:          fmt.Sprintf("FUND%d", n),
		Name:          fmt.Sprintf("Test Fund %d", n),
		BaseCurrency:  "USD",
		Status:        models.FundStatusActive,
		InceptionDate: Date(2024, time.January, 1),
	}
	if err := db.Create(fund).Error; err != nil {
		t.Fatalf("failed to create test fund: %v", err)
	}
	return fund
}

// CreateTestShareClass creates a share class with standard 2/20 fee terms and
// an 8% hurdle.
func CreateTestShareClass(t *testing.T, db *gorm.DB, fundID string) *models.ShareClass {
	t.Helper()

	sc := &models.ShareClass{
		FundID:             fundID,
		Name:               fmt.Sprintf("Class %d", nextID()),
		Currency:           "USD",
		ManagementFeeRate:  decimal.NewFromInt(2),
		PerformanceFeeRate: decimal.NewFromInt(20),
		HurdleRate:         decimal.NewFromInt(8),
		PricePrecision:     4,
	}
	if err := db.Create(sc).Error; err != nil {
		t.Fatalf("failed to create test share class: %v", err)
	}
	return sc
}

// CreateTestFeeStructure creates an open-ended fee structure effective from 2024-01-01.
func CreateTestFeeStructure(t *testing.T, db *gorm.DB, fundID string, feeType models.FeeType, rate string, frequency models.AccrualFrequency) *models.FeeStructure {
	t.Helper()

	fs := &models.FeeStructure{
		FundID:           fundID,
		FeeType:          feeType,
		Rate:             Dec(t, rate),
		AccrualFrequency: frequency,
		EffectiveFrom:    Date(2024, time.January, 1),
		IsActive:         true,
	}
	if err := db.Create(fs).Error; err != nil {
		t.Fatalf("failed to create test fee structure: %v", err)
	}
	return fs
}

// CreateTestCapitalAccount creates an active capital account with zero balances.
func CreateTestCapitalAccount(t *testing.T, db *gorm.DB, fundID string) *models.CapitalAccount {
	t.Helper()

	n := nextID()
	account := &models.CapitalAccount{
		FundID:        fundID,
		InvestorID:    fmt.Sprintf("investor-%d", n),
		InvestorName:  fmt.Sprintf("Test Investor %d", n),
		AccountNumber: fmt.Sprintf("CA-TEST-%06d", n),
		Currency:      "USD",
		Status:        models.CapitalAccountStatusActive,
	}
	if err := db.Create(account).Error; err != nil {
		t.Fatalf("failed to create test capital account: %v", err)
	}
	return account
}

// CreateTestCapitalAccountWithBalance creates a capital account holding the
// given shares and contributed capital.
func CreateTestCapitalAccountWithBalance(t *testing.T, db *gorm.DB, fundID, shares, contributed string) *models.CapitalAccount {
	t.Helper()

	account := CreateTestCapitalAccount(t, db, fundID)
	account.SharesOwned = Dec(t, shares)
	account.CapitalContributed = Dec(t, contributed)
	if err := db.Save(account).Error; err != nil {
		t.Fatalf("failed to update test capital account balances: %v", err)
	}
	return account
}

// CreateTestNAV creates a NAV calculation row directly, bypassing the service.
func CreateTestNAV(t *testing.T, db *gorm.DB, fundID string, shareClassID *string, valuationDate time.Time, status models.NAVStatus, netAssetValue, shares string) *models.NAVCalculation {
	t.Helper()

	nav := Dec(t, netAssetValue)
	totalShares := Dec(t, shares)
	perShare := decimal.Zero
	if totalShares.IsPositive() {
		perShare = nav.DivRound(totalShares, 4)
	}

	calc := &models.NAVCalculation{
		FundID:                 fundID,
		ShareClassID:           shareClassID,
		ValuationDate:          valuationDate,
		Version:                1,
		TotalAssets:            nav,
		TotalLiabilities:       decimal.Zero,
		NetAssetValue:          nav,
		TotalSharesOutstanding: totalShares,
		NAVPerShare:            perShare,
		Status:                 status,
		CreatedBy:              "fixture",
	}
	if err := db.Create(calc).Error; err != nil {
		t.Fatalf("failed to create test NAV calculation: %v", err)
	}
	return calc
}

// CreateTestTransaction creates a settled ledger entry directly, bypassing the service.
func CreateTestTransaction(t *testing.T, db *gorm.DB, accountID string, txType models.TransactionType, amount string, date time.Time) *models.Transaction {
	t.Helper()

	tx := &models.Transaction{
		CapitalAccountID: accountID,
		Type:             txType,
		Amount:           Dec(t, amount),
		Currency:         "USD",
		Status:           models.TransactionStatusSettled,
		SettlementDate:   date,
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return tx
}
