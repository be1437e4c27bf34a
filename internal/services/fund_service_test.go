package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"fundledger/internal/models"
	"fundledger/internal/pagination"
	"fundledger/internal/testutil"
)

func TestCreateFund(t *testing.T) {
	t.Run("creates_active_fund", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewFundService(db)

		fund, err := svc.CreateFund("growth-i", "Growth Fund I", "USD", testutil.Date(2024, time.January, 1), "")
		testutil.AssertNoError(t, err)

		if fund.ID == "" {
			t.Fatal("expected non-empty fund ID")
		}
		if fund.Code != "GROWTH-I" {
			t.Errorf("expected code normalized to GROWTH-I, got %s", fund.Code)
		}
		if fund.Status != models.FundStatusActive {
			t.Errorf("expected active status, got %s", fund.Status)
		}
	})

	t.Run("duplicate_code", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewFundService(db)

		_, err := svc.CreateFund("ALPHA", "Alpha Fund", "USD", testutil.Date(2024, time.January, 1), "")
		testutil.AssertNoError(t, err)

		_, err = svc.CreateFund("alpha", "Alpha Fund Again", "USD", testutil.Date(2024, time.January, 1), "")
		testutil.AssertAppError(t, err, "DUPLICATE_FUND_CODE")
	})

	t.Run("empty_code", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewFundService(db)

		_, err := svc.CreateFund("", "Nameless", "USD", testutil.Date(2024, time.January, 1), "")
		testutil.AssertAppError(t, err, "VALIDATION_ERROR")
	})

	t.Run("defaults_base_currency", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewFundService(db)

		fund, err := svc.CreateFund("BETA", "Beta Fund", "", testutil.Date(2024, time.January, 1), "")
		testutil.AssertNoError(t, err)
		if fund.BaseCurrency != "USD" {
			t.Errorf("expected USD default, got %s", fund.BaseCurrency)
		}
	})
}

func TestCloseFund(t *testing.T) {
	t.Run("closes_active_fund", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewFundService(db)
		fund := testutil.CreateTestFund(t, db)

		closed, err := svc.CloseFund(fund.ID)
		testutil.AssertNoError(t, err)
		if closed.Status != models.FundStatusClosed {
			t.Errorf("expected closed status, got %s", closed.Status)
		}
	})

	t.Run("already_closed", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewFundService(db)
		fund := testutil.CreateTestFund(t, db)

		_, err := svc.CloseFund(fund.ID)
		testutil.AssertNoError(t, err)

		_, err = svc.CloseFund(fund.ID)
		testutil.AssertAppError(t, err, "STATE_CONFLICT")
	})

	t.Run("not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewFundService(db)

		_, err := svc.CloseFund("00000000-0000-0000-0000-000000000000")
		testutil.AssertAppError(t, err, "FUND_NOT_FOUND")
	})
}

func TestCreateShareClass(t *testing.T) {
	t.Run("inherits_fund_currency_and_default_precision", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewFundService(db)
		fund := testutil.CreateTestFund(t, db)

		sc, err := svc.CreateShareClass(CreateShareClassInput{
			FundID:             fund.ID,
			Name:               "Institutional",
			ManagementFeeRate:  decimal.NewFromInt(2),
			PerformanceFeeRate: decimal.NewFromInt(20),
			HurdleRate:         decimal.NewFromInt(8),
		})
		testutil.AssertNoError(t, err)

		if sc.Currency != fund.BaseCurrency {
			t.Errorf("expected currency %s, got %s", fund.BaseCurrency, sc.Currency)
		}
		if sc.PricePrecision != 4 {
			t.Errorf("expected default precision 4, got %d", sc.PricePrecision)
		}
	})

	t.Run("negative_fee_rate", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewFundService(db)
		fund := testutil.CreateTestFund(t, db)

		_, err := svc.CreateShareClass(CreateShareClassInput{
			FundID:            fund.ID,
			Name:              "Bad",
			ManagementFeeRate: decimal.NewFromInt(-1),
		})
		testutil.AssertAppError(t, err, "VALIDATION_ERROR")
	})

	t.Run("closed_fund", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewFundService(db)
		fund := testutil.CreateTestFund(t, db)
		_, err := svc.CloseFund(fund.ID)
		testutil.AssertNoError(t, err)

		_, err = svc.CreateShareClass(CreateShareClassInput{FundID: fund.ID, Name: "Late"})
		testutil.AssertAppError(t, err, "FUND_CLOSED")
	})
}

func TestCreateFeeStructure(t *testing.T) {
	t.Run("creates_active_structure", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewFundService(db)
		fund := testutil.CreateTestFund(t, db)

		fs, err := svc.CreateFeeStructure(CreateFeeStructureInput{
			FundID:        fund.ID,
			FeeType:       models.FeeTypeManagement,
			Rate:          decimal.NewFromInt(2),
			EffectiveFrom: testutil.Date(2024, time.January, 1),
		})
		testutil.AssertNoError(t, err)

		if !fs.IsActive {
			t.Error("expected structure to be active")
		}
		if fs.AccrualFrequency != models.AccrualFrequencyMonthly {
			t.Errorf("expected monthly default, got %s", fs.AccrualFrequency)
		}
	})

	t.Run("effective_to_before_from", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewFundService(db)
		fund := testutil.CreateTestFund(t, db)

		to := testutil.Date(2023, time.December, 31)
		_, err := svc.CreateFeeStructure(CreateFeeStructureInput{
			FundID:        fund.ID,
			FeeType:       models.FeeTypeManagement,
			Rate:          decimal.NewFromInt(2),
			EffectiveFrom: testutil.Date(2024, time.January, 1),
			EffectiveTo:   &to,
		})
		testutil.AssertAppError(t, err, "VALIDATION_ERROR")
	})

	t.Run("unknown_fee_type", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewFundService(db)
		fund := testutil.CreateTestFund(t, db)

		_, err := svc.CreateFeeStructure(CreateFeeStructureInput{
			FundID:        fund.ID,
			FeeType:       models.FeeType("carry"),
			Rate:          decimal.NewFromInt(2),
			EffectiveFrom: testutil.Date(2024, time.January, 1),
		})
		testutil.AssertAppError(t, err, "VALIDATION_ERROR")
	})

	t.Run("share_class_of_other_fund", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewFundService(db)
		fund := testutil.CreateTestFund(t, db)
		other := testutil.CreateTestFund(t, db)
		sc := testutil.CreateTestShareClass(t, db, other.ID)

		_, err := svc.CreateFeeStructure(CreateFeeStructureInput{
			FundID:        fund.ID,
			ShareClassID:  &sc.ID,
			FeeType:       models.FeeTypeManagement,
			Rate:          decimal.NewFromInt(2),
			EffectiveFrom: testutil.Date(2024, time.January, 1),
		})
		testutil.AssertAppError(t, err, "VALIDATION_ERROR")
	})
}

func TestListFunds(t *testing.T) {
	t.Run("ordered_by_code", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewFundService(db)

		_, err := svc.CreateFund("ZULU", "Zulu Fund", "USD", testutil.Date(2024, time.January, 1), "")
		testutil.AssertNoError(t, err)
		_, err = svc.CreateFund("ECHO", "Echo Fund", "USD", testutil.Date(2024, time.January, 1), "")
		testutil.AssertNoError(t, err)

		result, err := svc.ListFunds(pagination.PageRequest{})
		testutil.AssertNoError(t, err)

		if result.TotalItems != 2 {
			t.Fatalf("expected 2 funds, got %d", result.TotalItems)
		}
		if result.Data[0].Code != "ECHO" {
			t.Errorf("expected ECHO first, got %s", result.Data[0].Code)
		}
	})
}
