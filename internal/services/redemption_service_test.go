package services

import (
	"strings"
	"testing"
	"time"

	"gorm.io/gorm"

	"fundledger/internal/models"
	"fundledger/internal/testutil"
)

func redemptionTestServices(db *gorm.DB) (RedemptionServicer, AccountServicer) {
	fundSvc := NewFundService(db)
	acctSvc := NewAccountService(db, fundSvc)
	navSvc := NewNAVService(db, fundSvc, NewFeeService(db))
	return NewRedemptionService(db, acctSvc, navSvc), acctSvc
}

func TestCreateRedemptionRequest(t *testing.T) {
	redemptionDate := testutil.Date(2024, time.July, 15)

	t.Run("full_redemption_requests_whole_balance", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		redSvc, _ := redemptionTestServices(db)
		fund := testutil.CreateTestFund(t, db)
		account := testutil.CreateTestCapitalAccountWithBalance(t, db, fund.ID, "1000", "10000")
		testutil.CreateTestNAV(t, db, fund.ID, nil, testutil.Date(2024, time.June, 30), models.NAVStatusApproved, "10000", "1000")

		request, err := redSvc.CreateRedemptionRequest(account.ID, models.RedemptionTypeFull, nil, nil, redemptionDate, "exit")
		testutil.AssertNoError(t, err)

		if !strings.HasPrefix(request.RequestNumber, "RR-") {
			t.Errorf("expected RR- request number, got %s", request.RequestNumber)
		}
		testutil.AssertDecimalEqual(t, "1000", request.SharesRequested)
		// priced at the latest approved NAV per share (10)
		testutil.AssertDecimalEqual(t, "10000", request.AmountRequested)
		if request.Status != models.RedemptionStatusRequested {
			t.Errorf("expected requested status, got %s", request.Status)
		}
	})

	t.Run("partial_within_balance", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		redSvc, _ := redemptionTestServices(db)
		fund := testutil.CreateTestFund(t, db)
		account := testutil.CreateTestCapitalAccountWithBalance(t, db, fund.ID, "1000", "10000")

		shares := testutil.Dec(t, "400")
		amount := testutil.Dec(t, "4200")
		request, err := redSvc.CreateRedemptionRequest(account.ID, models.RedemptionTypePartial, &shares, &amount, redemptionDate, "")
		testutil.AssertNoError(t, err)

		testutil.AssertDecimalEqual(t, "400", request.SharesRequested)
		testutil.AssertDecimalEqual(t, "4200", request.AmountRequested)
	})

	t.Run("partial_exceeding_balance_rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		redSvc, _ := redemptionTestServices(db)
		fund := testutil.CreateTestFund(t, db)
		account := testutil.CreateTestCapitalAccountWithBalance(t, db, fund.ID, "1000", "10000")

		shares := testutil.Dec(t, "2000")
		amount := testutil.Dec(t, "20000")
		_, err := redSvc.CreateRedemptionRequest(account.ID, models.RedemptionTypePartial, &shares, &amount, redemptionDate, "")
		testutil.AssertAppError(t, err, "INSUFFICIENT_SHARES")
	})

	t.Run("partial_without_shares_rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		redSvc, _ := redemptionTestServices(db)
		fund := testutil.CreateTestFund(t, db)
		account := testutil.CreateTestCapitalAccountWithBalance(t, db, fund.ID, "1000", "10000")

		_, err := redSvc.CreateRedemptionRequest(account.ID, models.RedemptionTypePartial, nil, nil, redemptionDate, "")
		testutil.AssertAppError(t, err, "VALIDATION_ERROR")
	})

	t.Run("full_redemption_of_empty_account_rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		redSvc, _ := redemptionTestServices(db)
		fund := testutil.CreateTestFund(t, db)
		account := testutil.CreateTestCapitalAccount(t, db, fund.ID)

		_, err := redSvc.CreateRedemptionRequest(account.ID, models.RedemptionTypeFull, nil, nil, redemptionDate, "")
		testutil.AssertAppError(t, err, "VALIDATION_ERROR")
	})

	t.Run("no_amount_and_no_approved_nav", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		redSvc, _ := redemptionTestServices(db)
		fund := testutil.CreateTestFund(t, db)
		account := testutil.CreateTestCapitalAccountWithBalance(t, db, fund.ID, "1000", "10000")

		_, err := redSvc.CreateRedemptionRequest(account.ID, models.RedemptionTypeFull, nil, nil, redemptionDate, "")
		testutil.AssertAppError(t, err, "NO_APPROVED_NAV")
	})
}

func TestReviewRedemption(t *testing.T) {
	redemptionDate := testutil.Date(2024, time.July, 15)

	newRequest := func(t *testing.T, db *gorm.DB, redSvc RedemptionServicer, fundID string) *models.RedemptionRequest {
		t.Helper()
		account := testutil.CreateTestCapitalAccountWithBalance(t, db, fundID, "1000", "10000")
		testutil.CreateTestNAV(t, db, fundID, nil, testutil.Date(2024, time.June, 30), models.NAVStatusApproved, "10000", "1000")
		request, err := redSvc.CreateRedemptionRequest(account.ID, models.RedemptionTypeFull, nil, nil, redemptionDate, "")
		testutil.AssertNoError(t, err)
		return request
	}

	t.Run("approve_defaults_to_requested_figures", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		redSvc, _ := redemptionTestServices(db)
		fund := testutil.CreateTestFund(t, db)
		request := newRequest(t, db, redSvc, fund.ID)

		reviewed, err := redSvc.ReviewRedemption(ReviewRedemptionInput{
			RequestID:  request.ID,
			Decision:   "approve",
			ReviewerID: "controller-1",
		})
		testutil.AssertNoError(t, err)

		if reviewed.Status != models.RedemptionStatusApproved {
			t.Fatalf("expected approved, got %s", reviewed.Status)
		}
		testutil.AssertDecimalEqual(t, "1000", reviewed.SharesApproved)
		testutil.AssertDecimalEqual(t, "10", reviewed.RedemptionPrice)
		testutil.AssertDecimalEqual(t, "10000", reviewed.AmountApproved)
	})

	t.Run("approve_with_reduced_shares", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		redSvc, _ := redemptionTestServices(db)
		fund := testutil.CreateTestFund(t, db)
		request := newRequest(t, db, redSvc, fund.ID)

		shares := testutil.Dec(t, "600")
		reviewed, err := redSvc.ReviewRedemption(ReviewRedemptionInput{
			RequestID:      request.ID,
			Decision:       "approve",
			SharesApproved: &shares,
			ReviewerID:     "controller-1",
		})
		testutil.AssertNoError(t, err)

		testutil.AssertDecimalEqual(t, "600", reviewed.SharesApproved)
		testutil.AssertDecimalEqual(t, "6000", reviewed.AmountApproved)
	})

	t.Run("reject_requires_reason", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		redSvc, _ := redemptionTestServices(db)
		fund := testutil.CreateTestFund(t, db)
		request := newRequest(t, db, redSvc, fund.ID)

		_, err := redSvc.ReviewRedemption(ReviewRedemptionInput{
			RequestID:  request.ID,
			Decision:   "reject",
			ReviewerID: "controller-1",
		})
		testutil.AssertAppError(t, err, "VALIDATION_ERROR")

		reviewed, err := redSvc.ReviewRedemption(ReviewRedemptionInput{
			RequestID:       request.ID,
			Decision:        "reject",
			RejectionReason: "gate in effect",
			ReviewerID:      "controller-1",
		})
		testutil.AssertNoError(t, err)
		if reviewed.Status != models.RedemptionStatusRejected {
			t.Errorf("expected rejected, got %s", reviewed.Status)
		}
	})

	t.Run("review_twice_rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		redSvc, _ := redemptionTestServices(db)
		fund := testutil.CreateTestFund(t, db)
		request := newRequest(t, db, redSvc, fund.ID)

		_, err := redSvc.ReviewRedemption(ReviewRedemptionInput{RequestID: request.ID, Decision: "approve", ReviewerID: "controller-1"})
		testutil.AssertNoError(t, err)

		_, err = redSvc.ReviewRedemption(ReviewRedemptionInput{RequestID: request.ID, Decision: "approve", ReviewerID: "controller-1"})
		testutil.AssertAppError(t, err, "STATE_CONFLICT")
	})

	t.Run("unknown_decision", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		redSvc, _ := redemptionTestServices(db)
		fund := testutil.CreateTestFund(t, db)
		request := newRequest(t, db, redSvc, fund.ID)

		_, err := redSvc.ReviewRedemption(ReviewRedemptionInput{RequestID: request.ID, Decision: "defer", ReviewerID: "controller-1"})
		testutil.AssertAppError(t, err, "VALIDATION_ERROR")
	})
}

func TestProcessRedemption(t *testing.T) {
	redemptionDate := testutil.Date(2024, time.July, 15)

	approvedRequest := func(t *testing.T, db *gorm.DB, redSvc RedemptionServicer, fundID string) (*models.RedemptionRequest, *models.CapitalAccount) {
		t.Helper()
		account := testutil.CreateTestCapitalAccountWithBalance(t, db, fundID, "1000", "10000")
		testutil.CreateTestNAV(t, db, fundID, nil, testutil.Date(2024, time.June, 30), models.NAVStatusApproved, "10000", "1000")
		request, err := redSvc.CreateRedemptionRequest(account.ID, models.RedemptionTypeFull, nil, nil, redemptionDate, "")
		testutil.AssertNoError(t, err)
		_, err = redSvc.ReviewRedemption(ReviewRedemptionInput{RequestID: request.ID, Decision: "approve", ReviewerID: "controller-1"})
		testutil.AssertNoError(t, err)
		return request, account
	}

	t.Run("settles_full_redemption_to_zero_shares", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		redSvc, acctSvc := redemptionTestServices(db)
		fund := testutil.CreateTestFund(t, db)
		request, account := approvedRequest(t, db, redSvc, fund.ID)

		entry, err := redSvc.ProcessRedemption(request.ID, "ops-1")
		testutil.AssertNoError(t, err)

		if entry.Type != models.TransactionTypeRedemption {
			t.Errorf("expected redemption entry, got %s", entry.Type)
		}
		testutil.AssertDecimalEqual(t, "1000", entry.Shares)
		testutil.AssertDecimalEqual(t, "10000", entry.Amount)
		if entry.Reference != request.RequestNumber {
			t.Errorf("expected entry to reference %s, got %s", request.RequestNumber, entry.Reference)
		}

		updated, err := acctSvc.GetAccountByID(account.ID)
		testutil.AssertNoError(t, err)
		testutil.AssertDecimalEqual(t, "0", updated.SharesOwned)
		testutil.AssertDecimalEqual(t, "10000", updated.CapitalReturned)

		reloaded, err := redSvc.GetRedemptionByID(request.ID)
		testutil.AssertNoError(t, err)
		if reloaded.Status != models.RedemptionStatusCompleted {
			t.Errorf("expected completed, got %s", reloaded.Status)
		}
		if reloaded.SettledAt == nil {
			t.Error("expected settlement timestamp")
		}
		testutil.AssertDecimalEqual(t, "10000", reloaded.SettlementAmount)
	})

	t.Run("process_twice_rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		redSvc, _ := redemptionTestServices(db)
		fund := testutil.CreateTestFund(t, db)
		request, _ := approvedRequest(t, db, redSvc, fund.ID)

		_, err := redSvc.ProcessRedemption(request.ID, "ops-1")
		testutil.AssertNoError(t, err)

		_, err = redSvc.ProcessRedemption(request.ID, "ops-1")
		testutil.AssertAppError(t, err, "STATE_CONFLICT")
	})

	t.Run("process_unreviewed_rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		redSvc, _ := redemptionTestServices(db)
		fund := testutil.CreateTestFund(t, db)
		account := testutil.CreateTestCapitalAccountWithBalance(t, db, fund.ID, "1000", "10000")
		testutil.CreateTestNAV(t, db, fund.ID, nil, testutil.Date(2024, time.June, 30), models.NAVStatusApproved, "10000", "1000")
		request, err := redSvc.CreateRedemptionRequest(account.ID, models.RedemptionTypeFull, nil, nil, redemptionDate, "")
		testutil.AssertNoError(t, err)

		_, err = redSvc.ProcessRedemption(request.ID, "ops-1")
		testutil.AssertAppError(t, err, "STATE_CONFLICT")
	})

	t.Run("not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		redSvc, _ := redemptionTestServices(db)

		_, err := redSvc.ProcessRedemption("00000000-0000-0000-0000-000000000000", "ops-1")
		testutil.AssertAppError(t, err, "REDEMPTION_NOT_FOUND")
	})
}
