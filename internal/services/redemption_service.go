package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "fundledger/internal/errors"
	"fundledger/internal/models"
	"fundledger/internal/pagination"
	"fundledger/internal/uuid"
)

// redemptionService drives the redemption workflow:
// requested -> approved|rejected, approved -> processing -> completed.
type redemptionService struct {
	db             *gorm.DB
	accountService AccountServicer
	navService     NAVServicer
}

// NewRedemptionService creates a new RedemptionServicer.
func NewRedemptionService(db *gorm.DB, accountService AccountServicer, navService NAVServicer) RedemptionServicer {
	return &redemptionService{db: db, accountService: accountService, navService: navService}
}

// CreateRedemptionRequest opens a redemption request against a capital
// account. Full redemptions request the whole share balance; partial
// redemptions must not exceed it. When no amount is supplied it is priced at
// the latest approved NAV per share.
func (s *redemptionService) CreateRedemptionRequest(accountID string, redemptionType models.RedemptionType, shares, amount *decimal.Decimal, redemptionDate time.Time, reason string) (*models.RedemptionRequest, error) {
	account, err := s.accountService.GetAccountByID(accountID)
	if err != nil {
		return nil, err
	}
	if account.Status != models.CapitalAccountStatusActive {
		return nil, apperrors.ErrAccountClosed
	}

	var sharesRequested decimal.Decimal
	switch redemptionType {
	case models.RedemptionTypeFull:
		sharesRequested = account.SharesOwned
		if !sharesRequested.IsPositive() {
			return nil, apperrors.WithMessage(apperrors.ErrValidation, "account holds no shares to redeem")
		}
	case models.RedemptionTypePartial:
		if shares == nil || !shares.IsPositive() {
			return nil, apperrors.WithMessage(apperrors.ErrValidation, "shares must be positive for a partial redemption")
		}
		if shares.GreaterThan(account.SharesOwned) {
			return nil, apperrors.WithMessage(apperrors.ErrInsufficientShares,
				fmt.Sprintf("account holds %s shares, cannot request %s", account.SharesOwned, shares))
		}
		sharesRequested = *shares
	default:
		return nil, apperrors.WithMessage(apperrors.ErrValidation, fmt.Sprintf("unknown redemption type %q", redemptionType))
	}

	if redemptionDate.IsZero() {
		redemptionDate = time.Now()
	}

	var amountRequested decimal.Decimal
	if amount != nil {
		if amount.IsNegative() {
			return nil, apperrors.WithMessage(apperrors.ErrValidation, "amount cannot be negative")
		}
		amountRequested = *amount
	} else {
		latest, navErr := s.navService.GetLatestNAV(account.FundID, account.ShareClassID)
		if navErr != nil {
			return nil, navErr
		}
		amountRequested = sharesRequested.Mul(latest.NAVPerShare).Round(2)
	}

	request := &models.RedemptionRequest{
		CapitalAccountID: account.ID,
		RequestNumber:    newRequestNumber(),
		RedemptionType:   redemptionType,
		SharesRequested:  sharesRequested,
		AmountRequested:  amountRequested,
		RedemptionDate:   dateOnly(redemptionDate),
		Status:           models.RedemptionStatusRequested,
		Reason:           reason,
	}
	if err := s.db.Create(request).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return request, nil
}

// newRequestNumber derives a unique request number from a UUIDv7.
func newRequestNumber() string {
	return "RR-" + strings.ToUpper(strings.ReplaceAll(uuid.New(), "-", "")[:12])
}

// ReviewRedemption records a reviewer's decision. Approval may adjust shares,
// amount, and price independently of the request (partial fulfilment);
// rejection requires a non-empty reason and is terminal.
func (s *redemptionService) ReviewRedemption(input ReviewRedemptionInput) (*models.RedemptionRequest, error) {
	if input.ReviewerID == "" {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "reviewer ID is required")
	}

	var request models.RedemptionRequest
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if txErr := lockForUpdate(tx).First(&request, "id = ?", input.RequestID).Error; txErr != nil {
			if errors.Is(txErr, gorm.ErrRecordNotFound) {
				return apperrors.ErrRedemptionNotFound
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
		}
		if request.Status != models.RedemptionStatusRequested {
			return apperrors.WithMessage(apperrors.ErrStateConflict,
				fmt.Sprintf("cannot review a redemption in status %q", request.Status))
		}

		switch input.Decision {
		case "approve":
			return s.approve(tx, &request, input)
		case "reject":
			if input.RejectionReason == "" {
				return apperrors.WithMessage(apperrors.ErrValidation, "rejection reason is required")
			}
			return s.reject(tx, &request, input)
		default:
			return apperrors.WithMessage(apperrors.ErrValidation, fmt.Sprintf("unknown decision %q", input.Decision))
		}
	})
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (s *redemptionService) approve(tx *gorm.DB, request *models.RedemptionRequest, input ReviewRedemptionInput) error {
	sharesApproved := request.SharesRequested
	if input.SharesApproved != nil {
		if !input.SharesApproved.IsPositive() {
			return apperrors.WithMessage(apperrors.ErrValidation, "approved shares must be positive")
		}
		sharesApproved = *input.SharesApproved
	}

	price := decimal.Zero
	if input.RedemptionPrice != nil {
		price = *input.RedemptionPrice
	} else {
		account, err := s.accountService.GetAccountByID(request.CapitalAccountID)
		if err != nil {
			return err
		}
		latest, err := s.navService.GetLatestNAV(account.FundID, account.ShareClassID)
		if err != nil {
			return err
		}
		price = latest.NAVPerShare
	}

	amountApproved := sharesApproved.Mul(price).Round(2)
	if input.AmountApproved != nil {
		if input.AmountApproved.IsNegative() {
			return apperrors.WithMessage(apperrors.ErrValidation, "approved amount cannot be negative")
		}
		amountApproved = *input.AmountApproved
	}

	request.Status = models.RedemptionStatusApproved
	request.SharesApproved = sharesApproved
	request.AmountApproved = amountApproved
	request.RedemptionPrice = price
	request.ReviewedBy = &input.ReviewerID

	if err := tx.Model(request).Updates(map[string]interface{}{
		"status":           models.RedemptionStatusApproved,
		"shares_approved":  sharesApproved,
		"amount_approved":  amountApproved,
		"redemption_price": price,
		"reviewed_by":      input.ReviewerID,
	}).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

func (s *redemptionService) reject(tx *gorm.DB, request *models.RedemptionRequest, input ReviewRedemptionInput) error {
	request.Status = models.RedemptionStatusRejected
	request.RejectionReason = input.RejectionReason
	request.ReviewedBy = &input.ReviewerID

	if err := tx.Model(request).Updates(map[string]interface{}{
		"status":           models.RedemptionStatusRejected,
		"rejection_reason": input.RejectionReason,
		"reviewed_by":      input.ReviewerID,
	}).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// ProcessRedemption settles an approved request: it inserts the redemption
// ledger entry, decrements the account balance, and marks the request
// completed, all in one database transaction. A request that is not in
// approved state (including one already processed) is rejected, so settlement
// runs at most once per request.
func (s *redemptionService) ProcessRedemption(requestID, actorID string) (*models.Transaction, error) {
	if actorID == "" {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "actor ID is required")
	}

	var entry *models.Transaction
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var request models.RedemptionRequest
		if txErr := lockForUpdate(tx).First(&request, "id = ?", requestID).Error; txErr != nil {
			if errors.Is(txErr, gorm.ErrRecordNotFound) {
				return apperrors.ErrRedemptionNotFound
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
		}
		if request.Status != models.RedemptionStatusApproved {
			return apperrors.WithMessage(apperrors.ErrStateConflict,
				fmt.Sprintf("cannot process a redemption in status %q", request.Status))
		}

		if txErr := tx.Model(&request).Update("status", models.RedemptionStatusProcessing).Error; txErr != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
		}

		var account models.CapitalAccount
		if txErr := lockForUpdate(tx).First(&account, "id = ?", request.CapitalAccountID).Error; txErr != nil {
			if errors.Is(txErr, gorm.ErrRecordNotFound) {
				return apperrors.ErrAccountNotFound
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
		}

		entry = &models.Transaction{
			CapitalAccountID: account.ID,
			Type:             models.TransactionTypeRedemption,
			Amount:           request.AmountApproved,
			Shares:           request.SharesApproved,
			PricePerShare:    request.RedemptionPrice,
			Currency:         account.Currency,
			Status:           models.TransactionStatusSettled,
			SettlementDate:   dateOnly(time.Now()),
			Reference:        request.RequestNumber,
		}
		if txErr := tx.Create(entry).Error; txErr != nil {
			return apperrors.Wrap(apperrors.ErrConsistency, txErr)
		}

		if txErr := s.accountService.ApplyTransaction(tx, &account, models.TransactionTypeRedemption, request.AmountApproved, request.SharesApproved); txErr != nil {
			return txErr
		}

		now := time.Now()
		if txErr := tx.Model(&request).Updates(map[string]interface{}{
			"status":            models.RedemptionStatusCompleted,
			"settled_at":        now,
			"settlement_amount": request.AmountApproved,
		}).Error; txErr != nil {
			return apperrors.Wrap(apperrors.ErrConsistency, txErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// GetRedemptionByID retrieves a redemption request by ID.
func (s *redemptionService) GetRedemptionByID(requestID string) (*models.RedemptionRequest, error) {
	var request models.RedemptionRequest
	if err := s.db.First(&request, "id = ?", requestID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrRedemptionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &request, nil
}

// GetAccountRedemptions returns a paginated list of an account's redemption
// requests, newest first.
func (s *redemptionService) GetAccountRedemptions(accountID string, page pagination.PageRequest) (*pagination.PageResponse[models.RedemptionRequest], error) {
	if _, err := s.accountService.GetAccountByID(accountID); err != nil {
		return nil, err
	}

	page.Defaults()

	base := s.db.Model(&models.RedemptionRequest{}).Where("capital_account_id = ?", accountID)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var requests []models.RedemptionRequest
	if err := base.Order("created_at DESC").Scopes(pagination.Paginate(page)).Find(&requests).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(requests, page.Page, page.PageSize, totalItems)
	return &result, nil
}
