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

// accountService is the capital account ledger. Account balances are mutated
// only here, under a row lock inside a database transaction, so concurrent
// postings against one account serialize instead of losing updates.
type accountService struct {
	db          *gorm.DB
	fundService FundServicer
}

// NewAccountService creates a new AccountServicer.
func NewAccountService(db *gorm.DB, fundService FundServicer) AccountServicer {
	return &accountService{db: db, fundService: fundService}
}

// CreateCapitalAccount opens a capital account for an investor in a fund.
func (s *accountService) CreateCapitalAccount(fundID string, shareClassID *string, investorID, investorName, currency string) (*models.CapitalAccount, error) {
	if investorID == "" {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "investor ID is required")
	}
	if investorName == "" {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "investor name is required")
	}

	fund, err := s.fundService.GetFundByID(fundID)
	if err != nil {
		return nil, err
	}
	if fund.Status == models.FundStatusClosed {
		return nil, apperrors.ErrFundClosed
	}
	if shareClassID != nil {
		sc, err := s.fundService.GetShareClassByID(*shareClassID)
		if err != nil {
			return nil, err
		}
		if sc.FundID != fund.ID {
			return nil, apperrors.WithMessage(apperrors.ErrValidation, "share class does not belong to this fund")
		}
	}

	if currency == "" {
		currency = fund.BaseCurrency
	}

	account := &models.CapitalAccount{
		FundID:             fund.ID,
		ShareClassID:       shareClassID,
		InvestorID:         investorID,
		InvestorName:       investorName,
		AccountNumber:      newAccountNumber(),
		SharesOwned:        decimal.Zero,
		CapitalContributed: decimal.Zero,
		CapitalReturned:    decimal.Zero,
		Currency:           currency,
		Status:             models.CapitalAccountStatusActive,
	}
	if err := s.db.Create(account).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return account, nil
}

// newAccountNumber derives a unique account number from a UUIDv7.
func newAccountNumber() string {
	return "CA-" + strings.ToUpper(strings.ReplaceAll(uuid.New(), "-", "")[:12])
}

// GetAccountByID retrieves a capital account by ID.
func (s *accountService) GetAccountByID(accountID string) (*models.CapitalAccount, error) {
	var account models.CapitalAccount
	if err := s.db.First(&account, "id = ?", accountID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrAccountNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &account, nil
}

// GetFundAccounts returns a paginated list of a fund's capital accounts.
func (s *accountService) GetFundAccounts(fundID string, page pagination.PageRequest) (*pagination.PageResponse[models.CapitalAccount], error) {
	if _, err := s.fundService.GetFundByID(fundID); err != nil {
		return nil, err
	}

	page.Defaults()

	base := s.db.Model(&models.CapitalAccount{}).Where("fund_id = ?", fundID)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var accounts []models.CapitalAccount
	if err := base.Order("account_number ASC").Scopes(pagination.Paginate(page)).Find(&accounts).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(accounts, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// RecordTransaction posts a ledger entry and applies its effect on the account
// balance in one database transaction. The account row is locked for the
// duration so concurrent postings serialize.
func (s *accountService) RecordTransaction(accountID string, txType models.TransactionType, amount, shares, pricePerShare decimal.Decimal, description string) (*models.Transaction, error) {
	if amount.IsNegative() {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "amount cannot be negative")
	}
	if shares.IsNegative() {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "shares cannot be negative")
	}
	switch txType {
	case models.TransactionTypeSubscription, models.TransactionTypeRedemption,
		models.TransactionTypeDistribution, models.TransactionTypeTransfer:
	default:
		return nil, apperrors.WithMessage(apperrors.ErrValidation, fmt.Sprintf("unknown transaction type %q", txType))
	}

	var entry *models.Transaction
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var account models.CapitalAccount
		if txErr := lockForUpdate(tx).First(&account, "id = ?", accountID).Error; txErr != nil {
			if errors.Is(txErr, gorm.ErrRecordNotFound) {
				return apperrors.ErrAccountNotFound
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
		}
		if account.Status != models.CapitalAccountStatusActive {
			return apperrors.ErrAccountClosed
		}

		if txErr := s.ApplyTransaction(tx, &account, txType, amount, shares); txErr != nil {
			return txErr
		}

		entry = &models.Transaction{
			CapitalAccountID: account.ID,
			Type:             txType,
			Amount:           amount,
			Shares:           shares,
			PricePerShare:    pricePerShare,
			Currency:         account.Currency,
			Status:           models.TransactionStatusSettled,
			SettlementDate:   dateOnly(time.Now()),
			Description:      description,
		}
		if txErr := tx.Create(entry).Error; txErr != nil {
			return apperrors.Wrap(apperrors.ErrConsistency, txErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// ApplyTransaction mutates the account balance for one ledger entry. Must be
// called with the account row already locked inside the given transaction.
//
//	subscription: shares_owned += shares; capital_contributed += amount
//	redemption:   shares_owned -= shares; capital_returned += amount
//	distribution: capital_returned += amount
//	transfer:     no balance effect (the entry records the movement)
func (s *accountService) ApplyTransaction(tx *gorm.DB, account *models.CapitalAccount, txType models.TransactionType, amount, shares decimal.Decimal) error {
	switch txType {
	case models.TransactionTypeSubscription:
		account.SharesOwned = account.SharesOwned.Add(shares)
		account.CapitalContributed = account.CapitalContributed.Add(amount)
	case models.TransactionTypeRedemption:
		remaining := account.SharesOwned.Sub(shares)
		if remaining.IsNegative() {
			return apperrors.WithMessage(apperrors.ErrInsufficientShares,
				fmt.Sprintf("account holds %s shares, cannot redeem %s", account.SharesOwned, shares))
		}
		account.SharesOwned = remaining
		account.CapitalReturned = account.CapitalReturned.Add(amount)
	case models.TransactionTypeDistribution:
		account.CapitalReturned = account.CapitalReturned.Add(amount)
	case models.TransactionTypeTransfer:
		return nil
	default:
		return apperrors.WithMessage(apperrors.ErrValidation, fmt.Sprintf("unknown transaction type %q", txType))
	}

	if err := tx.Model(account).Updates(map[string]interface{}{
		"shares_owned":        account.SharesOwned,
		"capital_contributed": account.CapitalContributed,
		"capital_returned":    account.CapitalReturned,
	}).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrConsistency, err)
	}
	return nil
}

// GetAccountTransactions retrieves a paginated, filtered list of ledger
// entries for an account, newest first.
func (s *accountService) GetAccountTransactions(accountID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	if _, err := s.GetAccountByID(accountID); err != nil {
		return nil, err
	}

	page.Defaults()

	base := s.db.Model(&models.Transaction{}).Where("capital_account_id = ?", accountID)
	base = applyTransactionFilters(base, filter)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var transactions []models.Transaction
	if err := base.Scopes(pagination.Paginate(page)).
		Order("settlement_date DESC, created_at DESC").
		Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(transactions, page.Page, page.PageSize, totalItems)
	return &result, nil
}

func applyTransactionFilters(q *gorm.DB, f TransactionFilter) *gorm.DB {
	if f.FromDate != nil {
		q = q.Where("settlement_date >= ?", dateOnly(*f.FromDate))
	}
	if f.ToDate != nil {
		q = q.Where("settlement_date <= ?", dateOnly(*f.ToDate))
	}
	if f.Type != nil {
		q = q.Where("type = ?", *f.Type)
	}
	if f.MinAmount != nil {
		q = q.Where("amount >= ?", *f.MinAmount)
	}
	if f.MaxAmount != nil {
		q = q.Where("amount <= ?", *f.MaxAmount)
	}
	return q
}
