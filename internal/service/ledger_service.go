package service

import (
	"context"
	"errors"

	"portfolio_economy/internal/domain"
	"portfolio_economy/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrInsufficientFunds = repository.ErrInsufficientFunds
	ErrUserNotFound      = repository.ErrUserNotFound
	ErrInvalidAmount     = errors.New("invalid amount")
)

// LedgerService is the single writer of user balances. Every mutation
// is a conditional single-statement update plus an audit row, committed
// together; callers re-read balances from its return values instead of
// assuming them.
type LedgerService struct {
	db              *pgxpool.Pool
	userRepo        *repository.UserRepository
	transactionRepo *repository.TransactionRepository
}

func NewLedgerService(db *pgxpool.Pool) *LedgerService {
	return &LedgerService{
		db:              db,
		userRepo:        repository.NewUserRepository(db),
		transactionRepo: repository.NewTransactionRepository(db),
	}
}

// GetBalance returns the user's current balance for one currency.
func (s *LedgerService) GetBalance(ctx context.Context, userID int64, currency domain.Currency) (int64, error) {
	return s.userRepo.GetBalance(ctx, userID, currency)
}

// Debit deducts amount from the user's balance. The balance check and
// the write happen in one conditional statement, so racing debits
// cannot overdraw; a failed debit leaves the balance untouched.
func (s *LedgerService) Debit(ctx context.Context, userID int64, currency domain.Currency, amount int64, txType string, meta map[string]interface{}) (newBalance int64, err error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	newBalance, err = s.userRepo.DebitWithTx(ctx, tx, userID, currency, amount)
	if err != nil {
		return 0, err
	}

	entry := &domain.Transaction{
		UserID:   userID,
		Type:     txType,
		Currency: currency,
		Amount:   -amount,
		Meta:     meta,
	}
	if err = s.transactionRepo.CreateWithTx(ctx, tx, entry); err != nil {
		return 0, err
	}

	if err = tx.Commit(ctx); err != nil {
		return 0, err
	}
	return newBalance, nil
}

// Credit adds amount to the user's balance.
func (s *LedgerService) Credit(ctx context.Context, userID int64, currency domain.Currency, amount int64, txType string, meta map[string]interface{}) (newBalance int64, err error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	newBalance, err = s.userRepo.CreditWithTx(ctx, tx, userID, currency, amount)
	if err != nil {
		return 0, err
	}

	entry := &domain.Transaction{
		UserID:   userID,
		Type:     txType,
		Currency: currency,
		Amount:   amount,
		Meta:     meta,
	}
	if err = s.transactionRepo.CreateWithTx(ctx, tx, entry); err != nil {
		return 0, err
	}

	if err = tx.Commit(ctx); err != nil {
		return 0, err
	}
	return newBalance, nil
}

// Adjust applies a signed admin delta through the same primitives as
// regular activity, never as a raw field overwrite, so it cannot
// clobber a concurrent purchase.
func (s *LedgerService) Adjust(ctx context.Context, userID int64, currency domain.Currency, delta int64, reason string) (int64, error) {
	meta := map[string]interface{}{"reason": reason}
	if delta > 0 {
		return s.Credit(ctx, userID, currency, delta, "admin_adjust", meta)
	}
	if delta < 0 {
		return s.Debit(ctx, userID, currency, -delta, "admin_adjust", meta)
	}
	return s.GetBalance(ctx, userID, currency)
}

// GetHistory returns the user's ledger history.
func (s *LedgerService) GetHistory(ctx context.Context, userID int64, limit int) ([]*domain.Transaction, error) {
	return s.transactionRepo.GetByUserID(ctx, userID, limit)
}
