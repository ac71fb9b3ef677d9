package service

import (
	"context"
	"time"

	"portfolio_economy/internal/domain"
	"portfolio_economy/internal/logger"
	"portfolio_economy/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const reconcileBatchSize = 100

// ReconcileService closes purchases stuck between charge and grant.
// A row still in charged state after the grace window means the process
// died (or timed out) mid-purchase; the user paid and got nothing, so
// the sweep refunds the charge. Orphaned rows from failed rollbacks are
// handled the same way.
type ReconcileService struct {
	db           *pgxpool.Pool
	userRepo     *repository.UserRepository
	purchaseRepo *repository.PurchaseRepository
	txRepo       *repository.TransactionRepository
	grace        time.Duration
	interval     time.Duration
	now          func() time.Time
}

func NewReconcileService(db *pgxpool.Pool, interval, grace time.Duration) *ReconcileService {
	return &ReconcileService{
		db:           db,
		userRepo:     repository.NewUserRepository(db),
		purchaseRepo: repository.NewPurchaseRepository(db),
		txRepo:       repository.NewTransactionRepository(db),
		grace:        grace,
		interval:     interval,
		now:          time.Now,
	}
}

// Start runs the periodic sweep until ctx is cancelled.
func (s *ReconcileService) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n, err := s.Sweep(ctx); err != nil {
					logger.Error("reconcile sweep failed", "error", err)
				} else if n > 0 {
					logger.Info("reconciled stuck purchases", "count", n)
				}
			}
		}
	}()
}

// Sweep refunds one batch of stuck purchases and returns how many it
// closed. Rows are claimed with FOR UPDATE SKIP LOCKED, so concurrent
// replicas never refund the same purchase twice.
func (s *ReconcileService) Sweep(ctx context.Context) (int, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	cutoff := s.now().Add(-s.grace)
	stuck, err := s.purchaseRepo.ClaimStuck(ctx, tx, cutoff, reconcileBatchSize)
	if err != nil {
		return 0, err
	}
	if len(stuck) == 0 {
		return 0, nil
	}

	for i := range stuck {
		p := &stuck[i]
		if _, err := s.userRepo.CreditWithTx(ctx, tx, p.UserID, p.Currency, p.Price); err != nil {
			return 0, err
		}
		entry := &domain.Transaction{
			UserID:   p.UserID,
			Type:     "purchase_refund",
			Currency: p.Currency,
			Amount:   p.Price,
			Meta:     map[string]interface{}{"purchase_id": p.ID, "reconciled": true},
		}
		if err := s.txRepo.CreateWithTx(ctx, tx, entry); err != nil {
			return 0, err
		}
		if err := s.purchaseRepo.SetStateWithTx(ctx, tx, p.ID, domain.PurchaseRolledBack); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	reconciledTotal.Add(float64(len(stuck)))
	return len(stuck), nil
}
