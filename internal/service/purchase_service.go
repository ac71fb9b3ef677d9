package service

import (
	"context"
	"errors"
	"time"

	"portfolio_economy/internal/catalog"
	"portfolio_economy/internal/domain"
	"portfolio_economy/internal/economy"
	"portfolio_economy/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"portfolio_economy/internal/logger"
)

var (
	ErrAlreadyOwned = repository.ErrAlreadyOwned
	ErrInvalidItem  = errors.New("invalid item")
	// ErrPurchaseOrphaned means the charge went through, the grant and
	// the refund both failed, and a durable orphan marker was left for
	// the reconciler. Callers must not blindly retry the charge.
	ErrPurchaseOrphaned = errors.New("purchase orphaned, reconciliation pending")
)

// PurchaseService composes catalog, ledger, items and boosters into an
// all-or-nothing purchase:
//
//	INITIATED -> VALIDATED -> CHARGED -> GRANTED -> COMPLETE
//	                 | fail                 | fail
//	              REJECTED             ROLLED_BACK (or ORPHANED)
//
// The charge is one transaction (conditional debit + purchase row +
// ledger entry); the grant is a second one. A grant failure refunds the
// charge; a refund failure flips the purchase row to orphaned so the
// reconciler can finish the job. A failed purchase never costs currency.
type PurchaseService struct {
	db           *pgxpool.Pool
	catalog      *catalog.Cache
	userRepo     *repository.UserRepository
	itemRepo     *repository.ItemRepository
	purchaseRepo *repository.PurchaseRepository
	txRepo       *repository.TransactionRepository
	boosters     *BoosterService
	progression  *ProgressionService
	notifier     Notifier
}

func NewPurchaseService(db *pgxpool.Pool, cat *catalog.Cache, boosters *BoosterService, progression *ProgressionService) *PurchaseService {
	return &PurchaseService{
		db:           db,
		catalog:      cat,
		userRepo:     repository.NewUserRepository(db),
		itemRepo:     repository.NewItemRepository(db),
		purchaseRepo: repository.NewPurchaseRepository(db),
		txRepo:       repository.NewTransactionRepository(db),
		boosters:     boosters,
		progression:  progression,
		notifier:     noopNotifier{},
	}
}

// SetNotifier wires the event push target.
func (s *PurchaseService) SetNotifier(n Notifier) {
	if n != nil {
		s.notifier = n
	}
}

// Quote returns the price of the next unit for this user without
// buying it.
func (s *PurchaseService) Quote(ctx context.Context, userID int64, itemID string) (int64, domain.CatalogItem, error) {
	item, err := s.catalog.Item(ctx, itemID)
	if err != nil {
		return 0, domain.CatalogItem{}, err
	}
	owned, err := s.ownedInFamily(ctx, userID, item)
	if err != nil {
		return 0, domain.CatalogItem{}, err
	}
	price, err := economy.PriceAt(item.BasePrice, item.GrowthRate, owned)
	if err != nil {
		return 0, domain.CatalogItem{}, err
	}
	return price, item, nil
}

func (s *PurchaseService) ownedInFamily(ctx context.Context, userID int64, item domain.CatalogItem) (int64, error) {
	if item.ScalingFamily == "" {
		return 0, nil
	}
	return s.itemRepo.OwnedCountInFamily(ctx, userID, item.ScalingFamily)
}

// Purchase runs the full state machine for one item.
func (s *PurchaseService) Purchase(ctx context.Context, userID int64, itemID string) (*domain.PurchaseResult, error) {
	// VALIDATED
	item, err := s.catalog.Item(ctx, itemID)
	if err != nil {
		if errors.Is(err, catalog.ErrUnknownItem) {
			purchasesTotal.WithLabelValues(string(domain.PurchaseRejected)).Inc()
			return nil, ErrInvalidItem
		}
		return nil, err
	}

	if !item.Stackable && item.Category != domain.CategoryBooster {
		owned, err := s.itemRepo.Owns(ctx, userID, item.ID)
		if err != nil {
			return nil, err
		}
		if owned {
			purchasesTotal.WithLabelValues(string(domain.PurchaseRejected)).Inc()
			return nil, ErrAlreadyOwned
		}
	}

	ownedCount, err := s.ownedInFamily(ctx, userID, item)
	if err != nil {
		return nil, err
	}
	price, err := economy.PriceAt(item.BasePrice, item.GrowthRate, ownedCount)
	if err != nil {
		return nil, ErrInvalidItem
	}

	// CHARGED
	purchase, newBalance, err := s.charge(ctx, userID, item, price)
	if err != nil {
		purchasesTotal.WithLabelValues(string(domain.PurchaseRejected)).Inc()
		return nil, err
	}

	// GRANTED
	quantity, err := s.grant(ctx, userID, item, purchase)
	if err != nil {
		refunded := s.rollbackCharge(ctx, purchase)
		if !refunded {
			purchasesTotal.WithLabelValues(string(domain.PurchaseOrphaned)).Inc()
			return nil, ErrPurchaseOrphaned
		}
		purchasesTotal.WithLabelValues(string(domain.PurchaseRolledBack)).Inc()
		return nil, err
	}

	// COMPLETE
	purchasesTotal.WithLabelValues(string(domain.PurchaseComplete)).Inc()

	rank, _, rankErr := s.progression.RankOf(ctx, userID)
	result := &domain.PurchaseResult{
		Success:    true,
		NewBalance: newBalance,
		Item:       &item,
		Quantity:   quantity,
	}
	if rankErr == nil {
		result.NewRank = &rank
	}

	s.notifier.Notify(userID, "purchase_complete", map[string]interface{}{
		"item_id":     item.ID,
		"price":       price,
		"currency":    item.Currency,
		"new_balance": newBalance,
	})
	return result, nil
}

// charge debits the price and records the purchase row in one
// transaction. A rejected debit leaves no balance change; the rejected
// purchase row is written best-effort for audit.
func (s *PurchaseService) charge(ctx context.Context, userID int64, item domain.CatalogItem, price int64) (*domain.Purchase, int64, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	purchase := &domain.Purchase{
		UserID:   userID,
		ItemID:   item.ID,
		Price:    price,
		Currency: item.Currency,
		State:    domain.PurchaseCharged,
	}

	newBalance, err := s.userRepo.DebitWithTx(ctx, tx, userID, item.Currency, price)
	if err != nil {
		if errors.Is(err, repository.ErrInsufficientFunds) {
			s.recordRejected(ctx, userID, item, price)
		}
		return nil, 0, err
	}

	if err := s.purchaseRepo.CreateWithTx(ctx, tx, purchase); err != nil {
		return nil, 0, err
	}

	entry := &domain.Transaction{
		UserID:   userID,
		Type:     "purchase",
		Currency: item.Currency,
		Amount:   -price,
		Meta:     map[string]interface{}{"item_id": item.ID},
	}
	if err := s.txRepo.CreateWithTx(ctx, tx, entry); err != nil {
		return nil, 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, 0, err
	}
	return purchase, newBalance, nil
}

func (s *PurchaseService) recordRejected(ctx context.Context, userID int64, item domain.CatalogItem, price int64) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()
	p := &domain.Purchase{
		UserID: userID, ItemID: item.ID, Price: price,
		Currency: item.Currency, State: domain.PurchaseRejected,
	}
	if err := s.purchaseRepo.CreateWithTx(ctx, tx, p); err == nil {
		_ = tx.Commit(ctx)
	}
}

// grant hands over the purchased item and completes the purchase row.
func (s *PurchaseService) grant(ctx context.Context, userID int64, item domain.CatalogItem, purchase *domain.Purchase) (int64, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Booster items are consumables: the grant applies the effect
	// instead of adding an inventory row. Effect and state flip commit
	// together so a refunded purchase never leaves the effect applied.
	if item.Category == domain.CategoryBooster {
		_, err := s.boosters.ApplyWithTx(ctx, tx, userID, item.BoosterEffectID, item.BoosterMult,
			time.Duration(item.BoosterSeconds)*time.Second)
		if err != nil {
			return 0, err
		}
		if err := s.purchaseRepo.SetStateWithTx(ctx, tx, purchase.ID, domain.PurchaseComplete); err != nil {
			return 0, err
		}
		if err := tx.Commit(ctx); err != nil {
			return 0, err
		}
		return 1, nil
	}

	var quantity int64
	if item.Stackable {
		quantity, err = s.itemRepo.GrantStackableWithTx(ctx, tx, userID, item.ID)
	} else {
		quantity = 1
		err = s.itemRepo.GrantUniqueWithTx(ctx, tx, userID, item.ID)
	}
	if err != nil {
		return 0, err
	}

	if err := s.purchaseRepo.SetStateWithTx(ctx, tx, purchase.ID, domain.PurchaseComplete); err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return quantity, nil
}

// rollbackCharge compensates a charge whose grant failed: refund plus
// state flip in one transaction. Returns false when even that failed,
// in which case the purchase is marked orphaned for the reconciler.
func (s *PurchaseService) rollbackCharge(ctx context.Context, purchase *domain.Purchase) bool {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err == nil {
		defer func() { _ = tx.Rollback(ctx) }()
		_, err = s.userRepo.CreditWithTx(ctx, tx, purchase.UserID, purchase.Currency, purchase.Price)
		if err == nil {
			entry := &domain.Transaction{
				UserID:   purchase.UserID,
				Type:     "purchase_refund",
				Currency: purchase.Currency,
				Amount:   purchase.Price,
				Meta:     map[string]interface{}{"purchase_id": purchase.ID, "item_id": purchase.ItemID},
			}
			if err = s.txRepo.CreateWithTx(ctx, tx, entry); err == nil {
				if err = s.purchaseRepo.SetStateWithTx(ctx, tx, purchase.ID, domain.PurchaseRolledBack); err == nil {
					if err = tx.Commit(ctx); err == nil {
						return true
					}
				}
			}
		}
	}

	logger.Error("purchase rollback failed, marking orphaned",
		"purchase_id", purchase.ID, "user_id", purchase.UserID, "error", err)
	if markErr := s.purchaseRepo.SetState(ctx, purchase.ID, domain.PurchaseOrphaned); markErr != nil {
		// Row stays in charged state; the reconciler treats aged
		// charged rows the same as orphaned ones.
		logger.Error("failed to mark purchase orphaned", "purchase_id", purchase.ID, "error", markErr)
	}
	return false
}

// History returns the user's purchase attempts.
func (s *PurchaseService) History(ctx context.Context, userID int64, limit int) ([]domain.Purchase, error) {
	return s.purchaseRepo.GetByUserID(ctx, userID, limit)
}
