package repository

import (
	"context"
	"time"

	"portfolio_economy/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PurchaseRepository struct {
	db *pgxpool.Pool
}

func NewPurchaseRepository(db *pgxpool.Pool) *PurchaseRepository {
	return &PurchaseRepository{db: db}
}

// CreateWithTx records a purchase attempt in the same transaction that
// charges the balance, so the charge and its record commit together.
func (r *PurchaseRepository) CreateWithTx(ctx context.Context, tx pgx.Tx, p *domain.Purchase) error {
	return tx.QueryRow(ctx,
		`INSERT INTO purchases (user_id, item_id, price, currency, state)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at, updated_at`,
		p.UserID, p.ItemID, p.Price, p.Currency, p.State,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

// SetState moves a purchase to a new state.
func (r *PurchaseRepository) SetState(ctx context.Context, id int64, state domain.PurchaseState) error {
	_, err := r.db.Exec(ctx,
		`UPDATE purchases SET state = $1, updated_at = NOW() WHERE id = $2`,
		state, id,
	)
	return err
}

// SetStateWithTx moves a purchase to a new state inside a transaction.
func (r *PurchaseRepository) SetStateWithTx(ctx context.Context, tx pgx.Tx, id int64, state domain.PurchaseState) error {
	_, err := tx.Exec(ctx,
		`UPDATE purchases SET state = $1, updated_at = NOW() WHERE id = $2`,
		state, id,
	)
	return err
}

// ClaimStuck returns charged or orphaned purchases older than the grace
// window, locking the rows for the caller's transaction so two sweeps
// cannot refund the same purchase twice.
func (r *PurchaseRepository) ClaimStuck(ctx context.Context, tx pgx.Tx, olderThan time.Time, limit int) ([]domain.Purchase, error) {
	rows, err := tx.Query(ctx,
		`SELECT id, user_id, item_id, price, currency, state, created_at, updated_at
		 FROM purchases
		 WHERE state IN ($1, $2) AND updated_at < $3
		 ORDER BY updated_at ASC
		 LIMIT $4
		 FOR UPDATE SKIP LOCKED`,
		domain.PurchaseCharged, domain.PurchaseOrphaned, olderThan, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.Purchase
	for rows.Next() {
		var p domain.Purchase
		if err := rows.Scan(&p.ID, &p.UserID, &p.ItemID, &p.Price, &p.Currency, &p.State, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, rows.Err()
}

// ListByState returns purchases in a given state, newest first.
func (r *PurchaseRepository) ListByState(ctx context.Context, state domain.PurchaseState, limit int) ([]domain.Purchase, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.Query(ctx,
		`SELECT id, user_id, item_id, price, currency, state, created_at, updated_at
		 FROM purchases
		 WHERE state = $1
		 ORDER BY updated_at DESC
		 LIMIT $2`,
		state, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.Purchase
	for rows.Next() {
		var p domain.Purchase
		if err := rows.Scan(&p.ID, &p.UserID, &p.ItemID, &p.Price, &p.Currency, &p.State, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, rows.Err()
}

// GetByUserID returns a user's purchase history.
func (r *PurchaseRepository) GetByUserID(ctx context.Context, userID int64, limit int) ([]domain.Purchase, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.Query(ctx,
		`SELECT id, user_id, item_id, price, currency, state, created_at, updated_at
		 FROM purchases
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.Purchase
	for rows.Next() {
		var p domain.Purchase
		if err := rows.Scan(&p.ID, &p.UserID, &p.ItemID, &p.Price, &p.Currency, &p.State, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, rows.Err()
}
