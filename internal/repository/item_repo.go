package repository

import (
	"context"
	"errors"

	"portfolio_economy/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrAlreadyOwned = errors.New("item already owned")

type ItemRepository struct {
	db *pgxpool.Pool
}

func NewItemRepository(db *pgxpool.Pool) *ItemRepository {
	return &ItemRepository{db: db}
}

// GetOwned returns everything the user owns.
func (r *ItemRepository) GetOwned(ctx context.Context, userID int64) ([]domain.OwnedItem, error) {
	rows, err := r.db.Query(ctx,
		`SELECT user_id, item_id, quantity, acquired_at
		 FROM owned_items
		 WHERE user_id = $1
		 ORDER BY acquired_at ASC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.OwnedItem
	for rows.Next() {
		var it domain.OwnedItem
		if err := rows.Scan(&it.UserID, &it.ItemID, &it.Quantity, &it.AcquiredAt); err != nil {
			return nil, err
		}
		res = append(res, it)
	}
	return res, rows.Err()
}

// Owns reports whether the user holds at least one unit of the item.
func (r *ItemRepository) Owns(ctx context.Context, userID int64, itemID string) (bool, error) {
	var owned bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM owned_items WHERE user_id = $1 AND item_id = $2)`,
		userID, itemID,
	).Scan(&owned)
	return owned, err
}

// OwnedCountInFamily counts units the user holds across a scaling
// family. This is the n of the pricing curve.
func (r *ItemRepository) OwnedCountInFamily(ctx context.Context, userID int64, family string) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx,
		`SELECT COALESCE(SUM(oi.quantity), 0)
		 FROM owned_items oi
		 JOIN catalog_items ci ON ci.id = oi.item_id
		 WHERE oi.user_id = $1 AND ci.scaling_family = $2`,
		userID, family,
	).Scan(&count)
	return count, err
}

// GrantStackableWithTx adds one unit, inserting the row on first grant.
func (r *ItemRepository) GrantStackableWithTx(ctx context.Context, tx pgx.Tx, userID int64, itemID string) (int64, error) {
	var quantity int64
	err := tx.QueryRow(ctx,
		`INSERT INTO owned_items (user_id, item_id, quantity)
		 VALUES ($1, $2, 1)
		 ON CONFLICT (user_id, item_id) DO UPDATE SET quantity = owned_items.quantity + 1
		 RETURNING quantity`,
		userID, itemID,
	).Scan(&quantity)
	return quantity, err
}

// GrantUniqueWithTx inserts a non-stackable item; a second grant of the
// same item returns ErrAlreadyOwned.
func (r *ItemRepository) GrantUniqueWithTx(ctx context.Context, tx pgx.Tx, userID int64, itemID string) error {
	var id string
	err := tx.QueryRow(ctx,
		`INSERT INTO owned_items (user_id, item_id, quantity)
		 VALUES ($1, $2, 1)
		 ON CONFLICT (user_id, item_id) DO NOTHING
		 RETURNING item_id`,
		userID, itemID,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrAlreadyOwned
		}
		return err
	}
	return nil
}
