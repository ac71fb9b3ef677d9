package repository

import (
	"context"
	"errors"
	"time"

	"portfolio_economy/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BoosterRepository struct {
	db *pgxpool.Pool
}

func NewBoosterRepository(db *pgxpool.Pool) *BoosterRepository {
	return &BoosterRepository{db: db}
}

// ListByUser returns all stored boosters for a user, including entries
// already past their expiry; callers filter on the clock.
func (r *BoosterRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Booster, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, user_id, effect_id, multiplier, expires_at
		 FROM boosters
		 WHERE user_id = $1
		 ORDER BY expires_at ASC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.Booster
	for rows.Next() {
		var b domain.Booster
		if err := rows.Scan(&b.ID, &b.UserID, &b.EffectID, &b.Multiplier, &b.ExpiresAt); err != nil {
			return nil, err
		}
		res = append(res, b)
	}
	return res, rows.Err()
}

// GetExpiryWithTx returns the stored expiry for one effect, or the
// zero time when the user has no row for it. Runs in the caller's
// transaction so a read-extend-write stays consistent.
func (r *BoosterRepository) GetExpiryWithTx(ctx context.Context, tx pgx.Tx, userID int64, effectID string) (time.Time, error) {
	var expiresAt time.Time
	err := tx.QueryRow(ctx,
		`SELECT expires_at FROM boosters WHERE user_id = $1 AND effect_id = $2`,
		userID, effectID,
	).Scan(&expiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		// no row is not an error here
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return expiresAt, nil
}

// UpsertWithTx stores a booster, replacing the multiplier and expiry
// of an existing row for the same effect.
func (r *BoosterRepository) UpsertWithTx(ctx context.Context, tx pgx.Tx, b *domain.Booster) error {
	return tx.QueryRow(ctx,
		`INSERT INTO boosters (user_id, effect_id, multiplier, expires_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id, effect_id)
		 DO UPDATE SET multiplier = $3, expires_at = $4
		 RETURNING id`,
		b.UserID, b.EffectID, b.Multiplier, b.ExpiresAt,
	).Scan(&b.ID)
}

// PruneExpired deletes rows already past their expiry. Called
// opportunistically on writes to bound table growth; reads never
// depend on it.
func (r *BoosterRepository) PruneExpired(ctx context.Context, userID int64, now time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM boosters WHERE user_id = $1 AND expires_at <= $2`,
		userID, now,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
