package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ActionRepository tracks one-time engagement actions that already paid
// out, keyed by a typed action identifier such as "liked:project:42".
// XP for a one-time action is granted only if the insert wins.
type ActionRepository struct {
	db *pgxpool.Pool
}

func NewActionRepository(db *pgxpool.Pool) *ActionRepository {
	return &ActionRepository{db: db}
}

// TryCreditWithTx records the action and reports whether this call was
// the first. The ON CONFLICT gate makes double submission of the same
// action a no-op regardless of caller discipline. Runs inside the
// caller's transaction so the claim only sticks if the payout commits.
func (r *ActionRepository) TryCreditWithTx(ctx context.Context, tx pgx.Tx, userID int64, actionID string) (bool, error) {
	tag, err := tx.Exec(ctx,
		`INSERT INTO credited_actions (user_id, action_id)
		 VALUES ($1, $2)
		 ON CONFLICT (user_id, action_id) DO NOTHING`,
		userID, actionID,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// IsCredited reports whether the action already paid out.
func (r *ActionRepository) IsCredited(ctx context.Context, userID int64, actionID string) (bool, error) {
	var credited bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM credited_actions WHERE user_id = $1 AND action_id = $2)`,
		userID, actionID,
	).Scan(&credited)
	return credited, err
}
