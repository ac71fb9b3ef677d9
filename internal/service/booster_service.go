package service

import (
	"context"
	"errors"
	"time"

	"portfolio_economy/internal/domain"
	"portfolio_economy/internal/economy"
	"portfolio_economy/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrInvalidBooster = errors.New("invalid booster")

// BoosterService maintains time-bounded reward multipliers.
//
// Stacking: reapplying an effect extends it to
// max(current expiry, now) + duration and replaces the multiplier.
// Distinct effects combine multiplicatively. Expiry is lazy; Apply
// prunes the user's expired rows as a side effect.
type BoosterService struct {
	db          *pgxpool.Pool
	boosterRepo *repository.BoosterRepository
	now         func() time.Time
}

func NewBoosterService(db *pgxpool.Pool) *BoosterService {
	return &BoosterService{
		db:          db,
		boosterRepo: repository.NewBoosterRepository(db),
		now:         time.Now,
	}
}

// Apply activates or extends an effect for the user.
func (s *BoosterService) Apply(ctx context.Context, userID int64, effectID string, multiplier float64, duration time.Duration) (*domain.Booster, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	b, err := s.ApplyWithTx(ctx, tx, userID, effectID, multiplier, duration)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return b, nil
}

// ApplyWithTx activates or extends an effect inside the caller's
// transaction, so a grant that fails later rolls the effect back too.
func (s *BoosterService) ApplyWithTx(ctx context.Context, tx pgx.Tx, userID int64, effectID string, multiplier float64, duration time.Duration) (*domain.Booster, error) {
	if effectID == "" || multiplier <= 1 || duration <= 0 {
		return nil, ErrInvalidBooster
	}

	// cleanup runs outside the tx: a failed delete must not poison it
	now := s.now()
	_, _ = s.boosterRepo.PruneExpired(ctx, userID, now)

	existing, err := s.boosterRepo.GetExpiryWithTx(ctx, tx, userID, effectID)
	if err != nil {
		return nil, err
	}

	b := &domain.Booster{
		UserID:     userID,
		EffectID:   effectID,
		Multiplier: multiplier,
		ExpiresAt:  economy.ExtendExpiry(existing, now, duration),
	}
	if err := s.boosterRepo.UpsertWithTx(ctx, tx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// Active returns the user's currently active boosters.
func (s *BoosterService) Active(ctx context.Context, userID int64) ([]domain.Booster, error) {
	all, err := s.boosterRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return economy.ActiveBoosters(all, s.now()), nil
}

// EffectiveMultiplier returns the combined reward multiplier at the
// current instant; 1 when nothing is active.
func (s *BoosterService) EffectiveMultiplier(ctx context.Context, userID int64) (float64, error) {
	all, err := s.boosterRepo.ListByUser(ctx, userID)
	if err != nil {
		return 1, err
	}
	return economy.EffectiveMultiplier(all, s.now()), nil
}
