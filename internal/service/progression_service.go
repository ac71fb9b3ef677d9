package service

import (
	"context"
	"errors"

	"portfolio_economy/internal/catalog"
	"portfolio_economy/internal/domain"
	"portfolio_economy/internal/economy"
	"portfolio_economy/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNegativeXP = errors.New("xp amount must be non-negative")

// ProgressionService accumulates XP and resolves ranks against the
// cached rank table. GrantXP does not deduplicate; the reward service
// gates one-time actions on the credited-actions set inside its own
// payout transaction.
type ProgressionService struct {
	db       *pgxpool.Pool
	userRepo *repository.UserRepository
	catalog  *catalog.Cache
}

func NewProgressionService(db *pgxpool.Pool, cat *catalog.Cache) *ProgressionService {
	return &ProgressionService{
		db:       db,
		userRepo: repository.NewUserRepository(db),
		catalog:  cat,
	}
}

// GrantXP adds amount to the user's XP and returns the new total.
func (s *ProgressionService) GrantXP(ctx context.Context, userID int64, amount int64, reason string) (int64, error) {
	if amount < 0 {
		return 0, ErrNegativeXP
	}
	if amount == 0 {
		return s.userRepo.GetXP(ctx, userID)
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	newXP, err := s.userRepo.AddXPWithTx(ctx, tx, userID, amount)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return newXP, nil
}

// Rank resolves the rank for an XP value from the cached table.
func (s *ProgressionService) Rank(ctx context.Context, xp int64) (domain.RankThreshold, error) {
	thresholds, err := s.catalog.RankThresholds(ctx)
	if err != nil {
		return domain.RankThreshold{}, err
	}
	return economy.ResolveRank(thresholds, xp)
}

// RankOf returns the user's current rank.
func (s *ProgressionService) RankOf(ctx context.Context, userID int64) (domain.RankThreshold, int64, error) {
	xp, err := s.userRepo.GetXP(ctx, userID)
	if err != nil {
		return domain.RankThreshold{}, 0, err
	}
	rank, err := s.Rank(ctx, xp)
	return rank, xp, err
}

// ProgressSnapshot is the view model of a user's progression.
type ProgressSnapshot struct {
	XP       int64                 `json:"xp"`
	Rank     domain.RankThreshold  `json:"rank"`
	NextRank *domain.RankThreshold `json:"next_rank,omitempty"`
}

// Snapshot returns XP, current rank and the next threshold.
func (s *ProgressionService) Snapshot(ctx context.Context, userID int64) (*ProgressSnapshot, error) {
	xp, err := s.userRepo.GetXP(ctx, userID)
	if err != nil {
		return nil, err
	}
	thresholds, err := s.catalog.RankThresholds(ctx)
	if err != nil {
		return nil, err
	}
	rank, err := economy.ResolveRank(thresholds, xp)
	if err != nil {
		return nil, err
	}
	return &ProgressSnapshot{
		XP:       xp,
		Rank:     rank,
		NextRank: economy.NextRank(thresholds, xp),
	}, nil
}
