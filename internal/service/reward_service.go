package service

import (
	"context"
	"errors"

	"portfolio_economy/internal/domain"
	"portfolio_economy/internal/economy"
	"portfolio_economy/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RewardReason is a typed engagement reason code. Free-form strings are
// rejected so one-time payouts cannot depend on caller spelling.
type RewardReason string

const (
	ReasonDailyVisit     RewardReason = "daily_visit"
	ReasonPostLiked      RewardReason = "post_liked"
	ReasonCommentPosted  RewardReason = "comment_posted"
	ReasonProjectLiked   RewardReason = "project_liked"
	ReasonGuestbookEntry RewardReason = "guestbook_entry"
	ReasonFishFed        RewardReason = "fish_fed"
	ReasonAdminGrant     RewardReason = "admin_grant"
)

// rewardTable fixes the base payout per reason: points credited to the
// balance and XP added to progression. OneTime reasons additionally
// carry a per-target action ID and pay out once per target.
var rewardTable = map[RewardReason]struct {
	Points  int64
	XP      int64
	OneTime bool
}{
	ReasonDailyVisit:     {Points: 10, XP: 5, OneTime: false},
	ReasonPostLiked:      {Points: 2, XP: 2, OneTime: true},
	ReasonCommentPosted:  {Points: 5, XP: 5, OneTime: true},
	ReasonProjectLiked:   {Points: 2, XP: 2, OneTime: true},
	ReasonGuestbookEntry: {Points: 15, XP: 10, OneTime: true},
	ReasonFishFed:        {Points: 0, XP: 1, OneTime: false},
	ReasonAdminGrant:     {Points: 0, XP: 0, OneTime: false},
}

var ErrUnknownReason = errors.New("unknown reward reason")

// RewardService grants engagement rewards: points through the ledger
// (scaled by the user's active boosters) and XP through progression.
type RewardService struct {
	db          *pgxpool.Pool
	ledger      *LedgerService
	progression *ProgressionService
	boosters    *BoosterService
	userRepo    *repository.UserRepository
	txRepo      *repository.TransactionRepository
	actionRepo  *repository.ActionRepository
	notifier    Notifier
}

func NewRewardService(db *pgxpool.Pool, ledger *LedgerService, progression *ProgressionService, boosters *BoosterService) *RewardService {
	return &RewardService{
		db:          db,
		ledger:      ledger,
		progression: progression,
		boosters:    boosters,
		userRepo:    repository.NewUserRepository(db),
		txRepo:      repository.NewTransactionRepository(db),
		actionRepo:  repository.NewActionRepository(db),
		notifier:    noopNotifier{},
	}
}

// SetNotifier wires the event push target.
func (s *RewardService) SetNotifier(n Notifier) {
	if n != nil {
		s.notifier = n
	}
}

// Grant pays out a reward for the given reason. For one-time reasons,
// actionTarget distinguishes the acted-on entity ("project:42"); a
// repeat grant for the same target is a clean no-op result.
//
// The dedup claim, the XP add, the points credit and the ledger row
// commit in one transaction: a failed payout rolls the claim back, so
// the action stays grantable instead of being burned with nothing paid.
func (s *RewardService) Grant(ctx context.Context, userID int64, reason RewardReason, actionTarget string) (*domain.RewardResult, error) {
	spec, ok := rewardTable[reason]
	if !ok {
		return nil, ErrUnknownReason
	}

	prevRank, prevXP, err := s.progression.RankOf(ctx, userID)
	if err != nil {
		return nil, err
	}

	mult, err := s.boosters.EffectiveMultiplier(ctx, userID)
	if err != nil {
		mult = 1
	}
	awarded := economy.BoostedAmount(spec.Points, mult)

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if spec.OneTime {
		actionID := string(reason) + ":" + actionTarget
		first, err := s.actionRepo.TryCreditWithTx(ctx, tx, userID, actionID)
		if err != nil {
			return nil, err
		}
		if !first {
			balance, err := s.ledger.GetBalance(ctx, userID, domain.CurrencyPoints)
			if err != nil {
				return nil, err
			}
			return &domain.RewardResult{
				Success: false, Multiplier: 1, NewBalance: balance,
				XP: prevXP, Rank: &prevRank,
			}, nil
		}
	}

	newXP := prevXP
	if spec.XP > 0 {
		newXP, err = s.userRepo.AddXPWithTx(ctx, tx, userID, spec.XP)
		if err != nil {
			return nil, err
		}
	}

	var newBalance int64
	if awarded > 0 {
		newBalance, err = s.userRepo.CreditWithTx(ctx, tx, userID, domain.CurrencyPoints, awarded)
		if err != nil {
			return nil, err
		}
		entry := &domain.Transaction{
			UserID:   userID,
			Type:     "reward",
			Currency: domain.CurrencyPoints,
			Amount:   awarded,
			Meta:     map[string]interface{}{"reason": string(reason), "multiplier": mult},
		}
		if err := s.txRepo.CreateWithTx(ctx, tx, entry); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	if awarded == 0 {
		newBalance, err = s.ledger.GetBalance(ctx, userID, domain.CurrencyPoints)
		if err != nil {
			return nil, err
		}
	}

	rewardsTotal.Inc()

	newRank, err := s.progression.Rank(ctx, newXP)
	if err != nil {
		return nil, err
	}
	rankedUp := newRank.MinXP > prevRank.MinXP && newXP > prevXP

	s.notifier.Notify(userID, "balance_changed", map[string]interface{}{
		"currency": domain.CurrencyPoints, "new_balance": newBalance, "awarded": awarded,
	})
	if rankedUp {
		s.notifier.Notify(userID, "rank_up", map[string]interface{}{
			"rank": newRank.Name, "min_xp": newRank.MinXP,
		})
	}

	return &domain.RewardResult{
		Success:    true,
		Awarded:    awarded,
		Multiplier: mult,
		NewBalance: newBalance,
		XP:         newXP,
		Rank:       &newRank,
		RankedUp:   rankedUp,
	}, nil
}
