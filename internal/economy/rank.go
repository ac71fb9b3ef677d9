package economy

import (
	"errors"
	"sort"

	"portfolio_economy/internal/domain"
)

var ErrNoRankConfigured = errors.New("no rank thresholds configured")

// ResolveRank returns the highest threshold whose MinXP <= xp.
// thresholds must be sorted by MinXP ascending and contain a MinXP = 0
// entry; an empty table is a seeding error and fails loudly rather
// than defaulting to "no rank".
func ResolveRank(thresholds []domain.RankThreshold, xp int64) (domain.RankThreshold, error) {
	if len(thresholds) == 0 {
		return domain.RankThreshold{}, ErrNoRankConfigured
	}

	// First threshold strictly above xp; the entry before it applies.
	i := sort.Search(len(thresholds), func(i int) bool {
		return thresholds[i].MinXP > xp
	})
	if i == 0 {
		// xp below the lowest threshold; only possible if the MinXP = 0
		// invariant is broken, fall back to the lowest entry.
		return thresholds[0], nil
	}
	return thresholds[i-1], nil
}

// NextRank returns the next threshold above xp, or nil at the top rank.
func NextRank(thresholds []domain.RankThreshold, xp int64) *domain.RankThreshold {
	i := sort.Search(len(thresholds), func(i int) bool {
		return thresholds[i].MinXP > xp
	})
	if i >= len(thresholds) {
		return nil
	}
	next := thresholds[i]
	return &next
}

// ValidateThresholds checks the rank table invariants: non-empty,
// sorted ascending, unique MinXP values, and a MinXP = 0 entry so every
// XP value resolves to exactly one rank.
func ValidateThresholds(thresholds []domain.RankThreshold) error {
	if len(thresholds) == 0 {
		return ErrNoRankConfigured
	}
	if thresholds[0].MinXP != 0 {
		return errors.New("rank table must start at min_xp 0")
	}
	for i := 1; i < len(thresholds); i++ {
		if thresholds[i].MinXP <= thresholds[i-1].MinXP {
			return errors.New("rank thresholds must be strictly ascending")
		}
	}
	return nil
}
