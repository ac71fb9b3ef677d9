package economy

import (
	"time"

	"portfolio_economy/internal/domain"
)

// Booster stacking policy:
//
//   - Reapplying the same effect extends it: the new expiry is
//     max(existing expiry, now) + duration, so remaining time is never
//     lost and an expired row restarts from now. The multiplier is
//     replaced by the newly applied value.
//   - Distinct simultaneous effects combine multiplicatively.
//
// Expiry is lazy: expired rows stay in storage until the next write
// prunes them, and every read filters on the clock instead.

// ExtendExpiry computes the expiry for an applied effect, given the
// current expiry of an existing row (zero time when none).
func ExtendExpiry(existing time.Time, now time.Time, duration time.Duration) time.Time {
	base := now
	if existing.After(now) {
		base = existing
	}
	return base.Add(duration)
}

// EffectiveMultiplier returns the product of all multipliers active at
// `now`, defaulting to 1 when none apply.
func EffectiveMultiplier(boosters []domain.Booster, now time.Time) float64 {
	mult := 1.0
	for i := range boosters {
		if boosters[i].Active(now) {
			mult *= boosters[i].Multiplier
		}
	}
	return mult
}

// ActiveBoosters filters out entries already expired at `now`.
func ActiveBoosters(boosters []domain.Booster, now time.Time) []domain.Booster {
	var out []domain.Booster
	for i := range boosters {
		if boosters[i].Active(now) {
			out = append(out, boosters[i])
		}
	}
	return out
}

// BoostedAmount applies a multiplier to a base reward, rounding half-up.
func BoostedAmount(base int64, multiplier float64) int64 {
	if multiplier == 1 || base == 0 {
		return base
	}
	raw := float64(base) * multiplier
	if raw < 0 {
		return base
	}
	return int64(raw + 0.5)
}
