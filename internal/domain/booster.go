package domain

import "time"

// Booster is a time-bounded reward multiplier. A user holds at most one
// row per EffectID; reapplying the same effect extends the expiry.
type Booster struct {
	ID         int64     `db:"id" json:"id"`
	UserID     int64     `db:"user_id" json:"user_id"`
	EffectID   string    `db:"effect_id" json:"effect_id"`
	Multiplier float64   `db:"multiplier" json:"multiplier"`
	ExpiresAt  time.Time `db:"expires_at" json:"expires_at"`
}

// Active reports whether the booster still applies at the given instant.
// Expiry is inclusive: a booster is inert from exactly ExpiresAt onward.
func (b *Booster) Active(now time.Time) bool {
	return now.Before(b.ExpiresAt)
}
