package domain

import "time"

type User struct {
	ID        int64     `db:"id" json:"id"`
	Username  string    `db:"username" json:"username"`
	Points    int64     `db:"points" json:"points"`
	Pearls    int64     `db:"pearls" json:"pearls"`
	XP        int64     `db:"xp" json:"xp"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Currency names a balance column on the users table.
type Currency string

const (
	CurrencyPoints Currency = "points"
	CurrencyPearls Currency = "pearls"
)

// Valid reports whether c is a known currency.
func (c Currency) Valid() bool {
	return c == CurrencyPoints || c == CurrencyPearls
}
