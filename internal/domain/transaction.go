package domain

import "time"

// Transaction is one row of the balance audit ledger. Every successful
// credit or debit writes exactly one row in the same database transaction.
type Transaction struct {
	ID        int64                  `db:"id" json:"id"`
	UserID    int64                  `db:"user_id" json:"user_id"`
	Type      string                 `db:"type" json:"type"`
	Currency  Currency               `db:"currency" json:"currency"`
	Amount    int64                  `db:"amount" json:"amount"`
	Meta      map[string]interface{} `db:"meta" json:"meta,omitempty"`
	CreatedAt time.Time              `db:"created_at" json:"created_at"`
}
