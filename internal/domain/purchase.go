package domain

import "time"

// PurchaseState tracks a purchase through its lifecycle. The charge and
// the grant are separate writes, so a crash in between leaves a durable
// "charged" row that the reconciler refunds later.
type PurchaseState string

const (
	PurchaseInitiated  PurchaseState = "initiated"
	PurchaseCharged    PurchaseState = "charged"
	PurchaseComplete   PurchaseState = "complete"
	PurchaseRejected   PurchaseState = "rejected"
	PurchaseRolledBack PurchaseState = "rolled_back"
	// Orphaned marks a charge whose grant AND compensating refund both
	// failed; it is never dropped silently and waits for reconciliation.
	PurchaseOrphaned PurchaseState = "orphaned"
)

// Purchase is the persisted record of one purchase attempt.
type Purchase struct {
	ID        int64         `db:"id" json:"id"`
	UserID    int64         `db:"user_id" json:"user_id"`
	ItemID    string        `db:"item_id" json:"item_id"`
	Price     int64         `db:"price" json:"price"`
	Currency  Currency      `db:"currency" json:"currency"`
	State     PurchaseState `db:"state" json:"state"`
	CreatedAt time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt time.Time     `db:"updated_at" json:"updated_at"`
}

// PurchaseResult is returned to the caller of a purchase operation.
type PurchaseResult struct {
	Success    bool           `json:"success"`
	NewBalance int64          `json:"new_balance"`
	Item       *CatalogItem   `json:"item,omitempty"`
	Quantity   int64          `json:"quantity,omitempty"`
	NewRank    *RankThreshold `json:"new_rank,omitempty"`
}

// RewardResult is returned to the caller of a reward grant.
type RewardResult struct {
	Success    bool           `json:"success"`
	Awarded    int64          `json:"awarded"`
	Multiplier float64        `json:"multiplier"`
	NewBalance int64          `json:"new_balance"`
	XP         int64          `json:"xp"`
	Rank       *RankThreshold `json:"rank,omitempty"`
	RankedUp   bool           `json:"ranked_up"`
}
