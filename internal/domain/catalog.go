package domain

import "time"

// ItemCategory groups catalog items for display and filtering.
type ItemCategory string

const (
	CategoryShop     ItemCategory = "shop"
	CategoryFish     ItemCategory = "fish"
	CategoryDecor    ItemCategory = "decor"
	CategoryBooster  ItemCategory = "booster"
	CategoryCosmetic ItemCategory = "cosmetic"
)

// CatalogItem is a purchasable entry of the shop or aquarium catalog.
// Items sharing a ScalingFamily share one compounding price curve: the
// price of the next unit grows by GrowthRate for every unit the buyer
// already owns within that family.
type CatalogItem struct {
	ID            string       `db:"id" json:"id"`
	Name          string       `db:"name" json:"name"`
	BasePrice     int64        `db:"base_price" json:"base_price"`
	Currency      Currency     `db:"currency" json:"currency"`
	Category      ItemCategory `db:"category" json:"category"`
	ScalingFamily string       `db:"scaling_family" json:"scaling_family,omitempty"`
	GrowthRate    float64      `db:"growth_rate" json:"growth_rate"`
	// Stackable items may be bought repeatedly (fish, decor); a
	// non-stackable item can be owned at most once.
	Stackable bool `db:"stackable" json:"stackable"`
	// Booster payload, set only for CategoryBooster items.
	BoosterEffectID string  `db:"booster_effect_id" json:"booster_effect_id,omitempty"`
	BoosterMult     float64 `db:"booster_mult" json:"booster_mult,omitempty"`
	BoosterSeconds  int64   `db:"booster_seconds" json:"booster_seconds,omitempty"`
}

// RankThreshold is one row of the rank table, ordered by MinXP ascending.
type RankThreshold struct {
	MinXP       int64  `db:"min_xp" json:"min_xp"`
	Name        string `db:"name" json:"name"`
	Description string `db:"description" json:"description,omitempty"`
}

// OwnedItem records a user's ownership of a catalog item. Quantity is
// used for stackable items and stays 1 for non-stackable ones.
type OwnedItem struct {
	UserID     int64     `db:"user_id" json:"user_id"`
	ItemID     string    `db:"item_id" json:"item_id"`
	Quantity   int64     `db:"quantity" json:"quantity"`
	AcquiredAt time.Time `db:"acquired_at" json:"acquired_at"`
}
