package main

import (
	"context"
	"log"
	"os"

	"portfolio_economy/internal/domain"
	"portfolio_economy/internal/repository"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Default catalog and rank table for a fresh install. Re-running is
// safe: every row is upserted.

var items = []domain.CatalogItem{
	// Aquarium fish (pearls, compounding within the fish family)
	{ID: "fish_guppy", Name: "Guppy", BasePrice: 50, Currency: domain.CurrencyPearls, Category: domain.CategoryFish, ScalingFamily: "fish", GrowthRate: 1.15, Stackable: true},
	{ID: "fish_tetra", Name: "Neon Tetra", BasePrice: 80, Currency: domain.CurrencyPearls, Category: domain.CategoryFish, ScalingFamily: "fish", GrowthRate: 1.15, Stackable: true},
	{ID: "fish_angelfish", Name: "Angelfish", BasePrice: 200, Currency: domain.CurrencyPearls, Category: domain.CategoryFish, ScalingFamily: "fish", GrowthRate: 1.2, Stackable: true},

	// Aquarium decor (pearls, flat price)
	{ID: "decor_castle", Name: "Sunken Castle", BasePrice: 300, Currency: domain.CurrencyPearls, Category: domain.CategoryDecor, GrowthRate: 1, Stackable: true},
	{ID: "decor_kelp", Name: "Kelp Forest", BasePrice: 120, Currency: domain.CurrencyPearls, Category: domain.CategoryDecor, GrowthRate: 1, Stackable: true},

	// Shop boosters (points)
	{ID: "booster_2x_1h", Name: "Double Rewards (1h)", BasePrice: 500, Currency: domain.CurrencyPoints, Category: domain.CategoryBooster, GrowthRate: 1, Stackable: true, BoosterEffectID: "reward_2x", BoosterMult: 2, BoosterSeconds: 3600},
	{ID: "booster_1_5x_4h", Name: "Reward Surge (4h)", BasePrice: 800, Currency: domain.CurrencyPoints, Category: domain.CategoryBooster, GrowthRate: 1, Stackable: true, BoosterEffectID: "reward_1_5x", BoosterMult: 1.5, BoosterSeconds: 14400},

	// One-off cosmetics (points, own at most once)
	{ID: "cosmetic_gold_frame", Name: "Gold Profile Frame", BasePrice: 1500, Currency: domain.CurrencyPoints, Category: domain.CategoryCosmetic, GrowthRate: 1, Stackable: false},
	{ID: "cosmetic_neon_theme", Name: "Neon Theme", BasePrice: 1000, Currency: domain.CurrencyPoints, Category: domain.CategoryCosmetic, GrowthRate: 1, Stackable: false},
}

var ranks = []domain.RankThreshold{
	{MinXP: 0, Name: "Wanderer", Description: "Just passing through"},
	{MinXP: 100, Name: "Initiate", Description: "Getting the hang of it"},
	{MinXP: 300, Name: "Apprentice", Description: "A regular around here"},
	{MinXP: 800, Name: "Keeper", Description: "The aquarium thrives"},
	{MinXP: 2000, Name: "Curator", Description: "A pillar of the community"},
}

func main() {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL not set")
	}

	db, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	repo := repository.NewCatalogRepository(db)
	ctx := context.Background()

	for i := range items {
		if err := repo.UpsertItem(ctx, &items[i]); err != nil {
			log.Fatalf("seed item %s: %v", items[i].ID, err)
		}
		log.Printf("seeded item %s", items[i].ID)
	}

	for i := range ranks {
		if err := repo.UpsertRankThreshold(ctx, &ranks[i]); err != nil {
			log.Fatalf("seed rank %s: %v", ranks[i].Name, err)
		}
		log.Printf("seeded rank %s (min_xp=%d)", ranks[i].Name, ranks[i].MinXP)
	}
}
