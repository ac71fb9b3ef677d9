package catalog

import (
	"context"
	"errors"
	"testing"

	"portfolio_economy/internal/domain"
)

type fakeSource struct {
	items      []domain.CatalogItem
	thresholds []domain.RankThreshold
	loads      int
	err        error
}

func (f *fakeSource) ListItems(_ context.Context) ([]domain.CatalogItem, error) {
	f.loads++
	return f.items, f.err
}

func (f *fakeSource) ListRankThresholds(_ context.Context) ([]domain.RankThreshold, error) {
	return f.thresholds, nil
}

func validSource() *fakeSource {
	return &fakeSource{
		items: []domain.CatalogItem{
			{ID: "fish_guppy", Name: "Guppy", BasePrice: 100, Currency: domain.CurrencyPearls,
				Category: domain.CategoryFish, ScalingFamily: "guppy", GrowthRate: 1.15, Stackable: true},
			{ID: "theme_dark", Name: "Dark Theme", BasePrice: 500, Currency: domain.CurrencyPoints,
				Category: domain.CategoryCosmetic, GrowthRate: 1},
		},
		thresholds: []domain.RankThreshold{
			{MinXP: 100, Name: "Initiate"},
			{MinXP: 0, Name: "Wanderer"},
		},
	}
}

func TestCacheLoadAndLookup(t *testing.T) {
	src := validSource()
	c := New(src)

	it, err := c.Item(context.Background(), "fish_guppy")
	if err != nil {
		t.Fatalf("Item error: %v", err)
	}
	if it.BasePrice != 100 {
		t.Fatalf("unexpected item %+v", it)
	}

	if _, err := c.Item(context.Background(), "nope"); !errors.Is(err, ErrUnknownItem) {
		t.Fatalf("unknown item: got %v; want ErrUnknownItem", err)
	}

	// thresholds come back sorted regardless of source order
	ths, err := c.RankThresholds(context.Background())
	if err != nil {
		t.Fatalf("RankThresholds error: %v", err)
	}
	if ths[0].Name != "Wanderer" || ths[1].Name != "Initiate" {
		t.Fatalf("thresholds not sorted: %v", ths)
	}
}

func TestCacheReadsAreCachedUntilInvalidate(t *testing.T) {
	src := validSource()
	c := New(src)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := c.Items(ctx); err != nil {
			t.Fatalf("Items error: %v", err)
		}
	}
	if src.loads != 1 {
		t.Fatalf("expected 1 source load, got %d", src.loads)
	}

	c.Invalidate()
	if _, err := c.Items(ctx); err != nil {
		t.Fatalf("Items after invalidate: %v", err)
	}
	if src.loads != 2 {
		t.Fatalf("expected reload after Invalidate, got %d loads", src.loads)
	}
}

func TestValidateItems(t *testing.T) {
	bad := []struct {
		name string
		item domain.CatalogItem
	}{
		{"zero price", domain.CatalogItem{ID: "a", BasePrice: 0, Currency: domain.CurrencyPoints, GrowthRate: 1}},
		{"bad currency", domain.CatalogItem{ID: "a", BasePrice: 10, Currency: "gold", GrowthRate: 1}},
		{"growth below 1", domain.CatalogItem{ID: "a", BasePrice: 10, Currency: domain.CurrencyPoints, GrowthRate: 0.9}},
		{"family without stackable", domain.CatalogItem{ID: "a", BasePrice: 10, Currency: domain.CurrencyPoints, GrowthRate: 1.1, ScalingFamily: "f"}},
		{"booster without payload", domain.CatalogItem{ID: "a", BasePrice: 10, Currency: domain.CurrencyPoints, GrowthRate: 1, Category: domain.CategoryBooster}},
	}

	for _, tc := range bad {
		if err := ValidateItems([]domain.CatalogItem{tc.item}); err == nil {
			t.Fatalf("%s: invalid item accepted", tc.name)
		}
	}

	if err := ValidateItems(validSource().items); err != nil {
		t.Fatalf("valid items rejected: %v", err)
	}

	dup := validSource().items
	dup = append(dup, dup[0])
	if err := ValidateItems(dup); err == nil {
		t.Fatalf("duplicate ids accepted")
	}
}
