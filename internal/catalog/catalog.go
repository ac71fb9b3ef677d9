package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"portfolio_economy/internal/domain"
	"portfolio_economy/internal/economy"
)

var ErrUnknownItem = errors.New("unknown catalog item")

// Source supplies catalog data, usually backed by the database.
type Source interface {
	ListItems(ctx context.Context) ([]domain.CatalogItem, error)
	ListRankThresholds(ctx context.Context) ([]domain.RankThreshold, error)
}

// Cache is a process-wide snapshot of the catalog and rank table.
// Changes are rare admin edits; admin handlers call Invalidate after a
// write and the next read reloads and re-validates the snapshot.
type Cache struct {
	mu     sync.RWMutex
	source Source

	items      map[string]domain.CatalogItem
	thresholds []domain.RankThreshold
	loaded     bool
}

func New(source Source) *Cache {
	return &Cache{source: source}
}

// Load fetches and validates a fresh snapshot, replacing the cached one.
func (c *Cache) Load(ctx context.Context) error {
	items, err := c.source.ListItems(ctx)
	if err != nil {
		return err
	}
	if err := ValidateItems(items); err != nil {
		return err
	}

	thresholds, err := c.source.ListRankThresholds(ctx)
	if err != nil {
		return err
	}
	sort.Slice(thresholds, func(i, j int) bool { return thresholds[i].MinXP < thresholds[j].MinXP })
	if err := economy.ValidateThresholds(thresholds); err != nil {
		return err
	}

	byID := make(map[string]domain.CatalogItem, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}

	c.mu.Lock()
	c.items = byID
	c.thresholds = thresholds
	c.loaded = true
	c.mu.Unlock()
	return nil
}

// Invalidate drops the snapshot; the next read reloads from the source.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.loaded = false
	c.mu.Unlock()
}

func (c *Cache) ensure(ctx context.Context) error {
	c.mu.RLock()
	ok := c.loaded
	c.mu.RUnlock()
	if ok {
		return nil
	}
	return c.Load(ctx)
}

// Item returns one catalog item by ID.
func (c *Cache) Item(ctx context.Context, id string) (domain.CatalogItem, error) {
	if err := c.ensure(ctx); err != nil {
		return domain.CatalogItem{}, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	it, ok := c.items[id]
	if !ok {
		return domain.CatalogItem{}, ErrUnknownItem
	}
	return it, nil
}

// Items returns the full item list, sorted by ID for stable output.
func (c *Cache) Items(ctx context.Context) ([]domain.CatalogItem, error) {
	if err := c.ensure(ctx); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.CatalogItem, 0, len(c.items))
	for _, it := range c.items {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// RankThresholds returns the rank table sorted by MinXP ascending.
func (c *Cache) RankThresholds(ctx context.Context) ([]domain.RankThreshold, error) {
	if err := c.ensure(ctx); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.RankThreshold, len(c.thresholds))
	copy(out, c.thresholds)
	return out, nil
}

// ValidateItems rejects catalog rows that would break pricing:
// non-positive base prices, growth rates below 1, unknown currencies,
// and booster items without an effect payload.
func ValidateItems(items []domain.CatalogItem) error {
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		if it.ID == "" {
			return errors.New("catalog item with empty id")
		}
		if _, dup := seen[it.ID]; dup {
			return fmt.Errorf("duplicate catalog item %q", it.ID)
		}
		seen[it.ID] = struct{}{}

		if it.BasePrice <= 0 {
			return fmt.Errorf("item %q: base price must be positive", it.ID)
		}
		if !it.Currency.Valid() {
			return fmt.Errorf("item %q: unknown currency %q", it.ID, it.Currency)
		}
		if it.GrowthRate < 1 {
			return fmt.Errorf("item %q: growth rate %v below 1", it.ID, it.GrowthRate)
		}
		if it.ScalingFamily != "" && !it.Stackable {
			return fmt.Errorf("item %q: scaling family on a non-stackable item", it.ID)
		}
		if it.Category == domain.CategoryBooster {
			if it.BoosterEffectID == "" || it.BoosterMult <= 1 || it.BoosterSeconds <= 0 {
				return fmt.Errorf("item %q: incomplete booster payload", it.ID)
			}
		}
	}
	return nil
}
