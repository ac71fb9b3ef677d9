package repository

import (
	"context"

	"portfolio_economy/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

// CatalogRepository reads and writes the catalog tables. Reads normally
// go through the catalog cache; writes come from admin handlers, which
// invalidate the cache afterwards.
type CatalogRepository struct {
	db *pgxpool.Pool
}

func NewCatalogRepository(db *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) ListItems(ctx context.Context) ([]domain.CatalogItem, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, name, base_price, currency, category,
		        COALESCE(scaling_family, ''), growth_rate, stackable,
		        COALESCE(booster_effect_id, ''), COALESCE(booster_mult, 0), COALESCE(booster_seconds, 0)
		 FROM catalog_items
		 ORDER BY id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.CatalogItem
	for rows.Next() {
		var it domain.CatalogItem
		if err := rows.Scan(&it.ID, &it.Name, &it.BasePrice, &it.Currency, &it.Category,
			&it.ScalingFamily, &it.GrowthRate, &it.Stackable,
			&it.BoosterEffectID, &it.BoosterMult, &it.BoosterSeconds); err != nil {
			return nil, err
		}
		res = append(res, it)
	}
	return res, rows.Err()
}

func (r *CatalogRepository) ListRankThresholds(ctx context.Context) ([]domain.RankThreshold, error) {
	rows, err := r.db.Query(ctx,
		`SELECT min_xp, name, COALESCE(description, '')
		 FROM rank_thresholds
		 ORDER BY min_xp ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.RankThreshold
	for rows.Next() {
		var t domain.RankThreshold
		if err := rows.Scan(&t.MinXP, &t.Name, &t.Description); err != nil {
			return nil, err
		}
		res = append(res, t)
	}
	return res, rows.Err()
}

// UpsertItem creates or replaces a catalog item.
func (r *CatalogRepository) UpsertItem(ctx context.Context, it *domain.CatalogItem) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO catalog_items
		   (id, name, base_price, currency, category, scaling_family, growth_rate, stackable,
		    booster_effect_id, booster_mult, booster_seconds)
		 VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8, NULLIF($9, ''), $10, $11)
		 ON CONFLICT (id) DO UPDATE SET
		   name = $2, base_price = $3, currency = $4, category = $5,
		   scaling_family = NULLIF($6, ''), growth_rate = $7, stackable = $8,
		   booster_effect_id = NULLIF($9, ''), booster_mult = $10, booster_seconds = $11`,
		it.ID, it.Name, it.BasePrice, it.Currency, it.Category, it.ScalingFamily,
		it.GrowthRate, it.Stackable, it.BoosterEffectID, it.BoosterMult, it.BoosterSeconds,
	)
	return err
}

// DeleteItem removes a catalog item. Owned copies are kept.
func (r *CatalogRepository) DeleteItem(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM catalog_items WHERE id = $1`, id)
	return err
}

// UpsertRankThreshold creates or replaces one rank table row.
func (r *CatalogRepository) UpsertRankThreshold(ctx context.Context, t *domain.RankThreshold) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO rank_thresholds (min_xp, name, description)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (min_xp) DO UPDATE SET name = $2, description = $3`,
		t.MinXP, t.Name, t.Description,
	)
	return err
}

// DeleteRankThreshold removes a rank table row. The min_xp = 0 row is
// protected; deleting it would leave low-XP users without a rank.
func (r *CatalogRepository) DeleteRankThreshold(ctx context.Context, minXP int64) error {
	_, err := r.db.Exec(ctx,
		`DELETE FROM rank_thresholds WHERE min_xp = $1 AND min_xp <> 0`,
		minXP,
	)
	return err
}
