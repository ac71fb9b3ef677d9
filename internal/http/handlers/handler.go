package handlers

import (
	"portfolio_economy/internal/catalog"
	"portfolio_economy/internal/repository"
	"portfolio_economy/internal/service"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Handler struct {
	DB          *pgxpool.Pool
	Catalog     *catalog.Cache
	UserRepo    *repository.UserRepository
	ItemRepo    *repository.ItemRepository
	Ledger      *service.LedgerService
	Progression *service.ProgressionService
	Boosters    *service.BoosterService
	Purchases   *service.PurchaseService
	Rewards     *service.RewardService

	// Starting balances for accounts created on first auth
	InitialPoints int64
	InitialPearls int64
}

func NewHandler(db *pgxpool.Pool) *Handler {
	cat := catalog.New(repository.NewCatalogRepository(db))
	ledger := service.NewLedgerService(db)
	progression := service.NewProgressionService(db, cat)
	boosters := service.NewBoosterService(db)
	purchases := service.NewPurchaseService(db, cat, boosters, progression)
	rewards := service.NewRewardService(db, ledger, progression, boosters)

	return &Handler{
		DB:          db,
		Catalog:     cat,
		UserRepo:    repository.NewUserRepository(db),
		ItemRepo:    repository.NewItemRepository(db),
		Ledger:      ledger,
		Progression: progression,
		Boosters:    boosters,
		Purchases:   purchases,
		Rewards:     rewards,
	}
}

// getUserID extracts the authenticated user ID from the gin context.
func getUserID(c interface{ Get(string) (any, bool) }) (int64, bool) {
	uidVal, ok := c.Get("user_id")
	if !ok {
		return 0, false
	}
	switch v := uidVal.(type) {
	case int64:
		return v, true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}
