package integration

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"portfolio_economy/internal/catalog"
	"portfolio_economy/internal/domain"
	"portfolio_economy/internal/repository"
	"portfolio_economy/internal/service"

	"github.com/jackc/pgx/v5/pgxpool"
)

func applyMigrations(t *testing.T, db *pgxpool.Pool) {
	t.Helper()
	migDir := filepath.Join("..", "..", "internal", "migrations")
	files, err := os.ReadDir(migDir)
	if err != nil {
		t.Fatalf("read migrations: %v", err)
	}
	for _, f := range files {
		b, err := os.ReadFile(filepath.Join(migDir, f.Name()))
		if err != nil {
			t.Fatalf("read file: %v", err)
		}
		if _, err := db.Exec(context.Background(), string(b)); err != nil {
			t.Fatalf("apply migration %s: %v", f.Name(), err)
		}
	}
}

func setupDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}

	db, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(db.Close)

	applyMigrations(t, db)

	_, err = db.Exec(context.Background(),
		`TRUNCATE users, catalog_items, rank_thresholds, owned_items,
		 boosters, credited_actions, purchases, transactions CASCADE`)
	if err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return db
}

func seedCatalog(t *testing.T, db *pgxpool.Pool) {
	t.Helper()
	repo := repository.NewCatalogRepository(db)
	ctx := context.Background()

	items := []domain.CatalogItem{
		{ID: "fish_guppy", Name: "Guppy", BasePrice: 100, Currency: domain.CurrencyPearls,
			Category: domain.CategoryFish, ScalingFamily: "fish", GrowthRate: 1.15, Stackable: true},
		{ID: "cosmetic_frame", Name: "Frame", BasePrice: 50, Currency: domain.CurrencyPoints,
			Category: domain.CategoryCosmetic, GrowthRate: 1, Stackable: false},
		{ID: "booster_2x", Name: "Double Rewards", BasePrice: 200, Currency: domain.CurrencyPoints,
			Category: domain.CategoryBooster, GrowthRate: 1, Stackable: true,
			BoosterEffectID: "reward_2x", BoosterMult: 2, BoosterSeconds: 3600},
	}
	for i := range items {
		if err := repo.UpsertItem(ctx, &items[i]); err != nil {
			t.Fatalf("seed item %s: %v", items[i].ID, err)
		}
	}

	ranks := []domain.RankThreshold{
		{MinXP: 0, Name: "Wanderer"},
		{MinXP: 100, Name: "Initiate"},
		{MinXP: 300, Name: "Apprentice"},
	}
	for i := range ranks {
		if err := repo.UpsertRankThreshold(ctx, &ranks[i]); err != nil {
			t.Fatalf("seed rank %s: %v", ranks[i].Name, err)
		}
	}
}

func createUser(t *testing.T, db *pgxpool.Pool, username string, points, pearls int64) int64 {
	t.Helper()
	u := &domain.User{Username: username}
	if err := repository.NewUserRepository(db).Create(context.Background(), u, points, pearls); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u.ID
}

func TestLedgerDebitCredit(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	uid := createUser(t, db, "alice", 100, 0)
	ledger := service.NewLedgerService(db)

	bal, err := ledger.Credit(ctx, uid, domain.CurrencyPoints, 50, "reward", nil)
	if err != nil {
		t.Fatalf("credit: %v", err)
	}
	if bal != 150 {
		t.Fatalf("expected balance 150, got %d", bal)
	}

	bal, err = ledger.Debit(ctx, uid, domain.CurrencyPoints, 120, "purchase", nil)
	if err != nil {
		t.Fatalf("debit: %v", err)
	}
	if bal != 30 {
		t.Fatalf("expected balance 30, got %d", bal)
	}

	// overdraft must fail atomically and leave the balance alone
	if _, err := ledger.Debit(ctx, uid, domain.CurrencyPoints, 31, "purchase", nil); !errors.Is(err, service.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	bal, err = ledger.GetBalance(ctx, uid, domain.CurrencyPoints)
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}
	if bal != 30 {
		t.Fatalf("balance changed on failed debit: %d", bal)
	}

	history, err := ledger.GetHistory(ctx, uid, 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 ledger entries, got %d", len(history))
	}
}

func TestPurchaseCompoundingPrices(t *testing.T) {
	db := setupDB(t)
	seedCatalog(t, db)
	ctx := context.Background()

	uid := createUser(t, db, "bob", 0, 1000)

	cat := catalog.New(repository.NewCatalogRepository(db))
	boosters := service.NewBoosterService(db)
	progression := service.NewProgressionService(db, cat)
	purchases := service.NewPurchaseService(db, cat, boosters, progression)

	// first unit at base price
	res, err := purchases.Purchase(ctx, uid, "fish_guppy")
	if err != nil {
		t.Fatalf("first purchase: %v", err)
	}
	if !res.Success || res.NewBalance != 900 {
		t.Fatalf("first purchase: success=%v balance=%d", res.Success, res.NewBalance)
	}

	// second unit costs base * 1.15 = 115
	res, err = purchases.Purchase(ctx, uid, "fish_guppy")
	if err != nil {
		t.Fatalf("second purchase: %v", err)
	}
	if res.NewBalance != 785 {
		t.Fatalf("expected balance 785 after compounded price, got %d", res.NewBalance)
	}
	if res.Quantity != 2 {
		t.Fatalf("expected quantity 2, got %d", res.Quantity)
	}

	rows, err := repository.NewPurchaseRepository(db).GetByUserID(ctx, uid, 10)
	if err != nil {
		t.Fatalf("list purchases: %v", err)
	}
	for _, p := range rows {
		if p.State != domain.PurchaseComplete {
			t.Fatalf("purchase %d left in state %s", p.ID, p.State)
		}
	}
}

func TestPurchaseInsufficientFunds(t *testing.T) {
	db := setupDB(t)
	seedCatalog(t, db)
	ctx := context.Background()

	uid := createUser(t, db, "carol", 0, 40)

	cat := catalog.New(repository.NewCatalogRepository(db))
	boosters := service.NewBoosterService(db)
	progression := service.NewProgressionService(db, cat)
	purchases := service.NewPurchaseService(db, cat, boosters, progression)

	if _, err := purchases.Purchase(ctx, uid, "fish_guppy"); !errors.Is(err, service.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}

	bal, err := service.NewLedgerService(db).GetBalance(ctx, uid, domain.CurrencyPearls)
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}
	if bal != 40 {
		t.Fatalf("balance touched by rejected purchase: %d", bal)
	}

	rows, err := repository.NewPurchaseRepository(db).GetByUserID(ctx, uid, 10)
	if err != nil {
		t.Fatalf("list purchases: %v", err)
	}
	if len(rows) != 1 || rows[0].State != domain.PurchaseRejected {
		t.Fatalf("expected one rejected purchase row, got %+v", rows)
	}
}

func TestPurchaseNonStackableOnlyOnce(t *testing.T) {
	db := setupDB(t)
	seedCatalog(t, db)
	ctx := context.Background()

	uid := createUser(t, db, "dave", 500, 0)

	cat := catalog.New(repository.NewCatalogRepository(db))
	boosters := service.NewBoosterService(db)
	progression := service.NewProgressionService(db, cat)
	purchases := service.NewPurchaseService(db, cat, boosters, progression)

	if _, err := purchases.Purchase(ctx, uid, "cosmetic_frame"); err != nil {
		t.Fatalf("first purchase: %v", err)
	}
	if _, err := purchases.Purchase(ctx, uid, "cosmetic_frame"); !errors.Is(err, service.ErrAlreadyOwned) {
		t.Fatalf("expected ErrAlreadyOwned, got %v", err)
	}

	bal, _ := service.NewLedgerService(db).GetBalance(ctx, uid, domain.CurrencyPoints)
	if bal != 450 {
		t.Fatalf("expected single charge of 50, balance %d", bal)
	}
}

func TestBoosterPurchaseScalesRewards(t *testing.T) {
	db := setupDB(t)
	seedCatalog(t, db)
	ctx := context.Background()

	uid := createUser(t, db, "erin", 500, 0)

	cat := catalog.New(repository.NewCatalogRepository(db))
	ledger := service.NewLedgerService(db)
	boosters := service.NewBoosterService(db)
	progression := service.NewProgressionService(db, cat)
	purchases := service.NewPurchaseService(db, cat, boosters, progression)
	rewards := service.NewRewardService(db, ledger, progression, boosters)

	if _, err := purchases.Purchase(ctx, uid, "booster_2x"); err != nil {
		t.Fatalf("buy booster: %v", err)
	}

	active, err := boosters.Active(ctx, uid)
	if err != nil {
		t.Fatalf("active boosters: %v", err)
	}
	if len(active) != 1 || active[0].Multiplier != 2 {
		t.Fatalf("expected one 2x booster, got %+v", active)
	}

	// daily visit pays 10 points base; the booster doubles it
	res, err := rewards.Grant(ctx, uid, service.ReasonDailyVisit, "")
	if err != nil {
		t.Fatalf("grant reward: %v", err)
	}
	if !res.Success || res.Awarded != 20 {
		t.Fatalf("expected 20 boosted points, got %+v", res)
	}
	if res.Multiplier != 2 {
		t.Fatalf("expected multiplier 2, got %v", res.Multiplier)
	}
}

func TestConcurrentDebitsNeverOverdraft(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	uid := createUser(t, db, "ivan", 500, 0)
	ledger := service.NewLedgerService(db)

	const workers = 10
	const amount = 100

	var wg sync.WaitGroup
	var successes, insufficient int64
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ledger.Debit(ctx, uid, domain.CurrencyPoints, amount, "purchase", nil)
			switch {
			case err == nil:
				atomic.AddInt64(&successes, 1)
			case errors.Is(err, service.ErrInsufficientFunds):
				atomic.AddInt64(&insufficient, 1)
			default:
				t.Errorf("unexpected debit error: %v", err)
			}
		}()
	}
	wg.Wait()

	bal, err := ledger.GetBalance(ctx, uid, domain.CurrencyPoints)
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}
	if bal < 0 {
		t.Fatalf("balance went negative: %d", bal)
	}
	if bal != 500-successes*amount {
		t.Fatalf("balance %d does not match %d successful debits", bal, successes)
	}
	if successes != 5 || insufficient != 5 {
		t.Fatalf("expected 5 successes and 5 rejections, got %d/%d", successes, insufficient)
	}
}

func TestBoosterReapplyExtendsExpiry(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	uid := createUser(t, db, "judy", 0, 0)
	boosters := service.NewBoosterService(db)

	first, err := boosters.Apply(ctx, uid, "reward_2x", 2, time.Hour)
	if err != nil {
		t.Fatalf("first apply: %v", err)
	}
	second, err := boosters.Apply(ctx, uid, "reward_2x", 3, time.Hour)
	if err != nil {
		t.Fatalf("second apply: %v", err)
	}

	// remaining time is kept: new expiry builds on the stored one
	gained := second.ExpiresAt.Sub(first.ExpiresAt)
	if gained < 59*time.Minute || gained > 61*time.Minute {
		t.Fatalf("reapply did not extend stored expiry, gained %v", gained)
	}
	if second.Multiplier != 3 {
		t.Fatalf("multiplier not replaced: %v", second.Multiplier)
	}
}

func TestBoosterApplyRollsBackWithGrant(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	uid := createUser(t, db, "kate", 0, 0)
	boosters := service.NewBoosterService(db)

	tx, err := db.Begin(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if _, err := boosters.ApplyWithTx(ctx, tx, uid, "reward_2x", 2, time.Hour); err != nil {
		t.Fatalf("apply in tx: %v", err)
	}
	if err := tx.Rollback(ctx); err != nil {
		t.Fatalf("rollback: %v", err)
	}

	active, err := boosters.Active(ctx, uid)
	if err != nil {
		t.Fatalf("active: %v", err)
	}
	if len(active) != 0 {
		t.Fatalf("effect survived a rolled-back grant: %+v", active)
	}
}

func TestOneTimeRewardPaysOncePerTarget(t *testing.T) {
	db := setupDB(t)
	seedCatalog(t, db)
	ctx := context.Background()

	uid := createUser(t, db, "frank", 0, 0)

	cat := catalog.New(repository.NewCatalogRepository(db))
	ledger := service.NewLedgerService(db)
	boosters := service.NewBoosterService(db)
	progression := service.NewProgressionService(db, cat)
	rewards := service.NewRewardService(db, ledger, progression, boosters)

	res, err := rewards.Grant(ctx, uid, service.ReasonGuestbookEntry, "entry:7")
	if err != nil {
		t.Fatalf("first grant: %v", err)
	}
	if !res.Success || res.Awarded != 15 {
		t.Fatalf("expected 15 points, got %+v", res)
	}

	// same target again is a no-op
	res, err = rewards.Grant(ctx, uid, service.ReasonGuestbookEntry, "entry:7")
	if err != nil {
		t.Fatalf("repeat grant: %v", err)
	}
	if res.Success || res.Awarded != 0 {
		t.Fatalf("repeat grant paid out: %+v", res)
	}

	// a different target pays again
	res, err = rewards.Grant(ctx, uid, service.ReasonGuestbookEntry, "entry:8")
	if err != nil {
		t.Fatalf("second target: %v", err)
	}
	if !res.Success {
		t.Fatalf("distinct target not paid: %+v", res)
	}
}

func TestOneTimeClaimRollsBackWithPayout(t *testing.T) {
	db := setupDB(t)
	seedCatalog(t, db)
	ctx := context.Background()

	uid := createUser(t, db, "mallory", 0, 0)

	// a claim whose surrounding transaction aborts must not stick
	tx, err := db.Begin(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	actions := repository.NewActionRepository(db)
	first, err := actions.TryCreditWithTx(ctx, tx, uid, "guestbook_entry:entry:9")
	if err != nil {
		t.Fatalf("try credit: %v", err)
	}
	if !first {
		t.Fatal("expected first claim to win")
	}
	if err := tx.Rollback(ctx); err != nil {
		t.Fatalf("rollback: %v", err)
	}

	// the aborted payout left the action unclaimed; a retry pays out
	cat := catalog.New(repository.NewCatalogRepository(db))
	ledger := service.NewLedgerService(db)
	boosters := service.NewBoosterService(db)
	progression := service.NewProgressionService(db, cat)
	rewards := service.NewRewardService(db, ledger, progression, boosters)

	res, err := rewards.Grant(ctx, uid, service.ReasonGuestbookEntry, "entry:9")
	if err != nil {
		t.Fatalf("grant after aborted claim: %v", err)
	}
	if !res.Success || res.Awarded != 15 {
		t.Fatalf("retry after aborted payout did not pay: %+v", res)
	}
}

func TestRankProgression(t *testing.T) {
	db := setupDB(t)
	seedCatalog(t, db)
	ctx := context.Background()

	uid := createUser(t, db, "grace", 0, 0)

	cat := catalog.New(repository.NewCatalogRepository(db))
	progression := service.NewProgressionService(db, cat)

	rank, _, err := progression.RankOf(ctx, uid)
	if err != nil {
		t.Fatalf("rank of: %v", err)
	}
	if rank.Name != "Wanderer" {
		t.Fatalf("expected starting rank Wanderer, got %s", rank.Name)
	}

	if _, err := progression.GrantXP(ctx, uid, 150, "test"); err != nil {
		t.Fatalf("grant xp: %v", err)
	}

	rank, xp, err := progression.RankOf(ctx, uid)
	if err != nil {
		t.Fatalf("rank of: %v", err)
	}
	if xp != 150 || rank.Name != "Initiate" {
		t.Fatalf("expected Initiate at 150 xp, got %s at %d", rank.Name, xp)
	}
}

func TestReconcilerRefundsStuckCharges(t *testing.T) {
	db := setupDB(t)
	seedCatalog(t, db)
	ctx := context.Background()

	uid := createUser(t, db, "heidi", 100, 0)

	// simulate a crash between charge and grant: charged row older than
	// the grace period, money already taken
	_, err := db.Exec(ctx,
		`UPDATE users SET points = points - 50 WHERE id = $1`, uid)
	if err != nil {
		t.Fatalf("simulate charge: %v", err)
	}
	_, err = db.Exec(ctx,
		`INSERT INTO purchases (user_id, item_id, price, currency, state, created_at, updated_at)
		 VALUES ($1, 'cosmetic_frame', 50, 'points', 'charged', now() - interval '1 hour', now() - interval '1 hour')`,
		uid)
	if err != nil {
		t.Fatalf("insert stuck purchase: %v", err)
	}

	reconciler := service.NewReconcileService(db, time.Minute, 5*time.Minute)
	n, err := reconciler.Sweep(ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 reconciled purchase, got %d", n)
	}

	bal, err := service.NewLedgerService(db).GetBalance(ctx, uid, domain.CurrencyPoints)
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}
	if bal != 100 {
		t.Fatalf("expected refund back to 100, got %d", bal)
	}

	rows, err := repository.NewPurchaseRepository(db).ListByState(ctx, domain.PurchaseRolledBack, 10)
	if err != nil {
		t.Fatalf("list rolled back: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 rolled_back purchase, got %d", len(rows))
	}

	// second sweep finds nothing
	n, err = reconciler.Sweep(ctx)
	if err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if n != 0 {
		t.Fatalf("second sweep reconciled %d rows", n)
	}
}
