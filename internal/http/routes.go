package http

import (
	"os"
	"strconv"
	"time"

	"portfolio_economy/internal/config"
	"portfolio_economy/internal/http/handlers"
	"portfolio_economy/internal/http/middleware"
	"portfolio_economy/internal/repository"
	"portfolio_economy/internal/service"
	"portfolio_economy/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

func RegisterRoutes(r *gin.Engine, db *pgxpool.Pool, version string, cfg *config.Config, reconciler *service.ReconcileService) *handlers.Handler {
	h := handlers.NewHandler(db)
	h.InitialPoints = cfg.InitialPoints
	h.InitialPearls = cfg.InitialPearls

	healthHandler := handlers.NewHealthHandler(db, version)

	// read limits from env, with safe defaults
	apiRateLimit := 30
	if v := os.Getenv("API_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			apiRateLimit = n
		}
	}
	apiRateWindow := time.Minute
	if v := os.Getenv("API_RATE_WINDOW_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			apiRateWindow = time.Duration(n) * time.Second
		}
	}

	authRateLimit := 5
	if v := os.Getenv("AUTH_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			authRateLimit = n
		}
	}
	authRateWindow := time.Minute
	if v := os.Getenv("AUTH_RATE_WINDOW_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			authRateWindow = time.Duration(n) * time.Second
		}
	}

	// Health checks (no rate limiting)
	r.GET("/health", healthHandler.Health)
	r.GET("/healthz", healthHandler.Liveness)
	r.GET("/readyz", healthHandler.Readiness)

	purchaseRL := middleware.PurchaseRateLimit(
		cfg.PurchaseRateLimit,
		time.Duration(cfg.PurchaseRateWindow)*time.Second,
	)

	v1 := r.Group("/api/v1")
	v1.Use(middleware.RedisRateLimit(apiRateLimit, apiRateWindow))

	// Auth
	v1.POST("/auth", middleware.RedisRateLimit(authRateLimit, authRateWindow), h.Auth)

	// Economy state
	v1.GET("/me", middleware.JWT(), h.MyEconomy)
	v1.GET("/me/transactions", middleware.JWT(), h.MyTransactions)
	v1.GET("/me/purchases", middleware.JWT(), h.MyPurchases)
	v1.GET("/me/boosters", middleware.JWT(), h.MyBoosters)

	// Catalog & purchases (listings personalize prices when signed in)
	v1.GET("/shop", middleware.OptionalJWT(), h.Shop)
	v1.GET("/aquarium", middleware.OptionalJWT(), h.Aquarium)
	v1.POST("/purchase", middleware.JWT(), purchaseRL, h.Purchase)

	// Progression
	v1.GET("/ranks", h.Ranks)
	v1.GET("/leaderboard", h.Leaderboard)
	v1.GET("/leaderboard/me", middleware.JWT(), h.MyLeaderboardPosition)
	v1.POST("/rewards", middleware.JWT(), h.EngagementReward)

	// Admin
	adminHandler := handlers.NewAdminHandler(
		repository.NewCatalogRepository(db),
		h.Catalog,
		h.Ledger,
		reconciler,
		repository.NewPurchaseRepository(db),
	)
	admin := v1.Group("/admin")
	admin.Use(middleware.JWT(), middleware.AdminOnly(cfg.IsAdmin))
	{
		admin.POST("/balance", adminHandler.AdjustBalance)
		admin.PUT("/items", adminHandler.UpsertItem)
		admin.DELETE("/items/:id", adminHandler.DeleteItem)
		admin.PUT("/ranks", adminHandler.UpsertRank)
		admin.DELETE("/ranks/:min_xp", adminHandler.DeleteRank)
		admin.GET("/orphans", adminHandler.Orphans)
		admin.POST("/reconcile", adminHandler.Reconcile)
	}

	// WebSocket event push
	hub := ws.NewHub()
	h.Purchases.SetNotifier(hub)
	h.Rewards.SetNotifier(hub)
	r.GET("/ws", ws.HandleWS(hub))

	return h
}
