package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"portfolio_economy/internal/logger"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort     string
	DatabaseURL string
	JWTSecret   string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// User IDs allowed to hit /api/v1/admin endpoints
	AdminUserIDs []int64

	// Purchase limits (per user)
	PurchaseRateLimit  int
	PurchaseRateWindow int

	// Reconciler settings for stuck purchases
	ReconcileInterval time.Duration
	ReconcileGrace    time.Duration

	// Starting balances for new accounts
	InitialPoints int64
	InitialPearls int64
}

// Load reads configuration from the environment (.env is honored when present).
func Load() *Config {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		logger.Fatal("DATABASE_URL is not set")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Fatal("JWT_SECRET is not set")
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	// !! COMMA SEPARATED IN ENV !!
	var adminIDs []int64
	if s := os.Getenv("ADMIN_USER_IDS"); s != "" {
		for _, idStr := range strings.Split(s, ",") {
			idStr = strings.TrimSpace(idStr)
			if id, err := strconv.ParseInt(idStr, 10, 64); err == nil {
				adminIDs = append(adminIDs, id)
			}
		}
	}

	redisDB := 0
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			redisDB = n
		}
	}

	purchaseRateLimit := 30 // max purchases per ->
	if v := os.Getenv("PURCHASE_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			purchaseRateLimit = n
		}
	}

	purchaseRateWindow := 60 // -> 60 seconds
	if v := os.Getenv("PURCHASE_RATE_WINDOW"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			purchaseRateWindow = n
		}
	}

	reconcileInterval := time.Minute
	if v := os.Getenv("RECONCILE_INTERVAL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			reconcileInterval = time.Duration(n) * time.Second
		}
	}

	reconcileGrace := 5 * time.Minute
	if v := os.Getenv("RECONCILE_GRACE_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			reconcileGrace = time.Duration(n) * time.Second
		}
	}

	initialPoints := int64(0)
	if v := os.Getenv("INITIAL_POINTS"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n >= 0 {
			initialPoints = n
		}
	}

	initialPearls := int64(0)
	if v := os.Getenv("INITIAL_PEARLS"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n >= 0 {
			initialPearls = n
		}
	}

	return &Config{
		AppPort:            port,
		DatabaseURL:        dbURL,
		JWTSecret:          jwtSecret,
		RedisAddr:          os.Getenv("REDIS_ADDR"),
		RedisPassword:      os.Getenv("REDIS_PASSWORD"),
		RedisDB:            redisDB,
		AdminUserIDs:       adminIDs,
		PurchaseRateLimit:  purchaseRateLimit,
		PurchaseRateWindow: purchaseRateWindow,
		ReconcileInterval:  reconcileInterval,
		ReconcileGrace:     reconcileGrace,
		InitialPoints:      initialPoints,
		InitialPearls:      initialPearls,
	}
}

// IsAdmin reports whether the given user is on the admin allowlist.
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.AdminUserIDs {
		if id == userID {
			return true
		}
	}
	return false
}
