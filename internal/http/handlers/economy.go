package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"portfolio_economy/internal/repository"

	"github.com/gin-gonic/gin"
)

// MyEconomy returns the full economy view model: balances, XP, rank,
// owned items and active boosters.
func (h *Handler) MyEconomy(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	user, err := h.UserRepo.GetByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load user"})
		return
	}

	snapshot, err := h.Progression.Snapshot(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve rank"})
		return
	}

	owned, err := h.ItemRepo.GetOwned(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load items"})
		return
	}

	boosters, err := h.Boosters.Active(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load boosters"})
		return
	}
	mult, _ := h.Boosters.EffectiveMultiplier(c.Request.Context(), userID)

	c.JSON(http.StatusOK, gin.H{
		"points":            user.Points,
		"pearls":            user.Pearls,
		"xp":                snapshot.XP,
		"rank":              snapshot.Rank,
		"next_rank":         snapshot.NextRank,
		"owned_items":       owned,
		"active_boosters":   boosters,
		"reward_multiplier": mult,
	})
}

// MyTransactions returns the user's ledger history.
func (h *Handler) MyTransactions(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	limit := 50
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	history, err := h.Ledger.GetHistory(c.Request.Context(), userID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"transactions": history})
}

// MyPurchases returns the user's purchase attempts.
func (h *Handler) MyPurchases(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	limit := 50
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	purchases, err := h.Purchases.History(c.Request.Context(), userID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load purchases"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"purchases": purchases})
}
