package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"portfolio_economy/internal/service"

	"github.com/gin-gonic/gin"
)

// Ranks returns the rank threshold table.
func (h *Handler) Ranks(c *gin.Context) {
	thresholds, err := h.Catalog.RankThresholds(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load ranks"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ranks": thresholds})
}

// Leaderboard returns the top users by XP.
func (h *Handler) Leaderboard(c *gin.Context) {
	limit := 100
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	top, err := h.UserRepo.GetTopByXP(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load leaderboard"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"leaderboard": top})
}

// MyLeaderboardPosition returns the caller's position by XP.
func (h *Handler) MyLeaderboardPosition(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	position, xp, err := h.UserRepo.GetLeaderboardPosition(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load position"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"position": position, "xp": xp})
}

type RewardRequest struct {
	Reason string `json:"reason" binding:"required"`
	// Target distinguishes one-time actions, e.g. "project:42"
	Target string `json:"target"`
}

// EngagementReward grants points and XP for an engagement action.
func (h *Handler) EngagementReward(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req RewardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	result, err := h.Rewards.Grant(c.Request.Context(), userID, service.RewardReason(req.Reason), req.Target)
	if err != nil {
		if errors.Is(err, service.ErrUnknownReason) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown reason"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to grant reward"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// MyBoosters returns the caller's active boosters and combined multiplier.
func (h *Handler) MyBoosters(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	boosters, err := h.Boosters.Active(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load boosters"})
		return
	}
	mult, err := h.Boosters.EffectiveMultiplier(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute multiplier"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"boosters":   boosters,
		"multiplier": mult,
	})
}
