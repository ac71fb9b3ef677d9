package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"portfolio_economy/internal/catalog"
	"portfolio_economy/internal/domain"
	"portfolio_economy/internal/economy"
	"portfolio_economy/internal/repository"
	"portfolio_economy/internal/service"

	"github.com/gin-gonic/gin"
)

// AdminHandler serves the back office: balance adjustments, catalog and
// rank table edits, and reconciliation controls. All catalog writes
// validate the would-be snapshot before committing and invalidate the
// process cache afterwards.
type AdminHandler struct {
	catalogRepo *repository.CatalogRepository
	cache       *catalog.Cache
	ledger      *service.LedgerService
	reconciler  *service.ReconcileService
	purchases   *repository.PurchaseRepository
}

func NewAdminHandler(catalogRepo *repository.CatalogRepository, cache *catalog.Cache, ledger *service.LedgerService, reconciler *service.ReconcileService, purchases *repository.PurchaseRepository) *AdminHandler {
	return &AdminHandler{
		catalogRepo: catalogRepo,
		cache:       cache,
		ledger:      ledger,
		reconciler:  reconciler,
		purchases:   purchases,
	}
}

type AdjustBalanceRequest struct {
	UserID   int64  `json:"user_id" binding:"required"`
	Currency string `json:"currency" binding:"required"`
	Delta    int64  `json:"delta" binding:"required"`
	Reason   string `json:"reason" binding:"required"`
}

// AdjustBalance applies a signed delta to a user's balance through the
// ledger primitives.
func (h *AdminHandler) AdjustBalance(c *gin.Context) {
	var req AdjustBalanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	currency := domain.Currency(req.Currency)
	if !currency.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown currency"})
		return
	}

	newBalance, err := h.ledger.Adjust(c.Request.Context(), req.UserID, currency, req.Delta, req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		case errors.Is(err, service.ErrInsufficientFunds):
			c.JSON(http.StatusBadRequest, gin.H{"error": "balance would go negative"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "adjustment failed"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"user_id": req.UserID, "currency": currency, "new_balance": newBalance})
}

type UpsertItemRequest struct {
	ID              string  `json:"id" binding:"required"`
	Name            string  `json:"name" binding:"required"`
	BasePrice       int64   `json:"base_price" binding:"required"`
	Currency        string  `json:"currency" binding:"required"`
	Category        string  `json:"category" binding:"required"`
	ScalingFamily   string  `json:"scaling_family"`
	GrowthRate      float64 `json:"growth_rate"`
	Stackable       bool    `json:"stackable"`
	BoosterEffectID string  `json:"booster_effect_id"`
	BoosterMult     float64 `json:"booster_mult"`
	BoosterSeconds  int64   `json:"booster_seconds"`
}

// UpsertItem creates or replaces a catalog item.
func (h *AdminHandler) UpsertItem(c *gin.Context) {
	var req UpsertItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	growth := req.GrowthRate
	if growth == 0 {
		growth = 1
	}
	item := domain.CatalogItem{
		ID:              req.ID,
		Name:            req.Name,
		BasePrice:       req.BasePrice,
		Currency:        domain.Currency(req.Currency),
		Category:        domain.ItemCategory(req.Category),
		ScalingFamily:   req.ScalingFamily,
		GrowthRate:      growth,
		Stackable:       req.Stackable,
		BoosterEffectID: req.BoosterEffectID,
		BoosterMult:     req.BoosterMult,
		BoosterSeconds:  req.BoosterSeconds,
	}

	if err := catalog.ValidateItems([]domain.CatalogItem{item}); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.catalogRepo.UpsertItem(c.Request.Context(), &item); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save item"})
		return
	}
	h.cache.Invalidate()

	c.JSON(http.StatusOK, gin.H{"item": item})
}

// DeleteItem removes a catalog item and invalidates the cache.
func (h *AdminHandler) DeleteItem(c *gin.Context) {
	id := c.Param("id")
	if err := h.catalogRepo.DeleteItem(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete item"})
		return
	}
	h.cache.Invalidate()
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

type UpsertRankRequest struct {
	MinXP       int64  `json:"min_xp"`
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// UpsertRank creates or replaces one rank threshold. The resulting
// table is validated before the write.
func (h *AdminHandler) UpsertRank(c *gin.Context) {
	var req UpsertRankRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if req.MinXP < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "min_xp must be non-negative"})
		return
	}

	existing, err := h.catalogRepo.ListRankThresholds(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load ranks"})
		return
	}

	merged := make([]domain.RankThreshold, 0, len(existing)+1)
	replaced := false
	for _, t := range existing {
		if t.MinXP == req.MinXP {
			merged = append(merged, domain.RankThreshold{MinXP: req.MinXP, Name: req.Name, Description: req.Description})
			replaced = true
			continue
		}
		merged = append(merged, t)
	}
	if !replaced {
		merged = append(merged, domain.RankThreshold{MinXP: req.MinXP, Name: req.Name, Description: req.Description})
		// keep ascending order for validation
		for i := len(merged) - 1; i > 0 && merged[i].MinXP < merged[i-1].MinXP; i-- {
			merged[i], merged[i-1] = merged[i-1], merged[i]
		}
	}
	if err := economy.ValidateThresholds(merged); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	t := domain.RankThreshold{MinXP: req.MinXP, Name: req.Name, Description: req.Description}
	if err := h.catalogRepo.UpsertRankThreshold(c.Request.Context(), &t); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save rank"})
		return
	}
	h.cache.Invalidate()

	c.JSON(http.StatusOK, gin.H{"rank": t})
}

// DeleteRank removes a rank threshold (the min_xp = 0 row is protected).
func (h *AdminHandler) DeleteRank(c *gin.Context) {
	minXP, err := strconv.ParseInt(c.Param("min_xp"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid min_xp"})
		return
	}
	if minXP == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot delete the default rank"})
		return
	}

	if err := h.catalogRepo.DeleteRankThreshold(c.Request.Context(), minXP); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete rank"})
		return
	}
	h.cache.Invalidate()
	c.JSON(http.StatusOK, gin.H{"deleted": minXP})
}

// Orphans lists purchases awaiting reconciliation.
func (h *AdminHandler) Orphans(c *gin.Context) {
	charged, err := h.purchases.ListByState(c.Request.Context(), domain.PurchaseCharged, 100)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load purchases"})
		return
	}
	orphaned, err := h.purchases.ListByState(c.Request.Context(), domain.PurchaseOrphaned, 100)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load purchases"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"charged": charged, "orphaned": orphaned})
}

// Reconcile runs one sweep immediately.
func (h *AdminHandler) Reconcile(c *gin.Context) {
	n, err := h.reconciler.Sweep(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "sweep failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"reconciled": n})
}
