package handlers

import (
	"errors"
	"net/http"

	"portfolio_economy/internal/domain"
	"portfolio_economy/internal/service"

	"github.com/gin-gonic/gin"
)

// shopEntry is one catalog item with the price of the next unit for
// the requesting user.
type shopEntry struct {
	Item      domain.CatalogItem `json:"item"`
	NextPrice int64              `json:"next_price"`
	Owned     bool               `json:"owned"`
}

func (h *Handler) listCatalog(c *gin.Context, currency domain.Currency) {
	userID, authed := getUserID(c)

	items, err := h.Catalog.Items(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load catalog"})
		return
	}

	var entries []shopEntry
	for _, item := range items {
		if item.Currency != currency {
			continue
		}
		entry := shopEntry{Item: item, NextPrice: item.BasePrice}
		if authed {
			price, _, err := h.Purchases.Quote(c.Request.Context(), userID, item.ID)
			if err == nil {
				entry.NextPrice = price
			}
			owned, err := h.ItemRepo.Owns(c.Request.Context(), userID, item.ID)
			if err == nil {
				entry.Owned = owned
			}
		}
		entries = append(entries, entry)
	}

	c.JSON(http.StatusOK, gin.H{"items": entries, "currency": currency})
}

// Shop lists point-priced catalog items with per-user next-unit prices.
func (h *Handler) Shop(c *gin.Context) {
	h.listCatalog(c, domain.CurrencyPoints)
}

// Aquarium lists pearl-priced items (fish, decor) the same way.
func (h *Handler) Aquarium(c *gin.Context) {
	h.listCatalog(c, domain.CurrencyPearls)
}

type PurchaseRequest struct {
	ItemID string `json:"item_id" binding:"required"`
}

// Purchase buys one unit of a catalog item for the authenticated user.
func (h *Handler) Purchase(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	result, err := h.Purchases.Purchase(c.Request.Context(), userID, req.ItemID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInsufficientFunds):
			c.JSON(http.StatusBadRequest, gin.H{"error": "insufficient funds"})
		case errors.Is(err, service.ErrAlreadyOwned):
			c.JSON(http.StatusBadRequest, gin.H{"error": "item already owned"})
		case errors.Is(err, service.ErrInvalidItem):
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown item"})
		case errors.Is(err, service.ErrPurchaseOrphaned):
			// The charge may stand until reconciliation; the client
			// must not retry blindly.
			c.JSON(http.StatusConflict, gin.H{
				"error":          "purchase could not be completed",
				"reconciliation": "pending",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "purchase failed"})
		}
		return
	}

	c.JSON(http.StatusOK, result)
}
