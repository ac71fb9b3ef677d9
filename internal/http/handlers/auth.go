package handlers

import (
	"errors"
	"net/http"
	"strings"

	"portfolio_economy/internal/domain"
	"portfolio_economy/internal/repository"
	"portfolio_economy/internal/service"

	"github.com/gin-gonic/gin"
)

// Session issuing only. The actual identity provider lives in the
// surrounding application; this endpoint trusts the username and hands
// out the JWT the economy API runs on, creating the economy record on
// first sight.
type AuthRequest struct {
	Username string `json:"username" binding:"required,min=2,max=64"`
}

// Auth issues a JWT for the given user, creating the account if needed.
func (h *Handler) Auth(c *gin.Context) {
	var req AuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	username := strings.TrimSpace(req.Username)
	user, err := h.UserRepo.GetByUsername(c.Request.Context(), username)
	if err != nil {
		if !errors.Is(err, repository.ErrUserNotFound) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load user"})
			return
		}
		user = &domain.User{Username: username}
		if err := h.UserRepo.Create(c.Request.Context(), user, h.InitialPoints, h.InitialPearls); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create user"})
			return
		}
	}

	token, err := service.GenerateJWT(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":   token,
		"user_id": user.ID,
	})
}
