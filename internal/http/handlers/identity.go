package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/avdheshcharjan/microloan-ripple-hackathon/internal/domain/identity"
	"github.com/avdheshcharjan/microloan-ripple-hackathon/internal/http/middleware"
	"github.com/avdheshcharjan/microloan-ripple-hackathon/internal/wallet"
)

type IdentityService interface {
	PublishClaim(ctx context.Context, session *wallet.Session, name, phone string) (string, error)
	ResolveClaim(ctx context.Context, address string) (*identity.Claim, error)
}

type IdentityHandler struct {
	identityService IdentityService
}

func NewIdentityHandler(identityService IdentityService) *IdentityHandler {
	return &IdentityHandler{identityService: identityService}
}

func (h *IdentityHandler) PublishClaim(c *gin.Context) {
	session, ok := middleware.SessionFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req struct {
		Name  string `json:"name"`
		Phone string `json:"phone"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	txHash, err := h.identityService.PublishClaim(c.Request.Context(), session, req.Name, req.Phone)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidClaim) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_claim"})
			return
		}
		respondSubmitError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tx_hash": txHash})
}

func (h *IdentityHandler) GetClaim(c *gin.Context) {
	address := strings.TrimSpace(c.Param("address"))
	if !wallet.IsValidAddress(address) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_address"})
		return
	}
	claim, err := h.identityService.ResolveClaim(c.Request.Context(), address)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "history_lookup_failed"})
		return
	}
	if claim == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no_claim_found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"address": claim.Address,
		"name":    claim.Name,
		"phone":   claim.Phone,
		"tx_hash": claim.TxHash,
	})
}
