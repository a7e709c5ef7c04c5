package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/avdheshcharjan/microloan-ripple-hackathon/internal/domain/trust"
	"github.com/avdheshcharjan/microloan-ripple-hackathon/internal/wallet"
)

type TrustService interface {
	Evaluate(ctx context.Context, address string) trust.Score
}

type TrustHandler struct {
	trustService TrustService
}

func NewTrustHandler(trustService TrustService) *TrustHandler {
	return &TrustHandler{trustService: trustService}
}

// GetScore never fails: unknown or unreachable accounts come back as the
// worst risk bucket with a zero score.
func (h *TrustHandler) GetScore(c *gin.Context) {
	address := strings.TrimSpace(c.Param("address"))
	if !wallet.IsValidAddress(address) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_address"})
		return
	}
	c.JSON(http.StatusOK, h.trustService.Evaluate(c.Request.Context(), address))
}
