package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/avdheshcharjan/microloan-ripple-hackathon/internal/ledger"
	"github.com/avdheshcharjan/microloan-ripple-hackathon/internal/wallet"
)

// respondSubmitError maps the closed set of signing and submission error
// kinds to stable response codes. Callers branch on the "error" value, never
// on message text.
func respondSubmitError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, wallet.ErrSignRejected):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "sign_rejected",
			"hint":  "approve the pending request in your wallet and try again",
		})
	case errors.Is(err, wallet.ErrSignTimeout), errors.Is(err, ledger.ErrTimeout):
		c.JSON(http.StatusGatewayTimeout, gin.H{
			"error": "timeout",
			"hint":  "the transaction may still complete; check history before retrying",
		})
	case errors.Is(err, wallet.ErrNoUsableSignMethod):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "no_signing_method",
			"hint":  "install or unlock a wallet extension, or connect with a secret",
		})
	case errors.Is(err, ledger.ErrRejected):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "transaction_rejected"})
	case errors.Is(err, ledger.ErrAccountNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "account_not_found"})
	default:
		c.JSON(http.StatusBadGateway, gin.H{"error": "ledger_unavailable"})
	}
}
