package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/avdheshcharjan/microloan-ripple-hackathon/internal/auth"
	"github.com/avdheshcharjan/microloan-ripple-hackathon/internal/domain/account"
	"github.com/avdheshcharjan/microloan-ripple-hackathon/internal/http/middleware"
	"github.com/avdheshcharjan/microloan-ripple-hackathon/internal/wallet"
)

type AccountService interface {
	Balances(ctx context.Context, address string) ([]account.Balance, error)
	Create(ctx context.Context) (*wallet.LocalSigner, []account.Balance, error)
	SetupTrustLine(ctx context.Context, session *wallet.Session) (string, error)
}

type WalletHandler struct {
	accounts   AccountService
	sessions   *wallet.SessionStore
	jwtManager *auth.JWTManager
	sessionTTL time.Duration
}

func NewWalletHandler(accounts AccountService, sessions *wallet.SessionStore, jwtManager *auth.JWTManager, sessionTTL time.Duration) *WalletHandler {
	return &WalletHandler{
		accounts:   accounts,
		sessions:   sessions,
		jwtManager: jwtManager,
		sessionTTL: sessionTTL,
	}
}

// Connect opens a session from raw secret material. The secret never leaves
// process memory; the client gets back a bearer token bound to the session.
func (h *WalletHandler) Connect(c *gin.Context) {
	var req struct {
		Secret string `json:"secret"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	signer, err := wallet.NewLocalSigner(req.Secret)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_secret"})
		return
	}

	h.issueSession(c, signer, "")
}

// Create generates and faucet-funds a fresh wallet. The secret is returned
// exactly once, for the user to store.
func (h *WalletHandler) Create(c *gin.Context) {
	signer, balances, err := h.accounts.Create(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "wallet_creation_failed"})
		return
	}
	h.issueSessionWithBalances(c, signer, signer.Secret(), balances)
}

func (h *WalletHandler) Balances(c *gin.Context) {
	session, ok := middleware.SessionFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	balances, err := h.accounts.Balances(c.Request.Context(), session.Address)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "balance_lookup_failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"address": session.Address, "balances": balances})
}

func (h *WalletHandler) SetupTrustLine(c *gin.Context) {
	session, ok := middleware.SessionFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	txHash, err := h.accounts.SetupTrustLine(c.Request.Context(), session)
	if err != nil {
		respondSubmitError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tx_hash": txHash})
}

func (h *WalletHandler) Logout(c *gin.Context) {
	session, ok := middleware.SessionFromContext(c)
	if ok {
		h.sessions.Delete(session.ID)
	}
	c.JSON(http.StatusOK, gin.H{"status": "logged_out"})
}

func (h *WalletHandler) issueSession(c *gin.Context, signer wallet.Signer, secret string) {
	h.issueSessionWithBalances(c, signer, secret, nil)
}

func (h *WalletHandler) issueSessionWithBalances(c *gin.Context, signer wallet.Signer, secret string, balances []account.Balance) {
	session := h.sessions.Create(signer)
	token, err := h.jwtManager.Mint(session.Address, session.ID, h.sessionTTL)
	if err != nil {
		h.sessions.Delete(session.ID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "session_issue_failed"})
		return
	}

	resp := gin.H{
		"address": session.Address,
		"token":   token,
	}
	if strings.TrimSpace(secret) != "" {
		resp["secret"] = secret
	}
	if balances != nil {
		resp["balances"] = balances
	}
	c.JSON(http.StatusOK, resp)
}
