package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/avdheshcharjan/microloan-ripple-hackathon/internal/auth"
	"github.com/avdheshcharjan/microloan-ripple-hackathon/internal/config"
	"github.com/avdheshcharjan/microloan-ripple-hackathon/internal/http/handlers"
	"github.com/avdheshcharjan/microloan-ripple-hackathon/internal/http/middleware"
	"github.com/avdheshcharjan/microloan-ripple-hackathon/internal/version"
	"github.com/avdheshcharjan/microloan-ripple-hackathon/internal/wallet"
	"github.com/avdheshcharjan/microloan-ripple-hackathon/internal/ws"
)

type Dependencies struct {
	Pinger          handlers.Pinger
	WalletHandler   *handlers.WalletHandler
	LoanHandler     *handlers.LoanHandler
	TrustHandler    *handlers.TrustHandler
	IdentityHandler *handlers.IdentityHandler
	WSHandler       *ws.Handler
	JWTManager      *auth.JWTManager
	Sessions        *wallet.SessionStore
	Redis           *redis.Client
}

func NewRouter(cfg config.Config, logger *slog.Logger, deps Dependencies) *gin.Engine {
	if cfg.Env == "prod" || cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestBodyLimit(middleware.DefaultMaxBodyBytes))
	r.Use(func(c *gin.Context) {
		logger.Info("request", "method", c.Request.Method, "path", c.Request.URL.Path)
		c.Next()
	})

	health := handlers.NewHealthHandler(deps.Pinger)
	meta := handlers.NewMetaHandler(cfg.Env, version.Version)

	r.GET("/health", health.Health)
	r.GET("/ready", health.Ready)
	r.GET("/v1/meta", meta.GetMeta)

	requireSession := middleware.RequireSession(deps.JWTManager, deps.Sessions)

	walletGroup := r.Group("/v1/wallet")
	walletGroup.POST("/connect", deps.WalletHandler.Connect)
	walletGroup.POST("/create", deps.WalletHandler.Create)

	walletProtected := walletGroup.Group("")
	walletProtected.Use(requireSession)
	walletProtected.GET("/balances", deps.WalletHandler.Balances)
	walletProtected.POST("/trustline", deps.WalletHandler.SetupTrustLine)
	walletProtected.POST("/logout", deps.WalletHandler.Logout)

	r.GET("/v1/loans", deps.LoanHandler.ListLoans)
	r.GET("/v1/loans/:loanId", deps.LoanHandler.GetLoan)
	r.GET("/v1/trust/:address", deps.TrustHandler.GetScore)
	r.GET("/v1/identity/:address", deps.IdentityHandler.GetClaim)

	protected := r.Group("/v1")
	protected.Use(requireSession)
	protected.POST("/loans", deps.LoanHandler.CreateLoan)
	protected.POST("/loans/:loanId/complete", deps.LoanHandler.CompleteLoan)
	protected.POST("/identity/claim", deps.IdentityHandler.PublishClaim)

	fundGroup := r.Group("/v1")
	fundGroup.Use(requireSession)
	if deps.Redis != nil {
		fundGroup.Use(middleware.Idempotency(deps.Redis, 24*time.Hour))
	}
	fundGroup.POST("/loans/:loanId/fund", deps.LoanHandler.FundLoan)

	if deps.WSHandler != nil {
		r.GET("/v1/ws", deps.WSHandler.HandleWebSocket)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
	})

	return r
}
