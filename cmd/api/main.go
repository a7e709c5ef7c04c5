package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/avdheshcharjan/microloan-ripple-hackathon/internal/auth"
	"github.com/avdheshcharjan/microloan-ripple-hackathon/internal/cache"
	"github.com/avdheshcharjan/microloan-ripple-hackathon/internal/config"
	"github.com/avdheshcharjan/microloan-ripple-hackathon/internal/db"
	accountdomain "github.com/avdheshcharjan/microloan-ripple-hackathon/internal/domain/account"
	"github.com/avdheshcharjan/microloan-ripple-hackathon/internal/domain/identity"
	loandomain "github.com/avdheshcharjan/microloan-ripple-hackathon/internal/domain/loan"
	"github.com/avdheshcharjan/microloan-ripple-hackathon/internal/domain/trust"
	"github.com/avdheshcharjan/microloan-ripple-hackathon/internal/http/handlers"
	"github.com/avdheshcharjan/microloan-ripple-hackathon/internal/ledger"
	"github.com/avdheshcharjan/microloan-ripple-hackathon/internal/observability"
	postgresrepo "github.com/avdheshcharjan/microloan-ripple-hackathon/internal/repository/postgres"
	"github.com/avdheshcharjan/microloan-ripple-hackathon/internal/server"
	"github.com/avdheshcharjan/microloan-ripple-hackathon/internal/wallet"
	"github.com/avdheshcharjan/microloan-ripple-hackathon/internal/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		observability.NewLogger("local", "microloan-api").Error("invalid configuration", "err", err)
		os.Exit(1)
	}
	logger := observability.NewLogger(cfg.Env, "microloan-api")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.NewPostgresPool(ctx, cfg)
	if err != nil {
		logger.Error("failed to connect postgres", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient, err = cache.OpenRedis(cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			logger.Error("failed to connect redis", "err", err)
			os.Exit(1)
		}
		defer redisClient.Close()
	}

	ledgerClient := ledger.NewClient(cfg.LedgerWSURL, cfg.LedgerTimeout)
	defer ledgerClient.Close()

	stablecoin := loandomain.Stablecoin{Code: cfg.StablecoinCode, Issuer: cfg.StablecoinIssuer}
	sessions := wallet.NewSessionStore()
	jwtManager := auth.NewJWTManager(cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTSigningKey)

	hub := ws.NewHub()
	notifier := ws.NewNotifier(hub)

	trustService := trust.NewService(ledgerClient)
	identityService := identity.NewService(ledgerClient)
	accountService := accountdomain.NewService(
		ledgerClient,
		accountdomain.Stablecoin{Code: cfg.StablecoinCode, Issuer: cfg.StablecoinIssuer},
		cfg.FaucetURL,
	)
	loanService := loandomain.NewService(
		postgresrepo.NewLoanRepository(pool),
		postgresrepo.NewOutboxRepository(pool),
		ledgerClient,
		trustService,
		notifier,
		stablecoin,
	)

	r := server.NewRouter(cfg, logger, server.Dependencies{
		Pinger:          pool,
		WalletHandler:   handlers.NewWalletHandler(accountService, sessions, jwtManager, cfg.JWTSessionTTL),
		LoanHandler:     handlers.NewLoanHandler(loanService),
		TrustHandler:    handlers.NewTrustHandler(trustService),
		IdentityHandler: handlers.NewIdentityHandler(identityService),
		WSHandler:       ws.NewHandler(hub),
		JWTManager:      jwtManager,
		Sessions:        sessions,
		Redis:           redisClient,
	})
	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("api server starting", "addr", cfg.Addr())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-sigCtx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = httpServer.Shutdown(shutdownCtx)
	logger.Info("api server stopped")
}
