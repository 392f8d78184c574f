package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tundesanni/paylite/internal/config"
	"github.com/tundesanni/paylite/internal/gateway"
	"github.com/tundesanni/paylite/internal/handler"
	"github.com/tundesanni/paylite/internal/logging"
	"github.com/tundesanni/paylite/internal/middleware"
	"github.com/tundesanni/paylite/internal/notify"
	"github.com/tundesanni/paylite/internal/repository"
	"github.com/tundesanni/paylite/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logging.Init("paylite-api", cfg.LogLevel, cfg.AppEnv)

	db, err := connectDB(cfg)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	mux := buildRouter(cfg, db)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           middleware.Tracing(middleware.Logging(middleware.Recovery(mux))),
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("server started", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

func connectDB(cfg *config.Config) (*sql.DB, error) {
	pool := repository.PoolConfig{
		MaxOpenConns:     cfg.DBMaxOpenConns,
		MaxIdleConns:     cfg.DBMaxIdleConns,
		ConnMaxLifetimeS: cfg.DBConnMaxLifetimeS,
		ConnMaxIdleTimeS: cfg.DBConnMaxIdleTimeS,
	}

	var err error
	for i := range 30 {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		db, connErr := repository.NewPostgresDB(ctx, cfg.DatabaseURL, pool)
		cancel()
		if connErr == nil {
			return db, nil
		}
		err = connErr
		slog.Info("waiting for database", "attempt", i+1)
		time.Sleep(time.Second)
	}
	return nil, fmt.Errorf("connectDB: gave up after 30 attempts: %w", err)
}

func buildRouter(cfg *config.Config, db *sql.DB) *http.ServeMux {
	users := repository.NewUserRepository(db)
	wallets := repository.NewWalletRepository(db)
	transactions := repository.NewTransactionRepository(db)
	orders := repository.NewPaymentOrderRepository(db)

	gatewayClient := gateway.NewClient(cfg.GatewayURL, cfg.GatewayKeyID)
	notifier := notify.NewClient(cfg.NotifierURL)

	authSvc := service.NewAuthService(users, wallets, db)
	walletSvc := service.NewWalletService(wallets, users)
	transferSvc := service.NewTransferService(users, wallets, transactions, notifier, db)
	paymentSvc := service.NewPaymentService(orders, users, wallets, transactions, gatewayClient, notifier, db, cfg.GatewayKeyID)
	transactionSvc := service.NewTransactionService(transactions, wallets, users)

	jwtExpiry := time.Duration(cfg.JWTExpiryMins) * time.Minute
	authHandler := handler.NewAuthHandler(authSvc, cfg.JWTSecret, jwtExpiry)
	walletHandler := handler.NewWalletHandler(walletSvc)
	transferHandler := handler.NewTransferHandler(transferSvc)
	paymentHandler := handler.NewPaymentHandler(paymentSvc)
	webhookHandler := handler.NewWebhookHandler(paymentSvc, cfg.WebhookSecret)
	transactionHandler := handler.NewTransactionHandler(transactionSvc)
	healthHandler := handler.NewHealthHandler(db)

	requireAuth := middleware.Auth(cfg.JWTSecret)

	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/v1/auth/login", authHandler.Login)

	mux.Handle("GET /api/v1/wallet/balance", requireAuth(http.HandlerFunc(walletHandler.GetBalance)))
	mux.Handle("GET /api/v1/wallet/lookup", requireAuth(http.HandlerFunc(walletHandler.Lookup)))
	mux.Handle("POST /api/v1/transfers", requireAuth(http.HandlerFunc(transferHandler.Create)))
	mux.Handle("POST /api/v1/payments/order", requireAuth(http.HandlerFunc(paymentHandler.CreateOrder)))
	mux.Handle("GET /api/v1/transactions", requireAuth(http.HandlerFunc(transactionHandler.List)))
	mux.Handle("GET /api/v1/transactions/{ref}", requireAuth(http.HandlerFunc(transactionHandler.GetByRef)))

	// Signed by the gateway, not by a user token.
	mux.HandleFunc("POST /api/v1/webhooks/gateway", webhookHandler.ReceiveGatewayWebhook)

	mux.HandleFunc("GET /health/live", healthHandler.Liveness)
	mux.HandleFunc("GET /health/ready", healthHandler.Readiness)
	mux.Handle("GET /metrics", promhttp.Handler())

	return mux
}
