package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"bioauth/internal/config"
	"bioauth/internal/domain"
	"bioauth/internal/jwtsigner"
	"bioauth/internal/observability/logging"
	"bioauth/internal/observability/metrics"
	"bioauth/internal/pairing"
	"bioauth/internal/service"
	"bioauth/internal/store"
	httpx "bioauth/internal/transport/http"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	_ = godotenv.Load(".env")

	cfg := config.Load()

	logger := logging.NewLogger(logging.Config{
		ServiceName: "bioauth",
		Environment: cfg.Environment,
		Level:       cfg.LogLevel,
	})
	slog.SetDefault(logger)
	logger.Info("starting service")

	metrics.MustRegister("bioauth")

	gdb, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		logger.Error("gorm open", "error", err)
		os.Exit(1)
	}
	if err := gdb.AutoMigrate(&domain.User{}, &domain.Device{}, &domain.RecoveryCode{}); err != nil {
		logger.Error("automigrate", "error", err)
		os.Exit(1)
	}

	st := store.New(gdb)

	signer, err := jwtsigner.NewFromBase64(cfg.SigningKey, cfg.SigningKeyID, cfg.Issuer, cfg.Audience)
	if err != nil {
		logger.Error("jwt signer", "error", err)
		os.Exit(1)
	}

	// The pending-pairing store lives and dies with the process; tokens do
	// not survive a restart and callers re-issue the QR if one happens
	// mid-pairing.
	pending := pairing.NewStore()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go pending.RunSweeper(ctx, cfg.SweepEvery)

	svc := service.New(st, pending, signer, service.Config{
		ServerURL:    cfg.ServerURL,
		SiteID:       cfg.SiteID,
		PairTokenTTL: cfg.PairTokenTTL,
		AccessTTL:    cfg.AccessTTL,
	})

	handler := httpx.NewRouter(svc, signer, httpx.Options{
		CORSOrigins:    strings.Split(cfg.CORSOrigins, ","),
		RateLimitPerIP: cfg.RateLimitPerIP,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("bioauth listening", "addr", srv.Addr, "site_id", cfg.SiteID, "issuer", cfg.Issuer)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
