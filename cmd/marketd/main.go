package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	cartapp "github.com/harvestmkt/marketcore/internal/cart/app"
	catalogapp "github.com/harvestmkt/marketcore/internal/catalog/app"
	checkoutapp "github.com/harvestmkt/marketcore/internal/checkout/app"
	"github.com/harvestmkt/marketcore/internal/ledger"
	"github.com/harvestmkt/marketcore/internal/ledger/httprpc"
	"github.com/harvestmkt/marketcore/internal/ledger/ledgertest"
	orderapp "github.com/harvestmkt/marketcore/internal/order/app"
	"github.com/harvestmkt/marketcore/internal/session"
	sessionsqlite "github.com/harvestmkt/marketcore/internal/session/sqlite"
	"github.com/harvestmkt/marketcore/pkg/config"
	"github.com/harvestmkt/marketcore/pkg/logger"
	"github.com/harvestmkt/marketcore/pkg/shutdown"
)

func main() {
	cfg := config.Load()
	log := logger.New(logger.Options{Service: "marketd", Env: cfg.AppEnv, Level: cfg.LogLevel, AddSource: true})

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	led := mustLedger(cfg, log)

	profiles, err := sessionsqlite.Open(cfg.ProfileDBPath)
	if err != nil {
		log.Error("profile store open failed", slog.Any("err", err))
		os.Exit(1)
	}
	defer profiles.Close()

	actor := cfg.ActorAddress
	if actor == "" {
		actor = "0x" + uuid.NewString()
		log.Warn("no ACTOR_ADDRESS configured, using ephemeral identity", slog.String("address", actor))
	}

	sess, _, err := session.Resolve(ctx, profiles, actor)
	if err != nil {
		log.Error("session resolve failed", slog.Any("err", err))
		os.Exit(1)
	}
	log.Info("session ready", slog.String("address", sess.Address), slog.String("role", string(sess.Role)))

	notify := slogNotifier{log: log}

	resolver := catalogapp.NewResolver(led, cfg.ProductCacheSize, cfg.ProductCacheTTL, log)
	cartSvc := cartapp.NewService(sess.Address, led, resolver, notify, log)
	checkoutSvc := checkoutapp.NewService(cartSvc, resolver, ledger.ToDecimal(ledgertest.DefaultShippingFee), 10)
	orderSvc := orderapp.NewService(sess.Address, led, cartSvc, notify, log)

	// Seed the local projection from whatever the ledger already holds.
	if err := cartSvc.Refresh(ctx); err != nil {
		log.Warn("initial cart refresh failed", slog.Any("err", err))
	}

	srv := &server{
		cart:     cartSvc,
		catalog:  resolver,
		checkout: checkoutSvc,
		orders:   orderSvc,
		profiles: profiles,
		session:  sess,
		log:      log,
	}

	addr := fmt.Sprintf(":%d", cfg.HTTPPort)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("http server starting", slog.String("addr", addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http server error", slog.Any("err", err))
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info("shutdown requested")

	ok := shutdown.Grace(10*time.Second, func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error("http shutdown error", slog.Any("err", err))
		}
	})
	if !ok {
		log.Warn("graceful stop timeout, forcing close")
		_ = httpServer.Close()
	}

	wg.Wait()
	log.Info("bye")
}

func mustLedger(cfg config.Config, log *slog.Logger) ledger.Ledger {
	switch cfg.LedgerMode {
	case "standalone":
		log.Info("using standalone in-memory ledger with demo catalog")
		return ledgertest.Seeded()
	case "remote":
		log.Info("using remote ledger", slog.String("url", cfg.LedgerURL))
		return httprpc.New(cfg.LedgerURL, nil)
	default:
		log.Error("unknown LEDGER_MODE", slog.String("mode", cfg.LedgerMode))
		os.Exit(1)
		return nil
	}
}
