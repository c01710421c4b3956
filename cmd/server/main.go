package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"makemybill/m/internal/analytics"
	"makemybill/m/internal/api"
	"makemybill/m/internal/clock"
	"makemybill/m/internal/config"
	"makemybill/m/internal/database"
	"makemybill/m/internal/inventory"
	"makemybill/m/internal/invoice"
	"makemybill/m/internal/logger"
	"makemybill/m/internal/migrations"
	"makemybill/m/internal/sales"
	"makemybill/m/internal/seed"
	"makemybill/m/internal/store"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()

	appLogger, err := logger.New(cfg.Logger, cfg.IsDevelopment())
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer appLogger.Sync()

	// Amounts go over the wire as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true

	db, err := database.Connect(cfg.Database)
	if err != nil {
		appLogger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := migrations.Run(db); err != nil {
		appLogger.Fatal("failed to run migrations", zap.Error(err))
	}

	clk := clock.NewRealClock()
	st := store.New(db, cfg.Database.StorageTimeout)

	ctx := context.Background()
	if cfg.Seed.Demo {
		if err := seed.Demo(ctx, st, clk, appLogger); err != nil {
			appLogger.Fatal("failed to seed demo data", zap.Error(err))
		}
	}
	if cfg.Seed.ProductsCSV != "" {
		if _, err := seed.LoadProducts(ctx, st, clk, appLogger, cfg.Seed.ProductsCSV); err != nil {
			appLogger.Warn("failed to load products csv", zap.String("path", cfg.Seed.ProductsCSV), zap.Error(err))
		}
	}

	ledger := inventory.NewLedger(st.Movements, clk, appLogger)
	sequencer := invoice.NewSequencer(cfg.Invoice.Prefix)
	engine := sales.NewEngine(st, ledger, sequencer, clk, appLogger)

	handler := api.New(api.Dependencies{
		Store:      st,
		Engine:     engine,
		Builder:    invoice.NewBuilder(cfg.Invoice, clk),
		Renderer:   invoice.NewRenderer(),
		Analytics:  analytics.NewAggregator(db, clk),
		Clock:      clk,
		Logger:     appLogger,
		Secret:     cfg.Auth.Secret,
		TokenTTL:   cfg.Auth.TokenTTL,
		CORSOrigin: cfg.Server.CORSOrigin,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.HTTPPort,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLogger.Info("MakeMyBill server starting", zap.String("port", cfg.Server.HTTPPort), zap.String("driver", cfg.Database.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("graceful shutdown failed", zap.Error(err))
	}
	appLogger.Info("Server stopped")
}
