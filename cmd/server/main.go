package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"nepse-paper-trader-go/internal/bonus"
	"nepse-paper-trader-go/internal/config"
	"nepse-paper-trader-go/internal/database"
	"nepse-paper-trader-go/internal/leaderboard"
	"nepse-paper-trader-go/internal/ledger"
	"nepse-paper-trader-go/internal/logger"
	"nepse-paper-trader-go/internal/market"
	"nepse-paper-trader-go/internal/portfolio"
	"nepse-paper-trader-go/internal/server"
	"nepse-paper-trader-go/internal/trading"
)

func main() {
	// Load application configuration
	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewLogger(cfg.Logger.Level, cfg.Logger.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	log.Info("Configuration loaded")

	// Initialize database
	db, err := database.NewDatabase(cfg.Database.DSN)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	log.Info("Database connection successful and schema migrated.")

	// Initialize market-data client and company directory
	client := market.NewRestClient(&cfg.Market, log)
	directory := market.NewDirectory(log)
	if err := directory.Load(context.Background(), client); err != nil {
		// Trading still works without the directory; names just won't resolve.
		log.Warn("Company directory unavailable at startup", zap.Error(err))
	}

	// Wire the services
	led, err := ledger.NewLedger(db, log, decimal.NewFromFloat(cfg.Trading.StartingBalance))
	if err != nil {
		log.Fatal("Failed to initialize credit ledger", zap.Error(err))
	}

	valuator := portfolio.NewValuator(db, led, client, log)

	ranker, err := leaderboard.NewRanker(db, log, cfg.Leaderboard.Size, cfg.Leaderboard.MaxAgeDays)
	if err != nil {
		log.Fatal("Failed to initialize leaderboard", zap.Error(err))
	}

	fees := trading.NewFeeSchedule(
		cfg.Trading.BrokerFeeRate,
		cfg.Trading.RegulatoryFeeRate,
		cfg.Trading.DepositoryFeeRate,
	)
	engine := trading.NewEngine(log, db, led, client, fees,
		decimal.NewFromFloat(cfg.Trading.MinLot), valuator, ranker)

	bonusSvc := bonus.NewService(db, led, log, decimal.NewFromFloat(cfg.Bonus.DailyAmount))

	// Periodic leaderboard maintenance: refresh the investor's entry and
	// purge anything stale.
	scheduler := cron.New()
	_, err = scheduler.AddFunc(cfg.Leaderboard.RefreshCron, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		summary, err := valuator.Valuate(ctx)
		if err != nil {
			log.Warn("Scheduled valuation failed", zap.Error(err))
			return
		}
		if err := ranker.RefreshUser(summary.NetWorth, time.Now()); err != nil {
			log.Warn("Scheduled leaderboard refresh failed", zap.Error(err))
		}
		if _, err := ranker.Standings(time.Now()); err != nil {
			log.Warn("Scheduled leaderboard purge failed", zap.Error(err))
		}
	})
	if err != nil {
		log.Fatal("Invalid leaderboard refresh schedule", zap.Error(err))
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Setup HTTP server
	handlers := server.NewHandlers(log, db, engine, valuator, ranker, bonusSvc, directory, client)
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: server.NewRouter(handlers),
	}

	// Graceful shutdown on SIGINT/SIGTERM
	go func() {
		sigchan := make(chan os.Signal, 1)
		signal.Notify(sigchan, syscall.SIGINT, syscall.SIGTERM)
		<-sigchan
		log.Info("Shutdown signal received, gracefully shutting down...")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Server shutdown failed", zap.Error(err))
		}
	}()

	log.Info("Starting web server", zap.String("address", srv.Addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("Web server failed", zap.Error(err))
	}

	log.Info("Server has been shut down.")
}
