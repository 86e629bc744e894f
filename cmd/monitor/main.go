package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/satishjaiswal/hyperliquid-position/api"
	"github.com/satishjaiswal/hyperliquid-position/internal/config"
	"github.com/satishjaiswal/hyperliquid-position/pkg/bot"
	"github.com/satishjaiswal/hyperliquid-position/pkg/cache"
	"github.com/satishjaiswal/hyperliquid-position/pkg/format"
	"github.com/satishjaiswal/hyperliquid-position/pkg/hyperliquid"
	"github.com/satishjaiswal/hyperliquid-position/pkg/monitor"
	"github.com/satishjaiswal/hyperliquid-position/pkg/service"
	"github.com/satishjaiswal/hyperliquid-position/pkg/telegram"
)

var (
	cfgFile string
	logger  *logrus.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "hyperliquid-monitor",
		Short: "Hyperliquid position monitor",
		Long:  `Polls a wallet's Hyperliquid positions, margin state, fills and orders, and delivers reports to Telegram on a schedule and on demand`,
		Run:   runMonitor,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runMonitor(cmd *cobra.Command, args []string) {
	// Initialize logger
	logger = logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	// Load configuration
	cfg, err := config.Load(cfgFile)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	// Set log level
	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		logger.WithError(err).Error("Invalid log level, using INFO")
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	if cfg.Logging.Format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize clients
	exchangeClient := hyperliquid.NewInfoClient(
		cfg.Exchange.BaseURL,
		cfg.Wallet.Address,
		cfg.Exchange.Timeout(),
		logger,
	)

	telegramClient := telegram.NewClient(
		"",
		cfg.Telegram.BotToken,
		cfg.Telegram.ChatID,
		cfg.Exchange.Timeout(),
		logger,
	)

	// Startup connectivity probes; a failed probe is logged, not fatal,
	// because the retry cadence recovers transient outages.
	if err := exchangeClient.Ping(ctx); err != nil {
		logger.WithError(err).Warn("Exchange connectivity probe failed")
	} else {
		logger.Info("Exchange connectivity probe passed")
	}
	if err := telegramClient.Ping(ctx); err != nil {
		logger.WithError(err).Warn("Telegram connectivity probe failed")
	} else {
		logger.Info("Telegram connectivity probe passed")
	}

	// Shared freshness cache and fetch orchestrator
	dataCache := cache.New(cfg.Cache.TTL(), logger)
	positionService := service.New(exchangeClient, dataCache, logger)

	// Scheduled monitor loop
	console := format.ConsoleWriter{Out: os.Stdout}
	positionMonitor := monitor.New(
		positionService,
		telegramClient,
		console,
		cfg.Monitor.RefreshInterval(),
		cfg.Monitor.RetryDelay(),
		logger,
	)
	go positionMonitor.Run(ctx)

	// Interactive command bot
	commandBot := bot.New(
		telegramClient,
		positionService,
		exchangeClient,
		cfg.Monitor.PriceSymbols,
		cfg.Monitor.RefreshInterval(),
		logger,
	)
	go commandBot.Run(ctx)

	// Operational API server
	apiServer := api.NewServer(positionService, logger, fmt.Sprintf("%d", cfg.Server.Port))
	go func() {
		if err := apiServer.Start(); err != nil {
			logger.WithError(err).Fatal("Failed to start API server")
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("Hyperliquid monitor is running. Press Ctrl+C to stop.")

	<-sigChan
	logger.Info("Received shutdown signal")

	cancel()

	logger.Info("Hyperliquid monitor stopped")
}
