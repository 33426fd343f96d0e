package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"OptionSentinel/internal/broker"
	"OptionSentinel/internal/collector"
	"OptionSentinel/internal/config"
	"OptionSentinel/internal/notifier"
	"OptionSentinel/internal/recorder"
	"OptionSentinel/internal/strategy"
	"OptionSentinel/internal/trader"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] OptionSentinel starting...")

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	// Init brokerage gateway and Greeks source
	gateway := broker.NewAngelGateway(cfg.Broker.BaseURL, cfg.Broker.APIKey, cfg.Proxy)
	greeks := collector.NewNSEGreeksSource(cfg.Proxy)
	log.Printf("[INFO] greeks source: %s", greeks.Name())

	// Init collector and signal engine
	col := collector.NewCollector(gateway, greeks, cfg)
	engine := strategy.NewEngine(cfg.Thresholds, cfg.TradingHours)

	// Init Telegram notifier
	tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init the live runner
	runner := trader.NewRunner(ctx, col, engine, gateway, tn, rec, cfg)
	if err := runner.Register(); err != nil {
		log.Fatalf("[FATAL] register evaluation task: %v", err)
	}
	runner.Start()
	defer runner.Stop()

	// Optional: run immediately on start
	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, evaluating now")
		go runner.EvaluateOnce()
	}

	log.Println("[INFO] OptionSentinel is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	cancel()
	log.Println("[INFO] OptionSentinel stopped")
}
