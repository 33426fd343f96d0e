package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"OptionSentinel/internal/backtest"
	"OptionSentinel/internal/broker"
	"OptionSentinel/internal/config"
	"OptionSentinel/internal/model"
	"OptionSentinel/internal/recorder"
	"OptionSentinel/internal/strategy"

	"github.com/dustin/go-humanize"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	var (
		startArg  = flag.String("start", "", "start date (YYYY-MM-DD)")
		endArg    = flag.String("end", "", "end date (YYYY-MM-DD)")
		symbolArg = flag.String("symbol", "", "symbol to backtest (default from config)")
		cfgArg    = flag.String("config", "configs/config.yaml", "path to config file")
		outArg    = flag.String("out", "backtest_results", "output directory for result files")
		seedArg   = flag.Int64("seed", -1, "synthetic Greeks seed (-1 keeps the configured seed)")
	)
	flag.Parse()

	if *startArg == "" || *endArg == "" {
		log.Fatal("[FATAL] -start and -end are required")
	}
	start, err := time.Parse("2006-01-02", *startArg)
	if err != nil {
		log.Fatalf("[FATAL] parse -start: %v", err)
	}
	end, err := time.Parse("2006-01-02", *endArg)
	if err != nil {
		log.Fatalf("[FATAL] parse -end: %v", err)
	}

	cfg, err := config.Load(*cfgArg)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if *symbolArg != "" {
		cfg.DataSource.Symbol = *symbolArg
	}
	if *seedArg >= 0 {
		cfg.Backtest.Seed = *seedArg
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	gateway := broker.NewAngelGateway(cfg.Broker.BaseURL, cfg.Broker.APIKey, cfg.Proxy)
	log.Printf("[INFO] fetching %s candles for %s from %s to %s",
		cfg.DataSource.Interval, cfg.DataSource.Symbol, *startArg, *endArg)
	candles, err := gateway.FetchHistoricalCandles(context.Background(),
		cfg.DataSource.Symbol, cfg.DataSource.Exchange, cfg.DataSource.Interval, start, end)
	if err != nil {
		log.Fatalf("[FATAL] fetch candles: %v", err)
	}
	log.Printf("[INFO] fetched %d candles", len(candles))

	engine := strategy.NewEngine(cfg.Thresholds, cfg.TradingHours)
	sim := backtest.NewSimulator(cfg, engine)
	result, err := sim.Run(candles)
	if err != nil {
		log.Fatalf("[FATAL] backtest: %v", err)
	}

	printSummary(cfg.DataSource.Symbol, result.Metrics)

	prefix := fmt.Sprintf("backtest_%s_%s_%s", cfg.DataSource.Symbol,
		start.Format("20060102"), end.Format("20060102"))
	if err := writeResults(*outArg, prefix, result); err != nil {
		log.Fatalf("[FATAL] write results: %v", err)
	}
	log.Printf("[INFO] results saved to %s/%s_*.json/csv", *outArg, prefix)

	if cfg.Database.SQLitePath != "" {
		rec, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder: %v", err)
			return
		}
		defer rec.Close()
		runID, err := rec.RecordBacktest(&recorder.BacktestRun{
			Symbol:     cfg.DataSource.Symbol,
			Interval:   cfg.DataSource.Interval,
			StartedAt:  start,
			FinishedAt: end,
			Metrics:    result.Metrics,
			Trades:     result.Trades,
			Equity:     result.EquityCurve,
		})
		if err != nil {
			log.Printf("[ERROR] record backtest run: %v", err)
			return
		}
		log.Printf("[INFO] run recorded, id=%s", runID)
	}
}

func printSummary(symbol string, m model.PerformanceMetrics) {
	fmt.Printf("\nBacktest summary for %s\n", symbol)
	fmt.Printf("  initial capital:  %s\n", humanize.CommafWithDigits(m.InitialCapital, 2))
	fmt.Printf("  final capital:    %s\n", humanize.CommafWithDigits(m.FinalCapital, 2))
	fmt.Printf("  total return:     %+.2f%%\n", m.TotalReturnPercent)
	fmt.Printf("  trades:           %d (%d won / %d lost)\n", m.TotalTrades, m.WinningTrades, m.LosingTrades)
	fmt.Printf("  win rate:         %.1f%%\n", m.WinRate)
	fmt.Printf("  avg profit/loss:  %.2f / %.2f\n", m.AvgProfit, m.AvgLoss)
	if math.IsInf(m.ProfitFactor, 1) {
		fmt.Printf("  profit factor:    inf\n")
	} else {
		fmt.Printf("  profit factor:    %.2f\n", m.ProfitFactor)
	}
	fmt.Printf("  max drawdown:     %.2f%%\n", m.MaxDrawdownPercent)
	fmt.Printf("  sharpe ratio:     %.2f\n", m.SharpeRatio)
}

func writeResults(dir, prefix string, result *backtest.Result) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := writeMetricsJSON(filepath.Join(dir, prefix+"_metrics.json"), result.Metrics); err != nil {
		return err
	}
	if err := writeTradesCSV(filepath.Join(dir, prefix+"_trades.csv"), result.Trades); err != nil {
		return err
	}
	return writeEquityCSV(filepath.Join(dir, prefix+"_equity.csv"), result.EquityCurve)
}

func writeMetricsJSON(path string, m model.PerformanceMetrics) error {
	// encoding/json cannot represent an infinite profit factor, so it is
	// serialized as a string in that case.
	var profitFactor interface{} = m.ProfitFactor
	if math.IsInf(m.ProfitFactor, 1) {
		profitFactor = "inf"
	}
	payload := map[string]interface{}{
		"initial_capital":      m.InitialCapital,
		"final_capital":        m.FinalCapital,
		"total_return_percent": m.TotalReturnPercent,
		"total_trades":         m.TotalTrades,
		"winning_trades":       m.WinningTrades,
		"losing_trades":        m.LosingTrades,
		"win_rate":             m.WinRate,
		"avg_profit":           m.AvgProfit,
		"avg_loss":             m.AvgLoss,
		"profit_factor":        profitFactor,
		"max_drawdown_percent": m.MaxDrawdownPercent,
		"sharpe_ratio":         m.SharpeRatio,
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal metrics: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

func writeTradesCSV(path string, trades []model.Trade) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create trades csv: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"entry_time", "exit_time", "entry_price", "exit_price", "direction", "pnl", "pnl_percent", "exit_reason"}); err != nil {
		return err
	}
	for _, t := range trades {
		row := []string{
			t.EntryTime.Format(time.RFC3339),
			t.ExitTime.Format(time.RFC3339),
			formatFloat(t.EntryPrice),
			formatFloat(t.ExitPrice),
			string(t.Direction),
			formatFloat(t.PnL),
			formatFloat(t.PnLPercent),
			string(t.ExitReason),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}

func writeEquityCSV(path string, equity []model.EquityPoint) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create equity csv: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"timestamp", "equity"}); err != nil {
		return err
	}
	for _, p := range equity {
		if err := w.Write([]string{p.Time.Format(time.RFC3339), formatFloat(p.Equity)}); err != nil {
			return err
		}
	}
	return w.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
