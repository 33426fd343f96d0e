package notifier

import (
	"fmt"
	"math"
	"strings"

	"OptionSentinel/internal/model"
	"OptionSentinel/internal/strategy"

	"github.com/dustin/go-humanize"
)

// FormatSignalAlert formats a fired signal with its filter rationale.
func FormatSignalAlert(symbol string, ev strategy.Evaluation, orderID string) string {
	var b strings.Builder

	icon := "🟢"
	if ev.Signal == model.SignalSell {
		icon = "🔴"
	}
	b.WriteString(fmt.Sprintf("%s <b>%s %s</b> @ %.2f\n", icon, symbol, ev.Signal, ev.Price))
	b.WriteString(fmt.Sprintf("%s\n\n", ev.Time.Format("2006-01-02 15:04")))

	for _, f := range ev.Filters {
		b.WriteString(fmt.Sprintf("• %s: %s\n", f.Name, f.Commentary))
	}
	if orderID != "" {
		b.WriteString(fmt.Sprintf("\nOrder ID: %s\n", orderID))
	}
	return b.String()
}

// FormatBacktestSummary renders the performance metrics of one run.
func FormatBacktestSummary(symbol string, m model.PerformanceMetrics) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>%s backtest</b>\n\n", symbol))
	b.WriteString(fmt.Sprintf("Capital: %s → %s (%+.2f%%)\n",
		humanize.CommafWithDigits(m.InitialCapital, 2),
		humanize.CommafWithDigits(m.FinalCapital, 2),
		m.TotalReturnPercent))
	b.WriteString(fmt.Sprintf("Trades: %d (%d won / %d lost, win rate %.1f%%)\n",
		m.TotalTrades, m.WinningTrades, m.LosingTrades, m.WinRate))
	b.WriteString(fmt.Sprintf("Avg profit: %.2f | Avg loss: %.2f\n", m.AvgProfit, m.AvgLoss))
	b.WriteString(fmt.Sprintf("Profit factor: %s\n", formatProfitFactor(m.ProfitFactor)))
	b.WriteString(fmt.Sprintf("Max drawdown: %.2f%%\n", m.MaxDrawdownPercent))
	b.WriteString(fmt.Sprintf("Sharpe ratio: %.2f\n", m.SharpeRatio))
	return b.String()
}

func formatProfitFactor(pf float64) string {
	if math.IsInf(pf, 1) {
		return "∞ (no losing trades)"
	}
	return fmt.Sprintf("%.2f", pf)
}
