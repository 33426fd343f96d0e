package backtest

import (
	"math"

	"OptionSentinel/internal/model"
)

// ComputeMetrics derives the performance summary from the trade and equity
// sequences. Pure: it recomputes everything wholesale and never keeps
// running state between calls.
func ComputeMetrics(trades []model.Trade, equity []model.EquityPoint, initialCapital, finalCapital float64) model.PerformanceMetrics {
	m := model.PerformanceMetrics{
		InitialCapital: initialCapital,
		FinalCapital:   finalCapital,
		TotalTrades:    len(trades),
	}
	if initialCapital != 0 {
		m.TotalReturnPercent = (finalCapital - initialCapital) / initialCapital * 100
	}

	var totalProfit, totalLoss float64
	for _, t := range trades {
		if t.PnL > 0 {
			m.WinningTrades++
			totalProfit += t.PnL
		} else {
			m.LosingTrades++
			totalLoss += -t.PnL
		}
	}
	if m.TotalTrades > 0 {
		m.WinRate = float64(m.WinningTrades) / float64(m.TotalTrades) * 100
	}
	if m.WinningTrades > 0 {
		m.AvgProfit = totalProfit / float64(m.WinningTrades)
	}
	if m.LosingTrades > 0 {
		m.AvgLoss = -totalLoss / float64(m.LosingTrades)
	}

	switch {
	case totalLoss > 0:
		m.ProfitFactor = totalProfit / totalLoss
	case totalProfit > 0:
		m.ProfitFactor = math.Inf(1)
	default:
		m.ProfitFactor = 0
	}

	m.MaxDrawdownPercent = maxDrawdown(equity)
	m.SharpeRatio = sharpeRatio(equity)
	return m
}

// maxDrawdown is the largest peak-to-trough equity decline, as a positive
// percentage of the peak.
func maxDrawdown(equity []model.EquityPoint) float64 {
	var worst, peak float64
	for i, p := range equity {
		if i == 0 || p.Equity > peak {
			peak = p.Equity
		}
		if peak <= 0 {
			continue
		}
		dd := (p.Equity - peak) / peak * 100
		if dd < worst {
			worst = dd
		}
	}
	return math.Abs(worst)
}

// sharpeRatio annualizes bar-level equity returns by sqrt(252). The name
// follows the daily-returns convention even though the bars are intraday.
// Returns 0 with fewer than 2 equity points or zero variance.
func sharpeRatio(equity []model.EquityPoint) float64 {
	if len(equity) < 2 {
		return 0
	}
	returns := make([]float64, 0, len(equity)-1)
	for i := 1; i < len(equity); i++ {
		if equity[i-1].Equity == 0 {
			continue
		}
		returns = append(returns, equity[i].Equity/equity[i-1].Equity-1)
	}
	if len(returns) < 2 {
		return 0
	}

	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean := sum / float64(len(returns))

	var variance float64
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	variance /= float64(len(returns) - 1)
	if variance == 0 {
		return 0
	}
	return math.Sqrt(252) * mean / math.Sqrt(variance)
}
