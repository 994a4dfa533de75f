package domain

import (
	"math"
	"sort"
	"time"
)

// 年化假设：一年按 252 个交易期计，Sharpe 与 Sortino 保持一致。
const tradingPeriodsPerYear = 252

// PerformanceMetrics 回测绩效指标
// Sharpe/Sortino/ProfitFactor 在样本不足或分母为零时为 nil，而非 NaN。
type PerformanceMetrics struct {
	BacktestID     string    `json:"backtest_id"`
	TotalTrades    int       `json:"total_trades"`
	WinningTrades  int       `json:"winning_trades"`
	LosingTrades   int       `json:"losing_trades"`
	WinRate        float64   `json:"win_rate"`
	TotalPnL       float64   `json:"total_pnl"`
	AvgPnLPerTrade float64   `json:"avg_pnl_per_trade"`
	MaxProfit      float64   `json:"max_profit"`
	MaxLoss        float64   `json:"max_loss"`
	MaxDrawdown    float64   `json:"max_drawdown"`
	MaxDrawdownPct float64   `json:"max_drawdown_pct"`
	SharpeRatio    *float64  `json:"sharpe_ratio"`
	SortinoRatio   *float64  `json:"sortino_ratio"`
	ProfitFactor   *float64  `json:"profit_factor"`
	AvgHoldingDays float64   `json:"avg_holding_days"`
	FinalCapital   float64   `json:"final_capital"`
	TotalReturnPct float64   `json:"total_return_pct"`
	CreatedAt      time.Time `json:"created_at"`
}

// MetricsCalculator 绩效指标计算器
type MetricsCalculator struct {
	riskFreeRate float64
}

func NewMetricsCalculator(riskFreeRate float64) *MetricsCalculator {
	return &MetricsCalculator{riskFreeRate: riskFreeRate}
}

// Calculate 将已平仓交易归约为绩效指标
// 空交易集返回全零记录（比率为 nil），不视为错误。
func (c *MetricsCalculator) Calculate(backtestID string, trades []Trade, initialCapital float64) PerformanceMetrics {
	metrics := PerformanceMetrics{
		BacktestID:   backtestID,
		FinalCapital: initialCapital,
	}
	if len(trades) == 0 {
		return metrics
	}

	// 回撤序列依赖入场时间顺序
	ordered := make([]Trade, len(trades))
	copy(ordered, trades)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].EntryDate.Before(ordered[j].EntryDate) })

	pnls := make([]float64, 0, len(ordered))
	var holdingSum float64
	var holdingCount int
	for _, t := range ordered {
		var pnl float64
		if t.PnL != nil {
			pnl = *t.PnL
		}
		pnls = append(pnls, pnl)

		switch {
		case pnl > 0:
			metrics.WinningTrades++
		case pnl < 0:
			metrics.LosingTrades++
		}
		if t.HoldingDays != nil {
			holdingSum += float64(*t.HoldingDays)
			holdingCount++
		}
	}

	metrics.TotalTrades = len(pnls)
	metrics.WinRate = float64(metrics.WinningTrades) / float64(metrics.TotalTrades) * 100

	var grossProfit, grossLoss float64
	metrics.MaxProfit = pnls[0]
	metrics.MaxLoss = pnls[0]
	for _, pnl := range pnls {
		metrics.TotalPnL += pnl
		metrics.MaxProfit = math.Max(metrics.MaxProfit, pnl)
		metrics.MaxLoss = math.Min(metrics.MaxLoss, pnl)
		if pnl > 0 {
			grossProfit += pnl
		} else if pnl < 0 {
			grossLoss += -pnl
		}
	}
	metrics.AvgPnLPerTrade = metrics.TotalPnL / float64(metrics.TotalTrades)

	// 最大回撤：累计盈亏相对滚动峰值的最大跌幅，报告为非正数
	// 峰值取自累计序列本身，开局即亏损不构成回撤
	var cumulative, maxDrawdown float64
	runningMax := math.Inf(-1)
	for _, pnl := range pnls {
		cumulative += pnl
		runningMax = math.Max(runningMax, cumulative)
		maxDrawdown = math.Max(maxDrawdown, runningMax-cumulative)
	}
	metrics.MaxDrawdown = -maxDrawdown
	if initialCapital > 0 {
		metrics.MaxDrawdownPct = -maxDrawdown / initialCapital * 100
	}

	if grossLoss > 0 {
		pf := grossProfit / grossLoss
		metrics.ProfitFactor = &pf
	}

	metrics.SharpeRatio = c.sharpeRatio(pnls)
	metrics.SortinoRatio = c.sortinoRatio(pnls)

	if holdingCount > 0 {
		metrics.AvgHoldingDays = holdingSum / float64(holdingCount)
	}
	metrics.FinalCapital = initialCapital + metrics.TotalPnL
	if initialCapital > 0 {
		metrics.TotalReturnPct = metrics.TotalPnL / initialCapital * 100
	}

	return metrics
}

// sharpeRatio 以单笔盈亏为收益观测，样本不足两笔或方差为零时为 nil
func (c *MetricsCalculator) sharpeRatio(pnls []float64) *float64 {
	if len(pnls) < 2 {
		return nil
	}
	std := sampleStd(pnls)
	if std == 0 {
		return nil
	}
	dailyRiskFree := c.riskFreeRate / tradingPeriodsPerYear
	sharpe := (mean(pnls) - dailyRiskFree) / std * math.Sqrt(tradingPeriodsPerYear)
	return &sharpe
}

// sortinoRatio 分母改用亏损子集的样本标准差，无亏损交易时为 nil
func (c *MetricsCalculator) sortinoRatio(pnls []float64) *float64 {
	if len(pnls) < 2 {
		return nil
	}
	var losses []float64
	for _, pnl := range pnls {
		if pnl < 0 {
			losses = append(losses, pnl)
		}
	}
	if len(losses) == 0 {
		return nil
	}
	downsideDev := sampleStd(losses)
	if downsideDev == 0 {
		return nil
	}
	dailyRiskFree := c.riskFreeRate / tradingPeriodsPerYear
	sortino := (mean(pnls) - dailyRiskFree) / downsideDev * math.Sqrt(tradingPeriodsPerYear)
	return &sortino
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// sampleStd 样本标准差（ddof=1），单元素样本返回 0
func sampleStd(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	var sum float64
	for _, v := range values {
		sum += (v - m) * (v - m)
	}
	return math.Sqrt(sum / float64(len(values)-1))
}
