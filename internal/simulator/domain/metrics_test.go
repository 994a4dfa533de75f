package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func closedTrade(n int, entry time.Time, pnl float64, holdingDays int) Trade {
	return Trade{
		ID:          "TRD-1",
		BacktestID:  "BT-1",
		TradeNumber: n,
		EntryDate:   entry,
		PnL:         &pnl,
		HoldingDays: &holdingDays,
		Status:      TradeStatusClosed,
	}
}

func TestCalculateBasicMetrics(t *testing.T) {
	calc := NewMetricsCalculator(0.065)
	base := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	trades := []Trade{
		closedTrade(1, base, 1000, 6),
		closedTrade(2, base.AddDate(0, 0, 7), -500, 6),
		closedTrade(3, base.AddDate(0, 0, 14), 2000, 6),
	}

	m := calc.Calculate("BT-1", trades, 100000)

	assert.Equal(t, 3, m.TotalTrades)
	assert.Equal(t, 2, m.WinningTrades)
	assert.Equal(t, 1, m.LosingTrades)
	assert.InDelta(t, 66.67, m.WinRate, 0.01)
	assert.InDelta(t, 2500, m.TotalPnL, 1e-9)
	assert.InDelta(t, 833.33, m.AvgPnLPerTrade, 0.01)
	assert.InDelta(t, 2000, m.MaxProfit, 1e-9)
	assert.InDelta(t, -500, m.MaxLoss, 1e-9)
	assert.InDelta(t, 102500, m.FinalCapital, 1e-9)
	assert.InDelta(t, 2.5, m.TotalReturnPct, 1e-9)
	assert.InDelta(t, 6, m.AvgHoldingDays, 1e-9)
}

func TestCalculateMaxDrawdown(t *testing.T) {
	calc := NewMetricsCalculator(0.065)
	base := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	trades := []Trade{
		closedTrade(1, base, 1000, 1),
		closedTrade(2, base.AddDate(0, 0, 1), -500, 1),
		closedTrade(3, base.AddDate(0, 0, 2), 2000, 1),
	}

	m := calc.Calculate("BT-1", trades, 100000)

	// 峰值 1000 回落到 500，回撤 500，以负数报告
	assert.InDelta(t, -500, m.MaxDrawdown, 1e-9)
	assert.InDelta(t, -0.5, m.MaxDrawdownPct, 1e-9)
	assert.LessOrEqual(t, m.MaxDrawdown, 0.0)
}

func TestCalculateMaxDrawdownLeadingLoss(t *testing.T) {
	calc := NewMetricsCalculator(0.065)
	base := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

	// 开局亏损：累计序列 [-500, 500] 的滚动峰值是序列自身，
	// 首笔亏损不是从峰值的回落，回撤为 0
	m := calc.Calculate("BT-1", []Trade{
		closedTrade(1, base, -500, 1),
		closedTrade(2, base.AddDate(0, 0, 1), 1000, 1),
	}, 100000)
	assert.Zero(t, m.MaxDrawdown)
	assert.Zero(t, m.MaxDrawdownPct)

	// 连续亏损：峰值停在首笔后的 -500，跌至 -1200，回撤 700
	m = calc.Calculate("BT-1", []Trade{
		closedTrade(1, base, -500, 1),
		closedTrade(2, base.AddDate(0, 0, 1), -700, 1),
	}, 100000)
	assert.InDelta(t, -700, m.MaxDrawdown, 1e-9)
}

func TestCalculateSortsTradesByEntryDate(t *testing.T) {
	calc := NewMetricsCalculator(0.065)
	base := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	// 乱序传入：回撤序列必须按入场时间重排后计算
	trades := []Trade{
		closedTrade(3, base.AddDate(0, 0, 2), 2000, 1),
		closedTrade(1, base, 1000, 1),
		closedTrade(2, base.AddDate(0, 0, 1), -500, 1),
	}

	m := calc.Calculate("BT-1", trades, 100000)
	assert.InDelta(t, -500, m.MaxDrawdown, 1e-9)
}

func TestCalculateProfitFactor(t *testing.T) {
	calc := NewMetricsCalculator(0.065)
	base := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	trades := []Trade{
		closedTrade(1, base, 1000, 1),
		closedTrade(2, base.AddDate(0, 0, 1), -500, 1),
		closedTrade(3, base.AddDate(0, 0, 2), 2000, 1),
	}

	m := calc.Calculate("BT-1", trades, 100000)
	require.NotNil(t, m.ProfitFactor)
	assert.InDelta(t, 6.0, *m.ProfitFactor, 1e-9)
}

func TestCalculateProfitFactorNilWithoutLosses(t *testing.T) {
	calc := NewMetricsCalculator(0.065)
	base := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	trades := []Trade{
		closedTrade(1, base, 1000, 1),
		closedTrade(2, base.AddDate(0, 0, 1), 2000, 1),
	}

	m := calc.Calculate("BT-1", trades, 100000)
	assert.Nil(t, m.ProfitFactor)
	assert.Nil(t, m.SortinoRatio)
}

func TestCalculateSharpeRatio(t *testing.T) {
	calc := NewMetricsCalculator(0.065)
	base := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	trades := []Trade{
		closedTrade(1, base, 1000, 1),
		closedTrade(2, base.AddDate(0, 0, 1), -500, 1),
		closedTrade(3, base.AddDate(0, 0, 2), 2000, 1),
	}

	m := calc.Calculate("BT-1", trades, 100000)
	require.NotNil(t, m.SharpeRatio)
	// mean=833.33, 样本标准差约 1258.3，年化系数 sqrt(252)
	assert.InDelta(t, 10.51, *m.SharpeRatio, 0.05)
	// 单笔亏损样本不足以估计下行波动
	assert.Nil(t, m.SortinoRatio)
}

func TestCalculateRatiosNilForSmallSamples(t *testing.T) {
	calc := NewMetricsCalculator(0.065)
	base := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

	m := calc.Calculate("BT-1", []Trade{closedTrade(1, base, 1000, 1)}, 100000)
	assert.Nil(t, m.SharpeRatio)
	assert.Nil(t, m.SortinoRatio)

	// 所有盈亏相同，方差为零
	m = calc.Calculate("BT-1", []Trade{
		closedTrade(1, base, 500, 1),
		closedTrade(2, base.AddDate(0, 0, 1), 500, 1),
	}, 100000)
	assert.Nil(t, m.SharpeRatio)
}

func TestCalculateEmptyTrades(t *testing.T) {
	calc := NewMetricsCalculator(0.065)

	m := calc.Calculate("BT-1", nil, 100000)

	assert.Equal(t, "BT-1", m.BacktestID)
	assert.Equal(t, 0, m.TotalTrades)
	assert.Zero(t, m.TotalPnL)
	assert.Zero(t, m.WinRate)
	assert.InDelta(t, 100000, m.FinalCapital, 1e-9)
	assert.Nil(t, m.SharpeRatio)
	assert.Nil(t, m.SortinoRatio)
	assert.Nil(t, m.ProfitFactor)
}

func TestCalculateZeroPnLIsNeitherWinNorLoss(t *testing.T) {
	calc := NewMetricsCalculator(0.065)
	base := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	trades := []Trade{
		closedTrade(1, base, 0, 1),
		closedTrade(2, base.AddDate(0, 0, 1), 100, 1),
	}

	m := calc.Calculate("BT-1", trades, 100000)
	assert.Equal(t, 2, m.TotalTrades)
	assert.Equal(t, 1, m.WinningTrades)
	assert.Equal(t, 0, m.LosingTrades)
	assert.InDelta(t, 50.0, m.WinRate, 1e-9)
}
