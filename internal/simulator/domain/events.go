package domain

import "time"

// 回测生命周期事件主题
const (
	BacktestStartedTopic   = "backtest.started"
	BacktestCompletedTopic = "backtest.completed"
	BacktestFailedTopic    = "backtest.failed"
)

// BacktestStartedEvent 回测开始事件
type BacktestStartedEvent struct {
	BacktestID string    `json:"backtest_id"`
	StrategyID string    `json:"strategy_id"`
	StartDate  time.Time `json:"start_date"`
	EndDate    time.Time `json:"end_date"`
	OccurredOn time.Time `json:"occurred_on"`
}

// BacktestCompletedEvent 回测完成事件
type BacktestCompletedEvent struct {
	BacktestID  string    `json:"backtest_id"`
	StrategyID  string    `json:"strategy_id"`
	TotalTrades int       `json:"total_trades"`
	TotalPnL    float64   `json:"total_pnl"`
	OccurredOn  time.Time `json:"occurred_on"`
}

// BacktestFailedEvent 回测失败事件
type BacktestFailedEvent struct {
	BacktestID string    `json:"backtest_id"`
	StrategyID string    `json:"strategy_id"`
	Error      string    `json:"error"`
	OccurredOn time.Time `json:"occurred_on"`
}
