package domain

import (
	"errors"
	"fmt"
	"time"
)

// BacktestStatus 回测状态机：PENDING -> RUNNING -> {COMPLETED | FAILED}
type BacktestStatus string

const (
	BacktestStatusPending   BacktestStatus = "PENDING"
	BacktestStatusRunning   BacktestStatus = "RUNNING"
	BacktestStatusCompleted BacktestStatus = "COMPLETED"
	BacktestStatusFailed    BacktestStatus = "FAILED"
)

// EntryLogic 入场规则
type EntryLogic string

const (
	EntryOnDate  EntryLogic = "ON_DATE" // 仅在起始日入场一次
	EntryDaily   EntryLogic = "DAILY"   // 每个交易日入场
	EntryWeekly  EntryLogic = "WEEKLY"  // 每周一入场
	EntryMonthly EntryLogic = "MONTHLY" // 每月首日入场
)

// Valid 校验入场规则取值
func (e EntryLogic) Valid() bool {
	switch e {
	case EntryOnDate, EntryDaily, EntryWeekly, EntryMonthly:
		return true
	}
	return false
}

// ExitLogic 出场规则
// 目前引擎只实现 ON_EXPIRY；其余取值在配置层被接受，
// 但按日重估的止损/止盈/持仓天数路径尚未实现。
type ExitLogic string

const (
	ExitOnExpiry ExitLogic = "ON_EXPIRY"
	ExitStopLoss ExitLogic = "STOP_LOSS"
	ExitTarget   ExitLogic = "TARGET"
	ExitDays     ExitLogic = "DAYS"
)

// Valid 校验出场规则取值
func (e ExitLogic) Valid() bool {
	switch e {
	case ExitOnExpiry, ExitStopLoss, ExitTarget, ExitDays:
		return true
	}
	return false
}

// Implemented 返回该出场规则是否已有独立的模拟路径
func (e ExitLogic) Implemented() bool {
	return e == ExitOnExpiry
}

// Backtest 回测配置实体
type Backtest struct {
	ID             string         `json:"id"`
	StrategyID     string         `json:"strategy_id"`
	Name           string         `json:"name"`
	StartDate      time.Time      `json:"start_date"`
	EndDate        time.Time      `json:"end_date"`
	InitialCapital float64        `json:"initial_capital"`
	EntryLogic     EntryLogic     `json:"entry_logic"`
	ExitLogic      ExitLogic      `json:"exit_logic"`
	StopLossPct    *float64       `json:"stop_loss_pct,omitempty"`
	TargetPct      *float64       `json:"target_pct,omitempty"`
	MaxHoldingDays *int           `json:"max_holding_days,omitempty"`
	Status         BacktestStatus `json:"status"`
	ErrorMessage   string         `json:"error_message,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	StartedAt      *time.Time     `json:"started_at,omitempty"`
	CompletedAt    *time.Time     `json:"completed_at,omitempty"`
}

// NewBacktest 创建回测配置并校验不变量
func NewBacktest(id, strategyID, name string, start, end time.Time, initialCapital float64,
	entryLogic EntryLogic, exitLogic ExitLogic, stopLossPct, targetPct *float64, maxHoldingDays *int) (*Backtest, error) {
	if strategyID == "" {
		return nil, errors.New("strategy id is required")
	}
	if name == "" {
		return nil, errors.New("backtest name is required")
	}
	if end.Before(start) {
		return nil, errors.New("end date must be >= start date")
	}
	if initialCapital <= 0 {
		return nil, errors.New("initial capital must be positive")
	}
	if !entryLogic.Valid() {
		return nil, fmt.Errorf("invalid entry logic %q", entryLogic)
	}
	if !exitLogic.Valid() {
		return nil, fmt.Errorf("invalid exit logic %q", exitLogic)
	}
	if stopLossPct != nil && (*stopLossPct <= 0 || *stopLossPct > 100) {
		return nil, errors.New("stop loss pct must be in (0, 100]")
	}
	if targetPct != nil && *targetPct <= 0 {
		return nil, errors.New("target pct must be positive")
	}
	if maxHoldingDays != nil && (*maxHoldingDays <= 0 || *maxHoldingDays > 365) {
		return nil, errors.New("max holding days must be in (0, 365]")
	}

	return &Backtest{
		ID:             id,
		StrategyID:     strategyID,
		Name:           name,
		StartDate:      start,
		EndDate:        end,
		InitialCapital: initialCapital,
		EntryLogic:     entryLogic,
		ExitLogic:      exitLogic,
		StopLossPct:    stopLossPct,
		TargetPct:      targetPct,
		MaxHoldingDays: maxHoldingDays,
		Status:         BacktestStatusPending,
	}, nil
}
