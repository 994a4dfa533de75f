package domain

import (
	"context"
	"time"

	marketdomain "github.com/wyfcoding/optionsim/internal/market/domain"
)

// StrategyRepository 策略仓储接口，查询结果携带全部腿
type StrategyRepository interface {
	Save(ctx context.Context, s *Strategy) error
	GetByID(ctx context.Context, id string) (*Strategy, error)
	List(ctx context.Context) ([]Strategy, error)
	Delete(ctx context.Context, id string) error
}

// BacktestRepository 回测仓储接口
type BacktestRepository interface {
	Save(ctx context.Context, b *Backtest) error
	GetByID(ctx context.Context, id string) (*Backtest, error)
	List(ctx context.Context, strategyID string) ([]Backtest, error)
	// TransitionStatus 原子条件更新：仅当当前状态为 from 时置为 to，
	// 返回转移是否生效。保证同一回测至多执行一次。
	TransitionStatus(ctx context.Context, id string, from, to BacktestStatus, errorMessage string) (bool, error)
}

// TradeRepository 交易仓储接口
// Save 持久化交易及其腿并回填生成的 ID。
type TradeRepository interface {
	Save(ctx context.Context, t *Trade) error
	UpdateOnExit(ctx context.Context, t *Trade) error
	ListClosed(ctx context.Context, backtestID string) ([]Trade, error)
	ListByBacktest(ctx context.Context, backtestID string) ([]Trade, error)
}

// MetricsRepository 绩效指标仓储接口，重算覆盖旧记录
type MetricsRepository interface {
	Replace(ctx context.Context, m *PerformanceMetrics) error
	GetByBacktestID(ctx context.Context, backtestID string) (*PerformanceMetrics, error)
}

// MetricsReadModel 带缓存的指标读模型
// Refresh 显式回源重建指定回测的缓存，不依赖读路径的旁路填充。
type MetricsReadModel interface {
	MetricsRepository
	Refresh(ctx context.Context, backtestID string) error
}

// MarketDataSource 行情数据源端口
// 现价缺失返回 ok=false；期权报价缺失返回 (nil, nil)。
// 两者都是可恢复条件，由引擎决定跳过当笔交易。
type MarketDataSource interface {
	SpotPrice(ctx context.Context, date time.Time) (price float64, ok bool, err error)
	OptionQuote(ctx context.Context, strike float64, optType marketdomain.OptionType, asOf, expiry time.Time) (*marketdomain.OptionQuote, error)
}

// EventPublisher 回测生命周期事件发布接口
type EventPublisher interface {
	PublishBacktestStarted(ctx context.Context, event BacktestStartedEvent) error
	PublishBacktestCompleted(ctx context.Context, event BacktestCompletedEvent) error
	PublishBacktestFailed(ctx context.Context, event BacktestFailedEvent) error
}
