package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/wyfcoding/pkg/idgen"

	marketdomain "github.com/wyfcoding/optionsim/internal/market/domain"
	"github.com/wyfcoding/optionsim/internal/simulator/domain"
)

var (
	ErrStrategyNotFound = errors.New("strategy not found")
	ErrBacktestNotFound = errors.New("backtest not found")
	ErrMetricsNotFound  = errors.New("metrics not found")
)

// CreateStrategyCommand 创建策略命令
type CreateStrategyCommand struct {
	Name         string
	StrategyType string
	Description  string
	Legs         []CreateLegCommand
}

// CreateLegCommand 创建策略腿命令
type CreateLegCommand struct {
	Action       string
	OptionType   string
	StrikeOffset int
	Quantity     int
	LegOrder     int
	ExpiryOffset int
}

// CreateBacktestCommand 创建回测命令
type CreateBacktestCommand struct {
	StrategyID     string
	Name           string
	StartDate      time.Time
	EndDate        time.Time
	InitialCapital float64
	EntryLogic     string
	ExitLogic      string
	StopLossPct    *float64
	TargetPct      *float64
	MaxHoldingDays *int
}

// SimulatorService 策略回测应用服务
// 负责策略与回测的生命周期管理，回测执行委托给领域层引擎。
type SimulatorService struct {
	strategies domain.StrategyRepository
	backtests  domain.BacktestRepository
	trades     domain.TradeRepository
	metrics    domain.MetricsRepository
	engine     *domain.BacktestEngine
	logger     *slog.Logger
}

func NewSimulatorService(
	strategies domain.StrategyRepository,
	backtests domain.BacktestRepository,
	trades domain.TradeRepository,
	metrics domain.MetricsRepository,
	engine *domain.BacktestEngine,
	logger *slog.Logger,
) *SimulatorService {
	return &SimulatorService{
		strategies: strategies,
		backtests:  backtests,
		trades:     trades,
		metrics:    metrics,
		engine:     engine,
		logger:     logger,
	}
}

// CreateStrategy 创建多腿策略
func (s *SimulatorService) CreateStrategy(ctx context.Context, cmd CreateStrategyCommand) (*domain.Strategy, error) {
	legs := make([]domain.StrategyLeg, 0, len(cmd.Legs))
	for _, l := range cmd.Legs {
		legs = append(legs, domain.StrategyLeg{
			Action:       domain.PositionAction(l.Action),
			OptionType:   marketdomain.OptionType(l.OptionType),
			StrikeOffset: l.StrikeOffset,
			Quantity:     l.Quantity,
			LegOrder:     l.LegOrder,
			ExpiryOffset: l.ExpiryOffset,
		})
	}

	strategyID := fmt.Sprintf("STR-%d", idgen.GenID())
	strategy, err := domain.NewStrategy(strategyID, cmd.Name, domain.StrategyType(cmd.StrategyType), cmd.Description, legs)
	if err != nil {
		return nil, err
	}
	for i := range strategy.Legs {
		strategy.Legs[i].ID = fmt.Sprintf("LEG-%d", idgen.GenID())
	}

	if err := s.strategies.Save(ctx, strategy); err != nil {
		return nil, fmt.Errorf("save strategy: %w", err)
	}
	s.logger.Info("策略已创建", "strategy_id", strategy.ID, "name", strategy.Name, "legs", len(strategy.Legs))
	return strategy, nil
}

// GetStrategy 查询策略详情
func (s *SimulatorService) GetStrategy(ctx context.Context, id string) (*domain.Strategy, error) {
	strategy, err := s.strategies.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if strategy == nil {
		return nil, ErrStrategyNotFound
	}
	return strategy, nil
}

// ListStrategies 列出全部策略
func (s *SimulatorService) ListStrategies(ctx context.Context) ([]domain.Strategy, error) {
	return s.strategies.List(ctx)
}

// DeleteStrategy 删除策略
func (s *SimulatorService) DeleteStrategy(ctx context.Context, id string) error {
	strategy, err := s.strategies.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if strategy == nil {
		return ErrStrategyNotFound
	}
	return s.strategies.Delete(ctx, id)
}

// CreateBacktest 创建回测配置，初始状态 PENDING
func (s *SimulatorService) CreateBacktest(ctx context.Context, cmd CreateBacktestCommand) (*domain.Backtest, error) {
	strategy, err := s.strategies.GetByID(ctx, cmd.StrategyID)
	if err != nil {
		return nil, err
	}
	if strategy == nil {
		return nil, ErrStrategyNotFound
	}

	backtestID := fmt.Sprintf("BT-%d", idgen.GenID())
	bt, err := domain.NewBacktest(backtestID, cmd.StrategyID, cmd.Name, cmd.StartDate, cmd.EndDate, cmd.InitialCapital,
		domain.EntryLogic(cmd.EntryLogic), domain.ExitLogic(cmd.ExitLogic), cmd.StopLossPct, cmd.TargetPct, cmd.MaxHoldingDays)
	if err != nil {
		return nil, err
	}

	if err := s.backtests.Save(ctx, bt); err != nil {
		return nil, fmt.Errorf("save backtest: %w", err)
	}
	s.logger.Info("回测已创建", "backtest_id", bt.ID, "strategy_id", bt.StrategyID)
	return bt, nil
}

// RunBacktest 同步执行回测
func (s *SimulatorService) RunBacktest(ctx context.Context, id string) error {
	return s.engine.Run(ctx, id)
}

// RunBacktestAsync 异步执行回测，立即返回
// 引擎内部的条件状态转移保证重复触发只生效一次。
func (s *SimulatorService) RunBacktestAsync(id string) {
	go func() {
		if err := s.engine.Run(context.Background(), id); err != nil {
			s.logger.Error("异步回测执行失败", "backtest_id", id, "error", err)
		}
	}()
}

// GetBacktest 查询回测详情
func (s *SimulatorService) GetBacktest(ctx context.Context, id string) (*domain.Backtest, error) {
	bt, err := s.backtests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if bt == nil {
		return nil, ErrBacktestNotFound
	}
	return bt, nil
}

// ListBacktests 列出回测，strategyID 为空时不过滤
func (s *SimulatorService) ListBacktests(ctx context.Context, strategyID string) ([]domain.Backtest, error) {
	return s.backtests.List(ctx, strategyID)
}

// GetTrades 查询回测的全部交易明细
func (s *SimulatorService) GetTrades(ctx context.Context, backtestID string) ([]domain.Trade, error) {
	bt, err := s.backtests.GetByID(ctx, backtestID)
	if err != nil {
		return nil, err
	}
	if bt == nil {
		return nil, ErrBacktestNotFound
	}
	return s.trades.ListByBacktest(ctx, backtestID)
}

// GetMetrics 查询回测绩效指标
func (s *SimulatorService) GetMetrics(ctx context.Context, backtestID string) (*domain.PerformanceMetrics, error) {
	bt, err := s.backtests.GetByID(ctx, backtestID)
	if err != nil {
		return nil, err
	}
	if bt == nil {
		return nil, ErrBacktestNotFound
	}
	m, err := s.metrics.GetByBacktestID(ctx, backtestID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrMetricsNotFound
	}
	return m, nil
}
