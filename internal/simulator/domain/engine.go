package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	marketdomain "github.com/wyfcoding/optionsim/internal/market/domain"
)

var (
	ErrBacktestNotFound = errors.New("backtest not found")
	ErrStrategyNotFound = errors.New("strategy not found")
	// ErrNotPending 条件状态转移失败，回测已被其他执行者领取或已结束
	ErrNotPending = errors.New("backtest is not in pending status")
)

// EngineConfig 回测引擎参数
type EngineConfig struct {
	RiskFreeRate   float64
	StrikeInterval float64
	LotSize        int
}

// BacktestEngine 回测执行引擎
// 按入场规则生成入场日序列，在每个入场日以平值偏移落地各腿，
// 持有至最近到期日平仓。行情缺失跳过当笔交易，基础设施错误终止回测。
type BacktestEngine struct {
	strategies StrategyRepository
	backtests  BacktestRepository
	trades     TradeRepository
	metrics    MetricsRepository
	market     MarketDataSource
	calculator *MetricsCalculator
	events     EventPublisher
	cfg        EngineConfig
	logger     *slog.Logger
}

func NewBacktestEngine(
	strategies StrategyRepository,
	backtests BacktestRepository,
	trades TradeRepository,
	metrics MetricsRepository,
	market MarketDataSource,
	events EventPublisher,
	cfg EngineConfig,
	logger *slog.Logger,
) *BacktestEngine {
	return &BacktestEngine{
		strategies: strategies,
		backtests:  backtests,
		trades:     trades,
		metrics:    metrics,
		market:     market,
		calculator: NewMetricsCalculator(cfg.RiskFreeRate),
		events:     events,
		cfg:        cfg,
		logger:     logger,
	}
}

// Run 执行一次回测
// 入口先做 PENDING -> RUNNING 的条件转移，未生效返回 ErrNotPending，
// 保证并发触发下同一回测只跑一次。执行中的基础设施错误会把状态
// 置为 FAILED 并记录原因。
func (e *BacktestEngine) Run(ctx context.Context, backtestID string) error {
	bt, err := e.backtests.GetByID(ctx, backtestID)
	if err != nil {
		return fmt.Errorf("load backtest: %w", err)
	}
	if bt == nil {
		return ErrBacktestNotFound
	}

	claimed, err := e.backtests.TransitionStatus(ctx, backtestID, BacktestStatusPending, BacktestStatusRunning, "")
	if err != nil {
		return fmt.Errorf("transition to running: %w", err)
	}
	if !claimed {
		return ErrNotPending
	}

	if err := e.events.PublishBacktestStarted(ctx, BacktestStartedEvent{
		BacktestID: bt.ID,
		StrategyID: bt.StrategyID,
		StartDate:  bt.StartDate,
		EndDate:    bt.EndDate,
		OccurredOn: time.Now(),
	}); err != nil {
		e.logger.Warn("发布回测开始事件失败", "backtest_id", bt.ID, "error", err)
	}

	strategy, err := e.strategies.GetByID(ctx, bt.StrategyID)
	if err != nil {
		return e.fail(ctx, bt, fmt.Errorf("load strategy: %w", err))
	}
	if strategy == nil {
		return e.fail(ctx, bt, ErrStrategyNotFound)
	}
	// 仓储层可能回放出腿记录缺失的策略，入口处校验而不是在腿索引处崩溃
	if len(strategy.Legs) == 0 {
		return e.fail(ctx, bt, ErrNoLegs)
	}

	var executed []Trade
	tradeNumber := 1
	for _, entryDate := range GenerateEntryDates(bt.StartDate, bt.EndDate, bt.EntryLogic) {
		trade, err := e.executeTrade(ctx, bt, strategy, tradeNumber, entryDate)
		if err != nil {
			return e.fail(ctx, bt, err)
		}
		if trade == nil {
			continue
		}
		executed = append(executed, *trade)
		tradeNumber++
	}

	if _, err := e.backtests.TransitionStatus(ctx, backtestID, BacktestStatusRunning, BacktestStatusCompleted, ""); err != nil {
		return fmt.Errorf("transition to completed: %w", err)
	}

	var totalPnL float64
	for _, t := range executed {
		if t.PnL != nil {
			totalPnL += *t.PnL
		}
	}
	if err := e.events.PublishBacktestCompleted(ctx, BacktestCompletedEvent{
		BacktestID:  bt.ID,
		StrategyID:  bt.StrategyID,
		TotalTrades: len(executed),
		TotalPnL:    totalPnL,
		OccurredOn:  time.Now(),
	}); err != nil {
		e.logger.Warn("发布回测完成事件失败", "backtest_id", bt.ID, "error", err)
	}

	closed, err := e.trades.ListClosed(ctx, bt.ID)
	if err != nil {
		return fmt.Errorf("list closed trades: %w", err)
	}
	record := e.calculator.Calculate(bt.ID, closed, bt.InitialCapital)
	if err := e.metrics.Replace(ctx, &record); err != nil {
		return fmt.Errorf("persist metrics: %w", err)
	}

	e.logger.Info("回测执行完成",
		"backtest_id", bt.ID,
		"strategy_id", bt.StrategyID,
		"total_trades", len(executed),
		"total_pnl", totalPnL,
	)
	return nil
}

// fail 将回测置为 FAILED，记录原因并发布失败事件
func (e *BacktestEngine) fail(ctx context.Context, bt *Backtest, cause error) error {
	if _, err := e.backtests.TransitionStatus(ctx, bt.ID, BacktestStatusRunning, BacktestStatusFailed, cause.Error()); err != nil {
		e.logger.Error("标记回测失败时出错", "backtest_id", bt.ID, "error", err)
	}
	if err := e.events.PublishBacktestFailed(ctx, BacktestFailedEvent{
		BacktestID: bt.ID,
		StrategyID: bt.StrategyID,
		Error:      cause.Error(),
		OccurredOn: time.Now(),
	}); err != nil {
		e.logger.Warn("发布回测失败事件失败", "backtest_id", bt.ID, "error", err)
	}
	return cause
}

// GenerateEntryDates 按入场规则展开入场日序列
// DAILY 只含工作日；WEEKLY 取每周一；MONTHLY 取每月首日，
// 起始日不在月首时也作为首个入场日。
func GenerateEntryDates(start, end time.Time, logic EntryLogic) []time.Time {
	var dates []time.Time
	switch logic {
	case EntryOnDate:
		dates = append(dates, start)
	case EntryDaily:
		for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
			if wd := d.Weekday(); wd >= time.Monday && wd <= time.Friday {
				dates = append(dates, d)
			}
		}
	case EntryWeekly:
		for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
			if d.Weekday() == time.Monday {
				dates = append(dates, d)
			}
		}
	case EntryMonthly:
		for d := start; !d.After(end); {
			if d.Day() == 1 || d.Equal(start) {
				dates = append(dates, d)
			}
			d = time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, d.Location()).AddDate(0, 1, 0)
		}
	}
	return dates
}

// executeTrade 在指定入场日落地一笔交易并模拟到期平仓
// 现价或任一腿报价缺失时跳过当笔（返回 nil, nil）；持久化失败返回错误。
func (e *BacktestEngine) executeTrade(ctx context.Context, bt *Backtest, strategy *Strategy, tradeNumber int, entryDate time.Time) (*Trade, error) {
	spot, ok, err := e.market.SpotPrice(ctx, entryDate)
	if err != nil {
		return nil, fmt.Errorf("spot price on %s: %w", entryDate.Format(time.DateOnly), err)
	}
	if !ok {
		e.logger.Debug("入场日无现价，跳过交易", "backtest_id", bt.ID, "entry_date", entryDate.Format(time.DateOnly))
		return nil, nil
	}

	atm := marketdomain.ATMStrike(spot, e.cfg.StrikeInterval)
	legs := make([]TradeLeg, 0, len(strategy.Legs))
	var entryPremium float64
	for _, sLeg := range strategy.Legs {
		strike := atm + float64(sLeg.StrikeOffset)
		expiry := marketdomain.NextWeeklyExpiry(entryDate, sLeg.ExpiryOffset)

		quote, err := e.market.OptionQuote(ctx, strike, sLeg.OptionType, entryDate, expiry)
		if err != nil {
			return nil, fmt.Errorf("quote %s %.0f on %s: %w", sLeg.OptionType, strike, entryDate.Format(time.DateOnly), err)
		}
		if quote == nil {
			e.logger.Debug("入场日报价缺失，跳过交易",
				"backtest_id", bt.ID,
				"entry_date", entryDate.Format(time.DateOnly),
				"strike", strike,
				"option_type", sLeg.OptionType,
			)
			return nil, nil
		}

		quantity := sLeg.Quantity * e.cfg.LotSize
		if sLeg.Action == ActionBuy {
			entryPremium -= quote.Price * float64(quantity)
		} else {
			entryPremium += quote.Price * float64(quantity)
		}

		legs = append(legs, TradeLeg{
			Action:     sLeg.Action,
			OptionType: sLeg.OptionType,
			Strike:     strike,
			ExpiryDate: expiry,
			Quantity:   quantity,
			EntryPrice: quote.Price,
			EntryIV:    quote.ImpliedVolatility,
		})
	}

	trade := &Trade{
		BacktestID:     bt.ID,
		TradeNumber:    tradeNumber,
		EntryDate:      entryDate,
		ExpiryDate:     legs[0].ExpiryDate,
		EntrySpotPrice: spot,
		EntryPremium:   entryPremium,
		Status:         TradeStatusOpen,
		Legs:           legs,
	}
	if err := e.trades.Save(ctx, trade); err != nil {
		return nil, fmt.Errorf("save trade: %w", err)
	}

	if err := e.simulateExit(ctx, trade); err != nil {
		return nil, err
	}
	return trade, nil
}

// simulateExit 在最近到期日平仓
// 当日到期的腿按内在价值结算；远月腿重新询价，报价缺失退化为内在价值。
// 到期日现价缺失时退回入场现价估值。
func (e *BacktestEngine) simulateExit(ctx context.Context, trade *Trade) error {
	exitDate := trade.Legs[0].ExpiryDate
	for _, leg := range trade.Legs[1:] {
		if leg.ExpiryDate.Before(exitDate) {
			exitDate = leg.ExpiryDate
		}
	}

	exitSpot, ok, err := e.market.SpotPrice(ctx, exitDate)
	if err != nil {
		return fmt.Errorf("spot price on %s: %w", exitDate.Format(time.DateOnly), err)
	}
	if !ok {
		exitSpot = trade.EntrySpotPrice
		e.logger.Warn("到期日无现价，以入场现价估值平仓",
			"backtest_id", trade.BacktestID,
			"trade_number", trade.TradeNumber,
			"exit_date", exitDate.Format(time.DateOnly),
		)
	}

	var exitPremium float64
	for i := range trade.Legs {
		leg := &trade.Legs[i]

		var exitPrice float64
		if !leg.ExpiryDate.After(exitDate) {
			exitPrice = marketdomain.IntrinsicValue(exitSpot, leg.Strike, leg.OptionType)
		} else {
			quote, err := e.market.OptionQuote(ctx, leg.Strike, leg.OptionType, exitDate, leg.ExpiryDate)
			if err != nil {
				return fmt.Errorf("exit quote %s %.0f on %s: %w", leg.OptionType, leg.Strike, exitDate.Format(time.DateOnly), err)
			}
			if quote != nil {
				exitPrice = quote.Price
				iv := quote.ImpliedVolatility
				leg.ExitIV = &iv
			} else {
				exitPrice = marketdomain.IntrinsicValue(exitSpot, leg.Strike, leg.OptionType)
			}
		}
		leg.ExitPrice = &exitPrice

		// 平仓方向与开仓相反：买入腿卖出回收，卖出腿买回支出
		if leg.Action == ActionBuy {
			exitPremium += exitPrice * float64(leg.Quantity)
		} else {
			exitPremium -= exitPrice * float64(leg.Quantity)
		}
	}

	pnl := trade.EntryPremium + exitPremium
	var pnlPct float64
	if trade.EntryPremium != 0 {
		pnlPct = pnl / math.Abs(trade.EntryPremium) * 100
	}
	holdingDays := int(exitDate.Sub(trade.EntryDate).Hours() / 24)

	trade.ExitDate = &exitDate
	trade.ExitSpotPrice = &exitSpot
	trade.ExitPremium = &exitPremium
	trade.PnL = &pnl
	trade.PnLPct = &pnlPct
	trade.HoldingDays = &holdingDays
	trade.ExitReason = "EXPIRY"
	trade.Status = TradeStatusClosed

	if err := e.trades.UpdateOnExit(ctx, trade); err != nil {
		return fmt.Errorf("update trade on exit: %w", err)
	}
	return nil
}
