package mysql

import (
	"time"

	"github.com/shopspring/decimal"

	marketdomain "github.com/wyfcoding/optionsim/internal/market/domain"
	"github.com/wyfcoding/optionsim/internal/simulator/domain"
)

// StrategyModel 策略数据库模型
type StrategyModel struct {
	ID          string    `gorm:"column:id;type:varchar(64);primaryKey"`
	Name        string    `gorm:"column:name;type:varchar(128);not null"`
	Type        string    `gorm:"column:strategy_type;type:varchar(32);not null"`
	Description string    `gorm:"column:description;type:text"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`

	Legs []StrategyLegModel `gorm:"foreignKey:StrategyID;constraint:OnDelete:CASCADE"`
}

func (StrategyModel) TableName() string { return "strategies" }

// StrategyLegModel 策略腿数据库模型
type StrategyLegModel struct {
	ID           string `gorm:"column:id;type:varchar(64);primaryKey"`
	StrategyID   string `gorm:"column:strategy_id;type:varchar(64);index;not null"`
	Action       string `gorm:"column:action;type:varchar(8);not null"`
	OptionType   string `gorm:"column:option_type;type:varchar(8);not null"`
	StrikeOffset int    `gorm:"column:strike_offset;not null"`
	Quantity     int    `gorm:"column:quantity;not null"`
	LegOrder     int    `gorm:"column:leg_order;not null"`
	ExpiryOffset int    `gorm:"column:expiry_offset;not null;default:0"`
}

func (StrategyLegModel) TableName() string { return "strategy_legs" }

// BacktestModel 回测数据库模型
// status 列是条件状态转移的判定依据。
type BacktestModel struct {
	ID             string          `gorm:"column:id;type:varchar(64);primaryKey"`
	StrategyID     string          `gorm:"column:strategy_id;type:varchar(64);index;not null"`
	Name           string          `gorm:"column:name;type:varchar(128);not null"`
	StartDate      time.Time       `gorm:"column:start_date;type:date;not null"`
	EndDate        time.Time       `gorm:"column:end_date;type:date;not null"`
	InitialCapital decimal.Decimal `gorm:"column:initial_capital;type:decimal(18,2);not null"`
	EntryLogic     string          `gorm:"column:entry_logic;type:varchar(16);not null"`
	ExitLogic      string          `gorm:"column:exit_logic;type:varchar(16);not null"`
	StopLossPct    *float64        `gorm:"column:stop_loss_pct;type:decimal(6,2)"`
	TargetPct      *float64        `gorm:"column:target_pct;type:decimal(6,2)"`
	MaxHoldingDays *int            `gorm:"column:max_holding_days"`
	Status         string          `gorm:"column:status;type:varchar(16);index;not null"`
	ErrorMessage   string          `gorm:"column:error_message;type:text"`
	CreatedAt      time.Time       `gorm:"column:created_at"`
	StartedAt      *time.Time      `gorm:"column:started_at"`
	CompletedAt    *time.Time      `gorm:"column:completed_at"`
}

func (BacktestModel) TableName() string { return "backtests" }

// TradeModel 交易数据库模型
type TradeModel struct {
	ID             string              `gorm:"column:id;type:varchar(64);primaryKey"`
	BacktestID     string              `gorm:"column:backtest_id;type:varchar(64);index;not null"`
	TradeNumber    int                 `gorm:"column:trade_number;not null"`
	EntryDate      time.Time           `gorm:"column:entry_date;type:date;not null"`
	ExitDate       *time.Time          `gorm:"column:exit_date;type:date"`
	ExpiryDate     time.Time           `gorm:"column:expiry_date;type:date;not null"`
	EntrySpotPrice decimal.Decimal     `gorm:"column:entry_spot_price;type:decimal(12,2);not null"`
	ExitSpotPrice  decimal.NullDecimal `gorm:"column:exit_spot_price;type:decimal(12,2)"`
	EntryPremium   decimal.Decimal     `gorm:"column:entry_premium;type:decimal(18,2);not null"`
	ExitPremium    decimal.NullDecimal `gorm:"column:exit_premium;type:decimal(18,2)"`
	PnL            decimal.NullDecimal `gorm:"column:pnl;type:decimal(18,2)"`
	PnLPct         decimal.NullDecimal `gorm:"column:pnl_pct;type:decimal(10,4)"`
	HoldingDays    *int                `gorm:"column:holding_days"`
	ExitReason     string              `gorm:"column:exit_reason;type:varchar(32)"`
	Status         string              `gorm:"column:status;type:varchar(8);index;not null"`
	CreatedAt      time.Time           `gorm:"column:created_at"`

	Legs []TradeLegModel `gorm:"foreignKey:TradeID;constraint:OnDelete:CASCADE"`
}

func (TradeModel) TableName() string { return "trades" }

// TradeLegModel 交易腿数据库模型
type TradeLegModel struct {
	ID         string              `gorm:"column:id;type:varchar(64);primaryKey"`
	TradeID    string              `gorm:"column:trade_id;type:varchar(64);index;not null"`
	Action     string              `gorm:"column:action;type:varchar(8);not null"`
	OptionType string              `gorm:"column:option_type;type:varchar(8);not null"`
	Strike     decimal.Decimal     `gorm:"column:strike;type:decimal(12,2);not null"`
	ExpiryDate time.Time           `gorm:"column:expiry_date;type:date;not null"`
	Quantity   int                 `gorm:"column:quantity;not null"`
	EntryPrice decimal.Decimal     `gorm:"column:entry_price;type:decimal(12,4);not null"`
	ExitPrice  decimal.NullDecimal `gorm:"column:exit_price;type:decimal(12,4)"`
	EntryIV    float64             `gorm:"column:entry_iv;type:decimal(10,6)"`
	ExitIV     *float64            `gorm:"column:exit_iv;type:decimal(10,6)"`
}

func (TradeLegModel) TableName() string { return "trade_legs" }

// MetricsModel 绩效指标数据库模型，每个回测至多一行
type MetricsModel struct {
	BacktestID     string          `gorm:"column:backtest_id;type:varchar(64);primaryKey"`
	TotalTrades    int             `gorm:"column:total_trades;not null"`
	WinningTrades  int             `gorm:"column:winning_trades;not null"`
	LosingTrades   int             `gorm:"column:losing_trades;not null"`
	WinRate        float64         `gorm:"column:win_rate;type:decimal(8,4)"`
	TotalPnL       decimal.Decimal `gorm:"column:total_pnl;type:decimal(18,2)"`
	AvgPnLPerTrade decimal.Decimal `gorm:"column:avg_pnl_per_trade;type:decimal(18,2)"`
	MaxProfit      decimal.Decimal `gorm:"column:max_profit;type:decimal(18,2)"`
	MaxLoss        decimal.Decimal `gorm:"column:max_loss;type:decimal(18,2)"`
	MaxDrawdown    decimal.Decimal `gorm:"column:max_drawdown;type:decimal(18,2)"`
	MaxDrawdownPct float64         `gorm:"column:max_drawdown_pct;type:decimal(10,4)"`
	SharpeRatio    *float64        `gorm:"column:sharpe_ratio;type:decimal(12,6)"`
	SortinoRatio   *float64        `gorm:"column:sortino_ratio;type:decimal(12,6)"`
	ProfitFactor   *float64        `gorm:"column:profit_factor;type:decimal(12,6)"`
	AvgHoldingDays float64         `gorm:"column:avg_holding_days;type:decimal(8,2)"`
	FinalCapital   decimal.Decimal `gorm:"column:final_capital;type:decimal(18,2)"`
	TotalReturnPct float64         `gorm:"column:total_return_pct;type:decimal(10,4)"`
	CreatedAt      time.Time       `gorm:"column:created_at"`
}

func (MetricsModel) TableName() string { return "backtest_metrics" }

// mapping helpers

func toStrategyModel(s *domain.Strategy) *StrategyModel {
	m := &StrategyModel{
		ID:          s.ID,
		Name:        s.Name,
		Type:        string(s.Type),
		Description: s.Description,
	}
	for _, leg := range s.Legs {
		m.Legs = append(m.Legs, StrategyLegModel{
			ID:           leg.ID,
			StrategyID:   s.ID,
			Action:       string(leg.Action),
			OptionType:   string(leg.OptionType),
			StrikeOffset: leg.StrikeOffset,
			Quantity:     leg.Quantity,
			LegOrder:     leg.LegOrder,
			ExpiryOffset: leg.ExpiryOffset,
		})
	}
	return m
}

func toStrategy(m *StrategyModel) *domain.Strategy {
	s := &domain.Strategy{
		ID:          m.ID,
		Name:        m.Name,
		Type:        domain.StrategyType(m.Type),
		Description: m.Description,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
	for _, leg := range m.Legs {
		s.Legs = append(s.Legs, domain.StrategyLeg{
			ID:           leg.ID,
			Action:       domain.PositionAction(leg.Action),
			OptionType:   marketdomain.OptionType(leg.OptionType),
			StrikeOffset: leg.StrikeOffset,
			Quantity:     leg.Quantity,
			LegOrder:     leg.LegOrder,
			ExpiryOffset: leg.ExpiryOffset,
		})
	}
	return s
}

func toBacktestModel(b *domain.Backtest) *BacktestModel {
	return &BacktestModel{
		ID:             b.ID,
		StrategyID:     b.StrategyID,
		Name:           b.Name,
		StartDate:      b.StartDate,
		EndDate:        b.EndDate,
		InitialCapital: decimal.NewFromFloat(b.InitialCapital),
		EntryLogic:     string(b.EntryLogic),
		ExitLogic:      string(b.ExitLogic),
		StopLossPct:    b.StopLossPct,
		TargetPct:      b.TargetPct,
		MaxHoldingDays: b.MaxHoldingDays,
		Status:         string(b.Status),
		ErrorMessage:   b.ErrorMessage,
		StartedAt:      b.StartedAt,
		CompletedAt:    b.CompletedAt,
	}
}

func toBacktest(m *BacktestModel) *domain.Backtest {
	return &domain.Backtest{
		ID:             m.ID,
		StrategyID:     m.StrategyID,
		Name:           m.Name,
		StartDate:      m.StartDate,
		EndDate:        m.EndDate,
		InitialCapital: m.InitialCapital.InexactFloat64(),
		EntryLogic:     domain.EntryLogic(m.EntryLogic),
		ExitLogic:      domain.ExitLogic(m.ExitLogic),
		StopLossPct:    m.StopLossPct,
		TargetPct:      m.TargetPct,
		MaxHoldingDays: m.MaxHoldingDays,
		Status:         domain.BacktestStatus(m.Status),
		ErrorMessage:   m.ErrorMessage,
		CreatedAt:      m.CreatedAt,
		StartedAt:      m.StartedAt,
		CompletedAt:    m.CompletedAt,
	}
}

func toTradeModel(t *domain.Trade) *TradeModel {
	m := &TradeModel{
		ID:             t.ID,
		BacktestID:     t.BacktestID,
		TradeNumber:    t.TradeNumber,
		EntryDate:      t.EntryDate,
		ExitDate:       t.ExitDate,
		ExpiryDate:     t.ExpiryDate,
		EntrySpotPrice: decimal.NewFromFloat(t.EntrySpotPrice),
		ExitSpotPrice:  nullDecimal(t.ExitSpotPrice),
		EntryPremium:   decimal.NewFromFloat(t.EntryPremium),
		ExitPremium:    nullDecimal(t.ExitPremium),
		PnL:            nullDecimal(t.PnL),
		PnLPct:         nullDecimal(t.PnLPct),
		HoldingDays:    t.HoldingDays,
		ExitReason:     t.ExitReason,
		Status:         string(t.Status),
	}
	for _, leg := range t.Legs {
		m.Legs = append(m.Legs, TradeLegModel{
			ID:         leg.ID,
			TradeID:    t.ID,
			Action:     string(leg.Action),
			OptionType: string(leg.OptionType),
			Strike:     decimal.NewFromFloat(leg.Strike),
			ExpiryDate: leg.ExpiryDate,
			Quantity:   leg.Quantity,
			EntryPrice: decimal.NewFromFloat(leg.EntryPrice),
			ExitPrice:  nullDecimal(leg.ExitPrice),
			EntryIV:    leg.EntryIV,
			ExitIV:     leg.ExitIV,
		})
	}
	return m
}

func toTrade(m *TradeModel) *domain.Trade {
	t := &domain.Trade{
		ID:             m.ID,
		BacktestID:     m.BacktestID,
		TradeNumber:    m.TradeNumber,
		EntryDate:      m.EntryDate,
		ExitDate:       m.ExitDate,
		ExpiryDate:     m.ExpiryDate,
		EntrySpotPrice: m.EntrySpotPrice.InexactFloat64(),
		ExitSpotPrice:  nullFloat(m.ExitSpotPrice),
		EntryPremium:   m.EntryPremium.InexactFloat64(),
		ExitPremium:    nullFloat(m.ExitPremium),
		PnL:            nullFloat(m.PnL),
		PnLPct:         nullFloat(m.PnLPct),
		HoldingDays:    m.HoldingDays,
		ExitReason:     m.ExitReason,
		Status:         domain.TradeStatus(m.Status),
	}
	for _, leg := range m.Legs {
		t.Legs = append(t.Legs, domain.TradeLeg{
			ID:         leg.ID,
			Action:     domain.PositionAction(leg.Action),
			OptionType: marketdomain.OptionType(leg.OptionType),
			Strike:     leg.Strike.InexactFloat64(),
			ExpiryDate: leg.ExpiryDate,
			Quantity:   leg.Quantity,
			EntryPrice: leg.EntryPrice.InexactFloat64(),
			ExitPrice:  nullFloat(leg.ExitPrice),
			EntryIV:    leg.EntryIV,
			ExitIV:     leg.ExitIV,
		})
	}
	return t
}

func toMetricsModel(p *domain.PerformanceMetrics) *MetricsModel {
	return &MetricsModel{
		BacktestID:     p.BacktestID,
		TotalTrades:    p.TotalTrades,
		WinningTrades:  p.WinningTrades,
		LosingTrades:   p.LosingTrades,
		WinRate:        p.WinRate,
		TotalPnL:       decimal.NewFromFloat(p.TotalPnL),
		AvgPnLPerTrade: decimal.NewFromFloat(p.AvgPnLPerTrade),
		MaxProfit:      decimal.NewFromFloat(p.MaxProfit),
		MaxLoss:        decimal.NewFromFloat(p.MaxLoss),
		MaxDrawdown:    decimal.NewFromFloat(p.MaxDrawdown),
		MaxDrawdownPct: p.MaxDrawdownPct,
		SharpeRatio:    p.SharpeRatio,
		SortinoRatio:   p.SortinoRatio,
		ProfitFactor:   p.ProfitFactor,
		AvgHoldingDays: p.AvgHoldingDays,
		FinalCapital:   decimal.NewFromFloat(p.FinalCapital),
		TotalReturnPct: p.TotalReturnPct,
	}
}

func toMetrics(m *MetricsModel) *domain.PerformanceMetrics {
	return &domain.PerformanceMetrics{
		BacktestID:     m.BacktestID,
		TotalTrades:    m.TotalTrades,
		WinningTrades:  m.WinningTrades,
		LosingTrades:   m.LosingTrades,
		WinRate:        m.WinRate,
		TotalPnL:       m.TotalPnL.InexactFloat64(),
		AvgPnLPerTrade: m.AvgPnLPerTrade.InexactFloat64(),
		MaxProfit:      m.MaxProfit.InexactFloat64(),
		MaxLoss:        m.MaxLoss.InexactFloat64(),
		MaxDrawdown:    m.MaxDrawdown.InexactFloat64(),
		MaxDrawdownPct: m.MaxDrawdownPct,
		SharpeRatio:    m.SharpeRatio,
		SortinoRatio:   m.SortinoRatio,
		ProfitFactor:   m.ProfitFactor,
		AvgHoldingDays: m.AvgHoldingDays,
		FinalCapital:   m.FinalCapital.InexactFloat64(),
		TotalReturnPct: m.TotalReturnPct,
		CreatedAt:      m.CreatedAt,
	}
}

func nullDecimal(v *float64) decimal.NullDecimal {
	if v == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: decimal.NewFromFloat(*v), Valid: true}
}

func nullFloat(v decimal.NullDecimal) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Decimal.InexactFloat64()
	return &f
}
