package domain

import (
	"time"

	marketdomain "github.com/wyfcoding/optionsim/internal/market/domain"
)

// TradeStatus 交易状态
type TradeStatus string

const (
	TradeStatusOpen   TradeStatus = "OPEN"
	TradeStatusClosed TradeStatus = "CLOSED"
)

// TradeLeg 交易腿的落地实例
// Quantity 为手数乘以合约乘数后的实际数量。
type TradeLeg struct {
	ID         string                  `json:"id"`
	Action     PositionAction          `json:"action"`
	OptionType marketdomain.OptionType `json:"option_type"`
	Strike     float64                 `json:"strike"`
	ExpiryDate time.Time               `json:"expiry_date"`
	Quantity   int                     `json:"quantity"`
	EntryPrice float64                 `json:"entry_price"`
	ExitPrice  *float64                `json:"exit_price,omitempty"`
	EntryIV    float64                 `json:"entry_iv"`
	ExitIV     *float64                `json:"exit_iv,omitempty"`
}

// Trade 回测中的一笔模拟交易
// EntryPremium 为各腿带方向的权利金合计：买入为支出（负），卖出为收入（正）；
// 平仓时符号反转累加，P&L = EntryPremium + ExitPremium。
type Trade struct {
	ID             string      `json:"id"`
	BacktestID     string      `json:"backtest_id"`
	TradeNumber    int         `json:"trade_number"`
	EntryDate      time.Time   `json:"entry_date"`
	ExitDate       *time.Time  `json:"exit_date,omitempty"`
	ExpiryDate     time.Time   `json:"expiry_date"`
	EntrySpotPrice float64     `json:"entry_spot_price"`
	ExitSpotPrice  *float64    `json:"exit_spot_price,omitempty"`
	EntryPremium   float64     `json:"entry_premium"`
	ExitPremium    *float64    `json:"exit_premium,omitempty"`
	PnL            *float64    `json:"pnl,omitempty"`
	PnLPct         *float64    `json:"pnl_pct,omitempty"`
	HoldingDays    *int        `json:"holding_days,omitempty"`
	ExitReason     string      `json:"exit_reason,omitempty"`
	Status         TradeStatus `json:"status"`
	Legs           []TradeLeg  `json:"legs"`
}
