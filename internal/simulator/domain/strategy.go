package domain

import (
	"errors"
	"fmt"
	"sort"
	"time"

	marketdomain "github.com/wyfcoding/optionsim/internal/market/domain"
)

// PositionAction 腿方向
type PositionAction string

const (
	ActionBuy  PositionAction = "BUY"
	ActionSell PositionAction = "SELL"
)

// Valid 校验腿方向取值
func (a PositionAction) Valid() bool {
	return a == ActionBuy || a == ActionSell
}

// StrategyType 预定义策略类型
type StrategyType string

const (
	StrategyLongStraddle   StrategyType = "LONG_STRADDLE"
	StrategyShortStraddle  StrategyType = "SHORT_STRADDLE"
	StrategyLongStrangle   StrategyType = "LONG_STRANGLE"
	StrategyShortStrangle  StrategyType = "SHORT_STRANGLE"
	StrategyBullCallSpread StrategyType = "BULL_CALL_SPREAD"
	StrategyBearPutSpread  StrategyType = "BEAR_PUT_SPREAD"
	StrategyBullPutSpread  StrategyType = "BULL_PUT_SPREAD"
	StrategyBearCallSpread StrategyType = "BEAR_CALL_SPREAD"
	StrategyIronCondor     StrategyType = "IRON_CONDOR"
	StrategyIronButterfly  StrategyType = "IRON_BUTTERFLY"
	StrategyCalendarSpread StrategyType = "LONG_CALENDAR_SPREAD"
	StrategyDiagonalSpread StrategyType = "LONG_DIAGONAL_SPREAD"
	StrategyCustom         StrategyType = "CUSTOM"
)

// StrategyLeg 策略的单条腿
// StrikeOffset 为相对平值的点数偏移；ExpiryOffset 为相对最近到期日的周数偏移，
// 用于日历/对角价差的远月腿。
type StrategyLeg struct {
	ID           string                  `json:"id"`
	Action       PositionAction          `json:"action"`
	OptionType   marketdomain.OptionType `json:"option_type"`
	StrikeOffset int                     `json:"strike_offset"`
	Quantity     int                     `json:"quantity"`
	LegOrder     int                     `json:"leg_order"`
	ExpiryOffset int                     `json:"expiry_offset"`
}

// Strategy 多腿期权策略实体
type Strategy struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Type        StrategyType  `json:"strategy_type"`
	Description string        `json:"description"`
	Legs        []StrategyLeg `json:"legs"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

var ErrNoLegs = errors.New("strategy must have at least one leg")

// NewStrategy 创建策略并校验不变量
// 腿按 LegOrder 排序后保存，LegOrder 不要求连续但必须 >= 1。
func NewStrategy(id, name string, sType StrategyType, description string, legs []StrategyLeg) (*Strategy, error) {
	if name == "" {
		return nil, errors.New("strategy name is required")
	}
	if len(legs) == 0 {
		return nil, ErrNoLegs
	}
	for i, leg := range legs {
		if !leg.Action.Valid() {
			return nil, fmt.Errorf("leg %d: invalid action %q", i+1, leg.Action)
		}
		if !leg.OptionType.Valid() {
			return nil, fmt.Errorf("leg %d: invalid option type %q", i+1, leg.OptionType)
		}
		if leg.Quantity <= 0 {
			return nil, fmt.Errorf("leg %d: quantity must be positive", i+1)
		}
		if leg.LegOrder < 1 {
			return nil, fmt.Errorf("leg %d: leg order must be >= 1", i+1)
		}
		if leg.ExpiryOffset < 0 {
			return nil, fmt.Errorf("leg %d: expiry offset must be >= 0", i+1)
		}
	}

	ordered := make([]StrategyLeg, len(legs))
	copy(ordered, legs)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].LegOrder < ordered[j].LegOrder })

	if sType == "" {
		sType = StrategyCustom
	}

	return &Strategy{
		ID:          id,
		Name:        name,
		Type:        sType,
		Description: description,
		Legs:        ordered,
	}, nil
}
