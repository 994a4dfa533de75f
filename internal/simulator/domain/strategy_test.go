package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	marketdomain "github.com/wyfcoding/optionsim/internal/market/domain"
)

func validLeg(order int) StrategyLeg {
	return StrategyLeg{
		Action:     ActionBuy,
		OptionType: marketdomain.OptionTypeCall,
		Quantity:   1,
		LegOrder:   order,
	}
}

func TestNewStrategyValidation(t *testing.T) {
	t.Run("requires name", func(t *testing.T) {
		_, err := NewStrategy("STR-1", "", StrategyCustom, "", []StrategyLeg{validLeg(1)})
		assert.Error(t, err)
	})

	t.Run("requires at least one leg", func(t *testing.T) {
		_, err := NewStrategy("STR-1", "straddle", StrategyCustom, "", nil)
		assert.ErrorIs(t, err, ErrNoLegs)
	})

	t.Run("rejects invalid action", func(t *testing.T) {
		leg := validLeg(1)
		leg.Action = "HOLD"
		_, err := NewStrategy("STR-1", "straddle", StrategyCustom, "", []StrategyLeg{leg})
		assert.Error(t, err)
	})

	t.Run("rejects invalid option type", func(t *testing.T) {
		leg := validLeg(1)
		leg.OptionType = "FUTURE"
		_, err := NewStrategy("STR-1", "straddle", StrategyCustom, "", []StrategyLeg{leg})
		assert.Error(t, err)
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		leg := validLeg(1)
		leg.Quantity = 0
		_, err := NewStrategy("STR-1", "straddle", StrategyCustom, "", []StrategyLeg{leg})
		assert.Error(t, err)
	})

	t.Run("rejects negative expiry offset", func(t *testing.T) {
		leg := validLeg(1)
		leg.ExpiryOffset = -1
		_, err := NewStrategy("STR-1", "straddle", StrategyCustom, "", []StrategyLeg{leg})
		assert.Error(t, err)
	})

	t.Run("sorts legs by leg order", func(t *testing.T) {
		s, err := NewStrategy("STR-1", "condor", StrategyIronCondor, "", []StrategyLeg{
			validLeg(3), validLeg(1), validLeg(2),
		})
		require.NoError(t, err)
		require.Len(t, s.Legs, 3)
		assert.Equal(t, []int{1, 2, 3}, []int{s.Legs[0].LegOrder, s.Legs[1].LegOrder, s.Legs[2].LegOrder})
	})

	t.Run("defaults to custom type", func(t *testing.T) {
		s, err := NewStrategy("STR-1", "straddle", "", "", []StrategyLeg{validLeg(1)})
		require.NoError(t, err)
		assert.Equal(t, StrategyCustom, s.Type)
	})
}

func TestNewBacktestValidation(t *testing.T) {
	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, time.March, 31, 0, 0, 0, 0, time.UTC)

	t.Run("valid config starts pending", func(t *testing.T) {
		bt, err := NewBacktest("BT-1", "STR-1", "q1 run", start, end, 100000, EntryWeekly, ExitOnExpiry, nil, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, BacktestStatusPending, bt.Status)
	})

	t.Run("rejects end before start", func(t *testing.T) {
		_, err := NewBacktest("BT-1", "STR-1", "bad", end, start, 100000, EntryWeekly, ExitOnExpiry, nil, nil, nil)
		assert.Error(t, err)
	})

	t.Run("rejects non-positive capital", func(t *testing.T) {
		_, err := NewBacktest("BT-1", "STR-1", "bad", start, end, 0, EntryWeekly, ExitOnExpiry, nil, nil, nil)
		assert.Error(t, err)
	})

	t.Run("rejects unknown entry logic", func(t *testing.T) {
		_, err := NewBacktest("BT-1", "STR-1", "bad", start, end, 100000, "HOURLY", ExitOnExpiry, nil, nil, nil)
		assert.Error(t, err)
	})

	t.Run("rejects out-of-range stop loss", func(t *testing.T) {
		stopLoss := 150.0
		_, err := NewBacktest("BT-1", "STR-1", "bad", start, end, 100000, EntryWeekly, ExitStopLoss, &stopLoss, nil, nil)
		assert.Error(t, err)
	})

	t.Run("rejects out-of-range holding days", func(t *testing.T) {
		days := 400
		_, err := NewBacktest("BT-1", "STR-1", "bad", start, end, 100000, EntryWeekly, ExitDays, nil, nil, &days)
		assert.Error(t, err)
	})

	t.Run("accepts inert exit variants", func(t *testing.T) {
		stopLoss := 30.0
		bt, err := NewBacktest("BT-1", "STR-1", "sl run", start, end, 100000, EntryWeekly, ExitStopLoss, &stopLoss, nil, nil)
		require.NoError(t, err)
		assert.False(t, bt.ExitLogic.Implemented())
	})
}

func TestExitLogicImplemented(t *testing.T) {
	assert.True(t, ExitOnExpiry.Implemented())
	assert.False(t, ExitStopLoss.Implemented())
	assert.False(t, ExitTarget.Implemented())
	assert.False(t, ExitDays.Implemented())
}
