package mysql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wyfcoding/pkg/idgen"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/wyfcoding/optionsim/internal/simulator/domain"
)

type strategyRepository struct {
	db *gorm.DB
}

// NewStrategyRepository 创建策略仓储
func NewStrategyRepository(db *gorm.DB) domain.StrategyRepository {
	return &strategyRepository{db: db}
}

func (r *strategyRepository) Save(ctx context.Context, s *domain.Strategy) error {
	model := toStrategyModel(s)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(model).Error; err != nil {
			return err
		}
		s.CreatedAt = model.CreatedAt
		s.UpdatedAt = model.UpdatedAt
		return nil
	})
}

func (r *strategyRepository) GetByID(ctx context.Context, id string) (*domain.Strategy, error) {
	var model StrategyModel
	err := r.db.WithContext(ctx).Preload("Legs", func(db *gorm.DB) *gorm.DB {
		return db.Order("leg_order ASC")
	}).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return toStrategy(&model), nil
}

func (r *strategyRepository) List(ctx context.Context) ([]domain.Strategy, error) {
	var models []StrategyModel
	err := r.db.WithContext(ctx).Preload("Legs", func(db *gorm.DB) *gorm.DB {
		return db.Order("leg_order ASC")
	}).Order("created_at DESC").Find(&models).Error
	if err != nil {
		return nil, err
	}
	strategies := make([]domain.Strategy, 0, len(models))
	for i := range models {
		strategies = append(strategies, *toStrategy(&models[i]))
	}
	return strategies, nil
}

func (r *strategyRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("strategy_id = ?", id).Delete(&StrategyLegModel{}).Error; err != nil {
			return err
		}
		return tx.Delete(&StrategyModel{}, "id = ?", id).Error
	})
}

type backtestRepository struct {
	db *gorm.DB
}

// NewBacktestRepository 创建回测仓储
func NewBacktestRepository(db *gorm.DB) domain.BacktestRepository {
	return &backtestRepository{db: db}
}

func (r *backtestRepository) Save(ctx context.Context, b *domain.Backtest) error {
	model := toBacktestModel(b)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	b.CreatedAt = model.CreatedAt
	return nil
}

func (r *backtestRepository) GetByID(ctx context.Context, id string) (*domain.Backtest, error) {
	var model BacktestModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return toBacktest(&model), nil
}

func (r *backtestRepository) List(ctx context.Context, strategyID string) ([]domain.Backtest, error) {
	query := r.db.WithContext(ctx).Model(&BacktestModel{})
	if strategyID != "" {
		query = query.Where("strategy_id = ?", strategyID)
	}
	var models []BacktestModel
	if err := query.Order("created_at DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	backtests := make([]domain.Backtest, 0, len(models))
	for i := range models {
		backtests = append(backtests, *toBacktest(&models[i]))
	}
	return backtests, nil
}

// TransitionStatus 单条带状态前置条件的 UPDATE
// 以 RowsAffected 判定转移是否生效，避免并发触发下的重复执行。
func (r *backtestRepository) TransitionStatus(ctx context.Context, id string, from, to domain.BacktestStatus, errorMessage string) (bool, error) {
	now := time.Now()
	updates := map[string]any{
		"status":        string(to),
		"error_message": errorMessage,
	}
	switch to {
	case domain.BacktestStatusRunning:
		updates["started_at"] = now
	case domain.BacktestStatusCompleted, domain.BacktestStatusFailed:
		updates["completed_at"] = now
	}

	result := r.db.WithContext(ctx).Model(&BacktestModel{}).
		Where("id = ? AND status = ?", id, string(from)).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

type tradeRepository struct {
	db *gorm.DB
}

// NewTradeRepository 创建交易仓储
func NewTradeRepository(db *gorm.DB) domain.TradeRepository {
	return &tradeRepository{db: db}
}

func (r *tradeRepository) Save(ctx context.Context, t *domain.Trade) error {
	if t.ID == "" {
		t.ID = fmt.Sprintf("TRD-%d", idgen.GenID())
	}
	for i := range t.Legs {
		if t.Legs[i].ID == "" {
			t.Legs[i].ID = fmt.Sprintf("TLG-%d", idgen.GenID())
		}
	}
	model := toTradeModel(t)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(model).Error
	})
}

func (r *tradeRepository) UpdateOnExit(ctx context.Context, t *domain.Trade) error {
	model := toTradeModel(t)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&TradeModel{}).Where("id = ?", t.ID).Updates(map[string]any{
			"exit_date":       model.ExitDate,
			"exit_spot_price": model.ExitSpotPrice,
			"exit_premium":    model.ExitPremium,
			"pnl":             model.PnL,
			"pnl_pct":         model.PnLPct,
			"holding_days":    model.HoldingDays,
			"exit_reason":     model.ExitReason,
			"status":          model.Status,
		}).Error; err != nil {
			return err
		}
		for _, leg := range model.Legs {
			if err := tx.Model(&TradeLegModel{}).Where("id = ?", leg.ID).Updates(map[string]any{
				"exit_price": leg.ExitPrice,
				"exit_iv":    leg.ExitIV,
			}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *tradeRepository) ListClosed(ctx context.Context, backtestID string) ([]domain.Trade, error) {
	return r.list(ctx, backtestID, string(domain.TradeStatusClosed))
}

func (r *tradeRepository) ListByBacktest(ctx context.Context, backtestID string) ([]domain.Trade, error) {
	return r.list(ctx, backtestID, "")
}

func (r *tradeRepository) list(ctx context.Context, backtestID, status string) ([]domain.Trade, error) {
	query := r.db.WithContext(ctx).Preload("Legs").Where("backtest_id = ?", backtestID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var models []TradeModel
	if err := query.Order("trade_number ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	trades := make([]domain.Trade, 0, len(models))
	for i := range models {
		trades = append(trades, *toTrade(&models[i]))
	}
	return trades, nil
}

type metricsRepository struct {
	db *gorm.DB
}

// NewMetricsRepository 创建绩效指标仓储
func NewMetricsRepository(db *gorm.DB) domain.MetricsRepository {
	return &metricsRepository{db: db}
}

// Replace 以回测 ID 为键做 Upsert，重算覆盖旧记录
func (r *metricsRepository) Replace(ctx context.Context, m *domain.PerformanceMetrics) error {
	model := toMetricsModel(m)
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "backtest_id"}},
		UpdateAll: true,
	}).Create(model).Error
}

func (r *metricsRepository) GetByBacktestID(ctx context.Context, backtestID string) (*domain.PerformanceMetrics, error) {
	var model MetricsModel
	err := r.db.WithContext(ctx).First(&model, "backtest_id = ?", backtestID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return toMetrics(&model), nil
}
