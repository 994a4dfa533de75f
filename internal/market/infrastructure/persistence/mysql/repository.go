package mysql

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/wyfcoding/optionsim/internal/market/domain"
)

type candleRepository struct {
	db *gorm.DB
}

// NewCandleRepository 创建历史行情仓储
func NewCandleRepository(db *gorm.DB) domain.CandleRepository {
	return &candleRepository{db: db}
}

func (r *candleRepository) Latest(ctx context.Context) (*domain.Candle, error) {
	var model CandleModel
	err := r.db.WithContext(ctx).Order("date DESC").First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return toCandle(&model), nil
}

func (r *candleRepository) ByDate(ctx context.Context, date time.Time) (*domain.Candle, error) {
	var model CandleModel
	err := r.db.WithContext(ctx).Where("date = ?", date.Format(time.DateOnly)).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return toCandle(&model), nil
}

func (r *candleRepository) Range(ctx context.Context, start, end time.Time) ([]domain.Candle, error) {
	var models []CandleModel
	err := r.db.WithContext(ctx).
		Where("date >= ? AND date <= ?", start.Format(time.DateOnly), end.Format(time.DateOnly)).
		Order("date ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	candles := make([]domain.Candle, 0, len(models))
	for i := range models {
		candles = append(candles, *toCandle(&models[i]))
	}
	return candles, nil
}
