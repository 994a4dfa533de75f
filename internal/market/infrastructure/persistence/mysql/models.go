package mysql

import (
	"time"

	"github.com/wyfcoding/optionsim/internal/market/domain"
)

// CandleModel 历史行情数据库模型
type CandleModel struct {
	ID                   uint      `gorm:"primaryKey;autoIncrement"`
	Date                 time.Time `gorm:"column:date;type:date;uniqueIndex;not null"`
	Open                 float64   `gorm:"column:open;type:decimal(12,2);not null"`
	High                 float64   `gorm:"column:high;type:decimal(12,2);not null"`
	Low                  float64   `gorm:"column:low;type:decimal(12,2);not null"`
	Close                float64   `gorm:"column:close;type:decimal(12,2);not null"`
	Volume               int64     `gorm:"column:volume;type:bigint"`
	HistoricalVolatility float64   `gorm:"column:historical_volatility;type:decimal(10,6)"`
	CreatedAt            time.Time
}

func (CandleModel) TableName() string { return "historical_candles" }

// mapping helpers

func toCandle(m *CandleModel) *domain.Candle {
	if m == nil {
		return nil
	}
	return &domain.Candle{
		Date:                 m.Date,
		Open:                 m.Open,
		High:                 m.High,
		Low:                  m.Low,
		Close:                m.Close,
		Volume:               m.Volume,
		HistoricalVolatility: m.HistoricalVolatility,
	}
}
