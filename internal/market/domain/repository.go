package domain

import (
	"context"
	"time"
)

// CandleRepository 历史行情仓储接口
// 未命中的查询返回 (nil, nil)，由调用方决定跳过还是回退。
type CandleRepository interface {
	Latest(ctx context.Context) (*Candle, error)
	ByDate(ctx context.Context, date time.Time) (*Candle, error)
	Range(ctx context.Context, start, end time.Time) ([]Candle, error)
}
