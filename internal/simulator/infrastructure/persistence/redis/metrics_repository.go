package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wyfcoding/optionsim/internal/simulator/domain"
)

// metricsReadRepository 绩效指标读模型缓存
// 写入透传底层仓储后刷新缓存，读取优先命中缓存。
// 缓存层故障只影响读取路径的延迟，不影响正确性。
type metricsReadRepository struct {
	client redis.UniversalClient
	inner  domain.MetricsRepository
	prefix string
	ttl    time.Duration
}

func NewMetricsReadRepository(client redis.UniversalClient, inner domain.MetricsRepository) domain.MetricsReadModel {
	return &metricsReadRepository{
		client: client,
		inner:  inner,
		prefix: "simulator:metrics:",
		ttl:    1 * time.Hour,
	}
}

func (r *metricsReadRepository) Replace(ctx context.Context, m *domain.PerformanceMetrics) error {
	if err := r.inner.Replace(ctx, m); err != nil {
		return err
	}
	key := fmt.Sprintf("%s%s", r.prefix, m.BacktestID)
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	// 缓存写失败不阻断主流程，下次读取回源重建
	_ = r.client.Set(ctx, key, data, r.ttl).Err()
	return nil
}

// Refresh 回源重建缓存
// 底层无记录时删除缓存键，避免留下过期数据。与读路径的旁路填充不同，
// 这里的缓存写失败要向调用方报告。
func (r *metricsReadRepository) Refresh(ctx context.Context, backtestID string) error {
	key := fmt.Sprintf("%s%s", r.prefix, backtestID)
	m, err := r.inner.GetByBacktestID(ctx, backtestID)
	if err != nil {
		return err
	}
	if m == nil {
		return r.client.Del(ctx, key).Err()
	}
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, r.ttl).Err()
}

func (r *metricsReadRepository) GetByBacktestID(ctx context.Context, backtestID string) (*domain.PerformanceMetrics, error) {
	key := fmt.Sprintf("%s%s", r.prefix, backtestID)
	data, err := r.client.Get(ctx, key).Bytes()
	if err == nil {
		var m domain.PerformanceMetrics
		if err := json.Unmarshal(data, &m); err == nil {
			return &m, nil
		}
	} else if err != redis.Nil {
		return nil, err
	}

	m, err := r.inner.GetByBacktestID(ctx, backtestID)
	if err != nil || m == nil {
		return m, err
	}
	if payload, err := json.Marshal(m); err == nil {
		_ = r.client.Set(ctx, key, payload, r.ttl).Err()
	}
	return m, nil
}
