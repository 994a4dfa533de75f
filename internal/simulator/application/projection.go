package application

import (
	"context"
	"log/slog"

	"github.com/wyfcoding/optionsim/internal/simulator/domain"
)

// MetricsProjectionService 绩效指标读模型投影服务
// 消费回测完成事件后回源重建缓存，使查询路径尽快命中。
type MetricsProjectionService struct {
	metrics domain.MetricsReadModel
	logger  *slog.Logger
}

func NewMetricsProjectionService(metrics domain.MetricsReadModel, logger *slog.Logger) *MetricsProjectionService {
	return &MetricsProjectionService{metrics: metrics, logger: logger}
}

// Refresh 重建指定回测的指标缓存
func (s *MetricsProjectionService) Refresh(ctx context.Context, backtestID string) error {
	if err := s.metrics.Refresh(ctx, backtestID); err != nil {
		s.logger.ErrorContext(ctx, "刷新指标读模型失败", "backtest_id", backtestID, "error", err)
		return err
	}
	return nil
}
