package consumer

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/wyfcoding/optionsim/internal/simulator/application"
	"github.com/wyfcoding/optionsim/internal/simulator/domain"
)

// BacktestProjectionHandler 回测事件消费处理器
// 回测完成后刷新指标读模型缓存。
type BacktestProjectionHandler struct {
	projector *application.MetricsProjectionService
	logger    *slog.Logger
}

func NewBacktestProjectionHandler(projector *application.MetricsProjectionService, logger *slog.Logger) *BacktestProjectionHandler {
	return &BacktestProjectionHandler{projector: projector, logger: logger}
}

func (h *BacktestProjectionHandler) Handle(ctx context.Context, msg kafka.Message) error {
	switch msg.Topic {
	case domain.BacktestCompletedTopic:
		var payload struct {
			BacktestID string `json:"backtest_id"`
		}
		if err := json.Unmarshal(msg.Value, &payload); err != nil {
			h.logger.ErrorContext(ctx, "failed to unmarshal backtest event", "error", err)
			return err
		}
		if payload.BacktestID == "" {
			return nil
		}
		return h.projector.Refresh(ctx, payload.BacktestID)
	case domain.BacktestStartedTopic, domain.BacktestFailedTopic:
		return nil
	default:
		h.logger.WarnContext(ctx, "unknown backtest event topic", "topic", msg.Topic)
		return nil
	}
}
