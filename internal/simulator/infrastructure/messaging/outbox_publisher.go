package messaging

import (
	"context"

	"github.com/wyfcoding/pkg/messagequeue/outbox"

	"github.com/wyfcoding/optionsim/internal/simulator/domain"
)

// outboxPublisher 基于 Outbox 模式的事件发布者实现
// 事件先落库，由独立的 Processor 投递到 Kafka，保证与业务数据同库提交。
type outboxPublisher struct {
	manager *outbox.Manager
}

// NewOutboxPublisher 创建 Outbox 事件发布者
func NewOutboxPublisher(manager *outbox.Manager) domain.EventPublisher {
	return &outboxPublisher{manager: manager}
}

func (p *outboxPublisher) PublishBacktestStarted(ctx context.Context, event domain.BacktestStartedEvent) error {
	return p.manager.PublishInTx(ctx, p.manager.DB(), domain.BacktestStartedTopic, event.BacktestID, event)
}

func (p *outboxPublisher) PublishBacktestCompleted(ctx context.Context, event domain.BacktestCompletedEvent) error {
	return p.manager.PublishInTx(ctx, p.manager.DB(), domain.BacktestCompletedTopic, event.BacktestID, event)
}

func (p *outboxPublisher) PublishBacktestFailed(ctx context.Context, event domain.BacktestFailedEvent) error {
	return p.manager.PublishInTx(ctx, p.manager.DB(), domain.BacktestFailedTopic, event.BacktestID, event)
}
