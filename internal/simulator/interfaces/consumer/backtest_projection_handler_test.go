package consumer

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyfcoding/optionsim/internal/simulator/application"
	"github.com/wyfcoding/optionsim/internal/simulator/domain"
)

// fakeMetricsReadModel 记录 Refresh 调用，验证事件确实驱动了缓存重建
type fakeMetricsReadModel struct {
	refreshed []string
}

func (f *fakeMetricsReadModel) Replace(ctx context.Context, m *domain.PerformanceMetrics) error {
	return nil
}

func (f *fakeMetricsReadModel) GetByBacktestID(ctx context.Context, backtestID string) (*domain.PerformanceMetrics, error) {
	return nil, nil
}

func (f *fakeMetricsReadModel) Refresh(ctx context.Context, backtestID string) error {
	f.refreshed = append(f.refreshed, backtestID)
	return nil
}

func newHandlerFixture() (*BacktestProjectionHandler, *fakeMetricsReadModel) {
	readModel := &fakeMetricsReadModel{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	projector := application.NewMetricsProjectionService(readModel, logger)
	return NewBacktestProjectionHandler(projector, logger), readModel
}

func TestHandleCompletedEventRefreshesReadModel(t *testing.T) {
	handler, readModel := newHandlerFixture()

	err := handler.Handle(context.Background(), kafka.Message{
		Topic: domain.BacktestCompletedTopic,
		Value: []byte(`{"backtest_id":"BT-1"}`),
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"BT-1"}, readModel.refreshed)
}

func TestHandleIgnoresOtherTopics(t *testing.T) {
	handler, readModel := newHandlerFixture()

	require.NoError(t, handler.Handle(context.Background(), kafka.Message{Topic: domain.BacktestStartedTopic}))
	require.NoError(t, handler.Handle(context.Background(), kafka.Message{Topic: "unrelated.topic"}))
	assert.Empty(t, readModel.refreshed)
}

func TestHandleRejectsMalformedPayload(t *testing.T) {
	handler, readModel := newHandlerFixture()

	err := handler.Handle(context.Background(), kafka.Message{
		Topic: domain.BacktestCompletedTopic,
		Value: []byte(`not-json`),
	})

	require.Error(t, err)
	assert.Empty(t, readModel.refreshed)
}
