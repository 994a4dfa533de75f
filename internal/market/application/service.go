package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/wyfcoding/optionsim/internal/market/domain"
)

// MarketDataService 行情应用服务
// 对外提供现价、历史行情与合成期权链查询。
type MarketDataService struct {
	repo   domain.CandleRepository
	synth  *domain.ChainSynthesizer
	logger *slog.Logger
}

func NewMarketDataService(repo domain.CandleRepository, synth *domain.ChainSynthesizer, logger *slog.Logger) *MarketDataService {
	return &MarketDataService{repo: repo, synth: synth, logger: logger}
}

// LatestSpot 查询最新现价
func (s *MarketDataService) LatestSpot(ctx context.Context) (*domain.Candle, error) {
	return s.repo.Latest(ctx)
}

// SpotPrice 查询指定日期的现价，无数据时返回 (0, false, nil)
func (s *MarketDataService) SpotPrice(ctx context.Context, date time.Time) (float64, bool, error) {
	candle, err := s.repo.ByDate(ctx, date)
	if err != nil {
		return 0, false, err
	}
	if candle == nil {
		return 0, false, nil
	}
	return candle.Close, true, nil
}

// HistoricalCandles 查询区间历史行情
func (s *MarketDataService) HistoricalCandles(ctx context.Context, start, end time.Time) ([]domain.Candle, error) {
	return s.repo.Range(ctx, start, end)
}

// OptionChain 合成期权链
func (s *MarketDataService) OptionChain(ctx context.Context, targetDate, expiry time.Time, strikeRange int) (*domain.OptionChain, error) {
	return s.synth.Synthesize(ctx, targetDate, expiry, strikeRange)
}

// OptionQuote 合成单个期权报价
func (s *MarketDataService) OptionQuote(ctx context.Context, strike float64, optType domain.OptionType, targetDate, expiry time.Time) (*domain.OptionQuote, error) {
	return s.synth.QuoteOption(ctx, strike, optType, targetDate, expiry)
}
