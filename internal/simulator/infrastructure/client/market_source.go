package client

import (
	"context"
	"time"

	marketapp "github.com/wyfcoding/optionsim/internal/market/application"
	marketdomain "github.com/wyfcoding/optionsim/internal/market/domain"
	"github.com/wyfcoding/optionsim/internal/simulator/domain"
)

// marketSource 行情数据源适配器，进程内直连行情应用服务
type marketSource struct {
	svc *marketapp.MarketDataService
}

// NewMarketSource 创建行情数据源
func NewMarketSource(svc *marketapp.MarketDataService) domain.MarketDataSource {
	return &marketSource{svc: svc}
}

func (s *marketSource) SpotPrice(ctx context.Context, date time.Time) (float64, bool, error) {
	return s.svc.SpotPrice(ctx, date)
}

func (s *marketSource) OptionQuote(ctx context.Context, strike float64, optType marketdomain.OptionType, asOf, expiry time.Time) (*marketdomain.OptionQuote, error) {
	return s.svc.OptionQuote(ctx, strike, optType, asOf, expiry)
}
