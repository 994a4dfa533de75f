package domain

import (
	"context"
	"log/slog"
	"math"
	"time"
)

// ChainConfig 期权链合成参数
type ChainConfig struct {
	RiskFreeRate      float64
	DividendYield     float64
	StrikeInterval    float64
	DefaultVolatility float64
	MaxStrikeRange    int
}

// ATMStrike 计算平值行权价：现价取整到最近的行权价间隔
func ATMStrike(spot, interval float64) float64 {
	return math.Round(spot/interval) * interval
}

// ChainSynthesizer 期权链合成服务
// 基于历史现价与波动率，用 Black-Scholes 合成整条期权链，
// 并按虚实程度模拟持仓量/成交量。
type ChainSynthesizer struct {
	repo   CandleRepository
	cfg    ChainConfig
	logger *slog.Logger
}

func NewChainSynthesizer(repo CandleRepository, cfg ChainConfig, logger *slog.Logger) *ChainSynthesizer {
	return &ChainSynthesizer{repo: repo, cfg: cfg, logger: logger}
}

// Config 返回合成参数
func (s *ChainSynthesizer) Config() ChainConfig {
	return s.cfg
}

// Synthesize 合成指定日期的完整期权链
// targetDate 为零值时取最新行情日；expiry 为零值时取最近的月度到期日。
// 无现价数据或链已到期时返回 (nil, nil)。
func (s *ChainSynthesizer) Synthesize(ctx context.Context, targetDate, expiry time.Time, strikeRange int) (*OptionChain, error) {
	if strikeRange <= 0 || strikeRange > s.cfg.MaxStrikeRange {
		strikeRange = s.cfg.MaxStrikeRange
	}

	spot, volatility, tradeDate, err := s.spotAndVolatility(ctx, targetDate)
	if err != nil {
		return nil, err
	}
	if spot <= 0 {
		return nil, nil
	}

	if expiry.IsZero() {
		expiry = NextMonthlyExpiry(tradeDate)
	}

	timeToExpiry := TimeToExpiryYears(tradeDate, expiry)
	if timeToExpiry <= 0 {
		s.logger.WarnContext(ctx, "option chain already expired",
			"date", tradeDate.Format(time.DateOnly), "expiry", expiry.Format(time.DateOnly))
		return nil, nil
	}

	atm := ATMStrike(spot, s.cfg.StrikeInterval)

	chain := &OptionChain{
		SpotPrice:  spot,
		Date:       tradeDate,
		ExpiryDate: expiry,
		Options:    make([]OptionQuote, 0, (2*strikeRange+1)*2),
	}

	for i := -strikeRange; i <= strikeRange; i++ {
		strike := atm + float64(i)*s.cfg.StrikeInterval

		// 持仓量随虚实程度衰减，平值附近最活跃；看跌侧持仓习惯性偏高约 20%
		moneyness := math.Abs(spot-strike) / spot
		oiFactor := math.Max(1.0-moneyness*10, 0.1)
		callOI := int64(100000 * oiFactor)
		putOI := int64(120000 * oiFactor)

		call, err := s.quote(OptionTypeCall, spot, strike, timeToExpiry, volatility, expiry, callOI)
		if err != nil {
			return nil, err
		}
		put, err := s.quote(OptionTypePut, spot, strike, timeToExpiry, volatility, expiry, putOI)
		if err != nil {
			return nil, err
		}

		chain.TotalCallOI += callOI
		chain.TotalPutOI += putOI
		chain.Options = append(chain.Options, *call, *put)
	}

	if chain.TotalCallOI > 0 {
		chain.PCR = float64(chain.TotalPutOI) / float64(chain.TotalCallOI)
	}
	return chain, nil
}

// QuoteOption 合成单个行权价/类型的报价，数据缺失或已到期返回 (nil, nil)
func (s *ChainSynthesizer) QuoteOption(ctx context.Context, strike float64, optType OptionType, targetDate, expiry time.Time) (*OptionQuote, error) {
	spot, volatility, tradeDate, err := s.spotAndVolatility(ctx, targetDate)
	if err != nil {
		return nil, err
	}
	if spot <= 0 {
		return nil, nil
	}

	if expiry.IsZero() {
		expiry = NextMonthlyExpiry(tradeDate)
	}
	timeToExpiry := TimeToExpiryYears(tradeDate, expiry)
	if timeToExpiry <= 0 {
		return nil, nil
	}

	moneyness := math.Abs(spot-strike) / spot
	oiFactor := math.Max(1.0-moneyness*10, 0.1)
	base := int64(100000)
	if optType == OptionTypePut {
		base = 120000
	}
	return s.quote(optType, spot, strike, timeToExpiry, volatility, expiry, int64(float64(base)*oiFactor))
}

func (s *ChainSynthesizer) quote(optType OptionType, spot, strike, timeToExpiry, volatility float64, expiry time.Time, oi int64) (*OptionQuote, error) {
	price, err := Price(optType, spot, strike, timeToExpiry, s.cfg.RiskFreeRate, volatility, s.cfg.DividendYield)
	if err != nil {
		return nil, err
	}
	greeks, err := ComputeGreeks(optType, spot, strike, timeToExpiry, s.cfg.RiskFreeRate, volatility, s.cfg.DividendYield)
	if err != nil {
		return nil, err
	}

	inTheMoney := spot > strike
	if optType == OptionTypePut {
		inTheMoney = spot < strike
	}

	return &OptionQuote{
		Strike:            strike,
		OptionType:        optType,
		ExpiryDate:        expiry,
		Price:             price,
		Bid:               price * 0.995,
		Ask:               price * 1.005,
		Greeks:            greeks,
		ImpliedVolatility: volatility,
		OpenInterest:      oi,
		Volume:            int64(float64(oi) * 0.3),
		IntrinsicValue:    IntrinsicValue(spot, strike, optType),
		TimeValue:         TimeValue(price, spot, strike, optType),
		InTheMoney:        inTheMoney,
	}, nil
}

// spotAndVolatility 查询目标日的现价与历史波动率
// 现价缺失返回 spot=0；波动率缺失回退到配置的默认值。
func (s *ChainSynthesizer) spotAndVolatility(ctx context.Context, targetDate time.Time) (float64, float64, time.Time, error) {
	var candle *Candle
	var err error
	if targetDate.IsZero() {
		candle, err = s.repo.Latest(ctx)
	} else {
		candle, err = s.repo.ByDate(ctx, targetDate)
	}
	if err != nil {
		return 0, 0, time.Time{}, err
	}
	if candle == nil {
		return 0, 0, targetDate, nil
	}

	volatility := candle.HistoricalVolatility
	if volatility <= 0 {
		volatility = s.cfg.DefaultVolatility
	}
	return candle.Close, volatility, candle.Date, nil
}
