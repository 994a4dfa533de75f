package domain

import (
	"time"
)

// OptionType 期权类型
type OptionType string

const (
	OptionTypeCall OptionType = "CALL"
	OptionTypePut  OptionType = "PUT"
)

// Valid 校验期权类型取值
func (t OptionType) Valid() bool {
	return t == OptionTypeCall || t == OptionTypePut
}

// Greeks 期权敏感度指标
// Theta 按自然日计（年化值 /365），Vega 按 1% 波动率变化计，Rho 按 1% 利率变化计。
type Greeks struct {
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Theta float64 `json:"theta"`
	Vega  float64 `json:"vega"`
	Rho   float64 `json:"rho"`
}

// OptionQuote 单个行权价/类型的合成报价
type OptionQuote struct {
	Strike            float64    `json:"strike"`
	OptionType        OptionType `json:"option_type"`
	ExpiryDate        time.Time  `json:"expiry_date"`
	Price             float64    `json:"price"`
	Bid               float64    `json:"bid"`
	Ask               float64    `json:"ask"`
	Greeks            Greeks     `json:"greeks"`
	ImpliedVolatility float64    `json:"implied_volatility"`
	OpenInterest      int64      `json:"open_interest"`
	Volume            int64      `json:"volume"`
	IntrinsicValue    float64    `json:"intrinsic_value"`
	TimeValue         float64    `json:"time_value"`
	InTheMoney        bool       `json:"in_the_money"`
}

// OptionChain 围绕现价合成的完整期权链
type OptionChain struct {
	SpotPrice   float64       `json:"spot_price"`
	Date        time.Time     `json:"date"`
	ExpiryDate  time.Time     `json:"expiry_date"`
	Options     []OptionQuote `json:"options"`
	TotalCallOI int64         `json:"total_call_oi"`
	TotalPutOI  int64         `json:"total_put_oi"`
	PCR         float64       `json:"pcr"`
}

// Candle 标的指数日线数据
type Candle struct {
	Date                 time.Time `json:"date"`
	Open                 float64   `json:"open"`
	High                 float64   `json:"high"`
	Low                  float64   `json:"low"`
	Close                float64   `json:"close"`
	Volume               int64     `json:"volume"`
	HistoricalVolatility float64   `json:"historical_volatility"`
}
