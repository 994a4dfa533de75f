package domain

import (
	"errors"
	"math"
	"time"
)

// 定价公式的定义域错误。T<=0 或 sigma<=0 时 d1/d2 无定义，
// 调用方必须自行对到期情形做特殊处理。
var (
	ErrNonPositiveTime       = errors.New("time to expiry must be positive")
	ErrNonPositiveVolatility = errors.New("volatility must be positive")
	ErrNonPositivePrice      = errors.New("spot and strike must be positive")
)

// D1D2 计算 Black-Scholes 模型的 d1、d2 参数
func D1D2(s, k, t, r, sigma, q float64) (float64, float64, error) {
	if s <= 0 || k <= 0 {
		return 0, 0, ErrNonPositivePrice
	}
	if t <= 0 {
		return 0, 0, ErrNonPositiveTime
	}
	if sigma <= 0 {
		return 0, 0, ErrNonPositiveVolatility
	}

	d1 := (math.Log(s/k) + (r-q+0.5*sigma*sigma)*t) / (sigma * math.Sqrt(t))
	d2 := d1 - sigma*math.Sqrt(t)
	return d1, d2, nil
}

// CallPrice 计算欧式看涨期权价格
// 到期时（T<=0）直接返回内在价值，结果不会为负。
func CallPrice(s, k, t, r, sigma, q float64) (float64, error) {
	if t <= 0 {
		return math.Max(s-k, 0), nil
	}

	d1, d2, err := D1D2(s, k, t, r, sigma, q)
	if err != nil {
		return 0, err
	}

	price := s*math.Exp(-q*t)*normCDF(d1) - k*math.Exp(-r*t)*normCDF(d2)
	return math.Max(price, 0), nil
}

// PutPrice 计算欧式看跌期权价格
func PutPrice(s, k, t, r, sigma, q float64) (float64, error) {
	if t <= 0 {
		return math.Max(k-s, 0), nil
	}

	d1, d2, err := D1D2(s, k, t, r, sigma, q)
	if err != nil {
		return 0, err
	}

	price := k*math.Exp(-r*t)*normCDF(-d2) - s*math.Exp(-q*t)*normCDF(-d1)
	return math.Max(price, 0), nil
}

// Price 按期权类型计算价格
func Price(optType OptionType, s, k, t, r, sigma, q float64) (float64, error) {
	if optType == OptionTypeCall {
		return CallPrice(s, k, t, r, sigma, q)
	}
	return PutPrice(s, k, t, r, sigma, q)
}

// ComputeGreeks 计算期权的全部希腊字母
// 到期时全部定义为 0。Gamma、Vega 对看涨与看跌相同。
func ComputeGreeks(optType OptionType, s, k, t, r, sigma, q float64) (Greeks, error) {
	if t <= 0 {
		return Greeks{}, nil
	}

	d1, d2, err := D1D2(s, k, t, r, sigma, q)
	if err != nil {
		return Greeks{}, err
	}

	var g Greeks
	pdfD1 := normPDF(d1)
	discQ := math.Exp(-q * t)
	discR := math.Exp(-r * t)

	g.Gamma = discQ * pdfD1 / (s * sigma * math.Sqrt(t))
	g.Vega = s * discQ * pdfD1 * math.Sqrt(t) / 100

	if optType == OptionTypeCall {
		g.Delta = discQ * normCDF(d1)
		g.Theta = (-s*pdfD1*sigma*discQ/(2*math.Sqrt(t)) -
			r*k*discR*normCDF(d2) +
			q*s*discQ*normCDF(d1)) / 365
		g.Rho = k * t * discR * normCDF(d2) / 100
	} else {
		g.Delta = -discQ * normCDF(-d1)
		g.Theta = (-s*pdfD1*sigma*discQ/(2*math.Sqrt(t)) +
			r*k*discR*normCDF(-d2) -
			q*s*discQ*normCDF(-d1)) / 365
		g.Rho = -k * t * discR * normCDF(-d2) / 100
	}

	return g, nil
}

// IntrinsicValue 计算期权内在价值
func IntrinsicValue(s, k float64, optType OptionType) float64 {
	if optType == OptionTypeCall {
		return math.Max(s-k, 0)
	}
	return math.Max(k-s, 0)
}

// TimeValue 计算期权时间价值
func TimeValue(price, s, k float64, optType OptionType) float64 {
	return math.Max(price-IntrinsicValue(s, k, optType), 0)
}

// TimeToExpiryYears 计算年化剩余期限（ACT/365），已过期返回 0
func TimeToExpiryYears(asOf, expiry time.Time) float64 {
	days := expiry.Sub(asOf).Hours() / 24
	if days < 0 {
		return 0
	}
	return days / 365.0
}

// normCDF 标准正态分布累积分布函数
func normCDF(x float64) float64 {
	return 0.5 * (1 + math.Erf(x/math.Sqrt2))
}

// normPDF 标准正态分布概率密度函数
func normPDF(x float64) float64 {
	return math.Exp(-0.5*x*x) / math.Sqrt(2*math.Pi)
}
