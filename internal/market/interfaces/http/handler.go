package http

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/pkg/logging"
	"github.com/wyfcoding/pkg/response"

	"github.com/wyfcoding/optionsim/internal/market/application"
	"github.com/wyfcoding/optionsim/internal/market/domain"
)

// HTTP 处理器
// 负责处理行情与期权链相关的 HTTP 请求
type MarketHandler struct {
	svc *application.MarketDataService
}

// 创建 HTTP 处理器实例
func NewMarketHandler(svc *application.MarketDataService) *MarketHandler {
	return &MarketHandler{svc: svc}
}

// 注册路由
// 将处理器方法绑定到 Gin 路由引擎
func (h *MarketHandler) RegisterRoutes(router *gin.RouterGroup) {
	api := router.Group("/v1/market")
	{
		api.GET("/spot", h.GetSpot)
		api.GET("/historical", h.GetHistorical)
		api.GET("/options/chain", h.GetOptionChain)
		api.GET("/options/quote", h.GetOptionQuote)
	}
}

// GetSpot 获取最新现价
func (h *MarketHandler) GetSpot(c *gin.Context) {
	candle, err := h.svc.LatestSpot(c.Request.Context())
	if err != nil {
		logging.Error(c.Request.Context(), "Failed to fetch latest spot", "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	if candle == nil {
		response.ErrorWithStatus(c, http.StatusNotFound, "no market data available", "")
		return
	}

	response.Success(c, gin.H{
		"date":                  candle.Date.Format(time.DateOnly),
		"price":                 round2(candle.Close),
		"volume":                candle.Volume,
		"historical_volatility": candle.HistoricalVolatility,
	})
}

// GetHistorical 获取区间历史行情
func (h *MarketHandler) GetHistorical(c *gin.Context) {
	start, err := parseDate(c.Query("start_date"))
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid start_date", "")
		return
	}
	end, err := parseDate(c.Query("end_date"))
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid end_date", "")
		return
	}
	if end.Before(start) {
		response.ErrorWithStatus(c, http.StatusBadRequest, "end_date must be >= start_date", "")
		return
	}

	candles, err := h.svc.HistoricalCandles(c.Request.Context(), start, end)
	if err != nil {
		logging.Error(c.Request.Context(), "Failed to fetch historical data", "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}

	response.Success(c, gin.H{"data": candles, "count": len(candles)})
}

// GetOptionChain 获取合成期权链
func (h *MarketHandler) GetOptionChain(c *gin.Context) {
	var targetDate, expiry time.Time
	var err error
	if raw := c.Query("date"); raw != "" {
		if targetDate, err = parseDate(raw); err != nil {
			response.ErrorWithStatus(c, http.StatusBadRequest, "invalid date", "")
			return
		}
	}
	if raw := c.Query("expiry_date"); raw != "" {
		if expiry, err = parseDate(raw); err != nil {
			response.ErrorWithStatus(c, http.StatusBadRequest, "invalid expiry_date", "")
			return
		}
	}
	strikeRange := 10
	if raw := c.Query("strike_range"); raw != "" {
		if strikeRange, err = strconv.Atoi(raw); err != nil || strikeRange <= 0 {
			response.ErrorWithStatus(c, http.StatusBadRequest, "invalid strike_range", "")
			return
		}
	}

	chain, err := h.svc.OptionChain(c.Request.Context(), targetDate, expiry, strikeRange)
	if err != nil {
		logging.Error(c.Request.Context(), "Failed to synthesize option chain", "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	if chain == nil {
		response.ErrorWithStatus(c, http.StatusNotFound, "no market data for requested date", "")
		return
	}

	response.Success(c, toChainResponse(chain))
}

// GetOptionQuote 获取单个期权报价
func (h *MarketHandler) GetOptionQuote(c *gin.Context) {
	strike, err := strconv.ParseFloat(c.Query("strike"), 64)
	if err != nil || strike <= 0 {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid strike", "")
		return
	}
	optType := domain.OptionType(c.Query("option_type"))
	if !optType.Valid() {
		response.ErrorWithStatus(c, http.StatusBadRequest, "option_type must be CALL or PUT", "")
		return
	}
	var targetDate, expiry time.Time
	if raw := c.Query("date"); raw != "" {
		if targetDate, err = parseDate(raw); err != nil {
			response.ErrorWithStatus(c, http.StatusBadRequest, "invalid date", "")
			return
		}
	}
	if raw := c.Query("expiry_date"); raw != "" {
		if expiry, err = parseDate(raw); err != nil {
			response.ErrorWithStatus(c, http.StatusBadRequest, "invalid expiry_date", "")
			return
		}
	}

	quote, err := h.svc.OptionQuote(c.Request.Context(), strike, optType, targetDate, expiry)
	if err != nil {
		logging.Error(c.Request.Context(), "Failed to quote option", "strike", strike, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	if quote == nil {
		response.ErrorWithStatus(c, http.StatusNotFound, "no quote available", "")
		return
	}

	response.Success(c, toQuoteResponse(quote))
}

// 响应 DTO：金额字段在此边界统一保留两位小数

type quoteResponse struct {
	Strike            float64       `json:"strike"`
	OptionType        string        `json:"option_type"`
	ExpiryDate        string        `json:"expiry_date"`
	Price             float64       `json:"price"`
	Bid               float64       `json:"bid"`
	Ask               float64       `json:"ask"`
	Greeks            domain.Greeks `json:"greeks"`
	ImpliedVolatility float64       `json:"implied_volatility"`
	OpenInterest      int64         `json:"open_interest"`
	Volume            int64         `json:"volume"`
	IntrinsicValue    float64       `json:"intrinsic_value"`
	TimeValue         float64       `json:"time_value"`
	InTheMoney        bool          `json:"in_the_money"`
}

type chainResponse struct {
	SpotPrice   float64         `json:"spot_price"`
	Date        string          `json:"date"`
	ExpiryDate  string          `json:"expiry_date"`
	Options     []quoteResponse `json:"options"`
	TotalCallOI int64           `json:"total_call_oi"`
	TotalPutOI  int64           `json:"total_put_oi"`
	PCR         float64         `json:"pcr"`
}

func toQuoteResponse(q *domain.OptionQuote) quoteResponse {
	return quoteResponse{
		Strike:            q.Strike,
		OptionType:        string(q.OptionType),
		ExpiryDate:        q.ExpiryDate.Format(time.DateOnly),
		Price:             round2(q.Price),
		Bid:               round2(q.Bid),
		Ask:               round2(q.Ask),
		Greeks:            q.Greeks,
		ImpliedVolatility: math.Round(q.ImpliedVolatility*10000) / 10000,
		OpenInterest:      q.OpenInterest,
		Volume:            q.Volume,
		IntrinsicValue:    round2(q.IntrinsicValue),
		TimeValue:         round2(q.TimeValue),
		InTheMoney:        q.InTheMoney,
	}
}

func toChainResponse(chain *domain.OptionChain) chainResponse {
	resp := chainResponse{
		SpotPrice:   round2(chain.SpotPrice),
		Date:        chain.Date.Format(time.DateOnly),
		ExpiryDate:  chain.ExpiryDate.Format(time.DateOnly),
		Options:     make([]quoteResponse, 0, len(chain.Options)),
		TotalCallOI: chain.TotalCallOI,
		TotalPutOI:  chain.TotalPutOI,
		PCR:         math.Round(chain.PCR*100) / 100,
	}
	for i := range chain.Options {
		resp.Options = append(resp.Options, toQuoteResponse(&chain.Options[i]))
	}
	return resp
}

func parseDate(raw string) (time.Time, error) {
	return time.Parse(time.DateOnly, raw)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
