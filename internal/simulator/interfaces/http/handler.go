package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/pkg/logging"
	"github.com/wyfcoding/pkg/response"

	"github.com/wyfcoding/optionsim/internal/simulator/application"
	"github.com/wyfcoding/optionsim/internal/simulator/domain"
)

// HTTP 处理器
// 负责策略管理与回测执行相关的 HTTP 请求
type SimulatorHandler struct {
	svc *application.SimulatorService
}

// 创建 HTTP 处理器实例
func NewSimulatorHandler(svc *application.SimulatorService) *SimulatorHandler {
	return &SimulatorHandler{svc: svc}
}

// 注册路由
func (h *SimulatorHandler) RegisterRoutes(router *gin.RouterGroup) {
	strategies := router.Group("/v1/strategies")
	{
		strategies.POST("", h.CreateStrategy)
		strategies.GET("", h.ListStrategies)
		strategies.GET("/:id", h.GetStrategy)
		strategies.DELETE("/:id", h.DeleteStrategy)
	}
	backtests := router.Group("/v1/backtests")
	{
		backtests.POST("", h.CreateBacktest)
		backtests.GET("", h.ListBacktests)
		backtests.GET("/:id", h.GetBacktest)
		backtests.POST("/:id/run", h.RunBacktest)
		backtests.GET("/:id/trades", h.GetTrades)
		backtests.GET("/:id/metrics", h.GetMetrics)
	}
}

type legRequest struct {
	Action       string `json:"action" binding:"required"`
	OptionType   string `json:"option_type" binding:"required"`
	StrikeOffset int    `json:"strike_offset"`
	Quantity     int    `json:"quantity" binding:"required"`
	LegOrder     int    `json:"leg_order" binding:"required"`
	ExpiryOffset int    `json:"expiry_offset"`
}

type createStrategyRequest struct {
	Name         string       `json:"name" binding:"required"`
	StrategyType string       `json:"strategy_type"`
	Description  string       `json:"description"`
	Legs         []legRequest `json:"legs" binding:"required"`
}

// CreateStrategy 创建多腿策略
func (h *SimulatorHandler) CreateStrategy(c *gin.Context) {
	var req createStrategyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	cmd := application.CreateStrategyCommand{
		Name:         req.Name,
		StrategyType: req.StrategyType,
		Description:  req.Description,
	}
	for _, leg := range req.Legs {
		cmd.Legs = append(cmd.Legs, application.CreateLegCommand{
			Action:       leg.Action,
			OptionType:   leg.OptionType,
			StrikeOffset: leg.StrikeOffset,
			Quantity:     leg.Quantity,
			LegOrder:     leg.LegOrder,
			ExpiryOffset: leg.ExpiryOffset,
		})
	}

	strategy, err := h.svc.CreateStrategy(c.Request.Context(), cmd)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}
	response.Success(c, strategy)
}

// ListStrategies 列出全部策略
func (h *SimulatorHandler) ListStrategies(c *gin.Context) {
	strategies, err := h.svc.ListStrategies(c.Request.Context())
	if err != nil {
		logging.Error(c.Request.Context(), "Failed to list strategies", "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	response.Success(c, gin.H{"data": strategies, "count": len(strategies)})
}

// GetStrategy 查询策略详情
func (h *SimulatorHandler) GetStrategy(c *gin.Context) {
	strategy, err := h.svc.GetStrategy(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.renderError(c, err)
		return
	}
	response.Success(c, strategy)
}

// DeleteStrategy 删除策略
func (h *SimulatorHandler) DeleteStrategy(c *gin.Context) {
	if err := h.svc.DeleteStrategy(c.Request.Context(), c.Param("id")); err != nil {
		h.renderError(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": true})
}

type createBacktestRequest struct {
	StrategyID     string   `json:"strategy_id" binding:"required"`
	Name           string   `json:"name" binding:"required"`
	StartDate      string   `json:"start_date" binding:"required"`
	EndDate        string   `json:"end_date" binding:"required"`
	InitialCapital float64  `json:"initial_capital" binding:"required"`
	EntryLogic     string   `json:"entry_logic" binding:"required"`
	ExitLogic      string   `json:"exit_logic" binding:"required"`
	StopLossPct    *float64 `json:"stop_loss_pct"`
	TargetPct      *float64 `json:"target_pct"`
	MaxHoldingDays *int     `json:"max_holding_days"`
}

// CreateBacktest 创建回测配置
func (h *SimulatorHandler) CreateBacktest(c *gin.Context) {
	var req createBacktestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}
	start, err := time.Parse(time.DateOnly, req.StartDate)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid start_date", "")
		return
	}
	end, err := time.Parse(time.DateOnly, req.EndDate)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid end_date", "")
		return
	}

	bt, err := h.svc.CreateBacktest(c.Request.Context(), application.CreateBacktestCommand{
		StrategyID:     req.StrategyID,
		Name:           req.Name,
		StartDate:      start,
		EndDate:        end,
		InitialCapital: req.InitialCapital,
		EntryLogic:     req.EntryLogic,
		ExitLogic:      req.ExitLogic,
		StopLossPct:    req.StopLossPct,
		TargetPct:      req.TargetPct,
		MaxHoldingDays: req.MaxHoldingDays,
	})
	if errors.Is(err, application.ErrStrategyNotFound) {
		response.ErrorWithStatus(c, http.StatusNotFound, err.Error(), "")
		return
	}
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}
	response.Success(c, bt)
}

// ListBacktests 列出回测，可按策略过滤
func (h *SimulatorHandler) ListBacktests(c *gin.Context) {
	backtests, err := h.svc.ListBacktests(c.Request.Context(), c.Query("strategy_id"))
	if err != nil {
		logging.Error(c.Request.Context(), "Failed to list backtests", "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	response.Success(c, gin.H{"data": backtests, "count": len(backtests)})
}

// GetBacktest 查询回测详情
func (h *SimulatorHandler) GetBacktest(c *gin.Context) {
	bt, err := h.svc.GetBacktest(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.renderError(c, err)
		return
	}
	response.Success(c, bt)
}

// RunBacktest 触发回测执行
// 异步执行，立即返回当前状态；重复触发由状态机拒绝。
func (h *SimulatorHandler) RunBacktest(c *gin.Context) {
	id := c.Param("id")
	bt, err := h.svc.GetBacktest(c.Request.Context(), id)
	if err != nil {
		h.renderError(c, err)
		return
	}
	if bt.Status != domain.BacktestStatusPending {
		response.ErrorWithStatus(c, http.StatusConflict, "backtest is not in pending status", "")
		return
	}

	h.svc.RunBacktestAsync(id)
	response.Success(c, gin.H{"backtest_id": id, "status": string(domain.BacktestStatusRunning)})
}

// GetTrades 查询回测交易明细
func (h *SimulatorHandler) GetTrades(c *gin.Context) {
	trades, err := h.svc.GetTrades(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.renderError(c, err)
		return
	}
	response.Success(c, gin.H{"data": trades, "count": len(trades)})
}

// GetMetrics 查询回测绩效指标
func (h *SimulatorHandler) GetMetrics(c *gin.Context) {
	metrics, err := h.svc.GetMetrics(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.renderError(c, err)
		return
	}
	response.Success(c, metrics)
}

func (h *SimulatorHandler) renderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, application.ErrStrategyNotFound),
		errors.Is(err, application.ErrBacktestNotFound),
		errors.Is(err, application.ErrMetricsNotFound):
		response.ErrorWithStatus(c, http.StatusNotFound, err.Error(), "")
	default:
		logging.Error(c.Request.Context(), "Simulator request failed", "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
	}
}
