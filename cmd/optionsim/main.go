package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/pkg/config"
	"github.com/wyfcoding/pkg/database"
	"github.com/wyfcoding/pkg/logging"
	"github.com/wyfcoding/pkg/messagequeue/kafka"
	"github.com/wyfcoding/pkg/messagequeue/outbox"
	"github.com/wyfcoding/pkg/metrics"
	"github.com/wyfcoding/pkg/redis"
	"golang.org/x/sync/errgroup"

	marketapp "github.com/wyfcoding/optionsim/internal/market/application"
	marketdomain "github.com/wyfcoding/optionsim/internal/market/domain"
	marketmysql "github.com/wyfcoding/optionsim/internal/market/infrastructure/persistence/mysql"
	markethttp "github.com/wyfcoding/optionsim/internal/market/interfaces/http"
	simapp "github.com/wyfcoding/optionsim/internal/simulator/application"
	simdomain "github.com/wyfcoding/optionsim/internal/simulator/domain"
	"github.com/wyfcoding/optionsim/internal/simulator/infrastructure/client"
	"github.com/wyfcoding/optionsim/internal/simulator/infrastructure/messaging"
	simmysql "github.com/wyfcoding/optionsim/internal/simulator/infrastructure/persistence/mysql"
	simredis "github.com/wyfcoding/optionsim/internal/simulator/infrastructure/persistence/redis"
	"github.com/wyfcoding/optionsim/internal/simulator/interfaces/consumer"
	simhttp "github.com/wyfcoding/optionsim/internal/simulator/interfaces/http"
)

var configPath = flag.String("config", "configs/optionsim/config.toml", "config file path")

// Config 服务扩展配置
type Config struct {
	config.Config `mapstructure:",squash"`
	Market        struct {
		RiskFreeRate      float64 `mapstructure:"risk_free_rate" toml:"risk_free_rate"`
		DividendYield     float64 `mapstructure:"dividend_yield" toml:"dividend_yield"`
		StrikeInterval    float64 `mapstructure:"strike_interval" toml:"strike_interval"`
		DefaultVolatility float64 `mapstructure:"default_volatility" toml:"default_volatility"`
		MaxStrikeRange    int     `mapstructure:"max_strike_range" toml:"max_strike_range"`
	} `mapstructure:"market" toml:"market"`
	Simulator struct {
		LotSize int `mapstructure:"lot_size" toml:"lot_size"`
	} `mapstructure:"simulator" toml:"simulator"`
}

// applyDefaults 填充未配置的合成与回测参数
func (c *Config) applyDefaults() {
	if c.Market.RiskFreeRate == 0 {
		c.Market.RiskFreeRate = 0.065
	}
	if c.Market.DividendYield == 0 {
		c.Market.DividendYield = 0.012
	}
	if c.Market.StrikeInterval == 0 {
		c.Market.StrikeInterval = 50
	}
	if c.Market.DefaultVolatility == 0 {
		c.Market.DefaultVolatility = 0.15
	}
	if c.Market.MaxStrikeRange == 0 {
		c.Market.MaxStrikeRange = 50
	}
	if c.Simulator.LotSize == 0 {
		c.Simulator.LotSize = 50
	}
}

func main() {
	flag.Parse()

	// 1. Config
	var cfg Config
	if err := config.Load(*configPath, &cfg); err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	cfg.applyDefaults()

	// 2. Logger
	logCfg := &logging.Config{
		Service:    cfg.Server.Name,
		Module:     "optionsim",
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	}
	logger := logging.NewFromConfig(logCfg)
	slog.SetDefault(logger.Logger)

	// 3. Metrics
	metricsImpl := metrics.NewMetrics(cfg.Server.Name)
	if cfg.Metrics.Enabled {
		go metricsImpl.ExposeHTTP(cfg.Metrics.Port)
	}

	// 4. Database
	db, err := database.NewDB(cfg.Data.Database, cfg.CircuitBreaker, logger, metricsImpl)
	if err != nil {
		slog.Error("failed to connect database", "error", err)
		os.Exit(1)
	}

	if cfg.Server.Environment == "dev" {
		if err := db.RawDB().AutoMigrate(
			&marketmysql.CandleModel{},
			&simmysql.StrategyModel{},
			&simmysql.StrategyLegModel{},
			&simmysql.BacktestModel{},
			&simmysql.TradeModel{},
			&simmysql.TradeLegModel{},
			&simmysql.MetricsModel{},
			&outbox.Message{},
		); err != nil {
			slog.Error("failed to migrate database", "error", err)
		}
	}

	// 5. Redis
	redisClient, redisCleanup, err := redis.NewClient(&cfg.Data.Redis, logger)
	if err != nil {
		slog.Error("failed to connect redis", "error", err)
		os.Exit(1)
	}
	defer redisCleanup()

	// 6. Outbox & Kafka
	producer := kafka.NewProducer(&cfg.MessageQueue.Kafka, logger, metricsImpl)
	outboxMgr := outbox.NewManager(db.RawDB(), logger.Logger)
	outboxProc := outbox.NewProcessor(outboxMgr, func(ctx context.Context, topic, key string, payload []byte) error {
		return producer.PublishToTopic(ctx, topic, []byte(key), payload)
	}, 100, 5*time.Second)
	outboxProc.Start()
	defer func() {
		outboxProc.Stop()
		producer.Close()
	}()

	// 7. Market bounded context
	candleRepo := marketmysql.NewCandleRepository(db.RawDB())
	synthesizer := marketdomain.NewChainSynthesizer(candleRepo, marketdomain.ChainConfig{
		RiskFreeRate:      cfg.Market.RiskFreeRate,
		DividendYield:     cfg.Market.DividendYield,
		StrikeInterval:    cfg.Market.StrikeInterval,
		DefaultVolatility: cfg.Market.DefaultVolatility,
		MaxStrikeRange:    cfg.Market.MaxStrikeRange,
	}, logger.Logger)
	marketService := marketapp.NewMarketDataService(candleRepo, synthesizer, logger.Logger)

	// 8. Simulator bounded context
	strategyRepo := simmysql.NewStrategyRepository(db.RawDB())
	backtestRepo := simmysql.NewBacktestRepository(db.RawDB())
	tradeRepo := simmysql.NewTradeRepository(db.RawDB())
	metricsRepo := simredis.NewMetricsReadRepository(redisClient, simmysql.NewMetricsRepository(db.RawDB()))
	publisher := messaging.NewOutboxPublisher(outboxMgr)

	engine := simdomain.NewBacktestEngine(
		strategyRepo,
		backtestRepo,
		tradeRepo,
		metricsRepo,
		client.NewMarketSource(marketService),
		publisher,
		simdomain.EngineConfig{
			RiskFreeRate:   cfg.Market.RiskFreeRate,
			StrikeInterval: cfg.Market.StrikeInterval,
			LotSize:        cfg.Simulator.LotSize,
		},
		logger.Logger,
	)
	simulatorService := simapp.NewSimulatorService(strategyRepo, backtestRepo, tradeRepo, metricsRepo, engine, logger.Logger)

	// 9. Kafka consumer: 回测完成事件驱动读模型刷新
	kafkaCfg := &cfg.MessageQueue.Kafka
	kafkaCfg.GroupID = "optionsim-group"
	kafkaCfg.Topic = simdomain.BacktestCompletedTopic

	kafkaConsumer := kafka.NewConsumer(kafkaCfg, logger, metricsImpl)
	projector := simapp.NewMetricsProjectionService(metricsRepo, logger.Logger)
	projectionHandler := consumer.NewBacktestProjectionHandler(projector, logger.Logger)
	kafkaConsumer.Start(context.Background(), 1, projectionHandler.Handle)

	// 10. HTTP
	gin.SetMode(gin.ReleaseMode)
	if cfg.Server.Environment == "dev" {
		gin.SetMode(gin.DebugMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	api := r.Group("/api")
	markethttp.NewMarketHandler(marketService).RegisterRoutes(api)
	simhttp.NewSimulatorHandler(simulatorService).RegisterRoutes(api)

	// 11. Start
	g, ctx := errgroup.WithContext(context.Background())

	g.Go(func() error {
		addr := fmt.Sprintf(":%d", cfg.Server.HTTP.Port)
		server := &http.Server{Addr: addr, Handler: r}
		slog.Info("HTTP server starting", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-quit:
			slog.Info("shutting down servers...")
		case <-ctx.Done():
			slog.Info("context cancelled, shutting down...")
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		slog.Error("server exited with error", "error", err)
	}
}
