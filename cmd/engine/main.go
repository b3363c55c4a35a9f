package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"

	backfillapp "github.com/wyfcoding/papertrading/internal/backfill/application"
	catalogdomain "github.com/wyfcoding/papertrading/internal/catalog/domain"
	engineapp "github.com/wyfcoding/papertrading/internal/engine/application"
	"github.com/wyfcoding/papertrading/internal/engine/infrastructure/messaging"
	enginehttp "github.com/wyfcoding/papertrading/internal/engine/interfaces/http"
	ledgermysql "github.com/wyfcoding/papertrading/internal/ledger/infrastructure/persistence/mysql"
	marketdomain "github.com/wyfcoding/papertrading/internal/marketdata/domain"
	marketmysql "github.com/wyfcoding/papertrading/internal/marketdata/infrastructure/persistence/mysql"
	marketredis "github.com/wyfcoding/papertrading/internal/marketdata/infrastructure/persistence/redis"
	"github.com/wyfcoding/papertrading/internal/marketdata/infrastructure/provider"
	"github.com/wyfcoding/papertrading/internal/marketdata/interfaces/consumer"
	strategydomain "github.com/wyfcoding/papertrading/internal/strategy/domain"
	"github.com/wyfcoding/papertrading/internal/strategy/personas"
	"github.com/wyfcoding/papertrading/pkg/cache"
	"github.com/wyfcoding/papertrading/pkg/config"
	"github.com/wyfcoding/papertrading/pkg/db"
	"github.com/wyfcoding/papertrading/pkg/logger"
	"github.com/wyfcoding/papertrading/pkg/metrics"
	"github.com/wyfcoding/papertrading/pkg/middleware"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "configs/config.toml", "path to config file")
	flag.Parse()

	// 1. Config
	cfg, err := config.Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("load config failed: %v", err))
	}

	// 2. Logger
	if err := logger.Init(cfg.Logger); err != nil {
		panic(fmt.Sprintf("init logger failed: %v", err))
	}
	ctx := context.Background()
	logger.Info(ctx, "starting engine", "service", cfg.ServiceName, "environment", cfg.Environment)

	// 3. Database
	database, err := db.Init(db.Config{
		DSN:                cfg.Database.DSN,
		MaxOpenConns:       cfg.Database.MaxOpenConns,
		MaxIdleConns:       cfg.Database.MaxIdleConns,
		ConnMaxLifetime:    cfg.Database.ConnMaxLifetime,
		LogEnabled:         cfg.Database.LogEnabled,
		SlowQueryThreshold: cfg.Database.SlowQueryThreshold,
	})
	if err != nil {
		logger.Fatal(ctx, "connect database failed", "error", err)
	}
	defer database.Close()

	if err := ledgermysql.AutoMigrate(database.DB); err != nil {
		logger.Fatal(ctx, "migrate ledger tables failed", "error", err)
	}
	if err := marketmysql.AutoMigrate(database.DB); err != nil {
		logger.Fatal(ctx, "migrate marketdata tables failed", "error", err)
	}

	// 4. Redis（可选的行情展示缓存）
	var quoteCache marketdomain.QuoteCache
	redisClient, err := cache.New(cache.Config{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		MaxPoolSize:  cfg.Redis.MaxPoolSize,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	if err != nil {
		logger.Warn(ctx, "redis unavailable, quote cache disabled", "error", err)
	} else {
		defer redisClient.Close()
		quoteCache = marketredis.NewQuoteCache(redisClient)
	}

	// 5. Catalog
	investors := make([]catalogdomain.Investor, 0, len(cfg.Investors))
	for _, inv := range cfg.Investors {
		investors = append(investors, catalogdomain.Investor{
			ID:      inv.ID,
			Name:    inv.Name,
			Persona: inv.Persona,
			Params:  inv.Params,
		})
	}
	instruments := make([]catalogdomain.Instrument, 0, len(cfg.Instruments))
	for _, ins := range cfg.Instruments {
		instruments = append(instruments, catalogdomain.Instrument{Symbol: ins.Symbol, Name: ins.Name})
	}
	catalog, err := catalogdomain.New(investors, instruments)
	if err != nil {
		logger.Fatal(ctx, "build catalog failed", "error", err)
	}

	// 6. Infrastructure & Domain
	ledgerRepo := ledgermysql.NewLedgerRepository(database.DB)
	candleRepo := marketmysql.NewCandleRepository(database.DB)
	quoteProvider := provider.NewSimulated(cfg.Engine.QuoteSeed)

	var publisher engineapp.EventPublisher
	consumerCtx, stopConsumer := context.WithCancel(ctx)
	defer stopConsumer()
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaPublisher := messaging.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.TradeTopic, cfg.Kafka.EquityTopic)
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher

		if quoteCache != nil {
			quoteConsumer := consumer.NewQuoteEventHandler(cfg.Kafka.Brokers, cfg.Kafka.QuoteTopic, cfg.Kafka.GroupID, quoteCache)
			defer quoteConsumer.Close()
			go quoteConsumer.Run(consumerCtx)
		}
	}

	initialCapital, err := decimal.NewFromString(cfg.Engine.InitialCapital)
	if err != nil {
		logger.Fatal(ctx, "invalid engine.initial_capital", "error", err)
	}
	minNotional, err := decimal.NewFromString(cfg.Engine.MinTradeNotional)
	if err != nil {
		logger.Fatal(ctx, "invalid engine.min_trade_notional", "error", err)
	}

	// 7. Application
	m := metrics.New("engine")
	executor := engineapp.NewExecutor(ledgerRepo, minNotional, m, publisher)
	settlement := engineapp.NewSettlement(ledgerRepo, m, publisher)

	registry := strategydomain.NewRegistry()
	personas.Register(registry)

	engine, err := engineapp.NewEngine(engineapp.EngineOptions{
		Catalog:          catalog,
		Registry:         registry,
		Repo:             ledgerRepo,
		Executor:         executor,
		Settlement:       settlement,
		Provider:         quoteProvider,
		QuoteCache:       quoteCache,
		Candles:          candleRepo,
		Metrics:          m,
		InitialCapital:   initialCapital,
		CandleWindowDays: cfg.Engine.CandleWindowDays,
		CycleTimeout:     time.Duration(cfg.Engine.CycleTimeoutSeconds) * time.Second,
		Rand:             rand.New(rand.NewSource(time.Now().UnixNano())),
	})
	if err != nil {
		logger.Fatal(ctx, "build engine failed", "error", err)
	}

	backfill := backfillapp.NewBackfill(quoteProvider, candleRepo, cfg.Engine.CandleWindowDays)

	// 8. Scheduler：快节拍跑模拟周期，慢节拍滚动日线窗口
	scheduler := cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DiscardLogger),
		cron.Recover(cron.DiscardLogger),
	))
	fastSpec := fmt.Sprintf("@every %ds", cfg.Engine.FastIntervalSeconds)
	if _, err := scheduler.AddFunc(fastSpec, func() {
		if err := engine.RunCycle(ctx); err != nil {
			logger.Error(ctx, "cycle run failed", "error", err)
		}
	}); err != nil {
		logger.Fatal(ctx, "schedule fast cycle failed", "error", err)
	}
	slowSpec := fmt.Sprintf("@every %ds", cfg.Engine.FastIntervalSeconds*cfg.Engine.SlowIntervalMultiple)
	if _, err := scheduler.AddFunc(slowSpec, func() {
		if err := backfill.Run(ctx, catalog.Symbols(), time.Now()); err != nil {
			logger.Error(ctx, "candle backfill failed", "error", err)
		}
	}); err != nil {
		logger.Fatal(ctx, "schedule backfill failed", "error", err)
	}
	scheduler.Start()

	// 9. Interfaces
	if cfg.Environment == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), middleware.GinLogging())
	enginehttp.NewEngineHandler(catalog, ledgerRepo, quoteCache).RegisterRoutes(router)
	httpSrv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeout) * time.Second,
	}
	go func() {
		logger.Info(ctx, "starting http server", "addr", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal(ctx, "http server failed", "error", err)
		}
	}()

	var metricsSrv *http.Server
	if cfg.Metrics.Enabled {
		metricsSrv = m.Serve(cfg.Metrics.Port, cfg.Metrics.Path)
		logger.Info(ctx, "metrics exposed", "port", cfg.Metrics.Port, "path", cfg.Metrics.Path)
	}

	// 10. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info(ctx, "shutting down")

	// 等待正在跑的周期收尾
	stopCtx := scheduler.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(time.Duration(cfg.Engine.CycleTimeoutSeconds) * time.Second):
		logger.Warn(ctx, "cycle did not finish before shutdown deadline")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "http server forced to shutdown", "error", err)
	}
	if metricsSrv != nil {
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			logger.Error(ctx, "metrics server forced to shutdown", "error", err)
		}
	}
	logger.Info(ctx, "engine exited")
}
