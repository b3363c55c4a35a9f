package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	backfillapp "github.com/wyfcoding/papertrading/internal/backfill/application"
	marketmysql "github.com/wyfcoding/papertrading/internal/marketdata/infrastructure/persistence/mysql"
	"github.com/wyfcoding/papertrading/internal/marketdata/infrastructure/provider"
	"github.com/wyfcoding/papertrading/pkg/config"
	"github.com/wyfcoding/papertrading/pkg/db"
	"github.com/wyfcoding/papertrading/pkg/logger"
)

// 一次性回补工具：用模拟行情源把日线窗口填满，
// 让突破角色从引擎首个周期起就有完整的周参考区间。
func main() {
	var configPath string
	var days int
	flag.StringVar(&configPath, "config", "configs/config.toml", "path to config file")
	flag.IntVar(&days, "days", 0, "number of days to backfill, defaults to engine.candle_window_days")
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

	if err := marketmysql.AutoMigrate(database.DB); err != nil {
		logger.Fatal(ctx, "migrate marketdata tables failed", "error", err)
	}

	// 4. Backfill：逐日演化模拟行情并落日线
	if days <= 0 {
		days = cfg.Engine.CandleWindowDays
	}
	symbols := make([]string, 0, len(cfg.Instruments))
	for _, ins := range cfg.Instruments {
		symbols = append(symbols, ins.Symbol)
	}

	quoteProvider := provider.NewSimulated(cfg.Engine.QuoteSeed)
	candleRepo := marketmysql.NewCandleRepository(database.DB)
	backfill := backfillapp.NewBackfill(quoteProvider, candleRepo, days)

	today := time.Now()
	for i := days - 1; i >= 0; i-- {
		day := today.AddDate(0, 0, -i)
		// 每个交易日演化若干步行情，再汇总成当日日线
		for step := 0; step < 10; step++ {
			if _, err := quoteProvider.Quotes(ctx, symbols); err != nil {
				logger.Fatal(ctx, "simulate quotes failed", "error", err)
			}
		}
		if err := backfill.Run(ctx, symbols, day); err != nil {
			logger.Fatal(ctx, "backfill failed", "day", day.Format("2006-01-02"), "error", err)
		}
	}
	logger.Info(ctx, "backfill completed", "days", days, "symbols", len(symbols))
}
