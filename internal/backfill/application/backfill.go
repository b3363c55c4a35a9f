// Package application 日线回补任务：滚动交易日、落日线并清理过期数据
package application

import (
	"context"
	"fmt"
	"time"

	marketdomain "github.com/wyfcoding/papertrading/internal/marketdata/domain"
	"github.com/wyfcoding/papertrading/pkg/logger"
)

// CandleSource 日线来源。模拟报价源在滚动交易日时产出前一日的日线。
type CandleSource interface {
	DailyCandle(symbol string, day time.Time) *marketdomain.Candle
}

// Backfill 日线回补服务。
// 慢节拍触发：对每个标的取当日日线落库，并裁掉保留窗口之外的旧数据，
// 突破类角色只依赖这里维护的窗口。
type Backfill struct {
	source     CandleSource
	candles    marketdomain.CandleRepository
	windowDays int
}

// NewBackfill 创建回补服务
func NewBackfill(source CandleSource, candles marketdomain.CandleRepository, windowDays int) *Backfill {
	return &Backfill{source: source, candles: candles, windowDays: windowDays}
}

// Run 回补一批标的的日线。单个标的失败跳过，不中断整批。
func (b *Backfill) Run(ctx context.Context, symbols []string, day time.Time) error {
	var failed int
	cutoff := day.AddDate(0, 0, -b.windowDays)

	for _, symbol := range symbols {
		candle := b.source.DailyCandle(symbol, day)
		if candle == nil {
			continue
		}
		if err := b.candles.Save(ctx, candle); err != nil {
			failed++
			logger.Error(ctx, "failed to save candle", "symbol", symbol, "error", err)
			continue
		}
		if err := b.candles.DeleteBefore(ctx, symbol, cutoff); err != nil {
			logger.Warn(ctx, "failed to prune old candles", "symbol", symbol, "error", err)
		}
	}

	logger.Info(ctx, "candle backfill finished",
		"symbols", len(symbols), "failed", failed, "day", day.Format("2006-01-02"))
	if failed == len(symbols) && len(symbols) > 0 {
		return fmt.Errorf("candle backfill failed for all %d symbols", failed)
	}
	return nil
}
