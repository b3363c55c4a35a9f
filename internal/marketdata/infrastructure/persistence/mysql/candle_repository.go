// Package mysql 提供日线仓储接口的 MySQL GORM 实现。
package mysql

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/wyfcoding/papertrading/internal/marketdata/domain"
)

// candleRepository 是 domain.CandleRepository 接口的 GORM 实现。
type candleRepository struct {
	db *gorm.DB
}

// NewCandleRepository 创建日线仓储实例
func NewCandleRepository(db *gorm.DB) domain.CandleRepository {
	return &candleRepository{db: db}
}

// AutoMigrate 建表
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&domain.Candle{})
}

// Save 保存日线，按 (标的, 交易日) 覆盖
func (r *candleRepository) Save(ctx context.Context, candle *domain.Candle) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "symbol"}, {Name: "bar_date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"open", "high", "low", "close", "volume", "updated_at",
		}),
	}).Create(candle).Error
	if err != nil {
		return fmt.Errorf("failed to save candle: %w", err)
	}
	return nil
}

// Latest 读取最近 limit 根日线，按日期升序返回
func (r *candleRepository) Latest(ctx context.Context, symbol string, limit int) ([]*domain.Candle, error) {
	var candles []*domain.Candle
	err := r.db.WithContext(ctx).
		Where("symbol = ?", symbol).
		Order("bar_date desc").
		Limit(limit).
		Find(&candles).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load candles: %w", err)
	}
	sort.Slice(candles, func(i, j int) bool {
		return candles[i].BarDate.Before(candles[j].BarDate)
	})
	return candles, nil
}

// DeleteBefore 清理超出保留窗口的日线
func (r *candleRepository) DeleteBefore(ctx context.Context, symbol string, before time.Time) error {
	err := r.db.WithContext(ctx).
		Unscoped().
		Where("symbol = ? AND bar_date < ?", symbol, before).
		Delete(&domain.Candle{}).Error
	if err != nil {
		return fmt.Errorf("failed to prune candles: %w", err)
	}
	return nil
}
