package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Candle 日线数据，由回补任务写入，引擎侧只读
type Candle struct {
	gorm.Model
	Symbol  string          `gorm:"column:symbol;type:varchar(20);uniqueIndex:idx_symbol_date;not null" json:"symbol"`
	BarDate time.Time       `gorm:"column:bar_date;type:date;uniqueIndex:idx_symbol_date;not null" json:"bar_date"`
	Open    decimal.Decimal `gorm:"column:open;type:decimal(32,18);not null" json:"open"`
	High    decimal.Decimal `gorm:"column:high;type:decimal(32,18);not null" json:"high"`
	Low     decimal.Decimal `gorm:"column:low;type:decimal(32,18);not null" json:"low"`
	Close   decimal.Decimal `gorm:"column:close;type:decimal(32,18);not null" json:"close"`
	Volume  decimal.Decimal `gorm:"column:volume;type:decimal(32,18);not null" json:"volume"`
}

// TableName 指定表名
func (Candle) TableName() string { return "candles" }

// CandleRepository 日线仓储接口
type CandleRepository interface {
	// Save 保存日线，按 (标的, 交易日) 覆盖
	Save(ctx context.Context, candle *Candle) error
	// Latest 读取最近 limit 根日线，按日期升序返回
	Latest(ctx context.Context, symbol string, limit int) ([]*Candle, error)
	// DeleteBefore 清理超出保留窗口的日线
	DeleteBefore(ctx context.Context, symbol string, before time.Time) error
}

// PriceWindow 区间高低点，突破类角色的周参考区间
type PriceWindow struct {
	High decimal.Decimal
	Low  decimal.Decimal
}

// WindowOf 汇总一组日线的最高价与最低价，空输入返回 nil
func WindowOf(candles []*Candle) *PriceWindow {
	if len(candles) == 0 {
		return nil
	}
	w := &PriceWindow{High: candles[0].High, Low: candles[0].Low}
	for _, c := range candles[1:] {
		if c.High.GreaterThan(w.High) {
			w.High = c.High
		}
		if c.Low.LessThan(w.Low) {
			w.Low = c.Low
		}
	}
	return w
}
