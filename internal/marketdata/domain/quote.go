// Package domain 行情服务领域模型：即时报价与日线
package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Quote 某一标的的即时报价快照。
// 瞬态数据：每轮消费一次，不作为主状态持久化，仅为展示写入缓存。
type Quote struct {
	Symbol string `json:"symbol"`
	// 现价
	Price decimal.Decimal `json:"price"`
	// 相对昨收的涨跌幅，百分数（+3.5 表示上涨 3.5%）
	ChangePercent decimal.Decimal `json:"change_percent"`
	// 今开，可缺省
	Open decimal.Decimal `json:"open"`
	// 报价时间
	Timestamp time.Time `json:"timestamp"`
}

// QuoteProvider 报价提供方。
// 返回结果缺少某个标的时，当轮跳过该标的，整轮不失败。
type QuoteProvider interface {
	Quotes(ctx context.Context, symbols []string) (map[string]Quote, error)
}

// QuoteCache 最新报价缓存，供展示层读取
type QuoteCache interface {
	Save(ctx context.Context, quote Quote) error
	Get(ctx context.Context, symbol string) (*Quote, error)
}
