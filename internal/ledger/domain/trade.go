package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TradeSide 成交方向
type TradeSide string

const (
	TradeSideBuy  TradeSide = "BUY"
	TradeSideSell TradeSide = "SELL"
)

// Trade 成交流水，只追加，从不修改或删除。
// 既是审计与展示数据，也是"每日每标的至多一笔"节流的权威来源。
type Trade struct {
	gorm.Model
	TradeID    string          `gorm:"column:trade_id;type:varchar(36);uniqueIndex;not null" json:"trade_id"`
	InvestorID string          `gorm:"column:investor_id;type:varchar(32);index:idx_trade_key;not null" json:"investor_id"`
	Symbol     string          `gorm:"column:symbol;type:varchar(20);index:idx_trade_key;not null" json:"symbol"`
	Side       TradeSide       `gorm:"column:side;type:varchar(4);not null" json:"side"`
	Shares     decimal.Decimal `gorm:"column:shares;type:decimal(32,18);not null" json:"shares"`
	Price      decimal.Decimal `gorm:"column:price;type:decimal(32,18);not null" json:"price"`
	Notional   decimal.Decimal `gorm:"column:notional;type:decimal(32,18);not null" json:"notional"`
	Reason     string          `gorm:"column:reason;type:varchar(255)" json:"reason"`
	ExecutedAt time.Time       `gorm:"column:executed_at;type:datetime;index;not null" json:"executed_at"`
}

// TableName 指定表名
func (Trade) TableName() string { return "trades" }
