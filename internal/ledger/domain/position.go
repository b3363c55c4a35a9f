package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DustThreshold 持仓数量清理阈值：低于此值视同清仓，记录删除
var DustThreshold = decimal.NewFromFloat(1e-4)

// Position 持仓，仅在数量 > 0 时存在
type Position struct {
	gorm.Model
	InvestorID string `gorm:"column:investor_id;type:varchar(32);uniqueIndex:idx_investor_symbol;not null" json:"investor_id"`
	Symbol     string `gorm:"column:symbol;type:varchar(20);uniqueIndex:idx_investor_symbol;not null" json:"symbol"`
	// 持仓数量，>= 0
	Shares decimal.Decimal `gorm:"column:shares;type:decimal(32,18);not null" json:"shares"`
	// 加权平均成本，卖出不变
	AvgPrice decimal.Decimal `gorm:"column:avg_price;type:decimal(32,18);not null" json:"avg_price"`
	// 最近一次任意方向成交的价格，多数角色的参考价
	LastTradePrice decimal.Decimal `gorm:"column:last_trade_price;type:decimal(32,18);not null" json:"last_trade_price"`
	// 最近成交时间
	LastTradedAt time.Time `gorm:"column:last_traded_at;type:datetime;not null" json:"last_traded_at"`
}

// TableName 指定表名
func (Position) TableName() string { return "positions" }

// NewPosition 首次买入建仓，平均成本即本笔价格
func NewPosition(investorID, symbol string, shares, price decimal.Decimal, at time.Time) *Position {
	return &Position{
		InvestorID:     investorID,
		Symbol:         symbol,
		Shares:         shares,
		AvgPrice:       price,
		LastTradePrice: price,
		LastTradedAt:   at,
	}
}

// ApplyBuy 加仓并重算加权平均成本
// avg = (旧数量×旧均价 + 本笔数量×本笔价格) / 新数量
func (p *Position) ApplyBuy(shares, price decimal.Decimal, at time.Time) {
	totalCost := p.AvgPrice.Mul(p.Shares).Add(price.Mul(shares))
	newShares := p.Shares.Add(shares)
	if newShares.IsPositive() {
		p.AvgPrice = totalCost.Div(newShares)
	}
	p.Shares = newShares
	p.LastTradePrice = price
	p.LastTradedAt = at
}

// ApplySell 减仓。平均成本不变，参考价更新为本笔价格。
func (p *Position) ApplySell(shares, price decimal.Decimal, at time.Time) {
	p.Shares = p.Shares.Sub(shares)
	p.LastTradePrice = price
	p.LastTradedAt = at
}

// IsDust 数量是否已低于清理阈值
func (p *Position) IsDust() bool {
	return p.Shares.LessThan(DustThreshold)
}

// MarketValue 按标记价计算市值
func (p *Position) MarketValue(markPrice decimal.Decimal) decimal.Decimal {
	return p.Shares.Mul(markPrice)
}

// Notional 按参考价计算当前持仓名义金额
func (p *Position) Notional() decimal.Decimal {
	return p.Shares.Mul(p.LastTradePrice)
}
