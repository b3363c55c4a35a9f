// Package domain 账本服务领域模型：资金、持仓、成交流水与权益快照
package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Portfolio 投资者资金账户
// 现金只由成交执行器变更，权益与峰值只由结算变更，从不删除。
type Portfolio struct {
	gorm.Model
	// 投资者 ID，唯一
	InvestorID string `gorm:"column:investor_id;type:varchar(32);uniqueIndex;not null" json:"investor_id"`
	// 现金余额，任何时刻 >= 0
	CashBalance decimal.Decimal `gorm:"column:cash_balance;type:decimal(32,18);not null" json:"cash_balance"`
	// 总权益 = 现金 + Σ(持仓 × 标记价)，结算时刷新
	TotalEquity decimal.Decimal `gorm:"column:total_equity;type:decimal(32,18);not null" json:"total_equity"`
	// 初始资金，常量
	InitialCapital decimal.Decimal `gorm:"column:initial_capital;type:decimal(32,18);not null" json:"initial_capital"`
	// 历史峰值权益，单调不减
	PeakEquity decimal.Decimal `gorm:"column:peak_equity;type:decimal(32,18);not null" json:"peak_equity"`
	// 乐观锁版本号
	Version int64 `gorm:"column:version;not null;default:0" json:"-"`
}

// TableName 指定表名
func (Portfolio) TableName() string { return "portfolios" }

// NewPortfolio 以初始资金开户
func NewPortfolio(investorID string, initialCapital decimal.Decimal) *Portfolio {
	return &Portfolio{
		InvestorID:     investorID,
		CashBalance:    initialCapital,
		TotalEquity:    initialCapital,
		InitialCapital: initialCapital,
		PeakEquity:     initialCapital,
	}
}

// SettleEquity 写入新的总权益并抬升峰值
func (p *Portfolio) SettleEquity(totalEquity decimal.Decimal) {
	p.TotalEquity = totalEquity
	if totalEquity.GreaterThan(p.PeakEquity) {
		p.PeakEquity = totalEquity
	}
}

// Drawdown 返回距峰值的回撤比例 (peak-equity)/peak，峰值为零时返回零
func (p *Portfolio) Drawdown() decimal.Decimal {
	if p.PeakEquity.IsZero() {
		return decimal.Zero
	}
	dd := p.PeakEquity.Sub(p.TotalEquity).Div(p.PeakEquity)
	if dd.IsNegative() {
		return decimal.Zero
	}
	return dd
}

// EquitySnapshot 权益快照，按投资者 + 自然日唯一，当日多次结算覆盖同一行
type EquitySnapshot struct {
	gorm.Model
	InvestorID   string          `gorm:"column:investor_id;type:varchar(32);uniqueIndex:idx_investor_date;not null" json:"investor_id"`
	SnapshotDate time.Time       `gorm:"column:snapshot_date;type:date;uniqueIndex:idx_investor_date;not null" json:"snapshot_date"`
	TotalEquity  decimal.Decimal `gorm:"column:total_equity;type:decimal(32,18);not null" json:"total_equity"`
	CashBalance  decimal.Decimal `gorm:"column:cash_balance;type:decimal(32,18);not null" json:"cash_balance"`
	SettledAt    time.Time       `gorm:"column:settled_at;type:datetime;not null" json:"settled_at"`
}

// TableName 指定表名
func (EquitySnapshot) TableName() string { return "equity_snapshots" }
