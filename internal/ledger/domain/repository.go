package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// CashDirection 资金变动方向
type CashDirection string

const (
	CashDebit  CashDirection = "DEBIT"
	CashCredit CashDirection = "CREDIT"
)

// Repository 账本仓储契约
// 读写 Portfolio / Position，追加 Trade / EquitySnapshot。
// 未找到的读返回 (nil, nil)；余额不足的借记不落任何变更。
type Repository interface {
	// GetPortfolio 读取资金账户，不存在返回 (nil, nil)
	GetPortfolio(ctx context.Context, investorID string) (*Portfolio, error)
	// SavePortfolio 保存资金账户。已存在的行按版本号条件更新，
	// 版本过期返回 ErrConflict 且不落库。
	SavePortfolio(ctx context.Context, portfolio *Portfolio) error

	// GetPosition 读取持仓，不存在返回 (nil, nil)
	GetPosition(ctx context.Context, investorID, symbol string) (*Position, error)
	// ListPositions 读取投资者全部持仓
	ListPositions(ctx context.Context, investorID string) ([]*Position, error)
	// ApplyPositionDelta 应用持仓变动并返回变动后的持仓。
	// 买入重算加权平均成本；结果数量低于 DustThreshold 时删除记录并返回 (nil, nil)。
	// 卖出导致负数量返回 ErrInvariantViolation。
	ApplyPositionDelta(ctx context.Context, investorID, symbol string, sharesDelta, price decimal.Decimal, side TradeSide, at time.Time) (*Position, error)

	// DebitCredit 调整现金余额。借记使余额为负时返回 ErrInsufficientCash 且不落库。
	DebitCredit(ctx context.Context, investorID string, amount decimal.Decimal, direction CashDirection) error

	// AppendTrade 追加成交流水
	AppendTrade(ctx context.Context, trade *Trade) error
	// AppendEquitySnapshot 追加权益快照，按 (投资者, 自然日) 覆盖
	AppendEquitySnapshot(ctx context.Context, snapshot *EquitySnapshot) error

	// TradedOn 该投资者当日是否已对该标的成交过
	TradedOn(ctx context.Context, investorID, symbol string, day time.Time) (bool, error)
	// HasTraded 该投资者历史上是否对该标的成交过
	HasTraded(ctx context.Context, investorID, symbol string) (bool, error)

	// ListTrades 倒序分页读取成交流水，investorID 为空表示全部
	ListTrades(ctx context.Context, investorID string, limit, offset int) ([]*Trade, int64, error)
	// ListSnapshots 读取时间区间内的权益快照
	ListSnapshots(ctx context.Context, investorID string, start, end time.Time) ([]*EquitySnapshot, error)

	// WithTx 在单个事务中执行 fn，fn 收到绑定该事务的仓储。
	// 成交执行器靠它保证"流水 + 持仓 + 现金"对每个 (投资者, 标的) 原子提交。
	WithTx(ctx context.Context, fn func(tx Repository) error) error
}
