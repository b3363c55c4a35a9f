// Package domain 策略服务领域层：决策契约与角色注册表
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Action 决策动作
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionHold Action = "HOLD"
)

// Decision 策略对单个 (投资者, 标的) 的决策结果
type Decision struct {
	Action Action
	// 买入金额（USD），BUY 时与 Shares 二选一
	AmountUSD decimal.Decimal
	// 卖出数量，SELL 时与 AmountUSD 二选一
	Shares decimal.Decimal
	// 决策理由，落入成交流水
	Reason string
}

// Hold 返回无操作决策
func Hold(reason string) Decision {
	return Decision{Action: ActionHold, Reason: reason}
}

// BuyUSD 返回按金额买入的决策
func BuyUSD(amount decimal.Decimal, reason string) Decision {
	return Decision{Action: ActionBuy, AmountUSD: amount, Reason: reason}
}

// SellShares 返回按数量卖出的决策
func SellShares(shares decimal.Decimal, reason string) Decision {
	return Decision{Action: ActionSell, Shares: shares, Reason: reason}
}

// SellUSD 返回按金额卖出的决策，执行时换算并按持仓数量封顶
func SellUSD(amount decimal.Decimal, reason string) Decision {
	return Decision{Action: ActionSell, AmountUSD: amount, Reason: reason}
}

// PositionView 持仓只读视图，策略层不依赖账本实体
type PositionView struct {
	Shares decimal.Decimal
	// 加权平均成本
	AvgPrice decimal.Decimal
	// 最近一次任意方向成交的价格
	LastTradePrice decimal.Decimal
	// 最近成交时间
	LastTradedAt time.Time
}

// Notional 按参考价计算持仓名义金额
func (v *PositionView) Notional() decimal.Decimal {
	return v.Shares.Mul(v.LastTradePrice)
}

// EvalContext 策略输入。评估器必须无副作用：
// 回撤比例由结算预先算好传入，评估器不自行重算。
type EvalContext struct {
	Symbol string
	// 现价
	Price decimal.Decimal
	// 相对昨收涨跌幅（百分数）
	ChangePercent decimal.Decimal
	// 可用现金
	Cash decimal.Decimal
	// 持仓视图，空仓为 nil
	Position *PositionView
	// 当日是否已对该标的成交（节流：每日每标的至多一笔）
	AlreadyTradedToday bool
	// 是否曾经对该标的成交过
	EverTraded bool
	// 当前总权益
	TotalEquity decimal.Decimal
	// 距峰值回撤比例 [0,1]
	Drawdown decimal.Decimal
	// 近 7 个交易日高低区间，无数据为 nil
	Window *PriceWindow
	// 评估时间
	Now time.Time
}

// PriceWindow 突破类角色的参考区间
type PriceWindow struct {
	High decimal.Decimal
	Low  decimal.Decimal
}

// Evaluator 单个角色的纯决策函数。
// 同样输入必须给出同样输出；需要随机性的角色通过注入的随机源实现可测性。
// AlreadyTradedToday 为真时一律返回 HOLD。
type Evaluator interface {
	// Key 角色键
	Key() string
	// Evaluate 评估当前状态并给出决策
	Evaluate(ec EvalContext) Decision
}
