package personas

import (
	"fmt"
	"math/rand"

	"github.com/shopspring/decimal"

	"github.com/wyfcoding/papertrading/internal/strategy/domain"
)

// CashReserve 保守角色。参考价 = 最近一次任意方向成交价。
// 任何买入都要求扣除保底现金 reserve_floor 后仍然足额；
// 跌超 dip_pct 小额补仓；涨超 gain_pct 卖出一半；跌超 panic_pct 清仓。
type CashReserve struct {
	entryUSD     decimal.Decimal
	addUSD       decimal.Decimal
	reserveFloor decimal.Decimal
	dipPct       decimal.Decimal
	gainPct      decimal.Decimal
	panicPct     decimal.Decimal
}

// NewCashReserve 构造保守角色
func NewCashReserve(p domain.Params, _ *rand.Rand) (domain.Evaluator, error) {
	return &CashReserve{
		entryUSD:     p.DecimalOr("entry_usd", "50000"),
		addUSD:       p.DecimalOr("add_usd", "20000"),
		reserveFloor: p.DecimalOr("reserve_floor", "500000"),
		dipPct:       p.DecimalOr("dip_pct", "5"),
		gainPct:      p.DecimalOr("gain_pct", "6"),
		panicPct:     p.DecimalOr("panic_pct", "12"),
	}, nil
}

// Key 角色键
func (c *CashReserve) Key() string { return KeyCashReserve }

// Evaluate 评估决策
func (c *CashReserve) Evaluate(ec domain.EvalContext) domain.Decision {
	if ec.AlreadyTradedToday {
		return domain.Hold(holdThrottled)
	}

	if ec.Position == nil {
		if !c.affordable(ec.Cash, c.entryUSD) {
			return domain.Hold("cash_reserve: entry would breach reserve floor")
		}
		return domain.BuyUSD(c.entryUSD, "cash_reserve: initial entry")
	}

	chg := pctChange(ec.Price, ec.Position.LastTradePrice)
	if chg.LessThan(c.panicPct.Neg()) {
		return domain.SellShares(ec.Position.Shares, fmt.Sprintf("cash_reserve: down %s%% since last trade, exiting", chg.Abs().StringFixed(2)))
	}
	if chg.GreaterThan(c.gainPct) {
		half := ec.Position.Shares.Div(decimal.NewFromInt(2))
		return domain.SellShares(half, fmt.Sprintf("cash_reserve: up %s%% since last trade, selling half", chg.StringFixed(2)))
	}
	if chg.LessThan(c.dipPct.Neg()) {
		if !c.affordable(ec.Cash, c.addUSD) {
			return domain.Hold("cash_reserve: add would breach reserve floor")
		}
		return domain.BuyUSD(c.addUSD, fmt.Sprintf("cash_reserve: down %s%% since last trade, small add", chg.Abs().StringFixed(2)))
	}
	return domain.Hold("cash_reserve: within band")
}

// affordable 扣除保底现金后是否仍可支付 amount
func (c *CashReserve) affordable(cash, amount decimal.Decimal) bool {
	return cash.Sub(c.reserveFloor).GreaterThanOrEqual(amount)
}
