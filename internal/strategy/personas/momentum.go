package personas

import (
	"fmt"
	"math/rand"

	"github.com/shopspring/decimal"

	"github.com/wyfcoding/papertrading/internal/strategy/domain"
)

// Momentum 追涨角色。参考价 = 最近一次任意方向成交价。
// 空仓固定金额建仓；相对参考价涨超 add_pct 加仓；跌超 stop_pct 清仓。
type Momentum struct {
	entryUSD decimal.Decimal
	addUSD   decimal.Decimal
	addPct   decimal.Decimal
	stopPct  decimal.Decimal
}

// NewMomentum 构造追涨角色
func NewMomentum(p domain.Params, _ *rand.Rand) (domain.Evaluator, error) {
	return &Momentum{
		entryUSD: p.DecimalOr("entry_usd", "100000"),
		addUSD:   p.DecimalOr("add_usd", "50000"),
		addPct:   p.DecimalOr("add_pct", "5"),
		stopPct:  p.DecimalOr("stop_pct", "7"),
	}, nil
}

// Key 角色键
func (m *Momentum) Key() string { return KeyMomentum }

// Evaluate 评估决策
func (m *Momentum) Evaluate(ec domain.EvalContext) domain.Decision {
	if ec.AlreadyTradedToday {
		return domain.Hold(holdThrottled)
	}
	if ec.Position == nil {
		return domain.BuyUSD(m.entryUSD, "momentum: initial entry")
	}

	chg := pctChange(ec.Price, ec.Position.LastTradePrice)
	if chg.GreaterThan(m.addPct) {
		return domain.BuyUSD(m.addUSD, fmt.Sprintf("momentum: up %s%% since last trade, adding", chg.StringFixed(2)))
	}
	if chg.LessThan(m.stopPct.Neg()) {
		return domain.SellShares(ec.Position.Shares, fmt.Sprintf("momentum: down %s%% since last trade, exiting", chg.Abs().StringFixed(2)))
	}
	return domain.Hold("momentum: within band")
}
