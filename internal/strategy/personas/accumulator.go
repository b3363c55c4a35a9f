package personas

import (
	"fmt"
	"math/rand"

	"github.com/shopspring/decimal"

	"github.com/wyfcoding/papertrading/internal/strategy/domain"
)

// Accumulator 买入持有角色。参考价 = 最近一次成交价。
// 空仓固定金额建仓；跌超 dip_pct 继续买入；从不卖出。
type Accumulator struct {
	entryUSD decimal.Decimal
	addUSD   decimal.Decimal
	dipPct   decimal.Decimal
}

// NewAccumulator 构造买入持有角色
func NewAccumulator(p domain.Params, _ *rand.Rand) (domain.Evaluator, error) {
	return &Accumulator{
		entryUSD: p.DecimalOr("entry_usd", "100000"),
		addUSD:   p.DecimalOr("add_usd", "50000"),
		dipPct:   p.DecimalOr("dip_pct", "8"),
	}, nil
}

// Key 角色键
func (a *Accumulator) Key() string { return KeyAccumulator }

// Evaluate 评估决策
func (a *Accumulator) Evaluate(ec domain.EvalContext) domain.Decision {
	if ec.AlreadyTradedToday {
		return domain.Hold(holdThrottled)
	}
	if ec.Position == nil {
		return domain.BuyUSD(a.entryUSD, "accumulator: initial entry")
	}

	chg := pctChange(ec.Price, ec.Position.LastTradePrice)
	if chg.LessThan(a.dipPct.Neg()) {
		return domain.BuyUSD(a.addUSD, fmt.Sprintf("accumulator: down %s%% since last trade, accumulating", chg.Abs().StringFixed(2)))
	}
	return domain.Hold("accumulator: holding")
}
