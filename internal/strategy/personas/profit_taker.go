package personas

import (
	"fmt"
	"math/rand"

	"github.com/shopspring/decimal"

	"github.com/wyfcoding/papertrading/internal/strategy/domain"
)

// ProfitTaker 一次性止盈角色。参考价 = 加权平均成本
// （该角色只有一笔买入，平均成本即买入价，且在重启后仍可用）。
// 仅在从未交易过该标的时大额建仓，此后不再买入；
// 相对平均成本涨超 take_pct 时卖出 sell_fraction 比例。
type ProfitTaker struct {
	entryUSD     decimal.Decimal
	takePct      decimal.Decimal
	sellFraction decimal.Decimal
}

// NewProfitTaker 构造止盈角色
func NewProfitTaker(p domain.Params, _ *rand.Rand) (domain.Evaluator, error) {
	return &ProfitTaker{
		entryUSD:     p.DecimalOr("entry_usd", "200000"),
		takePct:      p.DecimalOr("take_pct", "8"),
		sellFraction: p.DecimalOr("sell_fraction", "0.25"),
	}, nil
}

// Key 角色键
func (t *ProfitTaker) Key() string { return KeyProfitTaker }

// Evaluate 评估决策
func (t *ProfitTaker) Evaluate(ec domain.EvalContext) domain.Decision {
	if ec.AlreadyTradedToday {
		return domain.Hold(holdThrottled)
	}
	if ec.Position == nil {
		if ec.EverTraded {
			return domain.Hold("profit_taker: one-shot entry already spent")
		}
		return domain.BuyUSD(t.entryUSD, "profit_taker: one-shot entry")
	}

	vsCost := pctChange(ec.Price, ec.Position.AvgPrice)
	if vsCost.GreaterThan(t.takePct) {
		shares := ec.Position.Shares.Mul(t.sellFraction)
		return domain.SellShares(shares, fmt.Sprintf("profit_taker: up %s%% vs avg cost, scaling out", vsCost.StringFixed(2)))
	}
	return domain.Hold("profit_taker: waiting for target")
}
