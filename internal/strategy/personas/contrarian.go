package personas

import (
	"fmt"
	"math/rand"

	"github.com/shopspring/decimal"

	"github.com/wyfcoding/papertrading/internal/strategy/domain"
)

// Contrarian 逆势摊低角色。
// 加仓参考价 = 最近成交价（该角色绝大多数成交是买入，近似等于最近买入价）；
// 止盈参考价 = 加权平均成本。
// 空仓固定金额建仓；相对参考价跌超 dip_pct 时按当前持仓名义金额翻倍买入；
// 相对平均成本涨超 take_pct 时卖出 sell_fraction 比例。
type Contrarian struct {
	entryUSD     decimal.Decimal
	dipPct       decimal.Decimal
	takePct      decimal.Decimal
	sellFraction decimal.Decimal
}

// NewContrarian 构造逆势角色
func NewContrarian(p domain.Params, _ *rand.Rand) (domain.Evaluator, error) {
	return &Contrarian{
		entryUSD:     p.DecimalOr("entry_usd", "100000"),
		dipPct:       p.DecimalOr("dip_pct", "10"),
		takePct:      p.DecimalOr("take_pct", "10"),
		sellFraction: p.DecimalOr("sell_fraction", "0.5"),
	}, nil
}

// Key 角色键
func (c *Contrarian) Key() string { return KeyContrarian }

// Evaluate 评估决策
func (c *Contrarian) Evaluate(ec domain.EvalContext) domain.Decision {
	if ec.AlreadyTradedToday {
		return domain.Hold(holdThrottled)
	}
	if ec.Position == nil {
		return domain.BuyUSD(c.entryUSD, "contrarian: initial entry")
	}

	vsCost := pctChange(ec.Price, ec.Position.AvgPrice)
	if vsCost.GreaterThan(c.takePct) {
		shares := ec.Position.Shares.Mul(c.sellFraction)
		return domain.SellShares(shares, fmt.Sprintf("contrarian: up %s%% vs avg cost, taking profit", vsCost.StringFixed(2)))
	}

	vsLast := pctChange(ec.Price, ec.Position.LastTradePrice)
	if vsLast.LessThan(c.dipPct.Neg()) {
		// 翻倍：买入金额等于当前持仓名义金额
		return domain.BuyUSD(ec.Position.Notional(), fmt.Sprintf("contrarian: down %s%% since last trade, averaging down", vsLast.Abs().StringFixed(2)))
	}
	return domain.Hold("contrarian: within band")
}
