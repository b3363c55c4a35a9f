package personas

import (
	"fmt"
	"math/rand"

	"github.com/shopspring/decimal"

	"github.com/wyfcoding/papertrading/internal/strategy/domain"
)

// Breakout 区间突破角色。参考区间 = 近 7 个交易日高低点，不依赖成交衍生的锚点。
// 跌破周低点按持仓名义金额的 add_fraction 买入；升破周高点卖出 sell_fraction 比例。
// 全局风控：回撤超过 max_drawdown 后暂停一切新买入与加仓，仅保留卖出。
type Breakout struct {
	entryUSD     decimal.Decimal
	addFraction  decimal.Decimal
	sellFraction decimal.Decimal
	maxDrawdown  decimal.Decimal
}

// NewBreakout 构造突破角色
func NewBreakout(p domain.Params, _ *rand.Rand) (domain.Evaluator, error) {
	return &Breakout{
		entryUSD:     p.DecimalOr("entry_usd", "100000"),
		addFraction:  p.DecimalOr("add_fraction", "0.3"),
		sellFraction: p.DecimalOr("sell_fraction", "0.3"),
		maxDrawdown:  p.DecimalOr("max_drawdown", "0.15"),
	}, nil
}

// Key 角色键
func (b *Breakout) Key() string { return KeyBreakout }

// Evaluate 评估决策
func (b *Breakout) Evaluate(ec domain.EvalContext) domain.Decision {
	if ec.AlreadyTradedToday {
		return domain.Hold(holdThrottled)
	}

	suspended := ec.Drawdown.GreaterThan(b.maxDrawdown)

	if ec.Position == nil {
		if suspended {
			return domain.Hold(fmt.Sprintf("breakout: drawdown %s exceeds limit, buys suspended", ec.Drawdown.StringFixed(4)))
		}
		return domain.BuyUSD(b.entryUSD, "breakout: initial entry")
	}

	if ec.Window == nil {
		return domain.Hold("breakout: no weekly window yet")
	}

	if ec.Price.GreaterThan(ec.Window.High) {
		shares := ec.Position.Shares.Mul(b.sellFraction)
		return domain.SellShares(shares, fmt.Sprintf("breakout: above weekly high %s, scaling out", ec.Window.High.StringFixed(2)))
	}
	if ec.Price.LessThan(ec.Window.Low) {
		if suspended {
			return domain.Hold(fmt.Sprintf("breakout: drawdown %s exceeds limit, adds suspended", ec.Drawdown.StringFixed(4)))
		}
		amount := ec.Position.Notional().Mul(b.addFraction)
		return domain.BuyUSD(amount, fmt.Sprintf("breakout: below weekly low %s, adding", ec.Window.Low.StringFixed(2)))
	}
	return domain.Hold("breakout: inside weekly range")
}
