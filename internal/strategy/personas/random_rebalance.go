package personas

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wyfcoding/papertrading/internal/strategy/domain"
)

// rebalanceCooldown 距上次成交的最短间隔，24 小时内不再调仓
const rebalanceCooldown = 24 * time.Hour

// RandomRebalancer 随机调仓角色。持有仓位时掷均匀硬币：
// 正面按持仓名义金额的 trade_fraction 加仓，反面卖出等比例股数。
// 随机源由引擎注入，便于测试时固定种子复现决策序列。
type RandomRebalancer struct {
	entryUSD      decimal.Decimal
	tradeFraction decimal.Decimal
	rng           *rand.Rand
}

// NewRandomRebalancer 构造随机调仓角色
func NewRandomRebalancer(p domain.Params, rng *rand.Rand) (domain.Evaluator, error) {
	if rng == nil {
		return nil, fmt.Errorf("random rebalancer requires a random source")
	}
	return &RandomRebalancer{
		entryUSD:      p.DecimalOr("entry_usd", "100000"),
		tradeFraction: p.DecimalOr("trade_fraction", "0.25"),
		rng:           rng,
	}, nil
}

// Key 角色键
func (r *RandomRebalancer) Key() string { return KeyRandom }

// Evaluate 评估决策
func (r *RandomRebalancer) Evaluate(ec domain.EvalContext) domain.Decision {
	if ec.AlreadyTradedToday {
		return domain.Hold(holdThrottled)
	}

	if ec.Position == nil {
		return domain.BuyUSD(r.entryUSD, "random: initial entry")
	}

	if ec.Now.Sub(ec.Position.LastTradedAt) < rebalanceCooldown {
		return domain.Hold("random: within cooldown since last trade")
	}

	if r.rng.Intn(2) == 0 {
		amount := ec.Position.Notional().Mul(r.tradeFraction)
		return domain.BuyUSD(amount, "random: coin flip up, adding")
	}
	shares := ec.Position.Shares.Mul(r.tradeFraction)
	return domain.SellShares(shares, "random: coin flip down, trimming")
}
