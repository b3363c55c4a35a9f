// Package personas 七个内置策略角色的评估器实现。
// 每个评估器是无副作用的纯函数；各角色的参考价约定见各文件头注释。
package personas

import (
	"github.com/shopspring/decimal"

	"github.com/wyfcoding/papertrading/internal/strategy/domain"
)

// 角色键
const (
	KeyMomentum    = "momentum"
	KeyContrarian  = "contrarian"
	KeyProfitTaker = "profit_taker"
	KeyCashReserve = "cash_reserve"
	KeyAccumulator = "accumulator"
	KeyBreakout    = "breakout"
	KeyRandom      = "random"
)

// Register 将全部内置角色注册到注册表
func Register(r *domain.Registry) {
	r.Register(KeyMomentum, NewMomentum)
	r.Register(KeyContrarian, NewContrarian)
	r.Register(KeyProfitTaker, NewProfitTaker)
	r.Register(KeyCashReserve, NewCashReserve)
	r.Register(KeyAccumulator, NewAccumulator)
	r.Register(KeyBreakout, NewBreakout)
	r.Register(KeyRandom, NewRandomRebalancer)
}

// pctChange 现价相对参考价的涨跌幅（百分数），参考价为零时返回零
func pctChange(price, ref decimal.Decimal) decimal.Decimal {
	if ref.IsZero() {
		return decimal.Zero
	}
	return price.Sub(ref).Div(ref).Mul(decimal.NewFromInt(100))
}

const holdThrottled = "already traded this instrument today"
