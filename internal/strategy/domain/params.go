package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Params 角色阈值参数，来自配置，按角色解释
type Params map[string]string

// DecimalOr 取 decimal 参数，缺省或非法时使用默认值
func (p Params) DecimalOr(key, def string) decimal.Decimal {
	if raw, ok := p[key]; ok {
		if d, err := decimal.NewFromString(raw); err == nil {
			return d
		}
	}
	return decimal.RequireFromString(def)
}

// Validate 校验全部给定参数都能解析为 decimal
func (p Params) Validate() error {
	for key, raw := range p {
		if _, err := decimal.NewFromString(raw); err != nil {
			return fmt.Errorf("invalid persona param %s=%q: %w", key, raw, err)
		}
	}
	return nil
}
