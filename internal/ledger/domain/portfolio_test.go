package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPortfolioSeedsAllFromInitialCapital(t *testing.T) {
	p := NewPortfolio("inv-1", d("1000000"))
	assert.True(t, p.CashBalance.Equal(d("1000000")))
	assert.True(t, p.TotalEquity.Equal(d("1000000")))
	assert.True(t, p.PeakEquity.Equal(d("1000000")))
	assert.True(t, p.InitialCapital.Equal(d("1000000")))
}

func TestSettleEquityPeakMonotone(t *testing.T) {
	p := NewPortfolio("inv-1", d("1000000"))

	p.SettleEquity(d("1100000"))
	assert.True(t, p.PeakEquity.Equal(d("1100000")))

	// 回落不压低峰值
	p.SettleEquity(d("900000"))
	assert.True(t, p.TotalEquity.Equal(d("900000")))
	assert.True(t, p.PeakEquity.Equal(d("1100000")))

	p.SettleEquity(d("1200000"))
	assert.True(t, p.PeakEquity.Equal(d("1200000")))
}

func TestDrawdown(t *testing.T) {
	p := NewPortfolio("inv-1", d("1000000"))
	assert.True(t, p.Drawdown().IsZero())

	p.SettleEquity(d("1000000"))
	p.SettleEquity(d("850000"))
	// (1000000 - 850000) / 1000000 = 0.15
	assert.True(t, p.Drawdown().Equal(d("0.15")), "drawdown = %s", p.Drawdown())

	// 权益高于峰值时回撤为零，不为负
	p.PeakEquity = d("800000")
	assert.True(t, p.Drawdown().IsZero())
}
