package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestApplyBuyWeightedAverageCost(t *testing.T) {
	now := time.Now()
	p := NewPosition("inv-1", "AAPL", d("100"), d("100"), now)
	assert.True(t, p.AvgPrice.Equal(d("100")))

	// avg = (100×100 + 50×130) / 150 = 110
	p.ApplyBuy(d("50"), d("130"), now)
	assert.True(t, p.Shares.Equal(d("150")))
	assert.True(t, p.AvgPrice.Equal(d("110")), "avg_price = %s", p.AvgPrice)
	assert.True(t, p.LastTradePrice.Equal(d("130")))
}

func TestApplySellKeepsAvgPrice(t *testing.T) {
	now := time.Now()
	p := NewPosition("inv-1", "AAPL", d("100"), d("100"), now)
	p.ApplyBuy(d("100"), d("120"), now)
	avg := p.AvgPrice

	p.ApplySell(d("70"), d("150"), now)
	assert.True(t, p.Shares.Equal(d("130")))
	assert.True(t, p.AvgPrice.Equal(avg), "sell must not move avg cost")
	assert.True(t, p.LastTradePrice.Equal(d("150")))
}

func TestIsDust(t *testing.T) {
	now := time.Now()
	p := NewPosition("inv-1", "AAPL", d("10"), d("100"), now)
	assert.False(t, p.IsDust())

	p.ApplySell(d("10"), d("100"), now)
	assert.True(t, p.IsDust())

	p2 := NewPosition("inv-1", "AAPL", d("0.00000001"), d("100"), now)
	assert.True(t, p2.IsDust())
}

func TestMarketValueAndNotional(t *testing.T) {
	now := time.Now()
	p := NewPosition("inv-1", "AAPL", d("200"), d("100"), now)
	p.ApplySell(d("50"), d("110"), now)

	assert.True(t, p.MarketValue(d("120")).Equal(d("18000")))
	// 名义金额用最近成交价 110
	assert.True(t, p.Notional().Equal(d("16500")))
}
