package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func candle(high, low string, day int) *Candle {
	return &Candle{
		Symbol:  "AAPL",
		BarDate: time.Date(2026, 9, day, 0, 0, 0, 0, time.UTC),
		High:    decimal.RequireFromString(high),
		Low:     decimal.RequireFromString(low),
	}
}

func TestWindowOf(t *testing.T) {
	w := WindowOf([]*Candle{
		candle("105", "95", 1),
		candle("112", "99", 2),
		candle("108", "91", 3),
	})
	assert.True(t, w.High.Equal(decimal.RequireFromString("112")))
	assert.True(t, w.Low.Equal(decimal.RequireFromString("91")))
}

func TestWindowOfEmptyIsNil(t *testing.T) {
	assert.Nil(t, WindowOf(nil))
	assert.Nil(t, WindowOf([]*Candle{}))
}
