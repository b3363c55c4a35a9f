package provider

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuotesDeterministicWithSeed(t *testing.T) {
	ctx := context.Background()
	symbols := []string{"AAPL", "MSFT"}

	a := NewSimulated(42)
	b := NewSimulated(42)

	for i := 0; i < 5; i++ {
		qa, err := a.Quotes(ctx, symbols)
		require.NoError(t, err)
		qb, err := b.Quotes(ctx, symbols)
		require.NoError(t, err)

		for _, s := range symbols {
			assert.True(t, qa[s].Price.Equal(qb[s].Price), "step %d symbol %s", i, s)
		}
	}
}

func TestQuotesArePositive(t *testing.T) {
	ctx := context.Background()
	sim := NewSimulated(7)

	for i := 0; i < 100; i++ {
		quotes, err := sim.Quotes(ctx, []string{"AAPL"})
		require.NoError(t, err)
		assert.True(t, quotes["AAPL"].Price.IsPositive())
	}
}

func TestDailyCandleRollsDay(t *testing.T) {
	ctx := context.Background()
	sim := NewSimulated(7)
	day := time.Date(2026, 9, 1, 15, 30, 0, 0, time.UTC)

	for i := 0; i < 10; i++ {
		_, err := sim.Quotes(ctx, []string{"AAPL"})
		require.NoError(t, err)
	}

	candle := sim.DailyCandle("AAPL", day)
	require.NotNil(t, candle)
	assert.Equal(t, time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), candle.BarDate)
	assert.True(t, candle.High.GreaterThanOrEqual(candle.Low))
	assert.True(t, candle.High.GreaterThanOrEqual(candle.Close))
	assert.True(t, candle.Low.LessThanOrEqual(candle.Open))

	// 滚动后次日从昨收开盘，涨跌幅相对新的昨收
	quotes, err := sim.Quotes(ctx, []string{"AAPL"})
	require.NoError(t, err)
	next := sim.DailyCandle("AAPL", day.AddDate(0, 0, 1))
	assert.True(t, next.Open.Equal(candle.Close))
	assert.NotNil(t, quotes["AAPL"])
}
