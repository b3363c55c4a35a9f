package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	marketdomain "github.com/wyfcoding/papertrading/internal/marketdata/domain"
	strategydomain "github.com/wyfcoding/papertrading/internal/strategy/domain"
	"github.com/wyfcoding/papertrading/pkg/metrics"
)

func quotesOf(symbol, price string) map[string]marketdomain.Quote {
	return map[string]marketdomain.Quote{
		symbol: {Symbol: symbol, Price: d(price), Timestamp: testNow},
	}
}

func TestSettleEquityIdentity(t *testing.T) {
	repo := newFakeRepo()
	repo.seedPortfolio("inv-1", d("1000000"))
	exec := newTestExecutor(repo)
	settle := NewSettlement(repo, metrics.New("test"), nil)
	ctx := context.Background()

	_, err := exec.Execute(ctx, "inv-1", "AAPL",
		strategydomain.BuyUSD(d("100000"), "entry"), d("100"), testNow)
	require.NoError(t, err)

	// equity = 900000 现金 + 1000 股 × 120
	result, err := settle.Settle(ctx, "inv-1", quotesOf("AAPL", "120"), testNow)
	require.NoError(t, err)
	assert.True(t, result.TotalEquity.Equal(d("1020000")), "equity = %s", result.TotalEquity)
	assert.True(t, result.PeakEquity.Equal(d("1020000")))
	assert.True(t, result.Drawdown.IsZero())
}

func TestSettleFallsBackToLastTradePrice(t *testing.T) {
	repo := newFakeRepo()
	repo.seedPortfolio("inv-1", d("1000000"))
	exec := newTestExecutor(repo)
	settle := NewSettlement(repo, metrics.New("test"), nil)
	ctx := context.Background()

	_, err := exec.Execute(ctx, "inv-1", "AAPL",
		strategydomain.BuyUSD(d("100000"), "entry"), d("100"), testNow)
	require.NoError(t, err)

	// 本周期没有 AAPL 的行情：按最近成交价 100 标记
	result, err := settle.Settle(ctx, "inv-1", map[string]marketdomain.Quote{}, testNow)
	require.NoError(t, err)
	assert.True(t, result.TotalEquity.Equal(d("1000000")))
}

func TestSettlePeakMonotoneAndDrawdown(t *testing.T) {
	repo := newFakeRepo()
	repo.seedPortfolio("inv-1", d("1000000"))
	exec := newTestExecutor(repo)
	settle := NewSettlement(repo, metrics.New("test"), nil)
	ctx := context.Background()

	_, err := exec.Execute(ctx, "inv-1", "AAPL",
		strategydomain.BuyUSD(d("500000"), "entry"), d("100"), testNow)
	require.NoError(t, err)

	// 涨到 120：峰值抬升
	result, err := settle.Settle(ctx, "inv-1", quotesOf("AAPL", "120"), testNow)
	require.NoError(t, err)
	assert.True(t, result.PeakEquity.Equal(d("1100000")))

	// 跌回 90：峰值不动，回撤 = (1100000-950000)/1100000
	result, err = settle.Settle(ctx, "inv-1", quotesOf("AAPL", "90"), testNow.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, result.TotalEquity.Equal(d("950000")))
	assert.True(t, result.PeakEquity.Equal(d("1100000")))
	expected := d("150000").Div(d("1100000"))
	assert.True(t, result.Drawdown.Equal(expected), "drawdown = %s", result.Drawdown)
}

func TestSettleUpsertsDailySnapshot(t *testing.T) {
	repo := newFakeRepo()
	repo.seedPortfolio("inv-1", d("1000000"))
	settle := NewSettlement(repo, metrics.New("test"), nil)
	ctx := context.Background()

	// 同一天两次结算只留一条快照
	_, err := settle.Settle(ctx, "inv-1", map[string]marketdomain.Quote{}, testNow)
	require.NoError(t, err)
	_, err = settle.Settle(ctx, "inv-1", map[string]marketdomain.Quote{}, testNow.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Len(t, repo.snapshots, 1)

	// 次日结算新增一条
	_, err = settle.Settle(ctx, "inv-1", map[string]marketdomain.Quote{}, testNow.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Len(t, repo.snapshots, 2)
}

func TestSettleFlatPortfolio(t *testing.T) {
	repo := newFakeRepo()
	repo.seedPortfolio("inv-1", d("1000000"))
	settle := NewSettlement(repo, metrics.New("test"), nil)

	// 没有任何持仓与成交也出快照
	result, err := settle.Settle(context.Background(), "inv-1", map[string]marketdomain.Quote{}, testNow)
	require.NoError(t, err)
	assert.True(t, result.TotalEquity.Equal(d("1000000")))
	assert.Len(t, repo.snapshots, 1)
}
