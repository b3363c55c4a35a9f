package application

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	catalogdomain "github.com/wyfcoding/papertrading/internal/catalog/domain"
	marketdomain "github.com/wyfcoding/papertrading/internal/marketdata/domain"
	strategydomain "github.com/wyfcoding/papertrading/internal/strategy/domain"
	"github.com/wyfcoding/papertrading/internal/strategy/personas"
	"github.com/wyfcoding/papertrading/pkg/metrics"
)

// fakeProvider 返回固定行情，可注入整体失败
type fakeProvider struct {
	quotes map[string]marketdomain.Quote
	err    error
}

func (f *fakeProvider) Quotes(ctx context.Context, symbols []string) (map[string]marketdomain.Quote, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string]marketdomain.Quote, len(symbols))
	for _, s := range symbols {
		if q, ok := f.quotes[s]; ok {
			out[s] = q
		}
	}
	return out, nil
}

func (f *fakeProvider) setPrice(symbol, price string) {
	f.quotes[symbol] = marketdomain.Quote{Symbol: symbol, Price: d(price), Timestamp: testNow}
}

type engineFixture struct {
	repo     *fakeRepo
	provider *fakeProvider
	engine   *Engine
	clock    *time.Time
}

func newEngineFixture(t *testing.T, investors []catalogdomain.Investor) *engineFixture {
	t.Helper()

	catalog, err := catalogdomain.New(investors, []catalogdomain.Instrument{{Symbol: "AAPL", Name: "Apple Inc."}})
	require.NoError(t, err)

	registry := strategydomain.NewRegistry()
	personas.Register(registry)

	repo := newFakeRepo()
	provider := &fakeProvider{quotes: make(map[string]marketdomain.Quote)}
	m := metrics.New("test")
	clock := testNow

	engine, err := NewEngine(EngineOptions{
		Catalog:        catalog,
		Registry:       registry,
		Repo:           repo,
		Executor:       NewExecutor(repo, d("100"), m, nil),
		Settlement:     NewSettlement(repo, m, nil),
		Provider:       provider,
		Metrics:        m,
		InitialCapital: d("1000000"),
		Rand:           rand.New(rand.NewSource(1)),
		Now:            func() time.Time { return clock },
	})
	require.NoError(t, err)

	return &engineFixture{repo: repo, provider: provider, engine: engine, clock: &clock}
}

func momentumInvestor(id string) catalogdomain.Investor {
	return catalogdomain.Investor{
		ID:      id,
		Name:    "Momentum " + id,
		Persona: personas.KeyMomentum,
		Params:  map[string]string{"entry_usd": "100000", "add_pct": "5", "stop_pct": "7"},
	}
}

func TestRunCycleEntryThenStopOut(t *testing.T) {
	fx := newEngineFixture(t, []catalogdomain.Investor{momentumInvestor("inv-1")})
	ctx := context.Background()

	// 周期 1 @ 100：惰性开户并建仓 1000 股
	fx.provider.setPrice("AAPL", "100")
	require.NoError(t, fx.engine.RunCycle(ctx))

	p, _ := fx.repo.GetPortfolio(ctx, "inv-1")
	require.NotNil(t, p)
	assert.True(t, p.CashBalance.Equal(d("900000")))
	assert.True(t, p.TotalEquity.Equal(d("1000000")), "equity = %s", p.TotalEquity)
	pos, _ := fx.repo.GetPosition(ctx, "inv-1", "AAPL")
	require.NotNil(t, pos)
	assert.True(t, pos.Shares.Equal(d("1000")))
	assert.Len(t, fx.repo.trades, 1)

	// 同日再跑一轮：节流，不产生第二笔成交
	require.NoError(t, fx.engine.RunCycle(ctx))
	assert.Len(t, fx.repo.trades, 1)

	// 次日 @ 80：跌 20% 触发清仓
	*fx.clock = testNow.AddDate(0, 0, 1)
	fx.provider.setPrice("AAPL", "80")
	require.NoError(t, fx.engine.RunCycle(ctx))

	p, _ = fx.repo.GetPortfolio(ctx, "inv-1")
	assert.True(t, p.CashBalance.Equal(d("980000")))
	assert.True(t, p.TotalEquity.Equal(d("980000")))
	assert.True(t, p.PeakEquity.Equal(d("1000000")))
	pos, _ = fx.repo.GetPosition(ctx, "inv-1", "AAPL")
	assert.Nil(t, pos)
	assert.Len(t, fx.repo.trades, 2)

	// 两个交易日各一条快照
	assert.Len(t, fx.repo.snapshots, 2)
}

func TestRunCycleUnitFailureDoesNotAbortCycle(t *testing.T) {
	fx := newEngineFixture(t, []catalogdomain.Investor{
		momentumInvestor("inv-bad"),
		momentumInvestor("inv-good"),
	})
	ctx := context.Background()

	fx.provider.setPrice("AAPL", "100")
	fx.repo.positionErrs["inv-bad"] = errors.New("connection reset")

	require.NoError(t, fx.engine.RunCycle(ctx))

	// 坏单元跳过，好单元照常成交并结算
	trades, _, err := fx.repo.ListTrades(ctx, "inv-good", 10, 0)
	require.NoError(t, err)
	assert.Len(t, trades, 1)

	badTrades, _, err := fx.repo.ListTrades(ctx, "inv-bad", 10, 0)
	require.NoError(t, err)
	assert.Empty(t, badTrades)

	// 两个投资者都有当日快照，包括失败的那个
	assert.Len(t, fx.repo.snapshots, 2)
}

func TestRunCycleMissingQuoteSkipsUnit(t *testing.T) {
	fx := newEngineFixture(t, []catalogdomain.Investor{momentumInvestor("inv-1")})
	ctx := context.Background()

	// 行情源整体可用但缺 AAPL：单元跳过，结算照常
	require.NoError(t, fx.engine.RunCycle(ctx))
	assert.Empty(t, fx.repo.trades)
	assert.Len(t, fx.repo.snapshots, 1)
}

func TestRunCycleQuoteFetchFailureAbortsCycle(t *testing.T) {
	fx := newEngineFixture(t, []catalogdomain.Investor{momentumInvestor("inv-1")})
	fx.provider.err = errors.New("feed down")

	err := fx.engine.RunCycle(context.Background())
	require.Error(t, err)
	assert.Empty(t, fx.repo.trades)
	assert.Empty(t, fx.repo.snapshots)
}

func TestNewEngineRejectsUnknownPersona(t *testing.T) {
	catalog, err := catalogdomain.New(
		[]catalogdomain.Investor{{ID: "inv-1", Persona: "astrology"}},
		[]catalogdomain.Instrument{{Symbol: "AAPL"}},
	)
	require.NoError(t, err)

	registry := strategydomain.NewRegistry()
	personas.Register(registry)

	_, err = NewEngine(EngineOptions{
		Catalog:  catalog,
		Registry: registry,
		Metrics:  metrics.New("test"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "astrology")
}
