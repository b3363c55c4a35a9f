package application

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	catalogdomain "github.com/wyfcoding/papertrading/internal/catalog/domain"
	ledgerdomain "github.com/wyfcoding/papertrading/internal/ledger/domain"
	marketdomain "github.com/wyfcoding/papertrading/internal/marketdata/domain"
	strategydomain "github.com/wyfcoding/papertrading/internal/strategy/domain"
	"github.com/wyfcoding/papertrading/pkg/logger"
	"github.com/wyfcoding/papertrading/pkg/metrics"
)

// EngineOptions 引擎装配参数
type EngineOptions struct {
	Catalog          *catalogdomain.Catalog
	Registry         *strategydomain.Registry
	Repo             ledgerdomain.Repository
	Executor         *Executor
	Settlement       *Settlement
	Provider         marketdomain.QuoteProvider
	QuoteCache       marketdomain.QuoteCache
	Candles          marketdomain.CandleRepository
	Metrics          *metrics.Metrics
	InitialCapital   decimal.Decimal
	CandleWindowDays int
	CycleTimeout     time.Duration
	// 随机角色的随机源，测试注入固定种子复现决策序列
	Rand *rand.Rand
	// 时钟，测试注入固定时间
	Now func() time.Time
}

// Engine 周期编排器。单实例串行跑周期：
// 取一次行情 → 对每个 (投资者, 标的) 评估并执行 → 逐投资者结算。
// 单元失败只跳过该单元，绝不中断整个周期。
type Engine struct {
	catalog          *catalogdomain.Catalog
	evaluators       map[string]strategydomain.Evaluator
	repo             ledgerdomain.Repository
	executor         *Executor
	settlement       *Settlement
	provider         marketdomain.QuoteProvider
	quoteCache       marketdomain.QuoteCache
	candles          marketdomain.CandleRepository
	metrics          *metrics.Metrics
	initialCapital   decimal.Decimal
	candleWindowDays int
	cycleTimeout     time.Duration
	now              func() time.Time
}

// NewEngine 装配引擎，为每个投资者按目录实例化策略评估器。
// 未注册的角色键直接报错，启动即失败。
func NewEngine(opts EngineOptions) (*Engine, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	evaluators := make(map[string]strategydomain.Evaluator)
	for _, inv := range opts.Catalog.Investors() {
		ev, err := opts.Registry.New(inv.Persona, strategydomain.Params(inv.Params), opts.Rand)
		if err != nil {
			return nil, fmt.Errorf("failed to build evaluator for investor %s: %w", inv.ID, err)
		}
		evaluators[inv.ID] = ev
	}

	return &Engine{
		catalog:          opts.Catalog,
		evaluators:       evaluators,
		repo:             opts.Repo,
		executor:         opts.Executor,
		settlement:       opts.Settlement,
		provider:         opts.Provider,
		quoteCache:       opts.QuoteCache,
		candles:          opts.Candles,
		metrics:          opts.Metrics,
		initialCapital:   opts.InitialCapital,
		candleWindowDays: opts.CandleWindowDays,
		cycleTimeout:     opts.CycleTimeout,
		now:              opts.Now,
	}, nil
}

// RunCycle 跑一个完整周期。
// 行情整批只取一次；行情源整体失败时放弃本周期，等下一个节拍。
func (e *Engine) RunCycle(ctx context.Context) error {
	if e.cycleTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cycleTimeout)
		defer cancel()
	}

	start := time.Now()
	defer func() {
		e.metrics.CyclesTotal.Inc()
		e.metrics.CycleDuration.Observe(time.Since(start).Seconds())
	}()

	symbols := e.catalog.Symbols()
	quotes, err := e.provider.Quotes(ctx, symbols)
	if err != nil {
		logger.Error(ctx, "quote fetch failed, skipping cycle", "error", err)
		return fmt.Errorf("failed to fetch quotes: %w", err)
	}
	e.cacheQuotes(ctx, quotes)
	windows := e.loadWindows(ctx, symbols)

	now := e.now()
	for _, investor := range e.catalog.Investors() {
		portfolio, err := e.ensurePortfolio(ctx, investor.ID)
		if err != nil {
			logger.Error(ctx, "failed to prepare portfolio, skipping investor",
				"investor_id", investor.ID, "error", err)
			e.metrics.UnitErrorsTotal.Inc()
			continue
		}

		cash := portfolio.CashBalance
		drawdown := portfolio.Drawdown()

		for _, instrument := range e.catalog.Instruments() {
			quote, ok := quotes[instrument.Symbol]
			if !ok {
				e.metrics.QuotesMissingTotal.Inc()
				logger.Warn(ctx, "no quote for instrument, unit skipped",
					"investor_id", investor.ID, "symbol", instrument.Symbol)
				continue
			}

			result, err := e.runUnit(ctx, investor, instrument.Symbol, quote, cash, portfolio.TotalEquity, drawdown, windows[instrument.Symbol], now)
			if err != nil {
				e.metrics.UnitErrorsTotal.Inc()
				logger.Error(ctx, "unit failed, continuing cycle",
					"investor_id", investor.ID, "symbol", instrument.Symbol, "error", err)
				continue
			}
			if result != nil && !result.Rejected {
				// 同周期后续标的用提交后的现金评估，不再查库
				cash = result.CashAfter
			}
		}

		if _, err := e.settlement.Settle(ctx, investor.ID, quotes, now); err != nil {
			e.metrics.UnitErrorsTotal.Inc()
			logger.Error(ctx, "settlement failed, continuing cycle",
				"investor_id", investor.ID, "error", err)
		}
	}
	return nil
}

// runUnit 评估并执行单个 (投资者, 标的)
func (e *Engine) runUnit(ctx context.Context, investor catalogdomain.Investor, symbol string, quote marketdomain.Quote, cash, totalEquity, drawdown decimal.Decimal, window *marketdomain.PriceWindow, now time.Time) (*TradeResult, error) {
	position, err := e.repo.GetPosition(ctx, investor.ID, symbol)
	if err != nil {
		return nil, err
	}
	tradedToday, err := e.repo.TradedOn(ctx, investor.ID, symbol, now)
	if err != nil {
		return nil, err
	}
	everTraded := tradedToday
	if !everTraded {
		everTraded, err = e.repo.HasTraded(ctx, investor.ID, symbol)
		if err != nil {
			return nil, err
		}
	}

	ec := strategydomain.EvalContext{
		Symbol:             symbol,
		Price:              quote.Price,
		ChangePercent:      quote.ChangePercent,
		Cash:               cash,
		AlreadyTradedToday: tradedToday,
		EverTraded:         everTraded,
		TotalEquity:        totalEquity,
		Drawdown:           drawdown,
		Now:                now,
	}
	if position != nil {
		ec.Position = &strategydomain.PositionView{
			Shares:         position.Shares,
			AvgPrice:       position.AvgPrice,
			LastTradePrice: position.LastTradePrice,
			LastTradedAt:   position.LastTradedAt,
		}
	}
	if window != nil {
		ec.Window = &strategydomain.PriceWindow{High: window.High, Low: window.Low}
	}

	decision := e.evaluators[investor.ID].Evaluate(ec)
	if decision.Action == strategydomain.ActionHold {
		logger.Debug(ctx, "hold decision",
			"investor_id", investor.ID, "symbol", symbol, "reason", decision.Reason)
		return nil, nil
	}
	return e.executor.Execute(ctx, investor.ID, symbol, decision, quote.Price, now)
}

// ensurePortfolio 首个周期惰性开户
func (e *Engine) ensurePortfolio(ctx context.Context, investorID string) (*ledgerdomain.Portfolio, error) {
	portfolio, err := e.repo.GetPortfolio(ctx, investorID)
	if err != nil {
		return nil, err
	}
	if portfolio != nil {
		return portfolio, nil
	}

	portfolio = ledgerdomain.NewPortfolio(investorID, e.initialCapital)
	if err := e.repo.SavePortfolio(ctx, portfolio); err != nil {
		return nil, fmt.Errorf("failed to open portfolio: %w", err)
	}
	logger.Info(ctx, "portfolio opened",
		"investor_id", investorID, "initial_capital", e.initialCapital.StringFixed(2))
	return portfolio, nil
}

// cacheQuotes 旁路缓存行情，仅供展示接口读取，失败不影响周期
func (e *Engine) cacheQuotes(ctx context.Context, quotes map[string]marketdomain.Quote) {
	if e.quoteCache == nil {
		return
	}
	for _, q := range quotes {
		if err := e.quoteCache.Save(ctx, q); err != nil {
			logger.Warn(ctx, "failed to cache quote", "symbol", q.Symbol, "error", err)
		}
	}
}

// loadWindows 读取突破角色的周参考区间，缺数据的标的留空
func (e *Engine) loadWindows(ctx context.Context, symbols []string) map[string]*marketdomain.PriceWindow {
	windows := make(map[string]*marketdomain.PriceWindow, len(symbols))
	if e.candles == nil {
		return windows
	}
	for _, symbol := range symbols {
		candles, err := e.candles.Latest(ctx, symbol, e.candleWindowDays)
		if err != nil {
			logger.Warn(ctx, "failed to load candle window", "symbol", symbol, "error", err)
			continue
		}
		windows[symbol] = marketdomain.WindowOf(candles)
	}
	return windows
}
