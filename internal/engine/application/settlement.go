package application

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	ledgerdomain "github.com/wyfcoding/papertrading/internal/ledger/domain"
	marketdomain "github.com/wyfcoding/papertrading/internal/marketdata/domain"
	"github.com/wyfcoding/papertrading/pkg/logger"
	"github.com/wyfcoding/papertrading/pkg/metrics"
)

// SettlementResult 单个投资者的结算结果
type SettlementResult struct {
	TotalEquity decimal.Decimal
	PeakEquity  decimal.Decimal
	Drawdown    decimal.Decimal
}

// Settlement 权益结算。按最新行情对持仓逐一标记，
// 刷新总权益与峰值并落一条当日快照。零成交的周期同样结算，权益曲线不留空洞。
type Settlement struct {
	repo      ledgerdomain.Repository
	metrics   *metrics.Metrics
	publisher EventPublisher
}

// NewSettlement 创建结算服务，publisher 可为 nil
func NewSettlement(repo ledgerdomain.Repository, m *metrics.Metrics, publisher EventPublisher) *Settlement {
	return &Settlement{repo: repo, metrics: m, publisher: publisher}
}

// Settle 结算单个投资者。
// 标记价优先取本周期行情，缺失时退回持仓的最近成交价。
func (s *Settlement) Settle(ctx context.Context, investorID string, quotes map[string]marketdomain.Quote, now time.Time) (*SettlementResult, error) {
	portfolio, err := s.repo.GetPortfolio(ctx, investorID)
	if err != nil {
		return nil, fmt.Errorf("failed to load portfolio for settlement: %w", err)
	}
	if portfolio == nil {
		return nil, ledgerdomain.ErrPortfolioNotFound
	}

	positions, err := s.repo.ListPositions(ctx, investorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list positions for settlement: %w", err)
	}

	total := portfolio.CashBalance
	for _, pos := range positions {
		mark := pos.LastTradePrice
		if q, ok := quotes[pos.Symbol]; ok {
			mark = q.Price
		}
		total = total.Add(pos.MarketValue(mark))
	}

	portfolio.SettleEquity(total)
	if err := s.repo.SavePortfolio(ctx, portfolio); err != nil {
		return nil, fmt.Errorf("failed to save settled portfolio: %w", err)
	}

	snapshot := &ledgerdomain.EquitySnapshot{
		InvestorID:   investorID,
		SnapshotDate: time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()),
		TotalEquity:  portfolio.TotalEquity,
		CashBalance:  portfolio.CashBalance,
		SettledAt:    now,
	}
	if err := s.repo.AppendEquitySnapshot(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("failed to append equity snapshot: %w", err)
	}

	drawdown := portfolio.Drawdown()
	equity, _ := portfolio.TotalEquity.Float64()
	dd, _ := drawdown.Float64()
	s.metrics.InvestorEquity.WithLabelValues(investorID).Set(equity)
	s.metrics.InvestorDrawdown.WithLabelValues(investorID).Set(dd)

	logger.Info(ctx, "investor settled",
		"investor_id", investorID,
		"total_equity", portfolio.TotalEquity.StringFixed(2),
		"peak_equity", portfolio.PeakEquity.StringFixed(2),
		"drawdown", drawdown.StringFixed(4))

	if s.publisher != nil {
		if err := s.publisher.PublishEquitySettled(ctx, snapshot); err != nil {
			logger.Warn(ctx, "failed to publish settlement event", "investor_id", investorID, "error", err)
		}
	}

	return &SettlementResult{
		TotalEquity: portfolio.TotalEquity,
		PeakEquity:  portfolio.PeakEquity,
		Drawdown:    drawdown,
	}, nil
}
