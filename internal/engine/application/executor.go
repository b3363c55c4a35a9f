// Package application 模拟引擎应用层：成交执行、权益结算与周期编排
package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	ledgerdomain "github.com/wyfcoding/papertrading/internal/ledger/domain"
	strategydomain "github.com/wyfcoding/papertrading/internal/strategy/domain"
	"github.com/wyfcoding/papertrading/pkg/logger"
	"github.com/wyfcoding/papertrading/pkg/metrics"
)

// EventPublisher 引擎领域事件发布契约。发布失败只告警，不影响账本提交。
type EventPublisher interface {
	PublishTradeExecuted(ctx context.Context, trade *ledgerdomain.Trade) error
	PublishEquitySettled(ctx context.Context, snapshot *ledgerdomain.EquitySnapshot) error
}

// TradeResult 单笔执行结果。拒单是正常的无操作结果，不走错误路径。
type TradeResult struct {
	Rejected     bool
	RejectReason string
	Trade        *ledgerdomain.Trade
	// 提交后的现金余额，供同周期内后续标的复用
	CashAfter decimal.Decimal
	// 提交后的持仓数量，清仓为零
	SharesAfter decimal.Decimal

	// 指标用拒单标签
	rejectLabel string
}

// Executor 成交执行器。
// 每笔决策在单个账本事务内完成"流水 + 持仓 + 现金"三路写入，
// 写入顺序固定为先流水、再持仓、最后现金，中途失败整体回滚。
type Executor struct {
	repo        ledgerdomain.Repository
	minNotional decimal.Decimal
	metrics     *metrics.Metrics
	publisher   EventPublisher
}

// NewExecutor 创建成交执行器，publisher 可为 nil
func NewExecutor(repo ledgerdomain.Repository, minNotional decimal.Decimal, m *metrics.Metrics, publisher EventPublisher) *Executor {
	return &Executor{
		repo:        repo,
		minNotional: minNotional,
		metrics:     m,
		publisher:   publisher,
	}
}

// Execute 执行单笔决策。
// 事务内先重读资金与持仓，绝不信任周期早先缓存的数字：
// 同一周期内其他标的的成交可能已经动过现金。
func (e *Executor) Execute(ctx context.Context, investorID, symbol string, decision strategydomain.Decision, price decimal.Decimal, now time.Time) (*TradeResult, error) {
	if decision.Action == strategydomain.ActionHold {
		return &TradeResult{Rejected: true, RejectReason: "hold decision"}, nil
	}
	if !price.IsPositive() {
		return nil, fmt.Errorf("non-positive price %s for %s", price.String(), symbol)
	}

	result := &TradeResult{}
	err := e.repo.WithTx(ctx, func(tx ledgerdomain.Repository) error {
		portfolio, err := tx.GetPortfolio(ctx, investorID)
		if err != nil {
			return err
		}
		if portfolio == nil {
			return ledgerdomain.ErrPortfolioNotFound
		}
		position, err := tx.GetPosition(ctx, investorID, symbol)
		if err != nil {
			return err
		}

		var (
			side   ledgerdomain.TradeSide
			shares decimal.Decimal
		)
		switch decision.Action {
		case strategydomain.ActionBuy:
			side = ledgerdomain.TradeSideBuy
			amount := decision.AmountUSD
			if !amount.IsPositive() {
				return e.reject(result, "zero_amount", "non-positive buy amount")
			}
			if amount.LessThan(e.minNotional) {
				return e.reject(result, "below_min_notional",
					fmt.Sprintf("buy notional %s below floor %s", amount.StringFixed(2), e.minNotional.StringFixed(2)))
			}
			if portfolio.CashBalance.LessThan(amount) {
				return e.reject(result, "insufficient_cash",
					fmt.Sprintf("cash %s cannot cover buy %s", portfolio.CashBalance.StringFixed(2), amount.StringFixed(2)))
			}
			shares = amount.Div(price)
		case strategydomain.ActionSell:
			side = ledgerdomain.TradeSideSell
			if position == nil || !position.Shares.IsPositive() {
				return e.reject(result, "insufficient_shares", "no shares held to sell")
			}
			shares = decision.Shares
			if !shares.IsPositive() && decision.AmountUSD.IsPositive() {
				shares = decision.AmountUSD.Div(price)
			}
			if shares.GreaterThan(position.Shares) {
				shares = position.Shares
			}
			if !shares.IsPositive() {
				return e.reject(result, "zero_amount", "non-positive sell quantity")
			}
			if shares.Mul(price).LessThan(e.minNotional) {
				return e.reject(result, "below_min_notional",
					fmt.Sprintf("sell notional %s below floor %s", shares.Mul(price).StringFixed(2), e.minNotional.StringFixed(2)))
			}
		default:
			return fmt.Errorf("unknown decision action: %s", decision.Action)
		}

		notional := shares.Mul(price)
		trade := &ledgerdomain.Trade{
			TradeID:    uuid.NewString(),
			InvestorID: investorID,
			Symbol:     symbol,
			Side:       side,
			Shares:     shares,
			Price:      price,
			Notional:   notional,
			Reason:     decision.Reason,
			ExecutedAt: now,
		}
		if err := tx.AppendTrade(ctx, trade); err != nil {
			return err
		}

		pos, err := tx.ApplyPositionDelta(ctx, investorID, symbol, shares, price, side, now)
		if err != nil {
			return err
		}

		direction := ledgerdomain.CashDebit
		cashAfter := portfolio.CashBalance.Sub(notional)
		if side == ledgerdomain.TradeSideSell {
			direction = ledgerdomain.CashCredit
			cashAfter = portfolio.CashBalance.Add(notional)
		}
		if err := tx.DebitCredit(ctx, investorID, notional, direction); err != nil {
			return err
		}

		result.Trade = trade
		result.CashAfter = cashAfter
		result.SharesAfter = decimal.Zero
		if pos != nil {
			result.SharesAfter = pos.Shares
		}
		return nil
	})
	if err != nil {
		// 事务内部写阶段仍可能撞上竞态拒单条件，此时整体回滚、按拒单处理
		if reason, ok := rejectionReason(err); ok {
			result.Rejected = true
			result.RejectReason = err.Error()
			e.recordRejection(ctx, investorID, symbol, reason, err.Error())
			return result, nil
		}
		return nil, fmt.Errorf("failed to execute trade for %s/%s: %w", investorID, symbol, err)
	}

	if result.Rejected {
		e.recordRejection(ctx, investorID, symbol, result.rejectLabel, result.RejectReason)
		return result, nil
	}

	e.metrics.TradesTotal.WithLabelValues(string(result.Trade.Side)).Inc()
	logger.Info(ctx, "trade executed",
		"investor_id", investorID,
		"symbol", symbol,
		"side", result.Trade.Side,
		"shares", result.Trade.Shares.StringFixed(6),
		"price", result.Trade.Price.StringFixed(4),
		"notional", result.Trade.Notional.StringFixed(2),
		"reason", result.Trade.Reason)

	if e.publisher != nil {
		if err := e.publisher.PublishTradeExecuted(ctx, result.Trade); err != nil {
			logger.Warn(ctx, "failed to publish trade event", "trade_id", result.Trade.TradeID, "error", err)
		}
	}
	return result, nil
}

// reject 在写入任何状态之前把结果标记为拒单，事务空提交
func (e *Executor) reject(result *TradeResult, label, reason string) error {
	result.Rejected = true
	result.rejectLabel = label
	result.RejectReason = reason
	return nil
}

func (e *Executor) recordRejection(ctx context.Context, investorID, symbol, label, reason string) {
	e.metrics.TradesRejectedTotal.WithLabelValues(label).Inc()
	logger.Info(ctx, "trade rejected",
		"investor_id", investorID,
		"symbol", symbol,
		"rejection", label,
		"detail", reason)
}

// rejectionReason 将账本层的拒单哨兵错误映射为指标标签
func rejectionReason(err error) (string, bool) {
	switch {
	case errors.Is(err, ledgerdomain.ErrInsufficientCash):
		return "insufficient_cash", true
	case errors.Is(err, ledgerdomain.ErrInsufficientShares):
		return "insufficient_shares", true
	case errors.Is(err, ledgerdomain.ErrBelowMinNotional):
		return "below_min_notional", true
	default:
		return "", false
	}
}
