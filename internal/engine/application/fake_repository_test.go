package application

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	ledgerdomain "github.com/wyfcoding/papertrading/internal/ledger/domain"
)

// fakeRepo 账本仓储的内存实现，语义对齐 MySQL 实现：
// 乐观锁、条件借记、尘埃清理、(投资者, 自然日) 快照覆盖。
type fakeRepo struct {
	portfolios map[string]*ledgerdomain.Portfolio
	positions  map[string]*ledgerdomain.Position
	trades     []*ledgerdomain.Trade
	snapshots  map[string]*ledgerdomain.EquitySnapshot
	nextID     uint

	// 按投资者注入读持仓错误，驱动单元失败路径
	positionErrs map[string]error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		portfolios:   make(map[string]*ledgerdomain.Portfolio),
		positions:    make(map[string]*ledgerdomain.Position),
		snapshots:    make(map[string]*ledgerdomain.EquitySnapshot),
		positionErrs: make(map[string]error),
	}
}

func posKey(investorID, symbol string) string { return investorID + "|" + symbol }

func snapKey(investorID string, day time.Time) string {
	return investorID + "|" + day.Format("2006-01-02")
}

func (f *fakeRepo) WithTx(ctx context.Context, fn func(tx ledgerdomain.Repository) error) error {
	return fn(f)
}

func (f *fakeRepo) GetPortfolio(ctx context.Context, investorID string) (*ledgerdomain.Portfolio, error) {
	p, ok := f.portfolios[investorID]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (f *fakeRepo) SavePortfolio(ctx context.Context, portfolio *ledgerdomain.Portfolio) error {
	if portfolio.ID == 0 {
		f.nextID++
		portfolio.ID = f.nextID
		cp := *portfolio
		f.portfolios[portfolio.InvestorID] = &cp
		return nil
	}
	stored, ok := f.portfolios[portfolio.InvestorID]
	if !ok || stored.Version != portfolio.Version {
		return ledgerdomain.ErrConflict
	}
	portfolio.Version++
	cp := *portfolio
	f.portfolios[portfolio.InvestorID] = &cp
	return nil
}

func (f *fakeRepo) GetPosition(ctx context.Context, investorID, symbol string) (*ledgerdomain.Position, error) {
	if err := f.positionErrs[investorID]; err != nil {
		return nil, err
	}
	p, ok := f.positions[posKey(investorID, symbol)]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (f *fakeRepo) ListPositions(ctx context.Context, investorID string) ([]*ledgerdomain.Position, error) {
	var out []*ledgerdomain.Position
	for _, p := range f.positions {
		if p.InvestorID == investorID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeRepo) ApplyPositionDelta(ctx context.Context, investorID, symbol string, sharesDelta, price decimal.Decimal, side ledgerdomain.TradeSide, at time.Time) (*ledgerdomain.Position, error) {
	key := posKey(investorID, symbol)
	p, exists := f.positions[key]

	switch side {
	case ledgerdomain.TradeSideBuy:
		if !exists {
			p = ledgerdomain.NewPosition(investorID, symbol, sharesDelta, price, at)
			f.positions[key] = p
			cp := *p
			return &cp, nil
		}
		p.ApplyBuy(sharesDelta, price, at)
	case ledgerdomain.TradeSideSell:
		if !exists || p.Shares.LessThan(sharesDelta) {
			return nil, ledgerdomain.ErrInsufficientShares
		}
		p.ApplySell(sharesDelta, price, at)
	default:
		return nil, fmt.Errorf("unknown trade side: %s", side)
	}

	if p.Shares.IsNegative() {
		return nil, ledgerdomain.ErrInvariantViolation
	}
	if p.IsDust() {
		delete(f.positions, key)
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (f *fakeRepo) DebitCredit(ctx context.Context, investorID string, amount decimal.Decimal, direction ledgerdomain.CashDirection) error {
	p, ok := f.portfolios[investorID]
	if !ok {
		return ledgerdomain.ErrPortfolioNotFound
	}
	switch direction {
	case ledgerdomain.CashDebit:
		if p.CashBalance.LessThan(amount) {
			return ledgerdomain.ErrInsufficientCash
		}
		p.CashBalance = p.CashBalance.Sub(amount)
	case ledgerdomain.CashCredit:
		p.CashBalance = p.CashBalance.Add(amount)
	default:
		return fmt.Errorf("unknown cash direction: %s", direction)
	}
	return nil
}

func (f *fakeRepo) AppendTrade(ctx context.Context, trade *ledgerdomain.Trade) error {
	cp := *trade
	f.trades = append(f.trades, &cp)
	return nil
}

func (f *fakeRepo) AppendEquitySnapshot(ctx context.Context, snapshot *ledgerdomain.EquitySnapshot) error {
	cp := *snapshot
	f.snapshots[snapKey(snapshot.InvestorID, snapshot.SnapshotDate)] = &cp
	return nil
}

func (f *fakeRepo) TradedOn(ctx context.Context, investorID, symbol string, day time.Time) (bool, error) {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)
	for _, t := range f.trades {
		if t.InvestorID == investorID && t.Symbol == symbol &&
			!t.ExecutedAt.Before(dayStart) && t.ExecutedAt.Before(dayEnd) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) HasTraded(ctx context.Context, investorID, symbol string) (bool, error) {
	for _, t := range f.trades {
		if t.InvestorID == investorID && t.Symbol == symbol {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) ListTrades(ctx context.Context, investorID string, limit, offset int) ([]*ledgerdomain.Trade, int64, error) {
	var out []*ledgerdomain.Trade
	for _, t := range f.trades {
		if investorID == "" || t.InvestorID == investorID {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeRepo) ListSnapshots(ctx context.Context, investorID string, start, end time.Time) ([]*ledgerdomain.EquitySnapshot, error) {
	var out []*ledgerdomain.EquitySnapshot
	for _, s := range f.snapshots {
		if s.InvestorID == investorID && !s.SnapshotDate.Before(start) && !s.SnapshotDate.After(end) {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

// seedPortfolio 直接开户，绕过引擎的惰性开户
func (f *fakeRepo) seedPortfolio(investorID string, capital decimal.Decimal) {
	p := ledgerdomain.NewPortfolio(investorID, capital)
	f.nextID++
	p.ID = f.nextID
	f.portfolios[investorID] = p
}
