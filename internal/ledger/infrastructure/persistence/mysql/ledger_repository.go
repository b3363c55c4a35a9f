// Package mysql 提供账本仓储契约的 MySQL GORM 实现。
package mysql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/wyfcoding/papertrading/internal/ledger/domain"
	"github.com/wyfcoding/papertrading/pkg/logger"
)

// ledgerRepository 是 domain.Repository 接口的 GORM 实现。
type ledgerRepository struct {
	db *gorm.DB
}

// NewLedgerRepository 创建账本仓储实例
func NewLedgerRepository(db *gorm.DB) domain.Repository {
	return &ledgerRepository{db: db}
}

// AutoMigrate 建表
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.Portfolio{},
		&domain.Position{},
		&domain.Trade{},
		&domain.EquitySnapshot{},
	)
}

// WithTx 在单个事务中执行 fn
func (r *ledgerRepository) WithTx(ctx context.Context, fn func(tx domain.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&ledgerRepository{db: tx})
	})
}

// GetPortfolio 读取资金账户
func (r *ledgerRepository) GetPortfolio(ctx context.Context, investorID string) (*domain.Portfolio, error) {
	var p domain.Portfolio
	if err := r.db.WithContext(ctx).Where("investor_id = ?", investorID).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get portfolio: %w", err)
	}
	return &p, nil
}

// SavePortfolio 保存资金账户（带乐观锁）
func (r *ledgerRepository) SavePortfolio(ctx context.Context, portfolio *domain.Portfolio) error {
	db := r.db.WithContext(ctx)

	if portfolio.ID == 0 {
		if err := db.Create(portfolio).Error; err != nil {
			return fmt.Errorf("failed to create portfolio: %w", err)
		}
		return nil
	}

	currentVersion := portfolio.Version
	result := db.Model(&domain.Portfolio{}).
		Where("investor_id = ? AND version = ?", portfolio.InvestorID, currentVersion).
		Updates(map[string]any{
			"cash_balance": portfolio.CashBalance,
			"total_equity": portfolio.TotalEquity,
			"peak_equity":  portfolio.PeakEquity,
			"version":      currentVersion + 1,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to save portfolio: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrConflict
	}
	portfolio.Version = currentVersion + 1
	return nil
}

// GetPosition 读取持仓
func (r *ledgerRepository) GetPosition(ctx context.Context, investorID, symbol string) (*domain.Position, error) {
	var p domain.Position
	err := r.db.WithContext(ctx).
		Where("investor_id = ? AND symbol = ?", investorID, symbol).
		First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get position: %w", err)
	}
	return &p, nil
}

// ListPositions 读取投资者全部持仓
func (r *ledgerRepository) ListPositions(ctx context.Context, investorID string) ([]*domain.Position, error) {
	var models []*domain.Position
	err := r.db.WithContext(ctx).
		Where("investor_id = ?", investorID).
		Order("symbol asc").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list positions: %w", err)
	}
	return models, nil
}

// ApplyPositionDelta 应用持仓变动
func (r *ledgerRepository) ApplyPositionDelta(ctx context.Context, investorID, symbol string, sharesDelta, price decimal.Decimal, side domain.TradeSide, at time.Time) (*domain.Position, error) {
	db := r.db.WithContext(ctx)

	var p domain.Position
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("investor_id = ? AND symbol = ?", investorID, symbol).
		First(&p).Error
	missing := errors.Is(err, gorm.ErrRecordNotFound)
	if err != nil && !missing {
		return nil, fmt.Errorf("failed to read position for delta: %w", err)
	}

	switch side {
	case domain.TradeSideBuy:
		if missing {
			fresh := domain.NewPosition(investorID, symbol, sharesDelta, price, at)
			if err := db.Create(fresh).Error; err != nil {
				return nil, fmt.Errorf("failed to create position: %w", err)
			}
			return fresh, nil
		}
		p.ApplyBuy(sharesDelta, price, at)
	case domain.TradeSideSell:
		if missing {
			return nil, domain.ErrInsufficientShares
		}
		if p.Shares.LessThan(sharesDelta) {
			return nil, domain.ErrInsufficientShares
		}
		p.ApplySell(sharesDelta, price, at)
	default:
		return nil, fmt.Errorf("unknown trade side: %s", side)
	}

	if p.Shares.IsNegative() {
		logger.Error(ctx, "position delta produced negative shares",
			"investor_id", investorID, "symbol", symbol, "shares", p.Shares.String())
		return nil, domain.ErrInvariantViolation
	}

	if p.IsDust() {
		if err := db.Unscoped().Delete(&p).Error; err != nil {
			return nil, fmt.Errorf("failed to delete flat position: %w", err)
		}
		return nil, nil
	}

	if err := db.Save(&p).Error; err != nil {
		return nil, fmt.Errorf("failed to update position: %w", err)
	}
	return &p, nil
}

// DebitCredit 调整现金余额。借记使用条件更新，余额不足时零行生效、无任何变更。
func (r *ledgerRepository) DebitCredit(ctx context.Context, investorID string, amount decimal.Decimal, direction domain.CashDirection) error {
	if amount.IsNegative() {
		return fmt.Errorf("%w: negative cash amount", domain.ErrInvariantViolation)
	}
	db := r.db.WithContext(ctx)

	var result *gorm.DB
	switch direction {
	case domain.CashDebit:
		result = db.Model(&domain.Portfolio{}).
			Where("investor_id = ? AND cash_balance >= ?", investorID, amount).
			Update("cash_balance", gorm.Expr("cash_balance - ?", amount))
	case domain.CashCredit:
		result = db.Model(&domain.Portfolio{}).
			Where("investor_id = ?", investorID).
			Update("cash_balance", gorm.Expr("cash_balance + ?", amount))
	default:
		return fmt.Errorf("unknown cash direction: %s", direction)
	}

	if result.Error != nil {
		return fmt.Errorf("failed to adjust cash balance: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := db.Model(&domain.Portfolio{}).Where("investor_id = ?", investorID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check portfolio existence: %w", err)
		}
		if count == 0 {
			return domain.ErrPortfolioNotFound
		}
		return domain.ErrInsufficientCash
	}
	return nil
}

// AppendTrade 追加成交流水
func (r *ledgerRepository) AppendTrade(ctx context.Context, trade *domain.Trade) error {
	if err := r.db.WithContext(ctx).Create(trade).Error; err != nil {
		logger.Error(ctx, "ledger_repository.AppendTrade failed", "trade_id", trade.TradeID, "error", err)
		return fmt.Errorf("failed to append trade: %w", err)
	}
	return nil
}

// AppendEquitySnapshot 追加权益快照，按 (投资者, 自然日) 覆盖
func (r *ledgerRepository) AppendEquitySnapshot(ctx context.Context, snapshot *domain.EquitySnapshot) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "investor_id"}, {Name: "snapshot_date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"total_equity", "cash_balance", "settled_at", "updated_at",
		}),
	}).Create(snapshot).Error
	if err != nil {
		return fmt.Errorf("failed to append equity snapshot: %w", err)
	}
	return nil
}

// TradedOn 判断投资者当日是否已对该标的成交
func (r *ledgerRepository) TradedOn(ctx context.Context, investorID, symbol string, day time.Time) (bool, error) {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Trade{}).
		Where("investor_id = ? AND symbol = ? AND executed_at >= ? AND executed_at < ?",
			investorID, symbol, dayStart, dayEnd).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to query trades for throttle: %w", err)
	}
	return count > 0, nil
}

// HasTraded 判断投资者历史上是否对该标的成交过
func (r *ledgerRepository) HasTraded(ctx context.Context, investorID, symbol string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Trade{}).
		Where("investor_id = ? AND symbol = ?", investorID, symbol).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to query trade history: %w", err)
	}
	return count > 0, nil
}

// ListTrades 倒序分页读取成交流水
func (r *ledgerRepository) ListTrades(ctx context.Context, investorID string, limit, offset int) ([]*domain.Trade, int64, error) {
	db := r.db.WithContext(ctx).Model(&domain.Trade{})
	if investorID != "" {
		db = db.Where("investor_id = ?", investorID)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count trades: %w", err)
	}

	var trades []*domain.Trade
	if err := db.Order("executed_at desc").Limit(limit).Offset(offset).Find(&trades).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list trades: %w", err)
	}
	return trades, total, nil
}

// ListSnapshots 读取时间区间内的权益快照
func (r *ledgerRepository) ListSnapshots(ctx context.Context, investorID string, start, end time.Time) ([]*domain.EquitySnapshot, error) {
	var snapshots []*domain.EquitySnapshot
	err := r.db.WithContext(ctx).
		Where("investor_id = ? AND snapshot_date >= ? AND snapshot_date <= ?", investorID, start, end).
		Order("snapshot_date asc").
		Find(&snapshots).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list equity snapshots: %w", err)
	}
	return snapshots, nil
}
