package domain

import "errors"

// 拒单条件：不是错误路径，而是决策的无操作结果，调用方按 info 记录。
var (
	ErrInsufficientCash   = errors.New("insufficient cash balance")
	ErrInsufficientShares = errors.New("insufficient shares held")
	ErrBelowMinNotional   = errors.New("trade notional below minimum")
)

// 基础设施与一致性错误
var (
	ErrPortfolioNotFound = errors.New("portfolio not found")
	ErrConflict          = errors.New("concurrent modification conflict")
	// ErrInvariantViolation 表示计算出了违反账本不变量的状态（如负持仓），
	// 该单元跳过并告警，绝不静默修正。
	ErrInvariantViolation = errors.New("ledger invariant violation")
)
