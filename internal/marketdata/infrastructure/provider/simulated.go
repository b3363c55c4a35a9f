// Package provider 行情提供方实现。
// 真实行情源的文本协议解析不在引擎范围内，这里提供与其结果同构的模拟源。
package provider

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wyfcoding/papertrading/internal/marketdata/domain"
)

// symbolState 单个标的的行情状态
type symbolState struct {
	prevClose float64
	open      float64
	last      float64
	high      float64
	low       float64
	volume    float64
}

// Simulated 基于几何布朗运动的模拟报价源。
// 注入种子保证可重放；并发安全。
type Simulated struct {
	mu         sync.Mutex
	rng        *rand.Rand
	drift      float64
	volatility float64
	dt         float64
	states     map[string]*symbolState
}

// NewSimulated 创建模拟报价源。seed 为 0 时按当前时间取种。
func NewSimulated(seed int64) *Simulated {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Simulated{
		rng:        rand.New(rand.NewSource(seed)),
		drift:      0.05,
		volatility: 0.35,
		dt:         1.0 / (252 * 390), // 一个交易分钟
		states:     make(map[string]*symbolState),
	}
}

// Quotes 演化并返回各标的的即时报价
func (s *Simulated) Quotes(ctx context.Context, symbols []string) (map[string]domain.Quote, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	out := make(map[string]domain.Quote, len(symbols))
	for _, symbol := range symbols {
		st := s.ensure(symbol)
		st.last = s.step(st.last)
		if st.last > st.high {
			st.high = st.last
		}
		if st.last < st.low {
			st.low = st.last
		}
		st.volume += float64(s.rng.Intn(10000) + 1000)

		changePct := (st.last - st.prevClose) / st.prevClose * 100
		out[symbol] = domain.Quote{
			Symbol:        symbol,
			Price:         decimal.NewFromFloat(st.last).Round(4),
			ChangePercent: decimal.NewFromFloat(changePct).Round(4),
			Open:          decimal.NewFromFloat(st.open).Round(4),
			Timestamp:     now,
		}
	}
	return out, nil
}

// DailyCandle 汇总当前交易日并滚动到下一日：昨收 = 最新价，高低点重置。
func (s *Simulated) DailyCandle(symbol string, day time.Time) *domain.Candle {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.ensure(symbol)
	candle := &domain.Candle{
		Symbol:  symbol,
		BarDate: time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC),
		Open:    decimal.NewFromFloat(st.open).Round(4),
		High:    decimal.NewFromFloat(st.high).Round(4),
		Low:     decimal.NewFromFloat(st.low).Round(4),
		Close:   decimal.NewFromFloat(st.last).Round(4),
		Volume:  decimal.NewFromFloat(st.volume).Round(0),
	}

	st.prevClose = st.last
	st.open = st.last
	st.high = st.last
	st.low = st.last
	st.volume = 0
	return candle
}

// step 单步 GBM 演化
func (s *Simulated) step(price float64) float64 {
	z := s.rng.NormFloat64()
	return price * math.Exp((s.drift-0.5*s.volatility*s.volatility)*s.dt+s.volatility*math.Sqrt(s.dt)*z)
}

func (s *Simulated) ensure(symbol string) *symbolState {
	st, ok := s.states[symbol]
	if !ok {
		base := 50 + s.rng.Float64()*200
		st = &symbolState{prevClose: base, open: base, last: base, high: base, low: base}
		s.states[symbol] = st
	}
	return st
}
