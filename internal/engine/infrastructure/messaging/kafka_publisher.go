// Package messaging 提供引擎领域事件的 Kafka 发布实现
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	ledgerdomain "github.com/wyfcoding/papertrading/internal/ledger/domain"
)

// tradeExecutedEvent 成交事件载荷
type tradeExecutedEvent struct {
	TradeID    string    `json:"trade_id"`
	InvestorID string    `json:"investor_id"`
	Symbol     string    `json:"symbol"`
	Side       string    `json:"side"`
	Shares     string    `json:"shares"`
	Price      string    `json:"price"`
	Notional   string    `json:"notional"`
	Reason     string    `json:"reason"`
	ExecutedAt time.Time `json:"executed_at"`
}

// equitySettledEvent 结算事件载荷
type equitySettledEvent struct {
	InvestorID  string    `json:"investor_id"`
	TotalEquity string    `json:"total_equity"`
	CashBalance string    `json:"cash_balance"`
	SettledAt   time.Time `json:"settled_at"`
}

// KafkaPublisher 领域事件发布器。
// 事件在账本事务提交之后发出，发布失败由调用方告警，不回滚账本。
type KafkaPublisher struct {
	writer      *kafka.Writer
	tradeTopic  string
	equityTopic string
}

// NewKafkaPublisher 创建事件发布器
func NewKafkaPublisher(brokers []string, tradeTopic, equityTopic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			BatchTimeout: 10 * time.Millisecond,
		},
		tradeTopic:  tradeTopic,
		equityTopic: equityTopic,
	}
}

// PublishTradeExecuted 发布成交事件，按投资者分区保序
func (p *KafkaPublisher) PublishTradeExecuted(ctx context.Context, trade *ledgerdomain.Trade) error {
	event := tradeExecutedEvent{
		TradeID:    trade.TradeID,
		InvestorID: trade.InvestorID,
		Symbol:     trade.Symbol,
		Side:       string(trade.Side),
		Shares:     trade.Shares.String(),
		Price:      trade.Price.String(),
		Notional:   trade.Notional.String(),
		Reason:     trade.Reason,
		ExecutedAt: trade.ExecutedAt,
	}
	return p.publish(ctx, p.tradeTopic, trade.InvestorID, event)
}

// PublishEquitySettled 发布结算事件
func (p *KafkaPublisher) PublishEquitySettled(ctx context.Context, snapshot *ledgerdomain.EquitySnapshot) error {
	event := equitySettledEvent{
		InvestorID:  snapshot.InvestorID,
		TotalEquity: snapshot.TotalEquity.String(),
		CashBalance: snapshot.CashBalance.String(),
		SettledAt:   snapshot.SettledAt,
	}
	return p.publish(ctx, p.equityTopic, snapshot.InvestorID, event)
}

func (p *KafkaPublisher) publish(ctx context.Context, topic, key string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: payload,
	})
	if err != nil {
		return fmt.Errorf("failed to write kafka message: %w", err)
	}
	return nil
}

// Close 关闭底层写入器
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
