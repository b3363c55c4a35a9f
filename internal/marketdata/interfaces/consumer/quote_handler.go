// Package consumer 消费外部行情事件并刷新报价缓存
package consumer

import (
	"context"
	"encoding/json"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"

	"github.com/wyfcoding/papertrading/internal/marketdata/domain"
	"github.com/wyfcoding/papertrading/pkg/logger"
)

// QuoteEventHandler 将 market.price 事件写入报价缓存
type QuoteEventHandler struct {
	reader *kafkago.Reader
	cache  domain.QuoteCache
}

// NewQuoteEventHandler 创建行情事件消费者
func NewQuoteEventHandler(brokers []string, topic, groupID string, cache domain.QuoteCache) *QuoteEventHandler {
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  time.Second,
	})
	return &QuoteEventHandler{reader: reader, cache: cache}
}

// Run 阻塞消费直至 ctx 取消
func (h *QuoteEventHandler) Run(ctx context.Context) {
	for {
		msg, err := h.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Warn(ctx, "quote consumer fetch failed", "error", err)
			continue
		}
		if err := h.handle(ctx, msg); err != nil {
			logger.Warn(ctx, "quote event dropped", "error", err)
		}
		if err := h.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			logger.Warn(ctx, "quote consumer commit failed", "error", err)
		}
	}
}

// Close 关闭底层 reader
func (h *QuoteEventHandler) Close() error {
	return h.reader.Close()
}

func (h *QuoteEventHandler) handle(ctx context.Context, msg kafkago.Message) error {
	var event struct {
		Symbol        string `json:"symbol"`
		Price         string `json:"price"`
		ChangePercent string `json:"change_percent"`
		Timestamp     int64  `json:"timestamp"`
	}
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return err
	}

	price, err := decimal.NewFromString(event.Price)
	if err != nil {
		return err
	}
	changePct, _ := decimal.NewFromString(event.ChangePercent)

	return h.cache.Save(ctx, domain.Quote{
		Symbol:        event.Symbol,
		Price:         price,
		ChangePercent: changePct,
		Timestamp:     time.UnixMilli(event.Timestamp),
	})
}
