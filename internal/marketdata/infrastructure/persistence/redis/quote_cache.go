// Package redis 提供最新报价缓存的 Redis 实现
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wyfcoding/papertrading/internal/marketdata/domain"
)

// QuoteCache 最新报价的 Redis 读模型
type QuoteCache struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewQuoteCache 创建报价缓存
func NewQuoteCache(client redis.UniversalClient) *QuoteCache {
	return &QuoteCache{
		client: client,
		prefix: "papertrading:quote:",
		ttl:    24 * time.Hour,
	}
}

// Save 写入最新报价
func (c *QuoteCache) Save(ctx context.Context, quote domain.Quote) error {
	data, err := json.Marshal(quote)
	if err != nil {
		return fmt.Errorf("failed to marshal quote: %w", err)
	}
	if err := c.client.Set(ctx, c.prefix+quote.Symbol, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache quote: %w", err)
	}
	return nil
}

// Get 读取最新报价，缺失返回 (nil, nil)
func (c *QuoteCache) Get(ctx context.Context, symbol string) (*domain.Quote, error) {
	data, err := c.client.Get(ctx, c.prefix+symbol).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get quote from redis: %w", err)
	}
	var quote domain.Quote
	if err := json.Unmarshal(data, &quote); err != nil {
		return nil, fmt.Errorf("failed to unmarshal quote: %w", err)
	}
	return &quote, nil
}
