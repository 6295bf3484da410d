// Package broadcast pushes committed price samples to Redis so that other
// services can read the latest value or subscribe to updates.
package broadcast

import (
	"context"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"

	"price_simulator/internal/domain/entity"
	"price_simulator/pkg/rest"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals // skip

const (
	LatestKeyPrefix = "price:latest:"
	ChannelPrefix   = "prices."
)

// RedisPublisher stores the latest sample of each key under
// price:latest:<key> and publishes it on prices.<key>.
type RedisPublisher struct {
	client    redis.UniversalClient
	latestTTL time.Duration
}

func NewRedisPublisher(client redis.UniversalClient) *RedisPublisher {
	return &RedisPublisher{
		client: client,
	}
}

// WithLatestTTL expires the latest snapshot when no update arrives in time.
// Zero keeps it forever.
func (p *RedisPublisher) WithLatestTTL(ttl time.Duration) *RedisPublisher {
	p.latestTTL = ttl
	return p
}

func (p *RedisPublisher) Publish(ctx context.Context, sample entity.PriceSample) error {
	payload, err := json.Marshal(rest.PriceSample{
		Name:  sample.Key.String(),
		Time:  sample.Timestamp.UTC(),
		Value: sample.Value,
	})
	if err != nil {
		return fmt.Errorf("json.Marshal: %w", err)
	}

	_, err = p.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, LatestKey(sample.Key.String()), payload, p.latestTTL)
		pipe.Publish(ctx, Channel(sample.Key.String()), payload)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis.TxPipelined: %w", err)
	}

	return nil
}

func LatestKey(key string) string {
	return LatestKeyPrefix + key
}

func Channel(key string) string {
	return ChannelPrefix + key
}
