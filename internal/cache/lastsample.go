package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"rentwatch/internal/models"
)

// LastSampleCache — последний отчёт каждого устройства в Redis,
// чтобы эвристики не ходили в БД за baseline на каждом приёме.
// Кэш необязателен: промах или недоступность Redis — не ошибка
// приёма, вызывающий падает обратно на таблицу stats.
type LastSampleCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewLastSampleCache(addr, password string, db int, ttl time.Duration) (*LastSampleCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &LastSampleCache{client: client, ttl: ttl}, nil
}

func key(deviceID uint) string { return fmt.Sprintf("rentwatch:lastsample:%d", deviceID) }

// Get — nil, nil при промахе.
func (c *LastSampleCache) Get(ctx context.Context, deviceID uint) (*models.StatsSample, error) {
	raw, err := c.client.Get(ctx, key(deviceID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var sample models.StatsSample
	if err := json.Unmarshal(raw, &sample); err != nil {
		return nil, err
	}
	return &sample, nil
}

func (c *LastSampleCache) Set(ctx context.Context, sample *models.StatsSample) error {
	raw, err := json.Marshal(sample)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key(sample.DeviceID), raw, c.ttl).Err()
}

func (c *LastSampleCache) Close() error { return c.client.Close() }
