package sessioncache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lumen-gg/standing/internal/reporting"
)

type RedisSessionCache struct {
	client *redis.Client
}

func NewRedisSessionCache(client *redis.Client) *RedisSessionCache {
	return &RedisSessionCache{client: client}
}

// NewRedisClient connects to the given redis URL and verifies the connection.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}

func (c *RedisSessionCache) GetID(ctx context.Context, safeName string) (int64, bool, error) {
	value, err := c.client.Get(ctx, idKey(safeName)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		err := fmt.Errorf("failed to get cached id: %w", err)
		reporting.Report(ctx, err, map[string]string{"safeName": safeName})
		return 0, false, err
	}

	playerID, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		err := fmt.Errorf("failed to parse cached id: %w", err)
		reporting.Report(ctx, err, map[string]string{"safeName": safeName, "value": value})
		return 0, false, err
	}

	return playerID, true, nil
}

func (c *RedisSessionCache) SetID(ctx context.Context, safeName string, playerID int64, ttl time.Duration) error {
	err := c.client.Set(ctx, idKey(safeName), strconv.FormatInt(playerID, 10), ttl).Err()
	if err != nil {
		err := fmt.Errorf("failed to cache id: %w", err)
		reporting.Report(ctx, err, map[string]string{"safeName": safeName})
		return err
	}
	return nil
}

func (c *RedisSessionCache) DeleteID(ctx context.Context, safeName string) error {
	err := c.client.Del(ctx, idKey(safeName)).Err()
	if err != nil {
		err := fmt.Errorf("failed to delete cached id: %w", err)
		reporting.Report(ctx, err, map[string]string{"safeName": safeName})
		return err
	}
	return nil
}

func (c *RedisSessionCache) AddSession(ctx context.Context, playerID int64, origin string) error {
	err := c.client.SAdd(ctx, sessionsKey(playerID), origin).Err()
	if err != nil {
		err := fmt.Errorf("failed to add session flag: %w", err)
		reporting.Report(ctx, err, map[string]string{"playerID": strconv.FormatInt(playerID, 10)})
		return err
	}
	return nil
}

func (c *RedisSessionCache) RemoveSession(ctx context.Context, playerID int64, origin string) error {
	err := c.client.SRem(ctx, sessionsKey(playerID), origin).Err()
	if err != nil {
		err := fmt.Errorf("failed to remove session flag: %w", err)
		reporting.Report(ctx, err, map[string]string{"playerID": strconv.FormatInt(playerID, 10)})
		return err
	}
	return nil
}

func (c *RedisSessionCache) HasSession(ctx context.Context, playerID int64, origin string) (bool, error) {
	isMember, err := c.client.SIsMember(ctx, sessionsKey(playerID), origin).Result()
	if err != nil {
		err := fmt.Errorf("failed to check session flag: %w", err)
		reporting.Report(ctx, err, map[string]string{"playerID": strconv.FormatInt(playerID, 10)})
		return false, err
	}
	return isMember, nil
}

func (c *RedisSessionCache) HasAnySession(ctx context.Context, playerID int64) (bool, error) {
	count, err := c.client.SCard(ctx, sessionsKey(playerID)).Result()
	if err != nil {
		err := fmt.Errorf("failed to count session flags: %w", err)
		reporting.Report(ctx, err, map[string]string{"playerID": strconv.FormatInt(playerID, 10)})
		return false, err
	}
	return count > 0, nil
}

func (c *RedisSessionCache) DeletePendingRename(ctx context.Context, playerID int64) error {
	err := c.client.Del(ctx, pendingRenameKey(playerID)).Err()
	if err != nil {
		err := fmt.Errorf("failed to delete pending rename marker: %w", err)
		reporting.Report(ctx, err, map[string]string{"playerID": strconv.FormatInt(playerID, 10)})
		return err
	}
	return nil
}

func (c *RedisSessionCache) PublishSanction(ctx context.Context, playerID int64) error {
	err := c.client.Publish(ctx, SanctionChannel, strconv.FormatInt(playerID, 10)).Err()
	if err != nil {
		err := fmt.Errorf("failed to publish sanction: %w", err)
		reporting.Report(ctx, err, map[string]string{"playerID": strconv.FormatInt(playerID, 10)})
		return err
	}
	return nil
}
