package leaderboard

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/lumen-gg/standing/internal/domain"
	"github.com/lumen-gg/standing/internal/logging"
	"github.com/lumen-gg/standing/internal/reporting"
)

type RedisLeaderboard struct {
	client *redis.Client
}

func NewRedisLeaderboard(client *redis.Client) *RedisLeaderboard {
	return &RedisLeaderboard{client: client}
}

func (l *RedisLeaderboard) RemovePlayer(ctx context.Context, playerID int64, country string) error {
	member := strconv.FormatInt(playerID, 10)

	countries := []string{""}
	if country != "" && country != domain.UnknownCountry {
		countries = append(countries, country)
	}

	// A partial removal leaves a sanctioned player visible on some board,
	// so the whole fan-out runs in one pipeline and any failure is an error.
	pipe := l.client.Pipeline()
	for _, mode := range domain.AllModes() {
		for _, variant := range domain.AllVariants() {
			for _, boardCountry := range countries {
				pipe.ZRem(ctx, leaderboardKey(mode, variant, boardCountry), member)
			}
		}
	}

	_, err := pipe.Exec(ctx)
	if err != nil {
		err := fmt.Errorf("failed to remove player from leaderboards: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"playerID": member,
			"country":  country,
		})
		return err
	}

	logging.FromContext(ctx).Info("Removed player from leaderboards", "playerId", playerID, "country", country)

	return nil
}
