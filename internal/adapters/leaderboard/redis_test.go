package leaderboard

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumen-gg/standing/internal/domain"
)

func newTestClient(t *testing.T) *redis.Client {
	t.Helper()

	mini := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mini.Addr()})
}

func TestRemovePlayerFansOutOverEveryBoard(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client := newTestClient(t)
	lb := NewRedisLeaderboard(client)

	keys := []string{}
	for _, mode := range domain.AllModes() {
		for _, variant := range domain.AllVariants() {
			keys = append(keys,
				leaderboardKey(mode, variant, ""),
				leaderboardKey(mode, variant, "NO"),
			)
		}
	}
	require.Len(t, keys, 16)

	for _, key := range keys {
		require.NoError(t, client.ZAdd(ctx, key, redis.Z{Score: 1000, Member: "42"}).Err())
		require.NoError(t, client.ZAdd(ctx, key, redis.Z{Score: 2000, Member: "7"}).Err())
	}

	require.NoError(t, lb.RemovePlayer(ctx, 42, "NO"))

	for _, key := range keys {
		members, err := client.ZRange(ctx, key, 0, -1).Result()
		require.NoError(t, err)
		assert.NotContains(t, members, "42", "key %s", key)
		assert.Contains(t, members, "7", "key %s", key)
	}
}

func TestRemovePlayerSkipsUnknownCountry(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client := newTestClient(t)
	lb := NewRedisLeaderboard(client)

	countryKey := leaderboardKey(domain.ModeStandard, domain.VariantVanilla, "XX")
	require.NoError(t, client.ZAdd(ctx, countryKey, redis.Z{Score: 1000, Member: "42"}).Err())

	require.NoError(t, lb.RemovePlayer(ctx, 42, domain.UnknownCountry))

	// The unknown-country board is left alone.
	members, err := client.ZRange(ctx, countryKey, 0, -1).Result()
	require.NoError(t, err)
	assert.Contains(t, members, "42")

	globalKey := leaderboardKey(domain.ModeStandard, domain.VariantVanilla, "")
	require.NoError(t, client.ZAdd(ctx, globalKey, redis.Z{Score: 1000, Member: "42"}).Err())
	require.NoError(t, lb.RemovePlayer(ctx, 42, domain.UnknownCountry))

	members, err = client.ZRange(ctx, globalKey, 0, -1).Result()
	require.NoError(t, err)
	assert.Empty(t, members)
}

func TestLeaderboardKey(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "standing:leaderboard:std", leaderboardKey(domain.ModeStandard, domain.VariantVanilla, ""))
	assert.Equal(t, "standing:leaderboard:taiko:no", leaderboardKey(domain.ModeTaiko, domain.VariantVanilla, "NO"))
	assert.Equal(t, "standing:leaderboard:mania:relax", leaderboardKey(domain.ModeMania, domain.VariantRelax, ""))
	assert.Equal(t, "standing:leaderboard:ctb:de:relax", leaderboardKey(domain.ModeCatch, domain.VariantRelax, "DE"))
}
