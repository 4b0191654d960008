package identity_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/lumen-gg/standing/internal/adapters/cache"
	"github.com/lumen-gg/standing/internal/adapters/playerrepository"
	"github.com/lumen-gg/standing/internal/adapters/sessioncache"
	"github.com/lumen-gg/standing/internal/domain"
	"github.com/lumen-gg/standing/internal/identity"
)

type fixture struct {
	service  *identity.Service
	players  *playerrepository.FakePlayerRepository
	sessions *sessioncache.RedisSessionCache
	mini     *miniredis.Miniredis
}

func newFixture(t *testing.T, players ...*domain.Player) *fixture {
	t.Helper()

	mini := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	sessions := sessioncache.NewRedisSessionCache(client)
	playerRepo := playerrepository.NewFakePlayerRepository(players...)

	return &fixture{
		service:  identity.NewService(playerRepo, sessions, cache.NewTTLCache[int64](time.Hour), time.Hour),
		players:  playerRepo,
		sessions: sessions,
		mini:     mini,
	}
}

func TestResolveIDNormalizesAndCaches(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	player := &domain.Player{ID: 1001, Username: "Cool Guy", SafeName: "cool_guy"}
	f := newFixture(t, player)

	playerID, err := f.service.ResolveID(ctx, "Cool Guy")
	require.NoError(t, err)
	assert.Equal(t, int64(1001), playerID)

	// Any form normalizing to the same safe name resolves
	playerID, err = f.service.ResolveID(ctx, "  COOL guy ")
	require.NoError(t, err)
	assert.Equal(t, int64(1001), playerID)

	_, err = f.service.ResolveID(ctx, "nobody")
	assert.ErrorIs(t, err, domain.ErrPlayerNotFound)
}

func TestCheckLoginVerifiesCredential(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	player := &domain.Player{ID: 1001, Username: "Cool Guy", SafeName: "cool_guy"}
	f := newFixture(t, player)

	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)
	f.players.SetCredentialHash(1001, string(hash))

	ok, err := f.service.CheckLogin(ctx, 1001, "hunter2", "192.0.2.1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.service.CheckLogin(ctx, 1001, "wrong", "192.0.2.1")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = f.service.CheckLogin(ctx, 9999, "hunter2", "192.0.2.1")
	assert.ErrorIs(t, err, domain.ErrPlayerNotFound)
}

func TestCheckLoginTrustsLiveSession(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	player := &domain.Player{ID: 1001, Username: "Cool Guy", SafeName: "cool_guy"}
	f := newFixture(t, player)

	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)
	f.players.SetCredentialHash(1001, string(hash))

	require.NoError(t, f.service.SaveSession(ctx, 1001, "192.0.2.1"))

	// Wrong credential succeeds from the session origin
	ok, err := f.service.CheckLogin(ctx, 1001, "wrong", "192.0.2.1")
	require.NoError(t, err)
	assert.True(t, ok)

	// But not from another origin
	ok, err = f.service.CheckLogin(ctx, 1001, "wrong", "192.0.2.2")
	require.NoError(t, err)
	assert.False(t, ok)

	// Logout clears the shortcut
	require.NoError(t, f.service.DeleteSession(ctx, 1001, "192.0.2.1"))
	ok, err = f.service.CheckLogin(ctx, 1001, "wrong", "192.0.2.1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestChangeUsernameValidation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	player := &domain.Player{ID: 1001, Username: "Cool Guy", SafeName: "cool_guy"}
	other := &domain.Player{ID: 2002, Username: "Other Guy", SafeName: "other_guy"}
	f := newFixture(t, player, other)

	// Mixing spaces and underscores is ambiguous after normalization
	err := f.service.ChangeUsername(ctx, 1001, "Cool_Guy Again")
	assert.ErrorIs(t, err, domain.ErrInvalidUsername)

	err = f.service.ChangeUsername(ctx, 1001, "ThisNameIsWayTooLongToBeAccepted")
	assert.ErrorIs(t, err, domain.ErrInvalidUsername)

	// Names normalizing to another player's safe name are taken
	err = f.service.ChangeUsername(ctx, 1001, "Other Guy")
	assert.ErrorIs(t, err, domain.ErrUsernameTaken)

	// Renaming to a form of your own name is allowed
	require.NoError(t, f.service.ChangeUsername(ctx, 1001, "COOL GUY"))
}

func TestChangeUsernameInvalidatesOldCacheEntry(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	player := &domain.Player{ID: 1001, Username: "Cool Guy", SafeName: "cool_guy"}
	f := newFixture(t, player)

	// Prime the caches
	playerID, err := f.service.ResolveID(ctx, "Cool Guy")
	require.NoError(t, err)
	require.Equal(t, int64(1001), playerID)

	require.NoError(t, f.service.ChangeUsername(ctx, 1001, "New Name"))

	// The old name no longer resolves
	_, err = f.service.ResolveID(ctx, "Cool Guy")
	assert.ErrorIs(t, err, domain.ErrPlayerNotFound)

	playerID, err = f.service.ResolveID(ctx, "New Name")
	require.NoError(t, err)
	assert.Equal(t, int64(1001), playerID)

	username, err := f.service.GetUsername(ctx, 1001)
	require.NoError(t, err)
	assert.Equal(t, "New Name", username)
}

func TestIsSupporter(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	donor := &domain.Player{ID: 1, SafeName: "donor", DonorExpiry: time.Now().Add(24 * time.Hour)}
	expired := &domain.Player{ID: 2, SafeName: "expired", DonorExpiry: time.Now().Add(-24 * time.Hour)}
	subscriber := &domain.Player{ID: 3, SafeName: "subscriber", Subscriber: true}
	f := newFixture(t, donor, expired, subscriber)

	ok, err := f.service.IsSupporter(ctx, 1)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.service.IsSupporter(ctx, 2)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = f.service.IsSupporter(ctx, 3)
	require.NoError(t, err)
	assert.True(t, ok)
}
